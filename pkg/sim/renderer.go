package sim

import (
	"errors"
	"fmt"

	"github.com/robocraft/simusd/pkg/mathx"
)

// Renderer errors.
var (
	ErrTooManyGeoms  = errors.New("scene geom count exceeds max_geom")
	ErrUnknownCamera = errors.New("unknown camera")
)

// DefaultMaxGeom bounds the snapshot size when the caller passes 0.
const DefaultMaxGeom = 10000

// Renderer recomputes the scene snapshot from the model and a state.
type Renderer struct {
	model   *Model
	width   int
	height  int
	maxGeom int
	scene   Scene
}

// NewRenderer creates a renderer producing snapshots of at most maxGeom
// instances at the given image size.
func NewRenderer(m *Model, height, width, maxGeom int) *Renderer {
	if maxGeom <= 0 {
		maxGeom = DefaultMaxGeom
	}
	return &Renderer{
		model:   m,
		width:   width,
		height:  height,
		maxGeom: maxGeom,
		scene:   Scene{MaxGeom: maxGeom},
	}
}

// Scene returns the current snapshot. The snapshot is rebuilt in place by
// UpdateScene, so callers must not hold instances across updates.
func (r *Renderer) Scene() *Scene { return &r.scene }

// UpdateScene recomputes the snapshot for the given state and option,
// framing it with the default free camera.
func (r *Renderer) UpdateScene(state *State, opt *Option) error {
	if err := r.rebuild(state, opt); err != nil {
		return err
	}
	r.fillStereoPair(r.defaultCamera(), defaultIPD)
	return nil
}

// UpdateSceneFromCamera recomputes the snapshot framed from the named
// model camera, filling the stereo camera pair from its pose.
func (r *Renderer) UpdateSceneFromCamera(state *State, opt *Option, camera string) error {
	idx, ok := r.model.CameraIndex(camera)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCamera, camera)
	}
	if err := r.rebuild(state, opt); err != nil {
		return err
	}
	def := r.model.Cameras[idx]
	ipd := def.IPD
	if ipd == 0 {
		ipd = defaultIPD
	}
	r.fillStereoPair(CameraView{
		Pos:     def.Pos,
		Forward: def.Forward.Normalize(),
		Up:      def.Up.Normalize(),
	}, ipd)
	return nil
}

const defaultIPD = 0.068

func (r *Renderer) rebuild(state *State, opt *Option) error {
	if opt == nil {
		opt = DefaultOption()
	}

	r.scene.Geoms = r.scene.Geoms[:0]

	for i, g := range r.model.Geoms {
		if g.Group >= 0 && g.Group < NGroup && !opt.Groups[g.Group] {
			continue
		}
		bodyMat := state.BodyQuat[g.Body].ToMat3()
		q := g.Quat
		if q == (mathx.Quat{}) {
			q = mathx.QuatIdentity()
		}
		r.scene.Geoms = append(r.scene.Geoms, Geom{
			ObjType: ObjGeom,
			ObjID:   i,
			Type:    g.Type,
			DataID:  g.DataID,
			MatID:   g.MatID,
			Size:    g.Size,
			Pos:     state.BodyPos[g.Body].Add(bodyMat.MulVec(g.Pos)),
			Mat:     bodyMat.Mul(q.ToMat3()),
			RGBA:    g.RGBA,
		})
	}

	for i, td := range r.model.Tendons {
		p0 := state.BodyPos[td.Body0]
		p1 := state.BodyPos[td.Body1]
		seg := p1.Sub(p0)
		length := seg.Length()
		if length == 0 {
			continue
		}
		r.scene.Geoms = append(r.scene.Geoms, Geom{
			ObjType: ObjTendon,
			ObjID:   i,
			SegID:   0,
			Type:    GeomCapsule,
			DataID:  -1,
			MatID:   td.MatID,
			Size:    mathx.Vec3{X: td.Width, Y: td.Width, Z: length / 2},
			Pos:     p0.Add(seg.Scale(0.5)),
			Mat:     segmentFrame(seg.Scale(1 / length)),
			RGBA:    td.RGBA,
		})
	}

	if len(r.scene.Geoms) > r.maxGeom {
		return fmt.Errorf("%w: %d > %d", ErrTooManyGeoms, len(r.scene.Geoms), r.maxGeom)
	}

	r.scene.Lights = r.scene.Lights[:0]
	for _, l := range r.model.Lights {
		r.scene.Lights = append(r.scene.Lights, Light{
			Pos:     l.Pos,
			Dir:     l.Dir,
			Diffuse: l.Diffuse,
		})
	}
	return nil
}

// segmentFrame builds an orthonormal frame whose Z axis is the unit
// direction of a tendon segment.
func segmentFrame(dir mathx.Vec3) mathx.Mat3 {
	ref := mathx.Vec3{Z: 1}
	if dir.Cross(ref).NearZero(1e-9) {
		ref = mathx.Vec3{X: 1}
	}
	x := ref.Cross(dir).Normalize()
	y := dir.Cross(x)
	return mathx.FromColumns(x, y, dir)
}

// defaultCamera frames the scene from a fixed free viewpoint above the
// origin, matching the behavior of an unscoped snapshot update.
func (r *Renderer) defaultCamera() CameraView {
	pos := mathx.Vec3{X: 2, Y: -2, Z: 2}
	forward := mathx.Vec3{}.Sub(pos).Normalize()
	up := mathx.Vec3{Z: 1}
	right := forward.Cross(up).Normalize()
	up = right.Cross(forward)
	return CameraView{Pos: pos, Forward: forward, Up: up}
}

func (r *Renderer) fillStereoPair(view CameraView, ipd float64) {
	right := view.Forward.Cross(view.Up).Normalize()
	offset := right.Scale(ipd / 2)
	r.scene.Cameras[0] = CameraView{
		Pos:     view.Pos.Sub(offset),
		Forward: view.Forward,
		Up:      view.Up,
	}
	r.scene.Cameras[1] = CameraView{
		Pos:     view.Pos.Add(offset),
		Forward: view.Forward,
		Up:      view.Up,
	}
}
