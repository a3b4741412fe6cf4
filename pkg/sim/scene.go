package sim

import "github.com/robocraft/simusd/pkg/mathx"

// Geom is one renderable shape instance in the scene snapshot.
type Geom struct {
	ObjType ObjType
	ObjID   int
	SegID   int // tendon segment index, meaningful for ObjTendon

	Type   GeomType
	DataID int
	MatID  int
	Size   mathx.Vec3
	Pos    mathx.Vec3
	Mat    mathx.Mat3
	RGBA   Color
}

// Light is one light in the scene snapshot.
type Light struct {
	Pos     mathx.Vec3
	Dir     mathx.Vec3
	Diffuse [3]float64
}

// CameraView is one viewpoint of the stereo camera pair.
type CameraView struct {
	Pos     mathx.Vec3
	Forward mathx.Vec3
	Up      mathx.Vec3
}

// Scene is the renderer's snapshot of the current frame.
type Scene struct {
	MaxGeom int
	Geoms   []Geom
	Lights  []Light
	// Cameras holds the stereo viewpoint pair filled by the last
	// update; index 0 is the left eye, 1 the right.
	Cameras [2]CameraView
}

// AverageCamera merges the stereo pair into a single pose: midpoint
// position with normalized averaged axes.
func AverageCamera(a, b CameraView) CameraView {
	return CameraView{
		Pos:     a.Pos.Add(b.Pos).Scale(0.5),
		Forward: a.Forward.Add(b.Forward).Normalize(),
		Up:      a.Up.Add(b.Up).Normalize(),
	}
}

// NGroup is the number of geom visibility groups.
const NGroup = 6

// Option selects which geom groups appear in the snapshot.
type Option struct {
	Groups [NGroup]bool
}

// DefaultOption returns an option with every geom group enabled.
func DefaultOption() *Option {
	var o Option
	for i := range o.Groups {
		o.Groups[i] = true
	}
	return &o
}
