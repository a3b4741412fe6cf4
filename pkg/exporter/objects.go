package exporter

import (
	"fmt"

	"github.com/robocraft/simusd/pkg/mathx"
	"github.com/robocraft/simusd/pkg/shapes"
	"github.com/robocraft/simusd/pkg/sim"
	"github.com/robocraft/simusd/pkg/usd"
)

// geomRecord is one exported geometry. Records are created lazily the
// first time their derived name appears and persist for the session.
type geomRecord interface {
	update(g sim.Geom, frame int)
	finalizeVisibility()
}

// geomName derives the stable per-session name of a scene instance from
// its object identity and category.
func (e *Exporter) geomName(g sim.Geom) string {
	name := e.model.GeomName(g.ObjType, g.ObjID)
	if name == "" {
		name = "None"
	}
	name += fmt.Sprintf("_id%d", g.ObjID)

	switch g.ObjType {
	case sim.ObjGeom:
		name += "_geom"
	case sim.ObjTendon:
		name += fmt.Sprintf("_tendon_segid%d", g.SegID)
	}
	return usd.MakeValidIdentifier(name)
}

// updateGeoms translates every instance in the current snapshot,
// creating records for unseen names. Two instances deriving the same
// name within one frame violate the session's uniqueness invariant.
func (e *Exporter) updateGeoms() error {
	sc := e.renderer.Scene()
	seen := make(map[string]bool, len(sc.Geoms))

	for _, g := range sc.Geoms {
		name := e.geomName(g)
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateGeomName, name)
		}
		seen[name] = true

		rec, ok := e.geoms[name]
		if !ok {
			var err error
			rec, err = e.loadGeom(g, name)
			if err != nil {
				return fmt.Errorf("loading geom %q: %w", name, err)
			}
			e.geoms[name] = rec
		}
		rec.update(g, e.updates)
	}
	return nil
}

// loadGeom creates the record for a newly seen instance, branching on
// its category.
func (e *Exporter) loadGeom(g sim.Geom, name string) (geomRecord, error) {
	texPath, hasTex := e.resolveTexture(g)

	switch {
	case g.Type == sim.GeomMesh:
		return e.loadModelMesh(g, name, texPath, hasTex)

	case g.ObjType == sim.ObjTendon:
		// Tendon segments stretch every frame; a decoupled unit capsule
		// lets the shaft scale without deforming the caps.
		cfg, err := shapes.GenerateDecoupled(name, sim.GeomCapsule)
		if err != nil {
			return nil, err
		}
		return e.loadTendon(cfg, g, name, texPath, hasTex)

	default:
		cfg, err := shapes.Generate(name, g.Type, g.Size)
		if err != nil {
			return nil, err
		}
		return e.loadPrimitive(cfg.Parts[0], g, name, texPath, hasTex)
	}
}

// resolveTexture follows the material-id to texture-id indirection and
// returns the frames-relative asset path of the instance's texture.
func (e *Exporter) resolveTexture(g sim.Geom) (string, bool) {
	if g.MatID < 0 || g.MatID >= len(e.model.Materials) {
		return "", false
	}
	for _, texID := range e.model.Materials[g.MatID].TexID {
		if texID >= 0 && texID < len(e.texturePaths) {
			return e.texturePaths[texID], true
		}
	}
	return "", false
}

// meshRecord exports one rigid mesh prim: a model mesh or a synthesized
// primitive.
type meshRecord struct {
	prim        *usd.Prim
	lastVisible int
}

func (r *meshRecord) update(g sim.Geom, frame int) {
	t := float64(frame)
	r.prim.SetTranslateSample(t, usd.Vec3{g.Pos.X, g.Pos.Y, g.Pos.Z})
	r.prim.SetOrientSample(t, quatValue(g.Mat))

	visible := g.RGBA[3] > 0
	r.prim.SetVisibilitySample(t, visible)
	if visible {
		r.lastVisible = frame
	}
}

func (r *meshRecord) finalizeVisibility() {
	r.prim.SetVisibilitySample(float64(r.lastVisible+1), false)
}

func (e *Exporter) loadModelMesh(g sim.Geom, name, texPath string, hasTex bool) (geomRecord, error) {
	if g.DataID < 0 || g.DataID >= len(e.model.Meshes) {
		return nil, fmt.Errorf("geom %q references mesh data %d of %d", name, g.DataID, len(e.model.Meshes))
	}
	data := e.model.Meshes[g.DataID]

	part := shapes.Part{Name: name, Points: data.Vertices}
	for _, f := range data.Faces {
		part.FaceVertexCounts = append(part.FaceVertexCounts, 3)
		part.FaceVertexIndices = append(part.FaceVertexIndices, f[0], f[1], f[2])
	}

	prim, err := e.defineMeshPrim("/World/"+name, part, g.RGBA, texPath, hasTex)
	if err != nil {
		return nil, err
	}
	prim.SetScale(usd.Vec3{1, 1, 1})
	return &meshRecord{prim: prim, lastVisible: -1}, nil
}

func (e *Exporter) loadPrimitive(part shapes.Part, g sim.Geom, name, texPath string, hasTex bool) (geomRecord, error) {
	prim, err := e.defineMeshPrim("/World/"+name, part, g.RGBA, texPath, hasTex)
	if err != nil {
		return nil, err
	}
	prim.SetScale(usd.Vec3{1, 1, 1})
	return &meshRecord{prim: prim, lastVisible: -1}, nil
}

// tendonRecord exports a tendon segment as an Xform over decoupled
// capsule parts whose scale tracks the per-frame segment size.
type tendonRecord struct {
	root        *usd.Prim
	shaft       *usd.Prim
	capTop      *usd.Prim
	capBottom   *usd.Prim
	lastVisible int
}

func (r *tendonRecord) update(g sim.Geom, frame int) {
	t := float64(frame)
	r.root.SetTranslateSample(t, usd.Vec3{g.Pos.X, g.Pos.Y, g.Pos.Z})
	r.root.SetOrientSample(t, quatValue(g.Mat))

	// Per-frame scale from the instance size: radius in X/Y, half-length
	// in Z. The caps keep the radius in all axes and ride the shaft ends.
	radius, halfLen := g.Size.X, g.Size.Z
	r.shaft.SetScaleSample(t, usd.Vec3{radius, radius, halfLen})
	r.capTop.SetScaleSample(t, usd.Vec3{radius, radius, radius})
	r.capTop.SetTranslateSample(t, usd.Vec3{0, 0, halfLen})
	r.capBottom.SetScaleSample(t, usd.Vec3{radius, radius, radius})
	r.capBottom.SetTranslateSample(t, usd.Vec3{0, 0, -halfLen})

	visible := g.RGBA[3] > 0
	r.root.SetVisibilitySample(t, visible)
	if visible {
		r.lastVisible = frame
	}
}

func (r *tendonRecord) finalizeVisibility() {
	r.root.SetVisibilitySample(float64(r.lastVisible+1), false)
}

func (e *Exporter) loadTendon(cfg shapes.Config, g sim.Geom, name, texPath string, hasTex bool) (geomRecord, error) {
	root, err := e.stage.DefinePrim("/World/"+name, "Xform")
	if err != nil {
		return nil, err
	}
	root.SetXformOpOrder()

	rec := &tendonRecord{root: root, lastVisible: -1}
	for _, part := range cfg.Parts {
		prim, err := e.defineMeshPrim(root.Path()+"/"+part.Name, part, g.RGBA, texPath, hasTex)
		if err != nil {
			return nil, err
		}
		prim.SetTranslateSample(0, usd.Vec3{})
		switch part.Name {
		case "shaft":
			rec.shaft = prim
		case "cap_top":
			rec.capTop = prim
		case "cap_bottom":
			rec.capBottom = prim
		}
	}
	return rec, nil
}

// defineMeshPrim creates a Mesh prim with topology, shading inputs and
// the standard transform op order.
func (e *Exporter) defineMeshPrim(path string, part shapes.Part, rgba sim.Color, texPath string, hasTex bool) (*usd.Prim, error) {
	prim, err := e.stage.DefinePrim(path, "Mesh")
	if err != nil {
		return nil, err
	}

	points := make(usd.Vec3Array, len(part.Points))
	for i, p := range part.Points {
		points[i] = usd.Vec3{p.X, p.Y, p.Z}
	}
	prim.Attribute("points", "point3f[]").Set(points)
	prim.Attribute("faceVertexCounts", "int[]").Set(usd.IntArray(part.FaceVertexCounts))
	prim.Attribute("faceVertexIndices", "int[]").Set(usd.IntArray(part.FaceVertexIndices))
	prim.UniformAttribute("subdivisionScheme", "token").Set(usd.Token("none"))

	if len(part.UVs) > 0 {
		st := make(usd.Vec2Array, len(part.UVs))
		for i, uv := range part.UVs {
			st[i] = usd.Vec2{uv[0], uv[1]}
		}
		prim.Attribute("primvars:st", "texCoord2f[]").SetInterpolation("vertex").Set(st)
	}

	if hasTex {
		matPath, err := e.materialFor(texPath)
		if err != nil {
			return nil, err
		}
		prim.SetRelationship("material:binding", matPath)
	} else {
		prim.Attribute("primvars:displayColor", "color3f[]").
			SetInterpolation("constant").
			Set(usd.Vec3Array{{rgba[0], rgba[1], rgba[2]}})
		prim.Attribute("primvars:displayOpacity", "float[]").
			SetInterpolation("constant").
			Set(usd.FloatArray{rgba[3]})
	}

	prim.SetXformOpOrder()
	return prim, nil
}

func quatValue(m mathx.Mat3) usd.Quat {
	q := mathx.QuatFromMat3(m)
	return usd.Quat{W: q.W, X: q.X, Y: q.Y, Z: q.Z}
}
