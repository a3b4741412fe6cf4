// Package sim provides the simulation-model accessors and the renderer
// snapshot consumed by the USD exporter.
package sim

import (
	"github.com/robocraft/simusd/pkg/mathx"
)

// ObjType identifies which model table a scene instance came from.
type ObjType int

const (
	ObjUnknown ObjType = iota
	ObjGeom
	ObjTendon
)

// GeomType enumerates renderable shape types.
type GeomType int

const (
	GeomPlane GeomType = iota
	GeomSphere
	GeomCapsule
	GeomEllipsoid
	GeomCylinder
	GeomBox
	GeomMesh
)

// Color is an RGBA color with components in [0, 1].
type Color [4]float64

// Texture is one model texture as tightly packed RGB rows, top row first.
type Texture struct {
	Width    int
	Height   int
	Channels int
	Pixels   []byte
}

// Material references textures by role; -1 means no texture for a role.
type Material struct {
	Name  string
	TexID []int
}

// MeshData is the stored vertex data for mesh geoms.
type MeshData struct {
	Name     string
	Vertices []mathx.Vec3
	Faces    [][3]int
}

// BodyDef is a rigid body the stepper poses each frame.
type BodyDef struct {
	Name string
	Pos  mathx.Vec3
	Quat mathx.Quat
}

// GeomDef is a model geom attached to a body.
type GeomDef struct {
	Name   string
	Type   GeomType
	Size   mathx.Vec3
	Body   int
	Pos    mathx.Vec3 // offset in body frame
	Quat   mathx.Quat // orientation in body frame
	DataID int        // mesh table index for GeomMesh, else -1
	MatID  int        // material table index, or -1
	RGBA   Color
	Group  int
}

// TendonDef is a spatial tendon between two bodies, rendered as capsule
// segments.
type TendonDef struct {
	Name  string
	Body0 int
	Body1 int
	Width float64
	MatID int
	RGBA  Color
}

// LightDef is a model light. Position is in world coordinates.
type LightDef struct {
	Name    string
	Pos     mathx.Vec3
	Dir     mathx.Vec3
	Diffuse [3]float64
}

// CameraDef is a named model camera.
type CameraDef struct {
	Name    string
	Pos     mathx.Vec3
	Forward mathx.Vec3
	Up      mathx.Vec3
	// IPD is the stereo inter-pupillary distance used when the renderer
	// fills the stereo camera pair.
	IPD float64
}

// Visual holds rendering-related model settings.
type Visual struct {
	OffWidth  int
	OffHeight int
}

// Model is the static scene description.
type Model struct {
	Name     string
	Timestep float64

	Vis Visual

	Bodies    []BodyDef
	Geoms     []GeomDef
	Tendons   []TendonDef
	Textures  []Texture
	Materials []Material
	Meshes    []MeshData
	Lights    []LightDef
	Cameras   []CameraDef
}

// CameraIndex returns the index of the named camera.
func (m *Model) CameraIndex(name string) (int, bool) {
	for i := range m.Cameras {
		if m.Cameras[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// GeomName returns the model name of the object behind a scene instance,
// or "" when the object is unnamed.
func (m *Model) GeomName(objtype ObjType, objid int) string {
	switch objtype {
	case ObjGeom:
		if objid >= 0 && objid < len(m.Geoms) {
			return m.Geoms[objid].Name
		}
	case ObjTendon:
		if objid >= 0 && objid < len(m.Tendons) {
			return m.Tendons[objid].Name
		}
	}
	return ""
}

// State is the per-frame dynamic state produced by a stepper.
type State struct {
	Time     float64
	BodyPos  []mathx.Vec3
	BodyQuat []mathx.Quat
}

// NewState returns a state initialized from the model's body poses.
func NewState(m *Model) *State {
	s := &State{
		BodyPos:  make([]mathx.Vec3, len(m.Bodies)),
		BodyQuat: make([]mathx.Quat, len(m.Bodies)),
	}
	for i, b := range m.Bodies {
		s.BodyPos[i] = b.Pos
		q := b.Quat
		if q == (mathx.Quat{}) {
			q = mathx.QuatIdentity()
		}
		s.BodyQuat[i] = q
	}
	return s
}
