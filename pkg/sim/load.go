package sim

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/robocraft/simusd/pkg/mathx"
)

// Scene file errors.
var (
	ErrBadGeomType = errors.New("unknown geom type")
	ErrBadBodyRef  = errors.New("geom references unknown body")
	ErrBadMeshRef  = errors.New("geom references unknown mesh")
)

// The yaml-facing scene description. Mirrors Model but uses names instead
// of indices and compact texture specs.

type sceneFile struct {
	Name     string         `yaml:"name"`
	Timestep float64        `yaml:"timestep"`
	Visual   sceneVisual    `yaml:"visual"`
	Meshes   []sceneMesh    `yaml:"meshes"`
	Bodies   []sceneBody    `yaml:"bodies"`
	Tendons  []sceneTendon  `yaml:"tendons"`
	Textures []sceneTexture `yaml:"textures"`
	Lights   []sceneLight   `yaml:"lights"`
	Cameras  []sceneCamera  `yaml:"cameras"`
}

type sceneVisual struct {
	OffWidth  int `yaml:"offwidth"`
	OffHeight int `yaml:"offheight"`
}

type sceneBody struct {
	Name  string      `yaml:"name"`
	Pos   [3]float64  `yaml:"pos"`
	Geoms []sceneGeom `yaml:"geoms"`
}

type sceneGeom struct {
	Name    string     `yaml:"name"`
	Type    string     `yaml:"type"`
	Size    [3]float64 `yaml:"size"`
	Pos     [3]float64 `yaml:"pos"`
	RGBA    *Color     `yaml:"rgba"`
	Texture *int       `yaml:"texture"` // texture index, absent for none
	Mesh    string     `yaml:"mesh"`    // mesh name, required for type mesh
	Group   int        `yaml:"group"`
}

type sceneMesh struct {
	Name     string       `yaml:"name"`
	Vertices [][3]float64 `yaml:"vertices"`
	Faces    [][3]int     `yaml:"faces"` // triangles as vertex index triplets
}

type sceneTendon struct {
	Name  string     `yaml:"name"`
	From  string     `yaml:"from"` // body name
	To    string     `yaml:"to"`   // body name
	Width float64    `yaml:"width"`
	RGBA  *Color     `yaml:"rgba"`
}

type sceneTexture struct {
	Width   int        `yaml:"width"`
	Height  int        `yaml:"height"`
	Color1  [3]float64 `yaml:"color1"`
	Color2  [3]float64 `yaml:"color2"`
	Checker int        `yaml:"checker"` // checker cell size in pixels
}

type sceneLight struct {
	Name    string     `yaml:"name"`
	Pos     [3]float64 `yaml:"pos"`
	Diffuse [3]float64 `yaml:"diffuse"`
}

type sceneCamera struct {
	Name    string     `yaml:"name"`
	Pos     [3]float64 `yaml:"pos"`
	Forward [3]float64 `yaml:"forward"`
	Up      [3]float64 `yaml:"up"`
}

var geomTypeNames = map[string]GeomType{
	"plane":     GeomPlane,
	"sphere":    GeomSphere,
	"capsule":   GeomCapsule,
	"ellipsoid": GeomEllipsoid,
	"cylinder":  GeomCylinder,
	"box":       GeomBox,
	"mesh":      GeomMesh,
}

// LoadModel reads a YAML scene description into a Model.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	return ParseModel(data)
}

// ParseModel parses a YAML scene description.
func ParseModel(data []byte) (*Model, error) {
	var sf sceneFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing scene file: %w", err)
	}

	m := &Model{
		Name:     sf.Name,
		Timestep: sf.Timestep,
		Vis: Visual{
			OffWidth:  sf.Visual.OffWidth,
			OffHeight: sf.Visual.OffHeight,
		},
	}
	if m.Timestep <= 0 {
		m.Timestep = 0.002
	}
	if m.Vis.OffWidth <= 0 {
		m.Vis.OffWidth = 640
	}
	if m.Vis.OffHeight <= 0 {
		m.Vis.OffHeight = 480
	}

	meshIndex := map[string]int{}
	for i, mesh := range sf.Meshes {
		meshIndex[mesh.Name] = i
		md := MeshData{Name: mesh.Name, Faces: mesh.Faces}
		for _, v := range mesh.Vertices {
			md.Vertices = append(md.Vertices, vec3(v))
		}
		m.Meshes = append(m.Meshes, md)
	}

	bodyIndex := map[string]int{}
	for i, b := range sf.Bodies {
		bodyIndex[b.Name] = i
		m.Bodies = append(m.Bodies, BodyDef{
			Name: b.Name,
			Pos:  vec3(b.Pos),
			Quat: mathx.QuatIdentity(),
		})
	}

	for bi, b := range sf.Bodies {
		for _, g := range b.Geoms {
			gt, ok := geomTypeNames[g.Type]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrBadGeomType, g.Type)
			}
			rgba := Color{0.5, 0.5, 0.5, 1}
			if g.RGBA != nil {
				rgba = *g.RGBA
			}
			matID := -1
			if g.Texture != nil {
				matID = len(m.Materials)
				m.Materials = append(m.Materials, Material{
					Name:  fmt.Sprintf("mat_%s", g.Name),
					TexID: []int{*g.Texture},
				})
			}
			dataID := -1
			if gt == GeomMesh {
				idx, ok := meshIndex[g.Mesh]
				if !ok {
					return nil, fmt.Errorf("%w: geom %q mesh %q", ErrBadMeshRef, g.Name, g.Mesh)
				}
				dataID = idx
			}
			m.Geoms = append(m.Geoms, GeomDef{
				Name:   g.Name,
				Type:   gt,
				Size:   vec3(g.Size),
				Body:   bi,
				Pos:    vec3(g.Pos),
				Quat:   mathx.QuatIdentity(),
				DataID: dataID,
				MatID:  matID,
				RGBA:   rgba,
				Group:  g.Group,
			})
		}
	}

	for _, td := range sf.Tendons {
		b0, ok0 := bodyIndex[td.From]
		b1, ok1 := bodyIndex[td.To]
		if !ok0 || !ok1 {
			return nil, fmt.Errorf("%w: tendon %q (%s -> %s)", ErrBadBodyRef, td.Name, td.From, td.To)
		}
		rgba := Color{0.8, 0.2, 0.2, 1}
		if td.RGBA != nil {
			rgba = *td.RGBA
		}
		width := td.Width
		if width <= 0 {
			width = 0.005
		}
		m.Tendons = append(m.Tendons, TendonDef{
			Name:  td.Name,
			Body0: b0,
			Body1: b1,
			Width: width,
			MatID: -1,
			RGBA:  rgba,
		})
	}

	for _, tx := range sf.Textures {
		m.Textures = append(m.Textures, checkerTexture(tx))
	}

	for _, l := range sf.Lights {
		diffuse := l.Diffuse
		if diffuse == ([3]float64{}) {
			diffuse = [3]float64{1, 1, 1}
		}
		m.Lights = append(m.Lights, LightDef{
			Name:    l.Name,
			Pos:     vec3(l.Pos),
			Diffuse: diffuse,
		})
	}

	for _, c := range sf.Cameras {
		fwd := vec3(c.Forward)
		if fwd == (mathx.Vec3{}) {
			fwd = mathx.Vec3{X: 0, Y: 0, Z: -1}
		}
		up := vec3(c.Up)
		if up == (mathx.Vec3{}) {
			up = mathx.Vec3{Y: 1}
		}
		m.Cameras = append(m.Cameras, CameraDef{
			Name:    c.Name,
			Pos:     vec3(c.Pos),
			Forward: fwd,
			Up:      up,
		})
	}

	return m, nil
}

func vec3(a [3]float64) mathx.Vec3 {
	return mathx.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// checkerTexture renders a two-color checkerboard into RGB pixels.
func checkerTexture(tx sceneTexture) Texture {
	w, h := tx.Width, tx.Height
	if w <= 0 {
		w = 64
	}
	if h <= 0 {
		h = 64
	}
	cell := tx.Checker
	if cell <= 0 {
		cell = 8
	}
	c1, c2 := tx.Color1, tx.Color2
	if c1 == ([3]float64{}) && c2 == ([3]float64{}) {
		c1 = [3]float64{0.8, 0.8, 0.8}
		c2 = [3]float64{0.2, 0.3, 0.4}
	}

	pix := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := c1
			if (x/cell+y/cell)%2 == 1 {
				c = c2
			}
			off := (y*w + x) * 3
			pix[off] = byte(c[0] * 255)
			pix[off+1] = byte(c[1] * 255)
			pix[off+2] = byte(c[2] * 255)
		}
	}
	return Texture{Width: w, Height: h, Channels: 3, Pixels: pix}
}
