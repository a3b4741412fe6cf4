// Package shapes synthesizes mesh data for primitive geom types.
package shapes

import (
	"errors"
	"fmt"
	"math"

	"github.com/robocraft/simusd/pkg/mathx"
	"github.com/robocraft/simusd/pkg/sim"
)

// ErrUnsupportedGeomType is returned for geom types with no generator.
var ErrUnsupportedGeomType = errors.New("unsupported geom type")

// Ring resolution of rounded shapes.
const (
	slices = 16
	stacks = 12
)

// Part is one mesh of a config: point and face arrays in the layout the
// scene-graph document expects, plus per-vertex texture coordinates.
type Part struct {
	Name              string
	Points            []mathx.Vec3
	FaceVertexCounts  []int
	FaceVertexIndices []int
	UVs               [][2]float64
}

// Config is the generated mesh description for one geom. Most geoms
// produce a single part; decoupled capsules produce shaft and cap parts
// that transform independently.
type Config struct {
	Name  string
	Parts []Part
}

// Generate builds a mesh config for a primitive geom type and size.
// Sizes follow the half-extent convention of the simulator.
func Generate(name string, t sim.GeomType, size mathx.Vec3) (Config, error) {
	var p Part
	switch t {
	case sim.GeomPlane:
		p = plane(size)
	case sim.GeomBox:
		p = box(size)
	case sim.GeomSphere:
		p = ellipsoid(mathx.Vec3{X: size.X, Y: size.X, Z: size.X})
	case sim.GeomEllipsoid:
		p = ellipsoid(size)
	case sim.GeomCylinder:
		p = cylinder(size.X, size.Z)
	case sim.GeomCapsule:
		p = capsule(size.X, size.Z)
	default:
		return Config{}, fmt.Errorf("%w: %d", ErrUnsupportedGeomType, t)
	}
	p.Name = name
	return Config{Name: name, Parts: []Part{p}}, nil
}

// GenerateDecoupled builds a capsule config whose shaft and end caps are
// separate parts, so a tendon segment can stretch the shaft without
// deforming the caps. All parts use unit size; the caller scales them.
func GenerateDecoupled(name string, t sim.GeomType) (Config, error) {
	if t != sim.GeomCapsule {
		return Config{}, fmt.Errorf("%w: decoupled config only for capsules, got %d", ErrUnsupportedGeomType, t)
	}
	shaft := openCylinder(1, 1)
	shaft.Name = "shaft"
	top := hemisphere(1, +1)
	top.Name = "cap_top"
	bottom := hemisphere(1, -1)
	bottom.Name = "cap_bottom"
	return Config{Name: name, Parts: []Part{shaft, top, bottom}}, nil
}

func plane(size mathx.Vec3) Part {
	// A zero-sized plane is infinite in the simulator; give it a finite
	// default extent for export.
	hx, hy := size.X, size.Y
	if hx == 0 {
		hx = 1
	}
	if hy == 0 {
		hy = 1
	}
	return Part{
		Points: []mathx.Vec3{
			{X: -hx, Y: -hy}, {X: hx, Y: -hy}, {X: hx, Y: hy}, {X: -hx, Y: hy},
		},
		FaceVertexCounts:  []int{4},
		FaceVertexIndices: []int{0, 1, 2, 3},
		UVs:               [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	}
}

func box(size mathx.Vec3) Part {
	x, y, z := size.X, size.Y, size.Z
	pts := []mathx.Vec3{
		{X: -x, Y: -y, Z: -z}, {X: x, Y: -y, Z: -z}, {X: x, Y: y, Z: -z}, {X: -x, Y: y, Z: -z},
		{X: -x, Y: -y, Z: z}, {X: x, Y: -y, Z: z}, {X: x, Y: y, Z: z}, {X: -x, Y: y, Z: z},
	}
	uvs := make([][2]float64, len(pts))
	for i, p := range pts {
		uvs[i] = [2]float64{(p.X/x + 1) / 2, (p.Y/y + 1) / 2}
	}
	return Part{
		Points:           pts,
		FaceVertexCounts: []int{4, 4, 4, 4, 4, 4},
		FaceVertexIndices: []int{
			0, 3, 2, 1, // bottom
			4, 5, 6, 7, // top
			0, 1, 5, 4, // front
			1, 2, 6, 5, // right
			2, 3, 7, 6, // back
			3, 0, 4, 7, // left
		},
		UVs: uvs,
	}
}

// ellipsoid builds a latitude/longitude mesh with the poles duplicated
// into degenerate rings, which keeps the quad topology uniform.
func ellipsoid(radii mathx.Vec3) Part {
	var p Part
	for i := 0; i <= stacks; i++ {
		theta := math.Pi * float64(i) / stacks
		for j := 0; j < slices; j++ {
			phi := 2 * math.Pi * float64(j) / slices
			p.Points = append(p.Points, mathx.Vec3{
				X: radii.X * math.Sin(theta) * math.Cos(phi),
				Y: radii.Y * math.Sin(theta) * math.Sin(phi),
				Z: radii.Z * math.Cos(theta),
			})
			p.UVs = append(p.UVs, [2]float64{float64(j) / slices, 1 - float64(i)/stacks})
		}
	}
	p.FaceVertexCounts, p.FaceVertexIndices = ringQuads(stacks, slices, 0)
	return p
}

// capsule is a sphere whose upper rings are shifted +halfLen and lower
// rings -halfLen along Z, forming a cylinder of length 2*halfLen between
// two hemispherical caps.
func capsule(radius, halfLen float64) Part {
	p := ellipsoid(mathx.Vec3{X: radius, Y: radius, Z: radius})
	for i := range p.Points {
		if p.Points[i].Z >= 0 {
			p.Points[i].Z += halfLen
		} else {
			p.Points[i].Z -= halfLen
		}
	}
	return p
}

func cylinder(radius, halfLen float64) Part {
	p := openCylinder(radius, halfLen)

	// Cap fans around center points.
	topCenter := len(p.Points)
	p.Points = append(p.Points, mathx.Vec3{Z: halfLen})
	p.UVs = append(p.UVs, [2]float64{0.5, 0.5})
	bottomCenter := len(p.Points)
	p.Points = append(p.Points, mathx.Vec3{Z: -halfLen})
	p.UVs = append(p.UVs, [2]float64{0.5, 0.5})

	for j := 0; j < slices; j++ {
		next := (j + 1) % slices
		p.FaceVertexCounts = append(p.FaceVertexCounts, 3, 3)
		p.FaceVertexIndices = append(p.FaceVertexIndices,
			topCenter, j, next, // top ring is points[0:slices]
			bottomCenter, slices+next, slices+j,
		)
	}
	return p
}

// openCylinder builds the side wall only: two rings of points joined by
// quads.
func openCylinder(radius, halfLen float64) Part {
	var p Part
	for _, z := range []float64{halfLen, -halfLen} {
		for j := 0; j < slices; j++ {
			phi := 2 * math.Pi * float64(j) / slices
			p.Points = append(p.Points, mathx.Vec3{
				X: radius * math.Cos(phi),
				Y: radius * math.Sin(phi),
				Z: z,
			})
			v := 0.0
			if z < 0 {
				v = 1
			}
			p.UVs = append(p.UVs, [2]float64{float64(j) / slices, v})
		}
	}
	p.FaceVertexCounts, p.FaceVertexIndices = ringQuads(1, slices, 0)
	return p
}

// hemisphere builds the half of a unit sphere on the given side of the
// XY plane (sign = +1 for z >= 0, -1 for z <= 0).
func hemisphere(radius float64, sign float64) Part {
	var p Part
	half := stacks / 2
	for i := 0; i <= half; i++ {
		theta := math.Pi / 2 * float64(i) / float64(half)
		if sign < 0 {
			theta = math.Pi - theta
		}
		for j := 0; j < slices; j++ {
			phi := 2 * math.Pi * float64(j) / slices
			p.Points = append(p.Points, mathx.Vec3{
				X: radius * math.Sin(theta) * math.Cos(phi),
				Y: radius * math.Sin(theta) * math.Sin(phi),
				Z: radius * math.Cos(theta),
			})
			p.UVs = append(p.UVs, [2]float64{float64(j) / slices, 1 - float64(i)/float64(half)})
		}
	}
	p.FaceVertexCounts, p.FaceVertexIndices = ringQuads(half, slices, 0)
	return p
}

// ringQuads emits quad faces joining `rings+1` rings of `n` points each,
// starting at point index base.
func ringQuads(rings, n, base int) (counts []int, indices []int) {
	for i := 0; i < rings; i++ {
		for j := 0; j < n; j++ {
			next := (j + 1) % n
			a := base + i*n + j
			b := base + i*n + next
			c := base + (i+1)*n + next
			d := base + (i+1)*n + j
			counts = append(counts, 4)
			indices = append(indices, a, b, c, d)
		}
	}
	return counts, indices
}
