package exporter

import (
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robocraft/simusd/pkg/mathx"
	"github.com/robocraft/simusd/pkg/sim"
	"github.com/robocraft/simusd/pkg/usd"
)

func testModel() *sim.Model {
	return &sim.Model{
		Name:     "rig",
		Timestep: 0.002,
		Vis:      sim.Visual{OffWidth: 640, OffHeight: 480},
		Bodies: []sim.BodyDef{
			{Name: "world", Quat: mathx.QuatIdentity()},
			{Name: "link", Pos: mathx.Vec3{Z: 1}, Quat: mathx.QuatIdentity()},
		},
		Geoms: []sim.GeomDef{
			{Name: "floor", Type: sim.GeomPlane, Size: mathx.Vec3{X: 2, Y: 2, Z: 0.1}, Body: 0, DataID: -1, MatID: 0, RGBA: sim.Color{1, 1, 1, 1}},
			{Name: "ball", Type: sim.GeomSphere, Size: mathx.Vec3{X: 0.1, Y: 0.1, Z: 0.1}, Body: 1, DataID: -1, MatID: -1, RGBA: sim.Color{1, 0, 0, 1}, Group: 3},
		},
		Tendons: []sim.TendonDef{
			{Name: "cable", Body0: 0, Body1: 1, Width: 0.01, MatID: -1, RGBA: sim.Color{0, 1, 0, 1}},
		},
		Textures: []sim.Texture{
			{Width: 1, Height: 2, Channels: 3, Pixels: []byte{
				255, 0, 0, // top row: red
				0, 0, 255, // bottom row: blue
			}},
		},
		Materials: []sim.Material{
			{Name: "floor_mat", TexID: []int{0}},
		},
		Lights: []sim.LightDef{
			{Name: "ambient", Pos: mathx.Vec3{}, Diffuse: [3]float64{0.2, 0.2, 0.2}},
			{Name: "spot", Pos: mathx.Vec3{X: 1, Y: 1, Z: 3}, Diffuse: [3]float64{1, 1, 1}},
		},
		Cameras: []sim.CameraDef{
			{Name: "track", Pos: mathx.Vec3{Y: -3, Z: 1}, Forward: mathx.Vec3{Y: 1}, Up: mathx.Vec3{Z: 1}},
		},
	}
}

func newTestExporter(t *testing.T, opts Options) *Exporter {
	t.Helper()
	if opts.OutputDirectoryRoot == "" {
		opts.OutputDirectoryRoot = t.TempDir()
	}
	e, err := New(testModel(), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func TestNewValidatesImageSize(t *testing.T) {
	m := testModel()
	root := t.TempDir()

	cases := []struct {
		name          string
		width, height int
		wantErr       bool
	}{
		{"defaults", 0, 0, false},
		{"max", 640, 480, false},
		{"too_wide", 641, 480, true},
		{"too_tall", 640, 481, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(m, Options{
				Width:               c.width,
				Height:              c.height,
				OutputDirectoryRoot: root,
				OutputDirectoryName: "out_" + c.name,
			})
			if c.wantErr && !errors.Is(err, ErrImageTooLarge) {
				t.Errorf("expected ErrImageTooLarge, got %v", err)
			}
			if !c.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewCreatesDirectoriesIdempotently(t *testing.T) {
	m := testModel()
	root := t.TempDir()
	opts := Options{OutputDirectoryRoot: root, OutputDirectoryName: "pkg"}

	for i := 0; i < 2; i++ {
		if _, err := New(m, opts); err != nil {
			t.Fatalf("construction %d failed: %v", i, err)
		}
	}
	for _, sub := range []string{"", "frames", "assets"} {
		if _, err := os.Stat(filepath.Join(root, "pkg", sub)); err != nil {
			t.Errorf("missing directory %q: %v", sub, err)
		}
	}
}

func TestTextureExtractionRoundTrip(t *testing.T) {
	e := newTestExporter(t, Options{})

	path := filepath.Join(e.assetsDir, "texture_0.png")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening extracted texture: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding extracted texture: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 1 || b.Dy() != 2 {
		t.Fatalf("texture dims = %dx%d, want 1x2", b.Dx(), b.Dy())
	}

	// The source's bottom row (blue) becomes the file's top row.
	r, g, bl, _ := img.At(0, 0).RGBA()
	if r != 0 || g != 0 || bl == 0 {
		t.Errorf("pixel (0,0) = (%d,%d,%d), want blue", r>>8, g>>8, bl>>8)
	}
	r, _, bl, _ = img.At(0, 1).RGBA()
	if r == 0 || bl != 0 {
		t.Errorf("pixel (0,1) not red")
	}
}

func TestUpdateThenSaveTimeRange(t *testing.T) {
	e := newTestExporter(t, Options{})
	st := sim.NewState(e.model)

	const n = 5
	for i := 0; i < n; i++ {
		if err := e.UpdateScene(st, nil); err != nil {
			t.Fatalf("UpdateScene %d failed: %v", i, err)
		}
	}
	if err := e.SaveScene("usda"); err != nil {
		t.Fatalf("SaveScene failed: %v", err)
	}

	if got := e.stage.StartTimeCode(); got != 0 {
		t.Errorf("startTimeCode = %v, want 0", got)
	}
	if got := e.stage.EndTimeCode(); got != n {
		t.Errorf("endTimeCode = %v, want %d", got, n)
	}

	if _, err := os.Stat(filepath.Join(e.framesDir, "frame_5.usda")); err != nil {
		t.Errorf("exported frame missing: %v", err)
	}
}

func TestGeometryRecordsPersistAndFinalizeInvisible(t *testing.T) {
	e := newTestExporter(t, Options{})
	st := sim.NewState(e.model)

	// Ball (group 3) appears for two frames, then is filtered out.
	for i := 0; i < 2; i++ {
		if err := e.UpdateScene(st, nil); err != nil {
			t.Fatal(err)
		}
	}
	opt := sim.DefaultOption()
	opt.Groups[3] = false
	for i := 0; i < 2; i++ {
		if err := e.UpdateScene(st, opt); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.SaveScene("usda"); err != nil {
		t.Fatal(err)
	}

	prim := e.stage.Prim("/World/ball_id1_geom")
	if prim == nil {
		t.Fatal("ball record missing; record should persist after disappearing")
	}
	vis := prim.Attribute("visibility", "token").Samples()

	// Visible at updates 0 and 1, finalized invisible at 2 (last
	// visible + 1) and therefore for the rest of the timeline.
	checkSample(t, vis, 0, "inherited")
	checkSample(t, vis, 1, "inherited")
	checkSample(t, vis, 2, "invisible")
}

// checkSample asserts the visibility token recorded at a time code.
func checkSample(t *testing.T, samples []usd.TimeSample, time float64, want string) {
	t.Helper()
	for _, s := range samples {
		if s.Time == time {
			if got := string(s.Value.(usd.Token)); got != want {
				t.Errorf("sample at %v = %q, want %q", time, got, want)
			}
			return
		}
	}
	t.Errorf("no sample at time %v", time)
}

func TestDuplicateGeomNameIsFatal(t *testing.T) {
	e := newTestExporter(t, Options{})
	st := sim.NewState(e.model)
	if err := e.UpdateScene(st, nil); err != nil {
		t.Fatal(err)
	}

	// Forge a snapshot with two instances carrying the same identity.
	sc := e.renderer.Scene()
	g := sc.Geoms[0]
	sc.Geoms = append(sc.Geoms, g)

	err := e.updateGeoms()
	if !errors.Is(err, ErrDuplicateGeomName) {
		t.Errorf("expected ErrDuplicateGeomName, got %v", err)
	}
}

func TestOriginLightNeverExported(t *testing.T) {
	e := newTestExporter(t, Options{})
	st := sim.NewState(e.model)

	for i := 0; i < 3; i++ {
		if err := e.UpdateScene(st, nil); err != nil {
			t.Fatal(err)
		}
	}

	// Light 0 sits at the origin: ambient, permanently skipped.
	if e.stage.Prim("/World/lights/light_0") != nil {
		t.Error("origin light was exported")
	}
	if !e.lights[0].ambient {
		t.Error("origin light slot not marked ambient")
	}

	spot := e.stage.Prim("/World/lights/light_1")
	if spot == nil {
		t.Fatal("off-origin light missing")
	}
	if got := len(spot.Attribute("inputs:color", "color3f").Samples()); got != 3 {
		t.Errorf("light color samples = %d, want 3", got)
	}
}

func TestCameraExport(t *testing.T) {
	e := newTestExporter(t, Options{CameraNames: []string{"track"}})
	st := sim.NewState(e.model)

	if err := e.UpdateScene(st, nil); err != nil {
		t.Fatal(err)
	}

	cam := e.stage.Prim("/World/cameras/track")
	if cam == nil {
		t.Fatal("camera prim missing")
	}
	tr := cam.Attribute("xformOp:translate", "double3").Samples()
	if len(tr) != 1 {
		t.Fatalf("translate samples = %d, want 1", len(tr))
	}
	// The stereo eye offsets cancel, so the averaged position equals the
	// declared camera position.
	pos := tr[0].Value.(usd.Vec3)
	want := usd.Vec3{0, -3, 1}
	for i := range pos {
		if math.Abs(pos[i]-want[i]) > 1e-9 {
			t.Fatalf("camera pos = %v, want %v", pos, want)
		}
	}
	if len(cam.Attribute("xformOp:orient", "quatf").Samples()) != 1 {
		t.Error("camera orient not sampled")
	}
}

func TestSaveSceneRejectsUnknownFormat(t *testing.T) {
	e := newTestExporter(t, Options{})
	st := sim.NewState(e.model)
	if err := e.UpdateScene(st, nil); err != nil {
		t.Fatal(err)
	}

	err := e.SaveScene("xml")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	// Validation must fail before any file is produced.
	entries, _ := os.ReadDir(e.framesDir)
	if len(entries) != 0 {
		t.Errorf("frames dir not empty after rejected save: %v", entries)
	}
}

func TestMaterialBindingForTexturedGeom(t *testing.T) {
	e := newTestExporter(t, Options{})
	st := sim.NewState(e.model)
	if err := e.UpdateScene(st, nil); err != nil {
		t.Fatal(err)
	}

	out, err := e.USD()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`def Material "material_0"`,
		`uniform token info:id = "UsdPreviewSurface"`,
		`uniform token info:id = "UsdUVTexture"`,
		"asset inputs:file = @../assets/texture_0.png@",
		"rel material:binding = </World/_materials/material_0>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("usda output missing %q", want)
		}
	}
}

func TestTendonRecordScalesPerFrame(t *testing.T) {
	e := newTestExporter(t, Options{})
	st := sim.NewState(e.model)

	if err := e.UpdateScene(st, nil); err != nil {
		t.Fatal(err)
	}
	st.BodyPos[1] = mathx.Vec3{Z: 2} // stretch the cable
	if err := e.UpdateScene(st, nil); err != nil {
		t.Fatal(err)
	}

	root := e.stage.Prim("/World/cable_id0_tendon_segid0")
	if root == nil {
		t.Fatal("tendon record missing")
	}
	shaft := e.stage.Prim(root.Path() + "/shaft")
	if shaft == nil {
		t.Fatal("tendon shaft missing")
	}
	samples := shaft.Attribute("xformOp:scale", "float3").Samples()
	if len(samples) != 2 {
		t.Fatalf("shaft scale samples = %d, want 2", len(samples))
	}
	s0 := samples[0].Value.(usd.Vec3)
	s1 := samples[1].Value.(usd.Vec3)
	if s0[2] >= s1[2] {
		t.Errorf("shaft half-length did not grow after stretching: %v -> %v", s0[2], s1[2])
	}
}

func TestAddLightAndAddCamera(t *testing.T) {
	e := newTestExporter(t, Options{})

	if err := e.AddLight(LightConfig{
		Name: "fill", Pos: mathx.Vec3{X: 1, Z: 2}, Intensity: 500,
	}); err != nil {
		t.Fatalf("AddLight failed: %v", err)
	}
	if err := e.AddLight(LightConfig{Name: "sky", Type: "dome", Intensity: 100}); err != nil {
		t.Fatalf("AddLight dome failed: %v", err)
	}
	if err := e.AddLight(LightConfig{Name: "bad", Type: "laser"}); !errors.Is(err, ErrUnknownLightType) {
		t.Errorf("expected ErrUnknownLightType, got %v", err)
	}
	if err := e.AddCamera(CameraConfig{Name: "static", Pos: mathx.Vec3{X: 5}}); err != nil {
		t.Fatalf("AddCamera failed: %v", err)
	}

	fill := e.stage.Prim("/World/lights/fill")
	if fill == nil || fill.Schema() != "SphereLight" {
		t.Error("fill light not created as SphereLight")
	}
	if got := len(fill.Attribute("inputs:color", "color3f").Samples()); got != 1 {
		t.Errorf("fill light samples = %d, want one-shot update", got)
	}
	sky := e.stage.Prim("/World/lights/sky")
	if sky == nil || sky.Schema() != "DomeLight" {
		t.Error("sky light not created as DomeLight")
	}
	if e.stage.Prim("/World/cameras/static") == nil {
		t.Error("static camera not created")
	}
}

func TestAlphaZeroGeomInvisible(t *testing.T) {
	m := testModel()
	m.Geoms[1].RGBA[3] = 0
	root := t.TempDir()
	e, err := New(m, Options{OutputDirectoryRoot: root})
	if err != nil {
		t.Fatal(err)
	}
	st := sim.NewState(m)
	if err := e.UpdateScene(st, nil); err != nil {
		t.Fatal(err)
	}

	prim := e.stage.Prim("/World/ball_id1_geom")
	if prim == nil {
		t.Fatal("ball record missing")
	}
	checkSample(t, prim.Attribute("visibility", "token").Samples(), 0, "invisible")
}

func TestModelMeshGeomExport(t *testing.T) {
	m := testModel()
	m.Meshes = []sim.MeshData{{
		Name:     "wedge",
		Vertices: []mathx.Vec3{{}, {X: 1}, {Y: 1}, {Z: 1}},
		Faces:    [][3]int{{0, 1, 2}, {0, 1, 3}, {1, 2, 3}, {0, 2, 3}},
	}}
	m.Geoms = append(m.Geoms, sim.GeomDef{
		Name: "rock", Type: sim.GeomMesh, Body: 1, DataID: 0, MatID: -1,
		RGBA: sim.Color{0.6, 0.6, 0.6, 1},
	})

	e, err := New(m, Options{OutputDirectoryRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	st := sim.NewState(m)
	if err := e.UpdateScene(st, nil); err != nil {
		t.Fatal(err)
	}
	st.BodyPos[1] = mathx.Vec3{X: 2, Z: 1}
	if err := e.UpdateScene(st, nil); err != nil {
		t.Fatal(err)
	}

	prim := e.stage.Prim("/World/rock_id2_geom")
	if prim == nil {
		t.Fatal("mesh geom prim missing")
	}

	// Topology comes straight from the model's vertex table.
	v, ok := prim.Attribute("points", "point3f[]").Default()
	if !ok {
		t.Fatal("points not set")
	}
	pts := v.(usd.Vec3Array)
	if len(pts) != 4 {
		t.Fatalf("points = %d, want 4", len(pts))
	}
	if pts[3] != (usd.Vec3{0, 0, 1}) {
		t.Errorf("point 3 = %v, want (0, 0, 1)", pts[3])
	}

	v, _ = prim.Attribute("faceVertexCounts", "int[]").Default()
	counts := v.(usd.IntArray)
	if len(counts) != 4 {
		t.Fatalf("faceVertexCounts = %d, want 4", len(counts))
	}
	for i, c := range counts {
		if c != 3 {
			t.Errorf("face %d count = %d, want 3", i, c)
		}
	}

	v, _ = prim.Attribute("faceVertexIndices", "int[]").Default()
	idx := v.(usd.IntArray)
	if len(idx) != 12 {
		t.Fatalf("faceVertexIndices = %d, want 12", len(idx))
	}
	if idx[0] != 0 || idx[1] != 1 || idx[2] != 2 {
		t.Errorf("first face = %v", idx[:3])
	}

	// The record tracks the body pose per frame like any other geom.
	tr := prim.Attribute("xformOp:translate", "double3").Samples()
	if len(tr) != 2 {
		t.Fatalf("translate samples = %d, want 2", len(tr))
	}
	if got := tr[1].Value.(usd.Vec3); got != (usd.Vec3{2, 0, 1}) {
		t.Errorf("frame 1 translation = %v, want (2, 0, 1)", got)
	}
}

func TestMeshGeomRejectsBadDataID(t *testing.T) {
	m := testModel()
	m.Geoms = append(m.Geoms, sim.GeomDef{
		Name: "ghost", Type: sim.GeomMesh, Body: 0, DataID: 3, MatID: -1,
		RGBA: sim.Color{1, 1, 1, 1},
	})

	e, err := New(m, Options{OutputDirectoryRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = e.UpdateScene(sim.NewState(m), nil)
	if err == nil {
		t.Fatal("expected error for out-of-range mesh data id")
	}
	if !strings.Contains(err.Error(), "mesh data") {
		t.Errorf("unexpected error: %v", err)
	}
}
