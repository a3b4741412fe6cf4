package usd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefinePrimCreatesAncestors(t *testing.T) {
	s := NewStage()
	p, err := s.DefinePrim("/World/lights/spot_0", "SphereLight")
	if err != nil {
		t.Fatalf("DefinePrim failed: %v", err)
	}
	if p.Path() != "/World/lights/spot_0" {
		t.Errorf("path = %s", p.Path())
	}
	if p.Schema() != "SphereLight" {
		t.Errorf("schema = %s", p.Schema())
	}

	world := s.Prim("/World")
	if world == nil {
		t.Fatal("ancestor /World not created")
	}
	if world.Schema() != "Xform" {
		t.Errorf("ancestor schema = %s, want Xform", world.Schema())
	}
}

func TestDefinePrimDuplicate(t *testing.T) {
	s := NewStage()
	if _, err := s.DefinePrim("/World/box", "Mesh"); err != nil {
		t.Fatalf("first define failed: %v", err)
	}
	_, err := s.DefinePrim("/World/box", "Mesh")
	if !errors.Is(err, ErrDuplicatePrim) {
		t.Errorf("expected ErrDuplicatePrim, got %v", err)
	}
}

func TestDefinePrimInvalidPath(t *testing.T) {
	s := NewStage()
	for _, path := range []string{"", "/", "relative/path", "/World/bad name"} {
		if _, err := s.DefinePrim(path, "Xform"); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("DefinePrim(%q): expected ErrInvalidPath, got %v", path, err)
		}
	}
}

func TestMakeValidIdentifier(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"box_id3_geom", "box_id3_geom"},
		{"left arm", "left_arm"},
		{"3dof", "_dof"},
		{"", "_"},
		{"a-b.c", "a_b_c"},
	}
	for _, c := range cases {
		if got := MakeValidIdentifier(c.in); got != c.want {
			t.Errorf("MakeValidIdentifier(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{2, "2"},
		{-3, "-3"},
		{1.5, "1.5"},
		{0.125, "0.125"},
		{-0.0625, "-0.0625"},
		{1e21, "1e+21"},
	}
	for _, c := range cases {
		if got := formatFloat(c.in); got != c.want {
			t.Errorf("formatFloat(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTimeSamplesOrderedAndOverwrite(t *testing.T) {
	s := NewStage()
	p, _ := s.DefinePrim("/World/box", "Mesh")
	a := p.Attribute("xformOp:translate", "double3")
	a.SetTimeSample(1, Vec3{1, 0, 0})
	a.SetTimeSample(0, Vec3{0, 0, 0})
	a.SetTimeSample(2, Vec3{2, 0, 0})
	a.SetTimeSample(1, Vec3{9, 0, 0}) // overwrite

	samples := a.Samples()
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	for i, want := range []float64{0, 1, 2} {
		if samples[i].Time != want {
			t.Errorf("sample %d time = %v, want %v", i, samples[i].Time, want)
		}
	}
	if samples[1].Value.(Vec3) != (Vec3{9, 0, 0}) {
		t.Errorf("overwritten sample = %v", samples[1].Value)
	}
}

func TestWriteUsda(t *testing.T) {
	s := NewStage()
	s.SetUpAxis("Z")
	s.SetStartTimeCode(0)
	s.SetEndTimeCode(3)
	s.SetTimeCodesPerSecond(60)

	world, _ := s.DefinePrim("/World", "Xform")
	s.SetDefaultPrim(world)

	box, _ := s.DefinePrim("/World/box", "Mesh")
	box.Attribute("points", "point3f[]").Set(Vec3Array{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	box.Attribute("faceVertexCounts", "int[]").Set(IntArray{3})
	box.Attribute("faceVertexIndices", "int[]").Set(IntArray{0, 1, 2})
	box.SetXformOpOrder()
	box.SetTranslateSample(0, Vec3{0, 0, 1})
	box.SetOrientSample(0, Quat{W: 1})
	box.SetVisibilitySample(0, true)
	box.SetVisibilitySample(2, false)

	out, err := s.ExportToString()
	if err != nil {
		t.Fatalf("ExportToString failed: %v", err)
	}

	for _, want := range []string{
		"#usda 1.0",
		`defaultPrim = "World"`,
		"endTimeCode = 3",
		`upAxis = "Z"`,
		"timeCodesPerSecond = 60",
		`def Xform "World"`,
		`def Mesh "box"`,
		"point3f[] points = [(0, 0, 0), (1, 0, 0), (0, 1, 0)]",
		"int[] faceVertexCounts = [3]",
		`uniform token[] xformOpOrder = ["xformOp:translate", "xformOp:orient", "xformOp:scale"]`,
		"double3 xformOp:translate.timeSamples = {",
		"0: (0, 0, 1),",
		"quatf xformOp:orient.timeSamples = {",
		"0: (1, 0, 0, 0),",
		"token visibility.timeSamples = {",
		`0: "inherited",`,
		`2: "invisible",`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n---\n%s", want, out)
		}
	}
}

func TestWriteConnectionsAndRelationships(t *testing.T) {
	s := NewStage()
	mat, _ := s.DefinePrim("/World/_materials/mat_0", "Material")
	mat.ConnectAttribute("outputs:surface", "token", "/World/_materials/mat_0/surface.outputs:surface")

	sh, _ := s.DefinePrim("/World/_materials/mat_0/surface", "Shader")
	sh.UniformAttribute("info:id", "token").Set(Token("UsdPreviewSurface"))
	sh.Attribute("outputs:surface", "token")

	box, _ := s.DefinePrim("/World/box", "Mesh")
	box.SetRelationship("material:binding", "/World/_materials/mat_0")

	out, err := s.ExportToString()
	if err != nil {
		t.Fatalf("ExportToString failed: %v", err)
	}
	for _, want := range []string{
		"token outputs:surface.connect = </World/_materials/mat_0/surface.outputs:surface>",
		`uniform token info:id = "UsdPreviewSurface"`,
		"token outputs:surface\n",
		"rel material:binding = </World/_materials/mat_0>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n---\n%s", want, out)
		}
	}
}

func TestExportFormats(t *testing.T) {
	s := NewStage()
	if _, err := s.DefinePrim("/World", "Xform"); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	for _, ext := range []string{"usd", "usda", "usdc"} {
		path := filepath.Join(dir, "frame_1."+ext)
		if err := s.Export(path); err != nil {
			t.Errorf("Export(%s) failed: %v", ext, err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("exported file missing: %v", err)
		}
	}

	err := s.Export(filepath.Join(dir, "frame_1.xml"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
