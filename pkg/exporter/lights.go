package exporter

import (
	"errors"
	"fmt"

	"github.com/robocraft/simusd/pkg/mathx"
	"github.com/robocraft/simusd/pkg/usd"
)

// ErrUnknownLightType is returned by AddLight for unrecognized types.
var ErrUnknownLightType = errors.New("unknown light type")

const originEps = 1e-9

// lightSlot pairs a snapshot light index with its exported record. A
// light positioned at the world origin is treated as the renderer's
// default ambient light and never exported; its slot stays ambient for
// the whole session.
type lightSlot struct {
	ambient bool
	rec     *sphereLight
}

// sphereLight is an exported SphereLight prim.
type sphereLight struct {
	prim *usd.Prim
}

func newSphereLight(stage *usd.Stage, path string, radius float64) (*sphereLight, error) {
	prim, err := stage.DefinePrim(path, "SphereLight")
	if err != nil {
		return nil, err
	}
	if radius <= 0 {
		radius = 1
	}
	prim.Attribute("inputs:radius", "float").Set(usd.Float(radius))
	prim.SetXformOpOrder()
	prim.SetScale(usd.Vec3{1, 1, 1})
	return &sphereLight{prim: prim}, nil
}

func (l *sphereLight) update(pos mathx.Vec3, intensity float64, color [3]float64, frame int) {
	t := float64(frame)
	l.prim.SetTranslateSample(t, usd.Vec3{pos.X, pos.Y, pos.Z})
	l.prim.SetOrientSample(t, usd.Quat{W: 1})
	l.prim.Attribute("inputs:intensity", "float").Set(usd.Float(intensity))
	l.prim.Attribute("inputs:color", "color3f").SetTimeSample(t, usd.Vec3{color[0], color[1], color[2]})
}

// loadLights enumerates the snapshot's lights once, at session start, so
// slot identity stays aligned with snapshot indices on later frames.
func (e *Exporter) loadLights() error {
	sc := e.renderer.Scene()
	e.lights = make([]lightSlot, 0, len(sc.Lights))
	for i, l := range sc.Lights {
		if l.Pos.NearZero(originEps) {
			e.lights = append(e.lights, lightSlot{ambient: true})
			continue
		}
		// A bare snapshot index is not a legal prim identifier, so lights
		// carry a light_ prefix.
		rec, err := newSphereLight(e.stage, fmt.Sprintf("/World/lights/light_%d", i), 0)
		if err != nil {
			return err
		}
		e.lights = append(e.lights, lightSlot{rec: rec})
	}
	return nil
}

func (e *Exporter) updateLights() {
	sc := e.renderer.Scene()
	for i, l := range sc.Lights {
		if i >= len(e.lights) {
			break
		}
		slot := e.lights[i]
		if slot.ambient || slot.rec == nil {
			continue
		}
		slot.rec.update(l.Pos, e.opts.LightIntensity, l.Diffuse, e.updates)
	}
}

// LightConfig describes a user-authored static light for AddLight.
type LightConfig struct {
	Name      string
	Type      string // "sphere" (default) or "dome"
	Pos       mathx.Vec3
	Intensity float64
	Radius    float64
	Color     [3]float64
}

// AddLight creates a fixed light outside the per-frame pipeline and
// gives it a single one-shot update.
func (e *Exporter) AddLight(cfg LightConfig) error {
	name := cfg.Name
	if name == "" {
		name = "light_1"
	}
	if cfg.Color == ([3]float64{}) {
		cfg.Color = [3]float64{0.3, 0.3, 0.3}
	}
	path := "/World/lights/" + usd.MakeValidIdentifier(name)

	switch cfg.Type {
	case "", "sphere":
		rec, err := newSphereLight(e.stage, path, cfg.Radius)
		if err != nil {
			return err
		}
		rec.update(cfg.Pos, cfg.Intensity, cfg.Color, 0)
		return nil

	case "dome":
		prim, err := e.stage.DefinePrim(path, "DomeLight")
		if err != nil {
			return err
		}
		prim.Attribute("inputs:intensity", "float").Set(usd.Float(cfg.Intensity))
		prim.Attribute("inputs:color", "color3f").Set(usd.Vec3{cfg.Color[0], cfg.Color[1], cfg.Color[2]})
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownLightType, cfg.Type)
	}
}
