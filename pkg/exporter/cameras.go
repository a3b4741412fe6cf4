package exporter

import (
	"github.com/robocraft/simusd/pkg/mathx"
	"github.com/robocraft/simusd/pkg/sim"
	"github.com/robocraft/simusd/pkg/usd"
)

// cameraRecord is an exported Camera prim tracking a named model camera.
type cameraRecord struct {
	name string
	prim *usd.Prim
}

func newCameraRecord(stage *usd.Stage, name string) (*cameraRecord, error) {
	prim, err := stage.DefinePrim("/World/cameras/"+usd.MakeValidIdentifier(name), "Camera")
	if err != nil {
		return nil, err
	}
	prim.Attribute("focalLength", "float").Set(usd.Float(24))
	prim.Attribute("clippingRange", "float2").Set(usd.Vec2{0.1, 10000})
	prim.SetXformOpOrder()
	prim.SetScale(usd.Vec3{1, 1, 1})
	return &cameraRecord{name: name, prim: prim}, nil
}

func (c *cameraRecord) update(pos mathx.Vec3, rot mathx.Mat3, frame int) {
	t := float64(frame)
	c.prim.SetTranslateSample(t, usd.Vec3{pos.X, pos.Y, pos.Z})
	c.prim.SetOrientSample(t, quatValue(rot))
}

// loadCameras creates one record per user-declared camera name. Cameras
// are never created from the renderer snapshot.
func (e *Exporter) loadCameras() error {
	for _, name := range e.opts.CameraNames {
		rec, err := newCameraRecord(e.stage, name)
		if err != nil {
			return err
		}
		e.cameras = append(e.cameras, rec)
	}
	return nil
}

// updateCameras re-snapshots the renderer scoped to each named camera
// and records its averaged stereo pose. The re-snapshot must complete
// before the pose readback, and the readback before the next camera's
// snapshot, so the loop stays strictly sequential.
func (e *Exporter) updateCameras(state *sim.State, opt *sim.Option) error {
	for _, cam := range e.cameras {
		if err := e.renderer.UpdateSceneFromCamera(state, opt, cam.name); err != nil {
			return err
		}

		sc := e.renderer.Scene()
		avg := sim.AverageCamera(sc.Cameras[0], sc.Cameras[1])
		rot := mathx.OrientationFrom(avg.Forward, avg.Up)
		cam.update(avg.Pos, rot, e.updates)
	}
	return nil
}

// CameraConfig describes a user-authored static camera for AddCamera.
type CameraConfig struct {
	Name string
	Pos  mathx.Vec3
	// RotationXYZ is an intrinsic XYZ euler rotation in radians.
	RotationXYZ mathx.Vec3
}

// AddCamera creates a fixed camera outside the per-frame pipeline and
// gives it a single one-shot update at time 0.
func (e *Exporter) AddCamera(cfg CameraConfig) error {
	name := cfg.Name
	if name == "" {
		name = "camera_1"
	}
	rec, err := newCameraRecord(e.stage, name)
	if err != nil {
		return err
	}
	rot := mathx.QuatFromEuler(cfg.RotationXYZ.X, cfg.RotationXYZ.Y, cfg.RotationXYZ.Z).ToMat3()
	rec.update(cfg.Pos, rot, 0)
	return nil
}
