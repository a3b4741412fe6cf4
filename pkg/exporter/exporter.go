// Package exporter mirrors renderer scene snapshots into a time-sampled
// USD stage and writes the result to disk.
package exporter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/robocraft/simusd/pkg/sim"
	"github.com/robocraft/simusd/pkg/usd"
)

// Exporter errors.
var (
	ErrImageTooLarge     = errors.New("image size exceeds offscreen framebuffer")
	ErrDuplicateGeomName = errors.New("duplicate geom name in scene")
	ErrUnsupportedFormat = usd.ErrUnsupportedFormat
)

// Options configures a new Exporter. Zero values select the defaults
// noted per field.
type Options struct {
	Height  int // image height in pixels (480)
	Width   int // image width in pixels (480)
	MaxGeom int // max renderable instances per frame (10000)

	OutputDirectoryName string // directory under the root (usdpkg)
	OutputDirectoryRoot string // root for all outputs (.)

	LightIntensity float64  // session-wide light intensity (10000)
	CameraNames    []string // model cameras to export

	// SpecializedMaterialsFile optionally names a materials override
	// file. It is recorded but not consulted by the translation logic.
	SpecializedMaterialsFile string

	Verbose bool        // emit progress logs
	Logger  *zap.Logger // destination for progress logs; nil for none
}

func (o *Options) applyDefaults() {
	if o.Height == 0 {
		o.Height = 480
	}
	if o.Width == 0 {
		o.Width = 480
	}
	if o.MaxGeom == 0 {
		o.MaxGeom = sim.DefaultMaxGeom
	}
	if o.OutputDirectoryName == "" {
		o.OutputDirectoryName = "usdpkg"
	}
	if o.OutputDirectoryRoot == "" {
		o.OutputDirectoryRoot = "."
	}
	if o.LightIntensity == 0 {
		o.LightIntensity = 10000
	}
}

// Exporter owns the renderer and the USD stage for one export session.
// It is designed for exclusive use by a single driving loop.
type Exporter struct {
	model *sim.Model
	opts  Options
	log   *zap.Logger

	renderer   *sim.Renderer
	stage      *usd.Stage
	defaultOpt *sim.Option

	outputDir string
	framesDir string
	assetsDir string

	// texturePaths[i] is the frames-relative path of extracted texture i.
	texturePaths []string

	// Session lifecycle: the first UpdateScene transitions the session
	// from uninitialized to active, populating lights and cameras.
	active bool

	frameCount int // export index, incremented per UpdateScene
	updates    int // time-sample index

	geoms     map[string]geomRecord
	lights    []lightSlot
	cameras   []*cameraRecord
	materials map[string]string // texture asset path -> material prim path
}

// New creates an export session for the model, validating the requested
// image size against the model's offscreen framebuffer, creating the
// output directory tree and extracting all model textures.
func New(m *sim.Model, opts Options) (*Exporter, error) {
	opts.applyDefaults()

	if opts.Width > m.Vis.OffWidth {
		return nil, fmt.Errorf("%w: width %d > framebuffer width %d",
			ErrImageTooLarge, opts.Width, m.Vis.OffWidth)
	}
	if opts.Height > m.Vis.OffHeight {
		return nil, fmt.Errorf("%w: height %d > framebuffer height %d",
			ErrImageTooLarge, opts.Height, m.Vis.OffHeight)
	}

	log := zap.NewNop()
	if opts.Verbose && opts.Logger != nil {
		log = opts.Logger
	}

	e := &Exporter{
		model:      m,
		opts:       opts,
		log:        log,
		renderer:   sim.NewRenderer(m, opts.Height, opts.Width, opts.MaxGeom),
		defaultOpt: sim.DefaultOption(),
		geoms:      map[string]geomRecord{},
		materials:  map[string]string{},
	}
	e.initStage()

	if err := e.initOutputDirectories(); err != nil {
		return nil, err
	}
	if err := e.extractTextures(); err != nil {
		return nil, err
	}
	return e, nil
}

// Stage returns the in-memory USD stage.
func (e *Exporter) Stage() *usd.Stage { return e.stage }

// USD returns the stage serialized as usda text.
func (e *Exporter) USD() (string, error) { return e.stage.ExportToString() }

// Scene returns the renderer's current snapshot.
func (e *Exporter) Scene() *sim.Scene { return e.renderer.Scene() }

// OutputDirectory returns the session's output directory path.
func (e *Exporter) OutputDirectory() string { return e.outputDir }

func (e *Exporter) initStage() {
	e.stage = usd.NewStage()
	e.stage.SetUpAxis("Z")
	e.stage.SetStartTimeCode(0)
	e.stage.SetTimeCodesPerSecond(60)

	world, _ := e.stage.DefinePrim("/World", "Xform")
	e.stage.SetDefaultPrim(world)
}

func (e *Exporter) initOutputDirectories() error {
	e.outputDir = filepath.Join(e.opts.OutputDirectoryRoot, e.opts.OutputDirectoryName)
	e.framesDir = filepath.Join(e.outputDir, "frames")
	e.assetsDir = filepath.Join(e.outputDir, "assets")

	for _, dir := range []string{e.outputDir, e.framesDir, e.assetsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	e.log.Info("writing output frames and assets", zap.String("dir", e.outputDir))
	return nil
}

// UpdateScene advances the session by one frame: the renderer recomputes
// its snapshot for the given state, and every geometry, light and camera
// record receives a time sample.
func (e *Exporter) UpdateScene(state *sim.State, opt *sim.Option) error {
	e.frameCount++

	if opt == nil {
		opt = e.defaultOpt
	}

	if err := e.renderer.UpdateScene(state, opt); err != nil {
		return fmt.Errorf("updating renderer scene: %w", err)
	}

	if !e.active {
		// One-time transition to the active session: light and camera
		// records are enumerated here so their identities stay stable
		// across every later frame.
		if err := e.loadLights(); err != nil {
			return err
		}
		if err := e.loadCameras(); err != nil {
			return err
		}
		e.active = true
	}

	if err := e.updateGeoms(); err != nil {
		return err
	}
	e.updateLights()
	if err := e.updateCameras(state, opt); err != nil {
		return err
	}

	e.updates++
	return nil
}

// SaveScene finalizes the stage's time range and writes it to
// frames/frame_<N>.<filetype>. filetype must be usd, usda or usdc.
func (e *Exporter) SaveScene(filetype string) error {
	if !usd.ValidFormat(filetype) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filetype)
	}

	e.stage.SetEndTimeCode(float64(e.frameCount))

	// Geometry that stopped appearing mid-session must not persist to
	// the end of the timeline.
	for _, rec := range e.geoms {
		rec.finalizeVisibility()
	}

	path := filepath.Join(e.framesDir, fmt.Sprintf("frame_%d.%s", e.frameCount, filetype))
	if err := e.stage.Export(path); err != nil {
		return err
	}

	e.log.Info("wrote frame", zap.String("file", filepath.Base(path)))
	return nil
}

// FrameCount returns the number of UpdateScene calls so far.
func (e *Exporter) FrameCount() int { return e.frameCount }
