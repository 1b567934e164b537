// Package pipeline provides the per-frame camera perception orchestrator.
//
// This package is the composition root: it resolves configured plugin names
// into stage instances through the registry, owns one instance per shared
// stage plus one detector per camera, and drives every incoming frame
// through the fail-fast stage sequence. Stage packages never import
// pipeline.
package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/config"
	"github.com/meridian-av/perception/internal/camera/device"
	"github.com/meridian-av/perception/internal/camera/dump"
	"github.com/meridian-av/perception/internal/camera/monitor"
	"github.com/meridian-av/perception/internal/camera/registry"
	"github.com/meridian-av/perception/internal/camera/storage/sqlite"
	"github.com/meridian-av/perception/internal/camera/templates"
)

// InitOptions configures orchestrator startup.
type InitOptions struct {
	// WorkRoot is the working root directory; relative config paths resolve
	// against it.
	WorkRoot string

	// ConfFile is the pipeline configuration file, relative to WorkRoot
	// unless absolute.
	ConfFile string

	// LaneCalibrationWorkingSensorName designates the one sensor whose
	// frames run lane detection and drive calibration updates.
	LaneCalibrationWorkingSensorName string

	// ModelResolver resolves configured camera names to camera models.
	ModelResolver camera.ModelResolver
}

// Options carries per-frame options for Perception.
type Options struct{}

// Orchestrator owns the pipeline's stage instances and drives the per-frame
// sequence. Init must complete successfully exactly once before the first
// Perception call. Perception is not reentrant: callers serialize frames,
// one completing (success or failure) before the next begins. Multiple
// Orchestrators may run concurrently as long as they share no stage
// instances.
type Orchestrator struct {
	cfg           *config.PerceptionConfig
	workRoot      string
	workingSensor string

	// Immutable after Init.
	intrinsics map[string]*mat.Dense
	detectors  map[string]camera.Detector

	tracker           camera.Tracker
	transformer       camera.Transformer
	postprocessor     camera.ObstaclePostprocessor
	extractor         camera.FeatureExtractor // nil when unconfigured
	laneDetector      camera.LaneDetector
	lanePostprocessor camera.LanePostprocessor
	calibration       camera.CalibrationService

	templateManager *templates.Manager

	sinks   *dump.Sinks
	store   *sqlite.Store
	plotter *monitor.TrajectoryPlotter

	initialized bool
}

// New returns an orchestrator ready for Init.
func New() *Orchestrator {
	return &Orchestrator{}
}

// Init loads the pipeline configuration, selects the accelerator device, and
// constructs and initializes every configured stage. Any error is fatal:
// the pipeline must not serve frames after a failed Init.
func (o *Orchestrator) Init(options InitOptions) error {
	if options.ModelResolver == nil {
		return fmt.Errorf("init: a camera model resolver is required")
	}

	cfg, err := config.Load(config.ResolvePath(options.WorkRoot, options.ConfFile))
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	o.cfg = cfg
	o.workRoot = options.WorkRoot
	o.workingSensor = options.LaneCalibrationWorkingSensorName

	if err := device.Select(cfg.GPUID); err != nil {
		return fmt.Errorf("init: select device %d: %w", cfg.GPUID, err)
	}

	// Object templates are constructed before the stages that consume them.
	if cfg.ObjectTemplate != nil {
		tm, err := templates.NewManager(templates.InitOptions{
			RootDir:  config.ResolvePath(o.workRoot, cfg.ObjectTemplate.RootDir),
			ConfFile: cfg.ObjectTemplate.ConfigFile,
		})
		if err != nil {
			return fmt.Errorf("init object templates: %w", err)
		}
		o.templateManager = tm
	}

	var lastModel, workingModel *camera.CameraModel
	o.intrinsics = make(map[string]*mat.Dense, len(cfg.Detectors))
	o.detectors = make(map[string]camera.Detector, len(cfg.Detectors))
	for _, dc := range cfg.Detectors {
		model, err := options.ModelResolver.ResolveCameraModel(dc.CameraName)
		if err != nil {
			return fmt.Errorf("init detector for %s: %w", dc.CameraName, err)
		}
		o.intrinsics[dc.CameraName] = model.Intrinsics

		create, err := registry.DetectorLookup(dc.Plugin.Name)
		if err != nil {
			return fmt.Errorf("init detector for %s: %w", dc.CameraName, err)
		}
		det := create()
		err = det.Init(camera.DetectorInitOptions{
			RootDir:     config.ResolvePath(o.workRoot, dc.Plugin.RootDir),
			ConfFile:    dc.Plugin.ConfigFile,
			GPUID:       cfg.GPUID,
			CameraModel: model,
		})
		if err != nil {
			return fmt.Errorf("init detector %s for %s: %w", dc.Plugin.Name, dc.CameraName, err)
		}
		o.detectors[dc.CameraName] = det

		lastModel = model
		if dc.CameraName == o.workingSensor {
			workingModel = model
		}
	}

	// Shared stages size themselves from the working sensor's camera model
	// when it is configured, otherwise from the last detector camera. With
	// heterogeneous resolutions only the chosen camera's dimensions apply;
	// the others are assumed equal.
	dimModel := lastModel
	if workingModel != nil {
		dimModel = workingModel
	} else if o.workingSensor != "" {
		diagf("working sensor %s is not a configured detector camera; sizing shared stages from %s",
			o.workingSensor, lastModel.Name)
	}

	if err := o.initTracker(dimModel); err != nil {
		return err
	}
	if err := o.initTransformer(); err != nil {
		return err
	}
	if err := o.initPostprocessor(); err != nil {
		return err
	}
	if err := o.initFeatureExtractor(); err != nil {
		return err
	}
	if err := o.initLane(dimModel); err != nil {
		return err
	}
	if err := o.initCalibrationService(dimModel); err != nil {
		return err
	}
	if err := o.initOutputs(); err != nil {
		return err
	}

	o.initialized = true
	opsf("pipeline initialized: %d cameras, working sensor %q", len(o.detectors), o.workingSensor)
	return nil
}

func (o *Orchestrator) initTracker(model *camera.CameraModel) error {
	create, err := registry.TrackerLookup(o.cfg.Tracker.Name)
	if err != nil {
		return fmt.Errorf("init tracker: %w", err)
	}
	tracker := create()
	err = tracker.Init(camera.TrackerInitOptions{
		ImageWidth:  model.Width,
		ImageHeight: model.Height,
		GPUID:       o.cfg.GPUID,
		RootDir:     config.ResolvePath(o.workRoot, o.cfg.Tracker.RootDir),
		ConfFile:    o.cfg.Tracker.ConfigFile,
	})
	if err != nil {
		return fmt.Errorf("init tracker %s: %w", o.cfg.Tracker.Name, err)
	}
	o.tracker = tracker
	return nil
}

func (o *Orchestrator) initTransformer() error {
	create, err := registry.TransformerLookup(o.cfg.Transformer.Name)
	if err != nil {
		return fmt.Errorf("init transformer: %w", err)
	}
	transformer := create()
	err = transformer.Init(camera.TransformerInitOptions{
		RootDir:   config.ResolvePath(o.workRoot, o.cfg.Transformer.RootDir),
		ConfFile:  o.cfg.Transformer.ConfigFile,
		Templates: o.templateProvider(),
	})
	if err != nil {
		return fmt.Errorf("init transformer %s: %w", o.cfg.Transformer.Name, err)
	}
	o.transformer = transformer
	return nil
}

func (o *Orchestrator) initPostprocessor() error {
	create, err := registry.ObstaclePostprocessorLookup(o.cfg.Postprocessor.Name)
	if err != nil {
		return fmt.Errorf("init obstacle postprocessor: %w", err)
	}
	pp := create()
	err = pp.Init(camera.ObstaclePostprocessorInitOptions{
		RootDir:  config.ResolvePath(o.workRoot, o.cfg.Postprocessor.RootDir),
		ConfFile: o.cfg.Postprocessor.ConfigFile,
	})
	if err != nil {
		return fmt.Errorf("init obstacle postprocessor %s: %w", o.cfg.Postprocessor.Name, err)
	}
	o.postprocessor = pp
	return nil
}

// initFeatureExtractor constructs the extractor only when configured;
// absence simply disables the extraction stage for every frame.
func (o *Orchestrator) initFeatureExtractor() error {
	if o.cfg.Feature == nil {
		diagf("no feature extractor configured")
		return nil
	}
	create, err := registry.FeatureExtractorLookup(o.cfg.Feature.Name)
	if err != nil {
		return fmt.Errorf("init feature extractor: %w", err)
	}
	extractor := create()
	err = extractor.Init(camera.FeatureExtractorInitOptions{
		RootDir:  config.ResolvePath(o.workRoot, o.cfg.Feature.RootDir),
		ConfFile: o.cfg.Feature.ConfigFile,
	})
	if err != nil {
		return fmt.Errorf("init feature extractor %s: %w", o.cfg.Feature.Name, err)
	}
	o.extractor = extractor
	return nil
}

// initLane constructs the lane detector and postprocessor. The
// postprocessor additionally receives the detector's resolved config
// location so it can align its geometry assumptions with the detector.
func (o *Orchestrator) initLane(model *camera.CameraModel) error {
	detCfg := o.cfg.Lane.Detector
	create, err := registry.LaneDetectorLookup(detCfg.Name)
	if err != nil {
		return fmt.Errorf("init lane detector: %w", err)
	}
	detector := create()
	detRoot := config.ResolvePath(o.workRoot, detCfg.RootDir)
	err = detector.Init(camera.LaneDetectorInitOptions{
		RootDir:     detRoot,
		ConfFile:    detCfg.ConfigFile,
		GPUID:       o.cfg.GPUID,
		CameraModel: model,
	})
	if err != nil {
		return fmt.Errorf("init lane detector %s: %w", detCfg.Name, err)
	}
	o.laneDetector = detector

	ppCfg := o.cfg.Lane.Postprocessor
	createPP, err := registry.LanePostprocessorLookup(ppCfg.Name)
	if err != nil {
		return fmt.Errorf("init lane postprocessor: %w", err)
	}
	pp := createPP()
	err = pp.Init(camera.LanePostprocessorInitOptions{
		DetectRootDir:  detRoot,
		DetectConfFile: detCfg.ConfigFile,
		RootDir:        config.ResolvePath(o.workRoot, ppCfg.RootDir),
		ConfFile:       ppCfg.ConfigFile,
	})
	if err != nil {
		return fmt.Errorf("init lane postprocessor %s: %w", ppCfg.Name, err)
	}
	o.lanePostprocessor = pp
	return nil
}

func (o *Orchestrator) initCalibrationService(model *camera.CameraModel) error {
	csCfg := o.cfg.CalibrationService
	create, err := registry.CalibrationServiceLookup(csCfg.Plugin.Name)
	if err != nil {
		return fmt.Errorf("init calibration service: %w", err)
	}
	service := create()
	err = service.Init(camera.CalibrationServiceInitOptions{
		WorkingSensorName: o.workingSensor,
		Intrinsics:        o.intrinsics,
		CalibratorMethod:  csCfg.CalibratorMethod,
		ImageWidth:        model.Width,
		ImageHeight:       model.Height,
	})
	if err != nil {
		return fmt.Errorf("init calibration service %s: %w", csCfg.Plugin.Name, err)
	}
	o.calibration = service
	return nil
}

// resolvedDebug copies the debug config with every output path resolved
// against the work root the same way the store and plotter paths are.
func (o *Orchestrator) resolvedDebug() *config.DebugConfig {
	if o.cfg.Debug == nil {
		return nil
	}
	d := *o.cfg.Debug
	for _, p := range []*string{
		&d.TrackOutFile, &d.CameraToWorldOutFile, &d.LaneOutDir,
		&d.CalibrationOutDir, &d.DetectionOutDir, &d.DetectFeatureDir,
		&d.TrackedDetectionOutDir, &d.TrajectoryPlotDir,
	} {
		*p = config.ResolvePath(o.workRoot, *p)
	}
	return &d
}

// initOutputs opens the optional debug sinks, track store, and plotter.
func (o *Orchestrator) initOutputs() error {
	debug := o.resolvedDebug()
	sinks, err := dump.Open(debug)
	if err != nil {
		return fmt.Errorf("init debug sinks: %w", err)
	}
	o.sinks = sinks

	if o.cfg.Storage != nil && o.cfg.Storage.TrackDBFile != "" {
		store, err := sqlite.Open(config.ResolvePath(o.workRoot, o.cfg.Storage.TrackDBFile))
		if err != nil {
			return fmt.Errorf("init track store: %w", err)
		}
		o.store = store
	}

	if debug != nil && debug.TrajectoryPlotDir != "" {
		plotter, err := monitor.NewTrajectoryPlotter(debug.TrajectoryPlotDir)
		if err != nil {
			return fmt.Errorf("init trajectory plotter: %w", err)
		}
		o.plotter = plotter
	}
	return nil
}

func (o *Orchestrator) templateProvider() camera.SizeTemplateProvider {
	if o.templateManager == nil {
		return nil
	}
	return o.templateManager
}

// SetCameraHeightAndPitch passes surveyed extrinsics through to the live
// calibration service. Calling it before Init is a precondition violation.
func (o *Orchestrator) SetCameraHeightAndPitch(heights, pitchDiffs map[string]float64, workingSensorPitch float64) error {
	if !o.initialized || o.calibration == nil {
		return fmt.Errorf("set camera height and pitch: pipeline not initialized")
	}
	o.calibration.SetCameraHeightAndPitch(heights, pitchDiffs, workingSensorPitch)
	return nil
}

// GetCalibrationService returns the live calibration service for external
// inspection. Calling it before Init is a precondition violation.
func (o *Orchestrator) GetCalibrationService() (camera.CalibrationService, error) {
	if !o.initialized || o.calibration == nil {
		return nil, fmt.Errorf("get calibration service: pipeline not initialized")
	}
	return o.calibration, nil
}

// Close releases the debug sinks and track store and flushes any pending
// plots. The orchestrator must not serve frames after Close.
func (o *Orchestrator) Close() error {
	var firstErr error
	if o.plotter != nil {
		if err := o.plotter.Flush(); err != nil {
			opsf("flush trajectory plots: %v", err)
			firstErr = err
		}
	}
	if o.sinks != nil {
		if err := o.sinks.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if o.store != nil {
		if err := o.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	o.initialized = false
	return firstErr
}
