// Package detect implements the built-in replay detector: a deterministic
// detector that reads per-frame KITTI label files from its root directory.
// It lets recorded or annotated sequences drive the full pipeline without an
// inference runtime attached.
package detect

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/kitti"
	"github.com/meridian-av/perception/internal/camera/registry"
)

// PluginName is the registered name of the replay detector.
const PluginName = "ReplayDetector"

func init() {
	registry.RegisterDetector(PluginName, func() camera.Detector {
		return &Replay{}
	})
}

// Replay implements camera.Detector over a directory of KITTI label files,
// one <frame id>.txt per frame.
type Replay struct {
	labelDir string
	sensor   string
}

// Name implements camera.Detector.
func (r *Replay) Name() string { return PluginName }

// Init implements camera.Detector. The label directory is RootDir, with
// ConfFile treated as a subdirectory beneath it when set.
func (r *Replay) Init(options camera.DetectorInitOptions) error {
	dir := options.RootDir
	if options.ConfFile != "" {
		dir = filepath.Join(dir, options.ConfFile)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("replay detector label dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("replay detector label dir %s is not a directory", dir)
	}
	r.labelDir = dir
	if options.CameraModel != nil {
		r.sensor = options.CameraModel.Name
	}
	return nil
}

// Detect implements camera.Detector: it loads the frame's label file and
// replaces the frame's detected objects with its contents. A missing label
// file is a detection failure for that frame.
func (r *Replay) Detect(_ camera.DetectorOptions, frame *camera.Frame) error {
	path := filepath.Join(r.labelDir, fmt.Sprintf("%d.txt", frame.FrameID))
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("replay detector frame %d: %w", frame.FrameID, err)
	}
	defer f.Close()

	objects, err := kitti.ReadObjects(f)
	if err != nil {
		return fmt.Errorf("replay detector frame %d: %w", frame.FrameID, err)
	}
	frame.DetectedObjects = objects
	camera.Tracef("replay detector: frame %d, %d objects from %s", frame.FrameID, len(objects), path)
	return nil
}
