// Package dump implements the optional per-frame debug sinks: append-only
// text writers for tracks, world poses, detections (KITTI format), lane
// lines, and calibration state. Each sink opens only when its output path is
// configured, and a failed write never fails the frame that produced it.
package dump

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/config"
	"github.com/meridian-av/perception/internal/camera/kitti"
)

// Sinks holds every open debug output. The two file-backed sinks stay open
// for the lifetime of the pipeline and are appended to per frame; the
// directory-backed sinks write one file per frame id.
type Sinks struct {
	trackFile *os.File
	poseFile  *os.File

	laneDir             string
	calibrationDir      string
	detectionDir        string
	detectFeatureDir    string
	trackedDetectionDir string
}

// Open creates sinks for every configured destination. A nil config yields
// sinks with every output disabled.
func Open(cfg *config.DebugConfig) (*Sinks, error) {
	s := &Sinks{}
	if cfg == nil {
		return s, nil
	}

	if cfg.TrackOutFile != "" {
		f, err := os.OpenFile(cfg.TrackOutFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open track out file: %w", err)
		}
		s.trackFile = f
	}
	if cfg.CameraToWorldOutFile != "" {
		f, err := os.OpenFile(cfg.CameraToWorldOutFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open camera2world out file: %w", err)
		}
		s.poseFile = f
	}

	for _, d := range []struct {
		path *string
		dir  string
	}{
		{&s.laneDir, cfg.LaneOutDir},
		{&s.calibrationDir, cfg.CalibrationOutDir},
		{&s.detectionDir, cfg.DetectionOutDir},
		{&s.detectFeatureDir, cfg.DetectFeatureDir},
		{&s.trackedDetectionDir, cfg.TrackedDetectionOutDir},
	} {
		if d.dir == "" {
			continue
		}
		if err := os.MkdirAll(d.dir, 0o755); err != nil {
			s.Close()
			return nil, fmt.Errorf("create debug dir %s: %w", d.dir, err)
		}
		*d.path = d.dir
	}
	return s, nil
}

// Close releases the file-backed sinks.
func (s *Sinks) Close() error {
	var firstErr error
	for _, f := range []*os.File{s.trackFile, s.poseFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.trackFile = nil
	s.poseFile = nil
	return firstErr
}

func frameFile(dir string, frameID int64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.txt", frameID))
}

// WriteTracking appends one line per tracked object to the track file.
func (s *Sinks) WriteTracking(frameID int64, objects []*camera.Object) {
	if s.trackFile == nil {
		return
	}
	for _, obj := range objects {
		_, err := fmt.Fprintf(s.trackFile, "%d %s %s %.3f %.3f %.3f %.4f %.3f %.3f %.3f\n",
			frameID, obj.TrackID, obj.Type,
			obj.Center.X, obj.Center.Y, obj.Center.Z, obj.Theta,
			obj.Velocity.X, obj.Velocity.Y, obj.Velocity.Z)
		if err != nil {
			camera.Opsf("track dump write failed: %v", err)
			return
		}
	}
}

// WriteCameraToWorld appends the frame's world pose to the pose file.
func (s *Sinks) WriteCameraToWorld(frameID int64, pose camera.Pose) {
	if s.poseFile == nil {
		return
	}
	r := pose.Rotation
	t := pose.Translation
	_, err := fmt.Fprintf(s.poseFile,
		"%d %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f\n",
		frameID, r[0], r[1], r[2], r[3], r[4], r[5], r[6], r[7], r[8],
		t.X, t.Y, t.Z)
	if err != nil {
		camera.Opsf("pose dump write failed: %v", err)
	}
}

// writeDetectionFile writes the objects in KITTI format to dir/<frameID>.txt.
func writeDetectionFile(dir string, frameID int64, objects []*camera.Object) {
	if dir == "" {
		return
	}
	f, err := os.Create(frameFile(dir, frameID))
	if err != nil {
		camera.Opsf("detection dump create failed: %v", err)
		return
	}
	defer f.Close()
	if err := kitti.WriteObjects(f, objects); err != nil {
		camera.Opsf("detection dump write failed: %v", err)
	}
}

// WriteDetections dumps raw detections for one frame.
func (s *Sinks) WriteDetections(frameID int64, objects []*camera.Object) {
	writeDetectionFile(s.detectionDir, frameID, objects)
}

// WriteDetectionsWithFeatures dumps detections after feature extraction.
func (s *Sinks) WriteDetectionsWithFeatures(frameID int64, objects []*camera.Object) {
	writeDetectionFile(s.detectFeatureDir, frameID, objects)
}

// WriteTrackedDetections dumps the final tracked objects in KITTI format.
func (s *Sinks) WriteTrackedDetections(frameID int64, objects []*camera.Object) {
	writeDetectionFile(s.trackedDetectionDir, frameID, objects)
}

// WriteLanelines dumps the frame's lane lines, one image point per line
// grouped under a header per lane.
func (s *Sinks) WriteLanelines(frameID int64, lanes []camera.LaneLine) {
	if s.laneDir == "" {
		return
	}
	f, err := os.Create(frameFile(s.laneDir, frameID))
	if err != nil {
		camera.Opsf("lane dump create failed: %v", err)
		return
	}
	defer f.Close()
	for _, lane := range lanes {
		fmt.Fprintf(f, "lane %s %.3f curve %.6f %.6f %.6f %.6f\n",
			lane.PositionType, lane.Confidence,
			lane.CurveCamera.A, lane.CurveCamera.B, lane.CurveCamera.C, lane.CurveCamera.D)
		for _, p := range lane.ImagePoints {
			fmt.Fprintf(f, "%.2f %.2f\n", p.X, p.Y)
		}
	}
}

// WriteCalibration dumps the calibration state served to this frame.
func (s *Sinks) WriteCalibration(frameID int64, frame *camera.Frame) {
	if s.calibrationDir == "" || frame.CalibrationService == nil {
		return
	}
	height, pitch, ok := frame.CalibrationService.QueryCameraHeightAndPitch(frame.SensorName())
	if !ok {
		return
	}
	f, err := os.Create(frameFile(s.calibrationDir, frameID))
	if err != nil {
		camera.Opsf("calibration dump create failed: %v", err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s height %.4f pitch %.6f\n", frame.SensorName(), height, pitch)
}
