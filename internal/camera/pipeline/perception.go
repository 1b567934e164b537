package pipeline

import (
	"fmt"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/device"
)

// Perception drives one frame through the ordered stage sequence. The first
// failing stage aborts the frame: later stages do not run, fields already
// written by completed stages remain on the frame as-is, and the pipeline is
// ready for the next frame regardless of the outcome.
func (o *Orchestrator) Perception(opts Options, frame *camera.Frame) error {
	if !o.initialized {
		return fmt.Errorf("perception: pipeline not initialized")
	}

	// Idempotent safety net: this call may arrive on a different thread
	// than Init ran on.
	if err := device.Select(o.cfg.GPUID); err != nil {
		return fmt.Errorf("perception: select device %d: %w", o.cfg.GPUID, err)
	}

	sensor := frame.SensorName()
	k, ok := o.intrinsics[sensor]
	if !ok {
		return fmt.Errorf("perception: no intrinsics for sensor: %w", &camera.UnknownSensorError{Sensor: sensor})
	}
	frame.CameraKMatrix = k
	frame.CalibrationService = o.calibration

	// Lane detection and calibration run on the working sensor only; every
	// other sensor still receives the calibration state estimated from the
	// working sensor's history.
	if sensor == o.workingSensor {
		if err := o.laneDetector.Detect(camera.LaneDetectorOptions{}, frame); err != nil {
			opsf("frame %d: lane detection failed: %v", frame.FrameID, err)
			return fmt.Errorf("lane detection: %w", err)
		}
		if err := o.lanePostprocessor.Process2D(camera.LanePostprocessorOptions{}, frame); err != nil {
			opsf("frame %d: lane postprocess 2D failed: %v", frame.FrameID, err)
			return fmt.Errorf("lane postprocess 2D: %w", err)
		}
		o.calibration.Update(frame)
		if err := o.lanePostprocessor.Process3D(camera.LanePostprocessorOptions{}, frame); err != nil {
			opsf("frame %d: lane postprocess 3D failed: %v", frame.FrameID, err)
			return fmt.Errorf("lane postprocess 3D: %w", err)
		}
		o.sinks.WriteLanelines(frame.FrameID, frame.LaneObjects)
	} else {
		diagf("frame %d: sensor %s is not the working sensor, skipping lane detection", frame.FrameID, sensor)
		o.calibration.Update(frame)
	}

	o.sinks.WriteCalibration(frame.FrameID, frame)

	if err := o.tracker.Predict(camera.TrackerOptions{}, frame); err != nil {
		opsf("frame %d: tracker predict failed: %v", frame.FrameID, err)
		return fmt.Errorf("tracker predict: %w", err)
	}

	detector, ok := o.detectors[sensor]
	if !ok {
		return fmt.Errorf("perception: no detector for sensor: %w", &camera.UnknownSensorError{Sensor: sensor})
	}
	if err := detector.Detect(camera.DetectorOptions{}, frame); err != nil {
		opsf("frame %d: detection failed on %s: %v", frame.FrameID, sensor, err)
		return fmt.Errorf("detect: %w", err)
	}
	o.sinks.WriteDetections(frame.FrameID, frame.DetectedObjects)

	if o.extractor != nil {
		if err := o.extractor.Extract(camera.FeatureExtractorOptions{}, frame); err != nil {
			opsf("frame %d: feature extraction failed: %v", frame.FrameID, err)
			return fmt.Errorf("feature extraction: %w", err)
		}
		o.sinks.WriteDetectionsWithFeatures(frame.FrameID, frame.DetectedObjects)
	}

	// Downstream multi-sensor consumers need to know which camera produced
	// each object.
	for _, obj := range frame.DetectedObjects {
		obj.SensorName = sensor
	}

	if err := o.tracker.Associate2D(camera.TrackerOptions{}, frame); err != nil {
		opsf("frame %d: associate2D failed: %v", frame.FrameID, err)
		return fmt.Errorf("associate2D: %w", err)
	}

	if err := o.transformer.Transform(camera.TransformerOptions{}, frame); err != nil {
		opsf("frame %d: transform failed: %v", frame.FrameID, err)
		return fmt.Errorf("transform: %w", err)
	}

	ppOpts := camera.ObstaclePostprocessorOptions{
		DoRefinementWithCalibrationService: o.calibration != nil,
	}
	if err := o.postprocessor.Process(ppOpts, frame); err != nil {
		opsf("frame %d: obstacle postprocess failed: %v", frame.FrameID, err)
		return fmt.Errorf("obstacle postprocess: %w", err)
	}

	if err := o.tracker.Associate3D(camera.TrackerOptions{}, frame); err != nil {
		opsf("frame %d: associate3D failed: %v", frame.FrameID, err)
		return fmt.Errorf("associate3D: %w", err)
	}

	if err := o.tracker.Track(camera.TrackerOptions{}, frame); err != nil {
		opsf("frame %d: track failed: %v", frame.FrameID, err)
		return fmt.Errorf("track: %w", err)
	}

	o.sinks.WriteCameraToWorld(frame.FrameID, frame.CameraToWorldPose)
	o.sinks.WriteTracking(frame.FrameID, frame.TrackedObjects)
	o.sinks.WriteTrackedDetections(frame.FrameID, frame.TrackedObjects)

	if o.store != nil {
		for _, obj := range frame.TrackedObjects {
			if err := o.store.PersistTrackedObject(frame.FrameID, obj); err != nil {
				opsf("frame %d: persist track %s: %v", frame.FrameID, obj.TrackID, err)
			}
		}
	}

	// Frame post-step: always runs on success, not individually fallible.
	for _, obj := range frame.TrackedObjects {
		camera.FillPolygonFromBBox3D(obj)
		obj.AnchorPoint = obj.Center
	}

	if o.plotter != nil {
		o.plotter.Sample(frame)
	}

	tracef("frame %d (%s): %d detected, %d tracked",
		frame.FrameID, sensor, len(frame.DetectedObjects), len(frame.TrackedObjects))
	return nil
}
