// Package registry operates the name-keyed factories for perception stage
// plugins. Each capability has its own registry; implementations register a
// constructor under a plugin name at program start, and the pipeline resolves
// configured names into instances during Init.
package registry

import (
	"fmt"

	"github.com/meridian-av/perception/internal/camera"
)

type (
	// A CreateDetector constructs an uninitialized obstacle detector.
	CreateDetector func() camera.Detector

	// A CreateTracker constructs an uninitialized obstacle tracker.
	CreateTracker func() camera.Tracker

	// A CreateTransformer constructs an uninitialized transformer.
	CreateTransformer func() camera.Transformer

	// A CreateObstaclePostprocessor constructs an uninitialized obstacle postprocessor.
	CreateObstaclePostprocessor func() camera.ObstaclePostprocessor

	// A CreateFeatureExtractor constructs an uninitialized feature extractor.
	CreateFeatureExtractor func() camera.FeatureExtractor

	// A CreateLaneDetector constructs an uninitialized lane detector.
	CreateLaneDetector func() camera.LaneDetector

	// A CreateLanePostprocessor constructs an uninitialized lane postprocessor.
	CreateLanePostprocessor func() camera.LanePostprocessor

	// A CreateCalibrationService constructs an uninitialized calibration service.
	CreateCalibrationService func() camera.CalibrationService
)

// all registries
var (
	detectorRegistry           = map[string]CreateDetector{}
	trackerRegistry            = map[string]CreateTracker{}
	transformerRegistry        = map[string]CreateTransformer{}
	postprocessorRegistry      = map[string]CreateObstaclePostprocessor{}
	featureExtractorRegistry   = map[string]CreateFeatureExtractor{}
	laneDetectorRegistry       = map[string]CreateLaneDetector{}
	lanePostprocessorRegistry  = map[string]CreateLanePostprocessor{}
	calibrationServiceRegistry = map[string]CreateCalibrationService{}
)

func register[T any](registry map[string]T, kind, name string, creator T) {
	if _, old := registry[name]; old {
		panic(fmt.Errorf("trying to register two %s plugins with same name %s", kind, name))
	}
	registry[name] = creator
}

func lookup[T any](registry map[string]T, kind, name string) (T, error) {
	creator, ok := registry[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("no %s plugin with name %q", kind, name)
	}
	return creator, nil
}

// RegisterDetector registers a detector plugin name to a creator.
func RegisterDetector(name string, creator CreateDetector) {
	register(detectorRegistry, "detector", name, creator)
}

// RegisterTracker registers a tracker plugin name to a creator.
func RegisterTracker(name string, creator CreateTracker) {
	register(trackerRegistry, "tracker", name, creator)
}

// RegisterTransformer registers a transformer plugin name to a creator.
func RegisterTransformer(name string, creator CreateTransformer) {
	register(transformerRegistry, "transformer", name, creator)
}

// RegisterObstaclePostprocessor registers an obstacle postprocessor plugin name to a creator.
func RegisterObstaclePostprocessor(name string, creator CreateObstaclePostprocessor) {
	register(postprocessorRegistry, "obstacle postprocessor", name, creator)
}

// RegisterFeatureExtractor registers a feature extractor plugin name to a creator.
func RegisterFeatureExtractor(name string, creator CreateFeatureExtractor) {
	register(featureExtractorRegistry, "feature extractor", name, creator)
}

// RegisterLaneDetector registers a lane detector plugin name to a creator.
func RegisterLaneDetector(name string, creator CreateLaneDetector) {
	register(laneDetectorRegistry, "lane detector", name, creator)
}

// RegisterLanePostprocessor registers a lane postprocessor plugin name to a creator.
func RegisterLanePostprocessor(name string, creator CreateLanePostprocessor) {
	register(lanePostprocessorRegistry, "lane postprocessor", name, creator)
}

// RegisterCalibrationService registers a calibration service plugin name to a creator.
func RegisterCalibrationService(name string, creator CreateCalibrationService) {
	register(calibrationServiceRegistry, "calibration service", name, creator)
}

// DetectorLookup looks up a detector creator by plugin name.
func DetectorLookup(name string) (CreateDetector, error) {
	return lookup(detectorRegistry, "detector", name)
}

// TrackerLookup looks up a tracker creator by plugin name.
func TrackerLookup(name string) (CreateTracker, error) {
	return lookup(trackerRegistry, "tracker", name)
}

// TransformerLookup looks up a transformer creator by plugin name.
func TransformerLookup(name string) (CreateTransformer, error) {
	return lookup(transformerRegistry, "transformer", name)
}

// ObstaclePostprocessorLookup looks up an obstacle postprocessor creator by plugin name.
func ObstaclePostprocessorLookup(name string) (CreateObstaclePostprocessor, error) {
	return lookup(postprocessorRegistry, "obstacle postprocessor", name)
}

// FeatureExtractorLookup looks up a feature extractor creator by plugin name.
func FeatureExtractorLookup(name string) (CreateFeatureExtractor, error) {
	return lookup(featureExtractorRegistry, "feature extractor", name)
}

// LaneDetectorLookup looks up a lane detector creator by plugin name.
func LaneDetectorLookup(name string) (CreateLaneDetector, error) {
	return lookup(laneDetectorRegistry, "lane detector", name)
}

// LanePostprocessorLookup looks up a lane postprocessor creator by plugin name.
func LanePostprocessorLookup(name string) (CreateLanePostprocessor, error) {
	return lookup(lanePostprocessorRegistry, "lane postprocessor", name)
}

// CalibrationServiceLookup looks up a calibration service creator by plugin name.
func CalibrationServiceLookup(name string) (CreateCalibrationService, error) {
	return lookup(calibrationServiceRegistry, "calibration service", name)
}
