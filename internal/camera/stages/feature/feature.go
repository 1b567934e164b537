// Package feature implements the built-in feature extractor: a cheap
// geometric descriptor per detection, derived from box shape and image
// position, for downstream multi-sensor consumers that fuse by appearance.
package feature

import (
	"math"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/registry"
)

// PluginName is the registered name of this extractor.
const PluginName = "BoxGeometryExtractor"

func init() {
	registry.RegisterFeatureExtractor(PluginName, func() camera.FeatureExtractor {
		return &Extractor{}
	})
}

// Extractor implements camera.FeatureExtractor.
type Extractor struct{}

// Name implements camera.FeatureExtractor.
func (e *Extractor) Name() string { return PluginName }

// Init implements camera.FeatureExtractor.
func (e *Extractor) Init(options camera.FeatureExtractorInitOptions) error {
	return nil
}

// Extract implements camera.FeatureExtractor. The descriptor is
// [log area, aspect ratio, centre u, centre v, confidence], L2-normalised.
func (e *Extractor) Extract(_ camera.FeatureExtractorOptions, frame *camera.Frame) error {
	for _, obj := range frame.DetectedObjects {
		w, h := obj.BBox.Width(), obj.BBox.Height()
		if w <= 0 || h <= 0 {
			obj.Features = nil
			continue
		}
		feat := []float64{
			math.Log(w * h),
			w / h,
			(obj.BBox.Xmin + obj.BBox.Xmax) / 2,
			(obj.BBox.Ymin + obj.BBox.Ymax) / 2,
			obj.Confidence,
		}
		var norm float64
		for _, v := range feat {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for i := range feat {
				feat[i] /= norm
			}
		}
		obj.Features = feat
	}
	return nil
}
