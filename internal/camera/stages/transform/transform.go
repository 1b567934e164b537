// Package transform implements the built-in 2D→3D obstacle transformer. It
// lifts each detection into the camera frame by intersecting the viewing ray
// through the bottom-centre of its image box with the calibrated ground
// plane, and fills 3D size from per-class template priors when available.
package transform

import (
	"fmt"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/registry"
)

// PluginName is the registered name of this transformer.
const PluginName = "GroundPlaneTransformer"

// Fallback extrinsics used until the calibration service has an estimate.
const (
	fallbackHeight = 1.5
	fallbackPitch  = 0.0
)

func init() {
	registry.RegisterTransformer(PluginName, func() camera.Transformer {
		return &Transformer{}
	})
}

// Transformer implements camera.Transformer.
type Transformer struct {
	templates camera.SizeTemplateProvider
}

// Name implements camera.Transformer.
func (t *Transformer) Name() string { return PluginName }

// Init implements camera.Transformer.
func (t *Transformer) Init(options camera.TransformerInitOptions) error {
	t.templates = options.Templates
	return nil
}

// Transform implements camera.Transformer.
func (t *Transformer) Transform(_ camera.TransformerOptions, frame *camera.Frame) error {
	if frame.CameraKMatrix == nil {
		return fmt.Errorf("transform: frame has no intrinsic matrix")
	}

	height, pitch := fallbackHeight, fallbackPitch
	if frame.CalibrationService != nil {
		if h, p, ok := frame.CalibrationService.QueryCameraHeightAndPitch(frame.SensorName()); ok {
			height, pitch = h, p
		}
	}

	for _, obj := range frame.DetectedObjects {
		foot := camera.Point2D{
			X: (obj.BBox.Xmin + obj.BBox.Xmax) / 2,
			Y: obj.BBox.Ymax,
		}
		ground, ok := camera.ProjectToGround(frame.CameraKMatrix, height, pitch, foot)
		if !ok {
			// Box bottom above the horizon: leave any detector-provided 3D
			// pose untouched rather than inventing one.
			camera.Diagf("transform: %s box above horizon, skipping lift", obj.Type)
			continue
		}

		if t.templates != nil {
			if size, found := t.templates.TemplateSize(obj.Type); found {
				obj.Size = size
			}
		}

		obj.Center = camera.Point3D{
			X: ground.X,
			Y: ground.Y - obj.Size[2]/2,
			Z: ground.Z,
		}
	}
	camera.Tracef("transform: lifted %d detections (h=%.2f pitch=%.4f)",
		len(frame.DetectedObjects), height, pitch)
	return nil
}
