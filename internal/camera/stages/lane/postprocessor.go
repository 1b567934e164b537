package lane

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/meridian-av/perception/internal/camera"
)

// Ground-plane fallback used before the calibration service has converged.
const (
	fallbackHeight = 1.5
	fallbackPitch  = 0.0
)

// Postprocessor implements camera.LanePostprocessor. Process2D runs before
// the calibration update and fits image-space curves; Process3D runs after
// it and projects the evidence onto the calibrated ground plane.
type Postprocessor struct{}

// Name implements camera.LanePostprocessor.
func (p *Postprocessor) Name() string { return PostprocessorPluginName }

// Init implements camera.LanePostprocessor. The detector's resolved config
// location arrives alongside our own so a richer implementation can align
// geometry assumptions; the built-in fitter has none to align.
func (p *Postprocessor) Init(options camera.LanePostprocessorInitOptions) error {
	return nil
}

// Process2D fits column = f(row) cubics to each lane's image evidence.
func (p *Postprocessor) Process2D(_ camera.LanePostprocessorOptions, frame *camera.Frame) error {
	for i := range frame.LaneObjects {
		lane := &frame.LaneObjects[i]
		curve, err := fitCubic(lane.ImagePoints)
		if err != nil {
			return fmt.Errorf("lane 2D fit (%s): %w", lane.PositionType, err)
		}
		lane.CurveImage = curve
	}
	return nil
}

// Process3D projects each lane's image points onto the ground plane using
// the frame's calibration state and fits lateral = f(forward) cubics.
func (p *Postprocessor) Process3D(_ camera.LanePostprocessorOptions, frame *camera.Frame) error {
	if frame.CameraKMatrix == nil {
		return fmt.Errorf("lane 3D fit: frame has no intrinsic matrix")
	}

	height, pitch := fallbackHeight, fallbackPitch
	if frame.CalibrationService != nil {
		if h, pt, ok := frame.CalibrationService.QueryCameraHeightAndPitch(frame.SensorName()); ok {
			height, pitch = h, pt
		}
	}

	for i := range frame.LaneObjects {
		lane := &frame.LaneObjects[i]
		lane.CameraPoints = lane.CameraPoints[:0]
		ground := make([]camera.Point2D, 0, len(lane.ImagePoints))
		for _, ip := range lane.ImagePoints {
			gp, ok := camera.ProjectToGround(frame.CameraKMatrix, height, pitch, ip)
			if !ok {
				continue
			}
			lane.CameraPoints = append(lane.CameraPoints, gp)
			// Fit over (forward, lateral).
			ground = append(ground, camera.Point2D{X: gp.X, Y: gp.Z})
		}
		if len(ground) < 2 {
			return fmt.Errorf("lane 3D fit (%s): only %d points reach the ground plane",
				lane.PositionType, len(ground))
		}
		curve, err := fitCubic(ground)
		if err != nil {
			return fmt.Errorf("lane 3D fit (%s): %w", lane.PositionType, err)
		}
		lane.CurveCamera = curve
	}
	return nil
}

// fitCubic least-squares fits value = a + b·x + c·x² + d·x³ over the points,
// where x is the point's Y member and the value its X member. Short chains
// degrade to the highest order the point count supports.
func fitCubic(points []camera.Point2D) (camera.PolyCurve, error) {
	n := len(points)
	if n < 2 {
		return camera.PolyCurve{}, fmt.Errorf("need at least 2 points, have %d", n)
	}
	order := 3
	if n-1 < order {
		order = n - 1
	}

	a := mat.NewDense(n, order+1, nil)
	b := mat.NewVecDense(n, nil)
	xMin, xMax := points[0].Y, points[0].Y
	for i, p := range points {
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= p.Y
		}
		b.SetVec(i, p.X)
		if p.Y < xMin {
			xMin = p.Y
		}
		if p.Y > xMax {
			xMax = p.Y
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return camera.PolyCurve{}, fmt.Errorf("singular fit: %w", err)
	}

	curve := camera.PolyCurve{XStart: xMin, XEnd: xMax}
	curve.A = coef.AtVec(0)
	if order >= 1 {
		curve.B = coef.AtVec(1)
	}
	if order >= 2 {
		curve.C = coef.AtVec(2)
	}
	if order >= 3 {
		curve.D = coef.AtVec(3)
	}
	return curve, nil
}
