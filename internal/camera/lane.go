package camera

// LanePositionType identifies where a lane line sits relative to the ego lane.
type LanePositionType string

const (
	LaneEgoLeft    LanePositionType = "ego_left"
	LaneEgoRight   LanePositionType = "ego_right"
	LaneAdjLeft    LanePositionType = "adjacent_left"
	LaneAdjRight   LanePositionType = "adjacent_right"
	LaneUnknownPos LanePositionType = "unknown"
)

// PolyCurve is a cubic polynomial y = a + b·x + c·x² + d·x³ over [XStart, XEnd].
// In image space x is the row coordinate; in camera space x is the
// longitudinal distance.
type PolyCurve struct {
	A, B, C, D   float64
	XStart, XEnd float64
}

// Eval evaluates the curve at x.
func (c PolyCurve) Eval(x float64) float64 {
	return c.A + x*(c.B+x*(c.C+x*c.D))
}

// LaneLine is one detected lane marking. The lane detector fills the image
// evidence, the postprocessor's 2D phase fits CurveImage, and the 3D phase
// projects the line onto the ground plane using the current calibration.
type LaneLine struct {
	PositionType LanePositionType
	Confidence   float64

	// 2D evidence and fit
	ImagePoints []Point2D
	CurveImage  PolyCurve

	// 3D projection and fit
	CameraPoints []Point3D
	CurveCamera  PolyCurve
}
