package camera

import "math"

// ObjectType is the coarse classification of a detected obstacle.
type ObjectType string

const (
	ObjectUnknown    ObjectType = "unknown"
	ObjectVehicle    ObjectType = "vehicle"
	ObjectPedestrian ObjectType = "pedestrian"
	ObjectBicycle    ObjectType = "bicycle"
)

// Point2D is an image-plane point in pixels.
type Point2D struct {
	X float64
	Y float64
}

// Point3D is a point in the camera or world frame, metres.
type Point3D struct {
	X float64
	Y float64
	Z float64
}

// BBox2D is an axis-aligned image-plane bounding box in pixels.
type BBox2D struct {
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// Width returns the box width in pixels.
func (b BBox2D) Width() float64 { return b.Xmax - b.Xmin }

// Height returns the box height in pixels.
func (b BBox2D) Height() float64 { return b.Ymax - b.Ymin }

// Object is a single detected or tracked obstacle. It is created by a
// detector, refined in place by the transformer and postprocessor, and
// carried into the tracker which assigns identity and motion state.
// Objects are owned exclusively by the Frame's object collections.
type Object struct {
	// Classification
	Type           ObjectType
	SubType        string
	TypeConfidence float64
	Confidence     float64

	// Image-plane detection
	BBox BBox2D

	// 3D attributes (camera frame until the transformer runs, world frame
	// after tracking): size is length/width/height in metres, Theta is the
	// heading about the vertical axis.
	Size   [3]float64
	Center Point3D
	Theta  float64

	// Originating sensor, tagged by the orchestrator after detection.
	SensorName string

	// Tracking state
	TrackID  string
	Velocity Point3D

	// Appearance features produced by the optional feature extractor.
	Features []float64

	// Frame post-step outputs
	Polygon     []Point3D
	AnchorPoint Point3D
}

// FillPolygonFromBBox3D reconstructs the object's ground-plane polygon from
// its 3D bounding box: the four box corners at ground level in the X/Z
// plane, ordered around the box heading. Y is down, so ground level sits
// half the box height below the center.
func FillPolygonFromBBox3D(obj *Object) {
	length, width := obj.Size[0], obj.Size[1]
	sin, cos := math.Sin(obj.Theta), math.Cos(obj.Theta)
	dl, dw := length/2, width/2
	groundY := obj.Center.Y + obj.Size[2]/2

	// Corner offsets in the box frame (forward, lateral), rotated about the
	// vertical axis into the parent frame.
	corners := [4][2]float64{
		{dl, dw}, {dl, -dw}, {-dl, -dw}, {-dl, dw},
	}
	obj.Polygon = obj.Polygon[:0]
	for _, c := range corners {
		obj.Polygon = append(obj.Polygon, Point3D{
			X: obj.Center.X + c[0]*sin + c[1]*cos,
			Y: groundY,
			Z: obj.Center.Z + c[0]*cos - c[1]*sin,
		})
	}
}
