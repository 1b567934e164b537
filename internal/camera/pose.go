package camera

// Pose is a rigid transform from the camera frame to the world frame:
// a row-major 3×3 rotation plus a translation.
type Pose struct {
	Rotation    [9]float64
	Translation Point3D
}

// IdentityPose returns a pose with identity rotation and zero translation.
func IdentityPose() Pose {
	return Pose{Rotation: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// Apply transforms a camera-frame point into the world frame.
func (p Pose) Apply(pt Point3D) Point3D {
	r := p.Rotation
	return Point3D{
		X: r[0]*pt.X + r[1]*pt.Y + r[2]*pt.Z + p.Translation.X,
		Y: r[3]*pt.X + r[4]*pt.Y + r[5]*pt.Z + p.Translation.Y,
		Z: r[6]*pt.X + r[7]*pt.Y + r[8]*pt.Z + p.Translation.Z,
	}
}
