package camera

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Camera-frame conventions used throughout the pipeline: X right, Y down,
// Z forward. The ground plane sits at Y = height below the camera, tilted by
// the calibrated pitch about the X axis.

// BackProject returns the unit-less ray direction through an image point,
// i.e. K⁻¹·[u v 1]ᵀ.
func BackProject(k *mat.Dense, pt Point2D) (Point3D, error) {
	var kInv mat.Dense
	if err := kInv.Inverse(k); err != nil {
		return Point3D{}, err
	}
	var ray mat.VecDense
	ray.MulVec(&kInv, mat.NewVecDense(3, []float64{pt.X, pt.Y, 1}))
	return Point3D{X: ray.AtVec(0), Y: ray.AtVec(1), Z: ray.AtVec(2)}, nil
}

// ProjectToGround intersects the viewing ray through an image point with the
// calibrated ground plane and returns the camera-frame ground point. ok is
// false when the ray points above the horizon and never meets the ground.
func ProjectToGround(k *mat.Dense, height, pitch float64, pt Point2D) (Point3D, bool) {
	ray, err := BackProject(k, pt)
	if err != nil {
		return Point3D{}, false
	}

	// Rotate the ray by -pitch about X so the ground plane becomes Y = height.
	sin, cos := math.Sin(pitch), math.Cos(pitch)
	dy := cos*ray.Y - sin*ray.Z
	dz := sin*ray.Y + cos*ray.Z

	if dy <= 1e-6 {
		return Point3D{}, false
	}
	scale := height / dy
	return Point3D{X: ray.X * scale, Y: height, Z: dz * scale}, true
}
