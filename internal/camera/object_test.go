package camera

import (
	"math"
	"testing"
)

func TestBBoxDimensions(t *testing.T) {
	b := BBox2D{Xmin: 10, Ymin: 20, Xmax: 110, Ymax: 70}
	if b.Width() != 100 {
		t.Errorf("Width() = %v, want 100", b.Width())
	}
	if b.Height() != 50 {
		t.Errorf("Height() = %v, want 50", b.Height())
	}
}

func TestFillPolygonFromBBox3D(t *testing.T) {
	obj := &Object{
		Size:   [3]float64{4.0, 2.0, 1.5},
		Center: Point3D{X: 1.0, Y: 0.75, Z: 10.0},
		Theta:  0,
	}
	FillPolygonFromBBox3D(obj)

	if len(obj.Polygon) != 4 {
		t.Fatalf("polygon has %d corners, want 4", len(obj.Polygon))
	}

	// At zero heading the box is axis aligned: Z spans length, X spans width.
	wantGroundY := obj.Center.Y + obj.Size[2]/2
	minX, maxX := obj.Polygon[0].X, obj.Polygon[0].X
	minZ, maxZ := obj.Polygon[0].Z, obj.Polygon[0].Z
	for _, p := range obj.Polygon {
		if math.Abs(p.Y-wantGroundY) > 1e-9 {
			t.Errorf("corner Y = %v, want ground level %v", p.Y, wantGroundY)
		}
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minZ = math.Min(minZ, p.Z)
		maxZ = math.Max(maxZ, p.Z)
	}
	if math.Abs((maxZ-minZ)-4.0) > 1e-9 {
		t.Errorf("polygon forward extent = %v, want 4.0", maxZ-minZ)
	}
	if math.Abs((maxX-minX)-2.0) > 1e-9 {
		t.Errorf("polygon lateral extent = %v, want 2.0", maxX-minX)
	}
}

func TestFillPolygonReusesSlice(t *testing.T) {
	obj := &Object{
		Size:   [3]float64{4.0, 2.0, 1.5},
		Center: Point3D{Z: 10.0},
	}
	FillPolygonFromBBox3D(obj)
	FillPolygonFromBBox3D(obj)
	if len(obj.Polygon) != 4 {
		t.Fatalf("polygon has %d corners after repeat fill, want 4", len(obj.Polygon))
	}
}
