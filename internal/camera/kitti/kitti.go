// Package kitti reads and writes obstacle detections in the KITTI object
// label format: one object per line,
//
//	type truncated occluded alpha x1 y1 x2 y2 h w l x y z ry score
//
// The debug sinks write this format and the replay detector reads it back,
// so frames dumped from one run can drive another.
package kitti

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/meridian-av/perception/internal/camera"
)

// typeNames maps object types to their KITTI label spellings.
var typeNames = map[camera.ObjectType]string{
	camera.ObjectVehicle:    "Car",
	camera.ObjectPedestrian: "Pedestrian",
	camera.ObjectBicycle:    "Cyclist",
	camera.ObjectUnknown:    "DontCare",
}

// labelTypes is the inverse of typeNames.
var labelTypes = map[string]camera.ObjectType{
	"Car":        camera.ObjectVehicle,
	"Van":        camera.ObjectVehicle,
	"Truck":      camera.ObjectVehicle,
	"Pedestrian": camera.ObjectPedestrian,
	"Cyclist":    camera.ObjectBicycle,
	"DontCare":   camera.ObjectUnknown,
}

// FormatObject renders one object as a KITTI label line (no trailing newline).
func FormatObject(obj *camera.Object) string {
	name, ok := typeNames[obj.Type]
	if !ok {
		name = "DontCare"
	}
	// KITTI dimension order is height, width, length.
	return fmt.Sprintf("%s 0 0 %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f",
		name, obj.Theta,
		obj.BBox.Xmin, obj.BBox.Ymin, obj.BBox.Xmax, obj.BBox.Ymax,
		obj.Size[2], obj.Size[1], obj.Size[0],
		obj.Center.X, obj.Center.Y, obj.Center.Z,
		obj.Theta, obj.Confidence)
}

// WriteObjects writes one label line per object.
func WriteObjects(w io.Writer, objects []*camera.Object) error {
	for _, obj := range objects {
		if _, err := fmt.Fprintln(w, FormatObject(obj)); err != nil {
			return fmt.Errorf("write kitti line: %w", err)
		}
	}
	return nil
}

// ParseLine parses a single KITTI label line into an Object.
func ParseLine(line string) (*camera.Object, error) {
	fields := strings.Fields(line)
	if len(fields) < 15 {
		return nil, fmt.Errorf("kitti line has %d fields, want at least 15", len(fields))
	}

	vals := make([]float64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("kitti field %q: %w", f, err)
		}
		vals = append(vals, v)
	}

	objType, ok := labelTypes[fields[0]]
	if !ok {
		objType = camera.ObjectUnknown
	}
	obj := &camera.Object{
		Type: objType,
		BBox: camera.BBox2D{Xmin: vals[3], Ymin: vals[4], Xmax: vals[5], Ymax: vals[6]},
		// vals[7..9] are h, w, l; Size is stored length, width, height.
		Size:   [3]float64{vals[9], vals[8], vals[7]},
		Center: camera.Point3D{X: vals[10], Y: vals[11], Z: vals[12]},
		Theta:  vals[13],
	}
	if len(vals) >= 15 {
		obj.Confidence = vals[14]
	}
	return obj, nil
}

// ReadObjects parses every non-empty line of r as a KITTI label.
func ReadObjects(r io.Reader) ([]*camera.Object, error) {
	var objects []*camera.Object
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		obj, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read kitti labels: %w", err)
	}
	return objects, nil
}
