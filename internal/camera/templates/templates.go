// Package templates provides the object template manager: per-class 3D size
// priors (length, width, height in metres) loaded once at startup. The
// pipeline owns the instance and injects it into the stages that consume it.
package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meridian-av/perception/internal/camera"
)

// Manager serves per-class size priors. Immutable after Init.
type Manager struct {
	sizes map[camera.ObjectType][3]float64
}

// InitOptions locates the template file.
type InitOptions struct {
	RootDir  string
	ConfFile string
}

// builtin priors used when a class is absent from the template file.
var builtin = map[camera.ObjectType][3]float64{
	camera.ObjectVehicle:    {4.5, 1.8, 1.5},
	camera.ObjectPedestrian: {0.5, 0.5, 1.7},
	camera.ObjectBicycle:    {1.8, 0.6, 1.6},
}

// NewManager loads the template file and merges it over the builtin priors.
// An empty ConfFile yields a manager serving the builtins only.
func NewManager(options InitOptions) (*Manager, error) {
	m := &Manager{sizes: make(map[camera.ObjectType][3]float64, len(builtin))}
	for k, v := range builtin {
		m.sizes[k] = v
	}
	if options.ConfFile == "" {
		return m, nil
	}

	path := options.ConfFile
	if options.RootDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(options.RootDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read object templates: %w", err)
	}
	var loaded map[string][3]float64
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse object templates: %w", err)
	}
	for name, size := range loaded {
		if size[0] <= 0 || size[1] <= 0 || size[2] <= 0 {
			return nil, fmt.Errorf("object template %q has non-positive dimension", name)
		}
		m.sizes[camera.ObjectType(name)] = size
	}
	return m, nil
}

// TemplateSize implements camera.SizeTemplateProvider.
func (m *Manager) TemplateSize(objType camera.ObjectType) ([3]float64, bool) {
	size, ok := m.sizes[objType]
	return size, ok
}
