package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *PerceptionConfig {
	return &PerceptionConfig{
		Detectors: []DetectorConfig{
			{CameraName: "front_6mm", Plugin: PluginConfig{Name: "ReplayDetector"}},
		},
		Tracker:       &PluginConfig{Name: "CascadedKalmanTracker"},
		Transformer:   &PluginConfig{Name: "GroundPlaneTransformer"},
		Postprocessor: &PluginConfig{Name: "LocationRefiner"},
		Lane: &LaneConfig{
			Detector:      PluginConfig{Name: "PolylineLaneDetector"},
			Postprocessor: PluginConfig{Name: "GroundPlaneLaneFitter"},
		},
		CalibrationService: &CalibrationServiceConfig{
			Plugin: PluginConfig{Name: "LaneLineCalibrator"},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, validConfig().Validate())
	})

	t.Run("missing sections fail", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			name   string
			mutate func(c *PerceptionConfig)
		}{
			{"no detectors", func(c *PerceptionConfig) { c.Detectors = nil }},
			{"detector without camera name", func(c *PerceptionConfig) { c.Detectors[0].CameraName = "" }},
			{"detector without plugin name", func(c *PerceptionConfig) { c.Detectors[0].Plugin.Name = "" }},
			{"no tracker", func(c *PerceptionConfig) { c.Tracker = nil }},
			{"no transformer", func(c *PerceptionConfig) { c.Transformer = nil }},
			{"no postprocessor", func(c *PerceptionConfig) { c.Postprocessor = nil }},
			{"no lane section", func(c *PerceptionConfig) { c.Lane = nil }},
			{"no lane detector plugin", func(c *PerceptionConfig) { c.Lane.Detector.Name = "" }},
			{"no lane postprocessor plugin", func(c *PerceptionConfig) { c.Lane.Postprocessor.Name = "" }},
			{"no calibration service", func(c *PerceptionConfig) { c.CalibrationService = nil }},
			{"no calibration plugin name", func(c *PerceptionConfig) { c.CalibrationService.Plugin.Name = "" }},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				cfg := validConfig()
				tc.mutate(cfg)
				assert.Error(t, cfg.Validate())
			})
		}
	})

	t.Run("optional sections may be absent", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Feature = nil
		cfg.ObjectTemplate = nil
		cfg.Debug = nil
		cfg.Storage = nil
		require.NoError(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("loads a valid file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "perception.json")
		data := `{
			"gpu_id": 1,
			"detector_params": [
				{"camera_name": "front_6mm", "plugin_param": {"name": "ReplayDetector", "root_dir": "labels"}}
			],
			"tracker_param": {"name": "CascadedKalmanTracker"},
			"transformer_param": {"name": "GroundPlaneTransformer"},
			"postprocessor_param": {"name": "LocationRefiner"},
			"lane_param": {
				"lane_detector_param": {"name": "PolylineLaneDetector"},
				"lane_postprocessor_param": {"name": "GroundPlaneLaneFitter"}
			},
			"calibration_service_param": {
				"plugin_param": {"name": "LaneLineCalibrator"},
				"calibrator_method": "LaneLineCalibrator"
			}
		}`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.GPUID)
		require.Len(t, cfg.Detectors, 1)
		assert.Equal(t, "front_6mm", cfg.Detectors[0].CameraName)
		assert.Equal(t, "labels", cfg.Detectors[0].Plugin.RootDir)
		assert.Equal(t, "LaneLineCalibrator", cfg.CalibrationService.CalibratorMethod)
	})

	t.Run("rejects non-json extension", func(t *testing.T) {
		t.Parallel()
		_, err := Load("perception.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json")
	})

	t.Run("rejects missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"gpu_id": 0}`), 0o644))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestResolvePath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", ResolvePath("/work", ""))
	assert.Equal(t, "/abs/conf.json", ResolvePath("/work", "/abs/conf.json"))
	assert.Equal(t, filepath.Join("/work", "conf.json"), ResolvePath("/work", "conf.json"))
}
