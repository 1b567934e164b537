// Package config models the resolved perception pipeline configuration: the
// per-stage plugin selections and paths the orchestrator reads. On-disk
// schema details beyond these fields are out of scope; the loader only
// validates what the pipeline consumes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PluginConfig selects one stage implementation by registered name and
// points it at its working directory and config file.
type PluginConfig struct {
	Name       string `json:"name"`
	RootDir    string `json:"root_dir,omitempty"`
	ConfigFile string `json:"config_file,omitempty"`
}

// DetectorConfig binds one camera name to its detector plugin.
type DetectorConfig struct {
	CameraName string       `json:"camera_name"`
	Plugin     PluginConfig `json:"plugin_param"`
}

// LaneConfig holds the lane subsystem's detector and postprocessor plugins.
type LaneConfig struct {
	Detector      PluginConfig `json:"lane_detector_param"`
	Postprocessor PluginConfig `json:"lane_postprocessor_param"`
}

// CalibrationServiceConfig selects the calibration service plugin and its
// estimation method.
type CalibrationServiceConfig struct {
	Plugin           PluginConfig `json:"plugin_param"`
	CalibratorMethod string       `json:"calibrator_method"`
}

// DebugConfig lists optional debug output destinations. Every field is
// independent: a sink opens only when its path is non-empty.
type DebugConfig struct {
	TrackOutFile           string `json:"track_out_file,omitempty"`
	CameraToWorldOutFile   string `json:"camera2world_out_file,omitempty"`
	LaneOutDir             string `json:"lane_out_dir,omitempty"`
	CalibrationOutDir      string `json:"calibration_out_dir,omitempty"`
	DetectionOutDir        string `json:"detection_out_dir,omitempty"`
	DetectFeatureDir       string `json:"detect_feature_dir,omitempty"`
	TrackedDetectionOutDir string `json:"tracked_detection_out_dir,omitempty"`
	TrajectoryPlotDir      string `json:"trajectory_plot_dir,omitempty"`
}

// StorageConfig enables optional track persistence.
type StorageConfig struct {
	TrackDBFile string `json:"track_db_file,omitempty"`
}

// PerceptionConfig is the root pipeline configuration. It is immutable after
// Init: the orchestrator reads it once and never writes it back.
type PerceptionConfig struct {
	GPUID int `json:"gpu_id"`

	Detectors []DetectorConfig `json:"detector_params"`

	Tracker            *PluginConfig             `json:"tracker_param"`
	Transformer        *PluginConfig             `json:"transformer_param"`
	Postprocessor      *PluginConfig             `json:"postprocessor_param"`
	Lane               *LaneConfig               `json:"lane_param"`
	CalibrationService *CalibrationServiceConfig `json:"calibration_service_param"`

	// Optional sections; absence disables the feature.
	Feature        *PluginConfig  `json:"feature_param,omitempty"`
	ObjectTemplate *PluginConfig  `json:"object_template_param,omitempty"`
	Debug          *DebugConfig   `json:"debug_param,omitempty"`
	Storage        *StorageConfig `json:"storage_param,omitempty"`
}

// Load reads and validates a PerceptionConfig from a JSON file.
func Load(path string) (*PerceptionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &PerceptionConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that every mandatory section is present. A missing
// mandatory section is a fatal configuration error: the pipeline must not
// start without it.
func (c *PerceptionConfig) Validate() error {
	if len(c.Detectors) == 0 {
		return fmt.Errorf("at least one detector_params entry is required")
	}
	for i, d := range c.Detectors {
		if d.CameraName == "" {
			return fmt.Errorf("detector_params[%d]: camera_name is required", i)
		}
		if d.Plugin.Name == "" {
			return fmt.Errorf("detector_params[%d]: plugin name is required", i)
		}
	}
	if c.Tracker == nil {
		return fmt.Errorf("tracker_param section is required")
	}
	if c.Transformer == nil {
		return fmt.Errorf("transformer_param section is required")
	}
	if c.Postprocessor == nil {
		return fmt.Errorf("postprocessor_param section is required")
	}
	if c.Lane == nil {
		return fmt.Errorf("lane_param section is required")
	}
	if c.Lane.Detector.Name == "" {
		return fmt.Errorf("lane_param: lane_detector_param plugin name is required")
	}
	if c.Lane.Postprocessor.Name == "" {
		return fmt.Errorf("lane_param: lane_postprocessor_param plugin name is required")
	}
	if c.CalibrationService == nil {
		return fmt.Errorf("calibration_service_param section is required")
	}
	if c.CalibrationService.Plugin.Name == "" {
		return fmt.Errorf("calibration_service_param: plugin name is required")
	}
	return nil
}

// ResolvePath joins a config-relative path onto the working root. Absolute
// paths pass through unchanged.
func ResolvePath(workRoot, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workRoot, path)
}
