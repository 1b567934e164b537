// Command perception replays a recorded frame sequence through the camera
// perception pipeline. It exists for offline runs: regression sweeps over
// annotated sequences, debug-sink dumps, and calibration tuning.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/pipeline"

	// Built-in stage plugins register themselves on import.
	_ "github.com/meridian-av/perception/internal/camera/stages/calibrate"
	_ "github.com/meridian-av/perception/internal/camera/stages/detect"
	_ "github.com/meridian-av/perception/internal/camera/stages/feature"
	_ "github.com/meridian-av/perception/internal/camera/stages/lane"
	_ "github.com/meridian-av/perception/internal/camera/stages/postprocess"
	_ "github.com/meridian-av/perception/internal/camera/stages/track"
	_ "github.com/meridian-av/perception/internal/camera/stages/transform"
)

var (
	workRoot      = flag.String("work-root", ".", "Working root directory for config-relative paths")
	confFile      = flag.String("conf", "perception.json", "Pipeline configuration file (relative to work root)")
	modelsFile    = flag.String("models", "cameras.json", "Camera models file (relative to work root)")
	framesFile    = flag.String("frames", "frames.json", "Frame manifest to replay (relative to work root)")
	workingSensor = flag.String("working-sensor", "", "Sensor that drives lane detection and calibration")
	verbose       = flag.Bool("v", false, "Enable diagnostic logging")
	trace         = flag.Bool("vv", false, "Enable per-frame trace logging")
)

// cameraModelSpec is one entry of the camera models file.
type cameraModelSpec struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Cx     float64 `json:"cx"`
	Cy     float64 `json:"cy"`
}

// frameSpec is one entry of the frame manifest.
type frameSpec struct {
	FrameID    int64              `json:"frame_id"`
	SensorName string             `json:"sensor_name"`
	LaneMarks  [][]camera.Point2D `json:"lane_marks,omitempty"`
}

// replayProvider is the replay data provider: sensor name plus optional
// lane-mark evidence for the working sensor.
type replayProvider struct {
	sensor    string
	laneMarks [][]camera.Point2D
}

func (p *replayProvider) SensorName() string { return p.sensor }

func (p *replayProvider) LaneMarkPoints() [][]camera.Point2D { return p.laneMarks }

func loadModels(path string) (camera.StaticModelResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read camera models: %w", err)
	}
	var specs map[string]cameraModelSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse camera models: %w", err)
	}
	resolver := camera.StaticModelResolver{}
	for name, s := range specs {
		resolver[name] = &camera.CameraModel{
			Name:       name,
			Width:      s.Width,
			Height:     s.Height,
			Intrinsics: camera.NewPinholeIntrinsics(s.Fx, s.Fy, s.Cx, s.Cy),
		}
	}
	return resolver, nil
}

func loadFrames(path string) ([]frameSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame manifest: %w", err)
	}
	var frames []frameSpec
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("parse frame manifest: %w", err)
	}
	return frames, nil
}

func run() error {
	var diagW, traceW io.Writer
	if *verbose || *trace {
		diagW = os.Stderr
	}
	if *trace {
		traceW = os.Stderr
	}
	camera.SetLogWriters(camera.LogWriters{Ops: os.Stderr, Diag: diagW, Trace: traceW})

	resolver, err := loadModels(resolve(*modelsFile))
	if err != nil {
		return err
	}

	orch := pipeline.New()
	err = orch.Init(pipeline.InitOptions{
		WorkRoot:                         *workRoot,
		ConfFile:                         *confFile,
		LaneCalibrationWorkingSensorName: *workingSensor,
		ModelResolver:                    resolver,
	})
	if err != nil {
		return err
	}
	defer orch.Close()

	frames, err := loadFrames(resolve(*framesFile))
	if err != nil {
		return err
	}

	start := time.Now()
	failed := 0
	for _, spec := range frames {
		frame := &camera.Frame{
			FrameID:   spec.FrameID,
			Timestamp: time.Now(),
			DataProvider: &replayProvider{
				sensor:    spec.SensorName,
				laneMarks: spec.LaneMarks,
			},
		}
		if err := orch.Perception(pipeline.Options{}, frame); err != nil {
			// A failed frame never stops the run; the pipeline accepts the
			// next frame regardless.
			log.Printf("frame %d (%s) failed: %v", spec.FrameID, spec.SensorName, err)
			failed++
		}
	}

	log.Printf("replayed %d frames in %v (%d failed)", len(frames), time.Since(start), failed)
	return nil
}

func resolve(path string) string {
	if path == "" || path[0] == '/' {
		return path
	}
	return *workRoot + "/" + path
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatalf("perception: %v", err)
	}
}
