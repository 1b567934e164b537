// Package monitor renders debug plots from pipeline runs: ground-plane
// trajectories per track and the calibration pitch history. It accumulates
// samples during a run and writes PNGs when flushed.
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/meridian-av/perception/internal/camera"
)

// trajectory plot palette, cycled per track.
var palette = []color.RGBA{
	{R: 0xd6, G: 0x28, B: 0x28, A: 0xff},
	{R: 0x28, G: 0x6e, B: 0xd6, A: 0xff},
	{R: 0x2a, G: 0x9d, B: 0x3a, A: 0xff},
	{R: 0xb3, G: 0x6b, B: 0x00, A: 0xff},
	{R: 0x6a, G: 0x3d, B: 0x9a, A: 0xff},
}

// TrajectoryPlotter accumulates tracked-object positions and calibration
// pitch samples per frame.
type TrajectoryPlotter struct {
	mu        sync.Mutex
	outputDir string

	// track id → ground-plane points in frame order
	trajectories map[string]plotter.XYs

	// (frame id, pitch) samples from the working sensor
	pitchSamples plotter.XYs
}

// NewTrajectoryPlotter creates a plotter writing into outputDir.
func NewTrajectoryPlotter(outputDir string) (*TrajectoryPlotter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}
	return &TrajectoryPlotter{
		outputDir:    outputDir,
		trajectories: make(map[string]plotter.XYs),
	}, nil
}

// Sample records one finished frame's tracked objects and calibration state.
func (tp *TrajectoryPlotter) Sample(frame *camera.Frame) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	for _, obj := range frame.TrackedObjects {
		if obj.TrackID == "" {
			continue
		}
		tp.trajectories[obj.TrackID] = append(tp.trajectories[obj.TrackID],
			plotter.XY{X: obj.Center.X, Y: obj.Center.Z})
	}

	if frame.CalibrationService != nil {
		if _, pitch, ok := frame.CalibrationService.QueryCameraHeightAndPitch(frame.SensorName()); ok {
			tp.pitchSamples = append(tp.pitchSamples,
				plotter.XY{X: float64(frame.FrameID), Y: pitch})
		}
	}
}

// Flush renders trajectories.png and pitch.png into the output directory.
func (tp *TrajectoryPlotter) Flush() error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if len(tp.trajectories) > 0 {
		p := plot.New()
		p.Title.Text = "Tracked object trajectories (ground plane)"
		p.X.Label.Text = "lateral (m)"
		p.Y.Label.Text = "forward (m)"

		ids := make([]string, 0, len(tp.trajectories))
		for id := range tp.trajectories {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for i, id := range ids {
			line, err := plotter.NewLine(tp.trajectories[id])
			if err != nil {
				return fmt.Errorf("trajectory line for %s: %w", id, err)
			}
			line.Color = palette[i%len(palette)]
			p.Add(line)
		}
		out := filepath.Join(tp.outputDir, "trajectories.png")
		if err := p.Save(10*vg.Inch, 10*vg.Inch, out); err != nil {
			return fmt.Errorf("save trajectory plot: %w", err)
		}
	}

	if len(tp.pitchSamples) > 0 {
		p := plot.New()
		p.Title.Text = "Calibration pitch history"
		p.X.Label.Text = "frame"
		p.Y.Label.Text = "pitch (rad)"

		line, err := plotter.NewLine(tp.pitchSamples)
		if err != nil {
			return fmt.Errorf("pitch line: %w", err)
		}
		p.Add(line)
		out := filepath.Join(tp.outputDir, "pitch.png")
		if err := p.Save(10*vg.Inch, 4*vg.Inch, out); err != nil {
			return fmt.Errorf("save pitch plot: %w", err)
		}
	}
	return nil
}
