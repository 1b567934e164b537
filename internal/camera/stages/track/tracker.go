// Package track implements the built-in multi-object obstacle tracker: a
// constant-velocity Kalman filter per track, image-space IoU association
// refined by ground-plane gating, and explicit track lifecycle states.
package track

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/registry"
)

// PluginName is the registered name of this tracker.
const PluginName = "CascadedKalmanTracker"

func init() {
	registry.RegisterTracker(PluginName, func() camera.Tracker {
		return &Tracker{}
	})
}

// trackState is the lifecycle state of a track.
type trackState string

const (
	stateTentative trackState = "tentative"
	stateConfirmed trackState = "confirmed"
	stateDeleted   trackState = "deleted"
)

// Config holds the tracker's tunable parameters.
type Config struct {
	MaxMisses             int     `json:"max_misses"`
	HitsToConfirm         int     `json:"hits_to_confirm"`
	IoUThreshold          float64 `json:"iou_threshold"`
	GatingDistanceSquared float64 `json:"gating_distance_squared"`
	ProcessNoisePos       float64 `json:"process_noise_pos"`
	ProcessNoiseVel       float64 `json:"process_noise_vel"`
	MeasurementNoise      float64 `json:"measurement_noise"`
}

// DefaultConfig returns production-default tracker parameters.
func DefaultConfig() Config {
	return Config{
		MaxMisses:             3,
		HitsToConfirm:         3,
		IoUThreshold:          0.3,
		GatingDistanceSquared: 25.0, // 5 m gate, squared
		ProcessNoisePos:       0.1,
		ProcessNoiseVel:       0.5,
		MeasurementNoise:      0.2,
	}
}

// track is one tracked obstacle with its filter state.
type track struct {
	id     string
	state  trackState
	hits   int
	misses int

	kf       kalmanState
	lastBBox camera.BBox2D
	lastObj  *camera.Object
}

// Tracker implements camera.Tracker. Its internal history persists across
// frames; per-frame association scratch state is reset by Predict.
type Tracker struct {
	cfg    Config
	tracks []*track

	lastUpdateNanos int64

	// Per-frame scratch: detection index → associated track.
	assoc map[int]*track
}

// Name implements camera.Tracker.
func (t *Tracker) Name() string { return PluginName }

// Init implements camera.Tracker. The config file is optional; absent fields
// keep their defaults.
func (t *Tracker) Init(options camera.TrackerInitOptions) error {
	t.cfg = DefaultConfig()
	if options.ConfFile != "" {
		path := options.ConfFile
		if options.RootDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(options.RootDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read tracker config: %w", err)
		}
		if err := json.Unmarshal(data, &t.cfg); err != nil {
			return fmt.Errorf("parse tracker config: %w", err)
		}
	}
	t.tracks = nil
	t.assoc = make(map[int]*track)
	return nil
}

// Predict projects every live track forward to the frame's timestamp.
func (t *Tracker) Predict(_ camera.TrackerOptions, frame *camera.Frame) error {
	nowNanos := frame.Timestamp.UnixNano()
	dt := 0.1
	if t.lastUpdateNanos > 0 && nowNanos > t.lastUpdateNanos {
		dt = float64(nowNanos-t.lastUpdateNanos) / 1e9
	}
	t.lastUpdateNanos = nowNanos

	for _, tr := range t.tracks {
		if tr.state == stateDeleted {
			continue
		}
		tr.kf.predict(dt, t.cfg.ProcessNoisePos, t.cfg.ProcessNoiseVel)
	}
	t.assoc = make(map[int]*track)
	return nil
}

// Associate2D greedily matches detections to tracks by image-space IoU.
func (t *Tracker) Associate2D(_ camera.TrackerOptions, frame *camera.Frame) error {
	claimed := make(map[*track]bool)
	for i, det := range frame.DetectedObjects {
		var best *track
		bestIoU := t.cfg.IoUThreshold
		for _, tr := range t.tracks {
			if tr.state == stateDeleted || claimed[tr] {
				continue
			}
			if v := iou(det.BBox, tr.lastBBox); v > bestIoU {
				bestIoU = v
				best = tr
			}
		}
		if best != nil {
			claimed[best] = true
			t.assoc[i] = best
		}
	}
	return nil
}

// Associate3D refines the 2D association with ground-plane gating: matches
// whose 3D distance exceeds the gate are dropped, and detections left
// unmatched in image space get one more chance against unclaimed tracks by
// 3D proximity.
func (t *Tracker) Associate3D(_ camera.TrackerOptions, frame *camera.Frame) error {
	claimed := make(map[*track]bool)
	for _, tr := range t.assoc {
		claimed[tr] = true
	}

	for i, tr := range t.assoc {
		det := frame.DetectedObjects[i]
		if distSq(det, tr) > t.cfg.GatingDistanceSquared {
			delete(t.assoc, i)
			delete(claimed, tr)
		}
	}

	for i, det := range frame.DetectedObjects {
		if _, matched := t.assoc[i]; matched {
			continue
		}
		var best *track
		bestDist := t.cfg.GatingDistanceSquared
		for _, tr := range t.tracks {
			if tr.state == stateDeleted || claimed[tr] {
				continue
			}
			if d := distSq(det, tr); d < bestDist {
				bestDist = d
				best = tr
			}
		}
		if best != nil {
			claimed[best] = true
			t.assoc[i] = best
		}
	}
	return nil
}

// Track finalizes the frame: updates matched tracks, spawns tracks for
// unmatched detections, penalises missed tracks, and publishes the frame's
// tracked objects.
func (t *Tracker) Track(_ camera.TrackerOptions, frame *camera.Frame) error {
	matched := make(map[*track]bool)

	for i, det := range frame.DetectedObjects {
		tr, ok := t.assoc[i]
		if !ok {
			tr = t.spawn(det)
			t.tracks = append(t.tracks, tr)
		} else {
			tr.kf.update(det.Center.X, det.Center.Z, t.cfg.MeasurementNoise)
			tr.hits++
			tr.misses = 0
			if tr.state == stateTentative && tr.hits >= t.cfg.HitsToConfirm {
				tr.state = stateConfirmed
			}
		}
		matched[tr] = true

		tr.lastBBox = det.BBox
		tr.lastObj = det
		det.TrackID = tr.id
		det.Center.X = tr.kf.X
		det.Center.Z = tr.kf.Z
		det.Velocity = camera.Point3D{X: tr.kf.VX, Z: tr.kf.VZ}
	}

	live := t.tracks[:0]
	for _, tr := range t.tracks {
		if !matched[tr] {
			tr.misses++
			tr.hits = 0
			if tr.misses > t.cfg.MaxMisses {
				tr.state = stateDeleted
			}
		}
		if tr.state != stateDeleted {
			live = append(live, tr)
		}
	}
	t.tracks = live

	frame.TrackedObjects = frame.TrackedObjects[:0]
	for _, tr := range t.tracks {
		if matched[tr] {
			frame.TrackedObjects = append(frame.TrackedObjects, tr.lastObj)
		}
	}
	camera.Tracef("tracker: %d detections, %d live tracks, %d tracked objects",
		len(frame.DetectedObjects), len(t.tracks), len(frame.TrackedObjects))
	return nil
}

func (t *Tracker) spawn(det *camera.Object) *track {
	return &track{
		id:    fmt.Sprintf("trk_%s", uuid.NewString()),
		state: stateTentative,
		hits:  1,
		kf: newKalmanState(det.Center.X, det.Center.Z,
			t.cfg.MeasurementNoise, t.cfg.ProcessNoiseVel),
		lastBBox: det.BBox,
		lastObj:  det,
	}
}

func distSq(det *camera.Object, tr *track) float64 {
	dx := det.Center.X - tr.kf.X
	dz := det.Center.Z - tr.kf.Z
	return dx*dx + dz*dz
}

// iou computes intersection over union of two image boxes.
func iou(a, b camera.BBox2D) float64 {
	ix := math.Min(a.Xmax, b.Xmax) - math.Max(a.Xmin, b.Xmin)
	iy := math.Min(a.Ymax, b.Ymax) - math.Max(a.Ymin, b.Ymin)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := a.Width()*a.Height() + b.Width()*b.Height() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
