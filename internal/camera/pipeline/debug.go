package pipeline

import "github.com/meridian-av/perception/internal/camera"

// Package-local logging shims routing to the shared camera streams.
var (
	opsf   = camera.Opsf
	diagf  = camera.Diagf
	tracef = camera.Tracef
)
