package camera

import (
	"io"
	"log"
	"sync"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// logStream is one named output stream. A stream with no writer installed
// drops everything sent to it.
type logStream struct {
	mu sync.RWMutex
	l  *log.Logger
}

func (s *logStream) set(prefix string, w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w == nil {
		s.l = nil
		return
	}
	s.l = log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

func (s *logStream) printf(format string, args ...any) {
	s.mu.RLock()
	l := s.l
	s.mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

var opsStream, diagStream, traceStream logStream

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	opsStream.set("[camera/ops] ", w.Ops)
	diagStream.set("[camera/diag] ", w.Diag)
	traceStream.set("[camera/trace] ", w.Trace)
}

// Opsf logs to the ops stream (actionable warnings, errors, lifecycle events).
func Opsf(format string, args ...any) {
	opsStream.printf(format, args...)
}

// Diagf logs to the diag stream (day-to-day diagnostics, tuning context).
func Diagf(format string, args ...any) {
	diagStream.printf(format, args...)
}

// Tracef logs to the trace stream (high-frequency per-frame telemetry).
func Tracef(format string, args ...any) {
	traceStream.printf(format, args...)
}
