// Package device owns accelerator device selection. Selecting a device is a
// process/thread-affinity side effect: it establishes which accelerator
// context subsequent stage calls use, so the pipeline sets it before Init
// constructs any stage and again at the start of every frame.
//
// The default binding just records the active id. Deployments with a real
// accelerator runtime install their own binding at startup via SetBinding.
package device

import (
	"sync"
)

// Binding applies a device selection to the underlying runtime.
type Binding func(id int) error

var (
	mu       sync.Mutex
	binding  Binding
	activeID = -1
)

// SetBinding installs the runtime binding invoked on every Select call.
// Pass nil to restore the default record-only behaviour.
func SetBinding(b Binding) {
	mu.Lock()
	defer mu.Unlock()
	binding = b
}

// Select makes the given device the active one. It is idempotent: selecting
// the already-active device still invokes the binding, acting as a safety
// net for callers that may run on a different thread.
func Select(id int) error {
	mu.Lock()
	b := binding
	mu.Unlock()
	if b != nil {
		if err := b(id); err != nil {
			return err
		}
	}
	mu.Lock()
	activeID = id
	mu.Unlock()
	return nil
}

// Active returns the most recently selected device id, or -1 when none has
// been selected.
func Active() int {
	mu.Lock()
	defer mu.Unlock()
	return activeID
}
