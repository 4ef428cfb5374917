package registry

import (
	"sync"
	"sync/atomic"
)

// InitGuard makes a resource's own initializer run to completion at most once.
// A second call after a successful one returns without touching state; a
// failed call leaves the guard open so the next call may retry.
//
// The zero value is ready to use. An InitGuard must not be copied after first use.
type InitGuard struct {
	mu   sync.Mutex
	done atomic.Bool
}

// Do runs fn unless an earlier call already succeeded.
// ran reports whether fn was invoked by this call.
func (g *InitGuard) Do(fn func() error) (ran bool, err error) {
	if g.done.Load() {
		return false, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done.Load() {
		return false, nil
	}
	if err := fn(); err != nil {
		return true, err
	}
	g.done.Store(true)
	return true, nil
}

// Initialized reports whether a call to Do has succeeded.
func (g *InitGuard) Initialized() bool {
	return g.done.Load()
}
