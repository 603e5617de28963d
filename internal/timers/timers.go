// Package timers is a registry of named cancellable timers. Presentation
// backstop timers (elimination execution, animation delays) register
// here so an intervention or session teardown can cancel them by name
// or prefix.
package timers

import (
	"sync"
	"time"
)

type Registry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewRegistry() *Registry {
	return &Registry{timers: make(map[string]*time.Timer)}
}

// Register schedules fn after d under the given name, replacing and
// cancelling any timer already registered under that name. The entry is
// removed from the registry before fn runs.
func (r *Registry) Register(name string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[name]; ok {
		t.Stop()
	}
	r.timers[name] = time.AfterFunc(d, func() {
		r.mu.Lock()
		delete(r.timers, name)
		r.mu.Unlock()
		fn()
	})
}

// Cancel stops the named timer. It reports whether a timer was found.
func (r *Registry) Cancel(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.timers[name]
	if !ok {
		return false
	}
	t.Stop()
	delete(r.timers, name)
	return true
}

// CancelByPrefix stops every timer whose name starts with the prefix
// and returns how many were cancelled.
func (r *Registry) CancelByPrefix(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for name, t := range r.timers {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			t.Stop()
			delete(r.timers, name)
			n++
		}
	}
	return n
}

// CancelAll stops every registered timer.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, t := range r.timers {
		t.Stop()
		delete(r.timers, name)
	}
}

// Len returns the number of pending timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
