package classpath

import (
	"sync"
	"weak"
)

// Listener is notified synchronously when classpath contents change.
type Listener interface {
	ClassPathChanged()
}

// Registry is a list of weakly held listeners. A listener that is no longer
// reachable elsewhere is dropped on the next Watch or Notify.
type Registry struct {
	mu      sync.Mutex
	nextID  uint64
	watches []watch
}

type watch struct {
	id   uint64
	live func() bool
	fire func()
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Watch registers p without keeping it alive. The returned cancel func
// removes the registration explicitly.
func Watch[T any, PT interface {
	*T
	Listener
}](r *Registry, p PT) (cancel func()) {
	wp := weak.Make((*T)(p))
	w := watch{
		live: func() bool { return wp.Value() != nil },
		fire: func() {
			if v := wp.Value(); v != nil {
				PT(v).ClassPathChanged()
			}
		},
	}

	r.mu.Lock()
	r.pruneLocked()
	r.nextID++
	w.id = r.nextID
	r.watches = append(r.watches, w)
	r.mu.Unlock()

	return func() { r.remove(w.id) }
}

// Notify calls every live listener in registration order. Listeners run on
// the calling goroutine, outside the registry lock.
func (r *Registry) Notify() {
	r.mu.Lock()
	r.pruneLocked()
	fire := make([]func(), len(r.watches))
	for i, w := range r.watches {
		fire[i] = w.fire
	}
	r.mu.Unlock()

	for _, f := range fire {
		f()
	}
}

// Len returns the number of registrations, dead ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}

func (r *Registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.watches {
		if w.id == id {
			r.watches = append(r.watches[:i], r.watches[i+1:]...)
			return
		}
	}
}

func (r *Registry) pruneLocked() {
	kept := r.watches[:0]
	for _, w := range r.watches {
		if w.live() {
			kept = append(kept, w)
		}
	}
	clear(r.watches[len(kept):])
	r.watches = kept
}
