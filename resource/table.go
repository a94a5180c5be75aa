package resource

import (
	"sync"
	"sync/atomic"
)

// Registry holds script-side resources under never-reused handles.
// Lookups are lock-free with respect to observers: the observer list is
// swapped as a whole on Subscribe, and notifications run outside every
// lock so an observer may call back into the registry.
type Registry struct {
	backend   Backend
	observers atomic.Pointer[[]Observer]
	subMu     sync.Mutex
	closed    atomic.Bool
}

var (
	_ Table   = (*Registry)(nil)
	_ Backend = (*LocalBackend)(nil)
)

// NewRegistry creates a registry backed by an in-memory LocalBackend.
func NewRegistry() *Registry {
	return NewRegistryWithBackend(NewLocalBackend())
}

// NewRegistryWithBackend creates a registry over an arbitrary backend.
func NewRegistryWithBackend(b Backend) *Registry {
	r := &Registry{backend: b}
	r.observers.Store(&[]Observer{})
	return r
}

// Insert stores value and returns its handle. It returns 0 once the
// registry is closed.
func (r *Registry) Insert(typeID TypeID, value any) Handle {
	if r.closed.Load() {
		return 0
	}
	h, err := r.backend.Create(typeID, value)
	if err != nil {
		return 0
	}
	r.notify(Event{Type: EventCreated, Handle: h, TypeID: typeID, Value: value})
	return h
}

// Get resolves a handle regardless of its type tag.
func (r *Registry) Get(h Handle) (any, bool) {
	return r.backend.Get(h)
}

// GetTyped resolves a handle only when it carries the expected type tag.
func (r *Registry) GetTyped(h Handle, typeID TypeID) (any, bool) {
	if got, ok := r.backend.TypeID(h); !ok || got != typeID {
		return nil, false
	}
	return r.backend.Get(h)
}

// Remove drops the entry for h. Removing an unknown or already removed
// handle reports false and has no effect.
func (r *Registry) Remove(h Handle) (any, bool) {
	typeID, _ := r.backend.TypeID(h)
	value, ok := r.backend.Drop(h)
	if !ok {
		return nil, false
	}
	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	r.notify(Event{Type: EventDropped, Handle: h, TypeID: typeID, Value: value})
	return value, true
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	cur := *r.observers.Load()
	next := make([]Observer, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, o)
	r.observers.Store(&next)
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return r.backend.Len()
}

// Clear drops every live entry, notifying observers for each.
func (r *Registry) Clear() {
	r.each(func(h Handle) { r.Remove(h) })
}

// Close stops new inserts, drops the remaining entries with notification
// and releases the backend. Calling Close twice is a no-op.
func (r *Registry) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.Clear()
	return r.backend.Close()
}

func (r *Registry) each(fn func(Handle)) {
	r.backend.Each(func(h Handle, _ TypeID, _ any) bool {
		fn(h)
		return true
	})
}

func (r *Registry) notify(e Event) {
	for _, o := range *r.observers.Load() {
		o.OnResourceEvent(e)
	}
}
