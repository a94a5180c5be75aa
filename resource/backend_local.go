package resource

import (
	"errors"
	"sort"
	"sync"
)

var ErrClosed = errors.New("resource backend closed")

// LocalBackend is an in-memory resource backend.
// Handles come from a monotonic counter and are never recycled.
type LocalBackend struct {
	entries map[Handle]entry
	next    Handle
	mu      sync.RWMutex
	closed  bool
}

type entry struct {
	value  any
	typeID TypeID
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries: make(map[Handle]entry, 64),
	}
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(typeID TypeID, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	b.next++
	handle := b.next
	b.entries[handle] = entry{
		typeID: typeID,
		value:  value,
	}
	return handle, nil
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	if handle == 0 {
		return nil, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[handle]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// TypeID returns the type ID for a handle.
func (b *LocalBackend) TypeID(handle Handle) (TypeID, bool) {
	if handle == 0 {
		return 0, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[handle]
	if !ok {
		return 0, false
	}
	return e.typeID, true
}

// Drop removes a resource and returns (value, true) if destructor should be called.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	if handle == 0 {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[handle]
	if !ok {
		return nil, false
	}
	delete(b.entries, handle)
	return e.value, true
}

// Close releases all resources.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for h, e := range b.entries {
		if d, ok := e.value.(Dropper); ok {
			d.Drop()
		}
		delete(b.entries, h)
	}
	return nil
}

// Len returns the number of active resources.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Each iterates over all active resources in handle order.
// It works on a snapshot, so fn may call back into the backend.
func (b *LocalBackend) Each(fn func(Handle, TypeID, any) bool) {
	type item struct {
		entry
		handle Handle
	}

	b.mu.RLock()
	items := make([]item, 0, len(b.entries))
	for h, e := range b.entries {
		items = append(items, item{entry: e, handle: h})
	}
	b.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].handle < items[j].handle })
	for _, it := range items {
		if !fn(it.handle, it.typeID, it.value) {
			break
		}
	}
}
