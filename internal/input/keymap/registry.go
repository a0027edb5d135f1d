package keymap

import (
	"slices"

	"github.com/google/uuid"
)

// Registry holds listeners in registration order.
//
// Registry is not safe for concurrent use; the engine guards it with its
// own lock so that matching and removal happen atomically.
type Registry struct {
	entries []*entry
}

type entry struct {
	listener Listener

	// detach stops the cancellation observer, if any.
	detach func() bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]*entry, 0),
	}
}

// NewID returns a fresh listener id.
func NewID() string {
	return uuid.NewString()
}

// Add appends l. When l has no ID a fresh one is assigned.
// detach, if non-nil, is called when the listener is removed.
// Add returns the stored listener.
func (r *Registry) Add(l Listener, detach func() bool) Listener {
	if l.ID == "" {
		l.ID = NewID()
	}
	r.entries = append(r.entries, &entry{listener: l, detach: detach})
	return l
}

// SetDetach replaces the cancellation observer of a registered listener.
func (r *Registry) SetDetach(id string, detach func() bool) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.entries[i].detach = detach
	return true
}

// Remove deletes the listener with the given id and tears down its
// cancellation observer. It reports whether a listener was removed.
func (r *Registry) Remove(id string) (Listener, bool) {
	i := r.index(id)
	if i < 0 {
		return Listener{}, false
	}
	e := r.entries[i]
	r.entries = slices.Delete(r.entries, i, i+1)
	if e.detach != nil {
		e.detach()
	}
	return e.listener, true
}

// Get returns the listener with the given id.
func (r *Registry) Get(id string) (Listener, bool) {
	i := r.index(id)
	if i < 0 {
		return Listener{}, false
	}
	return r.entries[i].listener, true
}

// Contains reports whether a listener with the given id is registered.
func (r *Registry) Contains(id string) bool {
	return r.index(id) >= 0
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Listeners returns a snapshot of the registered listeners in order.
func (r *Registry) Listeners() []Listener {
	result := make([]Listener, len(r.entries))
	for i, e := range r.entries {
		result[i] = e.listener
	}
	return result
}

// Clear removes every listener and tears down every cancellation observer.
// It returns the number of listeners removed.
func (r *Registry) Clear() int {
	n := len(r.entries)
	for _, e := range r.entries {
		if e.detach != nil {
			e.detach()
		}
	}
	clear(r.entries)
	r.entries = r.entries[:0]
	return n
}

func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.entries, func(e *entry) bool {
		return e.listener.ID == id
	})
}
