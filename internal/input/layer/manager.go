// Package layer tracks named, independently toggleable listener groups.
//
// A layer is enabled from the moment its name is first seen. The manager
// remembers every name it has seen so that Set can disable everything that
// was not named.
package layer

import (
	"slices"
	"sync"
)

// Manager holds the enabled state of every known layer.
type Manager struct {
	mu      sync.RWMutex
	enabled map[string]bool
	order   []string // Known names in first-seen order
}

// NewManager creates an empty layer manager.
func NewManager() *Manager {
	return &Manager{
		enabled: make(map[string]bool),
		order:   make([]string, 0),
	}
}

// Register makes names known. Names seen for the first time get the given
// state; names already known keep theirs. It returns the names that were new.
func (m *Manager) Register(enabled bool, names ...string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var added []string
	for _, n := range names {
		if m.seeLocked(n, enabled) {
			added = append(added, n)
		}
	}
	return added
}

// Enable enables the given layers, registering unknown names.
func (m *Manager) Enable(names ...string) {
	m.setEach(names, true)
}

// Disable disables the given layers, registering unknown names.
func (m *Manager) Disable(names ...string) {
	m.setEach(names, false)
}

// Toggle flips the given layers as a group: when every one of them is
// enabled they are all disabled, otherwise they are all enabled.
// It returns the new state.
func (m *Manager) Toggle(names ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := true
	for _, n := range names {
		if m.seeLocked(n, true) || n == "" {
			continue
		}
		if !m.enabled[n] {
			all = false
		}
	}
	for _, n := range names {
		if n != "" {
			m.enabled[n] = !all
		}
	}
	return !all
}

// Set enables exactly the given layers and disables every other known layer.
func (m *Manager) Set(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range names {
		m.seeLocked(n, true)
	}
	for _, n := range m.order {
		m.enabled[n] = slices.Contains(names, n)
	}
}

// All enables every known layer.
func (m *Manager) All() {
	m.setAll(true)
}

// None disables every known layer.
func (m *Manager) None() {
	m.setAll(false)
}

// IsEnabled reports whether a layer is enabled. Unknown layers are enabled.
func (m *Manager) IsEnabled(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	enabled, ok := m.enabled[name]
	return !ok || enabled
}

// AnyEnabled reports whether at least one of names is enabled.
// An empty list is never restricted and reports true.
func (m *Manager) AnyEnabled(names []string) bool {
	if len(names) == 0 {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, n := range names {
		if enabled, ok := m.enabled[n]; !ok || enabled {
			return true
		}
	}
	return false
}

// Enabled returns the enabled layers in first-seen order.
func (m *Manager) Enabled() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, 0, len(m.order))
	for _, n := range m.order {
		if m.enabled[n] {
			result = append(result, n)
		}
	}
	return result
}

// Known returns every layer name ever seen, in first-seen order.
func (m *Manager) Known() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.order)
}

// States returns a copy of the enabled map.
func (m *Manager) States() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]bool, len(m.enabled))
	for n, enabled := range m.enabled {
		result[n] = enabled
	}
	return result
}

// Reset forgets every layer.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.enabled)
	m.order = m.order[:0]
}

func (m *Manager) setEach(names []string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range names {
		if n == "" {
			continue
		}
		m.seeLocked(n, enabled)
		m.enabled[n] = enabled
	}
}

func (m *Manager) setAll(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.order {
		m.enabled[n] = enabled
	}
}

// seeLocked records a name the first time it appears.
// It reports whether the name was new.
func (m *Manager) seeLocked(name string, enabled bool) bool {
	if name == "" {
		return false
	}
	if _, ok := m.enabled[name]; ok {
		return false
	}
	m.enabled[name] = enabled
	m.order = append(m.order, name)
	return true
}
