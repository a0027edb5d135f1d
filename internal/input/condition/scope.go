package condition

import (
	"maps"
	"sync"
)

// Scope holds application variables visible to conditions, such as the
// current mode. It is safe for concurrent use.
type Scope struct {
	mu   sync.RWMutex
	vars map[string]any
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{
		vars: make(map[string]any),
	}
}

// Set sets a variable.
func (s *Scope) Set(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = value
}

// Delete removes a variable.
func (s *Scope) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vars, name)
}

// Get returns a variable.
func (s *Scope) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// Snapshot returns a copy of all variables. A nil Scope yields an empty map.
func (s *Scope) Snapshot() map[string]any {
	if s == nil {
		return make(map[string]any)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.vars)
}
