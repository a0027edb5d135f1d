// Package press tracks which keys and modifiers are currently held down.
//
// A Tracker is fed raw press and release events and exposes the live chord
// to the matching engine. It is not safe for concurrent use; the engine
// serialises access to it.
package press

import (
	"slices"

	"github.com/dshills/keybind/internal/input/key"
)

// Tracker holds the live press state.
type Tracker struct {
	// keys holds the pressed non-modifier keys in insertion order.
	keys []key.Value

	// mods holds the pressed modifiers.
	mods key.Modifier
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		keys: make([]key.Value, 0, 4),
	}
}

// Down records a key-down event.
//
// It returns the resolved key and true when the event was a known
// non-modifier key and matching should run. Modifier presses, composition
// events and unknown keys return false.
func (t *Tracker) Down(e *key.Event) (key.Value, bool) {
	if e == nil || e.Composing {
		return key.None, false
	}

	v, mod := e.Resolve()
	if mod != key.ModNone {
		t.mods = t.mods.With(mod)
		return key.None, false
	}
	if v == key.None {
		return key.None, false
	}

	if e.ModifierState {
		t.mods = e.Modifiers
	}
	if !slices.Contains(t.keys, v) {
		t.keys = append(t.keys, v)
	}
	return v, true
}

// Up records a key-up event. Callers that evaluate release listeners must
// do so before calling Up so the released key is still part of the chord.
func (t *Tracker) Up(e *key.Event) {
	if e == nil || e.Composing {
		return
	}

	v, mod := e.Resolve()
	if mod != key.ModNone {
		t.mods = t.mods.Without(mod)
		return
	}
	if v == key.None {
		return
	}
	if i := slices.Index(t.keys, v); i >= 0 {
		t.keys = slices.Delete(t.keys, i, i+1)
	}
	if e.ModifierState {
		t.mods = e.Modifiers
	}
}

// Reset clears all pressed keys and modifiers.
// Hosts call it on focus loss so no key is left stuck.
func (t *Tracker) Reset() {
	t.keys = t.keys[:0]
	t.mods = key.ModNone
}

// Modifiers returns the pressed modifiers.
func (t *Tracker) Modifiers() key.Modifier {
	return t.mods
}

// Keys returns a copy of the pressed keys in insertion order.
func (t *Tracker) Keys() []key.Value {
	return slices.Clone(t.keys)
}

// Pressed reports whether v is held.
func (t *Tracker) Pressed(v key.Value) bool {
	return slices.Contains(t.keys, v)
}

// Empty reports whether nothing is held.
func (t *Tracker) Empty() bool {
	return len(t.keys) == 0 && t.mods == key.ModNone
}

// Numeric returns the most recently pressed key that parses as a base-10
// integer.
func (t *Tracker) Numeric() (int, bool) {
	for i := len(t.keys) - 1; i >= 0; i-- {
		if n, ok := t.keys[i].Int(); ok {
			return n, true
		}
	}
	return 0, false
}

// Matches reports whether seq is satisfied by the current chord on the given
// platform. The wildcard sequence always matches.
func (t *Tracker) Matches(seq key.Sequence, platform key.Platform) bool {
	if seq.IsAny() {
		return true
	}
	if !seq.Platform.Allows(platform) {
		return false
	}
	if seq.Modifiers != t.mods {
		return false
	}
	if seq.Key == key.Num {
		_, ok := t.Numeric()
		return ok
	}
	return t.Pressed(seq.Key)
}
