package key

import (
	"sync/atomic"
	"time"
)

// Element is an opaque focusable target supplied by the host.
// Elements are compared with ==, so hosts should use pointers or other
// comparable values.
type Element any

// Propagation is the stop-propagation policy applied to a host event.
type Propagation uint8

const (
	// PropagateAll leaves propagation untouched.
	PropagateAll Propagation = iota

	// StopLocal stops propagation to ancestors but lets sibling
	// listeners on the same target run.
	StopLocal

	// StopImmediate stops propagation to ancestors and siblings.
	StopImmediate
)

// String returns the policy name used in keymap files.
func (p Propagation) String() string {
	switch p {
	case StopLocal:
		return "local"
	case StopImmediate:
		return "immediate"
	default:
		return "none"
	}
}

// ParsePropagation parses a policy name. The empty string is PropagateAll.
func ParsePropagation(s string) (Propagation, bool) {
	switch s {
	case "", "none":
		return PropagateAll, true
	case "local":
		return StopLocal, true
	case "immediate", "all":
		return StopImmediate, true
	}
	return PropagateAll, false
}

// Event is a raw key press or release delivered by the host.
//
// The engine reports its decisions back through PreventDefault and the
// StopPropagation methods; hosts read them after dispatch. The decision
// methods are safe for concurrent use, since async gates fire off the
// host's goroutine.
type Event struct {
	// Key is the raw key identity, e.g. "a", "ArrowUp", "Control", " ".
	Key string

	// Modifiers contains the modifier flags reported with the event.
	Modifiers Modifier

	// ModifierState marks Modifiers as authoritative. Hosts that never
	// report modifier presses on their own (terminals) set it so the
	// tracker takes the modifier set from the event.
	ModifierState bool

	// Composing is true while an input method composition is in progress.
	Composing bool

	// Target is the element the event was delivered to.
	Target Element

	// Timestamp is when the event occurred.
	Timestamp time.Time

	defaultPrevented atomic.Bool
	propagation      atomic.Uint32
}

// NewEvent creates a raw event for the given key with the current timestamp.
func NewEvent(raw string) *Event {
	return &Event{
		Key:       raw,
		Timestamp: time.Now(),
	}
}

// WithModifiers returns e with authoritative modifier flags.
func (e *Event) WithModifiers(mods Modifier) *Event {
	e.Modifiers = mods
	e.ModifierState = true
	return e
}

// Resolve maps the raw key identity to a key value or a modifier.
func (e *Event) Resolve() (Value, Modifier) {
	return FromRaw(e.Key)
}

// PreventDefault asks the host to suppress its default action.
func (e *Event) PreventDefault() {
	e.defaultPrevented.Store(true)
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented.Load()
}

// StopPropagation stops the event from reaching ancestor targets.
func (e *Event) StopPropagation() {
	e.raise(StopLocal)
}

// StopImmediatePropagation stops the event from reaching ancestors and
// any later listener on the same target.
func (e *Event) StopImmediatePropagation() {
	e.raise(StopImmediate)
}

// raise moves the policy up to p; a policy is never lowered.
func (e *Event) raise(p Propagation) {
	for {
		cur := e.propagation.Load()
		if cur >= uint32(p) || e.propagation.CompareAndSwap(cur, uint32(p)) {
			return
		}
	}
}

// Propagation returns the strongest policy requested so far.
func (e *Event) Propagation() Propagation {
	return Propagation(e.propagation.Load())
}

// PropagationStopped reports whether propagation to ancestors was stopped.
func (e *Event) PropagationStopped() bool {
	return e.Propagation() >= StopLocal
}

// ImmediatePropagationStopped reports whether later listeners on the same
// target must be skipped.
func (e *Event) ImmediatePropagationStopped() bool {
	return e.Propagation() == StopImmediate
}

// Apply requests the given propagation policy on e.
func (e *Event) Apply(p Propagation) {
	switch p {
	case StopLocal:
		e.StopPropagation()
	case StopImmediate:
		e.StopImmediatePropagation()
	}
}
