// Package virtual provides an in-memory host for driving engines from code.
//
// The host mimics a browser window: any number of engines may subscribe,
// each event is delivered to them in subscription order, and a listener
// that stops immediate propagation keeps the event from later subscribers.
package virtual

import (
	"slices"
	"sync"
	"time"

	"github.com/dshills/keybind/internal/input"
	"github.com/dshills/keybind/internal/input/key"
)

// Kind classifies an element.
type Kind int

const (
	// KindGeneric is a non-editable element.
	KindGeneric Kind = iota
	// KindInput is a single-line text input.
	KindInput
	// KindTextArea is a multi-line text area.
	KindTextArea
	// KindContentEditable is an element marked content-editable.
	KindContentEditable
)

// Element is a focusable element.
type Element struct {
	Name string
	Kind Kind
}

// NewElement creates a focusable element.
func NewElement(name string, kind Kind) *Element {
	return &Element{Name: name, Kind: kind}
}

// Editable reports whether the element accepts text input.
func (el *Element) Editable() bool {
	switch el.Kind {
	case KindInput, KindTextArea, KindContentEditable:
		return true
	}
	return false
}

// String returns the element name.
func (el *Element) String() string {
	return el.Name
}

// Host is a scriptable event source.
type Host struct {
	mu          sync.Mutex
	sinks       []*subscriber
	active      key.Element
	mods        key.Modifier
	unavailable bool
	now         func() time.Time
}

type subscriber struct {
	sink input.Sink
}

// New creates a host with nothing focused.
func New() *Host {
	return &Host{now: time.Now}
}

// SetUnavailable makes Subscribe fail with input.ErrHostUnavailable.
func (h *Host) SetUnavailable(unavailable bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unavailable = unavailable
}

// Subscribe implements input.Host.
func (h *Host) Subscribe(sink input.Sink) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unavailable {
		return nil, input.ErrHostUnavailable
	}

	sub := &subscriber{sink: sink}
	h.sinks = append(h.sinks, sub)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.sinks = slices.DeleteFunc(h.sinks, func(s *subscriber) bool {
				return s == sub
			})
		})
	}, nil
}

// Subscribers returns the number of subscribed sinks.
func (h *Host) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sinks)
}

// ActiveElement implements input.Host.
func (h *Host) ActiveElement() key.Element {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Focus moves focus to el. A nil element clears focus.
func (h *Host) Focus(el key.Element) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = el
}

// Press delivers a key-down for a raw key identity such as "a",
// "Control" or "ArrowUp", and returns the dispatched event.
func (h *Host) Press(raw string) *key.Event {
	return h.dispatch(raw, false, false)
}

// Release delivers a key-up.
func (h *Host) Release(raw string) *key.Event {
	return h.dispatch(raw, true, false)
}

// Compose delivers a key-down flagged as part of an input method
// composition.
func (h *Host) Compose(raw string) *key.Event {
	return h.dispatch(raw, false, true)
}

// Tap presses and releases a key and returns the key-down event.
func (h *Host) Tap(raw string) *key.Event {
	ev := h.Press(raw)
	h.Release(raw)
	return ev
}

// Chord presses raws in order, then releases them in reverse order.
// It returns the key-down event of the last key.
func (h *Host) Chord(raws ...string) *key.Event {
	var last *key.Event
	for _, raw := range raws {
		last = h.Press(raw)
	}
	for i := len(raws) - 1; i >= 0; i-- {
		h.Release(raws[i])
	}
	return last
}

// Blur delivers a focus-loss event.
func (h *Host) Blur() {
	h.mu.Lock()
	h.mods = key.ModNone
	sinks := h.snapshot()
	h.mu.Unlock()

	for _, s := range sinks {
		s.Blur()
	}
}

// Dispatch delivers a prepared event. Target defaults to the focused
// element.
func (h *Host) Dispatch(ev *key.Event, up bool) {
	h.mu.Lock()
	if ev.Target == nil {
		ev.Target = h.active
	}
	sinks := h.snapshot()
	h.mu.Unlock()

	for _, s := range sinks {
		if up {
			s.KeyUp(ev)
		} else {
			s.KeyDown(ev)
		}
		if ev.ImmediatePropagationStopped() {
			break
		}
	}
}

func (h *Host) dispatch(raw string, up, composing bool) *key.Event {
	h.mu.Lock()
	_, mod := key.FromRaw(raw)
	if mod != key.ModNone && !composing {
		if up {
			h.mods = h.mods.Without(mod)
		} else {
			h.mods = h.mods.With(mod)
		}
	}
	ev := &key.Event{
		Key:       raw,
		Modifiers: h.mods,
		Composing: composing,
		Target:    h.active,
		Timestamp: h.now(),
	}
	h.mu.Unlock()

	h.Dispatch(ev, up)
	return ev
}

func (h *Host) snapshot() []input.Sink {
	result := make([]input.Sink, len(h.sinks))
	for i, s := range h.sinks {
		result[i] = s.sink
	}
	return result
}
