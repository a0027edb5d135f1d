// Package bubble connects the keybind engine to Bubble Tea programs.
//
// A Bubble Tea model forwards its messages to Host.Update. Key messages are
// delivered to subscribed engines as a press followed by a synthetic
// release, with authoritative modifiers, the same way the terminal host
// does. Blur messages (tea.WithReportFocus) reset press state.
package bubble

import (
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dshills/keybind/internal/input"
	"github.com/dshills/keybind/internal/input/key"
)

// Host is an input.Host fed by Bubble Tea messages.
type Host struct {
	mu     sync.Mutex
	sinks  []*sinkRef
	active key.Element
}

type sinkRef struct {
	sink input.Sink
}

// NewHost creates an empty host.
func NewHost() *Host {
	return &Host{}
}

// Subscribe implements input.Host.
func (h *Host) Subscribe(sink input.Sink) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ref := &sinkRef{sink: sink}
	h.sinks = append(h.sinks, ref)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.sinks = slices.DeleteFunc(h.sinks, func(r *sinkRef) bool { return r == ref })
		})
	}, nil
}

// ActiveElement implements input.Host.
func (h *Host) ActiveElement() key.Element {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Focus sets the element reported as focused.
func (h *Host) Focus(el key.Element) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = el
}

// Update delivers msg to the subscribed engines. It returns the dispatched
// press event for key messages, so callers can inspect DefaultPrevented,
// and nil for anything else.
func (h *Host) Update(msg tea.Msg) *key.Event {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		down := Convert(msg)
		if down == nil {
			return nil
		}
		down.Target = h.ActiveElement()
		up := &key.Event{
			Key:           down.Key,
			Modifiers:     down.Modifiers,
			ModifierState: true,
			Target:        down.Target,
			Timestamp:     down.Timestamp,
		}
		for _, s := range h.snapshot() {
			s.KeyDown(down)
			s.KeyUp(up)
			if down.ImmediatePropagationStopped() {
				break
			}
		}
		return down

	case tea.BlurMsg:
		for _, s := range h.snapshot() {
			s.Blur()
		}
	}
	return nil
}

func (h *Host) snapshot() []input.Sink {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]input.Sink, len(h.sinks))
	for i, r := range h.sinks {
		result[i] = r.sink
	}
	return result
}

// Convert maps a Bubble Tea key message to an engine event. Pastes,
// multi-rune input and keys outside the vocabulary return nil.
func Convert(msg tea.KeyMsg) *key.Event {
	if msg.Paste {
		return nil
	}

	raw, mods := convertType(msg.Type, msg.Runes)
	if raw == "" {
		return nil
	}
	if msg.Alt {
		mods = mods.With(key.ModAlt)
	}
	return key.NewEvent(raw).WithModifiers(mods)
}

func convertType(t tea.KeyType, runes []rune) (string, key.Modifier) {
	switch t {
	case tea.KeyRunes:
		if len(runes) != 1 {
			return "", key.ModNone
		}
		return key.FromRune(runes[0])
	case tea.KeySpace:
		return " ", key.ModNone
	case tea.KeyEnter:
		return "Enter", key.ModNone
	case tea.KeyTab:
		return "Tab", key.ModNone
	case tea.KeyShiftTab:
		return "Tab", key.ModShift
	case tea.KeyBackspace:
		return "Backspace", key.ModNone
	case tea.KeyEsc:
		return "Escape", key.ModNone
	case tea.KeyDelete:
		return "Delete", key.ModNone
	case tea.KeyInsert:
		return "Insert", key.ModNone
	case tea.KeyHome:
		return "Home", key.ModNone
	case tea.KeyEnd:
		return "End", key.ModNone
	case tea.KeyPgUp:
		return "PageUp", key.ModNone
	case tea.KeyPgDown:
		return "PageDown", key.ModNone
	case tea.KeyCtrlPgUp:
		return "PageUp", key.ModCtrl
	case tea.KeyCtrlPgDown:
		return "PageDown", key.ModCtrl
	case tea.KeyCtrlHome:
		return "Home", key.ModCtrl
	case tea.KeyCtrlEnd:
		return "End", key.ModCtrl
	case tea.KeyShiftHome:
		return "Home", key.ModShift
	case tea.KeyShiftEnd:
		return "End", key.ModShift
	case tea.KeyCtrlAt:
		return " ", key.ModCtrl
	}

	if raw, mods, ok := convertArrow(t); ok {
		return raw, mods
	}
	if raw, ok := functionKeys[t]; ok {
		return raw, key.ModNone
	}
	if t >= tea.KeyCtrlA && t <= tea.KeyCtrlZ {
		return string(rune('a' + int(t-tea.KeyCtrlA))), key.ModCtrl
	}
	return "", key.ModNone
}

func convertArrow(t tea.KeyType) (string, key.Modifier, bool) {
	switch t {
	case tea.KeyUp:
		return "ArrowUp", key.ModNone, true
	case tea.KeyDown:
		return "ArrowDown", key.ModNone, true
	case tea.KeyLeft:
		return "ArrowLeft", key.ModNone, true
	case tea.KeyRight:
		return "ArrowRight", key.ModNone, true
	case tea.KeyShiftUp:
		return "ArrowUp", key.ModShift, true
	case tea.KeyShiftDown:
		return "ArrowDown", key.ModShift, true
	case tea.KeyShiftLeft:
		return "ArrowLeft", key.ModShift, true
	case tea.KeyShiftRight:
		return "ArrowRight", key.ModShift, true
	case tea.KeyCtrlUp:
		return "ArrowUp", key.ModCtrl, true
	case tea.KeyCtrlDown:
		return "ArrowDown", key.ModCtrl, true
	case tea.KeyCtrlLeft:
		return "ArrowLeft", key.ModCtrl, true
	case tea.KeyCtrlRight:
		return "ArrowRight", key.ModCtrl, true
	case tea.KeyCtrlShiftUp:
		return "ArrowUp", key.ModCtrl | key.ModShift, true
	case tea.KeyCtrlShiftDown:
		return "ArrowDown", key.ModCtrl | key.ModShift, true
	case tea.KeyCtrlShiftLeft:
		return "ArrowLeft", key.ModCtrl | key.ModShift, true
	case tea.KeyCtrlShiftRight:
		return "ArrowRight", key.ModCtrl | key.ModShift, true
	}
	return "", key.ModNone, false
}

var functionKeys = map[tea.KeyType]string{
	tea.KeyF1:  "F1",
	tea.KeyF2:  "F2",
	tea.KeyF3:  "F3",
	tea.KeyF4:  "F4",
	tea.KeyF5:  "F5",
	tea.KeyF6:  "F6",
	tea.KeyF7:  "F7",
	tea.KeyF8:  "F8",
	tea.KeyF9:  "F9",
	tea.KeyF10: "F10",
	tea.KeyF11: "F11",
	tea.KeyF12: "F12",
}
