// Package terminal adapts a tcell screen to the keybind engine.
//
// Terminals report a key press as a single event carrying its modifier
// flags, with no separate modifier presses and no releases. The host
// therefore marks every event's modifiers as authoritative and follows each
// key-down with a synthetic key-up. Focus-out events become blurs.
package terminal

import (
	"context"
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keybind/internal/input"
	"github.com/dshills/keybind/internal/input/key"
)

// Host delivers tcell key events to subscribed engines.
type Host struct {
	screen tcell.Screen

	mu     sync.Mutex
	sinks  []*subscriber
	active key.Element
}

type subscriber struct {
	sink input.Sink
}

// New creates a host over screen. The screen must already be initialised.
// A nil screen makes Subscribe fail with input.ErrHostUnavailable, so an
// engine can run without a terminal attached.
func New(screen tcell.Screen) *Host {
	return &Host{screen: screen}
}

// Subscribe implements input.Host.
func (h *Host) Subscribe(sink input.Sink) (func(), error) {
	if h.screen == nil {
		return nil, input.ErrHostUnavailable
	}

	h.mu.Lock()
	defer h.mu.Unlock()

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

// ActiveElement implements input.Host.
func (h *Host) ActiveElement() key.Element {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Focus sets the element reported as focused. Terminal applications use it
// to tell the engine which of their widgets has focus.
func (h *Host) Focus(el key.Element) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = el
}

// Run polls the screen and dispatches events until ctx is done or the
// screen is finalised. Events the engine does not handle are passed to
// other, if non-nil.
func (h *Host) Run(ctx context.Context, other func(tcell.Event)) error {
	if h.screen == nil {
		return input.ErrHostUnavailable
	}

	stop := context.AfterFunc(ctx, func() {
		_ = h.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !h.HandleEvent(ev) && other != nil {
			other(ev)
		}
	}
}

// HandleEvent dispatches a tcell event and reports whether it was a key or
// focus event. Applications that own their event loop call it directly.
func (h *Host) HandleEvent(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		down := Convert(e)
		if down == nil {
			return true
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
		return true

	case *tcell.EventFocus:
		if !e.Focused {
			for _, s := range h.snapshot() {
				s.Blur()
			}
		}
		return true
	}
	return false
}

func (h *Host) snapshot() []input.Sink {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]input.Sink, len(h.sinks))
	for i, s := range h.sinks {
		result[i] = s.sink
	}
	return result
}

// Convert maps a tcell key event to an engine event with authoritative
// modifiers. It returns nil for keys outside the vocabulary.
func Convert(ev *tcell.EventKey) *key.Event {
	raw, mods := convertKey(ev.Key(), ev.Rune())
	if raw == "" {
		return nil
	}
	mods = mods.With(convertMod(ev.Modifiers()))

	out := key.NewEvent(raw).WithModifiers(mods)
	out.Timestamp = ev.When()
	return out
}

// convertKey converts a tcell key to a raw key identity plus any modifier
// the key itself implies.
func convertKey(k tcell.Key, r rune) (string, key.Modifier) {
	switch k {
	case tcell.KeyRune:
		return key.FromRune(r)
	case tcell.KeyEscape:
		return "Escape", key.ModNone
	case tcell.KeyEnter:
		return "Enter", key.ModNone
	case tcell.KeyTab:
		return "Tab", key.ModNone
	case tcell.KeyBacktab:
		return "Tab", key.ModShift
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "Backspace", key.ModNone
	case tcell.KeyDelete:
		return "Delete", key.ModNone
	case tcell.KeyInsert:
		return "Insert", key.ModNone
	case tcell.KeyHome:
		return "Home", key.ModNone
	case tcell.KeyEnd:
		return "End", key.ModNone
	case tcell.KeyPgUp:
		return "PageUp", key.ModNone
	case tcell.KeyPgDn:
		return "PageDown", key.ModNone
	case tcell.KeyUp:
		return "ArrowUp", key.ModNone
	case tcell.KeyDown:
		return "ArrowDown", key.ModNone
	case tcell.KeyLeft:
		return "ArrowLeft", key.ModNone
	case tcell.KeyRight:
		return "ArrowRight", key.ModNone
	case tcell.KeyPause:
		return "Pause", key.ModNone
	case tcell.KeyPrint:
		return "PrintScreen", key.ModNone
	case tcell.KeyF1:
		return "F1", key.ModNone
	case tcell.KeyF2:
		return "F2", key.ModNone
	case tcell.KeyF3:
		return "F3", key.ModNone
	case tcell.KeyF4:
		return "F4", key.ModNone
	case tcell.KeyF5:
		return "F5", key.ModNone
	case tcell.KeyF6:
		return "F6", key.ModNone
	case tcell.KeyF7:
		return "F7", key.ModNone
	case tcell.KeyF8:
		return "F8", key.ModNone
	case tcell.KeyF9:
		return "F9", key.ModNone
	case tcell.KeyF10:
		return "F10", key.ModNone
	case tcell.KeyF11:
		return "F11", key.ModNone
	case tcell.KeyF12:
		return "F12", key.ModNone
	case tcell.KeyCtrlSpace:
		return " ", key.ModCtrl
	}

	// Remaining control codes are Ctrl+letter.
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return string(rune('a' + int(k-tcell.KeyCtrlA))), key.ModCtrl
	}
	return "", key.ModNone
}

// convertMod converts tcell modifiers.
func convertMod(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModMeta)
	}
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	return mods
}
