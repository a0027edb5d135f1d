package input

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
)

// candidate is a listener whose sequences match the current chord.
type candidate struct {
	listener keymap.Listener
	ctx      *keymap.Context
}

// KeyDown processes a raw key press. Hosts call it through the Sink
// interface; it may also be called directly.
func (e *Engine) KeyDown(ev *key.Event) {
	if ev == nil {
		return
	}
	timer := e.metrics.StartTimer()
	defer timer.Stop()
	e.metrics.keyDowns.Add(1)

	active := e.activeElement(ev)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	v, ok := e.tracker.Down(ev)
	if !ok {
		e.logDebug().Str("raw", ev.Key).Bool("composing", ev.Composing).
			Stringer("modifiers", e.tracker.Modifiers()).Msg("press ignored")
		e.mu.Unlock()
		return
	}
	chord := key.Chord(e.tracker.Modifiers(), v)
	cands := e.candidatesLocked(ev, false)
	e.mu.Unlock()

	e.logDebug().Stringer("chord", chord).Int("candidates", len(cands)).Msg("press")

	e.recorders.Publish(chord)
	e.dispatch(cands, ev, active)
}

// KeyUp processes a raw key release. Release listeners are evaluated
// against the chord as it was before the release.
func (e *Engine) KeyUp(ev *key.Event) {
	if ev == nil {
		return
	}
	timer := e.metrics.StartTimer()
	defer timer.Stop()
	e.metrics.keyUps.Add(1)

	active := e.activeElement(ev)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	var cands []candidate
	if !ev.Composing {
		if v, mod := ev.Resolve(); v != key.None || mod != key.ModNone {
			cands = e.candidatesLocked(ev, true)
		}
	}
	e.tracker.Up(ev)
	e.mu.Unlock()

	e.logDebug().Str("raw", ev.Key).Int("candidates", len(cands)).Msg("release")

	e.dispatch(cands, ev, active)
}

// Blur clears the press state so no key stays stuck after focus loss.
func (e *Engine) Blur() {
	e.metrics.blurs.Add(1)

	e.mu.Lock()
	e.tracker.Reset()
	e.mu.Unlock()

	e.logDebug().Msg("blur")
}

// candidatesLocked returns the listeners matching the current chord in
// registration order. Listeners whose signal is done are skipped.
func (e *Engine) candidatesLocked(ev *key.Event, release bool) []candidate {
	var result []candidate
	for _, l := range e.registry.Listeners() {
		if l.Config.OnRelease != release {
			continue
		}
		if sig := l.Config.Signal; sig != nil && sig.Err() != nil {
			continue
		}
		for _, seq := range l.Sequences {
			if !e.tracker.Matches(seq, e.platform) {
				continue
			}
			hc := &keymap.Context{
				Sequence: seq,
				Listener: l,
				Event:    ev,
				Platform: e.platform,
			}
			if seq.Key == key.Num {
				if n, ok := e.tracker.Numeric(); ok {
					hc.Template = &n
				}
			}
			result = append(result, candidate{listener: l, ctx: hc})
			break
		}
	}
	e.metrics.candidates.Add(uint64(len(result)))
	return result
}

// dispatch gates and fires candidates in order. Each candidate is
// independent: a failing gate only skips that candidate.
func (e *Engine) dispatch(cands []candidate, ev *key.Event, active key.Element) {
	for _, c := range cands {
		l := c.listener
		cfg := l.Config

		if cfg.IgnoreIfEditable && active != nil && e.opts.IsEditable(active) {
			e.reject(l, "editable focus")
			continue
		}
		if cfg.RunIfFocused != nil && !focusedOneOf(cfg.RunIfFocused, active) {
			e.reject(l, "focus restriction")
			continue
		}

		if keymap.IsAsync(cfg.When) {
			e.logDebug().Str("listener", l.ID).Msg("async gate pending")
			e.group.Go(func() error {
				if e.allow(c) {
					e.fire(c, ev)
				}
				return nil
			})
			continue
		}

		if e.allow(c) {
			e.fire(c, ev)
		}
	}
}

// allow evaluates the dynamic gate and then the layer gate.
func (e *Engine) allow(c candidate) bool {
	l := c.listener
	ok, err := e.evalGate(c)
	if err != nil {
		e.logDebug().Err(err).Str("listener", l.ID).Msg("gate failed")
		e.reject(l, "gate error")
		return false
	}
	if !ok {
		e.reject(l, "gate")
		return false
	}
	if !e.layers.AnyEnabled(l.Config.Layers) {
		e.reject(l, "layers disabled")
		return false
	}
	return true
}

// evalGate runs the dynamic gate, turning a panic into an error.
func (e *Engine) evalGate(c candidate) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("%w: %v", ErrGatePanic, r)
		}
	}()
	return c.listener.Config.When.Allow(e.ctx, c.ctx)
}

// fire runs a candidate that passed its gates. The listener must still be
// registered; once listeners are removed before the handler runs.
func (e *Engine) fire(c candidate, ev *key.Event) {
	l := c.listener

	e.mu.Lock()
	if e.closed || !e.registry.Contains(l.ID) {
		e.mu.Unlock()
		e.logDebug().Str("listener", l.ID).Msg("listener gone before fire")
		return
	}
	if sig := l.Config.Signal; sig != nil && sig.Err() != nil {
		e.mu.Unlock()
		e.Unlisten(l.ID)
		return
	}
	var snap snapshot
	if l.Config.Once {
		e.registry.Remove(l.ID)
		snap = e.snapshotLocked()
	}
	e.mu.Unlock()

	if l.Config.Once {
		e.logDebug().Str("listener", l.ID).Msg("once listener removed")
		e.publish(snap)
	}

	if l.Config.PreventDefault {
		ev.PreventDefault()
	}
	ev.Apply(l.Config.StopPropagation)

	e.metrics.fires.Add(1)
	e.logDebug().Str("listener", l.ID).Stringer("sequence", c.ctx.Sequence).Msg("fire")

	if err := runHandler(l.Handler, c.ctx); err != nil {
		e.metrics.handlerErrors.Add(1)
		e.logger.Error().Err(err).Str("listener", l.ID).Strs("keys", l.Keys()).Msg("handler failed")
	}
}

// runHandler calls h, turning a panic into an error.
func runHandler(h keymap.Handler, c *keymap.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(c)
}

// focusedOneOf reports whether active is one of els. Elements whose values
// cannot be compared with == never match.
func focusedOneOf(els []key.Element, active key.Element) bool {
	if active != nil && !reflect.ValueOf(active).Comparable() {
		return false
	}
	for _, el := range els {
		if el == nil || reflect.ValueOf(el).Comparable() {
			if el == active {
				return true
			}
		}
	}
	return false
}

func (e *Engine) reject(l keymap.Listener, reason string) {
	e.metrics.gateRejections.Add(1)
	e.logDebug().Str("listener", l.ID).Str("reason", reason).Msg("skipped")
}

// activeElement asks the host for the focused element, falling back to
// the event target.
func (e *Engine) activeElement(ev *key.Event) key.Element {
	if e.opts.Host != nil {
		if el := e.opts.Host.ActiveElement(); el != nil {
			return el
		}
	}
	return ev.Target
}

func (e *Engine) logDebug() *zerolog.Event {
	return e.logger.Debug()
}

// Editable is implemented by elements that know whether they accept text.
type Editable interface {
	Editable() bool
}

// DefaultIsEditable reports whether el implements Editable and is editable.
func DefaultIsEditable(el key.Element) bool {
	ed, ok := el.(Editable)
	return ok && ed.Editable()
}
