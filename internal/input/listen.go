package input

import (
	"context"
	"sync"

	"github.com/dshills/keybind/internal/input/keymap"
)

// Unlisten removes the listeners created by one Listen call.
// Calling it more than once is safe.
type Unlisten func()

// Listen registers one listener per request and returns a function that
// removes all of them.
//
// Every request is validated before any listener is created. A request
// whose Config.Signal is already done is dropped silently; otherwise the
// listener is removed when its signal is done.
func (e *Engine) Listen(reqs ...keymap.Request) (Unlisten, error) {
	ids, err := e.listen(reqs)
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.remove(ids)
		})
	}, nil
}

// listen registers reqs and returns the ids of the created listeners.
func (e *Engine) listen(reqs []keymap.Request) ([]string, error) {
	listeners := make([]keymap.Listener, 0, len(reqs))
	for _, req := range reqs {
		l, err := keymap.Normalize(req)
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, l)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrDestroyed
	}

	ids := make([]string, 0, len(listeners))
	for _, l := range listeners {
		sig := l.Config.Signal
		if sig != nil && sig.Err() != nil {
			e.logger.Debug().Strs("keys", l.Keys()).Msg("signal already done, listener dropped")
			continue
		}

		l.ID = keymap.NewID()
		var detach func() bool
		if sig != nil {
			id := l.ID
			detach = context.AfterFunc(sig, func() {
				e.logger.Debug().Str("listener", id).Msg("signal done")
				e.Unlisten(id)
			})
		}
		e.registry.Add(l, detach)
		e.layers.Register(true, l.Config.Layers...)
		ids = append(ids, l.ID)

		e.logger.Debug().Str("listener", l.ID).Strs("keys", l.Keys()).Msg("listener added")
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if len(ids) > 0 {
		e.publish(snap)
	}
	return ids, nil
}

// Unlisten removes the listener with the given id. Unknown ids are ignored.
func (e *Engine) Unlisten(id string) {
	e.remove([]string{id})
}

func (e *Engine) remove(ids []string) {
	e.mu.Lock()
	removed := 0
	for _, id := range ids {
		if _, ok := e.registry.Remove(id); ok {
			removed++
			e.logger.Debug().Str("listener", id).Msg("listener removed")
		}
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if removed > 0 {
		e.publish(snap)
	}
}

// Clear removes every listener and resets the press state.
func (e *Engine) Clear() {
	e.mu.Lock()
	n := e.registry.Clear()
	e.tracker.Reset()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Debug().Int("removed", n).Msg("listeners cleared")
	e.publish(snap)
}

// Listeners returns a snapshot of the registered listeners in registration
// order.
func (e *Engine) Listeners() []keymap.Listener {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Listeners()
}

// Subscribe calls fn with the full listener list after every change to it.
// The returned function stops the notifications.
func (e *Engine) Subscribe(fn func([]keymap.Listener)) func() {
	if fn == nil {
		return func() {}
	}
	sub, err := e.listeners.Subscribe(fn)
	if err != nil {
		e.logger.Debug().Err(err).Msg("subscribe failed")
		return func() {}
	}
	return sub.Cancel
}

// snapshot is a listener list stamped with the mutation that produced it.
type snapshot struct {
	seq       uint64
	listeners []keymap.Listener
}

// snapshotLocked stamps the current registry. e.mu must be held.
func (e *Engine) snapshotLocked() snapshot {
	e.version++
	return snapshot{seq: e.version, listeners: e.registry.Listeners()}
}

// publish delivers s to subscribers in mutation order. A snapshot older
// than one already delivered is dropped, so the last list a subscriber sees
// is always the current one. While a delivery is running, later snapshots
// are handed to the goroutine doing it, so a subscriber that mutates the
// engine sees its own change after it returns.
func (e *Engine) publish(s snapshot) {
	e.pubMu.Lock()
	if s.seq > e.pending.seq {
		e.pending = s
	}
	if e.publishing {
		e.pubMu.Unlock()
		return
	}
	e.publishing = true
	for e.pending.seq > e.delivered {
		next := e.pending
		e.delivered = next.seq
		e.pubMu.Unlock()
		e.listeners.Publish(next.listeners)
		e.pubMu.Lock()
	}
	e.publishing = false
	e.pubMu.Unlock()
}
