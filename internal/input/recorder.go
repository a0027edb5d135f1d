package input

import (
	"context"

	"github.com/dshills/keybind/internal/event"
	"github.com/dshills/keybind/internal/input/key"
)

// Record calls fn with the chord of every qualifying key press: the held
// modifiers plus the pressed key. Modifier-only presses, composition events
// and unknown keys are not reported. Recorders do not go through listener
// matching. The returned function detaches fn.
func (e *Engine) Record(fn func(key.Sequence)) func() {
	if fn == nil {
		return func() {}
	}
	sub, err := e.recorders.Subscribe(fn)
	if err != nil {
		e.logDebug().Err(err).Msg("record failed")
		return func() {}
	}
	return sub.Cancel
}

// RecordOnce blocks until the next chord is pressed, ctx is done, or the
// engine is destroyed.
func (e *Engine) RecordOnce(ctx context.Context) (key.Sequence, error) {
	got := make(chan key.Sequence, 1)
	sub, err := e.recorders.Subscribe(func(seq key.Sequence) {
		got <- seq
	}, event.WithOnce())
	if err != nil {
		return key.Sequence{}, ErrDestroyed
	}
	defer sub.Cancel()

	select {
	case seq := <-got:
		return seq, nil
	case <-ctx.Done():
		return key.Sequence{}, ctx.Err()
	case <-e.ctx.Done():
		return key.Sequence{}, ErrDestroyed
	}
}

// Recording is an accumulating recorder.
type Recording struct {
	chords chan key.Sequence
	detach func()
}

// StartRecording returns a Recording that buffers up to size chords.
// Chords pressed while the buffer is full are dropped.
func (e *Engine) StartRecording(size int) *Recording {
	if size <= 0 {
		size = 16
	}
	r := &Recording{chords: make(chan key.Sequence, size)}
	r.detach = e.Record(func(seq key.Sequence) {
		select {
		case r.chords <- seq:
		default:
			e.logDebug().Stringer("chord", seq).Msg("recording buffer full")
		}
	})
	return r
}

// Chords returns the channel of recorded chords.
func (r *Recording) Chords() <-chan key.Sequence {
	return r.chords
}

// Stop detaches the recording and returns the chords not yet received.
func (r *Recording) Stop() []key.Sequence {
	r.detach()

	var pending []key.Sequence
	for {
		select {
		case seq := <-r.chords:
			pending = append(pending, seq)
		default:
			return pending
		}
	}
}
