package keymap

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/keybind/internal/input/key"
)

// Registration errors.
var (
	ErrNoSequences = errors.New("at least one key sequence must be provided")
	ErrNoHandler   = errors.New("listener has no handler")
)

// Handler runs when a listener fires. A returned error is logged by the
// engine and does not affect other listeners.
type Handler func(c *Context) error

// Context is passed to handlers and gates.
type Context struct {
	// Template is the resolved numeric wildcard value, set when the
	// listener matched through a "$num" sequence.
	Template *int

	// Sequence is the first of the listener's sequences that matched.
	Sequence key.Sequence

	// Listener is the firing listener.
	Listener Listener

	// Event is the host event being handled.
	Event *key.Event

	// Platform is the engine's resolved platform.
	Platform key.Platform
}

// Config controls when a listener may fire and what it does to the event.
// The zero value is the default configuration.
type Config struct {
	// PreventDefault suppresses the host's default action.
	PreventDefault bool

	// StopPropagation is the propagation policy applied before the handler.
	StopPropagation key.Propagation

	// IgnoreIfEditable skips the listener while an editable element
	// (text input, text area, content-editable) has focus.
	IgnoreIfEditable bool

	// RunIfFocused restricts the listener to the given elements. A nil slice
	// means no restriction. A non-nil empty slice means the listener never
	// fires.
	RunIfFocused []key.Element

	// Once removes the listener after its first successful fire.
	Once bool

	// Layers tags the listener. A tagged listener fires only while at least
	// one of its layers is enabled.
	Layers []string

	// When is consulted after the focus checks. Nil always passes.
	When Gate

	// Signal removes the listener when it is done. A request whose signal
	// is already done is dropped.
	Signal context.Context

	// OnRelease evaluates the listener on key-up instead of key-down,
	// against the chord as it was at the moment of release.
	OnRelease bool
}

// Request describes a listener to register.
type Request struct {
	// Keys lists the sequences that trigger the listener.
	Keys []string

	// Run is the handler.
	Run Handler

	// Config is the listener configuration.
	Config Config

	// Description documents the listener for help output.
	Description string
}

// Prevent returns req with PreventDefault set.
func Prevent(req Request) Request {
	req.Config.PreventDefault = true
	return req
}

// Listener is a registered request.
type Listener struct {
	// ID uniquely identifies the listener within its engine.
	ID string

	// Sequences are the parsed trigger sequences, in declaration order.
	Sequences []key.Sequence

	// Handler is the listener's handler.
	Handler Handler

	// Config is the normalized configuration.
	Config Config

	// Description documents the listener.
	Description string
}

// Keys returns the canonical strings of the listener's sequences.
func (l Listener) Keys() []string {
	result := make([]string, len(l.Sequences))
	for i, seq := range l.Sequences {
		result[i] = seq.String()
	}
	return result
}

// HasLayers reports whether the listener is layer restricted.
func (l Listener) HasLayers() bool {
	return len(l.Config.Layers) > 0
}

// Normalize validates req and returns an unregistered listener.
// The returned listener has no ID.
func Normalize(req Request) (Listener, error) {
	if len(req.Keys) == 0 {
		return Listener{}, ErrNoSequences
	}
	if req.Run == nil {
		return Listener{}, fmt.Errorf("%w: keys %v", ErrNoHandler, req.Keys)
	}

	var seqs []key.Sequence
	if slices.Contains(req.Keys, string(key.Any)) {
		seqs = []key.Sequence{key.AnySequence}
	} else {
		parsed, err := key.ParseAll(req.Keys)
		if err != nil {
			return Listener{}, err
		}
		seqs = parsed
	}

	cfg := req.Config
	if cfg.When == nil {
		cfg.When = Static(true)
	}
	cfg.Layers = dedupe(cfg.Layers)
	if cfg.RunIfFocused != nil {
		cfg.RunIfFocused = slices.Clone(cfg.RunIfFocused)
	}

	return Listener{
		Sequences:   seqs,
		Handler:     req.Run,
		Config:      cfg,
		Description: req.Description,
	}, nil
}

// dedupe removes duplicate and empty names, preserving order.
func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result
}
