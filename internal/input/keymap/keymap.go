package keymap

import (
	"errors"
	"fmt"

	"github.com/dshills/keybind/internal/input/condition"
)

// ErrUnknownAction is returned when a binding names an action that the
// ActionSet does not provide.
var ErrUnknownAction = errors.New("unknown action")

// ActionSet resolves action names to handlers.
type ActionSet map[string]Handler

// Keymap is a named collection of bindings, usually loaded from a file.
type Keymap struct {
	// Name is the keymap identifier.
	Name string `json:"name" yaml:"name" toml:"name"`

	// Layers tags every binding of the keymap.
	Layers []string `json:"layers,omitempty" yaml:"layers,omitempty" toml:"layers,omitempty"`

	// Bindings are the key-to-action mappings.
	Bindings []Binding `json:"bindings" yaml:"bindings" toml:"bindings"`

	// Source indicates where this keymap was defined.
	// Examples: "default", "user", "/home/me/.config/keybind/editor.yaml"
	Source string `json:"-" yaml:"-" toml:"-"`
}

// NewKeymap creates a new keymap with the given name.
func NewKeymap(name string) *Keymap {
	return &Keymap{
		Name:     name,
		Bindings: make([]Binding, 0),
	}
}

// WithLayers sets the layers for this keymap.
func (k *Keymap) WithLayers(layers ...string) *Keymap {
	k.Layers = layers
	return k
}

// WithSource sets the source for this keymap.
func (k *Keymap) WithSource(source string) *Keymap {
	k.Source = source
	return k
}

// Add adds a binding to this keymap.
func (k *Keymap) Add(action string, keys ...string) *Keymap {
	k.Bindings = append(k.Bindings, NewBinding(action, keys...))
	return k
}

// AddBinding adds a fully configured binding to this keymap.
func (k *Keymap) AddBinding(binding Binding) *Keymap {
	k.Bindings = append(k.Bindings, binding)
	return k
}

// Validate checks that all bindings in the keymap are valid.
func (k *Keymap) Validate() error {
	for i, b := range k.Bindings {
		if err := b.Validate(); err != nil {
			return &LoadError{Path: k.Source, Binding: i, Err: err}
		}
	}
	return nil
}

// Actions returns the distinct action names used by the keymap, in order.
func (k *Keymap) Actions() []string {
	names := make([]string, 0, len(k.Bindings))
	for _, b := range k.Bindings {
		names = append(names, b.Action)
	}
	return dedupe(names)
}

// Requests resolves every binding through actions and returns the
// registration requests. scope supplies variables to "when" conditions and
// may be nil.
func (k *Keymap) Requests(actions ActionSet, scope *condition.Scope) ([]Request, error) {
	reqs := make([]Request, 0, len(k.Bindings))
	for i, b := range k.Bindings {
		run, ok := actions[b.Action]
		if !ok || run == nil {
			return nil, &LoadError{Path: k.Source, Binding: i, Err: fmt.Errorf("%w %q", ErrUnknownAction, b.Action)}
		}
		cfg, err := b.config(k.Layers, scope)
		if err != nil {
			return nil, &LoadError{Path: k.Source, Binding: i, Err: err}
		}
		desc := b.Description
		if desc == "" {
			desc = b.Action
		}
		reqs = append(reqs, Request{
			Keys:        b.Keys,
			Run:         run,
			Config:      cfg,
			Description: desc,
		})
	}
	return reqs, nil
}

// LoadError describes a keymap that failed to load or resolve.
type LoadError struct {
	// Path is the keymap source.
	Path string

	// Binding is the index of the offending binding, or -1.
	Binding int

	// Err is the underlying error.
	Err error
}

func (e *LoadError) Error() string {
	src := e.Path
	if src == "" {
		src = "<keymap>"
	}
	if e.Binding >= 0 {
		return fmt.Sprintf("%s: binding %d: %v", src, e.Binding, e.Err)
	}
	return fmt.Sprintf("%s: %v", src, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
