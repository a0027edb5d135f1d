package keymap

import (
	"context"
	"fmt"

	"github.com/dshills/keybind/internal/input/condition"
	"github.com/dshills/keybind/internal/input/key"
)

// Binding is a single key-to-action mapping as declared in a keymap file.
type Binding struct {
	// Keys are the sequences that trigger this binding.
	Keys []string `json:"keys" yaml:"keys" toml:"keys"`

	// Action names the handler in the ActionSet.
	Action string `json:"action" yaml:"action" toml:"action"`

	// Description documents the binding.
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`

	// Prevent suppresses the host's default action.
	Prevent bool `json:"prevent,omitempty" yaml:"prevent,omitempty" toml:"prevent,omitempty"`

	// Stop is the propagation policy: "", "none", "local" or "immediate".
	Stop string `json:"stop,omitempty" yaml:"stop,omitempty" toml:"stop,omitempty"`

	// IgnoreIfEditable skips the binding while an editable element has focus.
	IgnoreIfEditable bool `json:"ignoreIfEditable,omitempty" yaml:"ignoreIfEditable,omitempty" toml:"ignoreIfEditable,omitempty"`

	// Once removes the binding after it first fires.
	Once bool `json:"once,omitempty" yaml:"once,omitempty" toml:"once,omitempty"`

	// OnRelease fires the binding on key-up.
	OnRelease bool `json:"onRelease,omitempty" yaml:"onRelease,omitempty" toml:"onRelease,omitempty"`

	// Layers adds layers on top of the keymap's layers.
	Layers []string `json:"layers,omitempty" yaml:"layers,omitempty" toml:"layers,omitempty"`

	// When is a Lua condition expression.
	When string `json:"when,omitempty" yaml:"when,omitempty" toml:"when,omitempty"`
}

// NewBinding creates a new binding with the given keys and action.
func NewBinding(action string, keys ...string) Binding {
	return Binding{
		Keys:   keys,
		Action: action,
	}
}

// WithWhen sets the condition for this binding.
func (b Binding) WithWhen(when string) Binding {
	b.When = when
	return b
}

// WithDescription sets the description for this binding.
func (b Binding) WithDescription(desc string) Binding {
	b.Description = desc
	return b
}

// Validate checks the binding without resolving its action.
func (b Binding) Validate() error {
	if len(b.Keys) == 0 {
		return ErrNoSequences
	}
	if b.Action == "" {
		return fmt.Errorf("%v: empty action", b.Keys)
	}
	if _, ok := key.ParsePropagation(b.Stop); !ok {
		return fmt.Errorf("%v: unknown stop policy %q", b.Keys, b.Stop)
	}
	for _, k := range b.Keys {
		if k == string(key.Any) {
			continue
		}
		if _, err := key.Parse(k); err != nil {
			return err
		}
	}
	if b.When != "" {
		c, err := condition.Compile(b.When)
		if err != nil {
			return err
		}
		c.Close()
	}
	return nil
}

// config builds the listener configuration for the binding.
func (b Binding) config(layers []string, scope *condition.Scope) (Config, error) {
	stop, ok := key.ParsePropagation(b.Stop)
	if !ok {
		return Config{}, fmt.Errorf("%v: unknown stop policy %q", b.Keys, b.Stop)
	}

	cfg := Config{
		PreventDefault:   b.Prevent,
		StopPropagation:  stop,
		IgnoreIfEditable: b.IgnoreIfEditable,
		Once:             b.Once,
		OnRelease:        b.OnRelease,
		Layers:           append(append([]string(nil), layers...), b.Layers...),
	}

	if b.When != "" {
		c, err := condition.Compile(b.When)
		if err != nil {
			return Config{}, err
		}
		cfg.When = ConditionGate(c, scope)
	}

	return cfg, nil
}

// ConditionGate adapts a compiled condition to a Gate. The scope's
// variables are exposed together with "key", "keys", "platform",
// "template" and "listener".
func ConditionGate(c *condition.Condition, scope *condition.Scope) Gate {
	return GateFunc(func(ctx context.Context, hc *Context) (bool, error) {
		vars := scope.Snapshot()
		if hc != nil {
			vars["key"] = hc.Sequence.Key.String()
			vars["keys"] = hc.Listener.Keys()
			vars["platform"] = string(hc.Platform)
			vars["template"] = hc.Template
			vars["listener"] = hc.Listener.ID
		}
		return c.Eval(ctx, vars)
	})
}
