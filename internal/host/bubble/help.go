package bubble

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/dshills/keybind/internal/input/keymap"
)

// HelpKeyMap is a help.KeyMap built from registered listeners.
type HelpKeyMap struct {
	short  []key.Binding
	groups [][]key.Binding
}

// ShortHelp returns the enabled bindings of the ungrouped listeners.
func (k HelpKeyMap) ShortHelp() []key.Binding {
	return k.short
}

// FullHelp returns one column per layer, preceded by the ungrouped
// listeners.
func (k HelpKeyMap) FullHelp() [][]key.Binding {
	return k.groups
}

// Len returns the number of bindings across all groups.
func (k HelpKeyMap) Len() int {
	n := 0
	for _, g := range k.groups {
		n += len(g)
	}
	return n
}

// NewHelpKeyMap builds help bindings for listeners that carry a
// description. Listeners are grouped by their first layer. A binding whose
// layers are all disabled according to enabled is marked disabled, which
// hides it from help views. A nil enabled treats every layer as enabled.
func NewHelpKeyMap(listeners []keymap.Listener, enabled func(layers []string) bool) HelpKeyMap {
	var (
		base   []key.Binding
		order  []string
		byName = make(map[string][]key.Binding)
	)

	for _, l := range listeners {
		if l.Description == "" {
			continue
		}
		keys := l.Keys()
		opts := []key.BindingOpt{
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(keys, "/"), l.Description),
		}
		if enabled != nil && len(l.Config.Layers) > 0 && !enabled(l.Config.Layers) {
			opts = append(opts, key.WithDisabled())
		}
		b := key.NewBinding(opts...)

		if len(l.Config.Layers) == 0 {
			base = append(base, b)
			continue
		}
		name := l.Config.Layers[0]
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = append(byName[name], b)
	}

	km := HelpKeyMap{short: base}
	if len(base) > 0 {
		km.groups = append(km.groups, base)
	}
	for _, name := range order {
		km.groups = append(km.groups, byName[name])
	}
	return km
}
