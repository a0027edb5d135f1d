package key

import "strings"

// Modifier represents keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModMeta indicates the Meta key (Cmd on macOS, Win on Windows).
	ModMeta Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModShift indicates the Shift key.
	ModShift
)

// canonicalOrder is the only order in which modifiers may appear in a sequence.
var canonicalOrder = [...]Modifier{ModMeta, ModCtrl, ModAlt, ModShift}

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// List returns the individual modifiers of m in canonical order.
func (m Modifier) List() []Modifier {
	var result []Modifier
	for _, mod := range canonicalOrder {
		if m.Has(mod) {
			result = append(result, mod)
		}
	}
	return result
}

// Name returns the canonical name of a single modifier.
// It returns "" for ModNone or a combination.
func (m Modifier) Name() string {
	switch m {
	case ModMeta:
		return "meta"
	case ModCtrl:
		return "control"
	case ModAlt:
		return "alt"
	case ModShift:
		return "shift"
	default:
		return ""
	}
}

// String returns the modifiers joined with the sequence separator,
// like "control_alt".
func (m Modifier) String() string {
	list := m.List()
	parts := make([]string, len(list))
	for i, mod := range list {
		parts[i] = mod.Name()
	}
	return strings.Join(parts, Separator)
}

// rank returns the position of a single modifier in canonical order.
func (m Modifier) rank() int {
	for i, mod := range canonicalOrder {
		if mod == m {
			return i
		}
	}
	return -1
}

// modifierNameMap maps canonical modifier names to Modifier values.
var modifierNameMap = map[string]Modifier{
	"meta":    ModMeta,
	"control": ModCtrl,
	"alt":     ModAlt,
	"shift":   ModShift,
}

// ModifierFromName returns the Modifier for a canonical name.
// Returns ModNone if the name is not recognized.
func ModifierFromName(name string) Modifier {
	if m, ok := modifierNameMap[name]; ok {
		return m
	}
	return ModNone
}
