package key

import "strings"

// Separator joins modifiers and the terminal key in a sequence string.
const Separator = "_"

// PlatformSeparator ends the optional platform qualifier.
const PlatformSeparator = ":"

// Sequence is a parsed key sequence.
// Sequence values are comparable; two sequences are equal when their
// canonical strings are equal.
type Sequence struct {
	// Platform is the optional qualifier. PlatformNone means unqualified.
	Platform Platform

	// Modifiers holds every modifier the sequence requires.
	Modifiers Modifier

	// Key is the terminal key, Num for the numeric wildcard,
	// or Any for the wildcard sequence.
	Key Value
}

// AnySequence is the wildcard sequence.
var AnySequence = Sequence{Key: Any}

// IsAny reports whether s is the wildcard sequence.
func (s Sequence) IsAny() bool {
	return s.Key == Any
}

// ModifierList returns the required modifiers in canonical order.
func (s Sequence) ModifierList() []Modifier {
	return s.Modifiers.List()
}

// String formats s in canonical form. It is the inverse of Parse.
func (s Sequence) String() string {
	if s.IsAny() {
		return string(Any)
	}

	var b strings.Builder
	if s.Platform != PlatformNone {
		b.WriteString(string(s.Platform))
		b.WriteString(PlatformSeparator)
	}
	for _, mod := range s.Modifiers.List() {
		b.WriteString(mod.Name())
		b.WriteString(Separator)
	}
	b.WriteString(string(s.Key))
	return b.String()
}

// Chord builds the unqualified sequence for a set of held modifiers plus
// a single key.
func Chord(mods Modifier, v Value) Sequence {
	return Sequence{Modifiers: mods, Key: v}
}
