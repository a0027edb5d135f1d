package key

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptySequence   = errors.New("empty key sequence")
	ErrInvalidSequence = errors.New("invalid key sequence")
)

// Parse parses a key sequence string.
//
// Supported forms:
//   - Single key: "a", "f5", "arrow-up", "$num"
//   - With modifiers: "control_s", "meta_shift_z"
//   - Platform qualified: "macos:meta_c", "not-macos:control_c"
//   - Wildcard: "any"
//
// Parse never panics. Malformed input is reported with an error wrapping
// ErrInvalidSequence (or ErrEmptySequence for empty input).
func Parse(spec string) (Sequence, error) {
	if spec == "" {
		return Sequence{}, ErrEmptySequence
	}
	if spec == string(Any) {
		return AnySequence, nil
	}

	var seq Sequence

	rest := spec
	if prefix, body, found := strings.Cut(spec, PlatformSeparator); found {
		p, ok := ParsePlatform(prefix)
		if !ok {
			return Sequence{}, fmt.Errorf("%w: unknown platform %q in %q", ErrInvalidSequence, prefix, spec)
		}
		seq.Platform = p
		rest = body
	}

	parts := strings.Split(rest, Separator)
	keyPart := parts[len(parts)-1]

	last := -1
	for _, p := range parts[:len(parts)-1] {
		mod := ModifierFromName(p)
		if mod == ModNone {
			return Sequence{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidSequence, p, spec)
		}
		rank := mod.rank()
		if rank == last {
			return Sequence{}, fmt.Errorf("%w: duplicate modifier %q in %q", ErrInvalidSequence, p, spec)
		}
		if rank < last {
			return Sequence{}, fmt.Errorf("%w: modifier %q out of order in %q", ErrInvalidSequence, p, spec)
		}
		last = rank
		seq.Modifiers = seq.Modifiers.With(mod)
	}

	k := Value(keyPart)
	if k != Num && !k.IsValid() {
		return Sequence{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidSequence, keyPart, spec)
	}
	seq.Key = k

	return seq, nil
}

// MustParse is like Parse but panics on malformed input.
// It is intended for static binding tables.
func MustParse(spec string) Sequence {
	seq, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return seq
}

// ParseAll parses every spec, stopping at the first error.
func ParseAll(specs []string) ([]Sequence, error) {
	result := make([]Sequence, 0, len(specs))
	for _, s := range specs {
		seq, err := Parse(s)
		if err != nil {
			return nil, err
		}
		result = append(result, seq)
	}
	return result, nil
}
