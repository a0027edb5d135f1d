// Package key provides the key vocabulary, the key sequence grammar and the
// raw host event type for the keybind engine.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Value: a canonical non-modifier key ("a", "arrow-up", "f5", "$num")
//   - Modifier: a bit set of meta, control, alt and shift
//   - Platform: an optional qualifier restricting a sequence to an OS
//   - Sequence: a parsed key sequence string
//   - Event: a raw press or release delivered by the host
//
// # Key Sequences
//
// A sequence is written as
//
//	[platform ":"] (modifier "_")* key
//
// or the literal "any". Modifiers must appear in the fixed order meta,
// control, alt, shift. Examples:
//
//	"a"
//	"control_s"
//	"meta_control_alt_shift_arrow-up"
//	"macos:meta_c"
//	"not-macos:control_c"
//	"alt_$num"
//	"any"
//
// Parse and Sequence.String are exact inverses for canonical input.
package key
