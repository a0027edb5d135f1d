package key

import (
	"strconv"
	"strings"
)

// Value is a canonical non-modifier key.
// Values are drawn from a closed vocabulary; see IsValid.
type Value string

// Special values.
const (
	// None is the zero Value.
	None Value = ""

	// Any is the wildcard sequence that matches every key press.
	Any Value = "any"

	// Num is the numeric wildcard. It matches while any digit key is held.
	Num Value = "$num"
)

// Named keys.
const (
	Backspace   Value = "backspace"
	Tab         Value = "tab"
	Enter       Value = "enter"
	Pause       Value = "pause"
	Escape      Value = "escape"
	Space       Value = "space"
	PageUp      Value = "page-up"
	PageDown    Value = "page-down"
	End         Value = "end"
	Home        Value = "home"
	ArrowLeft   Value = "arrow-left"
	ArrowUp     Value = "arrow-up"
	ArrowRight  Value = "arrow-right"
	ArrowDown   Value = "arrow-down"
	PrintScreen Value = "print-screen"
	Insert      Value = "insert"
	Delete      Value = "delete"
	ContextMenu Value = "context-menu"

	F1  Value = "f1"
	F2  Value = "f2"
	F3  Value = "f3"
	F4  Value = "f4"
	F5  Value = "f5"
	F6  Value = "f6"
	F7  Value = "f7"
	F8  Value = "f8"
	F9  Value = "f9"
	F10 Value = "f10"
	F11 Value = "f11"
	F12 Value = "f12"

	NumLock    Value = "num-lock"
	ScrollLock Value = "scroll-lock"

	AudioVolumeMute    Value = "audio-volume-mute"
	AudioVolumeDown    Value = "audio-volume-down"
	AudioVolumeUp      Value = "audio-volume-up"
	MediaTrackNext     Value = "media-track-next"
	MediaTrackPrevious Value = "media-track-previous"
	MediaPlayPause     Value = "media-play-pause"
	MediaPlay          Value = "media-play"
	MediaPause         Value = "media-pause"
	MediaStop          Value = "media-stop"

	Minus     Value = "minus"
	Equal     Value = "equal"
	Plus      Value = "plus"
	Comma     Value = "comma"
	Period    Value = "period"
	Slash     Value = "slash"
	Backquote Value = "backquote"
	Tilde     Value = "tilde"
)

// rawKeys maps lower-cased raw host key names to canonical values.
// Letters and digits map to themselves and are added in init.
var rawKeys = map[string]Value{
	"backspace":          Backspace,
	"tab":                Tab,
	"enter":              Enter,
	"pause":              Pause,
	"escape":             Escape,
	" ":                  Space,
	"pageup":             PageUp,
	"pagedown":           PageDown,
	"end":                End,
	"home":               Home,
	"arrowleft":          ArrowLeft,
	"arrowup":            ArrowUp,
	"arrowright":         ArrowRight,
	"arrowdown":          ArrowDown,
	"printscreen":        PrintScreen,
	"insert":             Insert,
	"delete":             Delete,
	"contextmenu":        ContextMenu,
	"f1":                 F1,
	"f2":                 F2,
	"f3":                 F3,
	"f4":                 F4,
	"f5":                 F5,
	"f6":                 F6,
	"f7":                 F7,
	"f8":                 F8,
	"f9":                 F9,
	"f10":                F10,
	"f11":                F11,
	"f12":                F12,
	"numlock":            NumLock,
	"scrolllock":         ScrollLock,
	"audiovolumemute":    AudioVolumeMute,
	"audiovolumedown":    AudioVolumeDown,
	"audiovolumeup":      AudioVolumeUp,
	"mediatracknext":     MediaTrackNext,
	"mediatrackprevious": MediaTrackPrevious,
	"mediaplaypause":     MediaPlayPause,
	"mediaplay":          MediaPlay,
	"mediapause":         MediaPause,
	"mediastop":          MediaStop,
	"-":                  Minus,
	"=":                  Equal,
	"+":                  Plus,
	",":                  Comma,
	".":                  Period,
	"/":                  Slash,
	"`":                  Backquote,
	"~":                  Tilde,
}

// values is the closed vocabulary of canonical key values.
var values = make(map[Value]struct{}, len(rawKeys)+36)

func init() {
	for c := 'a'; c <= 'z'; c++ {
		rawKeys[string(c)] = Value(string(c))
	}
	for c := '0'; c <= '9'; c++ {
		rawKeys[string(c)] = Value(string(c))
	}
	for _, v := range rawKeys {
		values[v] = struct{}{}
	}
}

// IsValid reports whether v belongs to the key vocabulary.
// The wildcards Any and Num are not key values and report false.
func (v Value) IsValid() bool {
	_, ok := values[v]
	return ok
}

// IsDigit reports whether v is one of the digit keys "0" through "9".
func (v Value) IsDigit() bool {
	return len(v) == 1 && v[0] >= '0' && v[0] <= '9'
}

// Int returns the base-10 integer value of v and whether v parses as one.
func (v Value) Int() (int, bool) {
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the canonical spelling of the key.
func (v Value) String() string {
	return string(v)
}

// Values returns every key value in the vocabulary, in no particular order.
func Values() []Value {
	result := make([]Value, 0, len(values))
	for v := range values {
		result = append(result, v)
	}
	return result
}

// FromRaw maps a raw host key identity (for example "ArrowUp", " ",
// "Control", "a") to a key value or a modifier.
//
// Exactly one of the two results is non-zero for a known key. Both are zero
// when the raw key is not part of the vocabulary.
func FromRaw(raw string) (Value, Modifier) {
	if raw == " " {
		return Space, ModNone
	}
	lower := strings.ToLower(raw)
	if mod := ModifierFromName(lower); mod != ModNone {
		return None, mod
	}
	if v, ok := rawKeys[lower]; ok {
		return v, ModNone
	}
	// Canonical spellings are accepted as raw input as well.
	if Value(lower).IsValid() {
		return Value(lower), ModNone
	}
	return None, ModNone
}

// shiftedRunes maps characters typed with shift on a US layout to the key
// that produces them.
var shiftedRunes = map[rune]rune{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0',
	'_': '-', '?': '/', '<': ',', '>': '.',
}

// FromRune maps a typed character to a raw key identity and the shift it
// implies, for hosts that report characters rather than physical keys.
// Upper-case letters and shifted US-layout symbols imply shift. Characters
// outside the vocabulary return "".
func FromRune(r rune) (string, Modifier) {
	if r >= 'A' && r <= 'Z' {
		return string(r + 'a' - 'A'), ModShift
	}
	if base, ok := shiftedRunes[r]; ok {
		return string(base), ModShift
	}
	if v, _ := FromRaw(string(r)); v == None {
		return "", ModNone
	}
	return string(r), ModNone
}
