package key

import "strings"

// Platform identifies an operating system family.
//
// As a sequence qualifier it may be negated ("not-macos"). As the result of
// platform detection it is one of the positive values or PlatformUnknown.
type Platform string

const (
	PlatformNone    Platform = ""
	PlatformUnknown Platform = "unknown"
	PlatformMacOS   Platform = "macos"
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"

	NotMacOS   Platform = "not-macos"
	NotWindows Platform = "not-windows"
	NotLinux   Platform = "not-linux"
)

const (
	negatePrefix = "not-"
	// legacyNegatePrefix is the spelling older keymaps used for negation.
	legacyNegatePrefix = "no-"
)

// ParsePlatform parses a platform qualifier.
// The legacy "no-" negation prefix is accepted and normalised to "not-".
func ParsePlatform(s string) (Platform, bool) {
	if rest, ok := strings.CutPrefix(s, legacyNegatePrefix); ok {
		s = negatePrefix + rest
	}
	switch p := Platform(s); p {
	case PlatformMacOS, PlatformWindows, PlatformLinux, NotMacOS, NotWindows, NotLinux:
		return p, true
	}
	return PlatformNone, false
}

// IsNegated reports whether p is a "not-" qualifier.
func (p Platform) IsNegated() bool {
	return strings.HasPrefix(string(p), negatePrefix)
}

// Base returns the platform with any negation removed.
func (p Platform) Base() Platform {
	return Platform(strings.TrimPrefix(string(p), negatePrefix))
}

// IsKnown reports whether p names a concrete detected platform.
func (p Platform) IsKnown() bool {
	switch p {
	case PlatformMacOS, PlatformWindows, PlatformLinux:
		return true
	}
	return false
}

// Allows reports whether a sequence qualified with p may match on the
// detected platform. An unqualified sequence allows everything; a qualified
// sequence allows nothing while the platform is still unknown.
func (p Platform) Allows(detected Platform) bool {
	if p == PlatformNone {
		return true
	}
	if !detected.IsKnown() {
		return false
	}
	if p.IsNegated() {
		return p.Base() != detected
	}
	return p == detected
}
