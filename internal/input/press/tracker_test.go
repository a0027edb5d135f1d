package press

import (
	"testing"

	"github.com/dshills/keybind/internal/input/key"
)

func down(t *Tracker, raw string) bool {
	_, ok := t.Down(key.NewEvent(raw))
	return ok
}

func up(t *Tracker, raw string) {
	t.Up(key.NewEvent(raw))
}

func TestTrackerModifierOnlyPress(t *testing.T) {
	tr := NewTracker()
	if down(tr, "Control") {
		t.Error("modifier press should not trigger matching")
	}
	if tr.Modifiers() != key.ModCtrl {
		t.Errorf("Modifiers() = %v, want control", tr.Modifiers())
	}
	if len(tr.Keys()) != 0 {
		t.Errorf("Keys() = %v, modifiers must not enter the key set", tr.Keys())
	}
}

func TestTrackerChord(t *testing.T) {
	tr := NewTracker()
	down(tr, "Control")
	if !down(tr, "y") {
		t.Fatal("key press should trigger matching")
	}
	if !tr.Matches(key.MustParse("control_y"), key.PlatformUnknown) {
		t.Error("control_y should match")
	}
	if tr.Matches(key.MustParse("y"), key.PlatformUnknown) {
		t.Error("plain y must not match while control is held")
	}

	up(tr, "Control")
	if tr.Matches(key.MustParse("control_y"), key.PlatformUnknown) {
		t.Error("control_y should not match after control release")
	}
	if !tr.Matches(key.MustParse("y"), key.PlatformUnknown) {
		t.Error("y should match once control is released")
	}
}

func TestTrackerComposition(t *testing.T) {
	tr := NewTracker()
	e := key.NewEvent("a")
	e.Composing = true
	if _, ok := tr.Down(e); ok {
		t.Error("composition should not trigger matching")
	}
	if !tr.Empty() {
		t.Error("composition should not mutate state")
	}
}

func TestTrackerUnknownKey(t *testing.T) {
	tr := NewTracker()
	if down(tr, "Unidentified") {
		t.Error("unknown key should not trigger matching")
	}
	if !tr.Empty() {
		t.Error("unknown key should not mutate state")
	}
}

func TestTrackerRepeatKeepsPosition(t *testing.T) {
	tr := NewTracker()
	down(tr, "1")
	down(tr, "2")
	down(tr, "1")
	got := tr.Keys()
	if len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("Keys() = %v, want [1 2]", got)
	}
	if n, _ := tr.Numeric(); n != 2 {
		t.Errorf("Numeric() = %d, want 2", n)
	}
}

func TestTrackerNumeric(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.Numeric(); ok {
		t.Error("Numeric() on empty tracker should fail")
	}
	down(tr, "Alt")
	down(tr, "a")
	down(tr, "3")
	down(tr, "b")
	if n, ok := tr.Numeric(); !ok || n != 3 {
		t.Errorf("Numeric() = (%d, %v), want (3, true)", n, ok)
	}
	if !tr.Matches(key.MustParse("alt_$num"), key.PlatformUnknown) {
		t.Error("alt_$num should match")
	}
	up(tr, "3")
	if tr.Matches(key.MustParse("alt_$num"), key.PlatformUnknown) {
		t.Error("alt_$num should not match without a digit")
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker()
	down(tr, "Shift")
	down(tr, "a")
	tr.Reset()
	if !tr.Empty() {
		t.Errorf("Reset() left keys=%v mods=%v", tr.Keys(), tr.Modifiers())
	}
}

func TestTrackerAuthoritativeModifiers(t *testing.T) {
	tr := NewTracker()
	down(tr, "Alt")
	tr.Down(key.NewEvent("s").WithModifiers(key.ModCtrl))
	if tr.Modifiers() != key.ModCtrl {
		t.Errorf("Modifiers() = %v, want control from event flags", tr.Modifiers())
	}
	tr.Up(key.NewEvent("s").WithModifiers(key.ModNone))
	if !tr.Empty() {
		t.Errorf("release with empty flags should clear state")
	}
}

func TestTrackerMatchesAny(t *testing.T) {
	tr := NewTracker()
	if !tr.Matches(key.AnySequence, key.PlatformNone) {
		t.Error("any should always match")
	}
}

func TestTrackerMatchesPlatform(t *testing.T) {
	tr := NewTracker()
	down(tr, "x")
	seq := key.MustParse("macos:x")
	if !tr.Matches(seq, key.PlatformMacOS) {
		t.Error("macos:x should match on macos")
	}
	if tr.Matches(seq, key.PlatformLinux) {
		t.Error("macos:x should not match on linux")
	}
	if tr.Matches(seq, key.PlatformNone) {
		t.Error("macos:x should not match before the platform is known")
	}
}
