package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type result struct {
	out    *syncBuffer
	errOut *syncBuffer
	err    error
}

func execute(t *testing.T, c *cli, args ...string) result {
	t.Helper()

	root := newRootCmd(c)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return result{out: c.out.(*syncBuffer), errOut: c.errOut.(*syncBuffer), err: err}
}

func newTestCLI() *cli {
	return newCLI(&syncBuffer{}, &syncBuffer{})
}

func TestParse(t *testing.T) {
	r := execute(t, newTestCLI(), "parse", "control_s", "no-macos:alt_$num", "any")
	require.NoError(t, r.err)

	out := r.out.String()
	assert.Contains(t, out, "control_s")
	assert.Contains(t, out, "not-macos:alt_$num")
	assert.Contains(t, out, "any")
}

func TestParseInvalid(t *testing.T) {
	r := execute(t, newTestCLI(), "parse", "control_s", "shift_control_s")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "1 of 2")
	assert.Contains(t, r.out.String(), "error:")
}

func TestParseJSON(t *testing.T) {
	r := execute(t, newTestCLI(), "parse", "--json", "macos:meta_shift_z")
	require.NoError(t, r.err)

	out := r.out.String()
	assert.Contains(t, out, `"canonical": "macos:meta_shift_z"`)
	assert.Contains(t, out, `"platform": "macos"`)
	assert.Contains(t, out, `"key": "z"`)
}

func TestParseRequiresArgs(t *testing.T) {
	r := execute(t, newTestCLI(), "parse")
	assert.Error(t, r.err)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(good, []byte("name: good\nbindings:\n  - action: a\n    keys: [control_a]\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("name = 'bad'\n[[bindings]]\naction = 'a'\nkeys = ['control_nope']\n"), 0o644))

	r := execute(t, newTestCLI(), "check", good)
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "ok    "+good)

	r = execute(t, newTestCLI(), "check", good, bad)
	require.Error(t, r.err)
	assert.Contains(t, r.out.String(), "FAIL")
	assert.Contains(t, r.out.String(), bad)
}

func TestCheckNothingConfigured(t *testing.T) {
	r := execute(t, newTestCLI(), "check")
	assert.Error(t, r.err)
}

func TestExport(t *testing.T) {
	r := execute(t, newTestCLI(), "export", "--format", "toml")
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "app.quit")

	path := filepath.Join(t.TempDir(), "default.json")
	r = execute(t, newTestCLI(), "export", path)
	require.NoError(t, r.err)

	r = execute(t, newTestCLI(), "check", path)
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "ok")
}

func TestList(t *testing.T) {
	r := execute(t, newTestCLI(), "list")
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "ACTION")
	assert.Contains(t, r.out.String(), "app.quit")
	assert.Contains(t, r.out.String(), "tab.select")

	r = execute(t, newTestCLI(), "list", "-n", "1", "quit")
	require.NoError(t, r.err)
	lines := strings.Split(strings.TrimSpace(r.out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "app.quit")
	assert.Contains(t, lines[1], "default")

	r = execute(t, newTestCLI(), "list", "zzzz")
	assert.Error(t, r.err)
}

func TestInvalidPlatformFlag(t *testing.T) {
	r := execute(t, newTestCLI(), "--platform", "amiga", "parse", "a")
	assert.Error(t, r.err)
}

// simScreen returns a cli whose terminal is a simulation screen.
func simScreen(c *cli) tcell.SimulationScreen {
	screen := tcell.NewSimulationScreen("UTF-8")
	c.newScreen = func() (tcell.Screen, error) { return screen, nil }
	return screen
}

// screenText returns the visible characters of a simulation screen.
func screenText(s tcell.SimulationScreen) string {
	cells, width, _ := s.GetContents()
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 && i%width == 0 {
			b.WriteByte('\n')
		}
		if len(cell.Runes) > 0 {
			b.WriteRune(cell.Runes[0])
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// waitForText polls the simulated terminal until it shows text.
func waitForText(t *testing.T, s tcell.SimulationScreen, text string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(screenText(s), text)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRecord(t *testing.T) {
	c := newTestCLI()
	screen := simScreen(c)

	done := make(chan result, 1)
	go func() {
		done <- execute(t, c, "--platform", "linux", "record", "-n", "2")
	}()

	waitForText(t, screen, "Press 2 chord(s)")
	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	screen.InjectKey(tcell.KeyCtrlS, 0, tcell.ModCtrl)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, "a\ncontrol_s\n", r.out.String())
	case <-time.After(5 * time.Second):
		t.Fatal("record did not finish")
	}
}

func TestRecordTimeout(t *testing.T) {
	c := newTestCLI()
	simScreen(c)

	r := execute(t, c, "record", "--timeout", "50ms")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "0 of 1")
}

func TestRunTerminal(t *testing.T) {
	c := newTestCLI()
	screen := simScreen(c)

	done := make(chan result, 1)
	go func() {
		done <- execute(t, c, "--platform", "linux", "run")
	}()

	waitForText(t, screen, "bindings from default")
	screen.InjectKey(tcell.KeyRune, '4', tcell.ModAlt)
	waitForText(t, screen, "tab.select")

	screen.InjectKey(tcell.KeyRune, '?', tcell.ModNone)
	waitForText(t, screen, "Show key bindings")

	screen.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	select {
	case r := <-done:
		require.NoError(t, r.err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not exit on quit")
	}
}

func TestRunTea(t *testing.T) {
	c := newTestCLI()
	c.teaInput = strings.NewReader("\x11")

	r := execute(t, c, "--platform", "linux", "run", "--tea")
	require.NoError(t, r.err)
	assert.Contains(t, r.out.String(), "keybind run")
}
