package keymap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keybind/internal/input/condition"
	"github.com/dshills/keybind/internal/input/key"
)

func noop(*Context) error { return nil }

func TestNormalize(t *testing.T) {
	l, err := Normalize(Request{Keys: []string{"control_s", "macos:meta_s"}, Run: noop})
	require.NoError(t, err)

	assert.Empty(t, l.ID)
	assert.Equal(t, []string{"control_s", "macos:meta_s"}, l.Keys())
	assert.NotNil(t, l.Config.When)
	assert.False(t, l.HasLayers())
}

func TestNormalizeErrors(t *testing.T) {
	_, err := Normalize(Request{Run: noop})
	assert.ErrorIs(t, err, ErrNoSequences)

	_, err = Normalize(Request{Keys: []string{"a"}})
	assert.ErrorIs(t, err, ErrNoHandler)

	_, err = Normalize(Request{Keys: []string{"a", "shift_control_a"}, Run: noop})
	assert.ErrorIs(t, err, key.ErrInvalidSequence)
}

func TestNormalizeAny(t *testing.T) {
	l, err := Normalize(Request{Keys: []string{"a", "any"}, Run: noop})
	require.NoError(t, err)
	assert.Equal(t, []key.Sequence{key.AnySequence}, l.Sequences)
}

func TestNormalizeConfig(t *testing.T) {
	focus := []key.Element{"input"}
	l, err := Normalize(Request{
		Keys: []string{"a"},
		Run:  noop,
		Config: Config{
			Layers:       []string{"a", "", "b", "a"},
			RunIfFocused: focus,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, l.Config.Layers)
	assert.True(t, l.HasLayers())

	focus[0] = "other"
	assert.Equal(t, []key.Element{"input"}, l.Config.RunIfFocused)

	empty, err := Normalize(Request{Keys: []string{"a"}, Run: noop, Config: Config{RunIfFocused: []key.Element{}}})
	require.NoError(t, err)
	assert.NotNil(t, empty.Config.RunIfFocused)
	assert.Empty(t, empty.Config.RunIfFocused)
}

func TestPrevent(t *testing.T) {
	req := Prevent(Request{Keys: []string{"a"}, Run: noop})
	assert.True(t, req.Config.PreventDefault)
}

func TestGates(t *testing.T) {
	ctx := context.Background()

	ok, err := Static(true).Allow(ctx, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Predicate(func() bool { return false }).Allow(ctx, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	g := Async(Static(true))
	assert.True(t, IsAsync(g))
	assert.False(t, IsAsync(Static(true)))
	ok, err = g.Allow(ctx, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, IsAsync(Async(nil)))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	a := r.Add(Listener{Description: "a"}, nil)
	detached := 0
	b := r.Add(Listener{ID: "fixed", Description: "b"}, func() bool { detached++; return true })

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "fixed", b.ID)
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Contains(a.ID))

	got, ok := r.Get("fixed")
	require.True(t, ok)
	assert.Equal(t, "b", got.Description)

	listeners := r.Listeners()
	require.Len(t, listeners, 2)
	assert.Equal(t, a.ID, listeners[0].ID)
	assert.Equal(t, "fixed", listeners[1].ID)

	removed, ok := r.Remove("fixed")
	require.True(t, ok)
	assert.Equal(t, "b", removed.Description)
	assert.Equal(t, 1, detached)

	_, ok = r.Remove("fixed")
	assert.False(t, ok)
	assert.Equal(t, 1, detached)
}

func TestRegistrySetDetach(t *testing.T) {
	r := NewRegistry()
	l := r.Add(Listener{}, nil)

	called := false
	assert.True(t, r.SetDetach(l.ID, func() bool { called = true; return true }))
	assert.False(t, r.SetDetach("missing", nil))

	r.Remove(l.ID)
	assert.True(t, called)
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()
	detached := 0
	for range 3 {
		r.Add(Listener{}, func() bool { detached++; return true })
	}

	assert.Equal(t, 3, r.Clear())
	assert.Equal(t, 3, detached)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.Clear())
}

func TestBindingValidate(t *testing.T) {
	tests := []struct {
		name    string
		binding Binding
		wantErr bool
	}{
		{"valid", NewBinding("save", "control_s"), false},
		{"any", NewBinding("log", "any"), false},
		{"no keys", Binding{Action: "save"}, true},
		{"no action", Binding{Keys: []string{"a"}}, true},
		{"bad key", NewBinding("save", "control_bogus"), true},
		{"bad stop", Binding{Keys: []string{"a"}, Action: "x", Stop: "sometimes"}, true},
		{"good when", NewBinding("x", "a").WithWhen(`mode == "normal"`), false},
		{"bad when", NewBinding("x", "a").WithWhen("mode =="), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.binding.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKeymapBuilders(t *testing.T) {
	km := NewKeymap("test").
		WithLayers("editor").
		WithSource("test-source").
		Add("cursor.down", "j", "arrow-down").
		AddBinding(NewBinding("cursor.up", "k").WithDescription("Up")).
		Add("cursor.down", "control_n")

	assert.Equal(t, "test", km.Name)
	assert.Equal(t, []string{"editor"}, km.Layers)
	assert.Equal(t, "test-source", km.Source)
	assert.Len(t, km.Bindings, 3)
	assert.Equal(t, []string{"cursor.down", "cursor.up"}, km.Actions())
}

func TestKeymapValidate(t *testing.T) {
	km := NewKeymap("test").WithSource("x.yaml").Add("a", "a").Add("b", "bogus")

	err := km.Validate()
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "x.yaml", le.Path)
	assert.Equal(t, 1, le.Binding)
	assert.ErrorIs(t, err, key.ErrInvalidSequence)
	assert.Contains(t, err.Error(), "x.yaml: binding 1")
}

func TestKeymapRequests(t *testing.T) {
	km := NewKeymap("test").WithLayers("editor")
	km.AddBinding(Binding{
		Keys:             []string{"control_s"},
		Action:           "save",
		Prevent:          true,
		Stop:             "immediate",
		IgnoreIfEditable: true,
		Once:             true,
		OnRelease:        true,
		Layers:           []string{"files"},
	})
	km.Add("quit", "escape")

	var saved bool
	actions := ActionSet{
		"save": func(*Context) error { saved = true; return nil },
		"quit": noop,
	}

	reqs, err := km.Requests(actions, nil)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	save := reqs[0]
	assert.Equal(t, []string{"control_s"}, save.Keys)
	assert.Equal(t, "save", save.Description)
	assert.True(t, save.Config.PreventDefault)
	assert.Equal(t, key.StopImmediate, save.Config.StopPropagation)
	assert.True(t, save.Config.IgnoreIfEditable)
	assert.True(t, save.Config.Once)
	assert.True(t, save.Config.OnRelease)
	assert.Equal(t, []string{"editor", "files"}, save.Config.Layers)
	assert.Nil(t, save.Config.When)

	require.NoError(t, save.Run(nil))
	assert.True(t, saved)

	assert.Equal(t, []string{"editor"}, reqs[1].Config.Layers)
}

func TestKeymapRequestsUnknownAction(t *testing.T) {
	km := NewKeymap("test").Add("missing", "a")

	_, err := km.Requests(ActionSet{}, nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestConditionGate(t *testing.T) {
	scope := condition.NewScope()
	c, err := condition.Compile(`mode == "normal" and key == "$num" and template == 3`)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	gate := ConditionGate(c, scope)
	three := 3
	hc := &Context{
		Template: &three,
		Sequence: key.MustParse("alt_$num"),
		Listener: Listener{ID: "l1", Sequences: []key.Sequence{key.MustParse("alt_$num")}},
		Platform: key.PlatformLinux,
	}

	ok, err := gate.Allow(context.Background(), hc)
	require.NoError(t, err)
	assert.False(t, ok)

	scope.Set("mode", "normal")
	ok, err = gate.Allow(context.Background(), hc)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRequestsWithWhen(t *testing.T) {
	scope := condition.NewScope()
	km := NewKeymap("test")
	km.AddBinding(NewBinding("x", "a").WithWhen("enabled"))

	reqs, err := km.Requests(ActionSet{"x": noop}, scope)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Config.When)

	ok, err := reqs[0].Config.When.Allow(context.Background(), &Context{})
	require.NoError(t, err)
	assert.False(t, ok)

	scope.Set("enabled", true)
	ok, err = reqs[0].Config.When.Allow(context.Background(), &Context{})
	require.NoError(t, err)
	assert.True(t, ok)
}

const yamlKeymap = `
name: editor
layers: [editor]
bindings:
  - keys: [control_s, "macos:meta_s"]
    action: save
    prevent: true
    stop: local
  - keys: [alt_$num]
    action: tab.select
    when: template <= 9
`

const jsonKeymap = `{
  "name": "editor",
  "layers": ["editor"],
  "bindings": [
    {"keys": ["control_s", "macos:meta_s"], "action": "save", "prevent": true, "stop": "local"},
    {"keys": ["alt_$num"], "action": "tab.select", "when": "template <= 9"}
  ]
}`

const tomlKeymap = `
name = "editor"
layers = ["editor"]

[[bindings]]
keys = ["control_s", "macos:meta_s"]
action = "save"
prevent = true
stop = "local"

[[bindings]]
keys = ["alt_$num"]
action = "tab.select"
when = "template <= 9"
`

func assertEditorKeymap(t *testing.T, km *Keymap) {
	t.Helper()
	assert.Equal(t, "editor", km.Name)
	assert.Equal(t, []string{"editor"}, km.Layers)
	require.Len(t, km.Bindings, 2)
	assert.Equal(t, []string{"control_s", "macos:meta_s"}, km.Bindings[0].Keys)
	assert.Equal(t, "save", km.Bindings[0].Action)
	assert.True(t, km.Bindings[0].Prevent)
	assert.Equal(t, "local", km.Bindings[0].Stop)
	assert.Equal(t, "template <= 9", km.Bindings[1].When)
}

func TestLoadReader(t *testing.T) {
	l := NewLoader()
	for format, src := range map[Format]string{
		FormatYAML: yamlKeymap,
		FormatJSON: jsonKeymap,
		FormatTOML: tomlKeymap,
	} {
		t.Run(string(format), func(t *testing.T) {
			km, err := l.LoadReader(strings.NewReader(src), format)
			require.NoError(t, err)
			assertEditorKeymap(t, km)
		})
	}
}

func TestLoadReaderRejectsUnknownFields(t *testing.T) {
	l := NewLoader()

	_, err := l.LoadReader(strings.NewReader(`{"name": "x", "priority": 3}`), FormatJSON)
	assert.Error(t, err)

	_, err = l.LoadReader(strings.NewReader("name: x\npriority: 3\n"), FormatYAML)
	assert.Error(t, err)

	_, err = l.LoadReader(strings.NewReader("name = \"x\"\npriority = 3\n"), FormatTOML)
	assert.Error(t, err)

	_, err = l.LoadReader(strings.NewReader(""), Format("ini"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json":    FormatJSON,
		"a.yaml":    FormatYAML,
		"dir/b.YML": FormatYAML,
		"keys.toml": FormatTOML,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("keys.ini")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "editor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlKeymap), 0644))

	km, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	assertEditorKeymap(t, km)
	assert.Equal(t, path, km.Source)
}

func TestLoadFileDefaultsName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unnamed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bindings": [{"keys": ["a"], "action": "x"}]}`), 0644))

	km, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "unnamed", km.Name)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewLoader().LoadFile(filepath.Join(dir, "missing.yaml"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, -1, le.Binding)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("bindings:\n  - keys: [control_control_a]\n    action: x\n"), 0644))
	_, err = NewLoader().LoadFile(bad)
	require.ErrorAs(t, err, &le)
	assert.Equal(t, bad, le.Path)
	assert.Equal(t, 0, le.Binding)
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(yamlKeymap), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.toml"), []byte(tomlKeymap), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte(`{"name": `), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	l := NewLoader()
	l.AddSearchPath(dir)

	keymaps, err := l.LoadAll()
	assert.Error(t, err)
	require.Len(t, keymaps, 2)
	assert.Equal(t, filepath.Join(dir, "a.yaml"), keymaps[0].Source)
	assert.Equal(t, filepath.Join(dir, "b.toml"), keymaps[1].Source)
}

func TestSaveFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"k.json", "k.yaml", "k.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			orig, err := NewLoader().LoadReader(strings.NewReader(yamlKeymap), FormatYAML)
			require.NoError(t, err)
			require.NoError(t, orig.SaveFile(path))

			km, err := NewLoader().LoadFile(path)
			require.NoError(t, err)
			assertEditorKeymap(t, km)
		})
	}
}

func TestDefaultKeymap(t *testing.T) {
	km := DefaultKeymap()
	require.NoError(t, km.Validate())

	actions := ActionSet{}
	for _, name := range DefaultActions() {
		actions[name] = noop
	}
	reqs, err := km.Requests(actions, condition.NewScope())
	require.NoError(t, err)
	assert.Len(t, reqs, len(km.Bindings))

	for _, req := range reqs {
		_, err := Normalize(req)
		assert.NoError(t, err)
	}
}
