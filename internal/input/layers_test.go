package input_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keybind/internal/input/keymap"
)

func TestLayersSet(t *testing.T) {
	e, host := setup(t)
	a := &spy{}
	b := &spy{}
	free := &spy{}
	listen(t, e,
		keymap.Request{Keys: []string{"x"}, Run: a.run, Config: keymap.Config{Layers: []string{"a"}}},
		keymap.Request{Keys: []string{"x"}, Run: b.run, Config: keymap.Config{Layers: []string{"b"}}},
		keymap.Request{Keys: []string{"x"}, Run: free.run},
	)

	e.Layers().Set("a")
	host.Tap("x")

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 0, b.count())
	assert.Equal(t, 1, free.count(), "listeners without layers are never restricted")
	assert.Equal(t, []string{"a"}, e.Layers().Enabled())
	assert.Equal(t, []string{"a", "b"}, e.Layers().Known())
}

func TestLayersAnyEnabled(t *testing.T) {
	e, host := setup(t)
	s := &spy{}
	listen(t, e, keymap.Request{Keys: []string{"x"}, Run: s.run, Config: keymap.Config{Layers: []string{"a", "b"}}})

	e.Layers().Disable("a")
	host.Tap("x")
	assert.Equal(t, 1, s.count())

	e.Layers().None()
	host.Tap("x")
	assert.Equal(t, 1, s.count())

	e.Layers().Enable("b")
	host.Tap("x")
	assert.Equal(t, 2, s.count())

	e.Layers().None()
	e.Layers().All()
	host.Tap("x")
	assert.Equal(t, 3, s.count())
}

func TestLayersToggle(t *testing.T) {
	e, host := setup(t)
	s := &spy{}
	listen(t, e, keymap.Request{Keys: []string{"x"}, Run: s.run, Config: keymap.Config{Layers: []string{"a"}}})

	assert.False(t, e.Layers().Toggle("a"))
	assert.False(t, e.Layers().IsEnabled("a"))
	host.Tap("x")
	assert.Equal(t, 0, s.count())

	assert.True(t, e.Layers().Toggle("a"))
	host.Tap("x")
	assert.Equal(t, 1, s.count())
}

func TestLayerHandle(t *testing.T) {
	e, host := setup(t)
	layer := e.Layers().Create([]string{"editor", "vim"}, false)
	assert.Equal(t, []string{"editor", "vim"}, layer.Names())
	assert.False(t, layer.IsEnabled())

	s := &spy{}
	_, err := layer.Listen(keymap.Request{Keys: []string{"j"}, Run: s.run, Config: keymap.Config{Layers: []string{"extra"}}})
	require.NoError(t, err)

	ls := e.Listeners()
	require.Len(t, ls, 1)
	assert.Equal(t, []string{"extra", "editor", "vim"}, ls[0].Config.Layers)

	e.Layers().Disable("extra")
	host.Tap("j")
	assert.Equal(t, 0, s.count(), "created disabled")

	layer.Enable()
	assert.True(t, layer.IsEnabled())
	host.Tap("j")
	assert.Equal(t, 1, s.count())

	assert.False(t, layer.Toggle())
	host.Tap("j")
	assert.Equal(t, 1, s.count())

	layer.Enable()
	layer.Disable()
	assert.False(t, layer.IsEnabled())
}

func TestLayerHandleOff(t *testing.T) {
	e, host := setup(t)
	layer := e.Layers().Create([]string{"panel"}, true)

	s := &spy{}
	_, err := layer.Listen(
		keymap.Request{Keys: []string{"a"}, Run: s.run},
		keymap.Request{Keys: []string{"b"}, Run: s.run},
	)
	require.NoError(t, err)
	unlisten, err := layer.Listen(keymap.Request{Keys: []string{"c"}, Run: s.run})
	require.NoError(t, err)
	listen(t, e, keymap.Request{Keys: []string{"d"}, Run: s.run})

	unlisten()
	assert.Len(t, e.Listeners(), 3)

	layer.Off()
	ls := e.Listeners()
	require.Len(t, ls, 1)
	assert.Equal(t, []string{"d"}, ls[0].Keys())

	host.Tap("a")
	host.Tap("d")
	assert.Equal(t, 1, s.count())

	layer.Off()
}

func TestLayerHandleKeepsExistingState(t *testing.T) {
	e, host := setup(t)
	e.Layers().Enable("shared")

	layer := e.Layers().Create([]string{"shared"}, true)
	e.Layers().Disable("shared")

	s := &spy{}
	_, err := layer.Listen(keymap.Request{Keys: []string{"a"}, Run: s.run})
	require.NoError(t, err)

	host.Tap("a")
	assert.Equal(t, 0, s.count(), "listen does not re-enable a known layer")
}

func TestLayerHandleInvalidRequest(t *testing.T) {
	e, _ := setup(t)
	layer := e.Layers().Create([]string{"x"}, true)

	_, err := layer.Listen(keymap.Request{Keys: []string{"nope_a"}, Run: (&spy{}).run})
	assert.Error(t, err)
	assert.Empty(t, e.Listeners())
}
