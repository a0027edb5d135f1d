package input

import (
	"slices"
	"sync"

	"github.com/dshills/keybind/internal/input/keymap"
)

// Layers exposes the engine's layer state.
type Layers struct {
	e *Engine
}

// Layers returns the engine's layer controls.
func (e *Engine) Layers() *Layers {
	return &Layers{e: e}
}

// Create returns a handle for a group of layer names. When enabled is
// false the names are disabled immediately.
func (ls *Layers) Create(names []string, enabled bool) *Layer {
	names = slices.Clone(names)
	if enabled {
		ls.e.layers.Register(true, names...)
	} else {
		ls.e.layers.Disable(names...)
	}
	ls.e.logDebug().Strs("layers", names).Bool("enabled", enabled).Msg("layer created")
	return &Layer{e: ls.e, names: names, enabled: enabled}
}

// Enable enables the named layers.
func (ls *Layers) Enable(names ...string) {
	ls.e.layers.Enable(names...)
	ls.e.logDebug().Strs("layers", names).Msg("layers enabled")
}

// Disable disables the named layers.
func (ls *Layers) Disable(names ...string) {
	ls.e.layers.Disable(names...)
	ls.e.logDebug().Strs("layers", names).Msg("layers disabled")
}

// Toggle flips the named layers as a group and returns the new state.
func (ls *Layers) Toggle(names ...string) bool {
	on := ls.e.layers.Toggle(names...)
	ls.e.logDebug().Strs("layers", names).Bool("enabled", on).Msg("layers toggled")
	return on
}

// Set enables exactly the named layers and disables every other known layer.
func (ls *Layers) Set(names ...string) {
	ls.e.layers.Set(names...)
	ls.e.logDebug().Strs("layers", names).Msg("layers set")
}

// All enables every known layer.
func (ls *Layers) All() {
	ls.e.layers.All()
	ls.e.logDebug().Msg("all layers enabled")
}

// None disables every known layer.
func (ls *Layers) None() {
	ls.e.layers.None()
	ls.e.logDebug().Msg("all layers disabled")
}

// IsEnabled reports whether a layer is enabled. Unknown layers are enabled.
func (ls *Layers) IsEnabled(name string) bool {
	return ls.e.layers.IsEnabled(name)
}

// Enabled returns the enabled layers.
func (ls *Layers) Enabled() []string {
	return ls.e.layers.Enabled()
}

// Known returns every layer name the engine has seen.
func (ls *Layers) Known() []string {
	return ls.e.layers.Known()
}

// Layer is a handle over a group of layer names. Listeners registered
// through it are tagged with its names and can be removed together.
type Layer struct {
	e       *Engine
	names   []string
	enabled bool

	mu  sync.Mutex
	ids []string
}

// Names returns the handle's layer names.
func (l *Layer) Names() []string {
	return slices.Clone(l.names)
}

// Enable enables every name of the handle.
func (l *Layer) Enable() {
	l.e.layers.Enable(l.names...)
}

// Disable disables every name of the handle.
func (l *Layer) Disable() {
	l.e.layers.Disable(l.names...)
}

// Toggle flips the handle's names together and returns the new state.
func (l *Layer) Toggle() bool {
	return l.e.layers.Toggle(l.names...)
}

// IsEnabled reports whether any of the handle's names is enabled.
func (l *Layer) IsEnabled() bool {
	return l.e.layers.AnyEnabled(l.names)
}

// Listen registers reqs tagged with the handle's names.
func (l *Layer) Listen(reqs ...keymap.Request) (Unlisten, error) {
	tagged := make([]keymap.Request, len(reqs))
	for i, req := range reqs {
		req.Config.Layers = append(slices.Clone(req.Config.Layers), l.names...)
		tagged[i] = req
	}

	// Names this handle introduces start in the handle's initial state.
	l.e.layers.Register(l.enabled, l.names...)

	ids, err := l.e.listen(tagged)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.ids = append(l.ids, ids...)
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.forget(ids)
			l.e.remove(ids)
		})
	}, nil
}

// Off removes every listener registered through the handle.
func (l *Layer) Off() {
	l.mu.Lock()
	ids := l.ids
	l.ids = nil
	l.mu.Unlock()

	l.e.remove(ids)
}

func (l *Layer) forget(ids []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = slices.DeleteFunc(l.ids, func(id string) bool {
		return slices.Contains(ids, id)
	})
}
