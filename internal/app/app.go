// Package app wires configuration, keymaps, an engine and a host into a
// running keybind session, and reloads keymaps when their files change.
package app

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dshills/keybind/internal/config"
	"github.com/dshills/keybind/internal/config/watcher"
	"github.com/dshills/keybind/internal/input"
	"github.com/dshills/keybind/internal/input/condition"
	"github.com/dshills/keybind/internal/input/keymap"
	"github.com/dshills/keybind/internal/logging"
)

// Application owns one engine and the keymaps registered on it.
type Application struct {
	mu sync.Mutex

	cfg      *config.Config
	logger   zerolog.Logger
	engine   *input.Engine
	actions  keymap.ActionSet
	fallback func(string) keymap.Handler
	scope    *condition.Scope
	watcher  *watcher.Watcher

	// Registered keymaps by source, in load order.
	sources  []string
	unlisten map[string]input.Unlisten

	running atomic.Bool
	done    chan struct{}
	quit    sync.Once
}

// Options configures the application.
type Options struct {
	// Config is the session configuration. Defaults to config.Default().
	Config *config.Config

	// Host delivers key events to the engine.
	Host input.Host

	// Actions resolves keymap action names.
	Actions keymap.ActionSet

	// Fallback, when set, supplies handlers for actions missing from
	// Actions, so reloaded keymaps may introduce new action names.
	Fallback func(action string) keymap.Handler

	// Scope supplies variables to keymap "when" conditions.
	// Defaults to an empty scope.
	Scope *condition.Scope

	// Logger overrides the logger built from Config.
	Logger *zerolog.Logger
}

// New creates an application and its engine. Keymaps are not loaded until
// Load is called.
func New(ctx context.Context, opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	logger := logging.New(cfg.Logging())
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	scope := opts.Scope
	if scope == nil {
		scope = condition.NewScope()
	}

	engineOpts := cfg.EngineOptions()
	engineOpts.Host = opts.Host

	app := &Application{
		cfg:      cfg,
		logger:   logger.With().Str("component", "app").Logger(),
		actions:  opts.Actions,
		fallback: opts.Fallback,
		scope:    scope,
		unlisten: make(map[string]input.Unlisten),
		done:     make(chan struct{}),
	}
	app.engine = input.New(logging.WithContext(ctx, logger), engineOpts)

	return app, nil
}

// Load registers the configured keymaps, or the default keymap when none
// are configured. Keymaps that fail to load are skipped and reported in
// the returned error.
func (app *Application) Load() error {
	if len(app.cfg.Keymaps) == 0 && len(app.cfg.KeymapDirs) == 0 {
		return app.Register(keymap.DefaultKeymap())
	}

	kms, loadErr := app.cfg.LoadKeymaps()
	errs := []error{loadErr}
	for _, km := range kms {
		errs = append(errs, app.Register(km))
	}
	return errors.Join(errs...)
}

// Register adds km's bindings to the engine, replacing any keymap
// previously registered from the same source.
func (app *Application) Register(km *keymap.Keymap) error {
	reqs, err := km.Requests(app.resolve(km), app.scope)
	if err != nil {
		return err
	}
	unlisten, err := app.engine.Listen(reqs...)
	if err != nil {
		return &keymap.LoadError{Path: km.Source, Binding: -1, Err: err}
	}

	app.mu.Lock()
	prev := app.unlisten[km.Source]
	app.unlisten[km.Source] = unlisten
	if !slices.Contains(app.sources, km.Source) {
		app.sources = append(app.sources, km.Source)
	}
	app.mu.Unlock()

	if prev != nil {
		prev()
	}
	app.logger.Debug().Str("keymap", km.Name).Str("source", km.Source).Int("bindings", len(reqs)).Msg("keymap registered")
	return nil
}

// resolve returns the action set for km, filling missing actions from the
// fallback.
func (app *Application) resolve(km *keymap.Keymap) keymap.ActionSet {
	if app.fallback == nil {
		return app.actions
	}
	set := make(keymap.ActionSet, len(app.actions))
	for name, h := range app.actions {
		set[name] = h
	}
	for _, name := range km.Actions() {
		if set[name] == nil {
			set[name] = app.fallback(name)
		}
	}
	return set
}

// Unregister removes the listeners registered from source.
func (app *Application) Unregister(source string) {
	app.mu.Lock()
	unlisten := app.unlisten[source]
	delete(app.unlisten, source)
	app.sources = slices.DeleteFunc(app.sources, func(s string) bool { return s == source })
	app.mu.Unlock()

	if unlisten != nil {
		unlisten()
	}
}

// Sources returns the sources of the registered keymaps in load order.
func (app *Application) Sources() []string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return slices.Clone(app.sources)
}

// Reload reloads the keymap file at path. A file that no longer loads
// keeps its previous bindings; a removed file drops them.
func (app *Application) Reload(path string, removed bool) error {
	if removed {
		app.Unregister(path)
		app.logger.Info().Str("source", path).Msg("keymap removed")
		return nil
	}

	km, err := keymap.NewLoader().LoadFile(path)
	if err != nil {
		app.logger.Warn().Err(err).Str("source", path).Msg("keymap reload failed")
		return err
	}
	km.Source = path
	if err := app.Register(km); err != nil {
		app.logger.Warn().Err(err).Str("source", path).Msg("keymap reload failed")
		return err
	}
	app.logger.Info().Str("source", path).Msg("keymap reloaded")
	return nil
}

// Start subscribes the engine to its host and, when configured, starts
// watching keymap files.
func (app *Application) Start() error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	app.engine.Init()

	if app.cfg.Watch {
		if err := app.startWatcher(); err != nil {
			app.running.Store(false)
			app.engine.Stop()
			return &InitError{Component: "watcher", Err: err}
		}
	}
	return nil
}

func (app *Application) startWatcher() error {
	w, err := watcher.New(
		watcher.WithDebounce(app.cfg.Debounce),
		watcher.WithLogger(app.logger),
	)
	if err != nil {
		return err
	}

	files, dirs := app.cfg.WatchPaths()
	for _, f := range files {
		if err := w.Watch(f); err != nil {
			_ = w.Close()
			return err
		}
	}
	for _, d := range dirs {
		for _, pattern := range []string{"*.json", "*.yaml", "*.yml", "*.toml"} {
			if err := w.WatchDir(d, pattern); err != nil {
				_ = w.Close()
				return err
			}
		}
	}

	w.OnChange(app.onFileChange)
	w.Start()

	app.mu.Lock()
	app.watcher = w
	app.mu.Unlock()
	return nil
}

// onFileChange maps a watcher event back to the keymap source it affects.
func (app *Application) onFileChange(ev watcher.Event) {
	source := app.sourceFor(ev.Path)
	removed := ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename
	_ = app.Reload(source, removed)
}

// sourceFor returns the registered source naming the same file as path,
// or path itself.
func (app *Application) sourceFor(path string) string {
	app.mu.Lock()
	defer app.mu.Unlock()

	for _, s := range app.sources {
		if abs, err := filepath.Abs(s); err == nil && abs == path {
			return s
		}
	}
	return path
}

// Wait blocks until Quit is called or ctx is done.
func (app *Application) Wait(ctx context.Context) error {
	select {
	case <-app.done:
		return ErrQuit
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Quit asks Wait to return ErrQuit. Actions call it.
func (app *Application) Quit() {
	app.quit.Do(func() { close(app.done) })
}

// Done is closed once Quit has been called.
func (app *Application) Done() <-chan struct{} {
	return app.done
}

// Shutdown stops watching, destroys the engine and waits for pending
// gates. It is safe to call more than once.
func (app *Application) Shutdown() {
	app.mu.Lock()
	w := app.watcher
	app.watcher = nil
	app.mu.Unlock()

	if w != nil {
		if err := w.Close(); err != nil {
			app.logger.Warn().Err(err).Msg("closing watcher")
		}
	}

	app.engine.Destroy()
	app.engine.Wait()
	app.running.Store(false)
}

// IsRunning reports whether Start has been called without Shutdown.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Engine returns the engine.
func (app *Application) Engine() *input.Engine {
	return app.engine
}

// Scope returns the condition scope shared by every keymap.
func (app *Application) Scope() *condition.Scope {
	return app.scope
}

// Config returns the configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *zerolog.Logger {
	return &app.logger
}
