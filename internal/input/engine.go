package input

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/keybind/internal/event"
	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
	"github.com/dshills/keybind/internal/input/layer"
	"github.com/dshills/keybind/internal/input/press"
	"github.com/dshills/keybind/internal/logging"
)

// Engine errors.
var (
	// ErrHostUnavailable is returned by hosts that cannot deliver events,
	// for example when no terminal is attached.
	ErrHostUnavailable = errors.New("host event source unavailable")

	// ErrDestroyed is returned by operations on a destroyed engine.
	ErrDestroyed = errors.New("engine destroyed")

	// ErrGatePanic wraps a panic raised by a dynamic gate.
	ErrGatePanic = errors.New("gate panicked")

	// ErrHandlerPanic wraps a panic raised by a listener handler.
	ErrHandlerPanic = errors.New("handler panicked")
)

// Sink receives raw events from a host.
type Sink interface {
	KeyDown(e *key.Event)
	KeyUp(e *key.Event)
	Blur()
}

// Host is the environment that delivers key events to an engine.
type Host interface {
	// Subscribe starts delivering events to sink. The returned function
	// stops delivery.
	Subscribe(sink Sink) (cancel func(), err error)

	// ActiveElement returns the currently focused element, or nil.
	ActiveElement() key.Element
}

// Options configures an Engine.
type Options struct {
	// Debug logs every press, release, match, fire and removal.
	Debug bool

	// Platform fixes the platform. When empty the Detector is consulted.
	Platform key.Platform

	// Detector resolves the platform when Platform is empty.
	// Defaults to RuntimeDetector.
	Detector PlatformDetector

	// IsEditable reports whether an element accepts text input.
	// Defaults to DefaultIsEditable.
	IsEditable func(key.Element) bool

	// Host delivers events after Init. A nil host makes Init a no-op.
	Host Host
}

// Engine matches raw key events against registered listeners.
type Engine struct {
	mu sync.Mutex

	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger

	tracker  *press.Tracker
	registry *keymap.Registry
	layers   *layer.Manager
	platform key.Platform
	closed   bool

	listeners *event.Bus[[]keymap.Listener]
	recorders *event.Bus[key.Sequence]
	metrics   *Metrics
	version   uint64

	// pubMu orders snapshot delivery; see publish.
	pubMu      sync.Mutex
	pending    snapshot
	delivered  uint64
	publishing bool

	// group runs async gates and platform detection.
	group errgroup.Group

	// lifeMu serialises Init, Stop and Destroy.
	lifeMu     sync.Mutex
	hostCancel func()
	destroyed  bool
	stopParent func() bool
}

// New creates an engine. The engine takes its logger from ctx and destroys
// itself when ctx is done.
func New(ctx context.Context, opts Options) *Engine {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Detector == nil {
		opts.Detector = RuntimeDetector()
	}
	if opts.IsEditable == nil {
		opts.IsEditable = DefaultIsEditable
	}

	id := keymap.NewID()
	logger := logging.FromContext(ctx).With().
		Str("component", "keybind").
		Str("engine", id[:8]).
		Logger()
	if opts.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else if logger.GetLevel() < zerolog.InfoLevel {
		logger = logger.Level(zerolog.InfoLevel)
	}

	e := &Engine{
		opts:     opts,
		logger:   logger,
		tracker:  press.NewTracker(),
		registry: keymap.NewRegistry(),
		layers:   layer.NewManager(),
		metrics:  NewMetrics(),
	}
	e.ctx, e.cancel = context.WithCancel(logging.WithContext(context.WithoutCancel(ctx), logger))

	busErr := event.WithErrorHandler(func(err error) {
		e.logger.Error().Err(err).Msg("subscriber failed")
	})
	e.listeners = event.NewBus[[]keymap.Listener](busErr)
	e.recorders = event.NewBus[key.Sequence](busErr)

	if opts.Platform.IsKnown() {
		e.platform = opts.Platform
	} else {
		e.platform = key.PlatformUnknown
		e.detectPlatform()
	}

	e.stopParent = context.AfterFunc(ctx, e.Destroy)

	return e
}

// Init subscribes to the host. Calling Init on a running engine
// resubscribes. Without a usable host Init logs and does nothing.
func (e *Engine) Init() {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()

	if e.destroyed {
		e.logger.Debug().Msg("init after destroy ignored")
		return
	}
	e.stopLocked()

	if e.opts.Host == nil {
		e.logger.Debug().Err(ErrHostUnavailable).Msg("init skipped")
		return
	}
	cancel, err := e.opts.Host.Subscribe(e)
	if err != nil {
		e.logger.Debug().Err(err).Msg("init skipped")
		return
	}
	e.hostCancel = cancel
	e.logger.Debug().Msg("listening")
}

// Stop unsubscribes from the host. Listeners and press state are kept.
func (e *Engine) Stop() {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.hostCancel == nil {
		return
	}
	e.hostCancel()
	e.hostCancel = nil
	e.logger.Debug().Msg("stopped")
}

// Running reports whether the engine is subscribed to its host.
func (e *Engine) Running() bool {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	return e.hostCancel != nil
}

// Destroy stops the engine, removes every listener, clears press state and
// cancels pending async gates. It is idempotent.
func (e *Engine) Destroy() {
	e.lifeMu.Lock()
	if e.destroyed {
		e.lifeMu.Unlock()
		return
	}
	e.destroyed = true
	e.stopLocked()
	e.lifeMu.Unlock()

	e.mu.Lock()
	e.closed = true
	n := e.registry.Clear()
	e.tracker.Reset()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.cancel()
	e.stopParent()
	e.publish(snap)
	e.listeners.Close()
	e.recorders.Close()

	e.logger.Debug().Int("removed", n).Msg("destroyed")
}

// Destroyed reports whether Destroy has been called.
func (e *Engine) Destroyed() bool {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	return e.destroyed
}

// Wait blocks until pending async gates and platform detection finish.
func (e *Engine) Wait() {
	_ = e.group.Wait()
}

// Metrics returns the engine's metrics.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *zerolog.Logger {
	return &e.logger
}
