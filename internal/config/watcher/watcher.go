// Package watcher reports changes to keymap files for live reload.
//
// Files are watched through their parent directories so that editors which
// save by writing a temporary file and renaming it over the original are
// still seen. Bursts of events for one file are coalesced by a debounce
// window before handlers run.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Event represents a file change event.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Op is the operation that triggered the event.
	Op Operation

	// Time is when the event occurred.
	Time time.Time
}

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates a new file was created.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed away.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called when a file change is detected.
type Handler func(event Event)

// Watcher monitors files for changes.
type Watcher struct {
	mu sync.RWMutex

	fsw *fsnotify.Watcher

	// Watched files, directories with their reference counts, and glob
	// patterns registered per directory.
	files    map[string]struct{}
	dirs     map[string]int
	patterns map[string][]string

	handlers []Handler
	logger   zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	debounce     time.Duration
	pendingMu    sync.Mutex
	pendingFiles map[string]pendingEvent
}

// pendingEvent stores a pending event with its operation for debouncing.
type pendingEvent struct {
	Op   Operation
	Time time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce duration for rapid changes.
// Zero delivers every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger used for watch errors.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New creates a new file watcher.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:          fsw,
		files:        make(map[string]struct{}),
		dirs:         make(map[string]int),
		patterns:     make(map[string][]string),
		logger:       zerolog.Nop(),
		debounce:     100 * time.Millisecond,
		pendingFiles: make(map[string]pendingEvent),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Watch adds a file to the watch list. The file need not exist yet, but
// its directory must.
func (w *Watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[absPath]; ok {
		return nil
	}
	if err := w.addDirLocked(filepath.Dir(absPath)); err != nil {
		return err
	}
	w.files[absPath] = struct{}{}
	return nil
}

// Unwatch removes a file from the watch list.
func (w *Watcher) Unwatch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[absPath]; !ok {
		return nil
	}
	delete(w.files, absPath)
	return w.removeDirLocked(filepath.Dir(absPath))
}

// WatchDir watches every file in dir whose base name matches pattern,
// including files created later.
func (w *Watcher) WatchDir(dir string, pattern string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if slices.Contains(w.patterns[absDir], pattern) {
		return nil
	}
	if err := w.addDirLocked(absDir); err != nil {
		return err
	}
	w.patterns[absDir] = append(w.patterns[absDir], pattern)
	return nil
}

func (w *Watcher) addDirLocked(dir string) error {
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	return nil
}

func (w *Watcher) removeDirLocked(dir string) error {
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return nil
	}
	delete(w.dirs, dir)
	if err := w.fsw.Remove(dir); err != nil {
		return fmt.Errorf("unwatch %s: %w", dir, err)
	}
	return nil
}

// OnChange registers a handler for file change events.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins delivering events.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.eventLoop()

	if w.debounce > 0 {
		w.wg.Add(1)
		go w.debounceLoop()
	}
}

// Stop stops delivering events. The watch list is kept and Start may be
// called again.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.running = false
	w.mu.Unlock()

	w.wg.Wait()
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.Stop()
	return w.fsw.Close()
}

// IsRunning returns whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedFiles returns the watched files, sorted.
func (w *Watcher) WatchedFiles() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	files := make([]string, 0, len(w.files))
	for path := range w.files {
		files = append(files, path)
	}
	slices.Sort(files)
	return files
}

// eventLoop reads fsnotify events until stopped.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

// handleFSEvent filters and dispatches an fsnotify event.
func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op, ok := convertOp(fsEvent.Op)
	if !ok {
		return
	}

	path := filepath.Clean(fsEvent.Name)
	if !w.matches(path) {
		return
	}

	event := Event{Path: path, Op: op, Time: time.Now()}
	if w.debounce > 0 {
		w.queueEvent(event)
	} else {
		w.emitEvent(event)
	}
}

// matches reports whether path is watched directly or by a directory pattern.
func (w *Watcher) matches(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if _, ok := w.files[path]; ok {
		return true
	}
	base := filepath.Base(path)
	for _, pattern := range w.patterns[filepath.Dir(path)] {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// convertOp converts fsnotify.Op. Chmod-only events are dropped.
func convertOp(fsOp fsnotify.Op) (Operation, bool) {
	switch {
	case fsOp.Has(fsnotify.Remove):
		return OpRemove, true
	case fsOp.Has(fsnotify.Rename):
		return OpRename, true
	case fsOp.Has(fsnotify.Create):
		return OpCreate, true
	case fsOp.Has(fsnotify.Write):
		return OpWrite, true
	}
	return 0, false
}

// queueEvent queues an event for debounced delivery, coalescing with any
// pending event for the same path:
//   - remove or rename replaces whatever is pending
//   - create replaces a pending write, remove or rename
//   - write keeps a pending create
func (w *Watcher) queueEvent(event Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	op := event.Op
	if existing, ok := w.pendingFiles[event.Path]; ok && event.Op == OpWrite && existing.Op == OpCreate {
		op = OpCreate
	}
	w.pendingFiles[event.Path] = pendingEvent{Op: op, Time: event.Time}
}

// debounceLoop processes debounced events.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.processPendingEvents(time.Now())
		}
	}
}

// processPendingEvents emits events that have been stable for the
// debounce window.
func (w *Watcher) processPendingEvents(now time.Time) {
	w.pendingMu.Lock()
	stableThreshold := now.Add(-w.debounce)

	var toEmit []Event
	for path, pending := range w.pendingFiles {
		if pending.Time.Before(stableThreshold) {
			toEmit = append(toEmit, Event{
				Path: path,
				Op:   pending.Op,
				Time: pending.Time,
			})
			delete(w.pendingFiles, path)
		}
	}
	w.pendingMu.Unlock()

	slices.SortFunc(toEmit, func(a, b Event) int {
		return a.Time.Compare(b.Time)
	})
	for _, event := range toEmit {
		w.emitEvent(event)
	}
}

// emitEvent calls all handlers with the event.
func (w *Watcher) emitEvent(event Event) {
	w.mu.RLock()
	handlers := slices.Clone(w.handlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		w.safeCallHandler(handler, event)
	}
}

// safeCallHandler calls a handler, logging a panic instead of letting it
// stop the watcher goroutine.
func (w *Watcher) safeCallHandler(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Interface("panic", r).Str("path", event.Path).Msg("watch handler panicked")
		}
	}()
	handler(event)
}
