package event

import (
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
)

// Bus is a synchronous, typed publish/subscribe hub.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   []*subscription[T] // Sorted by priority, then subscription order
	closed bool

	nextID  atomic.Uint64
	onError func(error)
}

// BusOption configures a Bus.
type BusOption func(*busConfig)

type busConfig struct {
	onError func(error)
}

// WithErrorHandler sets the callback that receives handler panics wrapped in
// a *HandlerError. Without one, panics are recovered and dropped.
func WithErrorHandler(fn func(error)) BusOption {
	return func(c *busConfig) {
		c.onError = fn
	}
}

// NewBus creates an empty bus.
func NewBus[T any](opts ...BusOption) *Bus[T] {
	var cfg busConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Bus[T]{
		subs:    make([]*subscription[T], 0),
		onError: cfg.onError,
	}
}

// Subscribe registers fn for every subsequent Publish.
func (b *Bus[T]) Subscribe(fn Handler[T], opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}

	cfg := DefaultSubscriptionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sub := &subscription[T]{
		id:      "sub-" + strconv.FormatUint(b.nextID.Add(1), 10),
		config:  cfg,
		handler: fn,
		remove:  b.remove,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	// Insert after every subscription with the same or lower priority.
	i := slices.IndexFunc(b.subs, func(s *subscription[T]) bool {
		return s.config.Priority > cfg.Priority
	})
	if i < 0 {
		i = len(b.subs)
	}
	b.subs = slices.Insert(b.subs, i, sub)

	return sub, nil
}

// Publish delivers v to every active subscription and returns the number
// of handlers invoked.
func (b *Bus[T]) Publish(v T) int {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return 0
	}
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if s.config.Once {
			if !s.state.CompareAndSwap(int32(SubscriptionStateActive), int32(SubscriptionStateCancelled)) {
				continue
			}
			b.remove(s)
		} else if !s.IsActive() {
			continue
		}
		b.deliver(s, v)
		delivered++
	}
	return delivered
}

// Len returns the number of live subscriptions.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close cancels every subscription. Publish becomes a no-op and Subscribe
// fails with ErrBusClosed.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.closed = true
	b.mu.Unlock()

	for _, s := range subs {
		s.state.Store(int32(SubscriptionStateCancelled))
	}
}

func (b *Bus[T]) deliver(s *subscription[T], v T) {
	defer func() {
		if r := recover(); r != nil && b.onError != nil {
			b.onError(panicError(s.id, r))
		}
	}()
	s.handler(v)
}

func (b *Bus[T]) remove(s *subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs = slices.DeleteFunc(b.subs, func(other *subscription[T]) bool {
		return other == s
	})
}
