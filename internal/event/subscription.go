package event

import "sync/atomic"

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the subscription is receiving values.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStatePaused means the subscription is temporarily not receiving values.
	SubscriptionStatePaused

	// SubscriptionStateCancelled means the subscription has been permanently cancelled.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStatePaused:
		return "paused"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Subscription represents an active bus subscription.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// State returns the current subscription state.
	State() SubscriptionState

	// IsActive returns true if the subscription can receive values.
	IsActive() bool

	// Pause temporarily stops delivery to this subscription.
	Pause()

	// Resume restarts delivery after a pause.
	Resume()

	// Cancel permanently cancels the subscription. It is safe to call
	// more than once.
	Cancel()
}

// SubscriptionConfig contains configuration for a subscription.
type SubscriptionConfig struct {
	// Priority determines execution order (lower values execute first).
	Priority Priority

	// Once indicates the subscription should auto-cancel after the first value.
	Once bool
}

// DefaultSubscriptionConfig returns a default subscription configuration.
func DefaultSubscriptionConfig() SubscriptionConfig {
	return SubscriptionConfig{
		Priority: PriorityNormal,
	}
}

// SubscriptionOption is a function that configures a subscription.
type SubscriptionOption func(*SubscriptionConfig)

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Priority = p
	}
}

// WithOnce sets the subscription to auto-cancel after the first value.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}

type subscription[T any] struct {
	id      string
	config  SubscriptionConfig
	handler Handler[T]
	state   atomic.Int32
	remove  func(*subscription[T])
}

func (s *subscription[T]) ID() string {
	return s.id
}

func (s *subscription[T]) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

func (s *subscription[T]) IsActive() bool {
	return s.State() == SubscriptionStateActive
}

func (s *subscription[T]) Pause() {
	s.state.CompareAndSwap(int32(SubscriptionStateActive), int32(SubscriptionStatePaused))
}

func (s *subscription[T]) Resume() {
	s.state.CompareAndSwap(int32(SubscriptionStatePaused), int32(SubscriptionStateActive))
}

func (s *subscription[T]) Cancel() {
	if SubscriptionState(s.state.Swap(int32(SubscriptionStateCancelled))) == SubscriptionStateCancelled {
		return
	}
	if s.remove != nil {
		s.remove(s)
	}
}
