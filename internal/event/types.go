package event

// Priority determines handler execution order.
// Lower values execute first.
type Priority int

const (
	// PriorityCritical is for handlers that must observe a change first.
	PriorityCritical Priority = 0

	// PriorityHigh is for host adapters that mirror engine state.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for logging and inspection handlers that run last.
	PriorityLow Priority = 300
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Handler receives published values.
type Handler[T any] func(T)
