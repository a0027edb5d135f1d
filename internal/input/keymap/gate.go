package keymap

import "context"

// Gate decides whether a candidate listener may fire.
// An error is treated as a refusal.
type Gate interface {
	Allow(ctx context.Context, c *Context) (bool, error)
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, c *Context) (bool, error)

// Allow calls f.
func (f GateFunc) Allow(ctx context.Context, c *Context) (bool, error) {
	return f(ctx, c)
}

// Static is a constant gate.
type Static bool

// Allow returns the constant.
func (s Static) Allow(context.Context, *Context) (bool, error) {
	return bool(s), nil
}

// Predicate adapts a plain boolean function to a Gate.
func Predicate(fn func() bool) Gate {
	return GateFunc(func(context.Context, *Context) (bool, error) {
		return fn(), nil
	})
}

type asyncGate struct {
	Gate
}

// Async marks g as potentially blocking. The engine evaluates async gates
// on their own goroutine and fires the listener when the gate resolves,
// without holding up other candidates.
func Async(g Gate) Gate {
	if g == nil {
		g = Static(true)
	}
	return asyncGate{Gate: g}
}

// IsAsync reports whether g was wrapped with Async.
func IsAsync(g Gate) bool {
	_, ok := g.(asyncGate)
	return ok
}
