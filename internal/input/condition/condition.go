// Package condition evaluates "when" expressions attached to keymap
// bindings.
//
// Expressions are Lua expressions evaluated in a sandboxed state with only
// the base, string, table and math libraries available. Variables from a
// Scope and from the firing event are exposed as globals:
//
//	mode == "normal" and not readonly
//	platform ~= "macos"
//	template ~= nil and template < 5
package condition

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Errors returned by conditions.
var (
	ErrEmptyExpression = errors.New("empty condition expression")
	ErrCompile         = errors.New("condition does not compile")
	ErrEvaluate        = errors.New("condition evaluation failed")
)

// Condition is a compiled "when" expression.
//
// gopher-lua states are not goroutine safe; a Condition serialises its own
// evaluations.
type Condition struct {
	mu   sync.Mutex
	expr string
	L    *lua.LState
	fn   *lua.LFunction
}

// Compile compiles expr into a Condition.
func Compile(expr string) (*Condition, error) {
	if expr == "" {
		return nil, ErrEmptyExpression
	}

	L := newSandboxedState()
	fn, err := L.LoadString("return (" + expr + ")")
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("%w: %q: %v", ErrCompile, expr, err)
	}

	return &Condition{expr: expr, L: L, fn: fn}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Condition {
	c, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the source expression.
func (c *Condition) String() string {
	return c.expr
}

// Eval evaluates the condition with vars exposed as globals.
// The result follows Lua truthiness: only nil and false are false.
func (c *Condition) Eval(ctx context.Context, vars map[string]any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.L == nil {
		return false, fmt.Errorf("%w: %q: condition closed", ErrEvaluate, c.expr)
	}

	env := c.L.NewTable()
	for k, v := range vars {
		env.RawSetString(k, toLValue(c.L, v))
	}
	// Unknown globals fall through to the sandbox's base library.
	meta := c.L.NewTable()
	meta.RawSetString("__index", c.L.Get(lua.GlobalsIndex))
	c.L.SetMetatable(env, meta)
	c.fn.Env = env

	if ctx != nil {
		c.L.SetContext(ctx)
		defer c.L.RemoveContext()
	}

	c.L.Push(c.fn)
	if err := c.L.PCall(0, 1, nil); err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrEvaluate, c.expr, err)
	}
	ret := c.L.Get(-1)
	c.L.Pop(1)

	return lua.LVAsBool(ret), nil
}

// Close releases the Lua state.
func (c *Condition) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.L != nil {
		c.L.Close()
		c.L = nil
	}
}

// newSandboxedState creates a Lua state with only safe libraries.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, debug and package are intentionally not opened.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "print"} {
		L.SetGlobal(name, lua.LNil)
	}

	return L
}

// toLValue converts a Go value to a Lua value.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case fmt.Stringer:
		return lua.LString(val.String())
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case *int:
		if val == nil {
			return lua.LNil
		}
		return lua.LNumber(*val)
	case []string:
		tbl := L.NewTable()
		for _, s := range val {
			tbl.Append(lua.LString(s))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, toLValue(L, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprint(val))
	}
}
