package condition

import (
	"context"
	"errors"
	"testing"
)

func TestConditionEval(t *testing.T) {
	tests := []struct {
		expr string
		vars map[string]any
		want bool
	}{
		{"true", nil, true},
		{"false", nil, false},
		{"nil", nil, false},
		{"0", nil, true},
		{`mode == "normal"`, map[string]any{"mode": "normal"}, true},
		{`mode == "normal"`, map[string]any{"mode": "insert"}, false},
		{"not readonly", nil, true},
		{"not readonly", map[string]any{"readonly": true}, false},
		{"template ~= nil and template < 5", map[string]any{"template": 3}, true},
		{"template ~= nil and template < 5", map[string]any{"template": 7}, false},
		{"#layers == 2", map[string]any{"layers": []string{"a", "b"}}, true},
		{`string.sub(key, 1, 5) == "arrow"`, map[string]any{"key": "arrow-up"}, true},
		{"math.max(1, n) == n", map[string]any{"n": 4.0}, true},
	}

	for _, tt := range tests {
		c, err := Compile(tt.expr)
		if err != nil {
			t.Errorf("Compile(%q) error = %v", tt.expr, err)
			continue
		}
		got, err := c.Eval(context.Background(), tt.vars)
		if err != nil {
			t.Errorf("Eval(%q) error = %v", tt.expr, err)
		} else if got != tt.want {
			t.Errorf("Eval(%q, %v) = %v, want %v", tt.expr, tt.vars, got, tt.want)
		}
		c.Close()
	}
}

func TestConditionCompileErrors(t *testing.T) {
	if _, err := Compile(""); !errors.Is(err, ErrEmptyExpression) {
		t.Errorf("Compile(\"\") error = %v, want ErrEmptyExpression", err)
	}
	if _, err := Compile("mode =="); !errors.Is(err, ErrCompile) {
		t.Errorf("Compile(bad) error = %v, want ErrCompile", err)
	}
}

func TestConditionRuntimeError(t *testing.T) {
	c := MustCompile("count + 1 > 0")
	defer c.Close()

	if _, err := c.Eval(context.Background(), nil); !errors.Is(err, ErrEvaluate) {
		t.Errorf("Eval error = %v, want ErrEvaluate", err)
	}
	// The state stays usable after a failed evaluation.
	ok, err := c.Eval(context.Background(), map[string]any{"count": 1})
	if err != nil || !ok {
		t.Errorf("Eval after error = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestConditionSandbox(t *testing.T) {
	for _, expr := range []string{"os.exit(1)", "io.open('/etc/passwd')", "require('os')", "loadstring('return 1')()"} {
		c, err := Compile(expr)
		if err != nil {
			continue
		}
		if _, err := c.Eval(context.Background(), nil); err == nil {
			t.Errorf("Eval(%q) should fail in the sandbox", expr)
		}
		c.Close()
	}
}

func TestConditionVarsDoNotLeak(t *testing.T) {
	c := MustCompile("flag == true")
	defer c.Close()

	if ok, _ := c.Eval(context.Background(), map[string]any{"flag": true}); !ok {
		t.Fatal("flag should be visible")
	}
	if ok, _ := c.Eval(context.Background(), nil); ok {
		t.Error("flag from a previous evaluation leaked")
	}
}

func TestConditionClosed(t *testing.T) {
	c := MustCompile("true")
	c.Close()
	c.Close()
	if _, err := c.Eval(context.Background(), nil); !errors.Is(err, ErrEvaluate) {
		t.Errorf("Eval on closed condition error = %v", err)
	}
}

func TestScope(t *testing.T) {
	s := NewScope()
	s.Set("mode", "normal")
	if v, ok := s.Get("mode"); !ok || v != "normal" {
		t.Errorf("Get(mode) = (%v, %v)", v, ok)
	}

	snap := s.Snapshot()
	s.Set("mode", "insert")
	if snap["mode"] != "normal" {
		t.Error("Snapshot should be a copy")
	}

	s.Delete("mode")
	if _, ok := s.Get("mode"); ok {
		t.Error("Delete did not remove the variable")
	}

	var nilScope *Scope
	if nilScope.Snapshot() == nil {
		t.Error("nil scope snapshot should be an empty map")
	}
}
