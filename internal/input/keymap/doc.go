// Package keymap provides listener registration for the keybind engine.
//
// A listener pairs one or more key sequences with a handler and a Config
// describing when it may fire. Listeners are kept in a Registry in
// registration order; that order is also the order in which matching
// listeners run.
//
// # Requests
//
// Listeners are created from Requests:
//
//	req := keymap.Request{
//	    Keys: []string{"control_s", "macos:meta_s"},
//	    Run: func(c *keymap.Context) error {
//	        return save()
//	    },
//	    Config: keymap.Config{PreventDefault: true, IgnoreIfEditable: true},
//	}
//
// Normalize validates a request once, at registration time: it must name at
// least one sequence, every sequence must parse, and the handler must be set.
// A request naming "any" is reduced to the single wildcard sequence.
//
// # Gates
//
// Config.When is a Gate consulted after the focus checks. Gates wrapped with
// Async may block; the engine evaluates them off the event goroutine.
//
// # Keymap Files
//
// Keymap files (JSON, YAML or TOML) declare bindings by action name:
//
//	name: editor
//	layers: [editing]
//	bindings:
//	  - keys: [control_s, macos:meta_s]
//	    action: file.save
//	    prevent: true
//	    when: mode == "normal"
//
// Loader reads them and Keymap.Requests resolves actions through an
// ActionSet. "when" expressions are compiled to Lua conditions.
package keymap
