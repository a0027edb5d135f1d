// Package input implements the keybind matching engine.
//
// An Engine receives raw key events from a Host, tracks which keys and
// modifiers are held, and fires the registered listeners whose key sequences
// match the live chord. Listeners are declared with keymap.Request values and
// can be scoped by focus, editability, layers and dynamic gates.
//
// # Usage
//
//	engine := input.New(ctx, input.Options{Host: host})
//	engine.Init()
//	defer engine.Destroy()
//
//	unlisten, err := engine.Listen(keymap.Request{
//	    Keys: []string{"control_s", "macos:meta_s"},
//	    Run: func(c *keymap.Context) error {
//	        return save()
//	    },
//	    Config: keymap.Config{PreventDefault: true},
//	})
//
// # Matching
//
// A listener is a candidate when any of its sequences matches: the wildcard
// "any" always matches; a platform qualifier must agree with the resolved
// platform; the held modifiers must equal the sequence's modifiers exactly;
// the key must be held, or be "$num" while a digit is held. Candidates run
// in registration order after passing the editable, focus, dynamic and layer
// gates.
//
// # Concurrency
//
// Events are processed on the goroutine that delivers them. Handlers, gates
// and subscribers run without the engine lock held and may call back into
// the engine. Gates wrapped with keymap.Async run on their own goroutine;
// Wait blocks until they finish.
package input
