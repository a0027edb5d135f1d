// Package event provides the synchronous subscription bus used to notify
// observers about engine state changes.
//
// A Bus delivers each published value to its subscribers on the publisher's
// goroutine, in priority order and then subscription order. Handlers may
// subscribe or cancel from inside a delivery; changes take effect on the
// next Publish.
//
//	bus := event.NewBus[[]keymap.Listener]()
//	sub, _ := bus.Subscribe(func(ls []keymap.Listener) {
//		fmt.Println(len(ls), "listeners")
//	})
//	defer sub.Cancel()
package event
