package keymap

// DefaultKeymap returns the built-in demo keymap used by the command line
// tool when no keymap files are configured.
func DefaultKeymap() *Keymap {
	return &Keymap{
		Name:   "default",
		Source: "default",
		Bindings: []Binding{
			// Application
			{Keys: []string{"not-macos:control_q", "macos:meta_q"}, Action: "app.quit", Description: "Quit", Prevent: true},
			{Keys: []string{"shift_slash"}, Action: "app.help", Description: "Show key bindings", IgnoreIfEditable: true},
			{Keys: []string{"escape"}, Action: "app.cancel", Description: "Cancel", OnRelease: true},

			// Documents
			{Keys: []string{"not-macos:control_s", "macos:meta_s"}, Action: "doc.save", Description: "Save", Prevent: true, Stop: "local"},
			{Keys: []string{"not-macos:control_z", "macos:meta_z"}, Action: "doc.undo", Description: "Undo", Prevent: true},
			{Keys: []string{"not-macos:control_shift_z", "macos:meta_shift_z"}, Action: "doc.redo", Description: "Redo", Prevent: true},

			// Tabs
			{Keys: []string{"alt_$num"}, Action: "tab.select", Description: "Select tab by number", Prevent: true},
			{Keys: []string{"control_tab"}, Action: "tab.next", Description: "Next tab", Layers: []string{"tabs"}},
			{Keys: []string{"control_shift_tab"}, Action: "tab.previous", Description: "Previous tab", Layers: []string{"tabs"}},

			// Navigation
			{Keys: []string{"arrow-up", "k"}, Action: "cursor.up", Description: "Move up", IgnoreIfEditable: true, Layers: []string{"navigation"}},
			{Keys: []string{"arrow-down", "j"}, Action: "cursor.down", Description: "Move down", IgnoreIfEditable: true, Layers: []string{"navigation"}},
			{Keys: []string{"g"}, Action: "cursor.top", Description: "Go to top", IgnoreIfEditable: true, Layers: []string{"navigation"}, When: "not readonly"},
		},
	}
}

// DefaultActions returns the action names used by DefaultKeymap.
func DefaultActions() []string {
	return DefaultKeymap().Actions()
}
