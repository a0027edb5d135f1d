// Package fuzzy ranks key bindings against a typed query.
//
// A query matches a text when every query rune appears in the text in
// order, ignoring case. Matches score higher when runes are consecutive,
// land on a segment boundary (after '_', ':', '.', '-' or a space) or start
// the text. Key sequence strings and dotted action names both split into
// segments at those separators, so "cs" finds "control_s" and "ts" finds
// "tab.select".
//
// Basic usage:
//
//	results := fuzzy.Filter("save", bindings, func(b keymap.Binding) []string {
//	    return append([]string{b.Action, b.Description}, b.Keys...)
//	}, 10)
//	for _, r := range results {
//	    fmt.Printf("%s (score: %d)\n", r.Value.Action, r.Score)
//	}
package fuzzy
