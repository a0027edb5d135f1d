package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dshills/keybind/internal/input/fuzzy"
	"github.com/dshills/keybind/internal/input/keymap"
)

var matchStyle = lipgloss.NewStyle().Bold(true).Underline(true)

// entry is one binding of a loaded keymap.
type entry struct {
	source  string
	binding keymap.Binding
}

func (e entry) fields() []string {
	return append([]string{e.binding.Action, e.binding.Description}, e.binding.Keys...)
}

func newListCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List bindings, optionally filtered by a fuzzy query",
		Long: `List the bindings of the configured keymaps, or of the built-in
keymap when none are configured. A query is matched fuzzily against each
binding's action, description and keys, and results are ranked best first.`,
		Example: `  keybind list
  keybind list save
  keybind list -n 3 cs`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kms := []*keymap.Keymap{keymap.DefaultKeymap()}
			if len(c.cfg.Keymaps) > 0 || len(c.cfg.KeymapDirs) > 0 {
				var err error
				if kms, err = c.cfg.LoadKeymaps(); err != nil {
					return err
				}
			}

			var entries []entry
			for _, km := range kms {
				for _, b := range km.Bindings {
					entries = append(entries, entry{source: km.Source, binding: b})
				}
			}

			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			results := fuzzy.Filter(query, entries, entry.fields, limit)
			if len(results) == 0 {
				return fmt.Errorf("no bindings match %q", query)
			}
			return printEntries(c, results)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n bindings (0 for all)")
	return cmd
}

func printEntries(c *cli, results []fuzzy.Result[entry]) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tKEYS\tDESCRIPTION\tSOURCE")
	for _, r := range results {
		b := r.Value.binding
		mark := func(text string) string {
			if text != r.Field {
				return text
			}
			return fuzzy.Highlight(text, r.Positions, func(s string) string { return matchStyle.Render(s) })
		}
		keys := make([]string, len(b.Keys))
		for i, k := range b.Keys {
			keys[i] = mark(k)
		}
		action, desc := mark(b.Action), mark(b.Description)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", action, strings.Join(keys, " "), desc, r.Value.source)
	}
	return tw.Flush()
}
