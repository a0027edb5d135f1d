package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/keybind/internal/input/key"
)

// parsedSequence is the JSON form printed by parse --json.
type parsedSequence struct {
	Input     string   `json:"input"`
	Canonical string   `json:"canonical,omitempty"`
	Platform  string   `json:"platform,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
	Key       string   `json:"key,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func newParseCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <sequence>...",
		Short: "Validate key sequences and print their canonical form",
		Example: `  keybind parse control_s macos:meta_shift_z alt_$num
  keybind parse --json no-macos:control_c`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]parsedSequence, 0, len(args))
			failed := 0
			for _, arg := range args {
				r := describe(arg)
				if r.Error != "" {
					failed++
				}
				results = append(results, r)
			}

			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
				for _, r := range results {
					if r.Error != "" {
						fmt.Fprintf(tw, "%s\terror: %s\n", r.Input, r.Error)
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\n", r.Input, r.Canonical)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d sequences invalid: %w", failed, len(args), key.ErrInvalidSequence)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func describe(input string) parsedSequence {
	r := parsedSequence{Input: input}
	seq, err := key.Parse(input)
	if err != nil {
		r.Error = err.Error()
		return r
	}

	r.Canonical = seq.String()
	r.Platform = string(seq.Platform)
	for _, m := range seq.ModifierList() {
		r.Modifiers = append(r.Modifiers, m.Name())
	}
	r.Key = string(seq.Key)
	return r
}
