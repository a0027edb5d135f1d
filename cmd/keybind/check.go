package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/keybind/internal/config"
	"github.com/dshills/keybind/internal/input/keymap"
)

func newCheckCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [file]...",
		Short: "Load and validate keymap files",
		Long: `Load and validate keymap files.

Without arguments the keymaps named in the configuration are checked.
Every binding's key sequences, stop policy and "when" condition are
validated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *c.cfg
			if len(args) > 0 {
				cfg.Keymaps = args
				cfg.KeymapDirs = nil
			}
			if len(cfg.Keymaps) == 0 && len(cfg.KeymapDirs) == 0 {
				return errors.New("no keymap files given or configured")
			}
			return check(c, &cfg)
		},
	}
	return cmd
}

func check(c *cli, cfg *config.Config) error {
	kms, err := cfg.LoadKeymaps()
	for _, km := range kms {
		fmt.Fprintf(c.out, "ok    %s (%s, %d bindings)\n", km.Source, km.Name, len(km.Bindings))
	}
	if err == nil {
		return nil
	}

	failed := 0
	for _, e := range flatten(err) {
		var loadErr *keymap.LoadError
		if errors.As(e, &loadErr) {
			failed++
		}
		fmt.Fprintf(c.out, "FAIL  %v\n", e)
	}
	return fmt.Errorf("%d keymap(s) failed to load", max(failed, 1))
}

// flatten expands errors.Join trees into their leaves.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var result []error
		for _, e := range joined.Unwrap() {
			result = append(result, flatten(e)...)
		}
		return result
	}
	return []error{err}
}
