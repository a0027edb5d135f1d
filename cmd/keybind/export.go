package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/keybind/internal/input/keymap"
)

func newExportCmd(c *cli) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the built-in keymap as a starting point",
		Long: `Write the built-in keymap.

With a file argument the format follows the file extension; otherwise the
keymap is printed in the format given by --format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			km := keymap.DefaultKeymap()
			if len(args) == 1 {
				if err := km.SaveFile(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.errOut, "wrote %s\n", args[0])
				return nil
			}

			data, err := km.Marshal(keymap.Format(format))
			if err != nil {
				return err
			}
			_, err = c.out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(keymap.FormatYAML), "output format (json, yaml, toml)")
	return cmd
}
