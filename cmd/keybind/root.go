package main

import (
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/keybind/internal/config"
	"github.com/dshills/keybind/internal/logging"
)

// cli holds state shared by the subcommands.
type cli struct {
	out    io.Writer
	errOut io.Writer

	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     zerolog.Logger

	// newScreen creates the terminal screen. Defaults to tcell.NewScreen.
	newScreen func() (tcell.Screen, error)

	// teaInput replaces the terminal as Bubble Tea input.
	teaInput io.Reader
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{
		out:    out,
		errOut: errOut,
		v:      config.NewViper(),
		logger: zerolog.Nop(),
	}
}

func newRootCmd(c *cli) *cobra.Command {

	root := &cobra.Command{
		Use:   "keybind",
		Short: "Declarative keyboard shortcuts",
		Long: `keybind works with keyboard shortcut keymaps.

Key sequences are written as [platform:](modifier_)*key, for example
"control_s", "macos:meta_shift_z", "alt_$num" or "any". Modifiers must
appear in the order meta, control, alt, shift.

Keymap files are JSON, YAML or TOML documents listing bindings from key
sequences to named actions.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion":
				return nil
			}
			return c.load()
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configFile, "config", "c", "", "config file (default: keybind.{toml,yaml,json} in the user config dir or .)")
	flags.Bool("debug", false, "log every press, release, match and fire")
	flags.String("platform", "", "fix the platform (macos, windows, linux) instead of detecting it")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")

	c.bind(root, "debug", config.KeyDebug)
	c.bind(root, "platform", config.KeyPlatform)
	c.bind(root, "log-level", config.KeyLogLevel)
	c.bind(root, "log-format", config.KeyLogFormat)

	root.AddCommand(
		newParseCmd(c),
		newCheckCmd(c),
		newExportCmd(c),
		newListCmd(c),
		newRecordCmd(c),
		newRunCmd(c),
	)
	return root
}

// load reads the configuration once flags are parsed.
func (c *cli) load() error {
	if c.configFile != "" {
		c.v.SetConfigFile(c.configFile)
	}
	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg

	lc := cfg.Logging()
	lc.Output = c.errOut
	c.logger = logging.New(lc)
	return nil
}

// bind ties a flag of cmd to a viper key. A flag overrides the config file
// and environment only when it is set.
func (c *cli) bind(cmd *cobra.Command, name, key string) {
	flag := cmd.PersistentFlags().Lookup(name)
	if flag == nil {
		flag = cmd.Flags().Lookup(name)
	}
	if flag == nil {
		panic("keybind: binding unknown flag " + name)
	}
	if err := c.v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
