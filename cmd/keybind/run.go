package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/keybind/internal/app"
	"github.com/dshills/keybind/internal/config"
	"github.com/dshills/keybind/internal/host/bubble"
	"github.com/dshills/keybind/internal/host/terminal"
	"github.com/dshills/keybind/internal/input"
	"github.com/dshills/keybind/internal/input/keymap"
	"github.com/dshills/keybind/internal/logging"
)

const runTitle = "keybind run: press the quit binding (control_q, meta_q on macOS) to exit"

func newRunCmd(c *cli) *cobra.Command {
	var useTea bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Try keymaps interactively in the terminal",
		Long: `Bind every action of the configured keymaps to a message and show the
messages as the bindings fire. Without keymaps the built-in keymap is used.

The "app.quit" action exits and "app.help" lists the active bindings.
With --watch, keymap files are reloaded when they change.`,
		Example: `  keybind run
  keybind run --keymap editor.yaml --watch
  keybind run --tea --keymap-dir ~/.config/keybind/keymaps`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if useTea {
				return runTea(cmd.Context(), c)
			}
			return runTerminal(cmd.Context(), c)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceP("keymap", "k", nil, "keymap file to load (repeatable)")
	flags.StringSlice("keymap-dir", nil, "directory of keymap files to load (repeatable)")
	flags.BoolP("watch", "w", false, "reload keymap files when they change")
	flags.Duration("debounce", config.Default().Debounce, "quiet period before a changed file is reloaded")
	flags.BoolVar(&useTea, "tea", false, "use the Bubble Tea interface")

	c.bind(cmd, "keymap", config.KeyKeymaps)
	c.bind(cmd, "keymap-dir", config.KeyKeymapDirs)
	c.bind(cmd, "watch", config.KeyWatch)
	c.bind(cmd, "debounce", config.KeyDebounce)
	return cmd
}

// session bundles the callbacks actions use to report.
type session struct {
	printf func(format string, args ...any)
	quit   func()
	app    *app.Application
}

// actions returns the handlers for the built-in action names plus a
// fallback that reports any other action.
func (s *session) actions() (keymap.ActionSet, func(string) keymap.Handler) {
	report := func(name string) keymap.Handler {
		return func(hc *keymap.Context) error {
			msg := fmt.Sprintf("%-14s %s", name, hc.Sequence)
			if hc.Template != nil {
				msg += fmt.Sprintf(" (%d)", *hc.Template)
			}
			s.printf("%s", msg)
			return nil
		}
	}

	set := keymap.ActionSet{
		"app.quit": func(*keymap.Context) error {
			s.quit()
			return nil
		},
		"app.help": func(*keymap.Context) error {
			for _, l := range s.app.Engine().Listeners() {
				s.printf("  %-32s %s", strings.Join(l.Keys(), " "), l.Description)
			}
			return nil
		},
	}
	return set, report
}

// start builds and starts the application for a run session. Log
// records go to logOut.
func (s *session) start(ctx context.Context, c *cli, host input.Host, logOut io.Writer) error {
	logger := c.logger.Output(zerolog.ConsoleWriter{Out: logOut, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}})

	actions, fallback := s.actions()
	a, err := app.New(logging.WithContext(ctx, logger), app.Options{
		Config:   c.cfg,
		Host:     host,
		Actions:  actions,
		Fallback: fallback,
		Logger:   &logger,
	})
	if err != nil {
		return err
	}
	s.app = a

	if err := a.Load(); err != nil {
		s.printf("warning: %v", err)
	}
	if err := a.Start(); err != nil {
		a.Shutdown()
		return err
	}
	s.printf("%d bindings from %s", len(a.Engine().Listeners()), strings.Join(a.Sources(), ", "))
	return nil
}

func runTerminal(ctx context.Context, c *cli) error {
	screen, err := c.openScreen()
	if err != nil {
		return err
	}
	defer screen.Fini()

	disp := newDisplay(screen, runTitle)
	host := terminal.New(screen)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &session{printf: disp.printf, quit: cancel}
	if err := s.start(ctx, c, host, disp); err != nil {
		return err
	}
	defer s.app.Shutdown()

	err = host.Run(ctx, func(ev tcell.Event) {
		if _, ok := ev.(*tcell.EventResize); ok {
			screen.Sync()
			disp.draw()
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runTea(ctx context.Context, c *cli) error {
	host := bubble.NewHost()
	feed := bubble.NewFeed(256)

	s := &session{printf: feed.Printf, quit: feed.Quit}
	if err := s.start(ctx, c, host, feedWriter{feed}); err != nil {
		return err
	}
	defer s.app.Shutdown()

	model := bubble.NewModel(runTitle, host, s.app.Engine(), feed)
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithReportFocus(),
		tea.WithOutput(c.out),
	}
	if c.teaInput != nil {
		opts = append(opts, tea.WithInput(c.teaInput))
	} else {
		opts = append(opts, tea.WithAltScreen())
	}

	_, err := tea.NewProgram(model, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// feedWriter sends log records to a Bubble Tea feed.
type feedWriter struct {
	feed *bubble.Feed
}

func (w feedWriter) Write(p []byte) (int, error) {
	w.feed.Printf("%s", strings.TrimSpace(string(p)))
	return len(p), nil
}
