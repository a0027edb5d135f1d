package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/keybind/internal/host/terminal"
	"github.com/dshills/keybind/internal/input"
	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/logging"
)

func newRecordCmd(c *cli) *cobra.Command {
	var (
		count   int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Print the sequences of the chords typed in the terminal",
		Long: `Record chords typed in the terminal and print them as key sequences,
ready to paste into a keymap file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			chords, err := record(cmd.Context(), c, count, timeout)
			for _, seq := range chords {
				fmt.Fprintln(c.out, seq)
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of chords to record")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "give up after this long (0 waits forever)")
	return cmd
}

func record(ctx context.Context, c *cli, count int, timeout time.Duration) ([]key.Sequence, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	screen, err := c.openScreen()
	if err != nil {
		return nil, err
	}
	defer screen.Fini()

	host := terminal.New(screen)
	opts := c.cfg.EngineOptions()
	opts.Host = host
	engine := input.New(logging.WithContext(ctx, c.logger), opts)
	defer engine.Destroy()
	engine.Init()

	rec := engine.StartRecording(count)
	newDisplay(screen, fmt.Sprintf("Press %d chord(s) to record", count))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		_ = host.Run(runCtx, nil)
	}()

	var chords []key.Sequence
	for len(chords) < count {
		select {
		case seq := <-rec.Chords():
			chords = append(chords, seq)
		case <-ctx.Done():
			chords = append(chords, rec.Stop()...)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return chords, fmt.Errorf("recorded %d of %d chords before timeout", len(chords), count)
			}
			return chords, ctx.Err()
		}
	}
	rec.Stop()
	return chords, nil
}

// openScreen creates and initialises the terminal screen.
func (c *cli) openScreen() (tcell.Screen, error) {
	newScreen := c.newScreen
	if newScreen == nil {
		newScreen = tcell.NewScreen
	}
	screen, err := newScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	return screen, nil
}
