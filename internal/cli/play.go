package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/roach88/mheg/internal/engine"
	"github.com/roach88/mheg/internal/terminal"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	RunOptions
	LogFile string

	// NewScreen allows overriding the terminal (for testing).
	// If nil, defaults to tcell.NewScreen.
	NewScreen func() (tcell.Screen, error)
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	return newPlayCommand(&PlayOptions{RunOptions: RunOptions{RootOptions: rootOpts}})
}

func newPlayCommand(opts *PlayOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [carousel-dir]",
		Short: "Run an application on the terminal",
		Long: `Run an application with its visibles drawn on the terminal.

Keys: arrows move, Enter selects, Backspace cancels, 0-9 are digits,
r g y b (or F1-F4) are the colour keys and t (or F5) is Text.
Escape or Ctrl-C quits.

Logs would garble the display, so they are written to --log-file or
dropped.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args, cmd)
		},
	}

	addRunFlags(cmd, &opts.RunOptions)
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs to this file while playing")
	return cmd
}

func runPlay(opts *PlayOptions, args []string, cmd *cobra.Command) error {
	restore, err := redirectLogs(opts.LogFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open log file", err)
	}
	defer restore()

	newScreen := opts.NewScreen
	if newScreen == nil {
		newScreen = tcell.NewScreen
	}
	screen, err := newScreen()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open terminal", err)
	}
	if err := screen.Init(); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialise terminal", err)
	}
	defer screen.Fini()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	surface := terminal.NewSurface(screen)
	s, err := openSession(ctx, &opts.RunOptions, args, engine.WithRenderSurface(surface))
	if err != nil {
		return err
	}
	defer s.Close()
	startBackground(ctx, s)

	engineErr := make(chan error, 1)
	go func() {
		err := s.eng.Run(ctx)
		cancel()
		engineErr <- err
	}()

	if err := terminal.NewInput(screen, s.eng).Run(ctx); err != nil {
		slog.Debug("terminal input ended", "reason", err)
	}
	cancel()
	err = <-engineErr

	if err != nil {
		return WrapExitError(ExitFailure, "engine error", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "session %s ended\n", s.eng.Session())
	return nil
}

// redirectLogs points the default logger at path, or discards logs when
// path is empty. The returned func restores the previous logger.
func redirectLogs(path string) (func(), error) {
	prev := slog.Default()
	if path == "" {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return func() { slog.SetDefault(prev) }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return func() {
		slog.SetDefault(prev)
		_ = f.Close()
	}, nil
}
