package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/mheg/internal/action"
	"github.com/roach88/mheg/internal/carousel"
	"github.com/roach88/mheg/internal/compiler"
	"github.com/roach88/mheg/internal/config"
	"github.com/roach88/mheg/internal/engine"
	"github.com/roach88/mheg/internal/store"
)

// RunOptions holds flags for the run and play commands.
type RunOptions struct {
	*RootOptions
	Database    string
	MetricsAddr string
	Watch       bool
	Boot        []string

	// SessionGenerator allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [carousel-dir]",
		Short: "Run an application headless",
		Long: `Boot the application on a carousel and drive the engine until interrupted.

Without a display, visibles are tracked but not drawn. With --db, persistent
records survive restarts and every event and action is recorded for
"mheg trace". The carousel directory defaults to the configured one.

Example:
  mheg run ./carousel
  mheg run --db ./mheg.db --metrics-addr :9090 ./carousel`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, args, cmd)
		},
	}

	addRunFlags(cmd, opts)
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *RunOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database for persistent records and traces")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "reload carousel files when they change on disk")
	cmd.Flags().StringSliceVar(&opts.Boot, "boot", nil, "boot object(s) tried in order")
}

// session is an engine wired to its carousel and optional store.
type session struct {
	eng   *engine.Engine
	dir   *carousel.Dir
	store *store.Store
	cfg   *config.Config
}

func (s *session) Close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// effectiveConfig merges command-line flags over the loaded configuration.
func effectiveConfig(opts *RunOptions, args []string) *config.Config {
	cfg := *config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if len(args) > 0 {
		cfg.Carousel = args[0]
	}
	if opts.Database != "" {
		cfg.DB = opts.Database
	}
	if opts.MetricsAddr != "" {
		cfg.MetricsAddr = opts.MetricsAddr
	}
	if opts.Watch {
		cfg.Watch = true
	}
	if len(opts.Boot) > 0 {
		cfg.BootObjects = opts.Boot
	}
	return &cfg
}

// openSession builds the engine for run and play. extra options are
// applied after the configured ones.
func openSession(ctx context.Context, opts *RunOptions, args []string, extra ...engine.EngineOption) (*session, error) {
	cfg := effectiveConfig(opts, args)
	if cfg.Carousel == "" {
		return nil, NewExitError(ExitCommandError, "no carousel directory given and none configured")
	}

	dir, err := carousel.NewDir(cfg.Carousel)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open carousel", err)
	}

	gen := opts.SessionGenerator
	if gen == nil {
		gen = engine.UUIDv7Generator{}
	}
	id := gen.Generate()

	s := &session{dir: dir, cfg: cfg}
	engineOpts := append(cfg.EngineOptions(), engine.WithSession(engine.NewFixedGenerator(id)))

	if cfg.DB != "" {
		slog.Info("opening database", "path", cfg.DB)
		st, err := store.Open(cfg.DB)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		if err := st.BeginSession(ctx, id, dir.Root()); err != nil {
			_ = st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to record session", err)
		}
		s.store = st
		engineOpts = append(engineOpts,
			engine.WithPersistence(st),
			engine.WithTrace(store.NewTraceRecorder(ctx, st, id)),
		)
	}

	engineOpts = append(engineOpts, extra...)
	s.eng = engine.New(dir, compiler.NewDecoder(), action.NewExecutor(), engineOpts...)
	return s, nil
}

// signalContext derives a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan) // Prevent signal handler leak
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()
	return ctx, cancel
}

// startBackground runs the carousel watcher and metrics server when
// configured. Both stop with ctx.
func startBackground(ctx context.Context, s *session) {
	if s.cfg.Watch {
		go func() {
			if err := s.dir.Watch(ctx); err != nil {
				slog.Warn("carousel watch failed", "error", err)
			}
		}()
	}
	if s.cfg.MetricsAddr != "" {
		go serveMetrics(ctx, s.cfg.MetricsAddr)
	}
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server failed", "error", err)
	}
}

func runEngine(opts *RunOptions, args []string, cmd *cobra.Command) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	s, err := openSession(ctx, opts, args)
	if err != nil {
		return err
	}
	defer s.Close()
	startBackground(ctx, s)

	slog.Info("engine starting", "carousel", s.dir.Root(), "session", s.eng.Session())
	fmt.Fprintf(cmd.OutOrStdout(), "Engine started (session %s).\n", s.eng.Session())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := s.eng.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	slog.Info("engine stopped gracefully")
	return nil
}
