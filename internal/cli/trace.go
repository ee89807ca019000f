package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mheg/internal/ir"
	"github.com/roach88/mheg/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Kind     string // optional - "event" or "action"
}

// TraceEntry is one timeline line of a recorded session.
type TraceEntry struct {
	Seq    int64  `json:"seq"`
	Kind   string `json:"kind"`
	Source string `json:"source,omitempty"`
	Event  string `json:"event,omitempty"`
	Async  bool   `json:"async,omitempty"`
	Data   string `json:"data,omitempty"`
	Action string `json:"action,omitempty"`
	Group  string `json:"group,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  string       `json:"session"`
	Timeline []TraceEntry `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Events      int `json:"events"`
	AsyncEvents int `json:"async_events"`
	Actions     int `json:"actions"`
}

// SessionSummary is one line of the session listing.
type SessionSummary struct {
	ID            string `json:"id"`
	EngineVersion string `json:"engine_version"`
	Carousel      string `json:"carousel"`
	Events        int    `json:"events"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded engine sessions",
		Long: `Show the events and actions recorded by "mheg run --db".

Without --session, lists the recorded sessions. With --session, prints the
session timeline in sequence order.

Example:
  mheg trace --db ./mheg.db
  mheg trace --db ./mheg.db --session 0190c3e2-... --kind action`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to show")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "show only entries of this kind (event|action)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	formatter.Session = opts.Session

	switch opts.Kind {
	case "", ir.TraceKindEvent, ir.TraceKindAction:
	default:
		_ = formatter.Error(CLIError{Code: ErrCodeGeneric, Message: fmt.Sprintf("invalid kind %q: must be event or action", opts.Kind)})
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid kind %q", opts.Kind))
	}

	// store.Open creates missing files; a typo should not leave an empty database behind.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(CLIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", opts.Database)})
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(CLIError{Code: ErrCodeStoreFailed, Message: err.Error()})
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if opts.Session == "" {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		return outputSessions(formatter, sessions)
	}

	events, err := st.ReadTrace(ctx, opts.Session, opts.Kind)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}
	if len(events) == 0 && opts.Kind == "" {
		_ = formatter.Error(CLIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no trace recorded for session %s", opts.Session)})
		return NewExitError(ExitFailure, fmt.Sprintf("no trace for session %s", opts.Session))
	}

	result := buildTimeline(opts.Session, events)
	if formatter.JSON() {
		return formatter.Respond(result, nil)
	}
	outputTraceText(formatter.Writer, result)
	return nil
}

func buildTimeline(session string, events []ir.TraceEvent) TraceResult {
	result := TraceResult{Session: session, Timeline: make([]TraceEntry, 0, len(events))}
	for _, ev := range events {
		entry := TraceEntry{Seq: ev.Seq, Kind: ev.Kind}
		switch ev.Kind {
		case ir.TraceKindEvent:
			entry.Source = ev.Source.String()
			entry.Event = ev.EventType.String()
			entry.Async = ev.Async
			if ev.Data != nil {
				entry.Data = ir.FormatValue(ev.Data)
			}
			result.Stats.Events++
			if ev.Async {
				result.Stats.AsyncEvents++
			}
		case ir.TraceKindAction:
			entry.Action = ev.Action
			entry.Group = string(ev.Group)
			result.Stats.Actions++
		}
		result.Timeline = append(result.Timeline, entry)
	}
	result.Stats.TotalEvents = len(result.Timeline)
	return result
}

func outputSessions(formatter *OutputFormatter, sessions []store.Session) error {
	summaries := make([]SessionSummary, len(sessions))
	for i, s := range sessions {
		summaries[i] = SessionSummary{ID: s.ID, EngineVersion: s.EngineVersion, Carousel: s.Carousel, Events: s.Events}
	}
	if formatter.JSON() {
		return formatter.Respond(summaries, nil)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%s  %6d  %s\n", s.ID, s.Events, s.Carousel)
	}
	return nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult) {
	fmt.Fprintf(w, "Trace for Session: %s\n", result.Session)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no entries)")
	}
	for _, entry := range result.Timeline {
		formatTimelineEntry(w, entry)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total:        %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Events:       %d\n", result.Stats.Events)
	fmt.Fprintf(w, "  Async Events: %d\n", result.Stats.AsyncEvents)
	fmt.Fprintf(w, "  Actions:      %d\n", result.Stats.Actions)
}

// formatTimelineEntry formats a single timeline entry for text output.
func formatTimelineEntry(w io.Writer, entry TraceEntry) {
	switch entry.Kind {
	case ir.TraceKindEvent:
		mode := "SYNC"
		if entry.Async {
			mode = "ASYNC"
		}
		fmt.Fprintf(w, "  [%d] %-5s %s %s", entry.Seq, mode, entry.Source, entry.Event)
		if entry.Data != "" {
			fmt.Fprintf(w, " %s", entry.Data)
		}
		fmt.Fprintln(w)
	case ir.TraceKindAction:
		fmt.Fprintf(w, "  [%d] ACT   %s (%s)\n", entry.Seq, entry.Action, entry.Group)
	}
}
