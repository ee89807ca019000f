package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/mheg/internal/action"
	"github.com/roach88/mheg/internal/carousel"
	"github.com/roach88/mheg/internal/compiler"
	"github.com/roach88/mheg/internal/engine"
	"github.com/roach88/mheg/internal/ir"
	"github.com/roach88/mheg/internal/store"
	"github.com/roach88/mheg/internal/testutil"
)

// Harness drives one engine through a scenario with deterministic time.
type Harness struct {
	engine *engine.Engine
	store  *store.Store
	clock  *testutil.ManualClock
	timers *testutil.FakeTimers
	trace  *collector
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database, so persistent
// records never leak between scenarios.
//
// Execution flow:
//  1. Open the carousel directory and an in-memory store
//  2. Boot the first loadable boot object and settle
//  3. Apply each step
//  4. Settle and evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := carousel.NewDir(scenario.Carousel)
	if err != nil {
		return nil, fmt.Errorf("failed to open carousel: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewManualClock(time.Time{}),
		trace:  &collector{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	h.timers = testutil.NewFakeTimers(h.clock)

	opts := []engine.EngineOption{
		engine.WithWallClock(h.clock),
		engine.WithTimerService(h.timers),
		engine.WithTrace(h.trace),
		engine.WithPersistence(st),
		engine.WithSession(engine.NewFixedGenerator(scenario.Name)),
		engine.WithContentTimeout(scenario.ContentTimeout),
		engine.WithBootTimeout(0),
	}
	if len(scenario.Boot) > 0 {
		ids := make([]ir.GroupID, len(scenario.Boot))
		for i, b := range scenario.Boot {
			ids[i] = ir.GroupID(b)
		}
		opts = append(opts, engine.WithBootObjects(ids...))
	}
	h.engine = engine.New(dir, compiler.NewDecoder(), action.NewExecutor(), opts...)

	if err := h.engine.Boot(ctx); err != nil {
		return nil, fmt.Errorf("failed to boot: %w", err)
	}
	if err := h.settle(ctx); err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		if err := h.apply(ctx, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	if err := h.settle(ctx); err != nil {
		return nil, err
	}

	result := h.collect()
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) settle(ctx context.Context) error {
	if err := h.engine.RunUntilIdle(ctx); err != nil {
		return fmt.Errorf("failed to settle: %w", err)
	}
	return nil
}

// apply performs one step. Only step settles; key presses and fired timers
// stay queued until then.
func (h *Harness) apply(ctx context.Context, step Step) error {
	switch {
	case step.Key != "":
		k, err := ir.ParseKey(step.Key)
		if err != nil {
			return err
		}
		if !h.engine.PostKey(k) {
			return fmt.Errorf("engine stopped")
		}
		h.logger.Info("key posted", "key", k)
	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return err
		}
		h.clock.Advance(d)
	case step.FireTimers:
		n := h.timers.FireDue()
		h.logger.Info("timers fired", "count", n)
	case step.Step:
		return h.settle(ctx)
	}
	return nil
}

// collect snapshots the trace and the final engine state.
func (h *Harness) collect() *Result {
	result := NewResult()
	result.Trace = h.trace.snapshot()
	result.LiveTimers = len(h.timers.Live())

	for _, g := range []*engine.Group{h.engine.App(), h.engine.Scene()} {
		if g == nil {
			continue
		}
		if g.Kind() == ir.KindScene {
			result.ActiveScene = g.ID().Group
		}
		for _, o := range g.Ingredients() {
			if v, ok := o.(*engine.Variable); ok {
				result.Variables[v.ID()] = v.Value()
			}
		}
	}
	return result
}
