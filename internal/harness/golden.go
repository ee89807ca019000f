package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mheg/internal/ir"
)

// TraceSnapshot is the golden form of a scenario trace: executed actions
// and dispatched asynchronous events, in order. Synchronous events and seq
// numbers are left out so the snapshot only changes when observable
// behaviour does.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []ir.TraceEvent
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := []any{}
	for _, ev := range s.Trace {
		switch {
		case ev.Kind == ir.TraceKindAction:
			traceList = append(traceList, map[string]any{
				"kind":   ev.Kind,
				"action": ev.Action,
				"group":  string(ev.Group),
			})
		case ev.Async:
			entry := map[string]any{
				"kind":  ev.Kind,
				"event": ev.EventType.String(),
				"source": map[string]any{
					"group":  string(ev.Source.Group),
					"number": ev.Source.Number,
				},
			}
			if ev.Data != nil {
				entry["data"] = ev.Data
			}
			traceList = append(traceList, entry)
		}
	}

	return map[string]any{
		"scenario": s.ScenarioName,
		"trace":    traceList,
	}
}

// MarshalSnapshot renders the golden form of a trace.
func MarshalSnapshot(name string, trace []ir.TraceEvent) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: name, Trace: trace}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
