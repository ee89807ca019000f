package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/mheg/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Trace    []ir.TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, traceName(ev))
		}
	}
	return buf.String()
}

// traceName is the event type name of an event or the action name of an
// action.
func traceName(ev ir.TraceEvent) string {
	if ev.Kind == ir.TraceKindAction {
		return ev.Action
	}
	return ev.EventType.String()
}

// assertEventContains checks that an event of the given type was generated,
// optionally from the given source and with the given data.
func assertEventContains(trace []ir.TraceEvent, a Assertion) error {
	t, err := ir.ParseEventType(a.Event)
	if err != nil {
		return err
	}

	for _, ev := range trace {
		if ev.Kind != ir.TraceKindEvent || ev.EventType != t {
			continue
		}
		if a.Source != "" && ev.Source.Group != ir.GroupID(a.Source) {
			continue
		}
		if a.Number != nil && ev.Source.Number != *a.Number {
			continue
		}
		if a.Data != nil && !matchValue(ev.Data, a.Data) {
			continue
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("event %s from %s with data %v", a.Event, describeSource(a), a.Data),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func describeSource(a Assertion) string {
	switch {
	case a.Source == "":
		return "any source"
	case a.Number == nil:
		return a.Source
	default:
		return ir.ObjectID{Group: ir.GroupID(a.Source), Number: *a.Number}.String()
	}
}

// assertEventOrder checks that the named events and actions appear in the
// given order. Intervening entries are allowed.
func assertEventOrder(trace []ir.TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Names) && traceName(ev) == a.Names[next] {
			next++
		}
	}
	if next == len(a.Names) {
		return nil
	}

	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: fmt.Sprintf("in order: %v", a.Names),
		Actual:   fmt.Sprintf("%s not found after %v", a.Names[next], a.Names[:next]),
		Trace:    trace,
	}
}

// assertEventCount checks that the event or action occurs exactly Count
// times.
func assertEventCount(trace []ir.TraceEvent, a Assertion) error {
	kind, name := ir.TraceKindEvent, a.Event
	if a.Action != "" {
		kind, name = ir.TraceKindAction, a.Action
	}

	count := 0
	for _, ev := range trace {
		if ev.Kind == kind && traceName(ev) == name {
			count++
		}
	}
	if count == a.Count {
		return nil
	}

	return &AssertionError{
		Type:     AssertEventCount,
		Expected: fmt.Sprintf("%d occurrences of %s", a.Count, name),
		Actual:   fmt.Sprintf("%d occurrences", count),
		Trace:    trace,
	}
}

func assertLiveTimers(result *Result, a Assertion) error {
	if result.LiveTimers == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertLiveTimers,
		Expected: fmt.Sprintf("%d live timers", a.Count),
		Actual:   fmt.Sprintf("%d live timers", result.LiveTimers),
	}
}

func assertActiveScene(result *Result, a Assertion) error {
	if result.ActiveScene == ir.GroupID(a.Scene) {
		return nil
	}
	actual := string(result.ActiveScene)
	if actual == "" {
		actual = "no active scene"
	}
	return &AssertionError{
		Type:     AssertActiveScene,
		Expected: a.Scene,
		Actual:   actual,
	}
}

func assertVariable(result *Result, a Assertion) error {
	id := ir.ObjectID{Group: ir.GroupID(a.Source), Number: *a.Number}
	v, ok := result.Variables[id]
	if !ok {
		return &AssertionError{
			Type:     AssertVariable,
			Expected: fmt.Sprintf("variable %s = %v", id, a.Data),
			Actual:   "no such variable in the running groups",
		}
	}
	if matchValue(v, a.Data) {
		return nil
	}
	return &AssertionError{
		Type:     AssertVariable,
		Expected: fmt.Sprintf("variable %s = %v", id, a.Data),
		Actual:   ir.FormatValue(v),
	}
}

// matchValue compares an engine value with a YAML scalar. Integers may
// also be written as key names ("select") for UserInput data.
func matchValue(actual ir.Value, expected any) bool {
	switch want := expected.(type) {
	case bool:
		b, ok := actual.(ir.Bool)
		return ok && bool(b) == want
	case int:
		n, ok := actual.(ir.Int)
		return ok && int64(n) == int64(want)
	case string:
		switch got := actual.(type) {
		case ir.OctetString:
			return string(got) == want
		case ir.ContentRef:
			return string(got) == want
		case ir.Int:
			k, err := ir.ParseKey(want)
			return err == nil && int64(got) == int64(k)
		}
	}
	return false
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEventContains:
			err = assertEventContains(result.Trace, assertion)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, assertion)
		case AssertEventCount:
			err = assertEventCount(result.Trace, assertion)
		case AssertLiveTimers:
			err = assertLiveTimers(result, assertion)
		case AssertActiveScene:
			err = assertActiveScene(result, assertion)
		case AssertVariable:
			err = assertVariable(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
