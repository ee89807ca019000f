package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mheg/internal/ir"
)

// Scenario is a scripted run of one carousel.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Carousel is the directory holding the group files. Relative paths
	// resolve against the scenario file.
	Carousel string `yaml:"carousel"`

	// Boot replaces the default boot object list.
	Boot []string `yaml:"boot,omitempty"`

	// ContentTimeout is the referenced content timeout in whole seconds.
	ContentTimeout int `yaml:"content_timeout,omitempty"`

	// Steps drive the engine, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one stimulus. Exactly one field is set.
type Step struct {
	// Key presses a remote control key ("select", "red", "7").
	Key string `yaml:"key,omitempty"`

	// Advance moves the wall clock forward ("500ms", "2s").
	Advance string `yaml:"advance,omitempty"`

	// FireTimers fires every timer due at the current clock reading.
	FireTimers bool `yaml:"fire_timers,omitempty"`

	// Step settles the engine: every queued stimulus, event and action is
	// processed.
	Step bool `yaml:"step,omitempty"`
}

// Assertion validates the trace or the final engine state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event is an event type name (event_contains, event_count).
	Event string `yaml:"event,omitempty"`

	// Action is an elementary action name (event_count).
	Action string `yaml:"action,omitempty"`

	// Source restricts event_contains to events of this group, and names
	// the variable's group for variable.
	Source string `yaml:"source,omitempty"`

	// Number is the source object number; nil matches any.
	Number *int `yaml:"number,omitempty"`

	// Data is the expected event data or variable value.
	Data any `yaml:"data,omitempty"`

	// Names lists event and action names in expected order (event_order).
	Names []string `yaml:"names,omitempty"`

	// Count is the expected number of occurrences or live timers.
	Count int `yaml:"count,omitempty"`

	// Scene is the expected active Scene (active_scene).
	Scene string `yaml:"scene,omitempty"`
}

// Assertion type constants.
const (
	AssertEventContains = "event_contains"
	AssertEventOrder    = "event_order"
	AssertEventCount    = "event_count"
	AssertLiveTimers    = "live_timers"
	AssertActiveScene   = "active_scene"
	AssertVariable      = "variable"
)

// LoadScenario reads and parses a scenario YAML file. The carousel path is
// resolved against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Carousel != "" && !filepath.IsAbs(scenario.Carousel) {
		scenario.Carousel = filepath.Join(filepath.Dir(path), scenario.Carousel)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarioDir loads every *.yaml and *.yml file of dir, sorted by
// file name.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.Type().IsRegular() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Carousel == "" {
		return fmt.Errorf("carousel is required")
	}
	if info, err := os.Stat(s.Carousel); err != nil || !info.IsDir() {
		return fmt.Errorf("carousel directory not found: %s", s.Carousel)
	}
	if s.ContentTimeout < 0 {
		return fmt.Errorf("content_timeout must be non-negative")
	}
	for i, b := range s.Boot {
		if !strings.HasPrefix(b, "~//") {
			return fmt.Errorf("boot[%d]: %q is not a canonical group id", i, b)
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st Step) error {
	set := 0
	if st.Key != "" {
		set++
		if _, err := ir.ParseKey(st.Key); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	if st.Advance != "" {
		set++
		d, err := time.ParseDuration(st.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: advance: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d]: advance must be non-negative", index)
		}
	}
	if st.FireTimers {
		set++
	}
	if st.Step {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of key, advance, fire_timers, step is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_contains", index)
		}
		if _, err := ir.ParseEventType(a.Event); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertEventOrder:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names list is required for event_order", index)
		}
	case AssertEventCount:
		if (a.Event == "") == (a.Action == "") {
			return fmt.Errorf("assertions[%d]: exactly one of event, action is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertLiveTimers:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for live_timers", index)
		}
	case AssertActiveScene:
		if a.Scene == "" {
			return fmt.Errorf("assertions[%d]: scene is required for active_scene", index)
		}
	case AssertVariable:
		if a.Source == "" || a.Number == nil {
			return fmt.Errorf("assertions[%d]: source and number are required for variable", index)
		}
		if a.Data == nil {
			return fmt.Errorf("assertions[%d]: data is required for variable", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
