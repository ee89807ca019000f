package harness

import (
	"sync"

	"github.com/roach88/mheg/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace holds every event generated and action executed, in seq order.
	Trace []ir.TraceEvent `json:"trace"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`

	// ActiveScene is the Scene running when the scenario ended, if any.
	ActiveScene ir.GroupID `json:"active_scene,omitempty"`

	// LiveTimers counts timers scheduled but neither fired nor cancelled.
	LiveTimers int `json:"live_timers"`

	// Variables holds the final value of every variable of the running
	// groups.
	Variables map[ir.ObjectID]ir.Value `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []ir.TraceEvent{},
		Errors:    []string{},
		Variables: make(map[ir.ObjectID]ir.Value),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// collector is the engine trace sink used by scenario runs.
type collector struct {
	mu     sync.Mutex
	events []ir.TraceEvent
}

func (c *collector) Record(ev ir.TraceEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) snapshot() []ir.TraceEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ir.TraceEvent, len(c.events))
	copy(out, c.events)
	return out
}
