// Package harness runs MHEG applications against scripted scenarios.
//
// A scenario boots a carousel directory on an engine wired to a manual
// clock and a fake timer service, feeds it key presses and time, and then
// checks the recorded trace and final engine state.
//
// # Scenario Format
//
//	name: select_timer
//	description: "Select arms timer 7, which fires after 500ms"
//	carousel: carousel          # relative to the scenario file
//	boot: ["~//a"]              # optional boot object list
//	content_timeout: 1          # optional, whole seconds
//	steps:
//	  - key: select
//	  - step: true              # settle: dispatch everything queued
//	  - advance: 500ms
//	  - fire_timers: true
//	assertions:
//	  - type: event_contains
//	    event: TimerFired
//	    source: "~//main"
//	    data: 7
//	  - type: event_order
//	    names: [UserInput, SetTimer, TimerFired]
//	  - type: event_count
//	    action: SetTimer
//	    count: 1
//	  - type: live_timers
//	    count: 0
//	  - type: active_scene
//	    scene: "~//main"
//	  - type: variable
//	    source: "~//main"
//	    number: 3
//	    data: 42
//
// The engine settles once more after the last step, before assertions run.
//
// # Deterministic Testing
//
// Scenarios run with a manual wall clock, fake timers that fire only on
// fire_timers, a fixed session id and an in-memory SQLite store for
// persistent records. The same scenario always produces the same trace, so
// traces can be compared against golden files (see RunWithGolden).
package harness
