// Package engine implements the MHEG-5 application runtime.
//
// The engine owns the live object graph of the running Application and
// Scene, matches Link conditions against generated events and sequences
// the execution of elementary actions.
//
// ARCHITECTURE:
//
// Single Logical Thread:
// Every queue, the object registry, the active-link set, the DisplayStack
// and the timer records are touched only by the goroutine driving Run (or
// Step / RunUntilIdle in tests). Key presses and timer firings arrive from
// other goroutines through a thread-safe inbox and are applied on the loop
// goroutine. The only mutex-guarded object state is visible geometry.
//
// Run Loop Step:
//  1. Poll pending content (arrival or timeout)
//  2. Dispatch: drain the async event queue; each async event is matched
//     and everything it triggers runs before the next one is taken
//  3. Wait for / apply external input (keys, timer firings)
//  4. Perform a pending Quit / Launch / Spawn / Retune
//
// Two-Phase Action Queue:
// Matching a Link appends its whole effect list to the temp queue. The
// dispatcher moves temp to the front of main after every executed action,
// so actions triggered by an action run before previously queued ones
// (depth-first): [A,B] where A triggers [X,Y] runs as A,X,Y,B.
//
// Events are synchronous (matched at generation time) or asynchronous
// (queued, matched by the dispatcher). The classification is fixed; see
// ir.EventType.IsAsync.
package engine
