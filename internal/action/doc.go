// Package action implements the elementary MHEG-5 actions on top of the
// engine's object model.
//
// Executor is the engine's ActionExecutor. Each action name maps to a
// Handler; actions without a handler fail with UNKNOWN_ACTION and the
// engine moves on to the next queued action.
//
// Arguments are positional ir.Params. A Param is either a literal or an
// indirect reference, in which case the current value of the named
// variable is used.
package action
