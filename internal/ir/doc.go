// Package ir provides the shared data types of the MHEG-5 runtime.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. Decoded group descriptions, object
// references, event types, key codes and attribute values live here so the
// engine, the CUE decoder, the store and the harness agree on one vocabulary.
//
// Key design constraints:
//   - NO float types anywhere; MHEG integers are int64
//   - Group identifiers are kept exactly as authored; canonicalization is the
//     resolver's job
//   - All JSON tags use snake_case
//   - Logical clocks (seq) only in traces, never wall-clock timestamps
package ir
