// Package store provides SQLite-backed durable storage for the engine.
//
// Two things outlive an engine process:
//   - Persistent records: the values StorePersistent saves under a file
//     name, read back by ReadPersistent after a restart
//   - Trace events: every event generated and action executed, grouped
//     by session, for `mheg trace` and offline debugging
//
// # Ordering
//
// All queries order by seq, the engine's logical clock, never by wall time:
//
//	ORDER BY seq ASC
//
// # Database Configuration
//
//   - WAL mode: concurrent reads while the engine writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait on lock contention
//   - foreign_keys=ON: trace events reference their session
//
// PRAGMA user_version holds the store version; Open refuses a database
// stamped by a newer build.
package store
