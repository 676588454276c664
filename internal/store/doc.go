// Package store provides the SQLite journal of a race session.
//
// The journal records one session at a time:
//   - Sessions: the token and start seq of the current race
//   - Horses and runs: the roster and schedule the race started with
//   - Results: committed rankings, one row per place
//   - Transitions: state changes (running, paused, finished, idle, failed)
//
// # Ordering
//
// All ordering uses seq INTEGER from the engine's logical clock, never
// timestamps. Reads order by seq, then by run index and place.
//
// # Lifetime
//
// The default DSN is ":memory:", so history dies with the process. A file
// DSN is accepted for inspecting a single session; BeginSession removes any
// earlier session before recording the new one.
//
// Writes are idempotent (ON CONFLICT DO NOTHING), so replaying a record is
// harmless.
package store
