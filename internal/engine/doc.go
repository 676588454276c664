// Package engine implements the race executor.
//
// The engine owns the execution state of one race session: the roster, the
// schedule, the run pointer, the pause flag and the ranked results. Commands
// (GenerateRoster, GenerateSchedule, Start, TogglePause, Reset) may arrive
// from any goroutine; the state is only ever mutated through them and through
// the run loop.
//
// ARCHITECTURE:
//
// Single Run Loop:
// Start spawns exactly one run-loop goroutine per session. It is the only code
// that advances runs, so results are committed strictly in schedule order.
// The loop suspends at two points:
//   - the pause wait (woken by TogglePause, re-checked every poll interval)
//   - the timed hold of each run, counted in poll-sized steps
//
// Both suspension points select on the session context, so Reset cancels an
// in-flight wait instead of waiting for it to elapse.
//
// State Machine:
//
//	Idle --Start--> Running <--TogglePause--> Paused
//	Running --last run committed--> Finished --Start--> Running
//	any --Reset--> Idle
//
// Observers:
// Every transition is stamped with a logical seq from Clock and published on
// the Feed. Notifier, Audio, Recorder and Journal are optional collaborators;
// they are called outside the engine lock.
package engine
