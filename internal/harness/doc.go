// Package harness runs race scenarios described in YAML against a real
// engine and checks the outcome.
//
// # Scenario Format
//
//	name: three_horse_sprint
//	description: "Ranking follows condition"
//	seed: 7
//	roster:                      # optional fixture, IDs follow list order
//	  - name: Ruby Runner
//	    condition: 80
//	    silks: ["#FF0000", "#FFFFFF"]
//	    color: {label: Chestnut, value: "#954535"}
//	schedule:                    # optional fixture, requires roster
//	  - entrants: [0, 1, 2]
//	    distance: 1200
//	steps:
//	  - action: start
//	  - action: wait_finished
//	assertions:
//	  - type: ranking
//	    run: 0
//	    horses: [2, 0, 1]
//	  - type: state
//	    state: finished
//
// # Steps
//
//   - generate_roster: draw a roster (count defaults to 20)
//   - generate_schedule: draw a schedule from the roster
//   - start: start the race
//   - toggle_pause: pause or resume
//   - reset: stop and clear results
//   - wait_finished: block until the run loop exits
//
// A step may name the error it expects with expect_error (validation,
// already_running, busy, capacity). Any other step error fails the scenario.
//
// # Assertion Types
//
//   - ranking: horse IDs of a committed run, best first
//   - state: final state and, optionally, the number of committed runs
//   - notifications: number of notifications, optionally of one severity
//   - roster_unique: the roster shares no name, condition, silks or color
//   - journal: the state transitions recorded in the session journal
//
// # Deterministic Testing
//
// Scenarios run with a seeded random source, sequential session tokens
// ("race-1", "race-2", ...) and a timer that never sleeps, so the trace of
// feed events is identical on every run and can be compared against golden
// files.
package harness
