// Package harness runs turtle scenarios: YAML files that list commands,
// then assert on the resulting event trace and final state.
//
// Each scenario runs against a fresh store (in-memory by default, or an
// in-memory SQLite database with backend: sqlite) with three processors
// attached: a trace recorder, the graphics renderer and the deduplicating
// ink counter. Trace sequence numbers come from a fresh logical clock, so
// runs are byte-for-byte reproducible and can be compared to golden files.
//
// Scenario format:
//
//	name: triangle
//	description: Three sides return the turtle home
//	turtle_id: turtle-1        # default for steps without turtle:
//	steps:
//	  - command: Move 100
//	  - turtle: other
//	    command: Turn 90
//	  - clear: true            # reset the step's turtle
//	assertions:
//	  - type: final_state
//	    x: 0
//	    y: 0
//	  - type: event_count
//	    event: moved_event
//	    count: 3
//
// Assertion types: final_state, event_count, event_order, ink_total,
// lines_drawn.
package harness
