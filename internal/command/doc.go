// Package command implements the write path of the turtle pipeline.
//
// Handle rebuilds a turtle's state from its history on every call, then
// derives and appends the new events:
//
//  1. Load the turtle's StateChanged events, oldest-first
//  2. Fold them over turtle.Initial with turtle.Discard (no side effects)
//  3. Map the command's action to exactly one StateChanged event
//  4. Apply that event with the caller's logger
//  5. If the position changed, derive a MovedEvent
//  6. Append the StateChanged event, then the MovedEvent if any
//
// MovedEvents are never loaded back in step 1; they are read-side facts
// only.
//
// Cost per command is O(history length): there is no snapshotting. This
// is a known scalability limit of the design, not a correctness issue.
//
// A single logical writer per turtle is assumed. Two concurrent Handle
// calls for the same turtle may both rebuild the same prior state.
package command
