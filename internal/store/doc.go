// Package store provides the turtle EventStore: an append-only,
// per-turtle event log with synchronous publish-on-append notification.
//
// # Logs
//
// The EventStore owns no storage itself. It is built over an injected Log:
//   - MemoryLog: map from turtle id to an ordered slice (the default)
//   - SQLiteLog: a single events table, for inspecting history across
//     processes. It makes no crash-safety promise.
//
// Every Record carries a store-wide Seq (logical clock, never wall time), a
// 1-based Version within its turtle's log, and a content-addressed ID.
// Reads are always oldest-first; SQLite reads use ORDER BY seq ASC.
//
// # Ordering
//
// Append and Clear take a per-turtle mutex, so writes to one turtle are
// sequential and subscribers see that turtle's events in exactly append
// order. Appends to different turtles run concurrently and may interleave
// at subscribers.
//
// # Subscribers
//
// Append invokes every active subscriber, in registration order, before it
// returns. A subscriber that returns an error is logged; one that panics is
// logged and, by default, unsubscribed. Neither failure reaches the caller
// of Append. A handler must not Append to the turtle it is being notified
// about; wrap it in processor.Queue to react with new writes.
package store
