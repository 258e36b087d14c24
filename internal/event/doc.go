// Package event defines the facts stored in a turtle's event log.
//
// Two families share one log:
//
//   - StateChanged events (Moved, Turned, PenWentUp, PenWentDown,
//     ColorChanged) are the minimal write-side facts. Replaying them in
//     order through the domain transition functions reproduces the
//     turtle's state.
//   - MovedEvent is a derived read-side fact carrying the start and end of
//     a move plus the pen color, if any. It is never folded into state.
//
// Both families are closed: the marker methods are unexported, so the
// type switches in this module are exhaustive.
//
// Events are serialized with MarshalCanonical, a deterministic JSON form
// (sorted keys, NFC strings, shortest fixed-point numbers) that also feeds
// content-addressed event ids.
package event
