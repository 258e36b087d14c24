// Package processor holds the read-side consumers of the event store.
//
// A processor is a store.Handler plus a subscription lifecycle. Each one
// reacts to the events it cares about and ignores the rest; Filter does the
// narrowing. Processors run synchronously inside Append unless wrapped in a
// Queue with AttachAsync.
//
// A synchronous handler must not Append to the turtle it is being notified
// about: Append holds that turtle's lock while notifying.
package processor
