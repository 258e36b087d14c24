// Package turtle implements the turtle domain state machine.
//
// A turtle has a 2-D position, a heading in degrees, a pen that is up or
// down, and a drawing color. State is never stored: it is a projection
// rebuilt by folding the transition functions in this package over a
// turtle's event history.
//
// Every transition is a total, pure function of its arguments and the
// previous state. The only side effect is logging through the injected
// *slog.Logger; replay passes Discard so that rebuilding state is
// unobservable.
package turtle
