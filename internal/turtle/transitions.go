package turtle

import (
	"log/slog"
	"math"
)

// Discard is the logger replay uses. It drops every record.
var Discard = slog.New(slog.DiscardHandler)

// Move advances the turtle distance units along its heading.
//
// Coordinates are rounded to two decimal places. When the pen is down a
// line from the old to the new position is logged in the current color.
// A distance large enough to leave the float64 range yields an infinite
// coordinate; callers that persist the result must reject it.
func Move(log *slog.Logger, distance float64, s State) State {
	rad := s.Angle * math.Pi / 180
	end := Position{
		X: round2(s.Position.X + distance*math.Cos(rad)),
		Y: round2(s.Position.Y + distance*math.Sin(rad)),
	}

	if s.Pen == Down {
		log.Info("draw line",
			"from", s.Position.String(),
			"to", end.String(),
			"color", s.Color.String(),
		)
	}

	s.Position = end
	return s
}

// Turn rotates the turtle by angle degrees. The result is kept in [0,360).
func Turn(log *slog.Logger, angle float64, s State) State {
	s.Angle = normalizeAngle(s.Angle + angle)
	log.Debug("turn", "angle", s.Angle)
	return s
}

// PenUp lifts the pen.
func PenUp(log *slog.Logger, s State) State {
	log.Debug("pen up")
	s.Pen = Up
	return s
}

// PenDown lowers the pen.
func PenDown(log *slog.Logger, s State) State {
	log.Debug("pen down")
	s.Pen = Down
	return s
}

// SetColor changes the drawing color.
func SetColor(log *slog.Logger, c Color, s State) State {
	log.Debug("set color", "color", c.String())
	s.Color = c
	return s
}

// Beyond this magnitude a float64 has no hundredths left to round, and
// v*100 could overflow to Inf.
const roundLimit = 1e15

func round2(v float64) float64 {
	if math.Abs(v) >= roundLimit {
		return v
	}
	r := math.Round(v*100) / 100
	if r == 0 {
		// collapse -0
		return 0
	}
	return r
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// a tiny negative remainder can round up to exactly 360
	if a >= 360 || a == 0 {
		return 0
	}
	return a
}
