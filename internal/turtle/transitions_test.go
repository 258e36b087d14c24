package turtle

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func TestInitial(t *testing.T) {
	s := Initial()
	assert.Equal(t, Position{X: 0, Y: 0}, s.Position)
	assert.Equal(t, 0.0, s.Angle)
	assert.Equal(t, Black, s.Color)
	assert.Equal(t, Down, s.Pen)
}

func TestMove_AlongHeading(t *testing.T) {
	tests := []struct {
		name     string
		angle    float64
		distance float64
		want     Position
	}{
		{"east", 0, 10, Position{X: 10, Y: 0}},
		{"north", 90, 10, Position{X: 0, Y: 10}},
		{"west", 180, 10, Position{X: -10, Y: 0}},
		{"south", 270, 10, Position{X: 0, Y: -10}},
		{"diagonal rounds to two decimals", 45, 10, Position{X: 7.07, Y: 7.07}},
		{"backwards", 0, -5, Position{X: -5, Y: 0}},
		{"zero distance", 33, 0, Position{X: 0, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Initial()
			s.Angle = tt.angle
			got := Move(Discard, tt.distance, s)
			assert.Equal(t, tt.want, got.Position)
			assert.Equal(t, tt.angle, got.Angle, "move must not change heading")
		})
	}
}

func TestMove_DoesNotMutateInput(t *testing.T) {
	s := Initial()
	_ = Move(Discard, 50, s)
	assert.Equal(t, Initial(), s)
}

func TestMove_NoNegativeZero(t *testing.T) {
	s := Initial()
	s.Angle = 240
	s.Position = Position{X: 50, Y: 86.6}
	got := Move(Discard, 100, s)

	assert.Equal(t, Position{X: 0, Y: 0}, got.Position)
	assert.Equal(t, "(0,0)", got.Position.String(), "negative zero must be collapsed")
}

func TestMove_HugeDistanceSkipsRounding(t *testing.T) {
	got := Move(Discard, 1e307, Initial())
	assert.Equal(t, 1e307, got.Position.X, "rounding must not overflow a finite coordinate")
	assert.Equal(t, 0.0, got.Position.Y)
}

func TestMove_LogsLineOnlyWhenPenDown(t *testing.T) {
	log, buf := captureLogger()
	s := SetColor(Discard, Red, Initial())

	Move(log, 10, s)
	assert.Contains(t, buf.String(), "draw line")
	assert.Contains(t, buf.String(), "color=Red")
	assert.Contains(t, buf.String(), "to=(10,0)")

	buf.Reset()
	Move(log, 10, PenUp(Discard, s))
	assert.NotContains(t, buf.String(), "draw line")
}

func TestDiscard_DropsEverything(t *testing.T) {
	assert.False(t, Discard.Enabled(t.Context(), slog.LevelError))
}

func TestTurn_Normalizes(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		turn  float64
		want  float64
	}{
		{"simple", 0, 90, 90},
		{"wraps past 360", 300, 120, 60},
		{"exactly 360", 240, 120, 0},
		{"negative", 0, -90, 270},
		{"large negative", 10, -730, 0},
		{"multiple turns", 0, 720 + 45, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Initial()
			s.Angle = tt.start
			got := Turn(Discard, tt.turn, s)
			assert.InDelta(t, tt.want, got.Angle, 1e-9)
			assert.GreaterOrEqual(t, got.Angle, 0.0)
			assert.Less(t, got.Angle, 360.0)
		})
	}
}

func TestPenAndColor(t *testing.T) {
	s := Initial()

	s = PenUp(Discard, s)
	assert.Equal(t, Up, s.Pen)
	s = PenUp(Discard, s)
	assert.Equal(t, Up, s.Pen, "pen up is unconditional")

	s = PenDown(Discard, s)
	assert.Equal(t, Down, s.Pen)

	s = SetColor(Discard, Blue, s)
	assert.Equal(t, Blue, s.Color)
	s = SetColor(Discard, Blue, s)
	assert.Equal(t, Blue, s.Color)
}

func TestTriangle_ReturnsHome(t *testing.T) {
	s := Initial()
	for i := 0; i < 3; i++ {
		s = Move(Discard, 100, s)
		s = Turn(Discard, 120, s)
	}

	assert.InDelta(t, 0, s.Position.X, 0.01)
	assert.InDelta(t, 0, s.Position.Y, 0.01)
	assert.Equal(t, 0.0, s.Angle)
}
