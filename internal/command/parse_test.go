package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turtle/internal/turtle"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Action
	}{
		{"Move 100", Move{Distance: 100}},
		{"move -2.5", Move{Distance: -2.5}},
		{"Turn 90", Turn{Angle: 90}},
		{"  Turn   -120 ", Turn{Angle: -120}},
		{"Pen Up", PenUp{}},
		{"pen down", PenDown{}},
		{"SetColor Red", SetColor{Color: turtle.Red}},
		{"SETCOLOR blue", SetColor{Color: turtle.Blue}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"Jump 3",
		"Move",
		"Move ten",
		"Move NaN",
		"Turn +Inf",
		"Move 1 2",
		"Pen Sideways",
		"Pen",
		"SetColor Green",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCommand)
		})
	}
}

func TestParseScript(t *testing.T) {
	script := `
# triangle
Move 100
Turn 120

SetColor Red
Pen Up
`
	actions, err := ParseScript(strings.NewReader(script))
	require.NoError(t, err)
	assert.Equal(t, []Action{
		Move{Distance: 100},
		Turn{Angle: 120},
		SetColor{Color: turtle.Red},
		PenUp{},
	}, actions)
}

func TestParseScript_ReportsLine(t *testing.T) {
	_, err := ParseScript(strings.NewReader("Move 1\nTurn 2\nFly 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestToEvent_NilAction(t *testing.T) {
	_, err := ToEvent(nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}
