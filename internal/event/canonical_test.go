package event

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turtle/internal/turtle"
)

func TestMarshalCanonical_Forms(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"moved", Moved{Distance: 100}, `{"distance":100,"type":"moved"}`},
		{"moved fraction", Moved{Distance: 86.6}, `{"distance":86.6,"type":"moved"}`},
		{"moved large stays fixed-point", Moved{Distance: 1234567}, `{"distance":1234567,"type":"moved"}`},
		{"moved negative zero", Moved{Distance: math.Copysign(0, -1)}, `{"distance":0,"type":"moved"}`},
		{"turned", Turned{Angle: -90}, `{"angle":-90,"type":"turned"}`},
		{"pen up", PenWentUp{}, `{"type":"pen_went_up"}`},
		{"pen down", PenWentDown{}, `{"type":"pen_went_down"}`},
		{"color", ColorChanged{Color: turtle.Blue}, `{"color":"Blue","type":"color_changed"}`},
		{
			"moved event with pen",
			MovedEvent{Start: turtle.Position{X: 0, Y: 0}, End: turtle.Position{X: 50, Y: 86.6}, PenColor: ColorPtr(turtle.Red)},
			`{"end":{"x":50,"y":86.6},"pen_color":"Red","start":{"x":0,"y":0},"type":"moved_event"}`,
		},
		{
			"moved event pen up",
			MovedEvent{Start: turtle.Position{X: 1, Y: 2}, End: turtle.Position{X: 3, Y: 4}},
			`{"end":{"x":3,"y":4},"start":{"x":1,"y":2},"type":"moved_event"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))

			back, err := Unmarshal(got)
			require.NoError(t, err)
			assert.Equal(t, tt.ev.Type(), back.Type())

			again, err := MarshalCanonical(back)
			require.NoError(t, err)
			assert.Equal(t, string(got), string(again), "canonical form must be a fixed point")
		})
	}
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(Moved{Distance: math.NaN()})
	assert.Error(t, err)

	_, err = MarshalCanonical(Turned{Angle: math.Inf(1)})
	assert.Error(t, err)

	_, err = MarshalCanonical(ColorChanged{Color: turtle.Color(42)})
	assert.Error(t, err)

	bad := turtle.Color(9)
	_, err = MarshalCanonical(MovedEvent{PenColor: &bad})
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestUnmarshal_PreservesPenColor(t *testing.T) {
	ev, err := Unmarshal([]byte(`{"end":{"x":3,"y":4},"pen_color":"Blue","start":{"x":1,"y":2},"type":"moved_event"}`))
	require.NoError(t, err)

	moved, ok := ev.(MovedEvent)
	require.True(t, ok)
	require.True(t, moved.Drawn())
	assert.Equal(t, turtle.Blue, *moved.PenColor)
	assert.Equal(t, turtle.Position{X: 3, Y: 4}, moved.End)
}

func TestUnmarshal_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"unknown type", `{"type":"teleported"}`},
		{"missing distance", `{"type":"moved"}`},
		{"missing angle", `{"type":"turned"}`},
		{"missing color", `{"type":"color_changed"}`},
		{"bad color", `{"color":"Green","type":"color_changed"}`},
		{"missing start", `{"end":{"x":0,"y":0},"type":"moved_event"}`},
		{"missing end", `{"start":{"x":0,"y":0},"type":"moved_event"}`},
		{"bad pen color", `{"end":{"x":0,"y":0},"pen_color":"Pink","start":{"x":0,"y":0},"type":"moved_event"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestStateChanged_ClosedSet(t *testing.T) {
	events := []Event{
		Moved{}, Turned{}, PenWentUp{}, PenWentDown{}, ColorChanged{}, MovedEvent{},
	}

	var stateChanged int
	for _, ev := range events {
		if _, ok := ev.(StateChanged); ok {
			stateChanged++
		}
	}
	assert.Equal(t, 5, stateChanged)

	_, ok := Event(MovedEvent{}).(StateChanged)
	assert.False(t, ok, "derived events must never be replayable")
}

func TestMarshalCanonicalValue_Nested(t *testing.T) {
	ev, err := ToMap(Turned{Angle: -0.5})
	require.NoError(t, err)

	got, err := MarshalCanonicalValue(map[string]any{
		"zeta":   []any{int64(2), 1, true},
		"alpha":  ev,
		"middle": []any{},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"angle":-0.5,"type":"turned"},"middle":[],"zeta":[2,1,true]}`, string(got))

	_, err = MarshalCanonicalValue([]any{"ok", nil})
	assert.Error(t, err)
}
