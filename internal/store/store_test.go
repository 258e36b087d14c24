package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/testutil"
	"github.com/roach88/turtle/internal/turtle"
)

func appendAll(t *testing.T, s *EventStore, id turtle.ID, events ...event.Event) {
	t.Helper()
	for _, ev := range events {
		_, err := s.Append(context.Background(), id, ev)
		require.NoError(t, err)
	}
}

func TestAppend_GetOldestFirst(t *testing.T) {
	forEachLog(t, func(t *testing.T, s *EventStore) {
		ctx := context.Background()
		moved := event.MovedEvent{
			Start:    turtle.Position{X: 0, Y: 0},
			End:      turtle.Position{X: 10, Y: 0},
			PenColor: event.ColorPtr(turtle.Black),
		}
		appendAll(t, s, "t-1",
			event.Moved{Distance: 10},
			moved,
			event.Turned{Angle: 90},
			event.ColorChanged{Color: turtle.Red},
		)

		all, err := s.Events(ctx, "t-1")
		require.NoError(t, err)
		assert.Equal(t, []event.Event{
			event.Moved{Distance: 10},
			moved,
			event.Turned{Angle: 90},
			event.ColorChanged{Color: turtle.Red},
		}, all)

		changed, err := Get[event.StateChanged](ctx, s, "t-1")
		require.NoError(t, err)
		assert.Equal(t, []event.StateChanged{
			event.Moved{Distance: 10},
			event.Turned{Angle: 90},
			event.ColorChanged{Color: turtle.Red},
		}, changed)

		derived, err := Get[event.MovedEvent](ctx, s, "t-1")
		require.NoError(t, err)
		assert.Equal(t, []event.MovedEvent{moved}, derived)

		turns, err := Get[event.Turned](ctx, s, "t-1")
		require.NoError(t, err)
		assert.Equal(t, []event.Turned{{Angle: 90}}, turns)
	})
}

func TestGet_UnknownIDIsEmpty(t *testing.T) {
	forEachLog(t, func(t *testing.T, s *EventStore) {
		events, err := Get[event.StateChanged](context.Background(), s, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, events)
		assert.Empty(t, events)

		records, err := s.Records(context.Background(), "nobody")
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})
}

func TestGet_StableRead(t *testing.T) {
	forEachLog(t, func(t *testing.T, s *EventStore) {
		ctx := context.Background()
		appendAll(t, s, "t-1", event.Moved{Distance: 1}, event.Turned{Angle: 2}, event.PenWentUp{})

		first, err := s.Records(ctx, "t-1")
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := s.Records(ctx, "t-1")
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}

func TestAppend_RecordNumbering(t *testing.T) {
	forEachLog(t, func(t *testing.T, s *EventStore) {
		ctx := context.Background()
		appendAll(t, s, "a", event.Moved{Distance: 1})
		appendAll(t, s, "b", event.Moved{Distance: 1})
		appendAll(t, s, "a", event.Moved{Distance: 1})

		recs, err := s.Records(ctx, "a")
		require.NoError(t, err)
		require.Len(t, recs, 2)

		assert.Equal(t, int64(1), recs[0].Version)
		assert.Equal(t, int64(2), recs[1].Version)
		assert.Less(t, recs[0].Seq, recs[1].Seq)
		assert.Equal(t, turtle.ID("a"), recs[0].TurtleID)

		wantID, err := event.ID("a", 2, event.Moved{Distance: 1})
		require.NoError(t, err)
		assert.Equal(t, wantID, recs[1].ID)
		assert.NotEqual(t, recs[0].ID, recs[1].ID, "same event at another version has another id")
	})
}

func TestAppend_NilEvent(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()))
	_, err := s.Append(context.Background(), "t-1", nil)
	assert.ErrorIs(t, err, ErrNilEvent)
}

func TestAppend_CancelledContext(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()))
	rec := testutil.NewRecorder()
	s.Subscribe(rec.Handle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Append(ctx, "t-1", event.PenWentUp{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rec.Len(), "nothing is notified before it is stored")
}

func TestClear_ResetsHistory(t *testing.T) {
	forEachLog(t, func(t *testing.T, s *EventStore) {
		ctx := context.Background()
		rec := testutil.NewRecorder()
		s.Subscribe(rec.Handle)

		appendAll(t, s, "t-1", event.Moved{Distance: 1}, event.Turned{Angle: 1})
		appendAll(t, s, "t-2", event.Moved{Distance: 2})

		require.NoError(t, s.Clear(ctx, "t-1"))

		events, err := s.Events(ctx, "t-1")
		require.NoError(t, err)
		assert.Empty(t, events)

		other, err := s.Events(ctx, "t-2")
		require.NoError(t, err)
		assert.Len(t, other, 1, "clear is per turtle")

		assert.Equal(t, 3, rec.Len(), "already delivered notifications are unaffected")

		appendAll(t, s, "t-1", event.PenWentUp{})
		recs, err := s.Records(ctx, "t-1")
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, int64(1), recs[0].Version, "versions restart after clear")
	})
}

func TestTurtleIDs(t *testing.T) {
	forEachLog(t, func(t *testing.T, s *EventStore) {
		ctx := context.Background()
		appendAll(t, s, "b", event.PenWentUp{})
		appendAll(t, s, "a", event.PenWentUp{})
		appendAll(t, s, "c", event.PenWentUp{})
		require.NoError(t, s.Clear(ctx, "c"))

		ids, err := s.TurtleIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []turtle.ID{"a", "b"}, ids)
	})
}

func TestSubscribe_SynchronousInRegistrationOrder(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()))

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		s.Subscribe(func(context.Context, turtle.ID, event.Event) error {
			order = append(order, name)
			return nil
		}, Named(name))
	}

	appendAll(t, s, "t-1", event.PenWentDown{})

	// no waiting: delivery completes before Append returns
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestSubscribe_ReceivesAcrossTurtles(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()))
	rec := testutil.NewRecorder()
	s.Subscribe(rec.Handle)

	appendAll(t, s, "a", event.Moved{Distance: 1})
	appendAll(t, s, "b", event.Moved{Distance: 2})

	got := rec.Deliveries()
	require.Len(t, got, 2)
	assert.Equal(t, testutil.Delivery{TurtleID: "a", Event: event.Moved{Distance: 1}}, got[0])
	assert.Equal(t, testutil.Delivery{TurtleID: "b", Event: event.Moved{Distance: 2}}, got[1])
}

func TestSubscribe_OnlyFutureEvents(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()))
	appendAll(t, s, "t-1", event.Moved{Distance: 1})

	rec := testutil.NewRecorder()
	s.Subscribe(rec.Handle)
	appendAll(t, s, "t-1", event.Moved{Distance: 2})

	assert.Equal(t, []event.Event{event.Moved{Distance: 2}}, rec.For("t-1"))
}

func TestUnsubscribe(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()))
	rec := testutil.NewRecorder()
	sub := s.Subscribe(rec.Handle, Named("rec"))

	appendAll(t, s, "t-1", event.Moved{Distance: 1})
	assert.True(t, sub.Active())
	assert.Equal(t, "rec", sub.Name())

	sub.Unsubscribe()
	sub.Unsubscribe()

	appendAll(t, s, "t-1", event.Moved{Distance: 2})

	assert.False(t, sub.Active())
	assert.Equal(t, 1, rec.Len())
	assert.Equal(t, 0, s.Subscribers())
}

func TestUnsubscribe_FromInsideHandler(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()))
	later := testutil.NewRecorder()

	var sub *Subscription
	calls := 0
	sub = s.Subscribe(func(context.Context, turtle.ID, event.Event) error {
		calls++
		sub.Unsubscribe()
		return nil
	})
	s.Subscribe(later.Handle)

	appendAll(t, s, "t-1", event.PenWentUp{}, event.PenWentDown{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, later.Len(), "other subscribers keep receiving")
}

func TestUnsubscribe_SkipsSnapshottedSubscriber(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()))
	second := testutil.NewRecorder()

	var secondSub *Subscription
	s.Subscribe(func(context.Context, turtle.ID, event.Event) error {
		// runs before second in the same notification
		secondSub.Unsubscribe()
		return nil
	})
	secondSub = s.Subscribe(second.Handle)

	appendAll(t, s, "t-1", event.PenWentUp{})
	assert.Equal(t, 0, second.Len(), "unsubscribe is immediate for events not yet delivered")
}

func TestSubscriber_PanicIsContained(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()))
	after := testutil.NewRecorder()

	bad := s.Subscribe(func(context.Context, turtle.ID, event.Event) error {
		panic("boom")
	}, Named("bad"))
	s.Subscribe(after.Handle)

	_, err := s.Append(context.Background(), "t-1", event.PenWentUp{})
	require.NoError(t, err, "a panicking subscriber never reaches the writer")

	assert.False(t, bad.Active(), "panicking subscriber is removed by default")
	assert.Equal(t, 1, after.Len())
	assert.Equal(t, 1, s.Subscribers())

	appendAll(t, s, "t-1", event.PenWentDown{})
	assert.Equal(t, 2, after.Len())
}

func TestSubscriber_PanicKeptWhenConfigured(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()), WithUnsubscribeOnPanic(false))

	calls := 0
	sub := s.Subscribe(func(context.Context, turtle.ID, event.Event) error {
		calls++
		panic("boom")
	})

	appendAll(t, s, "t-1", event.PenWentUp{}, event.PenWentDown{})
	assert.True(t, sub.Active())
	assert.Equal(t, 2, calls)
}

func TestSubscriber_ErrorIsContained(t *testing.T) {
	s := NewInMemory(WithLogger(quietLogger()))

	calls := 0
	sub := s.Subscribe(func(context.Context, turtle.ID, event.Event) error {
		calls++
		return errors.New("projection unavailable")
	})

	appendAll(t, s, "t-1", event.PenWentUp{}, event.PenWentDown{})
	assert.True(t, sub.Active(), "an error does not unsubscribe")
	assert.Equal(t, 2, calls)
}

func TestConcurrentTurtles_PerTurtleOrder(t *testing.T) {
	forEachLog(t, func(t *testing.T, s *EventStore) {
		rec := testutil.NewRecorder()
		s.Subscribe(rec.Handle)

		const turtles = 8
		const perTurtle = 25

		var wg sync.WaitGroup
		for i := 0; i < turtles; i++ {
			wg.Add(1)
			go func(id turtle.ID) {
				defer wg.Done()
				for n := 1; n <= perTurtle; n++ {
					_, err := s.Append(context.Background(), id, event.Moved{Distance: float64(n)})
					assert.NoError(t, err)
				}
			}(turtle.ID(fmt.Sprintf("t-%d", i)))
		}
		wg.Wait()

		assert.Equal(t, turtles*perTurtle, rec.Len())
		for i := 0; i < turtles; i++ {
			id := turtle.ID(fmt.Sprintf("t-%d", i))

			delivered := rec.For(id)
			require.Len(t, delivered, perTurtle)
			for n, ev := range delivered {
				assert.Equal(t, event.Moved{Distance: float64(n + 1)}, ev, "turtle %s position %d", id, n)
			}

			stored, err := s.Events(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, delivered, stored, "delivery order matches stored order")
		}
	})
}
