package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turtle/internal/event"
	"github.com/roach88/turtle/internal/turtle"
)

func TestOpenSQLite_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	l, err := OpenSQLite(path)
	require.NoError(t, err)
	defer l.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		l, err := OpenSQLite(path)
		require.NoError(t, err, "open iteration %d", i)
		l.Close()
	}

	l, err := OpenSQLite(path)
	require.NoError(t, err)
	defer l.Close()

	var name string
	err = l.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_events_turtle_seq'").Scan(&name)
	assert.NoError(t, err, "migration index missing")

	var version int
	require.NoError(t, l.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestSQLiteLog_CloseNil(t *testing.T) {
	l := &SQLiteLog{}
	assert.NoError(t, l.Close())
}

func TestSQLiteLog_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	l1, err := OpenSQLite(path)
	require.NoError(t, err)
	s1 := New(l1, WithLogger(quietLogger()))
	_, err = s1.Append(ctx, "t-1", event.Moved{Distance: 10})
	require.NoError(t, err)
	_, err = s1.Append(ctx, "t-1", event.ColorChanged{Color: turtle.Blue})
	require.NoError(t, err)
	require.NoError(t, l1.Close())

	l2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer l2.Close()
	s2 := New(l2, WithLogger(quietLogger()))

	events, err := s2.Events(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, []event.Event{
		event.Moved{Distance: 10},
		event.ColorChanged{Color: turtle.Blue},
	}, events)

	rec, err := s2.Append(ctx, "t-1", event.PenWentUp{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Version)
}

func TestSQLiteLog_StoresCanonicalPayload(t *testing.T) {
	l := createTestSQLite(t)
	ctx := context.Background()

	_, err := l.Append(ctx, "t-1", event.Turned{Angle: 120})
	require.NoError(t, err)

	var typ, payload string
	err = l.DB().QueryRow("SELECT type, payload FROM events WHERE turtle_id = ?", "t-1").Scan(&typ, &payload)
	require.NoError(t, err)
	assert.Equal(t, "turned", typ)
	assert.Equal(t, `{"angle":120,"type":"turned"}`, payload)
}

func TestSQLiteLog_RejectsTypeMismatch(t *testing.T) {
	l := createTestSQLite(t)
	ctx := context.Background()

	_, err := l.DB().Exec(`
		INSERT INTO events (id, turtle_id, version, type, payload)
		VALUES ('x', 't-1', 1, 'moved', '{"angle":1,"type":"turned"}')
	`)
	require.NoError(t, err)

	_, err = l.Load(ctx, "t-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestSQLiteLog_RejectsUnencodableEvent(t *testing.T) {
	l := createTestSQLite(t)
	_, err := l.Append(context.Background(), "t-1", event.ColorChanged{Color: turtle.Color(12)})
	assert.Error(t, err)
}

func TestSQLiteLog_InMemory(t *testing.T) {
	l, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer l.Close()

	ctx := context.Background()
	_, err = l.Append(ctx, "t-1", event.PenWentUp{})
	require.NoError(t, err)

	recs, err := l.Load(ctx, "t-1")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSQLiteLog_ClearRestartsVersionsButNotSeq(t *testing.T) {
	ctx := context.Background()
	l := createTestSQLite(t)

	first, err := l.Append(ctx, "t-1", event.Moved{Distance: 10})
	require.NoError(t, err)
	require.NoError(t, l.Clear(ctx, "t-1"))

	again, err := l.Append(ctx, "t-1", event.Moved{Distance: 10})
	require.NoError(t, err)

	assert.Equal(t, int64(1), again.Version)
	assert.Greater(t, again.Seq, first.Seq, "seq must not be reused after Clear")
	assert.Equal(t, first.ID, again.ID, "same turtle, version and event hash alike")
}
