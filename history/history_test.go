package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB opens an in-memory database with a clock that advances one
// second per record.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	d.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	return d
}

func TestRecordAndRecent(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.Record(ctx, "aaa", "https://chat/aaa"))
	require.NoError(t, d.Record(ctx, "bbb", "https://chat/bbb"))
	require.NoError(t, d.Record(ctx, "ccc", "https://chat/ccc"))

	entries, err := d.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "ccc", entries[0].StreamID)
	assert.Equal(t, "bbb", entries[1].StreamID)
	assert.Equal(t, "aaa", entries[2].StreamID)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, 1, entries[0].OpenCount)
}

func TestRecordReopenMovesToTop(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.Record(ctx, "aaa", "https://chat/aaa"))
	require.NoError(t, d.Record(ctx, "bbb", "https://chat/bbb"))
	require.NoError(t, d.Record(ctx, "aaa", "https://chat/aaa2"))

	entries, err := d.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "aaa", entries[0].StreamID)
	assert.Equal(t, "https://chat/aaa2", entries[0].URL)
	assert.Equal(t, 2, entries[0].OpenCount)
}

func TestRecentLimit(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, d.Record(ctx, id, "u"))
	}

	entries, err := d.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "d", entries[0].StreamID)
	assert.Equal(t, "c", entries[1].StreamID)
}

func TestRecordRequiresStreamID(t *testing.T) {
	d := newTestDB(t)
	assert.Error(t, d.Record(context.Background(), "", "u"))
}

func TestPrune(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, d.Record(ctx, id, "u"))
	}

	require.NoError(t, d.Prune(ctx, 2))

	entries, err := d.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "d", entries[0].StreamID)
	assert.Equal(t, "c", entries[1].StreamID)

	// Keeping more than exist removes nothing.
	require.NoError(t, d.Prune(ctx, 10))
	entries, err = d.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestEmptyRecentIsNotNil(t *testing.T) {
	d := newTestDB(t)
	entries, err := d.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history.db")
	d, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, d.Record(context.Background(), "x", "u"))
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, path, d.Path())
	entries, err := d.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0].StreamID)
}
