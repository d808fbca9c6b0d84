package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndRecent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for i, input := range []string{"first", "second", "third"} {
		require.NoError(t, store.Save(ctx, &Record{
			RunID:      "run-" + input,
			SessionID:  "s1",
			Agent:      "root_agent",
			Input:      input,
			Output:     "answer",
			TokensUsed: 100 * (i + 1),
			Success:    true,
		}))
	}

	records, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "third", records[0].Input)
	assert.Equal(t, "second", records[1].Input)
}

func TestStore_BySession(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Record{SessionID: "a", Input: "q1"}))
	require.NoError(t, store.Save(ctx, &Record{SessionID: "b", Input: "q2"}))
	require.NoError(t, store.Save(ctx, &Record{SessionID: "a", Input: "q3"}))

	records, err := store.BySession(ctx, "a")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q1", records[0].Input)
	assert.Equal(t, "q3", records[1].Input)
}

func TestStore_RecentDefaultLimit(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	records, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
