package storage

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/journal/internal/config"
	"github.com/stolasapp/journal/internal/storage/db"
)

func newTestDB(t *testing.T, dsn string) *DB {
	t.Helper()
	cfg := config.Default()
	cfg.DatabaseURL = dsn
	store, err := NewDB(t.Context(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDB(t *testing.T) {
	t.Parallel()

	store := newTestDB(t, filepath.Join(t.TempDir(), "db.sqlite"))

	t.Run("CreateThenGet", func(t *testing.T) {
		t.Parallel()

		before := time.Now().UTC().Add(-time.Second)
		created, err := store.CreateEntry(t.Context(), "Hello there", "##This is a post")
		require.NoError(t, err)
		assert.Positive(t, created.ID)
		assert.Equal(t, "Hello there", created.Title)
		assert.Equal(t, "##This is a post", created.Text)
		assert.True(t, created.Created.After(before))
		assert.Equal(t, time.UTC, created.Created.Location())

		actual, err := store.GetEntry(t.Context(), created.ID)
		require.NoError(t, err)
		if diff := cmp.Diff(created, actual); diff != "" {
			t.Errorf("GetEntry() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("UpdateKeepsCreated", func(t *testing.T) {
		t.Parallel()

		created, err := store.CreateEntry(t.Context(), "draft", "first")
		require.NoError(t, err)

		updated, err := store.UpdateEntry(t.Context(), created.ID, "final", "second")
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "final", updated.Title)
		assert.Equal(t, "second", updated.Text)
		assert.True(t, created.Created.Equal(updated.Created))

		actual, err := store.GetEntry(t.Context(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "final", actual.Title)
		assert.True(t, created.Created.Equal(actual.Created))
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()

		_, err := store.GetEntry(t.Context(), 1<<40)
		require.ErrorIs(t, err, ErrNotFound)

		_, err = store.UpdateEntry(t.Context(), 1<<40, "title", "text")
		require.ErrorIs(t, err, ErrNotFound)

		err = store.DeleteEntry(t.Context(), 1<<40)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		t.Parallel()

		created, err := store.CreateEntry(t.Context(), "doomed", "bye")
		require.NoError(t, err)
		require.NoError(t, store.DeleteEntry(t.Context(), created.ID))
		_, err = store.GetEntry(t.Context(), created.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDB_Validation(t *testing.T) {
	t.Parallel()

	store := newTestDB(t, ":memory:")
	existing, err := store.CreateEntry(t.Context(), "existing", "text")
	require.NoError(t, err)

	tests := []struct {
		name  string
		id    int64
		title string
		text  string
	}{
		{name: "empty title", id: existing.ID, title: "", text: "text"},
		{name: "blank title", id: existing.ID, title: "   ", text: "text"},
		{name: "empty text", id: existing.ID, title: "title", text: ""},
		{name: "blank text", id: existing.ID, title: "title", text: "\n\t"},
		{name: "long title", id: existing.ID, title: strings.Repeat("a", MaxTitleLength+1), text: "text"},
		{name: "zero id", id: 0, title: "title", text: "text"},
		{name: "negative id", id: -1, title: "title", text: "text"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := store.UpdateEntry(t.Context(), test.id, test.title, test.text)
			require.ErrorIs(t, err, ErrInvalidInput)
			if test.id > 0 {
				_, err = store.CreateEntry(t.Context(), test.title, test.text)
				require.ErrorIs(t, err, ErrInvalidInput)
			}
		})
	}

	t.Run("max length title", func(t *testing.T) {
		t.Parallel()

		title := strings.Repeat("é", MaxTitleLength)
		entry, err := store.CreateEntry(t.Context(), title, "text")
		require.NoError(t, err)
		assert.Equal(t, title, entry.Title)
	})

	t.Run("get invalid id", func(t *testing.T) {
		t.Parallel()

		_, err := store.GetEntry(t.Context(), 0)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestDB_ListEntries(t *testing.T) {
	t.Parallel()

	store := newTestDB(t, ":memory:")

	entries, err := store.ListEntries(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	first, err := store.CreateEntry(t.Context(), "first", "one")
	require.NoError(t, err)
	second, err := store.CreateEntry(t.Context(), "second", "two")
	require.NoError(t, err)
	now = now.Add(time.Hour)
	third, err := store.CreateEntry(t.Context(), "third", "three")
	require.NoError(t, err)

	entries, err = store.ListEntries(t.Context())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{entries[0].ID, entries[1].ID, entries[2].ID})
	assert.True(t, now.Equal(entries[0].Created))
}

func TestDB_Closed(t *testing.T) {
	t.Parallel()

	store := newTestDB(t, ":memory:")
	require.NoError(t, store.Close())

	_, err := store.ListEntries(t.Context())
	require.ErrorIs(t, err, ErrStorage)

	_, err = store.CreateEntry(t.Context(), "title", "text")
	require.ErrorIs(t, err, ErrStorage)
}

func TestDB_SQLitePrefix(t *testing.T) {
	t.Parallel()

	store := newTestDB(t, "sqlite://"+filepath.Join(t.TempDir(), "nested", "db.sqlite"))
	entry, err := store.CreateEntry(t.Context(), "title", "text")
	require.NoError(t, err)
	assert.Equal(t, db.Entry{
		ID:      entry.ID,
		Title:   "title",
		Text:    "text",
		Created: entry.Created,
	}, entry)
}
