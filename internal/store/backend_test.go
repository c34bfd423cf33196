package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/essenskalender/internal/domain"
)

// backends returns a fresh instance of every backend that runs without
// external services.
func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := OpenSQLite(filepath.Join(dir, "diary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Backend{
		"sqlite": sqlite,
		"local":  NewDiskStore(filepath.Join(dir, "local")),
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, b Backend)) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) { fn(t, b) })
	}
}

func entryIDs(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestCreateThenGet_RoundTrips(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		timed := domain.Entry{ID: "e1", Date: "2024-03-05", Time: domain.TimeOf("08:30"), Food: "Toast", Mood: 4}
		untimed := domain.Entry{ID: "e2", Date: "2024-03-05", Food: "Apfel", Mood: 5}

		for _, e := range []domain.Entry{timed, untimed} {
			id, err := b.CreateEntry(ctx, e)
			require.NoError(t, err)
			assert.Equal(t, e.ID, id)

			got, err := b.GetEntry(ctx, e.ID)
			require.NoError(t, err)
			assert.Equal(t, e, got)
		}

		got, err := b.GetEntry(ctx, "e2")
		require.NoError(t, err)
		assert.Nil(t, got.Time, "absent time must stay absent")
	})
}

func TestCreateEntry_EmptyTimeStoredAsAbsent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		empty := ""
		_, err := b.CreateEntry(ctx, domain.Entry{ID: "e1", Date: "2024-03-05", Time: &empty, Food: "Tee", Mood: 3})
		require.NoError(t, err)

		got, err := b.GetEntry(ctx, "e1")
		require.NoError(t, err)
		assert.Nil(t, got.Time)
	})
}

func TestCreateEntry_Validation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		_, err := b.CreateEntry(context.Background(), domain.Entry{ID: "e1", Date: "2024-03-05", Mood: 3})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestCreateEntry_DuplicateIDConflicts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		e := domain.Entry{ID: "dup", Date: "2024-03-05", Food: "Toast", Mood: 4}
		_, err := b.CreateEntry(ctx, e)
		require.NoError(t, err)

		e.Food = "Other"
		_, err = b.CreateEntry(ctx, e)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConflict))

		got, err := b.GetEntry(ctx, "dup")
		require.NoError(t, err)
		assert.Equal(t, "Toast", got.Food, "duplicate create must not overwrite")
	})
}

func TestListEntries_Ordering(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		seed := []domain.Entry{
			{ID: "m-none", Date: "2024-03-05", Food: "Snack", Mood: 3},
			{ID: "m-late", Date: "2024-03-05", Time: domain.TimeOf("19:00"), Food: "Soup", Mood: 2},
			{ID: "m-early", Date: "2024-03-05", Time: domain.TimeOf("08:30"), Food: "Toast", Mood: 4},
			{ID: "prev", Date: "2024-03-04", Time: domain.TimeOf("12:00"), Food: "Salat", Mood: 5},
		}
		for _, e := range seed {
			_, err := b.CreateEntry(ctx, e)
			require.NoError(t, err)
		}

		all, err := b.ListEntries(ctx, EntryFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"m-early", "m-late", "m-none", "prev"}, entryIDs(all))

		day, err := b.ListEntries(ctx, EntryFilter{Date: "2024-03-05"})
		require.NoError(t, err)
		assert.Equal(t, []string{"m-early", "m-late", "m-none"}, entryIDs(day))

		none, err := b.ListEntries(ctx, EntryFilter{Date: "2024-01-01"})
		require.NoError(t, err)
		assert.Empty(t, none)
		assert.NotNil(t, none)
	})
}

func TestUpdateEntry(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		_, err := b.CreateEntry(ctx, domain.Entry{ID: "e1", Date: "2024-03-05", Time: domain.TimeOf("08:30"), Food: "Toast", Mood: 4})
		require.NoError(t, err)

		err = b.UpdateEntry(ctx, "e1", domain.Entry{ID: "ignored", Date: "2024-03-06", Food: "Brot", Mood: 2})
		require.NoError(t, err)

		got, err := b.GetEntry(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, domain.Entry{ID: "e1", Date: "2024-03-06", Food: "Brot", Mood: 2}, got)

		_, err = b.GetEntry(ctx, "ignored")
		assert.True(t, errors.Is(err, domain.ErrNotFound))

		err = b.UpdateEntry(ctx, "missing", domain.Entry{Date: "2024-03-06", Food: "Brot", Mood: 2})
		assert.True(t, errors.Is(err, domain.ErrNotFound))

		err = b.UpdateEntry(ctx, "e1", domain.Entry{Date: "2024-03-06", Mood: 2})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestDeleteEntry_SecondDeleteIsNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		_, err := b.CreateEntry(ctx, domain.Entry{ID: "e1", Date: "2024-03-05", Food: "Toast", Mood: 4})
		require.NoError(t, err)

		require.NoError(t, b.DeleteEntry(ctx, "e1"))

		err = b.DeleteEntry(ctx, "e1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))

		err = b.DeleteEntry(ctx, "never-existed")
		assert.True(t, errors.Is(err, domain.ErrNotFound))

		_, err = b.GetEntry(ctx, "e1")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestNightPain_UpsertIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		rec := domain.NightPain{Date: "2024-03-05", Pain: true, Notes: "woke twice"}

		first, err := b.UpsertNightPain(ctx, rec)
		require.NoError(t, err)
		second, err := b.UpsertNightPain(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		got, err := b.GetNightPain(ctx, "2024-03-05")
		require.NoError(t, err)
		assert.Equal(t, rec, got)

		replaced, err := b.UpsertNightPain(ctx, domain.NightPain{Date: "2024-03-05", Pain: false})
		require.NoError(t, err)
		assert.Equal(t, domain.NightPain{Date: "2024-03-05"}, replaced)

		got, err = b.GetNightPain(ctx, "2024-03-05")
		require.NoError(t, err)
		assert.Equal(t, domain.NightPain{Date: "2024-03-05"}, got)
	})
}

func TestNightPain_MissingIsNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		_, err := b.GetNightPain(context.Background(), "2024-03-05")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestNightPain_UpsertRequiresDate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		_, err := b.UpsertNightPain(context.Background(), domain.NightPain{Pain: true})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})
}

func TestListNightPainByMonth(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		for _, n := range []domain.NightPain{
			{Date: "2024-03-20", Pain: false, Notes: ""},
			{Date: "2024-04-01", Pain: true},
			{Date: "2024-03-02", Pain: true, Notes: "Bauch"},
			{Date: "2023-03-02", Pain: true},
		} {
			_, err := b.UpsertNightPain(ctx, n)
			require.NoError(t, err)
		}

		got, err := b.ListNightPainByMonth(ctx, "2024-03")
		require.NoError(t, err)
		assert.Equal(t, []domain.NightPain{
			{Date: "2024-03-02", Pain: true, Notes: "Bauch"},
			{Date: "2024-03-20"},
		}, got)

		empty, err := b.ListNightPainByMonth(ctx, "2025-01")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestInit_IsRepeatable(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b Backend) {
		ctx := context.Background()
		require.NoError(t, b.Init(ctx))
		require.NoError(t, b.Init(ctx))
	})
}

func TestOpen_SelectsBackend(t *testing.T) {
	dir := t.TempDir()

	b, err := Open(Options{Kind: KindLocal, LocalDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &DiskStore{}, b)

	b, err = Open(Options{Kind: KindSQLite, Path: filepath.Join(dir, "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, b)
	require.NoError(t, b.Close())

	_, err = Open(Options{Kind: "mongo"})
	assert.Error(t, err)
}

func TestDiskStore_RejectsPathLikeIDs(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	_, err := s.CreateEntry(context.Background(), domain.Entry{ID: "../evil", Date: "2024-03-05", Food: "x", Mood: 1})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
