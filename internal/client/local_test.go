package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/essenskalender/internal/domain"
	"github.com/pbaille/essenskalender/internal/store"
)

func TestLocal_MirrorsBackend(t *testing.T) {
	l := NewLocal(store.NewDiskStore(t.TempDir()))
	ctx := context.Background()

	require.NoError(t, l.AddEntry(ctx, domain.Entry{ID: "a", Date: "2024-03-05", Food: "Toast", Mood: 4}))
	require.NoError(t, l.AddEntry(ctx, domain.Entry{ID: "b", Date: "2024-03-05", Food: "Soup", Mood: 2}))

	dates, err := l.GetDatesWithEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, dates, 1)

	require.NoError(t, l.UpdateEntry(ctx, domain.Entry{ID: "b", Date: "2024-03-07", Food: "Soup", Mood: 2}))
	dates, err = l.GetDatesWithEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"2024-03-05": {}, "2024-03-07": {}}, dates)

	require.NoError(t, l.DeleteEntry(ctx, "a"))
	assert.True(t, errors.Is(l.DeleteEntry(ctx, "a"), domain.ErrNotFound))

	day, err := l.GetEntriesByDate(ctx, "2024-03-05")
	require.NoError(t, err)
	assert.Empty(t, day)
}

func TestLocal_NightPainAbsenceIsNil(t *testing.T) {
	l := NewLocal(store.NewDiskStore(t.TempDir()))
	ctx := context.Background()

	got, err := l.GetNightPain(ctx, "2024-03-05")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = l.SaveNightPain(ctx, domain.NightPain{Date: "2024-03-05", Pain: false})
	require.NoError(t, err)

	got, err = l.GetNightPain(ctx, "2024-03-05")
	require.NoError(t, err)
	require.NotNil(t, got, "an explicit pain=false record is not the same as no record")
	assert.False(t, got.Pain)
}
