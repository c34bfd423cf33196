package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/essenskalender/internal/api"
	"github.com/pbaille/essenskalender/internal/domain"
	"github.com/pbaille/essenskalender/internal/logging"
	"github.com/pbaille/essenskalender/internal/store"
)

func newAPIClient(t *testing.T) *HTTP {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "diary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	srv := httptest.NewServer(api.New(s, "", "essens-kalender", logging.Discard()).Handler())
	t.Cleanup(srv.Close)
	return NewHTTP(srv.URL+"/", 0)
}

func newStubClient(t *testing.T, h http.HandlerFunc) *HTTP {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTP(srv.URL, 0)
}

func TestHTTP_AgainstServer(t *testing.T) {
	c := newAPIClient(t)
	ctx := context.Background()

	require.NoError(t, c.AddEntry(ctx, domain.Entry{ID: "b", Date: "2024-03-05", Food: "Snack", Mood: 3}))
	require.NoError(t, c.AddEntry(ctx, domain.Entry{ID: "a", Date: "2024-03-05", Time: domain.TimeOf("08:30"), Food: "Toast", Mood: 4}))
	require.NoError(t, c.AddEntry(ctx, domain.Entry{ID: "c", Date: "2024-03-06", Food: "Reis", Mood: 2}))

	day, err := c.GetEntriesByDate(ctx, "2024-03-05")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "a", day[0].ID)
	assert.Nil(t, day[1].Time)

	dates, err := c.GetDatesWithEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"2024-03-05": {}, "2024-03-06": {}}, dates)

	require.NoError(t, c.UpdateEntry(ctx, domain.Entry{ID: "c", Date: "2024-03-05", Food: "Reis", Mood: 2}))
	dates, err = c.GetDatesWithEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"2024-03-05": {}}, dates)

	require.NoError(t, c.DeleteEntry(ctx, "c"))
	err = c.DeleteEntry(ctx, "c")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = c.AddEntry(ctx, domain.Entry{ID: "a", Date: "2024-03-05", Food: "Toast", Mood: 4})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	err = c.AddEntry(ctx, domain.Entry{ID: "x", Date: "2024-03-05", Mood: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, "Missing id, date, food or mood", err.Error())

	err = c.UpdateEntry(ctx, domain.Entry{ID: "nope", Date: "2024-03-05", Food: "x", Mood: 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestHTTP_NightPain(t *testing.T) {
	c := newAPIClient(t)
	ctx := context.Background()

	none, err := c.GetNightPain(ctx, "2024-03-05")
	require.NoError(t, err)
	assert.Nil(t, none)

	saved, err := c.SaveNightPain(ctx, domain.NightPain{Date: "2024-03-05", Pain: true, Notes: "woke twice"})
	require.NoError(t, err)
	assert.Equal(t, domain.NightPain{Date: "2024-03-05", Pain: true, Notes: "woke twice"}, saved)

	got, err := c.GetNightPain(ctx, "2024-03-05")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved, *got)

	month, err := c.GetNightPainByMonth(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, []domain.NightPain{saved}, month)

	empty, err := c.GetNightPainByMonth(ctx, "2024-04")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHTTP_NonJSONResponse(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<!doctype html>\n<html><body>app shell</body></html>")
	})

	_, err := c.GetAllEntries(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNonJSONResponse))
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "keine JSON-Antwort")
	assert.Contains(t, err.Error(), "<!doctype html> <html>")
}

func TestHTTP_MalformedJSON(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": "a",`)
	})

	_, err := c.GetAllEntries(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedJSON))
	assert.False(t, errors.Is(err, domain.ErrNonJSONResponse))
	assert.Contains(t, err.Error(), "Ungültige JSON-Antwort")
}

func TestHTTP_EmptyJSONBodyIsEmptyList(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
	})

	entries, err := c.GetAllEntries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHTTP_ServerErrorSurfacesMessage(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"Missing POSTGRES_URL or DATABASE_URL"}`)
	})

	_, err := c.GetAllEntries(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrServer))
	assert.Equal(t, "Missing POSTGRES_URL or DATABASE_URL", err.Error())
}

func TestHTTP_ServerErrorWithoutBody(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.DeleteEntry(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, "HTTP 502", err.Error())
}

func TestHTTP_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTP(url, 0).GetAllEntries(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}
