package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/essenskalender/internal/client"
	"github.com/pbaille/essenskalender/internal/domain"
	"github.com/pbaille/essenskalender/internal/store"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Toast", truncate("Toast", 10))
	assert.Equal(t, "Gemüse...", truncate("Gemüsesuppe", 9))
	assert.Equal(t, "a b", truncate("a\nb", 10))
}

func TestParseDateAndTime(t *testing.T) {
	d, err := parseDate(" 2024-03-05 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", d)

	_, err = parseDate("05.03.2024")
	assert.Error(t, err)

	tm, err := parseTime("8:30")
	require.NoError(t, err)
	assert.Equal(t, "08:30", *tm)

	tm, err = parseTime("")
	require.NoError(t, err)
	assert.Nil(t, tm)

	_, err = parseTime("25:00")
	assert.Error(t, err)
}

func TestDayTitle(t *testing.T) {
	assert.Equal(t, "5. März 2024", dayTitle("2024-03-05"))
	assert.Equal(t, "31. Dezember 2023", dayTitle("2023-12-31"))
	assert.Equal(t, "garbage", dayTitle("garbage"))
}

func TestParsePain(t *testing.T) {
	for _, s := range []string{"ja", "J", "yes", "true"} {
		v, err := parsePain(s)
		require.NoError(t, err, s)
		assert.True(t, v, s)
	}
	v, err := parsePain("Nein")
	require.NoError(t, err)
	assert.False(t, v)

	_, err = parsePain("vielleicht")
	assert.Error(t, err)
}

func TestPromptConfirm(t *testing.T) {
	e := domain.Entry{ID: "e1", Date: "2024-03-05", Food: "Toast", Mood: 4}

	var out bytes.Buffer
	assert.True(t, promptConfirm(strings.NewReader("j\n"), &out, e))
	assert.Contains(t, out.String(), "Toast")
	assert.Contains(t, out.String(), "5. März 2024")

	assert.True(t, promptConfirm(strings.NewReader("Ja"), &out, e))
	assert.False(t, promptConfirm(strings.NewReader("\n"), &out, e))
	assert.False(t, promptConfirm(strings.NewReader("nein\n"), &out, e))
	assert.False(t, promptConfirm(strings.NewReader(""), &out, e))
}

func TestFindEntry(t *testing.T) {
	ctx := context.Background()
	b, err := store.OpenSQLite(filepath.Join(t.TempDir(), "diary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	a := client.NewLocal(b)

	for _, id := range []string{"abc123", "abd456", "abc"} {
		require.NoError(t, a.AddEntry(ctx, domain.Entry{ID: id, Date: "2024-03-05", Food: id, Mood: 3}))
	}

	e, err := findEntry(ctx, a, "abd")
	require.NoError(t, err)
	assert.Equal(t, "abd456", e.ID)

	e, err = findEntry(ctx, a, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", e.ID, "exact id wins over prefix matches")

	_, err = findEntry(ctx, a, "ab")
	assert.ErrorContains(t, err, "mehrdeutig")

	_, err = findEntry(ctx, a, "zzz")
	assert.ErrorContains(t, err, "nicht gefunden")
}

func TestInputErrorsAreGerman(t *testing.T) {
	assert.NoError(t, checkMood(domain.MaxMood))
	assert.EqualError(t, checkMood(6), "Stimmung muss zwischen 1 und 5 liegen")
	assert.EqualError(t, checkMood(0), "Stimmung muss zwischen 1 und 5 liegen")

	_, err := parseDate("morgen")
	assert.EqualError(t, err, `ungültiges Datum "morgen", erwartet YYYY-MM-DD`)

	_, err = parseTime("mittags")
	assert.EqualError(t, err, `ungültige Uhrzeit "mittags", erwartet HH:MM`)

	_, err = parsePain("vielleicht")
	assert.EqualError(t, err, `ungültiger Wert "vielleicht", erwartet ja oder nein`)
}
