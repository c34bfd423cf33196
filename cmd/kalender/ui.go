package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"golang.org/x/term"

	"github.com/pbaille/essenskalender/internal/calendar"
	"github.com/pbaille/essenskalender/internal/domain"
)

var (
	bold       = color.New(color.Bold)
	faint      = color.New(color.Faint)
	errorStyle = color.New(color.FgRed, color.Bold)
)

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// moodText renders mood as stars plus its label, colored from red to green.
func moodText(mood int) string {
	c := color.New(color.FgYellow)
	switch {
	case mood <= 2:
		c = color.New(color.FgRed)
	case mood >= 4:
		c = color.New(color.FgGreen)
	}
	return c.Sprint(domain.Stars(mood)) + " " + domain.MoodLabels[mood]
}

func parseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("ungültiges Datum %q, erwartet YYYY-MM-DD", s)
	}
	return t.Format("2006-01-02"), nil
}

func parseTime(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return nil, fmt.Errorf("ungültige Uhrzeit %q, erwartet HH:MM", s)
	}
	return domain.TimeOf(t.Format("15:04")), nil
}

func checkMood(mood int) error {
	if mood < domain.MinMood || mood > domain.MaxMood {
		return fmt.Errorf("Stimmung muss zwischen %d und %d liegen", domain.MinMood, domain.MaxMood)
	}
	return nil
}

// dayTitle renders a date as "5. März 2024".
func dayTitle(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d. %s %d", t.Day(), domain.MonthName(int(t.Month())), t.Year())
}

func entriesTable(entries []domain.Entry, withDate bool) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	if withDate {
		tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Datum"), bold.Sprint("Zeit"), bold.Sprint("Essen"), bold.Sprint("Stimmung"))
	} else {
		tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Zeit"), bold.Sprint("Essen"), bold.Sprint("Stimmung"))
	}
	for _, e := range entries {
		if withDate {
			tbl.AddRow(shortID(e.ID), e.Date, e.TimeOrPlaceholder(), truncate(e.Food, 40), moodText(e.Mood))
		} else {
			tbl.AddRow(shortID(e.ID), e.TimeOrPlaceholder(), truncate(e.Food, 40), moodText(e.Mood))
		}
	}
	return tbl
}

func nightPainText(n domain.NightPain) string {
	s := "Schmerzen in der Nacht: "
	if n.Pain {
		s += color.New(color.FgRed).Sprint("Ja")
	} else {
		s += "Nein"
	}
	if n.Notes != "" {
		s += "\nNotizen: " + n.Notes
	}
	return s
}

// findEntry resolves an id or a unique id prefix.
func findEntry(ctx context.Context, a calendar.Adapter, ref string) (domain.Entry, error) {
	entries, err := a.GetAllEntries(ctx)
	if err != nil {
		return domain.Entry{}, err
	}

	var matches []domain.Entry
	for _, e := range entries {
		if e.ID == ref {
			return e, nil
		}
		if strings.HasPrefix(e.ID, ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Entry{}, fmt.Errorf("Eintrag nicht gefunden: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Entry{}, fmt.Errorf("ID-Präfix %s ist mehrdeutig (%d Einträge)", ref, len(matches))
	}
}

// promptConfirm asks whether e should be deleted and reads the answer from in.
// Only "j", "ja", "y" and "yes" confirm.
func promptConfirm(in io.Reader, out io.Writer, e domain.Entry) bool {
	fmt.Fprintf(out, "Eintrag %q vom %s löschen? [j/N] ", truncate(e.Food, 40), dayTitle(e.Date))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "j", "ja", "y", "yes":
		return true
	}
	return false
}

// deleteConfirmation returns the confirmation used by delete. Without
// --yes it prompts, and refuses when stdin is not a terminal.
func deleteConfirmation(yes bool) calendar.ConfirmFunc {
	return func(e domain.Entry) bool {
		if yes {
			return true
		}
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Eingabe ist kein Terminal, zum Löschen --yes angeben")
			return false
		}
		return promptConfirm(os.Stdin, os.Stderr, e)
	}
}
