// Package export renders a month of the diary as a plain-text report.
package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pbaille/essenskalender/internal/domain"
)

// MonthKey formats year and month as the "YYYY-MM" prefix used by dates.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ParseMonth parses a "YYYY-MM" key.
func ParseMonth(key string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, want YYYY-MM", key)
	}
	return t.Year(), t.Month(), nil
}

// FileName is the download name of a month report.
func FileName(app string, year int, month time.Month) string {
	return fmt.Sprintf("%s-%s.txt", app, MonthKey(year, month))
}

// Month renders entries and night-pain records of the given month.
// Records of other months are ignored, so callers may pass everything they have.
func Month(year int, month time.Month, entries []domain.Entry, nightPains []domain.NightPain) string {
	prefix := MonthKey(year, month) + "-"

	byDate := make(map[string][]domain.Entry)
	pains := make(map[string]domain.NightPain)
	for _, e := range entries {
		if strings.HasPrefix(e.Date, prefix) {
			byDate[e.Date] = append(byDate[e.Date], e)
		}
	}
	for _, n := range nightPains {
		if strings.HasPrefix(n.Date, prefix) {
			pains[n.Date] = n
		}
	}

	dates := make([]string, 0, len(byDate)+len(pains))
	seen := make(map[string]bool)
	for d := range byDate {
		dates = append(dates, d)
		seen[d] = true
	}
	for d := range pains {
		if !seen[d] {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return fmt.Sprintf("Keine Einträge für %s %d.", domain.MonthName(int(month)), year)
	}
	sort.Strings(dates)

	var b strings.Builder
	for i, date := range dates {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatDate(date))
		b.WriteString("\n")

		if n, ok := pains[date]; ok {
			b.WriteString("  Schmerzen in der Nacht: ")
			b.WriteString(yesNo(n.Pain))
			b.WriteString("\n")
			if notes := strings.TrimSpace(n.Notes); notes != "" {
				b.WriteString("  Notizen: ")
				b.WriteString(notes)
				b.WriteString("\n")
			}
		}

		day := byDate[date]
		domain.SortByTime(day)
		for _, e := range day {
			fmt.Fprintf(&b, "  %s | %s | Stimmung %d/5 %s\n",
				e.TimeOrPlaceholder(), e.Food, e.Mood, domain.Stars(e.Mood))
		}
	}

	return strings.TrimRight(b.String(), " \t\r\n")
}

// formatDate turns YYYY-MM-DD into DD.MM.YYYY, leaving other shapes alone.
func formatDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "." + parts[1] + "." + parts[0]
}

func yesNo(v bool) string {
	if v {
		return "Ja"
	}
	return "Nein"
}
