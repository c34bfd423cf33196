package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Entry is one meal logged on a day together with the mood it left behind
type Entry struct {
	ID   string  `json:"id"`
	Date string  `json:"date"`           // YYYY-MM-DD
	Time *string `json:"time,omitempty"` // HH:MM, nil when not recorded
	Food string  `json:"food"`
	Mood int     `json:"mood"`
}

// NightPain records whether the night before a date was painful
type NightPain struct {
	Date  string `json:"date"`
	Pain  bool   `json:"pain"`
	Notes string `json:"notes"`
}

const (
	MinMood = 1
	MaxMood = 5
)

// MoodLabels maps a mood level to the label shown next to it
var MoodLabels = map[int]string{
	1: "Sehr schlecht",
	2: "Schlecht",
	3: "Mittel",
	4: "Gut",
	5: "Sehr gut",
}

// MonthNames are the German month names, January first
var MonthNames = [12]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// MonthName returns the German name of month 1..12, or the number itself
// for anything outside that range
func MonthName(month int) string {
	if month < 1 || month > len(MonthNames) {
		return strconv.Itoa(month)
	}
	return MonthNames[month-1]
}

// TimeOf returns a pointer to t, or nil when t is blank
func TimeOf(t string) *string {
	t = strings.TrimSpace(t)
	if t == "" {
		return nil
	}
	return &t
}

// Normalize trims the free-text fields and turns an empty time into an absent one
func (e Entry) Normalize() Entry {
	e.ID = strings.TrimSpace(e.ID)
	e.Date = strings.TrimSpace(e.Date)
	e.Food = strings.TrimSpace(e.Food)
	if e.Time != nil {
		e.Time = TimeOf(*e.Time)
	}
	return e
}

// Validate checks that the required fields are present and mood is in range
func (e Entry) Validate() error {
	if e.ID == "" || e.Date == "" || e.Food == "" || e.Mood == 0 {
		return Errorf(ErrValidation, "Missing id, date, food or mood")
	}
	if e.Mood < MinMood || e.Mood > MaxMood {
		return Errorf(ErrValidation, "Mood must be between %d and %d", MinMood, MaxMood)
	}
	return nil
}

// TimeOrPlaceholder renders the time, or --:-- when none was recorded
func (e Entry) TimeOrPlaceholder() string {
	if e.Time == nil {
		return "--:--"
	}
	return *e.Time
}

// Stars renders mood as filled stars followed by empty ones
func Stars(mood int) string {
	if mood < 0 {
		mood = 0
	}
	if mood > MaxMood {
		mood = MaxMood
	}
	return strings.Repeat("★", mood) + strings.Repeat("☆", MaxMood-mood)
}

// SortByTime orders entries by time ascending, entries without time last.
// The sort is stable so equal keys keep their incoming order.
func SortByTime(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return timeLess(entries[i].Time, entries[j].Time)
	})
}

// SortForListing orders entries by date descending, then by time as in SortByTime
func SortForListing(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return timeLess(entries[i].Time, entries[j].Time)
	})
}

func timeLess(a, b *string) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}

// DistinctDates returns the set of dates that have at least one entry
func DistinctDates(entries []Entry) map[string]struct{} {
	dates := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		dates[e.Date] = struct{}{}
	}
	return dates
}

// Validate checks that the night-pain record has a date
func (n NightPain) Validate() error {
	if strings.TrimSpace(n.Date) == "" {
		return Errorf(ErrValidation, "Missing date or pain")
	}
	return nil
}

// NightPainOrDefault treats a missing record like a pain-free night without notes
func NightPainOrDefault(date string, n *NightPain) NightPain {
	if n == nil {
		return NightPain{Date: date}
	}
	return *n
}
