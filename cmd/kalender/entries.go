package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pbaille/essenskalender/internal/calendar"
	"github.com/pbaille/essenskalender/internal/domain"
)

func addCmd() *cobra.Command {
	var (
		date string
		at   string
		mood int
	)

	cmd := &cobra.Command{
		Use:   "add [food]",
		Short: "Mahlzeit eintragen",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			d, err := parseDate(date)
			if err != nil {
				return err
			}
			t, err := parseTime(at)
			if err != nil {
				return err
			}
			if err := checkMood(mood); err != nil {
				return err
			}

			a, release, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			entry := domain.Entry{
				ID:   uuid.New().String(),
				Date: d,
				Time: t,
				Food: strings.Join(args, " "),
				Mood: mood,
			}
			if err := newCoordinator(a).SaveEntry(ctx, entry); err != nil {
				return err
			}

			fmt.Printf("Eintrag angelegt: %s\n", shortID(entry.ID))
			fmt.Printf("%s  %s  %s\n", dayTitle(entry.Date), entry.TimeOrPlaceholder(), truncate(entry.Food, 60))
			fmt.Fprintln(color.Output, moodText(entry.Mood))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", time.Now().Format("2006-01-02"), "Tag der Mahlzeit (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&at, "time", "t", "", "Uhrzeit der Mahlzeit (HH:MM)")
	cmd.Flags().IntVarP(&mood, "mood", "m", 3, "Stimmung von 1 (Sehr schlecht) bis 5 (Sehr gut)")
	return cmd
}

func editCmd() *cobra.Command {
	var (
		date string
		at   string
		food string
		mood int
	)

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Eintrag ändern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			a, release, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			entry, err := findEntry(ctx, a, args[0])
			if err != nil {
				return err
			}
			original := entry.Date

			if flags.Changed("date") {
				if entry.Date, err = parseDate(date); err != nil {
					return err
				}
			}
			if flags.Changed("time") {
				if entry.Time, err = parseTime(at); err != nil {
					return err
				}
			}
			if flags.Changed("food") {
				entry.Food = food
			}
			if flags.Changed("mood") {
				if err := checkMood(mood); err != nil {
					return err
				}
				entry.Mood = mood
			}

			// Opening the entry's day makes the save an update.
			c := newCoordinator(a)
			if err := c.SelectDate(ctx, original); err != nil {
				return err
			}
			c.EditEntry(entry)
			if err := c.SaveEntry(ctx, entry); err != nil {
				return err
			}

			fmt.Printf("Eintrag geändert: %s\n", shortID(entry.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "neuer Tag (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&at, "time", "t", "", "neue Uhrzeit (HH:MM), leer zum Entfernen")
	cmd.Flags().StringVarP(&food, "food", "f", "", "neues Essen")
	cmd.Flags().IntVarP(&mood, "mood", "m", 0, "neue Stimmung (1-5)")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		date  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Einträge auflisten, neuester Tag zuerst",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, release, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			var entries []domain.Entry
			if date != "" {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				entries, err = a.GetEntriesByDate(ctx, d)
				if err != nil {
					return err
				}
			} else {
				entries, err = a.GetAllEntries(ctx)
				if err != nil {
					return err
				}
			}

			if len(entries) == 0 {
				fmt.Println("Noch keine Einträge. Mit 'kalender add' einen anlegen.")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			fmt.Fprintln(color.Output, entriesTable(entries, date == ""))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "nur dieser Tag (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Anzahl angezeigter Einträge, 0 für alle")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Eintrag im Detail anzeigen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, release, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			entry, err := findEntry(ctx, a, args[0])
			if err != nil {
				return err
			}

			out := color.Output
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("ID:      "), entry.ID)
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("Datum:   "), dayTitle(entry.Date))
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("Zeit:    "), entry.TimeOrPlaceholder())
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("Essen:   "), entry.Food)
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("Stimmung:"), moodText(entry.Mood))
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Eintrag löschen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, release, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			entry, err := findEntry(ctx, a, args[0])
			if err != nil {
				return err
			}

			c := newCoordinator(a, calendar.WithConfirm(deleteConfirmation(yes)))
			if err := c.SelectDate(ctx, entry.Date); err != nil {
				return err
			}
			err = c.DeleteEntry(ctx, entry.ID)
			if errors.Is(err, calendar.ErrNotConfirmed) {
				fmt.Println("Abgebrochen.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Eintrag gelöscht: %s\n", shortID(entry.ID))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "ohne Rückfrage löschen")
	return cmd
}
