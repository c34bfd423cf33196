package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pbaille/essenskalender/internal/config"
	"github.com/pbaille/essenskalender/internal/domain"
	"github.com/pbaille/essenskalender/internal/export"
)

func datesCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Tage mit Einträgen auflisten",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if month != "" {
				y, m, err := export.ParseMonth(month)
				if err != nil {
					return err
				}
				month = export.MonthKey(y, m)
			}

			a, release, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			c := newCoordinator(a)
			if err := c.Load(ctx); err != nil {
				return err
			}

			var dates []string
			for d := range c.State().DatesWithEntries {
				if strings.HasPrefix(d, month) {
					dates = append(dates, d)
				}
			}
			sort.Strings(dates)

			if len(dates) == 0 {
				fmt.Println("Keine Einträge.")
				return nil
			}
			for _, d := range dates {
				fmt.Printf("%s  %s\n", d, faint.Sprint(dayTitle(d)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "nur dieser Monat (YYYY-MM)")
	return cmd
}

func dayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "day [date]",
		Short: "Einträge und Nacht eines Tages anzeigen",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			date := time.Now().Format("2006-01-02")
			if len(args) == 1 {
				var err error
				if date, err = parseDate(args[0]); err != nil {
					return err
				}
			}

			a, release, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			c := newCoordinator(a)
			if err := c.SelectDate(ctx, date); err != nil {
				return err
			}
			s := c.State()

			out := color.Output
			fmt.Fprintln(out, bold.Sprint(dayTitle(s.SelectedDate)))
			fmt.Fprintln(out, nightPainText(domain.NightPainOrDefault(date, s.NightPain)))
			fmt.Fprintln(out)

			if len(s.DayEntries) == 0 {
				fmt.Fprintln(out, faint.Sprint("Keine Einträge für diesen Tag."))
				return nil
			}
			fmt.Fprintln(out, entriesTable(s.DayEntries, false))
			return nil
		},
	}
}

func painCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pain",
		Short: "Schmerzen in der Nacht lesen oder eintragen",
	}
	cmd.AddCommand(painShowCmd())
	cmd.AddCommand(painSetCmd())
	return cmd
}

func painShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [date]",
		Short: "Nacht-Eintrag eines Tages anzeigen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			date, err := parseDate(args[0])
			if err != nil {
				return err
			}

			a, release, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			record, err := a.GetNightPain(ctx, date)
			if err != nil {
				return err
			}
			if record == nil {
				fmt.Fprintln(color.Output, faint.Sprint("(kein Eintrag)"))
			}
			fmt.Fprintln(color.Output, nightPainText(domain.NightPainOrDefault(date, record)))
			return nil
		},
	}
}

func parsePain(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ja", "j", "yes", "y", "true", "1":
		return true, nil
	case "nein", "n", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("ungültiger Wert %q, erwartet ja oder nein", s)
}

func painSetCmd() *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "set [date] [ja|nein]",
		Short: "Eintragen, ob die Nacht vor dem Tag schmerzhaft war",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			pain, err := parsePain(args[1])
			if err != nil {
				return err
			}

			a, release, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			c := newCoordinator(a)
			if err := c.SelectDate(ctx, date); err != nil {
				return err
			}
			// Keep the stored notes unless new ones were given.
			if !cmd.Flags().Changed("notes") {
				notes = domain.NightPainOrDefault(date, c.State().NightPain).Notes
			}
			if err := c.SaveNightPain(ctx, domain.NightPain{Date: date, Pain: pain, Notes: notes}); err != nil {
				return err
			}

			fmt.Fprintln(color.Output, nightPainText(domain.NightPainOrDefault(date, c.State().NightPain)))
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notizen")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		month string
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Einen Monat als Textbericht schreiben",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			year, m, err := export.ParseMonth(month)
			if err != nil {
				return err
			}
			key := export.MonthKey(year, m)

			a, release, err := getAdapter(ctx)
			if err != nil {
				return err
			}
			defer release()

			entries, err := a.GetAllEntries(ctx)
			if err != nil {
				return err
			}
			pains, err := a.GetNightPainByMonth(ctx, key)
			if err != nil {
				return err
			}
			report := export.Month(year, m, entries, pains)

			if out == "-" {
				fmt.Println(report)
				return nil
			}
			if out == "" {
				out = export.FileName(config.AppName, year, m)
			}
			if err := os.WriteFile(out, []byte(report), 0o644); err != nil {
				return fmt.Errorf("Bericht schreiben: %w", err)
			}
			fmt.Printf("%s exportiert nach %s\n", key, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", time.Now().Format("2006-01"), "zu exportierender Monat (YYYY-MM)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Ausgabedatei, - für stdout (Standard essens-kalender-YYYY-MM.txt)")
	return cmd
}
