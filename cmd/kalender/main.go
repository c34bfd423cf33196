package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pbaille/essenskalender/internal/api"
	"github.com/pbaille/essenskalender/internal/calendar"
	"github.com/pbaille/essenskalender/internal/client"
	"github.com/pbaille/essenskalender/internal/config"
	"github.com/pbaille/essenskalender/internal/logging"
	"github.com/pbaille/essenskalender/internal/store"
)

var (
	configFile string
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "kalender",
		Short:         "Ernährungs- und Stimmungstagebuch",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configFile, cmd.Flags())
			return err
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Konfigurationsdatei (Standard .kalender.yaml in ./ oder $HOME)")
	pf.String("backend", "", "Speicher: sqlite, postgres oder local")
	pf.String("db", "", "Pfad der SQLite-Datenbank")
	pf.String("dsn", "", "PostgreSQL-Verbindungszeichenfolge")
	pf.String("local-dir", "", "Verzeichnis des Offline-Speichers")
	pf.String("api", "", "Basis-URL eines laufenden Servers; gesetzt wird kein lokaler Speicher geöffnet")
	pf.Duration("timeout", 0, "HTTP-Timeout für --api")
	pf.String("log-level", "", "debug, info, warn oder error")
	pf.String("log-format", "", "json, text oder pretty")
	pf.String("log-file", "", "Logs zusätzlich in diese rotierende Datei schreiben")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(datesCmd())
	rootCmd.AddCommand(dayCmd())
	rootCmd.AddCommand(painCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Sprint("Fehler: ")+err.Error())
		os.Exit(1)
	}
}

// getStore opens the configured backend and prepares its schema.
func getStore(ctx context.Context) (store.Backend, error) {
	b, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return nil, err
	}
	if err := b.Init(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// getAdapter returns the API client when --api is set and a local store
// otherwise. The returned func releases it.
func getAdapter(ctx context.Context) (calendar.Adapter, func(), error) {
	if cfg.API != "" {
		return client.NewHTTP(cfg.API, cfg.Timeout), func() {}, nil
	}
	b, err := getStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return client.NewLocal(b), func() { b.Close() }, nil
}

func newLogger(format string) logging.Logger {
	return logging.New(cfg.LoggingOptions(format))
}

// newCoordinator wires a coordinator for one command run.
func newCoordinator(a calendar.Adapter, opts ...calendar.Option) *calendar.Coordinator {
	log := newLogger("").With("component", "calendar")
	return calendar.New(a, append([]calendar.Option{calendar.WithLogger(log)}, opts...)...)
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "REST-API-Server starten",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			format := "json"
			if cmd.Flags().Changed("log-format") {
				format = ""
			}
			opts := cfg.LoggingOptions(format)
			opts.Output = os.Stdout
			log := logging.New(opts)

			s, err := getStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			log.Info(ctx, "store ready", "backend", string(cfg.Backend))
			server := api.New(s, cfg.Addr, config.AppName, log.With("component", "api"))
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringP("addr", "a", "", "Serveradresse (Standard :8080)")
	return cmd
}
