// Package config loads the diary's settings from defaults, an optional
// .kalender.yaml, KALENDER_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pbaille/essenskalender/internal/logging"
	"github.com/pbaille/essenskalender/internal/store"
)

// AppName prefixes export file names and names the data directory.
const AppName = "essens-kalender"

const envPrefix = "KALENDER"

// Config is the resolved configuration.
type Config struct {
	Backend  store.Kind
	DB       string // sqlite file
	DSN      string // postgres connection string
	LocalDir string // disk store directory
	Addr     string // listen address of serve
	API      string // when set, the CLI talks to this server instead of a store
	Timeout  time.Duration
	Log      Log
}

// Log configures logging.
type Log struct {
	Level  string
	Format string
	File   string
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"backend":    "backend",
	"db":         "db",
	"dsn":        "dsn",
	"local-dir":  "local_dir",
	"addr":       "addr",
	"api":        "api",
	"timeout":    "timeout",
	"log-level":  "log.level",
	"log-file":   "log.file",
	"log-format": "log.format",
}

func setDefaults(v *viper.Viper) {
	dataDir := filepath.Join("~", "."+AppName)
	v.SetDefault("backend", string(store.KindSQLite))
	v.SetDefault("db", filepath.Join(dataDir, "kalender.db"))
	v.SetDefault("dsn", "")
	v.SetDefault("local_dir", filepath.Join(dataDir, "offline"))
	v.SetDefault("addr", ":8080")
	v.SetDefault("api", "")
	v.SetDefault("timeout", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")
	v.SetDefault("log.file", "")
}

// Load resolves the configuration. configFile, when not empty, must exist;
// otherwise .kalender.yaml is looked up in $KALENDER_CONFIG_PATH, the working
// directory and the home directory, and may be absent. Flags that were set on
// the command line win over everything else.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".kalender")
		v.SetConfigType("yaml")
		if override := os.Getenv(envPrefix + "_CONFIG_PATH"); override != "" {
			v.AddConfigPath(override)
		}
		v.AddConfigPath("./")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Backend:  store.Kind(strings.ToLower(v.GetString("backend"))),
		DSN:      v.GetString("dsn"),
		Addr:     v.GetString("addr"),
		API:      strings.TrimSpace(v.GetString("api")),
		Timeout:  v.GetDuration("timeout"),
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	var err error
	if cfg.DB, err = homedir.Expand(v.GetString("db")); err != nil {
		return nil, fmt.Errorf("expand db path: %w", err)
	}
	if cfg.LocalDir, err = homedir.Expand(v.GetString("local_dir")); err != nil {
		return nil, fmt.Errorf("expand local_dir: %w", err)
	}
	if cfg.Log.File, err = homedir.Expand(v.GetString("log.file")); err != nil {
		return nil, fmt.Errorf("expand log.file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case store.KindSQLite, store.KindLocal:
	case store.KindPostgres:
		if c.DSN == "" {
			return fmt.Errorf("Speicher postgres braucht eine dsn")
		}
	default:
		return fmt.Errorf("unbekannter Speicher %q (erwartet sqlite, postgres oder local)", c.Backend)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout darf nicht negativ sein")
	}
	return nil
}

// StoreOptions returns the options to open the configured backend.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Kind:     c.Backend,
		Path:     c.DB,
		DSN:      c.DSN,
		LocalDir: c.LocalDir,
	}
}

// LoggingOptions returns the logger options. format overrides the configured
// format when not empty.
func (c *Config) LoggingOptions(format string) logging.Options {
	opts := logging.Options{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		File:   c.Log.File,
	}
	if format != "" {
		opts.Format = format
	}
	return opts
}
