// Package config provides application configuration.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorageSQLite   = "sqlite"
	StorageFirebase = "firebase"
)

// Config holds all application configuration.
type Config struct {
	BotToken string `env:"BOT_TOKEN"`

	Storage                 string `env:"STORAGE" envDefault:"sqlite"`
	SQLitePath              string `env:"SQLITE_PATH" envDefault:"./data/survey.db"`
	FirebaseCredentialsFile string `env:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseDatabaseURL     string `env:"FIREBASE_DATABASE_URL"`

	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Events is the list a respondent picks from right after consent. An
	// empty list removes the step entirely. FestivalEvent names the entry
	// that skips the проф проба step.
	Events        []string `env:"EVENT_LIST" envSeparator:";"`
	FestivalEvent string   `env:"FESTIVAL_EVENT"`
	ProfProbs     []string `env:"PROF_PROB_LIST" envSeparator:";" envDefault:"Программа 1;Программа 2;Программа 3"`

	// SessionTTL > 0 enables the idle-session reaper.
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"0"`
	MetricsAddr string        `env:"METRICS_ADDR" envDefault:":8080"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN cannot be empty")
	}
	switch c.Storage {
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH cannot be empty")
		}
	case StorageFirebase:
		if c.FirebaseCredentialsFile == "" {
			return fmt.Errorf("FIREBASE_SERVICE_ACCOUNT_KEY_PATH cannot be empty")
		}
		if c.FirebaseDatabaseURL == "" {
			return fmt.Errorf("FIREBASE_DATABASE_URL cannot be empty")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q (want %q or %q)", c.Storage, StorageSQLite, StorageFirebase)
	}
	if len(c.ProfProbs) == 0 {
		return fmt.Errorf("PROF_PROB_LIST cannot be empty")
	}
	if c.FestivalEvent != "" && !slices.Contains(c.Events, c.FestivalEvent) {
		return fmt.Errorf("FESTIVAL_EVENT %q is not in EVENT_LIST", c.FestivalEvent)
	}
	return nil
}
