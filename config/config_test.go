package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		BotToken:   "token",
		Storage:    StorageSQLite,
		SQLitePath: "./data/survey.db",
		ProfProbs:  []string{"Программа 1"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid sqlite", mutate: func(*Config) {}},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.BotToken = "" },
			wantErr: "BOT_TOKEN",
		},
		{
			name:    "unknown storage",
			mutate:  func(c *Config) { c.Storage = "postgres" },
			wantErr: "unknown STORAGE",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.SQLitePath = "" },
			wantErr: "SQLITE_PATH",
		},
		{
			name:    "firebase without credentials",
			mutate:  func(c *Config) { c.Storage = StorageFirebase },
			wantErr: "FIREBASE_SERVICE_ACCOUNT_KEY_PATH",
		},
		{
			name: "firebase without database url",
			mutate: func(c *Config) {
				c.Storage = StorageFirebase
				c.FirebaseCredentialsFile = "/etc/key.json"
			},
			wantErr: "FIREBASE_DATABASE_URL",
		},
		{
			name:    "empty prof prob list",
			mutate:  func(c *Config) { c.ProfProbs = nil },
			wantErr: "PROF_PROB_LIST",
		},
		{
			name:    "festival event not in event list",
			mutate:  func(c *Config) { c.FestivalEvent = "Фестиваль" },
			wantErr: "FESTIVAL_EVENT",
		},
		{
			name: "festival event in event list",
			mutate: func(c *Config) {
				c.Events = []string{"Фестиваль", "Экскурсия"}
				c.FestivalEvent = "Фестиваль"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("ADMIN_IDS", "1,2")
	t.Setenv("EVENT_LIST", "Фестиваль;Экскурсия")
	t.Setenv("FESTIVAL_EVENT", "Фестиваль")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.BotToken)
	assert.Equal(t, StorageSQLite, cfg.Storage, "sqlite is the default backend")
	assert.Equal(t, []int64{1, 2}, cfg.AdminIDs)
	assert.Equal(t, []string{"Фестиваль", "Экскурсия"}, cfg.Events)
	assert.Equal(t, "Фестиваль", cfg.FestivalEvent)
	assert.Len(t, cfg.ProfProbs, 3, "default проф проба list")
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
}
