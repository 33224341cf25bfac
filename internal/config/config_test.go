package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "@every 1m", cfg.Server.SweepSchedule)
	assert.Equal(t, "es", cfg.Conversation.DefaultLocale)
	assert.Equal(t, 100, cfg.Conversation.MaxHistory)
	assert.Equal(t, 50, cfg.Conversation.CacheSize)
	assert.Equal(t, 20, cfg.Conversation.PersistHistory)
	assert.Equal(t, 30*time.Minute, cfg.Conversation.SessionTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Conversation.ReminderAfter)
	assert.Equal(t, uint64(0), cfg.Conversation.RandomSeed)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "0800 345 1435", cfg.Crisis.Hotline)
	assert.Equal(t, "log", cfg.Crisis.Notifier)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("SERENBOT_MAX_HISTORY", "10")
	t.Setenv("SERENBOT_SESSION_TIMEOUT", "90s")
	t.Setenv("SERENBOT_RANDOM_SEED", "7")
	t.Setenv("SERENBOT_STORAGE_BACKEND", "sqlite")
	t.Setenv("SERENBOT_SQLITE_PATH", "/tmp/s.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Conversation.MaxHistory)
	assert.Equal(t, 90*time.Second, cfg.Conversation.SessionTimeout)
	assert.Equal(t, uint64(7), cfg.Conversation.RandomSeed)
	assert.Equal(t, "/tmp/s.db", cfg.Storage.SQLitePath)
}

func TestLoadBarePort(t *testing.T) {
	t.Setenv("PORT", "3000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Addr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"port with space":   {"PORT", "80 80"},
		"unknown backend":   {"SERENBOT_STORAGE_BACKEND", "mongo"},
		"redis without url": {"SERENBOT_NOTIFIER", "redis"},
		"bad level":         {"LOG_LEVEL", "chatty"},
		"zero history":      {"SERENBOT_MAX_HISTORY", "0"},
		"bad duration":      {"SERENBOT_SESSION_TIMEOUT", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
