package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/serenamente/serenbot/backend/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Addr: ":0", SweepSchedule: "@every 1m"},
		Conversation: config.ConversationConfig{
			DefaultLocale:    "es",
			MaxHistory:       100,
			CacheSize:        50,
			PersistHistory:   20,
			SessionTimeout:   30 * time.Minute,
			ReminderAfter:    15 * time.Minute,
			MaxMessageLength: 1000,
			RandomSeed:       7,
		},
		Storage: config.StorageConfig{
			Backend:        "sqlite",
			SQLitePath:     filepath.Join(t.TempDir(), "serenbot.db"),
			Secret:         "test-secret",
			PersistTimeout: 3 * time.Second,
		},
		Crisis: config.CrisisConfig{
			Hotline:       "0800 345 1435",
			Notifier:      "log",
			Channel:       "serenbot:crisis",
			NotifyTimeout: time.Second,
		},
		Log: config.LogConfig{Level: "info", Format: "json"},
	}
}

func TestBuildAppWiresSealedSQLite(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Validate())

	a, err := buildApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	resp, err := a.engine.Process(context.Background(), "cli-session", "me siento muy ansiosa", "")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text)
	assert.Equal(t, 1, a.store.Len())

	assert.NoError(t, a.Close())
}

func TestBuildAppRejectsUnknownLocale(t *testing.T) {
	cfg := testConfig(t)
	cfg.Conversation.DefaultLocale = "fr"

	_, err := buildApp(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRunChat(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "memory"
	cfg.Storage.Secret = ""

	a, err := buildApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	in := strings.NewReader("hola\n/99\n/export\n/quit\n")
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), a.engine, in, &out, "", "es"))

	text := out.String()
	assert.GreaterOrEqual(t, strings.Count(text, "serenbot: "), 2)
	assert.Contains(t, text, "unknown command")
	assert.Contains(t, text, `"exportedAt"`)
}

func TestRunChatResumesStoredSession(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first, err := buildApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, runChat(ctx, first.engine, strings.NewReader("estoy ansiosa\n/quit\n"), &out, "cli-resume", "es"))
	require.NoError(t, first.Close())
	assert.Contains(t, out.String(), "session cli-resume")
	assert.NotContains(t, out.String(), "restored")

	second, err := buildApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer second.Close()

	out.Reset()
	require.NoError(t, runChat(ctx, second.engine, strings.NewReader("/quit\n"), &out, "cli-resume", ""))
	assert.Contains(t, out.String(), "restored 3 messages")
	assert.Contains(t, out.String(), "user: estoy ansiosa")
}
