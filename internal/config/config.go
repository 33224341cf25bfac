package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config aggregates the service configuration.
type Config struct {
	Server       ServerConfig
	Conversation ConversationConfig
	Storage      StorageConfig
	Crisis       CrisisConfig
	Log          LogConfig
}

// ServerConfig describes the HTTP listener and the session janitor.
// SweepSchedule takes a five-field cron spec, a six-field spec with leading
// seconds, or a descriptor such as "@every 1m".
type ServerConfig struct {
	Addr          string
	SweepSchedule string `env:"SERENBOT_SWEEP_SCHEDULE" envDefault:"@every 1m"`
}

// ConversationConfig bounds sessions and selects the reference data.
type ConversationConfig struct {
	DefaultLocale    string        `env:"SERENBOT_DEFAULT_LOCALE" envDefault:"es" validate:"required"`
	MaxHistory       int           `env:"SERENBOT_MAX_HISTORY" envDefault:"100" validate:"min=1"`
	CacheSize        int           `env:"SERENBOT_CACHE_SIZE" envDefault:"50" validate:"min=0"`
	PersistHistory   int           `env:"SERENBOT_PERSIST_HISTORY" envDefault:"20" validate:"min=0"`
	SessionTimeout   time.Duration `env:"SERENBOT_SESSION_TIMEOUT" envDefault:"30m" validate:"gt=0"`
	ReminderAfter    time.Duration `env:"SERENBOT_REMINDER_AFTER" envDefault:"15m"`
	MaxMessageLength int           `env:"SERENBOT_MAX_MESSAGE_LENGTH" envDefault:"1000" validate:"min=1"`
	RandomSeed       uint64        `env:"SERENBOT_RANDOM_SEED"`
	LexiconPath      string        `env:"SERENBOT_LEXICON_PATH"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend        string        `env:"SERENBOT_STORAGE_BACKEND" envDefault:"memory" validate:"oneof=memory redis sqlite"`
	RedisURL       string        `env:"REDIS_URL"`
	SQLitePath     string        `env:"SERENBOT_SQLITE_PATH" envDefault:"serenbot.db" validate:"required_if=Backend sqlite"`
	Secret         string        `env:"SERENBOT_STORAGE_SECRET"`
	PersistTimeout time.Duration `env:"SERENBOT_PERSIST_TIMEOUT" envDefault:"3s" validate:"gt=0"`
}

// CrisisConfig describes the crisis line and how crisis events leave the
// process.
type CrisisConfig struct {
	Hotline       string        `env:"SERENBOT_CRISIS_HOTLINE" envDefault:"0800 345 1435" validate:"required"`
	Notifier      string        `env:"SERENBOT_NOTIFIER" envDefault:"log" validate:"oneof=log redis"`
	Channel       string        `env:"SERENBOT_NOTIFY_CHANNEL" envDefault:"serenbot:crisis"`
	NotifyTimeout time.Duration `env:"SERENBOT_NOTIFY_TIMEOUT" envDefault:"5s" validate:"gt=0"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	addr, err := loadServerAddr()
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	needsRedis := c.Storage.Backend == "redis" || c.Crisis.Notifier == "redis"
	if needsRedis && strings.TrimSpace(c.Storage.RedisURL) == "" {
		return errors.New("invalid config: REDIS_URL is required when redis storage or notifications are enabled")
	}
	return nil
}

// loadServerAddr parses the listen address from PORT.
func loadServerAddr() (string, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as given.
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}
