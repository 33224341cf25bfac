package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/serenamente/serenbot/backend/internal/analysis/emotion"
	"github.com/serenamente/serenbot/backend/internal/analysis/lexicon"
	"github.com/serenamente/serenbot/backend/internal/config"
	"github.com/serenamente/serenbot/backend/internal/model/technique"
	chatservice "github.com/serenamente/serenbot/backend/internal/service/chat"
	"github.com/serenamente/serenbot/backend/internal/service/conversation"
	"github.com/serenamente/serenbot/backend/internal/service/crisis"
	"github.com/serenamente/serenbot/backend/internal/service/reply"
	"github.com/serenamente/serenbot/backend/internal/storage"
)

// app holds the wired services and the resources they own.
type app struct {
	engine     *conversation.Engine
	store      *chatservice.Service
	techniques technique.Store
	closers    []func() error
}

func (a *app) Close() error {
	a.engine.Close()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	lex, err := loadLexicon(cfg.Conversation)
	if err != nil {
		return nil, err
	}

	a := &app{techniques: technique.NewMemoryStore(technique.Seed())}
	fail := func(err error) (*app, error) {
		for i := len(a.closers) - 1; i >= 0; i-- {
			_ = a.closers[i]()
		}
		return nil, err
	}

	var client *redis.Client
	if cfg.Storage.Backend == "redis" || cfg.Crisis.Notifier == "redis" {
		client, err = storage.DialRedis(ctx, cfg.Storage.RedisURL)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, client.Close)
	}

	backend, err := openBackend(ctx, cfg.Storage, client, a)
	if err != nil {
		return fail(err)
	}

	selector := reply.NewSelector(lex, a.techniques, reply.NewPicker(cfg.Conversation.RandomSeed), cfg.Crisis.Hotline)

	var notifier crisis.Notifier = crisis.NewLogNotifier(logger.Named("crisis"))
	if cfg.Crisis.Notifier == "redis" {
		notifier = crisis.NewRedisNotifier(client, cfg.Crisis.Channel)
	}
	policy := crisis.NewPolicy(selector,
		crisis.WithNotifier(notifier),
		crisis.WithTimeout(cfg.Crisis.NotifyTimeout),
		crisis.WithLogger(logger.Named("crisis")),
	)

	opts := chatservice.Options{
		MaxHistory:     cfg.Conversation.MaxHistory,
		CacheSize:      cfg.Conversation.CacheSize,
		PersistHistory: cfg.Conversation.PersistHistory,
		SessionTimeout: cfg.Conversation.SessionTimeout,
		PersistTimeout: cfg.Storage.PersistTimeout,
		ReminderAfter:  cfg.Conversation.ReminderAfter,
		StorageSecret:  cfg.Storage.Secret,
	}
	a.store = chatservice.NewService(lex, backend, opts,
		chatservice.WithLogger(logger.Named("sessions")),
		chatservice.WithExpiryNotice(func(locale string) string {
			return selector.Text("sessionExpired", locale, nil)
		}),
		chatservice.WithReminder(func(locale string) string {
			return selector.Text("reminder", locale, nil)
		}),
	)

	a.engine = conversation.NewEngine(a.store, emotion.NewAnalyzer(lex), selector, policy,
		conversation.WithMaxMessageLength(cfg.Conversation.MaxMessageLength),
		conversation.WithLogger(logger.Named("engine")),
	)

	logger.Info("serenbot wired",
		zap.String("default_locale", lex.DefaultLocale()),
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("sealed", cfg.Storage.Secret != ""),
		zap.String("notifier", cfg.Crisis.Notifier),
	)
	return a, nil
}

func loadLexicon(cfg config.ConversationConfig) (*lexicon.Lexicon, error) {
	opt := lexicon.WithDefaultLocale(cfg.DefaultLocale)
	if cfg.LexiconPath != "" {
		return lexicon.Load(cfg.LexiconPath, opt)
	}
	lex, err := lexicon.Default(opt)
	if err != nil {
		return nil, fmt.Errorf("load embedded lexicon: %w", err)
	}
	return lex, nil
}

func openBackend(ctx context.Context, cfg config.StorageConfig, client *redis.Client, a *app) (storage.Backend, error) {
	var backend storage.Backend
	switch cfg.Backend {
	case "redis":
		backend = storage.NewRedis(client, 0)
	case "sqlite":
		db, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		backend = db
	default:
		backend = storage.NewMemory()
	}

	if cfg.Secret == "" {
		return backend, nil
	}
	sealed, err := storage.NewSealed(backend, cfg.Secret)
	if err != nil {
		return nil, err
	}
	return sealed, nil
}
