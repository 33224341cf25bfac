// Package chat keeps per-session conversation state: history, preferences,
// the response cache, retention, anonymized persistence and expiry.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/serenamente/serenbot/backend/internal/analysis/lexicon"
	"github.com/serenamente/serenbot/backend/internal/model/chat"
	"github.com/serenamente/serenbot/backend/internal/storage"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = chat.ErrSessionNotFound

// Options bounds the per-session state.
type Options struct {
	MaxHistory     int
	CacheSize      int
	PersistHistory int
	SessionTimeout time.Duration
	PersistTimeout time.Duration
	// ReminderAfter is the idle time after which an active session gets one
	// wellness reminder. Zero disables reminders.
	ReminderAfter time.Duration
	// StorageSecret keys the hash that turns a session id into a storage key.
	StorageSecret string
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		MaxHistory:     100,
		CacheSize:      50,
		PersistHistory: 20,
		SessionTimeout: 30 * time.Minute,
		PersistTimeout: 3 * time.Second,
		ReminderAfter:  15 * time.Minute,
	}
}

// Service encapsulates conversation state management.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	lex        *lexicon.Lexicon
	backend    storage.Backend
	anonymizer *Anonymizer
	opts       Options
	logger     *zap.Logger
	expiry     func(locale string) string
	reminder   func(locale string) string
	now        func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithExpiryNotice sets the text appended to a session that expired.
func WithExpiryNotice(fn func(locale string) string) Option {
	return func(s *Service) {
		if fn != nil {
			s.expiry = fn
		}
	}
}

// WithReminder sets the text of the wellness reminder.
func WithReminder(fn func(locale string) string) Option {
	return func(s *Service) {
		if fn != nil {
			s.reminder = fn
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds the session store. A nil backend keeps every session in
// memory only.
func NewService(lex *lexicon.Lexicon, backend storage.Backend, opts Options, options ...Option) *Service {
	s := &Service{
		sessions:   make(map[string]*Session),
		lex:        lex,
		backend:    backend,
		anonymizer: NewAnonymizer(lex.NamePatterns()),
		opts:       opts,
		logger:     zap.NewNop(),
		expiry:     func(string) string { return "sessionExpired" },
		reminder:   func(string) string { return "reminder" },
		now:        time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Now returns the store's clock reading in UTC.
func (s *Service) Now() time.Time { return s.now().UTC() }

// Anonymizer exposes the anonymizer used for persisted records.
func (s *Service) Anonymizer() *Anonymizer { return s.anonymizer }

// Open returns the session for sessionID, creating it when unknown. A new
// session is restored from the backend when a record exists for its id. An
// empty sessionID allocates a fresh one. The boolean reports whether the
// session was created by this call.
func (s *Service) Open(ctx context.Context, sessionID, locale string) (*Session, bool, error) {
	if sessionID != "" {
		s.mu.RLock()
		existing, ok := s.sessions[sessionID]
		s.mu.RUnlock()
		if ok {
			return existing, false, nil
		}
	} else {
		sessionID = uuid.NewString()
	}

	session := s.newSession(sessionID, s.lex.ResolveLocale(locale))
	if err := s.restore(ctx, session, locale); err != nil {
		s.logger.Warn("session restore failed, continuing in memory",
			zap.String("session_id", sessionID), zap.Error(err))
		session.inMemoryOnly = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		session.cancel()
		return existing, false, nil
	}
	s.sessions[sessionID] = session
	return session, true, nil
}

func (s *Service) newSession(id, locale string) *Session {
	now := s.Now()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:              id,
		storageKey:      StorageKey(id, s.opts.StorageSecret),
		svc:             s,
		gate:            semaphore.NewWeighted(1),
		startedAt:       now,
		lastInteraction: now,
		prefs:           chat.Preferences{Locale: locale},
		currentMood:     chat.Neutral,
		cache:           newResponseCache(s.opts.CacheSize),
		inMemoryOnly:    s.backend == nil,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Get retrieves a session by identifier.
func (s *Service) Get(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// Acquire waits for the session's turn gate. The caller owns the session
// until it calls Release.
func (s *Service) Acquire(ctx context.Context, sessionID string) (*Session, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return session, nil
}

// Sweep expires idle sessions and forgets the ones that stayed idle after
// expiring; they can be restored from the backend later. Sessions with a
// turn in progress are skipped. It returns the number of expired and
// evicted sessions.
func (s *Service) Sweep(now time.Time) (expired, evicted int) {
	s.mu.RLock()
	candidates := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		candidates = append(candidates, session)
	}
	s.mu.RUnlock()

	for _, session := range candidates {
		if !session.gate.TryAcquire(1) {
			continue
		}
		switch {
		case session.evictable(now):
			s.mu.Lock()
			delete(s.sessions, session.id)
			s.mu.Unlock()
			session.cancel()
			evicted++
		case session.ExpireIfStale(now):
			session.Persist()
			expired++
		}
		session.gate.Release(1)
	}
	return expired, evicted
}

// Remind appends a wellness reminder to every session that has been idle
// longer than ReminderAfter but has not expired. Each idle period gets at
// most one reminder. Sessions with a turn in progress are skipped. It
// returns the number of reminded sessions.
func (s *Service) Remind(now time.Time) int {
	if s.opts.ReminderAfter <= 0 {
		return 0
	}
	s.mu.RLock()
	candidates := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		candidates = append(candidates, session)
	}
	s.mu.RUnlock()

	reminded := 0
	for _, session := range candidates {
		if !session.gate.TryAcquire(1) {
			continue
		}
		if session.remindIfIdle(now) {
			session.Persist()
			reminded++
		}
		session.gate.Release(1)
	}
	return reminded
}

// Len reports how many sessions are held in memory.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close cancels every session context.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		session.cancel()
		delete(s.sessions, id)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
