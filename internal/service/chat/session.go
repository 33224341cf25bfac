package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/serenamente/serenbot/backend/internal/model/chat"
)

// Session is the live state of one conversation. Mutating methods must be
// called while holding the turn gate (see Service.Acquire); readers such as
// Snapshot may be called at any time.
type Session struct {
	id         string
	storageKey string
	svc        *Service
	gate       *semaphore.Weighted

	mu              sync.Mutex
	startedAt       time.Time
	lastInteraction time.Time
	prefs           chat.Preferences
	currentMood     chat.Category
	history         []chat.Message
	cache           *responseCache
	inMemoryOnly    bool
	expired         bool
	reminded        bool

	ctx    context.Context
	cancel context.CancelFunc
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Release hands the turn gate to the next waiting turn.
func (s *Session) Release() { s.gate.Release(1) }

// Locale returns the session locale.
func (s *Session) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Locale
}

// UserName returns the name the user introduced themselves with.
func (s *Session) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.UserName
}

// CurrentMood returns the most recent mood detected in this session.
func (s *Session) CurrentMood() chat.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentMood
}

// InMemoryOnly reports whether persistence has been given up for this session.
func (s *Session) InMemoryOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inMemoryOnly
}

// Context is cancelled when the session expires or the store closes.
func (s *Session) Context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// SetLocale switches the session locale. The cache is cleared on change.
func (s *Session) SetLocale(locale string) {
	locale = s.svc.lex.ResolveLocale(locale)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.Locale != locale {
		s.prefs.Locale = locale
		s.cache.clear()
	}
}

// SetUserName records the user's name. The cache is cleared on change since
// cached texts may embed the previous name.
func (s *Session) SetUserName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" && s.prefs.UserName != name {
		s.prefs.UserName = name
		s.cache.clear()
	}
}

// SetAccessibility replaces the accessibility flags.
func (s *Session) SetAccessibility(a chat.Accessibility) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Accessibility = a
}

// SetCurrentMood remembers the latest detected mood. The empty category is
// ignored. The cache is cleared on change since technique suggestions are
// built from the current mood.
func (s *Session) SetCurrentMood(category chat.Category) {
	if category == chat.CategoryNone {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentMood != category {
		s.currentMood = category
		s.cache.clear()
	}
}

// Record appends a message, evicting the oldest entries beyond MaxHistory.
// User messages count as interaction.
func (s *Session) Record(sender chat.Sender, text string, category chat.Category, metadata map[string]string) chat.Message {
	now := s.svc.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := chat.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: now,
		Locale:    s.prefs.Locale,
		Category:  category,
		Metadata:  metadata,
	}
	s.appendLocked(msg)
	if sender == chat.SenderUser {
		s.lastInteraction = now
		s.expired = false
		s.reminded = false
	}
	return msg
}

func (s *Session) appendLocked(msg chat.Message) {
	s.history = append(s.history, msg)
	if limit := s.svc.opts.MaxHistory; limit > 0 && len(s.history) > limit {
		trimmed := make([]chat.Message, limit)
		copy(trimmed, s.history[len(s.history)-limit:])
		s.history = trimmed
	}
}

// Cached returns the response stored for a normalized text.
func (s *Session) Cached(key string) (*chat.Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.get(key)
}

// PutCached stores a response for a normalized text. Crisis responses are
// never stored.
func (s *Session) PutCached(key string, resp *chat.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.put(key, resp)
}

// CacheLen reports the number of cached responses.
func (s *Session) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.len()
}

// ExpireIfStale resets the session when it has been idle for longer than
// the session timeout. In-flight I/O bound to the old session context is
// cancelled; locale and accessibility survive. It reports whether the
// session expired.
func (s *Session) ExpireIfStale(now time.Time) bool {
	timeout := s.svc.opts.SessionTimeout
	s.mu.Lock()
	defer s.mu.Unlock()
	if timeout <= 0 || s.expired || now.Sub(s.lastInteraction) <= timeout {
		return false
	}

	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.history = nil
	s.cache.clear()
	s.prefs.UserName = ""
	s.currentMood = chat.Neutral
	s.lastInteraction = now
	s.expired = true

	s.appendLocked(chat.Message{
		ID:        uuid.NewString(),
		Sender:    chat.SenderBot,
		Text:      s.svc.expiry(s.prefs.Locale),
		Timestamp: now.UTC(),
		Locale:    s.prefs.Locale,
		Metadata:  map[string]string{"kind": string(chat.KindSessionExpired)},
	})
	return true
}

func (s *Session) remindIfIdle(now time.Time) bool {
	after, timeout := s.svc.opts.ReminderAfter, s.svc.opts.SessionTimeout
	s.mu.Lock()
	defer s.mu.Unlock()

	idle := now.Sub(s.lastInteraction)
	if after <= 0 || s.expired || s.reminded || idle <= after {
		return false
	}
	if timeout > 0 && idle > timeout {
		return false
	}
	if !s.hasUserMessageLocked() {
		return false
	}

	s.reminded = true
	s.appendLocked(chat.Message{
		ID:        uuid.NewString(),
		Sender:    chat.SenderBot,
		Text:      s.svc.reminder(s.prefs.Locale),
		Timestamp: now.UTC(),
		Locale:    s.prefs.Locale,
		Metadata:  map[string]string{"kind": string(chat.KindReminder)},
	})
	return true
}

func (s *Session) hasUserMessageLocked() bool {
	for _, msg := range s.history {
		if msg.Sender == chat.SenderUser {
			return true
		}
	}
	return false
}

func (s *Session) evictable(now time.Time) bool {
	timeout := s.svc.opts.SessionTimeout
	s.mu.Lock()
	defer s.mu.Unlock()
	return timeout > 0 && s.expired && now.Sub(s.lastInteraction) > timeout
}

// ClearHistory drops the history and the cache.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.cache.clear()
	s.currentMood = chat.Neutral
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() chat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chat.Snapshot{
		ID:              s.id,
		StartedAt:       s.startedAt,
		LastInteraction: s.lastInteraction,
		Preferences:     s.prefs,
		CurrentMood:     s.currentMood,
		History:         append([]chat.Message(nil), s.history...),
		InMemoryOnly:    s.inMemoryOnly,
	}
}

// Stats summarises the conversation so far.
func (s *Session) Stats() chat.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := chat.Stats{
		TotalMessages: len(s.history),
		DetectedMoods: []chat.Category{},
		Duration:      s.lastInteraction.Sub(s.startedAt),
	}
	seen := make(map[chat.Category]struct{})
	for _, msg := range s.history {
		switch msg.Sender {
		case chat.SenderUser:
			stats.UserMessages++
		case chat.SenderBot:
			stats.BotMessages++
		}
		if msg.Sender != chat.SenderUser || msg.Category == chat.CategoryNone {
			continue
		}
		if _, dup := seen[msg.Category]; !dup {
			seen[msg.Category] = struct{}{}
			stats.DetectedMoods = append(stats.DetectedMoods, msg.Category)
		}
	}
	return stats
}

// Export bundles the snapshot and statistics for download.
func (s *Session) Export() chat.Export {
	return chat.Export{
		ExportedAt: s.svc.Now(),
		Session:    s.Snapshot(),
		Stats:      s.Stats(),
	}
}
