package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/serenamente/serenbot/backend/internal/model/chat"
)

const storageKeyPrefix = "serenbot:session:"

// StorageKey maps a session id to an opaque key. The digest is written with
// the letters a-p only, so no digit run in a key can look like a phone
// number.
func StorageKey(sessionID, secret string) string {
	var key []byte
	if secret != "" {
		sum := blake2b.Sum256([]byte(secret))
		key = sum[:]
	}
	h, err := blake2b.New(16, key)
	if err != nil {
		panic(err)
	}
	h.Write([]byte(sessionID))

	var b strings.Builder
	b.Grow(len(storageKeyPrefix) + 32)
	b.WriteString(storageKeyPrefix)
	for _, c := range h.Sum(nil) {
		b.WriteByte('a' + c>>4)
		b.WriteByte('a' + c&0x0f)
	}
	return b.String()
}

// Persist writes the anonymized record of the session. The write is bound
// to the session context, so an expiry abandons it. On any failure the
// session stops persisting for the rest of its life.
func (s *Session) Persist() {
	s.mu.Lock()
	if s.inMemoryOnly {
		s.mu.Unlock()
		return
	}
	record := s.recordLocked()
	parent := s.ctx
	s.mu.Unlock()

	err := s.svc.write(parent, s.storageKey, record)
	if err == nil {
		return
	}

	s.mu.Lock()
	s.inMemoryOnly = true
	s.mu.Unlock()
	s.svc.logger.Warn("session persistence disabled",
		zap.String("session_id", s.id), zap.Error(err))
}

func (s *Session) recordLocked() chat.Record {
	history := s.history
	if limit := s.svc.opts.PersistHistory; limit >= 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	record := chat.Record{
		Preferences: chat.RecordPreferences{
			Locale:        s.prefs.Locale,
			Accessibility: s.prefs.Accessibility,
		},
		History: make([]chat.RecordEntry, 0, len(history)),
	}
	for _, msg := range history {
		record.History = append(record.History, chat.RecordEntry{
			Sender:       msg.Sender,
			Text:         s.svc.anonymizer.Anonymize(msg.Text, s.prefs.UserName),
			TimestampISO: msg.Timestamp.UTC().Format(time.RFC3339Nano),
			Category:     msg.Category,
		})
	}
	return record
}

func (s *Service) write(parent context.Context, key string, record chat.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: encode record: %v", chat.ErrPersistence, err)
	}
	ctx := parent
	if s.opts.PersistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.opts.PersistTimeout)
		defer cancel()
	}
	if err := s.backend.Set(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("%w: %v", chat.ErrPersistence, err)
	}
	return nil
}

// restore loads a previously persisted record into a fresh session. A
// locale passed by the caller wins over the stored one.
func (s *Service) restore(ctx context.Context, session *Session, requestedLocale string) error {
	if s.backend == nil {
		return nil
	}
	if s.opts.PersistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.PersistTimeout)
		defer cancel()
	}

	raw, err := s.backend.Get(ctx, session.storageKey)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", chat.ErrPersistence, err)
	}

	var record chat.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return fmt.Errorf("%w: decode record: %v", chat.ErrPersistence, err)
	}

	session.prefs.Accessibility = record.Preferences.Accessibility
	if requestedLocale == "" && record.Preferences.Locale != "" {
		session.prefs.Locale = s.lex.ResolveLocale(record.Preferences.Locale)
	}
	for _, entry := range record.History {
		ts, err := time.Parse(time.RFC3339Nano, entry.TimestampISO)
		if err != nil {
			ts = session.startedAt
		}
		session.appendLocked(chat.Message{
			ID:        uuid.NewString(),
			Sender:    entry.Sender,
			Text:      entry.Text,
			Timestamp: ts,
			Locale:    session.prefs.Locale,
			Category:  entry.Category,
			Metadata:  map[string]string{"restored": "true"},
		})
	}
	if n := len(session.history); n > 0 {
		session.startedAt = session.history[0].Timestamp
	}
	return nil
}
