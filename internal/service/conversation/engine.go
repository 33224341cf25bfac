// Package conversation runs one conversational turn: classify the message,
// escalate crisis language, answer from the cache or the selector, and keep
// the session history.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/serenamente/serenbot/backend/internal/analysis/emotion"
	"github.com/serenamente/serenbot/backend/internal/analysis/lexicon"
	"github.com/serenamente/serenbot/backend/internal/analysis/textnorm"
	"github.com/serenamente/serenbot/backend/internal/model/chat"
	chatsvc "github.com/serenamente/serenbot/backend/internal/service/chat"
	"github.com/serenamente/serenbot/backend/internal/service/crisis"
	"github.com/serenamente/serenbot/backend/internal/service/reply"
)

// DefaultMaxMessageLength bounds a user message, in characters.
const DefaultMaxMessageLength = 1000

// Engine orchestrates classifier, crisis policy, selector and session store.
type Engine struct {
	store    *chatsvc.Service
	analyzer *emotion.Analyzer
	selector *reply.Selector
	policy   *crisis.Policy
	maxLen   int
	logger   *zap.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithMaxMessageLength overrides DefaultMaxMessageLength.
func WithMaxMessageLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLen = n
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine wires the engine.
func NewEngine(store *chatsvc.Service, analyzer *emotion.Analyzer, selector *reply.Selector, policy *crisis.Policy, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		analyzer: analyzer,
		selector: selector,
		policy:   policy,
		maxLen:   DefaultMaxMessageLength,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Languages lists the configured locales.
func (e *Engine) Languages() []lexicon.Language {
	return e.selector.Lexicon().Languages()
}

// Open creates or restores a session. A brand-new session with no restored
// history receives the welcome message, which is returned; otherwise the
// returned response is nil.
func (e *Engine) Open(ctx context.Context, sessionID, locale string) (chat.Snapshot, *chat.Response, error) {
	session, created, err := e.store.Open(ctx, sessionID, locale)
	if err != nil {
		return chat.Snapshot{}, nil, err
	}
	if !created {
		return session.Snapshot(), nil, nil
	}

	session, err = e.store.Acquire(ctx, session.ID())
	if err != nil {
		return chat.Snapshot{}, nil, err
	}
	defer session.Release()

	var welcome *chat.Response
	if len(session.Snapshot().History) == 0 {
		welcome = e.selector.Notice(chat.KindWelcome, "welcome", audienceOf(session))
		e.recordBot(session, welcome)
		session.Persist()
	}
	return session.Snapshot(), welcome, nil
}

// Process handles one user message. Unknown session ids are opened on the
// fly. A non-empty locale switches the session locale first. The only
// errors returned are context errors while waiting for the previous turn;
// everything else is answered with a localized response.
func (e *Engine) Process(ctx context.Context, sessionID, text, locale string) (*chat.Response, error) {
	session, err := e.begin(ctx, sessionID, locale)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	return e.turn(session, text), nil
}

// Act handles a suggested action picked by the user. Exercise and
// technique actions are answered directly; any other action is processed as
// if the user had typed its label.
func (e *Engine) Act(ctx context.Context, sessionID, actionID, payload, label string) (*chat.Response, error) {
	session, err := e.begin(ctx, sessionID, "")
	if err != nil {
		return nil, err
	}
	defer session.Release()

	a := audienceOf(session)
	var resp *chat.Response
	switch actionID {
	case chat.ActionStartExercise:
		resp = e.selector.StartExercise(payload, a)
	case chat.ActionShowTechniques, chat.ActionShowSafetyPlan, chat.ActionBreathing, chat.ActionRelaxation:
		ids := splitIDs(payload)
		if len(ids) == 0 {
			ids = e.selector.Lexicon().TechniquesFor(a.CurrentMood)
		}
		if len(ids) == 0 {
			ids = e.selector.Lexicon().GeneralTechniques()
		}
		resp = e.selector.Techniques(ids, a)
	default:
		if strings.TrimSpace(label) == "" {
			label = actionID
		}
		return e.turn(session, label), nil
	}

	if label != "" {
		session.Record(chat.SenderUser, label, chat.CategoryNone, map[string]string{"action": actionID})
	}
	e.recordBot(session, resp)
	session.Persist()
	return resp, nil
}

// UpdatePreferences changes locale and accessibility. Nil arguments leave
// the current value in place.
func (e *Engine) UpdatePreferences(ctx context.Context, sessionID string, locale *string, accessibility *chat.Accessibility) (chat.Snapshot, error) {
	session, err := e.store.Acquire(ctx, sessionID)
	if err != nil {
		return chat.Snapshot{}, err
	}
	defer session.Release()

	if locale != nil {
		session.SetLocale(*locale)
	}
	if accessibility != nil {
		session.SetAccessibility(*accessibility)
	}
	session.Persist()
	return session.Snapshot(), nil
}

// ClearHistory forgets the conversation and confirms it to the user.
func (e *Engine) ClearHistory(ctx context.Context, sessionID string) (*chat.Response, error) {
	session, err := e.store.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	session.ClearHistory()
	session.Persist()
	return e.selector.Notice(chat.KindDataCleared, "dataCleared", audienceOf(session)), nil
}

// Snapshot returns the current state of a session.
func (e *Engine) Snapshot(sessionID string) (chat.Snapshot, error) {
	session, err := e.store.Get(sessionID)
	if err != nil {
		return chat.Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Stats summarises a session.
func (e *Engine) Stats(sessionID string) (chat.Stats, error) {
	session, err := e.store.Get(sessionID)
	if err != nil {
		return chat.Stats{}, err
	}
	return session.Stats(), nil
}

// Export returns the downloadable copy of a session.
func (e *Engine) Export(sessionID string) (chat.Export, error) {
	session, err := e.store.Get(sessionID)
	if err != nil {
		return chat.Export{}, err
	}
	return session.Export(), nil
}

// Close waits for pending crisis notifications and drops every session.
func (e *Engine) Close() {
	e.policy.Close()
	e.store.Close()
}

func (e *Engine) begin(ctx context.Context, sessionID, locale string) (*chatsvc.Session, error) {
	session, _, err := e.store.Open(ctx, sessionID, locale)
	if err != nil {
		return nil, err
	}
	session, err = e.store.Acquire(ctx, session.ID())
	if err != nil {
		return nil, err
	}
	if session.ExpireIfStale(e.store.Now()) {
		e.logger.Info("session expired", zap.String("session_id", session.ID()))
	}
	if locale != "" {
		session.SetLocale(locale)
	}
	return session, nil
}

// turn runs with the session's turn gate held.
func (e *Engine) turn(session *chatsvc.Session, text string) (resp *chat.Response) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("turn panicked", zap.String("session_id", session.ID()), zap.Any("panic", r), zap.Stack("stack"))
			resp = e.failure(session)
		}
	}()

	normalized := textnorm.Normalize(text)
	if normalized == "" {
		return e.selector.Notice(chat.KindNotUnderstood, "notUnderstood", audienceOf(session))
	}
	if n := utf8.RuneCountInString(normalized); n > e.maxLen {
		err := fmt.Errorf("%w: %d characters, limit %d", chat.ErrValidation, n, e.maxLen)
		e.logger.Info("message rejected", zap.String("session_id", session.ID()), zap.Error(err))
		return e.selector.Notice(chat.KindValidation, "messageTooLong", audienceOf(session))
	}

	if name := e.analyzer.DetectName(text); name != "" {
		session.SetUserName(name)
	}

	locale := session.Locale()
	decision, err := e.analyzer.Classify(normalized, locale)
	if err != nil {
		e.logger.Error("classification failed", zap.String("session_id", session.ID()), zap.Error(err))
		return e.failure(session)
	}
	session.Record(chat.SenderUser, text, decision.Category, nil)

	if decision.IsCrisis {
		resp = e.policy.Handle(session.ID(), locale)
		session.SetCurrentMood(chat.Crisis)
		e.recordBot(session, resp)
		session.Persist()
		return resp
	}

	if cached, ok := session.Cached(normalized); ok {
		session.SetCurrentMood(cached.Category)
		e.recordBot(session, cached)
		session.Persist()
		return cached
	}

	resp = e.selector.Select(decision.Category, decision.Intent, audienceOf(session))
	session.SetCurrentMood(decision.Category)
	session.PutCached(normalized, resp)
	e.recordBot(session, resp)
	session.Persist()
	return resp
}

func (e *Engine) failure(session *chatsvc.Session) *chat.Response {
	return e.selector.Notice(chat.KindError, "error", audienceOf(session))
}

func (e *Engine) recordBot(session *chatsvc.Session, resp *chat.Response) {
	session.Record(chat.SenderBot, resp.Text, resp.Category, map[string]string{"kind": string(resp.Kind)})
}

func audienceOf(session *chatsvc.Session) reply.Audience {
	return reply.Audience{
		Locale:      session.Locale(),
		UserName:    session.UserName(),
		CurrentMood: session.CurrentMood(),
	}
}

func splitIDs(payload string) []string {
	var ids []string
	for _, id := range strings.Split(payload, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
