// Package crisis builds the fixed crisis response and notifies an external
// party without delaying the user.
package crisis

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/serenamente/serenbot/backend/internal/model/chat"
	"github.com/serenamente/serenbot/backend/internal/service/reply"
)

const (
	defaultNotifyTimeout = 5 * time.Second
	fallbackCallLabel    = "Call crisis line"
	fallbackPlanLabel    = "Safety plan"
)

// Policy handles turns classified as crisis.
type Policy struct {
	selector *reply.Selector
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Option customises a Policy.
type Option func(*Policy)

// WithNotifier sets the notifier. Without one, events are dropped.
func WithNotifier(n Notifier) Option {
	return func(p *Policy) { p.notifier = n }
}

// WithTimeout bounds each notification attempt.
func WithTimeout(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Policy) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPolicy wires a crisis policy.
func NewPolicy(selector *reply.Selector, opts ...Option) *Policy {
	p := &Policy{
		selector: selector,
		timeout:  defaultNotifyTimeout,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle returns the crisis response for sessionID and starts the
// notification in the background. The response is built fresh every time.
func (p *Policy) Handle(sessionID, locale string) *chat.Response {
	hotline := p.selector.Hotline()
	values := map[string]string{"hotline": hotline}

	callLabel, ok := p.selector.Label("action.callCrisisLine", locale, values)
	if !ok || strings.TrimSpace(callLabel) == "" {
		callLabel = fallbackCallLabel + ": " + hotline
	}
	planLabel, ok := p.selector.Label("action.safetyPlan", locale, nil)
	if !ok || strings.TrimSpace(planLabel) == "" {
		planLabel = fallbackPlanLabel
	}

	techniques := append([]string(nil), p.selector.Lexicon().CrisisTechniques()...)
	resp := &chat.Response{
		Text:       p.selector.Text("emergency", locale, values),
		Category:   chat.Crisis,
		Kind:       chat.KindCrisis,
		Techniques: techniques,
		IsCrisis:   true,
		SuggestedActions: []chat.SuggestedAction{
			{Label: callLabel, ActionID: chat.ActionCallCrisisLine, Payload: hotline},
			{Label: planLabel, ActionID: chat.ActionShowSafetyPlan, Payload: strings.Join(techniques, ",")},
		},
	}

	p.notify(Event{SessionID: sessionID, Timestamp: p.now().UTC()})
	return resp
}

func (p *Policy) notify(event Event) {
	if p.notifier == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("crisis notification dropped after close", zap.String("session_id", event.SessionID))
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("crisis notifier panicked", zap.Any("panic", r), zap.String("session_id", event.SessionID))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.notifier.Notify(ctx, event); err != nil {
			p.logger.Error("crisis notification failed", zap.Error(err), zap.String("session_id", event.SessionID))
		}
	}()
}

// Wait blocks until every in-flight notification has finished. Handle must
// not be called concurrently; use Close when shutting down.
func (p *Policy) Wait() {
	p.wg.Wait()
}

// Close stops accepting notifications and waits for the in-flight ones.
// Crisis responses are still built after Close.
func (p *Policy) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}
