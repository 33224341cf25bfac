package crisis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/serenamente/serenbot/backend/internal/analysis/lexicon"
	"github.com/serenamente/serenbot/backend/internal/model/chat"
	"github.com/serenamente/serenbot/backend/internal/model/technique"
	"github.com/serenamente/serenbot/backend/internal/service/reply"
)

type recordingNotifier struct {
	events chan Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) error {
	n.events <- event
	return n.err
}

type blockingNotifier struct{}

func (blockingNotifier) Notify(ctx context.Context, _ Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestSelector(t *testing.T, hotline string) *reply.Selector {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return reply.NewSelector(lex, technique.NewMemoryStore(technique.Seed()), reply.FirstPicker{}, hotline)
}

func TestHandleBuildsCrisisResponse(t *testing.T) {
	defer goleak.VerifyNone(t)

	notifier := &recordingNotifier{events: make(chan Event, 1)}
	policy := NewPolicy(newTestSelector(t, ""), WithNotifier(notifier))

	resp := policy.Handle("session-1", "es")
	policy.Wait()

	assert.True(t, resp.IsCrisis)
	assert.Equal(t, chat.Crisis, resp.Category)
	assert.Equal(t, chat.KindCrisis, resp.Kind)
	assert.Contains(t, resp.Text, reply.DefaultHotline)
	require.Len(t, resp.SuggestedActions, 2)
	assert.Equal(t, chat.ActionCallCrisisLine, resp.SuggestedActions[0].ActionID)
	assert.Equal(t, reply.DefaultHotline, resp.SuggestedActions[0].Payload)
	assert.Contains(t, resp.SuggestedActions[0].Label, reply.DefaultHotline)
	assert.Equal(t, chat.ActionShowSafetyPlan, resp.SuggestedActions[1].ActionID)
	assert.Equal(t, []string{"plan_seguridad", "conexion_presente_crisis", "caja_herramientas_supervivencia"}, resp.Techniques)

	event := <-notifier.events
	assert.Equal(t, "session-1", event.SessionID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestHandleReturnsFreshResponses(t *testing.T) {
	policy := NewPolicy(newTestSelector(t, "112"))

	first := policy.Handle("s", "en")
	second := policy.Handle("s", "en")
	assert.NotSame(t, first, second)
	assert.Equal(t, "112", first.SuggestedActions[0].Payload)
	assert.Contains(t, first.Text, "112")
}

func TestHandleDoesNotWaitForNotifier(t *testing.T) {
	defer goleak.VerifyNone(t)

	policy := NewPolicy(newTestSelector(t, ""), WithNotifier(blockingNotifier{}), WithTimeout(50*time.Millisecond))

	start := time.Now()
	resp := policy.Handle("slow", "pt")
	assert.Less(t, time.Since(start), 40*time.Millisecond)
	assert.True(t, resp.IsCrisis)

	policy.Wait()
}

func TestHandleSurvivesNotifierFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	notifier := &recordingNotifier{events: make(chan Event, 1), err: errors.New("down")}
	policy := NewPolicy(newTestSelector(t, ""), WithNotifier(notifier))

	resp := policy.Handle("s", "es")
	policy.Wait()
	assert.True(t, resp.IsCrisis)
	assert.Len(t, notifier.events, 1)
}

func TestCloseDropsLateNotifications(t *testing.T) {
	defer goleak.VerifyNone(t)

	notifier := &recordingNotifier{events: make(chan Event, 4)}
	policy := NewPolicy(newTestSelector(t, ""), WithNotifier(notifier))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, policy.Handle("racing", "es").IsCrisis)
		}()
	}
	policy.Close()
	wg.Wait()
	policy.Close()

	sent := len(notifier.events)
	resp := policy.Handle("late", "es")
	assert.True(t, resp.IsCrisis)
	assert.Len(t, notifier.events, sent)
}

type fakePublisher struct {
	channel string
	message interface{}
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	p.channel = channel
	p.message = message
	return redis.NewIntResult(1, p.err)
}

func TestRedisNotifierPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := NewRedisNotifier(pub, "serenbot:crisis")

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, n.Notify(context.Background(), Event{SessionID: "abc", Timestamp: ts}))
	assert.Equal(t, "serenbot:crisis", pub.channel)

	var decoded Event
	require.NoError(t, json.Unmarshal(pub.message.([]byte), &decoded))
	assert.Equal(t, "abc", decoded.SessionID)
	assert.True(t, ts.Equal(decoded.Timestamp))

	pub.err = errors.New("connection refused")
	err := n.Notify(context.Background(), Event{SessionID: "abc"})
	assert.ErrorIs(t, err, chat.ErrNotification)
}
