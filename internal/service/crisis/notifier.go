package crisis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/serenamente/serenbot/backend/internal/model/chat"
)

// Event is what a notifier receives when a session enters crisis. It carries
// no message text.
type Event struct {
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier forwards crisis events to an external party.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes events to the diagnostic log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a LogNotifier. A nil logger discards events.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Warn("crisis detected",
		zap.String("session_id", event.SessionID),
		zap.Time("timestamp", event.Timestamp),
	)
	return nil
}

// Publisher is the slice of the redis client used to publish events.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes events as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  Publisher
	channel string
}

// NewRedisNotifier returns a notifier publishing on channel.
func NewRedisNotifier(client Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// Notify implements Notifier.
func (n *RedisNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: encode event: %v", chat.ErrNotification, err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: publish to %s: %v", chat.ErrNotification, n.channel, err)
	}
	return nil
}
