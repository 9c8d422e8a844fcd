package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/betsync/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// EventSettled is the event name carried by every stream entry.
	EventSettled  = "wager.settled"
	defaultStream = "wagers.settled"
	defaultMaxLen = 100_000
)

// RedisPublisher appends settlement writes to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisPublisher publishes to stream; an empty stream uses "wagers.settled".
func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = defaultStream
	}
	return &RedisPublisher{
		client: client,
		stream: stream,
		maxLen: defaultMaxLen,
	}
}

// PublishSettled appends one entry. The stream is trimmed approximately to
// maxLen entries.
func (p *RedisPublisher) PublishSettled(ctx context.Context, leg domain.SettledLeg) error {
	values, err := settledValues(leg)
	if err != nil {
		return fmt.Errorf("publish.PublishSettled: %w", err)
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("publish.PublishSettled: xadd %s: %w", p.stream, err)
	}
	return nil
}

func settledValues(leg domain.SettledLeg) (map[string]any, error) {
	payload, err := json.Marshal(leg)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return map[string]any{
		"event":   EventSettled,
		"user_id": leg.UserID,
		"payload": string(payload),
	}, nil
}
