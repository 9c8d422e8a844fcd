//go:build integration

package publish_test

import (
	"context"
	"os"
	"testing"

	"github.com/alejandrodnm/betsync/internal/adapters/publish"
	"github.com/alejandrodnm/betsync/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher_XAdd(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	stream := "test.wagers.settled"
	client.Del(ctx, stream)
	defer client.Del(ctx, stream)

	p := publish.NewRedisPublisher(client, stream)
	require.NoError(t, p.PublishSettled(ctx, domain.SettledLeg{UserID: "u1", ExternalID: "leg-1", Status: domain.StatusLost}))

	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, publish.EventSettled, entries[0].Values["event"])
}
