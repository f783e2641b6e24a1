package notification

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultChannel is the Pub/Sub channel change events are published on.
const DefaultChannel = "community:changes"

// RedisPublisher publishes the changed community id on a Redis channel.
// Publishing is best effort: failures are logged, never returned.
type RedisPublisher struct {
	channel   string
	timeout   time.Duration
	publishFn func(ctx context.Context, channel string, payload string) error
}

// NewRedisPublisher creates a publisher on channel (DefaultChannel if empty).
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		channel: channel,
		timeout: 2 * time.Second,
		publishFn: func(ctx context.Context, channel string, payload string) error {
			return client.Publish(ctx, channel, payload).Err()
		},
	}
}

func (p *RedisPublisher) OnChange(ctx context.Context, communityID string) {
	if p == nil || p.publishFn == nil {
		return
	}

	// Detached from the request so a cancelled caller does not drop the event.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.publishFn(pubCtx, p.channel, communityID); err != nil {
		log.Error().
			Err(err).
			Str("channel", p.channel).
			Str("community_id", communityID).
			Msg("Failed to publish community change")
	}
}
