// Package dedup drops gateway redeliveries of the same inbound SMS.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a delivered message id is remembered.
const DefaultTTL = 24 * time.Hour

// Deduplicator remembers inbound message ids.
type Deduplicator interface {
	// Seen marks messageID as delivered and reports whether it had been already.
	Seen(ctx context.Context, messageID string) (bool, error)
	// Forget releases messageID so a redelivery is processed again.
	Forget(ctx context.Context, messageID string) error
}

// cmdable is the part of redis.Cmdable the deduplicator uses.
type cmdable interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis deduplicates with SET NX and a TTL.
type Redis struct {
	client cmdable
	ttl    time.Duration
}

var _ Deduplicator = (*Redis)(nil)

// NewRedis creates a deduplicator on client. A non-positive ttl uses DefaultTTL.
func NewRedis(client cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Connect parses redisURL and returns a deduplicator plus the client teardown.
func Connect(redisURL string) (*Redis, func(), error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	teardown := func() {
		if err := client.Close(); err != nil {
			log.Error("Failed to close redis client", "error", err)
		}
	}
	return NewRedis(client, DefaultTTL), teardown, nil
}

func (d *Redis) Seen(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	created, err := d.client.SetNX(ctx, key(messageID), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set dedup key: %w", err)
	}
	return !created, nil
}

func (d *Redis) Forget(ctx context.Context, messageID string) error {
	if messageID == "" {
		return nil
	}
	if err := d.client.Del(ctx, key(messageID)).Err(); err != nil {
		return fmt.Errorf("failed to delete dedup key: %w", err)
	}
	return nil
}

func key(messageID string) string {
	return "sms:inbound:dedup:" + messageID
}

// Nop never reports a duplicate.
type Nop struct{}

func (Nop) Seen(context.Context, string) (bool, error) {
	return false, nil
}

func (Nop) Forget(context.Context, string) error {
	return nil
}
