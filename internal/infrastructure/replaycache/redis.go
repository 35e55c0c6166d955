// Package replaycache stores processed webhook event ids so replayed
// deliveries can be rejected even when their signature is valid.
package replaycache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the replay cache with SETNX keys so the check works
// across multiple host processes.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "paygate:webhook:"
	}
	return &Redis{client: client, prefix: prefix}
}

// Seen records eventID with the given TTL and reports whether it was
// already present.
func (r *Redis) Seen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	stored, err := r.client.SetNX(ctx, r.prefix+eventID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event id: %w", err)
	}
	return !stored, nil
}
