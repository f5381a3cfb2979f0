package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduplicator shares the window across processes with SET NX PX.
type RedisDeduplicator struct {
	client redis.UniversalClient
	prefix string
	window time.Duration
}

func NewRedisDeduplicator(client redis.UniversalClient, prefix string, window time.Duration) *RedisDeduplicator {
	if prefix == "" {
		prefix = "fal-webhook"
	}
	if window <= 0 {
		window = 60 * time.Second
	}
	return &RedisDeduplicator{client: client, prefix: prefix, window: window}
}

func (d *RedisDeduplicator) redisKey(jobID, status string) string {
	return fmt.Sprintf("%s:%s", d.prefix, Key(jobID, status))
}

func (d *RedisDeduplicator) ShouldProcess(ctx context.Context, jobID, status string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.redisKey(jobID, status), time.Now().UTC().Format(time.RFC3339Nano), d.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record delivery: %w", err)
	}
	return ok, nil
}

func (d *RedisDeduplicator) Release(ctx context.Context, jobID, status string) error {
	if err := d.client.Del(ctx, d.redisKey(jobID, status)).Err(); err != nil {
		return fmt.Errorf("failed to release delivery: %w", err)
	}
	return nil
}

var _ Deduplicator = (*RedisDeduplicator)(nil)
