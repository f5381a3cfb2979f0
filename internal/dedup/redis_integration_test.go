//go:build integration

package dedup_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"genmedia-backend/internal/dedup"
)

func TestRedisDeduplicator_RealServer(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	d := dedup.NewRedisDeduplicator(client, "", time.Second)

	first, err := d.ShouldProcess(ctx, "req-1", "OK")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.ShouldProcess(ctx, "req-1", "OK")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := d.ShouldProcess(ctx, "req-1", "ERROR")
	require.NoError(t, err)
	assert.True(t, other)

	ttl, err := client.PTTL(ctx, "fal-webhook:"+dedup.Key("req-1", "OK")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	time.Sleep(1100 * time.Millisecond)
	expired, err := d.ShouldProcess(ctx, "req-1", "OK")
	require.NoError(t, err)
	assert.True(t, expired)
}
