package dedup_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genmedia-backend/internal/dedup"
)

func TestMemoryDeduplicator_SuppressesWithinWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	d := dedup.NewMemoryDeduplicator(60 * time.Second).WithClock(func() time.Time { return now })
	ctx := context.Background()

	first, err := d.ShouldProcess(ctx, "job-1", "OK")
	require.NoError(t, err)
	assert.True(t, first)

	second, _ := d.ShouldProcess(ctx, "job-1", "OK")
	assert.False(t, second)

	other, _ := d.ShouldProcess(ctx, "job-1", "FAILED")
	assert.True(t, other, "a different status is a different delivery")

	now = now.Add(59 * time.Second)
	again, _ := d.ShouldProcess(ctx, "job-1", "OK")
	assert.False(t, again)
}

func TestMemoryDeduplicator_ExpiresAndSweeps(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	d := dedup.NewMemoryDeduplicator(60 * time.Second).WithClock(func() time.Time { return now })
	ctx := context.Background()

	_, _ = d.ShouldProcess(ctx, "job-1", "OK")
	_, _ = d.ShouldProcess(ctx, "job-2", "OK")
	assert.Equal(t, 2, d.Len())

	now = now.Add(61 * time.Second)
	ok, _ := d.ShouldProcess(ctx, "job-1", "OK")
	assert.True(t, ok)
	assert.Equal(t, 1, d.Len(), "job-2 should be swept lazily")
}

func TestMemoryDeduplicator_Release(t *testing.T) {
	d := dedup.NewMemoryDeduplicator(time.Minute)
	ctx := context.Background()

	_, _ = d.ShouldProcess(ctx, "job-1", "OK")
	require.NoError(t, d.Release(ctx, "job-1", "OK"))

	ok, _ := d.ShouldProcess(ctx, "job-1", "OK")
	assert.True(t, ok)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisDeduplicator(t *testing.T) {
	mr, client := newRedis(t)
	d := dedup.NewRedisDeduplicator(client, "test", 60*time.Second)
	ctx := context.Background()

	first, err := d.ShouldProcess(ctx, "job-1", "OK")
	require.NoError(t, err)
	assert.True(t, first)
	assert.True(t, mr.Exists("test:job-1-OK"))

	second, err := d.ShouldProcess(ctx, "job-1", "OK")
	require.NoError(t, err)
	assert.False(t, second)

	mr.FastForward(61 * time.Second)
	third, err := d.ShouldProcess(ctx, "job-1", "OK")
	require.NoError(t, err)
	assert.True(t, third)

	require.NoError(t, d.Release(ctx, "job-1", "OK"))
	assert.False(t, mr.Exists("test:job-1-OK"))
}

func TestRedisDeduplicator_Unavailable(t *testing.T) {
	mr, client := newRedis(t)
	d := dedup.NewRedisDeduplicator(client, "", time.Minute)
	mr.Close()

	_, err := d.ShouldProcess(context.Background(), "job-1", "OK")
	assert.Error(t, err)
}
