package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNoopLimiterAlwaysAllows(t *testing.T) {
	var l OTPLimiter = NoopLimiter{}
	for i := 0; i < 10; i++ {
		assert.NoError(t, l.Allow(context.Background(), "user:verification"))
	}
}

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestRedisLimiter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, startRedis(t))
	require.NoError(t, err)
	defer client.Close()

	t.Run("cooldown blocks an immediate repeat", func(t *testing.T) {
		l := NewRedisLimiter(client, time.Minute, time.Hour, 10)
		require.NoError(t, l.Allow(ctx, "cooldown"))
		assert.ErrorIs(t, l.Allow(ctx, "cooldown"), ErrThrottled)
		assert.NoError(t, l.Allow(ctx, "another-key"))
	})

	t.Run("window caps total requests", func(t *testing.T) {
		l := NewRedisLimiter(client, 0, time.Hour, 3)
		for i := 0; i < 3; i++ {
			require.NoError(t, l.Allow(ctx, "window"))
		}
		assert.ErrorIs(t, l.Allow(ctx, "window"), ErrThrottled)

		ttl, err := client.TTL(ctx, "otp:count:window").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("counter without a ttl gets a fresh window", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, "otp:count:stuck", 50, 0).Err())

		l := NewRedisLimiter(client, 0, time.Hour, 3)
		assert.ErrorIs(t, l.Allow(ctx, "stuck"), ErrThrottled)

		ttl, err := client.TTL(ctx, "otp:count:stuck").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Hour)
	})
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
