package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrThrottled = errors.New("too many OTP requests; please try again later")

// OTPLimiter decides whether another OTP action (issuing a code, or trying
// one) is allowed for key.
type OTPLimiter interface {
	Allow(ctx context.Context, key string) error
}

type NoopLimiter struct{}

func (NoopLimiter) Allow(context.Context, string) error { return nil }

// RedisLimiter enforces a cooldown between consecutive requests and a cap on
// requests inside a rolling window. Redis failures fail open.
type RedisLimiter struct {
	client      *redis.Client
	cooldown    time.Duration
	window      time.Duration
	maxInWindow int
}

func NewRedisLimiter(client *redis.Client, cooldown, window time.Duration, maxInWindow int) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		cooldown:    cooldown,
		window:      window,
		maxInWindow: maxInWindow,
	}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	lastKey := "otp:last:" + key
	countKey := "otp:count:" + key

	if l.cooldown > 0 {
		ok, err := l.client.SetNX(ctx, lastKey, "1", l.cooldown).Result()
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("OTP throttle unavailable, allowing request")
			return nil
		}
		if !ok {
			return ErrThrottled
		}
	}

	if l.maxInWindow <= 0 {
		return nil
	}
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, countKey)
		ttl = pipe.TTL(ctx, countKey)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("OTP throttle unavailable, allowing request")
		return nil
	}
	// A counter without a TTL is either new or was left behind by a failed
	// EXPIRE; both get a fresh window.
	if ttl.Val() < 0 {
		if err := l.client.Expire(ctx, countKey, l.window).Err(); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to set OTP throttle window")
		}
	}
	if int(incr.Val()) > l.maxInWindow {
		return ErrThrottled
	}
	return nil
}
