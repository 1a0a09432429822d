package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// counter is the slice of the Redis API the rate limiter needs; *redis.Client
// satisfies it.
type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimitStore is a fixed-window request counter backed by Redis,
// satisfying echo's middleware.RateLimiterStore. Key format:
// ratelimit:<identifier>:<window_start_unix>, expiring with the window.
type RateLimitStore struct {
	client counter
	limit  int64
	window time.Duration
}

// NewRateLimitStore creates a store allowing limit requests per window per
// identifier.
func NewRateLimitStore(client counter, limit int64, window time.Duration) *RateLimitStore {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Hour
	}
	return &RateLimitStore{client: client, limit: limit, window: window}
}

// Allow increments the identifier's counter for the current window and
// reports whether the request is within quota. Counting before deciding means
// rejected requests still consume window entries, bounding abuse cost.
func (s *RateLimitStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	key := s.key(identifier, time.Now())

	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		// First hit in this window owns setting the expiry.
		if err := s.client.Expire(ctx, key, s.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	return n <= s.limit, nil
}

func (s *RateLimitStore) key(identifier string, now time.Time) string {
	windowStart := now.Unix() - now.Unix()%int64(s.window.Seconds())
	return fmt.Sprintf("ratelimit:%s:%d", identifier, windowStart)
}
