package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/pkg/clientip"
)

const (
	// RateLimitWindow is the fixed window for the shared limiter.
	RateLimitWindow = 60 * time.Second
	// RateLimitMaxRequests is how many credential attempts one IP gets per window.
	RateLimitMaxRequests = 20
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting.
	RateLimitKeyPrefix = "ratelimit:"
)

// Limiter decides whether a request identified by key may proceed.
// RetryAfter is how long a refused client should wait before trying again.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	RetryAfter() time.Duration
}

// RedisLimiter is a fixed-window counter shared by every server instance.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	max    int64
}

func NewRedisLimiter(client *redis.Client, window time.Duration, max int64) *RedisLimiter {
	return &RedisLimiter{client: client, window: window, max: max}
}

// RetryAfter is the window length; a refused key is reset by then at the latest.
func (l *RedisLimiter) RetryAfter() time.Duration {
	return l.window
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := RateLimitKeyPrefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= l.max, nil
}

// RateLimit answers 429 once limiter refuses the client's IP within scope.
// Limiter errors are logged and the request is let through.
func RateLimit(limiter Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + clientip.RealClientIP(r)

			ok, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.FromContext(r.Context()).WithError(err).Warn("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", retryAfterSeconds(limiter.RetryAfter()))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds d up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
