package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
	headerReferrerPolicy          = "Referrer-Policy"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		w.Header().Set(headerReferrerPolicy, "no-referrer")
		next.ServeHTTP(w, r)
	})
}

const (
	loginRateLimitEvery  = 5 * time.Second
	loginRateLimitBurst  = 5
	limiterCleanupPeriod = 5 * time.Minute
	limiterTTL           = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// MemoryLimiter is a per-key token bucket kept in process memory. It is the
// fallback when no Redis is configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	every   time.Duration
	burst   int
	now     func() time.Time
}

// NewMemoryLimiter allows burst requests per key, refilling one every `every`.
func NewMemoryLimiter(every time.Duration, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*limiterEntry),
		every:   every,
		burst:   burst,
		now:     time.Now,
	}
}

// NewLoginLimiter returns the default limiter for credential endpoints.
func NewLoginLimiter() *MemoryLimiter {
	return NewMemoryLimiter(loginRateLimitEvery, loginRateLimitBurst)
}

// RetryAfter is the time for one token to refill.
func (l *MemoryLimiter) RetryAfter() time.Duration {
	return l.every
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.entries[key] = e
	}
	e.lastUse = now
	return e.limiter.AllowN(now, 1), nil
}

// Run evicts idle keys until ctx is done.
func (l *MemoryLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *MemoryLimiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, e := range l.entries {
		if now.Sub(e.lastUse) > limiterTTL {
			delete(l.entries, key)
		}
	}
}
