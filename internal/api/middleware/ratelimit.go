package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimit caps requests per client IP over a sliding window. The counters
// live in redis so every server instance shares them; if redis is down (or
// was never configured) a per-process token bucket takes over rather than
// rejecting traffic.
func RateLimit(rdb *redis.Client, requests, windowSeconds int) func(http.Handler) http.Handler {
	if requests <= 0 {
		requests = 100
	}
	if windowSeconds <= 0 {
		windowSeconds = 60
	}

	limit := redis_rate.Limit{
		Rate:   requests,
		Burst:  requests,
		Period: time.Duration(windowSeconds) * time.Second,
	}

	var limiter *redis_rate.Limiter
	if rdb != nil {
		limiter = redis_rate.NewLimiter(rdb)
	}
	fallback := newLocalLimiter(limit)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:ip:" + clientIP(r)

			allowed, remaining, retryAfter := fallbackAllow(fallback, key)
			if limiter != nil {
				if res, err := limiter.Allow(r.Context(), key, limit); err == nil {
					allowed = res.Allowed > 0
					remaining = res.Remaining
					retryAfter = res.RetryAfter
				}
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				secs := int64(retryAfter.Seconds()) + 1
				w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func fallbackAllow(l *localLimiter, key string) (bool, int, time.Duration) {
	allowed, remaining := l.allow(key)
	retryAfter := time.Duration(0)
	if !allowed {
		retryAfter = time.Second
	}
	return allowed, remaining, retryAfter
}

// clientIP extracts the client IP, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// localLimiter is the in-process fallback, one token bucket per key.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	perSec  rate.Limit
	burst   int
}

func newLocalLimiter(limit redis_rate.Limit) *localLimiter {
	return &localLimiter{
		buckets: make(map[string]*rate.Limiter),
		perSec:  rate.Limit(float64(limit.Rate) / limit.Period.Seconds()),
		burst:   limit.Burst,
	}
}

func (l *localLimiter) allow(key string) (bool, int) {
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(l.perSec, l.burst)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	allowed := bucket.Allow()
	remaining := int(bucket.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining
}
