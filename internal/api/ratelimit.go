package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window per-caller limit on generation endpoints,
// backed by Redis so it holds across replicas. A nil or disabled limiter
// passes everything through, and so does a Redis outage.
type RateLimiter struct {
	client     *redis.Client
	limit      int
	enabled    bool
	cookieName string
}

// NewRateLimiter creates a limiter allowing requestsPerMinute per caller
func NewRateLimiter(client *redis.Client, requestsPerMinute int, enabled bool, cookieName string) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 20
	}
	return &RateLimiter{
		client:     client,
		limit:      requestsPerMinute,
		enabled:    enabled && client != nil,
		cookieName: cookieName,
	}
}

// Middleware enforces the limit, keyed by session cookie when present and
// remote address otherwise
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl == nil || !rl.enabled {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", rl.callerKey(r), time.Now().UTC().Format("2006-01-02T15:04"))
		count, err := rl.client.Incr(r.Context(), key).Result()
		if err != nil {
			log.Printf("RateLimit: Redis unavailable, passing request through: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.client.Expire(r.Context(), key, 2*time.Minute)
		}

		if count > int64(rl.limit) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) callerKey(r *http.Request) string {
	if rl.cookieName != "" {
		if cookie, err := r.Cookie(rl.cookieName); err == nil && cookie.Value != "" {
			return "session:" + cookie.Value
		}
	}
	return "ip:" + r.RemoteAddr
}
