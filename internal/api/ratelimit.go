package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"novachat-backend/internal/auth"
	"novachat-backend/internal/metrics"
	"novachat-backend/pkg/httputil"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements fixed-window rate limiting backed by Redis. It is
// applied to the chat group only: inference calls are the expensive resource
// worth protecting. Requests are keyed per authenticated user.
type RateLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

// NewRateLimiter creates a rate limiter allowing `requests` per `window`.
func NewRateLimiter(client *redis.Client, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client:   client,
		requests: requests,
		window:   window,
	}
}

// Limit is the middleware. It runs after JwtAuthMiddleware so the user ID is
// available as the limiting key. Redis failures fail open: a broken limiter
// should not take chat down with it.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		now := time.Now()
		bucket := now.Unix() / int64(rl.window.Seconds())
		key := fmt.Sprintf("ratelimit:chat:%s:%d", userID, bucket)

		count, err := rl.client.Incr(r.Context(), key).Result()
		if err != nil {
			log.Printf("Rate limiter: redis error, failing open: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.client.Expire(r.Context(), key, rl.window)
		}

		if count > int64(rl.requests) {
			metrics.RateLimitHits.WithLabelValues(r.URL.Path).Inc()
			resetAt := (bucket + 1) * int64(rl.window.Seconds())
			w.Header().Set("Retry-After", strconv.FormatInt(resetAt-now.Unix(), 10))
			httputil.RespondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
