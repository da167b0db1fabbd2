package middlewares

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/aleex825/budgetwise-backend/internal/logger"
)

//go:generate mockgen -source=ratelimit.go -destination=mock_ratelimit.go -package=middlewares

// Counter defines the storage needed by the rate limiter.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitMiddleware allows at most limit requests per client IP within window.
// Requests are let through when the counter backend fails.
func RateLimitMiddleware(counter Counter, prefix string, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + prefix + ":" + clientIP(r)

			count, err := counter.Increment(r.Context(), key, window)
			if err != nil {
				logger.FromContext(r.Context()).Errorw("rate limiter unavailable", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if count > limit {
				logger.FromContext(r.Context()).Warnw("rate limit exceeded", "key", key, "count", count)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", retryAfter(window))
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(window time.Duration) string {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
