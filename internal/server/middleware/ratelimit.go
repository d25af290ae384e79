package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type viewerLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimit applies per-viewer rate limiting. Bulk actions and drag
// reordering can emit bursts of requests, so the burst size should
// comfortably exceed the typical batch. Stale limiter entries are
// cleaned up every 10 minutes to prevent unbounded memory growth.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[int64]*viewerLimiter)
	)

	// Background cleanup of stale limiters.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mu.Lock()
				cutoff := time.Now().Add(-30 * time.Minute)
				for id, vl := range limiters {
					if vl.lastAccess.Before(cutoff) {
						delete(limiters, id)
					}
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	limiterFor := func(userID int64) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		vl, ok := limiters[userID]
		if !ok {
			vl = &viewerLimiter{
				limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
				lastAccess: time.Now(),
			}
			limiters[userID] = vl
		} else {
			vl.lastAccess = time.Now()
		}
		return vl.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, ok := ViewerFromContext(r.Context())
			if !ok {
				// No viewer in context; skip rate limiting.
				next.ServeHTTP(w, r)
				return
			}

			lim := limiterFor(viewer.UserID)
			if !lim.Allow() {
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
