package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimit rejects callers that exceed rate requests/sec (with the given
// burst) using a token bucket per caller. Authenticated requests are keyed by
// user id so a busy clinic network does not starve individual users; anonymous
// requests fall back to the remote IP.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := &tokenBuckets{
		entries: make(map[string]*tokenBucket),
		rate:    rate,
		burst:   float64(burst),
	}
	go limiter.evictStale()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				key = xri
			}
			if actor, ok := ActorFromContext(r.Context()); ok {
				key = "user:" + actor.UserID
			}
			if !limiter.allow(key) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type tokenBuckets struct {
	mu      sync.Mutex
	entries map[string]*tokenBucket
	rate    float64
	burst   float64
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

func (l *tokenBuckets) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.entries[key]
	if !ok {
		b = &tokenBucket{tokens: l.burst, seen: now}
		l.entries[key] = b
	}

	b.tokens += now.Sub(b.seen).Seconds() * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *tokenBuckets) evictStale() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		l.mu.Lock()
		for key, b := range l.entries {
			if b.seen.Before(cutoff) {
				delete(l.entries, key)
			}
		}
		l.mu.Unlock()
	}
}
