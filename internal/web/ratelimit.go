package web

import (
	"net/http"
	"sync"
	"time"

	mw "github.com/JonMunkholm/estoque-sync/internal/web/middleware"
)

// rateLimiter is a per-IP token bucket. Each client may burst up to rate
// requests and regains rate tokens per window.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	window  time.Duration
	now     func() time.Time

	done chan struct{}
	once sync.Once
}

type bucket struct {
	tokens float64
	seen   time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		buckets: make(map[string]*bucket),
		rate:    float64(rate),
		window:  window,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// allow takes one token from ip's bucket.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: rl.rate, seen: now}
		rl.buckets[ip] = b
	}

	elapsed := now.Sub(b.seen)
	b.seen = now
	b.tokens = min(rl.rate, b.tokens+elapsed.Seconds()*rl.rate/rl.window.Seconds())

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle for two windows; they would be full anyway.
func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := rl.now().Add(-2 * rl.window)
			for ip, b := range rl.buckets {
				if b.seen.Before(cutoff) {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// middleware keys on the client IP resolved by TrustedRealIP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(mw.ClientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "RATE01", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
