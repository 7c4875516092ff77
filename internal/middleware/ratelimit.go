package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"tts-gateway/internal/metrics"
	"tts-gateway/pkg/logging/logging"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter enforces per-client token buckets keyed by remote address.
type RateLimiter struct {
	limiters sync.Map // key -> *limiterEntry
	r        rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// NewRateLimiter allows rpm requests per minute with the given burst per
// client. rpm <= 0 disables limiting.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 5
	}
	r := rate.Limit(0)
	if rpm > 0 {
		r = rate.Limit(float64(rpm) / 60.0)
	}
	return &RateLimiter{r: r, burst: burst, now: time.Now}
}

// Enabled reports whether the limiter rejects anything at all.
func (rl *RateLimiter) Enabled() bool { return rl.r > 0 }

// Allow reports whether a request from key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}
	e := rl.entry(key)
	e.mu.Lock()
	e.lastSeen = rl.now()
	e.mu.Unlock()
	return e.limiter.Allow()
}

func (rl *RateLimiter) entry(key string) *limiterEntry {
	if v, ok := rl.limiters.Load(key); ok {
		return v.(*limiterEntry)
	}
	e := &limiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst), lastSeen: rl.now()}
	actual, _ := rl.limiters.LoadOrStore(key, e)
	return actual.(*limiterEntry)
}

// Prune drops limiters idle for longer than maxIdle.
func (rl *RateLimiter) Prune(maxIdle time.Duration) {
	cutoff := rl.now().Add(-maxIdle)
	rl.limiters.Range(func(key, value any) bool {
		e := value.(*limiterEntry)
		e.mu.Lock()
		stale := e.lastSeen.Before(cutoff)
		e.mu.Unlock()
		if stale {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// PruneLoop calls Prune every interval until ctx is done.
func (rl *RateLimiter) PruneLoop(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Prune(maxIdle)
		case <-ctx.Done():
			return
		}
	}
}

// Middleware rejects over-limit requests with 429. It keys on the host part
// of RemoteAddr, so mount it after chi's RealIP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r.RemoteAddr)
		if !rl.Allow(key) {
			metrics.RateLimitedTotal.Inc()
			logging.L(r.Context()).Warn("rate limited", zap.String("remote_ip", key))
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
