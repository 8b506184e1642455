package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the maximum number of requests allowed per window.
	Max int
	// Window is the duration of each sliding window.
	Window time.Duration
	// KeyFunc extracts the rate limit key from a request.
	// If nil, the client IP address is used.
	KeyFunc func(*http.Request) string
}

// window tracks request counts across the current and previous window for
// the sliding window estimate.
type window struct {
	start     time.Time
	count     int
	prevCount int
}

type rateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	windows map[string]*window
}

// allow reports whether the request identified by key may proceed at time
// now, and how long until the window resets.
func (rl *rateLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok {
		w = &window{start: now}
		rl.windows[key] = w
	}

	elapsed := now.Sub(w.start)
	switch {
	case elapsed >= 2*rl.cfg.Window:
		w.start, w.count, w.prevCount = now, 0, 0
		elapsed = 0
	case elapsed >= rl.cfg.Window:
		w.start = w.start.Add(rl.cfg.Window)
		w.prevCount = w.count
		w.count = 0
		elapsed -= rl.cfg.Window
	}

	// Weighted estimate: the previous window contributes proportionally to
	// how much of it still overlaps the sliding window.
	weight := 1 - float64(elapsed)/float64(rl.cfg.Window)
	estimate := float64(w.count) + float64(w.prevCount)*weight
	if estimate >= float64(rl.cfg.Max) {
		return false, rl.cfg.Window - elapsed
	}

	w.count++
	return true, 0
}

// cleanup drops windows idle for two full window durations.
func (rl *rateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.windows {
		if now.Sub(w.start) >= 2*rl.cfg.Window {
			delete(rl.windows, key)
		}
	}
}

// RateLimit returns a sliding window rate limiting middleware keyed by client
// (IP by default). Stale entries are reaped by a background goroutine tied to
// ctx. Rejected requests get 429 with a Retry-After header.
func RateLimit(ctx context.Context, cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	rl := &rateLimiter{cfg: cfg, windows: make(map[string]*window)}

	go func() {
		t := time.NewTicker(cfg.Window)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				rl.cleanup(now)
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := rl.allow(cfg.KeyFunc(r), time.Now())
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the remote IP, ignoring the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
