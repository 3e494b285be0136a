package httpx

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/magicontap/tapdash/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket per key: Requests per Window on average,
// with up to Burst allowed at once. The env tags let callers load it with
// a RATELIMIT_<NAME>_ prefix.
type RateLimitConfig struct {
	Requests int           `env:"REQUESTS"`
	Window   time.Duration `env:"WINDOW"`
	Burst    int           `env:"BURST"`
}

// Enabled reports whether the config describes a usable limit.
func (c RateLimitConfig) Enabled() bool {
	return c.Requests > 0 && c.Window > 0
}

// KeyFunc picks the bucket a request is counted against. An empty key
// means the request is not limited.
type KeyFunc func(*http.Request) string

// ClientIP returns the caller's address, honouring X-Forwarded-For and
// X-Real-IP from the fronting proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// PrincipalOrIP keys authenticated requests by user id and everything else
// by client address.
func PrincipalOrIP(r *http.Request) string {
	if p, ok := PrincipalFromContext(r.Context()); ok && p.UserID != "" {
		return "user:" + p.UserID
	}
	return "ip:" + ClientIP(r)
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	swept   time.Time
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.swept) > s.idle {
		for k, b := range s.buckets {
			if now.Sub(b.lastSeen) > s.idle {
				delete(s.buckets, k)
			}
		}
		s.swept = now
	}

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// RateLimit rejects requests over cfg with 429. A disabled config returns a
// pass-through middleware.
func RateLimit(cfg RateLimitConfig, key KeyFunc) Middleware {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Requests
	}

	set := &limiterSet{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:   burst,
		idle:    max(cfg.Window, 5*time.Minute),
		swept:   time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			lim := set.get(k, now)

			res := lim.ReserveN(now, 1)
			if delay := res.DelayFrom(now); delay > 0 {
				res.CancelAt(now)

				retryAfter := max(int(delay.Seconds()+0.5), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
				w.Header().Set("X-RateLimit-Window", cfg.Window.String())

				slogx.FromContext(r.Context()).Warn("rate limit exceeded",
					slog.String("key", k),
					slog.String("path", r.URL.Path),
					slog.Int("retry_after", retryAfter),
				)
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
