package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcoot/skyrace/internal/api/apierr"
)

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	// Rate is the sustained requests per second per client. Zero disables
	// limiting.
	Rate float64
	// Burst is the number of requests allowed at once
	Burst int
}

// DefaultRateLimitConfig allows a 60 Hz client with headroom
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Rate: 120, Burst: 60}
}

// visitorTTL is how long an unused limiter is kept
const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	cfg       RateLimitConfig
	lastSweep time.Time
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > visitorTTL {
		for k, v := range s.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(s.visitors, k)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.cfg.Rate), s.cfg.Burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimit creates middleware that limits requests per remote host.
// Requests over the limit get a 429 RATE_LIMITED response.
func RateLimit(cfg RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if cfg.Rate <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	set := &limiterSet{visitors: make(map[string]*visitor), cfg: cfg}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := remoteHost(r)
			if !set.get(key, time.Now()).Allow() {
				logger.Warn("rate limited",
					slog.String("remote", key),
					slog.String("path", r.URL.Path),
				)
				apierr.WriteError(w, apierr.NewRateLimitedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
