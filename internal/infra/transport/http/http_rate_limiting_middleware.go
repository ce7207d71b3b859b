package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkrupp/homecase-todo/internal/infra/logging"
)

// RateLimitConfig configures per-client request rate limiting.
type RateLimitConfig struct {
	Enabled bool `env:"ENABLED" default:"true"`
	// RequestsPerSecond is the sustained rate allowed per client IP
	RequestsPerSecond float64 `env:"RPS" default:"2"`
	// Burst is the number of requests a client may issue at once
	Burst int `env:"BURST" default:"10"`
	// IdleTimeout is how long an idle client is remembered
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" default:"3m"`
}

type rateLimitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per client IP. Idle clients are swept
// inline while handling requests.
type RateLimiter struct {
	cfg       RateLimitConfig
	log       logging.Logger
	mu        sync.Mutex
	clients   map[string]*rateLimitedClient
	lastSweep time.Time
	now       func() time.Time
}

const defaultIdleTimeout = 3 * time.Minute

// NewRateLimiter creates a RateLimiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig, log logging.Logger) *RateLimiter {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}

	return &RateLimiter{
		cfg:     cfg,
		log:     log,
		clients: make(map[string]*rateLimitedClient),
		now:     time.Now,
	}
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	if now.Sub(rl.lastSweep) >= rl.cfg.IdleTimeout {
		for key, c := range rl.clients {
			if now.Sub(c.lastSeen) >= rl.cfg.IdleTimeout {
				delete(rl.clients, key)
			}
		}

		rl.lastSweep = now
	}

	c, ok := rl.clients[ip]
	if !ok {
		c = &rateLimitedClient{
			limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		}
		rl.clients[ip] = c
	}

	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// Middleware wraps next so that clients exceeding their rate receive 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !rl.Allow(ip) {
			rl.log.WarnContext(r.Context(), "rate limit exceeded", logging.Group("http",
				"remote_ip", ip,
				"uri", r.RequestURI,
			))
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)

			return
		}

		next.ServeHTTP(w, r)
	})
}
