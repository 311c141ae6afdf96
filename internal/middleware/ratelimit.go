package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// RateLimiterConfig configures the per-client token bucket.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	// TTL is how long an idle client's bucket is kept.
	TTL time.Duration
}

// DefaultRateLimiterConfig returns the limits used on the public API.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		TTL:               3 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	cfg RateLimiterConfig

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		clients: make(map[string]*clientLimiter),
	}
}

// Middleware rejects clients exceeding their budget with a rate-limit
// error.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.allow(c.RealIP()) {
				return domain.Errorf(domain.ERATELIMIT, "ratelimit", "Too many requests")
			}
			return next(c)
		}
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		}
		rl.clients[key] = client
		rl.evictStale(now)
	}
	client.lastSeen = now

	return client.limiter.Allow()
}

// evictStale drops buckets idle past the TTL. Called under rl.mu.
func (rl *RateLimiter) evictStale(now time.Time) {
	for key, client := range rl.clients {
		if now.Sub(client.lastSeen) > rl.cfg.TTL {
			delete(rl.clients, key)
		}
	}
}
