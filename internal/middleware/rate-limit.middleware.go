package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/duccv/movie-rating-api/config"
	"github.com/duccv/movie-rating-api/internal/constant"
	"github.com/duccv/movie-rating-api/pkg/logger"
)

const limiterCleanupInterval = 5 * time.Minute

// rateLimiter keeps one token bucket per client key.
type rateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket refilled, i.e. idle clients.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < limiterCleanupInterval {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit limits requests per client IP as resolved by the engine's trusted
// proxies. A disabled config returns a pass-through stage.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Requests
	}
	rl := &rateLimiter{
		rate:        rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:       burst,
		lastCleanup: time.Now(),
	}

	return func(c *gin.Context) {
		key := c.ClientIP()
		limiter := rl.getLimiter(key)
		if limiter.Allow() {
			c.Next()
			return
		}

		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()
		retryAfter := max(int(delay.Seconds()), 1)

		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Window", cfg.Window.String())
		logger.FromContext(c.Request.Context()).Warn("Rate limit exceeded",
			zap.String("key", key),
			zap.String("path", c.Request.URL.Path),
			zap.Int("retryAfter", retryAfter))
		abortWith(c, constant.TOO_MANY_REQUESTS)
	}
}
