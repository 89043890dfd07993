package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/qrawl/config"
	"github.com/use-agent/qrawl/models"
	"golang.org/x/time/rate"
)

// limiterPool hands out one token bucket per caller identity and forgets
// buckets that have sat idle for an hour.
type limiterPool struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg config.RateLimitConfig) *limiterPool {
	p := &limiterPool{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
	}
	go p.sweep(5*time.Minute, time.Hour)
	return p
}

func (p *limiterPool) get(identity string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.buckets[identity]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.buckets[identity] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// sweep drops buckets idle longer than maxIdle, keeping the pool bounded
// by the active caller set.
func (p *limiterPool) sweep(every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-maxIdle)
		p.mu.Lock()
		for id, b := range p.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(p.buckets, id)
			}
		}
		p.mu.Unlock()
	}
}

// RateLimit returns token-bucket rate limiting middleware backed by
// golang.org/x/time/rate. Buckets are keyed by API key when the auth
// middleware ran, else by client IP.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	pool := newLimiterPool(cfg)

	return func(c *gin.Context) {
		if !pool.get(clientIdentity(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ExtractResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}
		c.Next()
	}
}

// clientIdentity prefers the authenticated API key over the caller IP.
func clientIdentity(c *gin.Context) string {
	if key, ok := c.Get("api_key"); ok {
		return key.(string)
	}
	return c.ClientIP()
}
