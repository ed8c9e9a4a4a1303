package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// perIPLimiters hands out one token bucket per client IP. Entries are never
// evicted; the admin API sees a handful of dispatcher workstations, not the
// open internet.
type perIPLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
}

func (p *perIPLimiters) get(ip string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	limiter, ok := p.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(p.r, p.burst)
		p.limiters[ip] = limiter
	}
	return limiter
}

// RateLimiter is a middleware for IP-based request rate limiting.
func RateLimiter(r rate.Limit, burst int) gin.HandlerFunc {
	pool := &perIPLimiters{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		burst:    burst,
	}
	return func(c *gin.Context) {
		if !pool.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
