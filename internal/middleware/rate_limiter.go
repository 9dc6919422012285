package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	RPS   float64
	Burst int
}

// RateLimiter throttles per client IP. Limiters live in an expiring cache so
// idle clients do not accumulate.
type RateLimiter struct {
	config   RateLimiterConfig
	limiters *gocache.Cache
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		config:   config,
		limiters: gocache.New(10*time.Minute, 15*time.Minute),
	}
}

func (rl *RateLimiter) limiterFor(clientIP string) *rate.Limiter {
	if v, ok := rl.limiters.Get(clientIP); ok {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rate.Limit(rl.config.RPS), rl.config.Burst)
	rl.limiters.SetDefault(clientIP, limiter)
	return limiter
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Demasiadas solicitudes, intenta más tarde",
			})
			return
		}
		c.Next()
	}
}
