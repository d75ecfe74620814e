package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimiterStore holds a map of sender keys to their rate limiters.
type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

var limiterStore = &rateLimiterStore{
	limiters: make(map[string]*rate.Limiter),
}

// getLimiter returns the rate limiter for a given key, creating one if it doesn't exist.
func (s *rateLimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[key]
	if !exists {
		// A conversational turn is slow; 20 messages per minute per sender
		// is already far beyond a human typing on WhatsApp.
		limiter = rate.NewLimiter(rate.Every(time.Minute/20), 5)
		s.limiters[key] = limiter
	}
	return limiter
}

// RateLimitMiddleware limits requests per sender. Webhook requests are
// keyed by the From form field so one chatty number cannot starve others;
// anything without a sender falls back to the client IP.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := zap.L()
		key := c.PostForm("From")
		if key == "" {
			key = c.ClientIP()
		}
		limiter := limiterStore.getLimiter(key)
		if !limiter.Allow() {
			logger.Warn("Rate limit exceeded", zap.String("key", key))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
