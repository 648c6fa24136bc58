package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/confera/auth-service/internal/dto"
	"github.com/confera/auth-service/internal/service"
	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware creates a rate limiting middleware for the
// credential endpoints.
func RateLimitMiddleware(rateLimiter *service.RateLimiter, limit int, window time.Duration, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, err := rateLimiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil && !strings.Contains(err.Error(), "rate limit exceeded") {
			// Limiter backend trouble: let the request through rather
			// than locking out legitimate traffic.
			c.Next()
			return
		}

		remaining, _ := rateLimiter.GetRemainingRequests(c.Request.Context(), key, limit, window)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: "rate limit exceeded, try again later"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// IPBasedKey extracts the rate limit key from the client IP.
func IPBasedKey(c *gin.Context) string {
	ip := c.GetHeader("X-Forwarded-For")
	if ip != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}
	return c.ClientIP()
}
