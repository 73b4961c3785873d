package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billforge/billforge/internal/ratelimit"
)

// RateLimitMiddleware rejects requests once the API token bucket is empty
func RateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.AllowAPI() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Success: false,
				Error: ErrorDetail{
					Display: "Too many requests, try again later",
				},
			})
			return
		}
		c.Next()
	}
}
