package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xycloo/multiuser-logging-service/internal/infrastructure/ratelimit"
	"github.com/xycloo/multiuser-logging-service/pkg/response"
)

// RateLimit enforces per-IP and per-user throttles. The user key is the :user_id path segment.
// Limiter failures let the request through.
func RateLimit(ipLimiter, userLimiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if ipLimiter != nil {
			info, err := ipLimiter.Allow(ctx, "ip:"+c.ClientIP())
			if err == nil {
				setHeaders(c, info)
				if !info.Allowed {
					response.TooManyRequests(c, info.Reset)
					c.Abort()
					return
				}
			}
		}
		userID := response.UserIDParam(c)
		if userLimiter != nil && userID != "" {
			info, err := userLimiter.Allow(ctx, "user:"+userID)
			if err == nil {
				setHeaders(c, info)
				if !info.Allowed {
					response.TooManyRequests(c, info.Reset)
					c.Abort()
					return
				}
			}
		}
		c.Next()
	}
}

func setHeaders(c *gin.Context, info ratelimit.RateLimitInfo) {
	c.Writer.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	c.Writer.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	c.Writer.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.Reset.Unix(), 10))
	if !info.Allowed {
		reset := time.Until(info.Reset)
		if reset < 0 {
			reset = 0
		}
		c.Writer.Header().Set("Retry-After", strconv.Itoa(int(reset.Seconds())))
	}
}
