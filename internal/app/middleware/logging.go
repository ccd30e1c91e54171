package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xycloo/multiuser-logging-service/internal/app/diagnostics"
	"github.com/xycloo/multiuser-logging-service/internal/infrastructure/logging"
	"github.com/xycloo/multiuser-logging-service/internal/infrastructure/monitoring"
)

// RequestLogger logs request info, mirrors a short line into the diagnostics buffer and records metrics.
func RequestLogger(logger *zap.Logger, buffer *diagnostics.LogBuffer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("status", status),
			zap.Duration("latency", latency),
		}
		if uid := c.Param("user_id"); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logging.WithRequestID(logger, GetRequestID(c)).Info("request", fields...)
		if buffer != nil {
			buffer.Append(time.Now().UTC().Format(time.RFC3339) + " " + c.Request.Method + " " + c.Request.URL.Path + " -> " + status)
		}
		monitoring.ObserveRequest(path, c.Request.Method, status, latency.Seconds())
	}
}
