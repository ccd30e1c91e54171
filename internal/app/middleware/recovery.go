package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xycloo/multiuser-logging-service/internal/infrastructure/logging"
	"github.com/xycloo/multiuser-logging-service/internal/infrastructure/monitoring"
	"github.com/xycloo/multiuser-logging-service/pkg/response"
)

// Recovery turns a handler panic into a 500, logging it and reporting it to sentry.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		reqID := GetRequestID(c)
		logging.WithRequestID(logger, reqID).Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
		)
		monitoring.ReportPanic(recovered, reqID)
		response.InternalServerError(c, fmt.Errorf("panic: %v", recovered))
		c.Abort()
	})
}
