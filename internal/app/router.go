package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xycloo/multiuser-logging-service/internal/app/diagnostics"
	"github.com/xycloo/multiuser-logging-service/internal/app/middleware"
	"github.com/xycloo/multiuser-logging-service/internal/config"
	"github.com/xycloo/multiuser-logging-service/internal/domain/logs"
	"github.com/xycloo/multiuser-logging-service/internal/infrastructure/ratelimit"
)

// RouterDeps aggregates HTTP dependencies.
type RouterDeps struct {
	Config      *config.Config
	LogHandler  *logs.Handler
	Diagnostics *diagnostics.Handler
	Logger      *zap.Logger
	LogBuffer   *diagnostics.LogBuffer
	IPLimiter   ratelimit.Limiter
	UserLimiter ratelimit.Limiter
	// Metrics overrides the default promhttp handler, mainly for tests with their own registry.
	Metrics http.Handler
}

// NewRouter builds the gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	if deps.Config != nil {
		r.Use(middleware.CORS(deps.Config.Cors))
	}
	if deps.Config != nil && deps.Config.RateLimit.Enabled {
		r.Use(middleware.RateLimit(deps.IPLimiter, deps.UserLimiter))
	}
	r.Use(middleware.RequestLogger(deps.Logger, deps.LogBuffer))

	api := r.Group("/api/v1")
	if deps.Diagnostics != nil {
		deps.Diagnostics.Register(api)
	}

	if deps.Config == nil || deps.Config.Monitoring.PrometheusEnabled {
		metrics := deps.Metrics
		if metrics == nil {
			metrics = promhttp.Handler()
		}
		api.GET("/metrics", gin.WrapH(metrics))
	}

	deps.LogHandler.RegisterRoutes(api)

	return r
}
