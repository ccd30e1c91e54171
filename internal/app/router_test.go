package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xycloo/multiuser-logging-service/internal/app/diagnostics"
	"github.com/xycloo/multiuser-logging-service/internal/app/middleware"
	"github.com/xycloo/multiuser-logging-service/internal/config"
	"github.com/xycloo/multiuser-logging-service/internal/domain/logs"
	"github.com/xycloo/multiuser-logging-service/internal/infrastructure/ratelimit"
)

func newTestRouter(t *testing.T, mutate func(*config.Config)) (*gin.Engine, *diagnostics.LogBuffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		App:         config.AppConfig{Name: "test", Env: "test"},
		Cors:        config.CORSConfig{AllowedMethods: []string{"GET", "POST", "DELETE"}},
		Monitoring:  config.MonitoringConfig{PrometheusEnabled: true},
		Diagnostics: config.DiagnosticsConfig{EnableDebugLogs: true, MaxLogLines: 10},
	}
	if mutate != nil {
		mutate(cfg)
	}
	buffer := diagnostics.NewLogBuffer(cfg.Diagnostics.MaxLogLines)
	service := logs.NewService(logs.NewStore(), zap.NewNop())
	router := NewRouter(RouterDeps{
		Config:      cfg,
		LogHandler:  logs.NewHandler(service, nil, nil, 0),
		Diagnostics: diagnostics.NewHandler(buffer, cfg.Diagnostics.EnableDebugLogs),
		Logger:      zap.NewNop(),
		LogBuffer:   buffer,
		IPLimiter:   ratelimit.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		UserLimiter: ratelimit.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		Metrics:     promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
	})
	return router, buffer
}

func request(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterServesCaptureRoutes(t *testing.T) {
	r, buffer := newTestRouter(t, nil)

	rec := request(r, http.MethodPost, "/api/v1/users/1/logs", `{"level":"error","message":"boot"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	require.Equal(t, http.StatusOK, request(r, http.MethodPost, "/api/v1/users/1/capture", "").Code)
	request(r, http.MethodPost, "/api/v1/users/1/logs", `{"level":"error","message":"kept"}`)

	rec = request(r, http.MethodGet, "/api/v1/users/1/logs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"message":"kept"`)
	require.NotContains(t, rec.Body.String(), `"message":"boot"`)

	require.Len(t, buffer.Snapshot(), 4)
}

func TestRouterDiagnosticsAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	require.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/v1/health", "").Code)
	require.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/v1/debug/logs", "").Code)
	require.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/v1/metrics", "").Code)
}

func TestRouterWithoutPrometheus(t *testing.T) {
	r, _ := newTestRouter(t, func(cfg *config.Config) {
		cfg.Monitoring.PrometheusEnabled = false
	})

	require.Equal(t, http.StatusNotFound, request(r, http.MethodGet, "/api/v1/metrics", "").Code)
}

func TestRouterRateLimitsPerUser(t *testing.T) {
	r, _ := newTestRouter(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, Burst: 0}
	})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/v1/users/1/logs", "").Code)
	}
	require.Equal(t, http.StatusTooManyRequests, request(r, http.MethodGet, "/api/v1/users/1/logs", "").Code)
}
