package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/xycloo/multiuser-logging-service/internal/config"
)

// InitSentry configures sentry if DSN provided.
func InitSentry(cfg config.MonitoringConfig, app config.AppConfig) error {
	if cfg.SentryDSN == "" {
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Release:          app.Version,
		Environment:      app.Env,
		ServerName:       app.Name,
		TracesSampleRate: cfg.SentrySampleRate,
	})
}

// ReportPanic forwards a recovered panic value to sentry. It is a no-op without a configured client.
func ReportPanic(recovered any, requestID string) {
	hub := sentry.CurrentHub().Clone()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		if err, ok := recovered.(error); ok {
			hub.CaptureException(err)
			return
		}
		hub.CaptureException(fmt.Errorf("panic: %v", recovered))
	})
}

// Flush ensures buffered events ship.
func Flush() {
	sentry.Flush(2 * time.Second)
}
