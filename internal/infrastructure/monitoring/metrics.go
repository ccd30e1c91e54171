package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xycloo/multiuser-logging-service/internal/domain/logs"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	latencyHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	writeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "log_writes_total",
			Help: "Log writes handed to the capture store, by level and outcome",
		},
		[]string{"level", "outcome"},
	)
	groupCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "log_user_groups_total",
			Help: "Per-user log groups created",
		},
	)
)

// Init registers custom collectors with reg, or the default registerer when reg is nil.
func Init(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(requestCounter, latencyHistogram, writeCounter, groupCounter)
}

// ObserveRequest records metrics.
func ObserveRequest(path, method, status string, seconds float64) {
	requestCounter.WithLabelValues(path, method, status).Inc()
	latencyHistogram.WithLabelValues(path, method).Observe(seconds)
}

// CaptureObserver feeds store write outcomes into prometheus.
type CaptureObserver struct{}

var _ logs.Observer = CaptureObserver{}

// Captured implements logs.Observer.
func (CaptureObserver) Captured(s logs.Severity) {
	writeCounter.WithLabelValues(s.String(), "captured").Inc()
}

// Dropped implements logs.Observer.
func (CaptureObserver) Dropped(s logs.Severity) {
	writeCounter.WithLabelValues(s.String(), "dropped").Inc()
}

// GroupCreated implements logs.Observer.
func (CaptureObserver) GroupCreated() {
	groupCounter.Inc()
}
