package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/xycloo/multiuser-logging-service/internal/domain/logs"
)

func TestCaptureObserverCountsStoreOutcomes(t *testing.T) {
	Init(prometheus.NewRegistry())
	dropped := testutil.ToFloat64(writeCounter.WithLabelValues("Error", "dropped"))
	captured := testutil.ToFloat64(writeCounter.WithLabelValues("Error", "captured"))
	groups := testutil.ToFloat64(groupCounter)

	store := logs.NewStore(logs.WithObserver(CaptureObserver{}))
	store.Write(1, logs.Log{Level: logs.Error, Text: "dropped"})
	store.EnableCapture(1)
	store.Write(1, logs.Log{Level: logs.Error, Text: "kept"})

	require.Equal(t, dropped+1, testutil.ToFloat64(writeCounter.WithLabelValues("Error", "dropped")))
	require.Equal(t, captured+1, testutil.ToFloat64(writeCounter.WithLabelValues("Error", "captured")))
	require.Equal(t, groups+1, testutil.ToFloat64(groupCounter))
}

func TestReportPanicWithoutClientIsNoop(t *testing.T) {
	require.NotPanics(t, func() { ReportPanic("boom", "req-1") })
}
