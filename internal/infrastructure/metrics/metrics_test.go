package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReconMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReconMetrics(reg)

	m.RecordDispatch("settle", true)
	m.RecordDispatch("settle", true)
	m.RecordDispatch("refund", false)
	m.RecordSkip("orders-cron", "hard_error")

	if got := testutil.ToFloat64(m.DispatchTotal.WithLabelValues("settle", "success")); got != 2 {
		t.Errorf("settle success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DispatchTotal.WithLabelValues("refund", "failure")); got != 1 {
		t.Errorf("refund failure = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.OrdersSkipped.WithLabelValues("orders-cron", "hard_error")); got != 1 {
		t.Errorf("skips = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *ReconMetrics
	m.RecordJobRun("order", true, 1)
	m.RecordDispatch("settle", false)
	m.RecordGatewayCall("getPayment", true, 0.1)
	m.RecordTokenCache(true)
}
