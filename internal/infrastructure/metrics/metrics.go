package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReconMetrics holds the collectors of the reconciliation jobs. A nil
// *ReconMetrics records nothing.
type ReconMetrics struct {
	// Job runs
	JobRunsTotal   *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec
	OrdersVisited  *prometheus.CounterVec
	OrdersSkipped  *prometheus.CounterVec
	WatermarkGauge *prometheus.GaugeVec

	// Settle and refund dispatches
	DispatchTotal *prometheus.CounterVec

	// Verification outcomes
	VerifyTotal *prometheus.CounterVec

	// Persisted errors
	ReconErrorsTotal *prometheus.CounterVec

	// Remote payment API
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec
	TokenCacheTotal        *prometheus.CounterVec
}

// NewReconMetrics registers the collectors on reg; nil means the default
// registerer.
func NewReconMetrics(reg prometheus.Registerer) *ReconMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &ReconMetrics{
		JobRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bleumipay_cron_runs_total",
				Help: "Cron job runs by job and result",
			},
			[]string{"job", "result"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bleumipay_cron_run_duration_seconds",
				Help:    "Duration of a cron job run",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"job"},
		),
		OrdersVisited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bleumipay_orders_visited_total",
				Help: "Orders evaluated by a sync pass",
			},
			[]string{"job"},
		),
		OrdersSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bleumipay_orders_skipped_total",
				Help: "Orders skipped by a guard",
			},
			[]string{"job", "reason"},
		),
		WatermarkGauge: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bleumipay_watermark_unix_seconds",
				Help: "Last stored cron watermark",
			},
			[]string{"name"},
		),
		DispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bleumipay_dispatch_total",
				Help: "Settle and refund dispatches by result",
			},
			[]string{"operation", "result"},
		),
		VerifyTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bleumipay_verify_total",
				Help: "Verified settle and refund operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		ReconErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bleumipay_reconciliation_errors_total",
				Help: "Persisted reconciliation errors by kind and code",
			},
			[]string{"kind", "code"},
		),
		GatewayRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bleumipay_gateway_requests_total",
				Help: "Payment API calls by operation and result",
			},
			[]string{"operation", "result"},
		),
		GatewayRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bleumipay_gateway_request_duration_seconds",
				Help:    "Payment API call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		TokenCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bleumipay_token_cache_total",
				Help: "Token list cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *ReconMetrics) RecordJobRun(job string, ok bool, durationSeconds float64) {
	if m == nil {
		return
	}
	m.JobRunsTotal.WithLabelValues(job, resultLabel(ok)).Inc()
	m.JobDuration.WithLabelValues(job).Observe(durationSeconds)
}

func (m *ReconMetrics) RecordOrderVisited(job string) {
	if m == nil {
		return
	}
	m.OrdersVisited.WithLabelValues(job).Inc()
}

func (m *ReconMetrics) RecordSkip(job, reason string) {
	if m == nil {
		return
	}
	m.OrdersSkipped.WithLabelValues(job, reason).Inc()
}

func (m *ReconMetrics) RecordWatermark(name string, unixSeconds float64) {
	if m == nil {
		return
	}
	m.WatermarkGauge.WithLabelValues(name).Set(unixSeconds)
}

func (m *ReconMetrics) RecordDispatch(operation string, ok bool) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(operation, resultLabel(ok)).Inc()
}

func (m *ReconMetrics) RecordVerify(operation, outcome string) {
	if m == nil {
		return
	}
	m.VerifyTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *ReconMetrics) RecordError(kind, code string) {
	if m == nil {
		return
	}
	m.ReconErrorsTotal.WithLabelValues(kind, code).Inc()
}

func (m *ReconMetrics) RecordGatewayCall(operation string, ok bool, durationSeconds float64) {
	if m == nil {
		return
	}
	m.GatewayRequestsTotal.WithLabelValues(operation, resultLabel(ok)).Inc()
	m.GatewayRequestDuration.WithLabelValues(operation).Observe(durationSeconds)
}

func (m *ReconMetrics) RecordTokenCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.TokenCacheTotal.WithLabelValues(result).Inc()
}
