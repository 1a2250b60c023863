package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service. It is passed to the
// components that record metrics; a nil *Metrics records nothing.
type Metrics struct {
	// HTTP
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// Signed requests
	walletAuthTotal *prometheus.CounterVec

	// Contributions
	buysTotal   *prometheus.CounterVec
	claimsTotal *prometheus.CounterVec

	// Lifecycle
	lifecycleTotal *prometheus.CounterVec

	// Settlement
	settlementPublished *prometheus.CounterVec
	settlementApplied   *prometheus.CounterVec
	settlementDuration  *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		walletAuthTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_auth_total",
				Help: "Signed wallet request verifications by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		buysTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launch_buys_total",
				Help: "Buy attempts by outcome",
			},
			[]string{"outcome"},
		),
		claimsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launch_claims_total",
				Help: "Claim attempts by outcome",
			},
			[]string{"outcome"},
		),
		lifecycleTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "launch_lifecycle_transitions_total",
				Help: "Sale lifecycle transition attempts by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		settlementPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_events_published_total",
				Help: "Settlement events published to the bus by type and status",
			},
			[]string{"type", "status"},
		),
		settlementApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_events_applied_total",
				Help: "Settlement events applied to the ledger by type and result",
			},
			[]string{"type", "result"},
		),
		settlementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "settlement_apply_duration_seconds",
				Help:    "Time to apply one settlement event",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"type"},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(route, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	m.httpRequestDuration.WithLabelValues(route, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(route, method, status).Inc()
}

func (m *Metrics) RecordWalletAuth(action, outcome string) {
	if m == nil {
		return
	}
	m.walletAuthTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) RecordBuy(outcome string) {
	if m == nil {
		return
	}
	m.buysTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordClaim(outcome string) {
	if m == nil {
		return
	}
	m.claimsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordLifecycle(operation, outcome string) {
	if m == nil {
		return
	}
	m.lifecycleTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordSettlementPublished(eventType, status string) {
	if m == nil {
		return
	}
	m.settlementPublished.WithLabelValues(eventType, status).Inc()
}

func (m *Metrics) RecordSettlementApplied(eventType, result string, duration float64) {
	if m == nil {
		return
	}
	m.settlementApplied.WithLabelValues(eventType, result).Inc()
	m.settlementDuration.WithLabelValues(eventType).Observe(duration)
}

// Outcome turns an error into a metric label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
