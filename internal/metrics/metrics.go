package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the retrieval gateway.
type Metrics struct {
	// Payment metrics
	PaymentsTotal        *prometheus.CounterVec
	PaymentsSuccessTotal *prometheus.CounterVec
	PaymentsFailedTotal  *prometheus.CounterVec
	PaymentAmountTotal   *prometheus.CounterVec
	PaymentDuration      *prometheus.HistogramVec
	SettlementDuration   *prometheus.HistogramVec

	// Facilitator call metrics
	FacilitatorCallsTotal   *prometheus.CounterVec
	FacilitatorCallDuration *prometheus.HistogramVec
	FacilitatorErrorsTotal  *prometheus.CounterVec
	FacilitatorInflight     prometheus.Gauge

	// Retrieval metrics
	ChunksServedTotal   *prometheus.CounterVec
	DocumentsIndexedTotal *prometheus.CounterVec
	SearchDuration      *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration     *prometheus.HistogramVec
	DBConnectionsActive prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Payment metrics
		PaymentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_payments_total",
				Help: "Total number of payment attempts",
			},
			[]string{"method", "resource"},
		),
		PaymentsSuccessTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_payments_success_total",
				Help: "Total number of successful payments",
			},
			[]string{"method", "resource"},
		),
		PaymentsFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_payments_failed_total",
				Help: "Total number of failed payments",
			},
			[]string{"method", "resource", "reason"},
		),
		PaymentAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_payment_amount_base_units_total",
				Help: "Total settled payment amount in asset base units",
			},
			[]string{"method", "token"},
		),
		PaymentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_payment_duration_seconds",
				Help:    "Time taken to process a payment (supports p50, p95, p99 percentiles)",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"method", "resource"},
		),
		SettlementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_settlement_duration_seconds",
				Help:    "Time from verify to on-chain settlement",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"network"},
		),

		// Facilitator call metrics
		FacilitatorCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_facilitator_calls_total",
				Help: "Total number of calls made to the x402 facilitator",
			},
			[]string{"operation", "network"},
		),
		FacilitatorCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_facilitator_call_duration_seconds",
				Help:    "Duration of facilitator calls (supports p50, p95, p99 percentiles)",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation", "network"},
		),
		FacilitatorErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_facilitator_errors_total",
				Help: "Total number of facilitator call errors",
			},
			[]string{"operation", "network", "error_type"},
		),
		FacilitatorInflight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_facilitator_inflight",
				Help: "Number of facilitator calls currently in flight",
			},
		),

		// Retrieval metrics
		ChunksServedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_chunks_served_total",
				Help: "Total number of chunks returned to clients, by whether they were already paid for",
			},
			[]string{"paid"},
		),
		DocumentsIndexedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_documents_indexed_total",
				Help: "Total number of documents indexed",
			},
			[]string{"source_type"},
		),
		SearchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_search_duration_seconds",
				Help:    "Time taken to run a similarity search",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"outcome"},
		),

		// Rate limiting metrics
		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"limit_type", "identifier"},
		),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_db_query_duration_seconds",
				Help:    "Database query duration (supports p50, p95, p99 percentiles)",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"operation", "backend"},
		),
		DBConnectionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_db_connections_active",
				Help: "Number of active database connections",
			},
		),
	}
}

// ObservePayment records a payment attempt and its outcome.
func (m *Metrics) ObservePayment(method, resource string, success bool, duration time.Duration, amountBaseUnits int64, token string) {
	m.PaymentsTotal.WithLabelValues(method, resource).Inc()
	if success {
		m.PaymentsSuccessTotal.WithLabelValues(method, resource).Inc()
		m.PaymentAmountTotal.WithLabelValues(method, token).Add(float64(amountBaseUnits))
	}
	m.PaymentDuration.WithLabelValues(method, resource).Observe(duration.Seconds())
}

// ObservePaymentFailure records a failed payment with reason.
func (m *Metrics) ObservePaymentFailure(method, resource, reason string) {
	m.PaymentsFailedTotal.WithLabelValues(method, resource, reason).Inc()
}

// ObserveSettlement records on-chain settlement time.
func (m *Metrics) ObserveSettlement(network string, duration time.Duration) {
	m.SettlementDuration.WithLabelValues(network).Observe(duration.Seconds())
}

// ObserveFacilitatorCall records a call made to the x402 facilitator.
func (m *Metrics) ObserveFacilitatorCall(operation, network string, duration time.Duration, err error) {
	m.FacilitatorCallsTotal.WithLabelValues(operation, network).Inc()
	m.FacilitatorCallDuration.WithLabelValues(operation, network).Observe(duration.Seconds())

	if err != nil {
		errorType := "unknown"
		if errStr := err.Error(); errStr != "" {
			switch {
			case contains(errStr, "timeout"):
				errorType = "timeout"
			case contains(errStr, "rate limit"):
				errorType = "rate_limit"
			case contains(errStr, "connection"):
				errorType = "connection"
			case contains(errStr, "not found"):
				errorType = "not_found"
			default:
				errorType = "other"
			}
		}
		m.FacilitatorErrorsTotal.WithLabelValues(operation, network, errorType).Inc()
	}
}

// ObserveChunksServed records chunks returned to a client, split by whether
// they were already paid for or newly settled.
func (m *Metrics) ObserveChunksServed(count int, paid bool) {
	label := "false"
	if paid {
		label = "true"
	}
	m.ChunksServedTotal.WithLabelValues(label).Add(float64(count))
}

// ObserveDocumentIndexed records a document being added to the index.
func (m *Metrics) ObserveDocumentIndexed(sourceType string) {
	m.DocumentsIndexedTotal.WithLabelValues(sourceType).Inc()
}

// ObserveSearch records a similarity search's duration and outcome.
func (m *Metrics) ObserveSearch(outcome string, duration time.Duration) {
	m.SearchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveRateLimit records a rate limit hit.
func (m *Metrics) ObserveRateLimit(limitType, identifier string) {
	m.RateLimitHitsTotal.WithLabelValues(limitType, identifier).Inc()
}

// ObserveDBQuery records a database query.
func (m *Metrics) ObserveDBQuery(operation, backend string, duration time.Duration) {
	m.DBQueryDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && s[:len(substr)] == substr ||
		len(s) > len(substr) && contains(s[1:], substr)
}
