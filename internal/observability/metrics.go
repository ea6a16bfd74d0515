package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Query outcomes recorded by the facade.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// Metrics holds the Prometheus collectors for sighting queries.
type Metrics struct {
	Queries         *prometheus.CounterVec   // labels: operation, outcome={success,empty,error,invalid}
	QueryDuration   *prometheus.HistogramVec // labels: operation
	RecordsReturned *prometheus.CounterVec   // labels: operation
	BackendInfo     *prometheus.GaugeVec     // labels: backend
}

// NewMetrics creates the query metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ufosightings",
			Name:      "queries_total",
			Help:      "Sighting queries by operation and outcome.",
		}, []string{"operation", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ufosightings",
			Name:      "query_duration_seconds",
			Help:      "Duration of a complete load-filter-return cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		RecordsReturned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ufosightings",
			Name:      "records_returned_total",
			Help:      "Records or ranked entries returned to callers.",
		}, []string{"operation"}),
		BackendInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ufosightings",
			Name:      "backend_info",
			Help:      "1 for the configured record store backend.",
		}, []string{"backend"}),
	}

	if reg != nil {
		reg.MustRegister(m.Queries, m.QueryDuration, m.RecordsReturned, m.BackendInfo)
	}
	return m
}
