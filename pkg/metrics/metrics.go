package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Upstream clinic backend
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec

	// Visit workflow
	VisitsCreated  prometheus.Counter
	MedicineSaves  *prometheus.CounterVec
	PrintsRendered *prometheus.CounterVec

	// Session store
	SessionCacheOps *prometheus.CounterVec
	DetailSessions  prometheus.Gauge
}

// NewMetrics creates all application metrics and registers them with reg.
// Passing a fresh prometheus.NewRegistry keeps tests independent of the
// global registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of calls to the clinic backend",
		}, []string{"operation", "status"}),
		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of calls to the clinic backend",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		VisitsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "visits",
			Name:      "created_total",
			Help:      "Total number of visits saved from the entry form",
		}),
		MedicineSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "visits",
			Name:      "medicine_saves_total",
			Help:      "Total number of medicine list replacements by outcome",
		}, []string{"outcome"}),
		PrintsRendered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "visits",
			Name:      "prints_rendered_total",
			Help:      "Total number of prescriptions rendered by format",
		}, []string{"format"}),

		SessionCacheOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "cache_operations_total",
			Help:      "Total number of session cache operations",
		}, []string{"operation", "result"}),
		DetailSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "detail_sessions",
			Help:      "Current number of open patient detail sessions",
		}),
	}
}

// NewNop returns metrics registered against a private registry.
func NewNop() *Metrics {
	return NewMetrics("clinicdesk", prometheus.NewRegistry())
}
