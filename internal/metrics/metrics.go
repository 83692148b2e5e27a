package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest outcomes, used as the outcome label value
const (
	OutcomeCreated            = "created"
	OutcomeMissingColumns     = "missing_columns"
	OutcomeInvalidFormat      = "invalid_format"
	OutcomePersistenceFailure = "persistence_failure"
	OutcomeError              = "error"
)

// Metrics holds the service collectors
type Metrics struct {
	registry *prometheus.Registry

	ingests        *prometheus.CounterVec
	evictions      prometheus.Counter
	rowsIngested   prometheus.Counter
	ingestDuration prometheus.Histogram
	reports        *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chemviz_ingests_total",
			Help: "CSV uploads processed, by outcome.",
		}, []string{"outcome"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chemviz_dataset_evictions_total",
			Help: "Datasets evicted to stay within the per-owner retention limit.",
		}),
		rowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chemviz_rows_ingested_total",
			Help: "Equipment records persisted.",
		}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chemviz_ingest_duration_seconds",
			Help:    "Time from upload receipt to commit or failure.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chemviz_reports_rendered_total",
			Help: "Reports rendered, by format.",
		}, []string{"format"}),
	}

	m.registry.MustRegister(
		m.ingests, m.evictions, m.rowsIngested, m.ingestDuration, m.reports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveIngest records one processed upload
func (m *Metrics) ObserveIngest(outcome string, rows, evicted int, seconds float64) {
	m.ingests.WithLabelValues(outcome).Inc()
	m.ingestDuration.Observe(seconds)
	if outcome == OutcomeCreated {
		m.rowsIngested.Add(float64(rows))
		m.evictions.Add(float64(evicted))
	}
}

// ObserveReport records one rendered report
func (m *Metrics) ObserveReport(format string) {
	m.reports.WithLabelValues(format).Inc()
}

// Register adds an extra collector, such as database pool stats, to the registry
func (m *Metrics) Register(c prometheus.Collector) error {
	return m.registry.Register(c)
}

// Gatherer exposes the registry for scraping and inspection
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
