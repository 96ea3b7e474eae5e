package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics records what the import pipeline does. Implementations must
// be safe for concurrent use.
type ImportMetrics interface {
	RecordRun(outcome string, duration time.Duration)
	RecordRows(count int)
	RecordUnitInserted(kind string)
}

// PrometheusImportMetrics is the production ImportMetrics backed by a
// prometheus registry.
type PrometheusImportMetrics struct {
	runs     *prometheus.CounterVec
	rows     prometheus.Counter
	units    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewImportMetrics registers the import collectors on reg.
func NewImportMetrics(reg prometheus.Registerer) *PrometheusImportMetrics {
	m := &PrometheusImportMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_import_runs_total",
			Help: "Import runs by outcome (success, qualified, failed, error).",
		}, []string{"outcome"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enrollment_import_rows_total",
			Help: "Spreadsheet rows processed across all runs.",
		}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_import_units_inserted_total",
			Help: "Persisted units by kind (individual, team, member).",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrollment_import_run_duration_seconds",
			Help:    "Wall time of one import run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.runs, m.rows, m.units, m.duration)
	return m
}

func (m *PrometheusImportMetrics) RecordRun(outcome string, duration time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(duration.Seconds())
}

func (m *PrometheusImportMetrics) RecordRows(count int) {
	m.rows.Add(float64(count))
}

func (m *PrometheusImportMetrics) RecordUnitInserted(kind string) {
	m.units.WithLabelValues(kind).Inc()
}

// NoOpMetrics discards every observation; used in tests.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordRun(string, time.Duration) {}
func (NoOpMetrics) RecordRows(int)                  {}
func (NoOpMetrics) RecordUnitInserted(string)       {}
