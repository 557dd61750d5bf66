// Package observability provides Prometheus metrics for scan runs.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// Each instance owns its registry, so independent scans never collide.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	ScanRunsTotal       *prometheus.CounterVec
	ScanDuration        *prometheus.HistogramVec
	StageRecordsIn      *prometheus.CounterVec
	StageRecordsOut     *prometheus.CounterVec
	ExclusionsTotal     *prometheus.CounterVec
	OpportunitiesRanked *prometheus.GaugeVec

	// Data quality metrics
	PriceSourceTotal   *prometheus.CounterVec
	IVSubstitutedTotal prometheus.Counter
	LowConfidenceTotal prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "options_income_lab"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Pipeline metrics
		ScanRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "scan_runs_total",
			Help:      "Total number of strategy scans by status",
		}, []string{"strategy", "status"}),
		ScanDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "scan_duration_seconds",
			Help:      "Strategy scan duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"strategy"}),
		StageRecordsIn: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_records_in_total",
			Help:      "Records entering each pipeline stage",
		}, []string{"strategy", "stage"}),
		StageRecordsOut: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_records_out_total",
			Help:      "Records surviving each pipeline stage",
		}, []string{"strategy", "stage"}),
		ExclusionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "exclusions_total",
			Help:      "Records excluded by stage and reason",
		}, []string{"strategy", "stage", "reason"}),
		OpportunitiesRanked: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "opportunities_ranked",
			Help:      "Opportunities in the last ranked result",
		}, []string{"strategy"}),

		// Data quality metrics
		PriceSourceTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "price_source_total",
			Help:      "Contracts priced by each quote source",
		}, []string{"source"}),
		IVSubstitutedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "iv_substituted_total",
			Help:      "Contracts priced with the fallback implied volatility",
		}),
		LowConfidenceTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "low_confidence_total",
			Help:      "Contracts scored with low data confidence",
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulScan: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan",
		}),
	}
}

// Registry returns the registry holding this instance's metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordScan records a finished strategy scan.
func (m *Metrics) RecordScan(strategy, status string, durationSeconds float64, ranked int, finishedUnix int64) {
	m.ScanRunsTotal.WithLabelValues(strategy, status).Inc()
	m.ScanDuration.WithLabelValues(strategy).Observe(durationSeconds)
	if status == "success" {
		m.OpportunitiesRanked.WithLabelValues(strategy).Set(float64(ranked))
		m.LastSuccessfulScan.Set(float64(finishedUnix))
	}
}

// RecordStage records records in/out and exclusion reasons for one stage.
func (m *Metrics) RecordStage(strategy, stage string, in, out int, excluded map[string]int) {
	m.StageRecordsIn.WithLabelValues(strategy, stage).Add(float64(in))
	m.StageRecordsOut.WithLabelValues(strategy, stage).Add(float64(out))
	for reason, n := range excluded {
		m.ExclusionsTotal.WithLabelValues(strategy, stage, reason).Add(float64(n))
	}
}

// RecordDataQuality records price-source and fallback counts.
func (m *Metrics) RecordDataQuality(priceSources map[string]int, ivSubstituted, lowConfidence int) {
	for source, n := range priceSources {
		m.PriceSourceTotal.WithLabelValues(source).Add(float64(n))
	}
	m.IVSubstitutedTotal.Add(float64(ivSubstituted))
	m.LowConfidenceTotal.Add(float64(lowConfidence))
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
