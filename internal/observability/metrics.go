// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingest metrics
	BarsIngested  prometheus.Counter
	FilesIngested prometheus.Counter
	DecodeErrors  prometheus.Counter

	// Build metrics
	BarsAnnotated prometheus.Counter
	SeriesBuilt   *prometheus.CounterVec
	RollsDetected *prometheus.CounterVec
	MissingDays   *prometheus.GaugeVec
	BuildDuration prometheus.Histogram

	// Database metrics
	StoreWriteDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
// Registration panics on duplicate names, so call at most once per namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "futures_roll_lab"
	}

	return &Metrics{
		// Ingest metrics
		BarsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "bars_ingested_total",
			Help:      "Total number of raw contract bars ingested",
		}),
		FilesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "files_ingested_total",
			Help:      "Total number of CSV files ingested",
		}),
		DecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "decode_errors_total",
			Help:      "Total number of contract symbol decode failures",
		}),

		// Build metrics
		BarsAnnotated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "bars_annotated_total",
			Help:      "Total number of bars annotated with contract metadata",
		}),
		SeriesBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "series_built_total",
			Help:      "Total number of continuous series built by policy",
		}, []string{"policy"}),
		RollsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "rolls_detected_total",
			Help:      "Total number of roll adjustments detected by policy",
		}, []string{"policy"}),
		MissingDays: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "missing_weekdays",
			Help:      "Weekdays without a selected row in the latest build of a series",
		}, []string{"root", "policy", "length"}),
		BuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "duration_seconds",
			Help:      "Series build duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),

		// Database metrics
		StoreWriteDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "store_write_duration_seconds",
			Help:      "Store write duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBarsIngested adds to the bars ingested counter.
func RecordBarsIngested(count int) {
	DefaultMetrics.BarsIngested.Add(float64(count))
}

// RecordFilesIngested adds to the files ingested counter.
func RecordFilesIngested(count int) {
	DefaultMetrics.FilesIngested.Add(float64(count))
}

// RecordDecodeError increments the decode errors counter.
func RecordDecodeError() {
	DefaultMetrics.DecodeErrors.Inc()
}

// RecordBarsAnnotated adds to the bars annotated counter.
func RecordBarsAnnotated(count int) {
	DefaultMetrics.BarsAnnotated.Add(float64(count))
}

// RecordSeriesBuilt records one built series and its detected rolls.
func RecordSeriesBuilt(policy string, rolls int) {
	DefaultMetrics.SeriesBuilt.WithLabelValues(policy).Inc()
	DefaultMetrics.RollsDetected.WithLabelValues(policy).Add(float64(rolls))
}

// UpdateMissingDays sets the missing weekdays gauge for one series.
func UpdateMissingDays(root, policy string, length, days int) {
	DefaultMetrics.MissingDays.WithLabelValues(root, policy, strconv.Itoa(length)).Set(float64(days))
}

// RecordBuildDuration records one build run's duration.
func RecordBuildDuration(seconds float64) {
	DefaultMetrics.BuildDuration.Observe(seconds)
}

// RecordStoreWrite records one store write's duration.
func RecordStoreWrite(store string, seconds float64) {
	DefaultMetrics.StoreWriteDuration.WithLabelValues(store).Observe(seconds)
}
