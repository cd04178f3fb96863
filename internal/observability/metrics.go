package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "opioid_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for sample assembly runs.
type Metrics struct {
	RunsTotal       prometheus.Counter
	RunsFailed      prometheus.Counter
	PipelineRunning prometheus.Gauge
	StageDuration   *prometheus.HistogramVec // labels: stage={extract,transform,load}

	// Assembly metrics.
	UniversalFeatures prometheus.Gauge
	DrugRecords       prometheus.Gauge
	RowsAssembled     prometheus.Counter
	GeoMisses         prometheus.Counter
	NonNumericCells   prometheus.Counter
	RowsPublished     *prometheus.CounterVec // labels: sink={csv,kafka}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunsFailed,
		m.PipelineRunning,
		m.StageDuration,
		m.UniversalFeatures,
		m.DrugRecords,
		m.RowsAssembled,
		m.GeoMisses,
		m.NonNumericCells,
		m.RowsPublished,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total assembly runs started.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Total assembly runs that ended in error.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in flight, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		UniversalFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "universal_features",
			Help:      "Features shared by every survey year in the last run.",
		}),
		DrugRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drug_records",
			Help:      "Drug-report records loaded in the last run.",
		}),
		RowsAssembled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_assembled_total",
			Help:      "Sample rows assembled.",
		}),
		GeoMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_misses_total",
			Help:      "Sample rows whose county had no reference coordinate.",
		}),
		NonNumericCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "non_numeric_cells_total",
			Help:      "Feature cells replaced by the missing-value sentinel.",
		}),
		RowsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_published_total",
			Help:      "Sample rows written by sink.",
		}, []string{"sink"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when coordinate backfill is enabled, 0 otherwise.",
		}),
	}
}
