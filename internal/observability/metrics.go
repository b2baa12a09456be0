package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dataset pipeline.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec // labels: outcome={success,error}
	RowsAssembled    prometheus.Counter
	RowsUpserted     prometheus.Counter
	FetchErrors      *prometheus.CounterVec // labels: feature
	PublishErrors    prometheus.Counter
	ForecastPoints   prometheus.Counter
	RunDuration      prometheus.Histogram
	LastRunTimestamp prometheus.Gauge
	PipelineRunning  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RowsAssembled,
		m.RowsUpserted,
		m.FetchErrors,
		m.PublishErrors,
		m.ForecastPoints,
		m.RunDuration,
		m.LastRunTimestamp,
		m.PipelineRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dengue_etl",
			Name:      "runs_total",
			Help:      "Dataset pipeline runs by outcome.",
		}, []string{"outcome"}),
		RowsAssembled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dengue_etl",
			Name:      "rows_assembled_total",
			Help:      "Total training rows assembled across runs.",
		}),
		RowsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dengue_etl",
			Name:      "rows_upserted_total",
			Help:      "Total training rows submitted to the warehouse.",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dengue_etl",
			Name:      "feature_fetch_errors_total",
			Help:      "Feature provider failures by feature name.",
		}, []string{"feature"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dengue_etl",
			Name:      "publish_errors_total",
			Help:      "Failed publishes of assembled rows to the sink topic.",
		}),
		ForecastPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dengue_etl",
			Name:      "forecast_points_total",
			Help:      "Forecast points retrieved from the model runner.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dengue_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-assemble-upsert-fit cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dengue_etl",
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last successful pipeline run.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dengue_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress.",
		}),
	}
}
