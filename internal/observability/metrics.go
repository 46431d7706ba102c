package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "safety_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges of the dashboard.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	UpdatesApplied   prometheus.Counter
	UpdateErrors     *prometheus.CounterVec // labels: reason={invalid,unknown_region}
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Board metrics.
	Regions           prometheus.Gauge
	AnimationsStarted *prometheus.CounterVec // labels: display={summary,region}
	DisplayFrames     prometheus.Counter

	// Streaming metrics.
	StreamPublished *prometheus.CounterVec // labels: outcome={success,error,dropped}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.UpdatesApplied,
		m.UpdateErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Regions,
		m.AnimationsStarted,
		m.DisplayFrames,
		m.StreamPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total region update messages read from Kafka.",
		}),
		UpdatesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_applied_total",
			Help:      "Total region updates applied to the board.",
		}),
		UpdateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_errors_total",
			Help:      "Region updates rejected, by reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the update pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Regions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions",
			Help:      "Number of regions on the board.",
		}),
		AnimationsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "animations_started_total",
			Help:      "Count-up animations (re)started, by display group.",
		}, []string{"display"}),
		DisplayFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "display_frames_total",
			Help:      "Distinct display texts emitted by the board.",
		}),
		StreamPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_published_total",
			Help:      "Display frames handed to MQTT, by outcome.",
		}, []string{"outcome"}),
	}
}
