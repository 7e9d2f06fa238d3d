package core

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder captures store operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	CollectionSize(collection string, size int)
	PersistenceFailure(collection string)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
func (noopMetrics) CollectionSize(string, int)                           {}
func (noopMetrics) PersistenceFailure(string)                            {}

// PrometheusRecorder publishes store metrics to a Prometheus registry.
type PrometheusRecorder struct {
	operations      *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	collectionSize  *prometheus.GaugeVec
	persistFailures *prometheus.CounterVec
}

// NewPrometheusRecorder registers the store collectors with reg. A nil
// registerer uses prometheus.DefaultRegisterer.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "medportal",
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Store operations by name and outcome.",
			},
			[]string{"operation", "success"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "medportal",
				Subsystem: "store",
				Name:      "operation_duration_seconds",
				Help:      "Store operation latency including persistence and notification.",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
		collectionSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "medportal",
				Subsystem: "store",
				Name:      "collection_size",
				Help:      "Number of entities held per collection.",
			},
			[]string{"collection"},
		),
		persistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "medportal",
				Subsystem: "store",
				Name:      "persistence_failures_total",
				Help:      "Collection writes the durable medium rejected.",
			},
			[]string{"collection"},
		),
	}
	for _, c := range []prometheus.Collector{r.operations, r.latency, r.collectionSize, r.persistFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	r.operations.WithLabelValues(operation, strconv.FormatBool(success)).Inc()
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// CollectionSize implements MetricsRecorder.
func (r *PrometheusRecorder) CollectionSize(collection string, size int) {
	r.collectionSize.WithLabelValues(collection).Set(float64(size))
}

// PersistenceFailure implements MetricsRecorder.
func (r *PrometheusRecorder) PersistenceFailure(collection string) {
	r.persistFailures.WithLabelValues(collection).Inc()
}
