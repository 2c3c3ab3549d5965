// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the MetricsCollector port using Prometheus.
type Collector struct {
	conversions        *prometheus.CounterVec
	layersWritten      prometheus.Counter
	featuresWritten    prometheus.Counter
	exportDuration     prometheus.Histogram
	deliveryOperations *prometheus.CounterVec
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "mensura"
	}

	return &Collector{
		conversions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total number of conversion runs",
			},
			[]string{"status"},
		),

		layersWritten: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "layers_written_total",
				Help:      "Total number of layers written to GeoPackages",
			},
		),

		featuresWritten: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "features_written_total",
				Help:      "Total number of features written to GeoPackages",
			},
		),

		exportDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_duration_seconds",
				Help:      "Conversion and export duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		deliveryOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "delivery_operations_total",
				Help:      "Total number of delivery uploads",
			},
			[]string{"backend", "status"},
		),
	}
}

// IncConversion increments the conversion counter.
func (c *Collector) IncConversion(success bool) {
	c.conversions.WithLabelValues(statusLabel(success)).Inc()
}

// ObserveExportDuration records the duration of one export.
func (c *Collector) ObserveExportDuration(duration time.Duration) {
	c.exportDuration.Observe(duration.Seconds())
}

// AddLayersWritten adds to the written-layer counter.
func (c *Collector) AddLayersWritten(count int) {
	c.layersWritten.Add(float64(count))
}

// AddFeaturesWritten adds to the written-feature counter.
func (c *Collector) AddFeaturesWritten(count int) {
	c.featuresWritten.Add(float64(count))
}

// IncDelivery increments the delivery operation counter.
func (c *Collector) IncDelivery(backend string, success bool) {
	c.deliveryOperations.WithLabelValues(backend, statusLabel(success)).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
