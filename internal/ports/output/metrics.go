package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncConversion increments the conversion counter.
	IncConversion(success bool)

	// ObserveExportDuration records the duration of one export.
	ObserveExportDuration(duration time.Duration)

	// AddLayersWritten adds to the written-layer counter.
	AddLayersWritten(count int)

	// AddFeaturesWritten adds to the written-feature counter.
	AddFeaturesWritten(count int)

	// IncDelivery increments the delivery operation counter.
	IncDelivery(backend string, success bool)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncConversion implements MetricsCollector.
func (n *NoOpMetrics) IncConversion(_ bool) {}

// ObserveExportDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveExportDuration(_ time.Duration) {}

// AddLayersWritten implements MetricsCollector.
func (n *NoOpMetrics) AddLayersWritten(_ int) {}

// AddFeaturesWritten implements MetricsCollector.
func (n *NoOpMetrics) AddFeaturesWritten(_ int) {}

// IncDelivery implements MetricsCollector.
func (n *NoOpMetrics) IncDelivery(_ string, _ bool) {}
