package ifexists

import (
	"time"
)

// A MetricsClient allows to instrument the engine and to export its metrics
// to the configured backend.
//
// New metrics backends must implement this interface and register their
// description as a MetricsDesc in Components.Metrics.
type MetricsClient interface {
	// Gauge sets the value of a metric of type gauge. A Gauge represents a
	// single numerical data point that can arbitrarily go up and down.
	Gauge(name string, value float64)

	// GaugeWithTags sets the value of a metric of type gauge and associates
	// that value with a set of tags.
	GaugeWithTags(name string, value float64, tags []string)

	// RawCount sets the value of a metric of type counter. A counter is a
	// cumulative metrics that can only increase. RawCount sets the current
	// value of the counter.
	RawCount(name string, value int64)

	// RawCountWithTags sets the value of a metric or type counter and associates
	// that value with a set of tags.
	RawCountWithTags(name string, value int64, tags []string)

	// DeltaCount increments the value of a metric of type counter by delta.
	// delta must be positive.
	DeltaCount(name string, delta int64)

	// Duration adds a duration to a metric of type histogram.
	Duration(name string, value time.Duration)
}
