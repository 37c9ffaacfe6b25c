package ifexists

import "time"

var _ MetricsClient = NopMetrics{}

// NopMetrics implements a MetricsClient that does nothing.
type NopMetrics struct{}

func (NopMetrics) Gauge(name string, value float64)                         {}
func (NopMetrics) GaugeWithTags(name string, value float64, tags []string)  {}
func (NopMetrics) RawCount(name string, value int64)                        {}
func (NopMetrics) RawCountWithTags(name string, value int64, tags []string) {}
func (NopMetrics) DeltaCount(name string, delta int64)                      {}
func (NopMetrics) Duration(name string, value time.Duration)                {}
