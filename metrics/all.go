// Package metrics lists the metrics clients available to ifexists.
package metrics

import (
	"github.com/AdRoll/ifexists"
	"github.com/AdRoll/ifexists/metrics/datadog"
)

// All is the list of all metrics client supported by ifexists.
var All = []ifexists.MetricsDesc{
	datadog.Desc,
}
