// Package datadog provides types and functions to export metrics
// and logs to Datadog via a statsd client.
package datadog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	log "github.com/sirupsen/logrus"

	"github.com/AdRoll/ifexists"
)

// Desc describes the Datadog metrics client interface.
var Desc = ifexists.MetricsDesc{
	Name:   "Datadog",
	Config: &Config{},
	New:    newDatadogClient,
}

// Config is the configuration of the Datadog metrics client.
type Config struct {
	Prefix   string   `toml:"prefix" help:"Prefix of all metric names" default:"ifexists."`
	Host     string   `toml:"host" help:"Address of the statsd host to send metrics to (in UDP)" default:"127.0.0.1:8125"`
	Tags     []string `toml:"tags" help:"Tags to attach to all metrics"`
	SendLogs bool     `toml:"send_logs" help:"Forward warnings and errors as statsd events" default:"false"`
}

// Client allows to instrument code and export the metrics to a dogstatsd client.
type Client struct {
	dog      *statsd.Client
	basetags []string

	mu       sync.Mutex
	counters map[string]int64
}

func newDatadogClient(icfg interface{}) (ifexists.MetricsClient, error) {
	return newClient(icfg.(*Config))
}

// newClient creates a Client that pushes to the datadog server using the
// dogstatsd format. All exported metrics will have a name prepended with the
// given prefix and will be tagged with the provided set of tags.
func newClient(cfg *Config) (*Client, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "ifexists."
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1:8125"
	}

	dog, err := statsd.New(cfg.Host, statsd.WithNamespace(cfg.Prefix))
	if err != nil {
		return nil, fmt.Errorf("can't create datadog metrics client: %s", err)
	}

	if cfg.SendLogs {
		host, _ := os.Hostname()
		log.AddHook(NewHook(log.WarnLevel, dog, host, cfg.Tags))
	}

	return &Client{
		dog:      dog,
		basetags: cfg.Tags,
		counters: make(map[string]int64),
	}, nil
}

// Close flushes the buffered metrics and closes the statsd client.
func (c *Client) Close() error {
	return c.dog.Close()
}

func (c *Client) tags(tags []string) []string {
	if len(tags) == 0 {
		return c.basetags
	}
	all := make([]string, 0, len(c.basetags)+len(tags))
	all = append(all, c.basetags...)
	return append(all, tags...)
}

// Gauge sets the value of a metric of type gauge. A Gauge represents a
// single numerical data point that can arbitrarily go up and down.
func (c *Client) Gauge(name string, value float64) {
	c.dog.Gauge(name, value, c.basetags, 1)
}

// GaugeWithTags sets the value of a metric of type gauge and associates
// that value with a set of tags.
func (c *Client) GaugeWithTags(name string, value float64, tags []string) {
	c.dog.Gauge(name, value, c.tags(tags), 1)
}

// DeltaCount increments the value of a metric of type counter by delta.
// delta must be positive.
func (c *Client) DeltaCount(name string, delta int64) {
	c.dog.Count(name, delta, c.basetags, 1)
}

// RawCount sets the value of a metric of type counter. A counter is a
// cumulative metrics that can only increase. RawCount sets the current
// value of the counter.
func (c *Client) RawCount(name string, value int64) {
	c.dog.Count(name, c.delta(name, value), c.basetags, 1)
}

// RawCountWithTags sets the value of a metric or type counter and associates
// that value with a set of tags.
func (c *Client) RawCountWithTags(name string, value int64, tags []string) {
	all := c.tags(tags)
	// Tagged series of the same metric are distinct counters.
	key := name
	for _, t := range tags {
		key += "," + t
	}
	c.dog.Count(name, c.delta(key, value), all, 1)
}

func (c *Client) delta(key string, value int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	delta := value - c.counters[key]
	if delta < 0 {
		delta = 0
	}
	c.counters[key] = value
	return delta
}

// Duration adds a duration to a metric of type histogram. A histogram
// samples observations and counts them in different 'buckets'. Duration
// is basically an histogram but allows to sample values of type time.Duration.
//
// In Datadog, this is shown as a 'Timer', an implementation of an 'Histogram'
// DogStatsd metric type, on which percentiles, mean and other info are calculated.
// see https://docs.datadoghq.com/developers/dogstatsd/data_types/#timers
func (c *Client) Duration(name string, value time.Duration) {
	c.dog.Timing(name, value, c.basetags, 1)
}
