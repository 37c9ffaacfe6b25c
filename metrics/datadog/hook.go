package datadog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DataDog/datadog-go/v5/statsd"
	log "github.com/sirupsen/logrus"
)

type hook struct {
	levels []log.Level
	client statsd.ClientInterface
	tags   []string
	host   string
}

// NewHook returns a Logrus hook that forwards log entries as events to a
// statsd client, such as the datadog-agent.
//
// Log entries with a level higher than level are discarded.
// host is used to fill the Hostname field of statsd events, its purpose is NOT
// to configure the statsd connection (the client must already be configured).
// tags is a list of tags to include with all events.
func NewHook(level log.Level, client statsd.ClientInterface, host string, tags []string) log.Hook {
	levels := make([]log.Level, level+1)
	copy(levels[:level+1], log.AllLevels)

	return &hook{
		client: client,
		levels: levels,
		tags:   tags,
		host:   host,
	}
}

func (h *hook) Levels() []log.Level {
	return h.levels
}

func (h *hook) Fire(ent *log.Entry) error {
	return h.client.Event(h.event(ent))
}

// event formats ent as a statsd event whose title is the message followed by
// the fields as k=v, sorted by key: "message k1=v1 k2=v2".
func (h *hook) event(ent *log.Entry) *statsd.Event {
	keys := make([]string, 0, len(ent.Data))
	for k := range ent.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := strings.Builder{}
	buf.WriteString(ent.Message)
	for _, k := range keys {
		buf.WriteByte(' ')
		buf.WriteString(k)
		buf.WriteByte('=')
		fmt.Fprintf(&buf, "%v", ent.Data[k])
	}

	return &statsd.Event{
		Tags:           h.tags,
		Timestamp:      ent.Time,
		SourceTypeName: "ifexists",
		AlertType:      levelToAlertType(ent.Level),
		Text:           "event text",
		Title:          buf.String(),
		Hostname:       h.host,
	}
}

func levelToAlertType(level log.Level) statsd.EventAlertType {
	switch level {
	case log.PanicLevel, log.FatalLevel, log.ErrorLevel:
		return statsd.Error
	case log.WarnLevel:
		return statsd.Warning
	}
	return statsd.Info
}
