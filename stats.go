package ifexists

import (
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

// A StatsDumper periodically logs the progress of an engine run and forwards
// the engine counters to a metrics client.
type StatsDumper struct {
	e       *Engine
	metrics MetricsClient
	every   time.Duration
	start   time.Time
	log     *log.Entry

	lock       sync.Mutex
	prevInput  int64
	prevFilter int64
	prevTime   time.Time
}

// NewStatsDumper creates and initializes a StatsDumper for e. every is the
// period of the progress reports; if it isn't positive, only the final report
// is logged.
// A nil metrics client is replaced by NopMetrics, a nil entry by the standard
// logger.
func NewStatsDumper(e *Engine, m MetricsClient, every time.Duration, entry *log.Entry) *StatsDumper {
	if m == nil {
		m = NopMetrics{}
	}
	if entry == nil {
		entry = log.NewEntry(log.StandardLogger())
	}
	return &StatsDumper{e: e, metrics: m, every: every, log: entry}
}

// rate returns the number of units per second between two samples.
func rate(cur, prev int64, d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(float64(cur-prev) / d.Seconds())
}

func (sd *StatsDumper) dumpNow(final bool) {
	sd.lock.Lock()
	defer sd.lock.Unlock()

	now := time.Now()
	elapsed := now.Sub(sd.prevTime)

	st := sd.e.Stats()
	state := sd.e.State()

	sd.metrics.RawCount("filter.rows", st.FilterRows)
	sd.metrics.RawCount("filter.errors", st.FilterErrors)
	sd.metrics.Gauge("filter.keys", float64(st.FilterKeys))
	sd.metrics.RawCount("input.rows", st.InputRows)
	sd.metrics.RawCount("input.errors", st.InputErrors)
	sd.metrics.RawCountWithTags("decisions", st.Passed, []string{"decision:pass"})
	sd.metrics.RawCountWithTags("decisions", st.Rejected, []string{"decision:reject"})

	memstats := runtime.MemStats{}
	runtime.ReadMemStats(&memstats)
	sd.metrics.Gauge("runtime.memstats.heapalloc", float64(memstats.HeapAlloc))

	fields := log.Fields{
		"state":         state.String(),
		"filter_rows":   humanize.Comma(st.FilterRows),
		"filter_keys":   humanize.Comma(st.FilterKeys),
		"filter_errors": st.FilterErrors,
		"input_rows":    humanize.Comma(st.InputRows),
		"passed":        humanize.Comma(st.Passed),
		"rejected":      humanize.Comma(st.Rejected),
		"input_errors":  st.InputErrors,
		"heap":          humanize.Bytes(memstats.HeapAlloc),
	}

	if final {
		fields["elapsed"] = now.Sub(sd.start).Round(time.Millisecond).String()
		sd.log.WithFields(fields).Info("run summary")
	} else {
		switch state {
		case StateBuildFilterSet:
			fields["speed"] = humanize.Comma(rate(st.FilterRows, sd.prevFilter, elapsed)) + " rows/s"
		case StateStreamInput:
			fields["speed"] = humanize.Comma(rate(st.InputRows, sd.prevInput, elapsed)) + " rows/s"
		}
		sd.log.WithFields(fields).Info("progress")
	}

	sd.prevInput = st.InputRows
	sd.prevFilter = st.FilterRows
	sd.prevTime = now
}

// Run starts logging the progress of the run every sd.every. Call stop() to
// stop the periodic reports; stop logs the run summary.
func (sd *StatsDumper) Run() (stop func()) {
	sd.start = time.Now()
	sd.prevTime = sd.start

	done := make(chan struct{})
	var wg sync.WaitGroup
	if sd.every > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tick := time.NewTicker(sd.every)
			defer tick.Stop()

			for {
				select {
				case <-done:
					return
				case <-tick.C:
					sd.dumpNow(false)
				}
			}
		}()
	}

	return func() {
		close(done)
		wg.Wait()
		sd.dumpNow(true)
	}
}
