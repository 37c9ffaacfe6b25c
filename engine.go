package ifexists

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// RoleOutput identifies the output stream in errors.
const RoleOutput Role = "output"

// State is the state of an Engine.
type State int32

const (
	StateInit State = iota
	StateBuildFilterSet
	StateStreamInput
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateBuildFilterSet:
		return "BUILD_FILTER_SET"
	case StateStreamInput:
		return "STREAM_INPUT"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// EngineConfig holds the engine configuration. It's passed by value and never
// modified by the engine.
type EngineConfig struct {
	InputKeys        []string // key columns of the input file (names or 0-based positions)
	FilterKeys       []string // key columns of the filter file (names or 0-based positions)
	FieldSeparator   string   // separator for multi-column keys
	Invert           bool     // pass rows whose key is NOT in the filter set
	InputErrorLimit  int      // error budget of the input file (0 means unlimited)
	FilterErrorLimit int      // error budget of the filter file (0 means unlimited)
	ChanSize         int      // number of input rows read ahead of the decision loop
}

func (c *EngineConfig) fillDefaults() {
	if c.FieldSeparator == "" {
		c.FieldSeparator = DefaultFieldSeparator
	}
	if c.ChanSize <= 0 {
		c.ChanSize = 1024
	}
}

// EngineParams holds the parameters passed to NewEngine.
type EngineParams struct {
	Config  EngineConfig
	Input   RowReader     // the file to filter
	Filter  RowReader     // the file providing the filter keys
	Output  RowWriter     // where passing rows are written
	Metrics MetricsClient // optional
}

// Engine filters the rows of the input file, keeping those whose composite
// key is (or is not, if inverted) among the composite keys of the filter
// file.
//
// An Engine runs once. Its lifecycle is INIT → BUILD_FILTER_SET → STREAM_INPUT
// → DONE, or FAILED as soon as a fatal error happens, in which case the rows
// already written to the output are left there.
type Engine struct {
	// atomically-accessed, keep on top for 64-bit alignment.
	inputRows int64
	passed    int64
	rejected  int64
	state     int32
	build     buildCounters

	cfg     EngineConfig
	input   RowReader
	filter  RowReader
	out     RowWriter
	metrics MetricsClient

	inputKeys    KeyColumns
	filterKeys   KeyColumns
	inputBudget  *ErrorBudget
	filterBudget *ErrorBudget

	set *FilterSet
}

// NewEngine creates an Engine and resolves the key columns of both files,
// using their headers only. Key configuration errors are thus reported before
// any row is read.
func NewEngine(p EngineParams) (*Engine, error) {
	cfg := p.Config
	cfg.fillDefaults()

	if p.Input == nil || p.Filter == nil || p.Output == nil {
		return nil, errors.New("engine needs an input, a filter and an output")
	}

	inh, fh := p.Input.Header(), p.Filter.Header()
	inputKeys, filterKeys, err := ResolveKeyPair(cfg, inh, fh)
	if err != nil {
		return nil, err
	}

	m := p.Metrics
	if m == nil {
		m = NopMetrics{}
	}

	log.WithFields(log.Fields{
		"input_keys":  inputKeys.Names(inh),
		"filter_keys": filterKeys.Names(fh),
		"invert":      cfg.Invert,
	}).Debug("key columns resolved")

	return &Engine{
		cfg:          cfg,
		input:        p.Input,
		filter:       p.Filter,
		out:          p.Output,
		metrics:      m,
		inputKeys:    inputKeys,
		filterKeys:   filterKeys,
		inputBudget:  NewErrorBudget(RoleInput, cfg.InputErrorLimit),
		filterBudget: NewErrorBudget(RoleFilter, cfg.FilterErrorLimit),
	}, nil
}

// ResolveKeyPair resolves the key columns of the input file (with header inh)
// and of the filter file (with header fh), and checks that both keys have the
// same number of columns.
func ResolveKeyPair(cfg EngineConfig, inh, fh Header) (inputKeys, filterKeys KeyColumns, err error) {
	inputKeys, err = ResolveKeys(inh, cfg.InputKeys, RoleInput, fh)
	if err != nil {
		return nil, nil, err
	}
	filterKeys, err = ResolveKeys(fh, cfg.FilterKeys, RoleFilter, inh)
	if err != nil {
		return nil, nil, err
	}
	if len(inputKeys) != len(filterKeys) {
		return nil, nil, &Error{
			Kind: KeyCountMismatch,
			Msg:  fmt.Sprintf("there are %d input key columns but %d filter key columns", len(inputKeys), len(filterKeys)),
		}
	}
	return inputKeys, filterKeys, nil
}

// InputKeys returns the resolved key columns of the input file.
func (e *Engine) InputKeys() KeyColumns { return e.inputKeys }

// FilterKeys returns the resolved key columns of the filter file.
func (e *Engine) FilterKeys() KeyColumns { return e.filterKeys }

// State returns the current state of the engine.
func (e *Engine) State() State { return State(atomic.LoadInt32(&e.state)) }

func (e *Engine) setState(s State) { atomic.StoreInt32(&e.state, int32(s)) }

func (e *Engine) fail(err error) error {
	e.setState(StateFailed)
	return err
}

// FilterSet returns the filter set, or nil if it hasn't been built yet.
func (e *Engine) FilterSet() *FilterSet {
	if e.State() < StateStreamInput {
		return nil
	}
	return e.set
}

// Stats returns the current counters. It's safe to call Stats while Run is
// in progress.
func (e *Engine) Stats() RunStats {
	return RunStats{
		FilterRows:   atomic.LoadInt64(&e.build.rows),
		FilterKeys:   atomic.LoadInt64(&e.build.keys),
		FilterErrors: e.filterBudget.Count(),
		InputRows:    atomic.LoadInt64(&e.inputRows),
		Passed:       atomic.LoadInt64(&e.passed),
		Rejected:     atomic.LoadInt64(&e.rejected),
		InputErrors:  e.inputBudget.Count(),
	}
}

// Run builds the filter set from the whole filter file, then streams the
// input file and writes the rows that pass to the output, in input order.
// Run doesn't close the output, and the input isn't read anymore once Run
// has returned, whatever the outcome.
func (e *Engine) Run() error {
	if !atomic.CompareAndSwapInt32(&e.state, int32(StateInit), int32(StateBuildFilterSet)) {
		return fmt.Errorf("engine can't run from state %s", e.State())
	}

	start := time.Now()
	set, err := buildFilterSet(e.filter, BuildConfig{
		Keys:      e.filterKeys,
		Separator: e.cfg.FieldSeparator,
		Budget:    e.filterBudget,
	}, &e.build)
	if err != nil {
		return e.fail(err)
	}
	e.set = set
	e.metrics.Duration("filter.build_time", time.Since(start))

	e.setState(StateStreamInput)
	start = time.Now()
	if err := e.stream(); err != nil {
		return e.fail(err)
	}
	e.metrics.Duration("input.stream_time", time.Since(start))

	e.setState(StateDone)
	return nil
}

type fetched struct {
	row Row
	err error
}

// prefetch reads rows from the input in a separate goroutine, so that reading
// overlaps with the decisions. The last value sent on the returned channel
// holds the error returned by the reader (io.EOF in the normal case). Once
// stop is closed, the goroutine stops calling Next and closes done on exit.
func (e *Engine) prefetch(stop <-chan struct{}) (rows <-chan fetched, done <-chan struct{}) {
	ch := make(chan fetched, e.cfg.ChanSize)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		defer close(ch)
		for {
			select {
			case <-stop:
				return
			default:
			}
			row, err := e.input.Next()
			select {
			case ch <- fetched{row: row, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch, exited
}

// stream returns only once the prefetching goroutine has exited, so the
// input can be closed as soon as Run returns.
func (e *Engine) stream() error {
	stop := make(chan struct{})
	rows, done := e.prefetch(stop)
	defer func() {
		close(stop)
		<-done
	}()

	ncols := e.input.Header().Len()
	want := !e.cfg.Invert
	trace := log.IsLevelEnabled(log.TraceLevel)

	var line int64
	for f := range rows {
		if f.err != nil {
			if errors.Is(f.err, io.EOF) {
				return nil
			}
			return ioFailure(RoleInput, "can't read row", f.err)
		}
		line++

		if len(f.row) != ncols {
			rowErr := &Error{
				Kind: MalformedRow,
				Role: RoleInput,
				Line: line,
				Msg:  fmt.Sprintf("expected %d fields, got %d", ncols, len(f.row)),
			}
			if err := e.inputBudget.Report(rowErr); err != nil {
				return err
			}
			continue
		}
		atomic.AddInt64(&e.inputRows, 1)

		key := e.inputKeys.Key(f.row, e.cfg.FieldSeparator)
		pass := e.set.Contains(key) == want
		if trace {
			log.WithFields(log.Fields{"line": line, "key": key, "pass": pass}).Trace("decision")
		}
		if !pass {
			atomic.AddInt64(&e.rejected, 1)
			continue
		}

		if err := e.out.Write(f.row); err != nil {
			return ioFailure(RoleOutput, "can't write row", err)
		}
		atomic.AddInt64(&e.passed, 1)
	}

	// The channel is only closed without sending io.EOF when stop is closed.
	return nil
}
