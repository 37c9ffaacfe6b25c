package testutil

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/AdRoll/ifexists"
)

// WriteFile is a test helper that writes content into a file named name in
// the directory dir, and returns its path.
func WriteFile(tb testing.TB, dir, name, content string) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tb.Fatalf("can't write %q: %v", path, err)
	}
	return path
}

// DisableLogging is a test helper that disable logging (in fact it sets its
// level to panic). It returns a function which when called, resets it to its
// previous level. Its useful to be called as follows in test/benchmarks:
//
//	func TestFoo(t *testing.T) {
//	    defer DisableLogging()()
//
//	    // logging is disabled for the whole test
//	}
func DisableLogging() (reset func()) {
	lvl := log.GetLevel()
	log.SetLevel(log.PanicLevel)
	return func() { log.SetLevel(lvl) }
}

// SetLogLevel sets the global log level for the execution of the current tb.
// Though setting the log level is safe for use from concurrent goroutines, it's
// not advised to use SetLogLevel in parallel tests/benchmark, i.e. using
// t.Parallel().
func SetLogLevel(tb testing.TB, level log.Level) {
	cur := log.GetLevel()
	log.SetLevel(level)
	tb.Cleanup(func() { log.SetLevel(cur) })
}

// MemReader is an in-memory ifexists.RowReader.
type MemReader struct {
	header ifexists.Header
	rows   []ifexists.Row
	err    error // returned after the last row, instead of io.EOF
	closed bool
}

// NewMemReader returns a MemReader with the given header column names,
// returning rows, in order.
func NewMemReader(columns []string, rows ...ifexists.Row) *MemReader {
	return &MemReader{header: ifexists.MustHeader(columns...), rows: rows}
}

// WithHeader replaces the header of r.
func (r *MemReader) WithHeader(h ifexists.Header) *MemReader {
	r.header = h
	return r
}

// FailWith makes r return err once all rows have been read.
func (r *MemReader) FailWith(err error) *MemReader {
	r.err = err
	return r
}

func (r *MemReader) Header() ifexists.Header { return r.header }

func (r *MemReader) Next() (ifexists.Row, error) {
	if len(r.rows) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		return nil, io.EOF
	}
	row := r.rows[0]
	r.rows = r.rows[1:]
	return row, nil
}

func (r *MemReader) Close() error {
	r.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (r *MemReader) Closed() bool { return r.closed }

// MemWriter is an in-memory ifexists.RowWriter.
type MemWriter struct {
	mu     sync.Mutex
	rows   []ifexists.Row
	closed bool
	err    error // returned by Write after FailAfter rows
	after  int
}

// FailAfter makes w return err on every Write after n rows have been written.
func (w *MemWriter) FailAfter(n int, err error) *MemWriter {
	w.after, w.err = n, err
	return w
}

func (w *MemWriter) Write(row ifexists.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil && len(w.rows) >= w.after {
		return w.err
	}
	w.rows = append(w.rows, row)
	return nil
}

func (w *MemWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Rows returns the rows written so far.
func (w *MemWriter) Rows() []ifexists.Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ifexists.Row(nil), w.rows...)
}

// Closed reports whether Close has been called.
func (w *MemWriter) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
