package ifexists

import (
	"errors"
	"io"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

func disableLogging() (reset func()) {
	lvl := log.GetLevel()
	log.SetLevel(log.PanicLevel)
	return func() { log.SetLevel(lvl) }
}

// sliceReader is a RowReader returning rows from a slice, then err (or
// io.EOF if err is nil).
type sliceReader struct {
	header Header
	rows   []Row
	err    error
	reads  int
}

func newSliceReader(columns []string, rows ...Row) *sliceReader {
	return &sliceReader{header: MustHeader(columns...), rows: rows}
}

func (r *sliceReader) Header() Header { return r.header }

func (r *sliceReader) Next() (Row, error) {
	r.reads++
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

// sliceWriter is a RowWriter appending rows to a slice. If failAt is
// positive, writing the failAt-th row fails.
type sliceWriter struct {
	rows   []Row
	failAt int
}

var errDiskFull = errors.New("disk full")

func (w *sliceWriter) Write(row Row) error {
	if w.failAt > 0 && len(w.rows)+1 == w.failAt {
		return errDiskFull
	}
	w.rows = append(w.rows, row)
	return nil
}

func (w *sliceWriter) Close() error { return nil }

// slowReader is a RowReader returning the same row forever, sleeping before
// each one. It counts the calls to Next made after Close.
type slowReader struct {
	header Header
	row    Row
	delay  time.Duration

	closed    int32
	lateReads int64
}

func (r *slowReader) Header() Header { return r.header }

func (r *slowReader) Next() (Row, error) {
	if atomic.LoadInt32(&r.closed) != 0 {
		atomic.AddInt64(&r.lateReads, 1)
	}
	time.Sleep(r.delay)
	if atomic.LoadInt32(&r.closed) != 0 {
		atomic.AddInt64(&r.lateReads, 1)
	}
	return r.row, nil
}

func (r *slowReader) Close() error {
	atomic.StoreInt32(&r.closed, 1)
	return nil
}
