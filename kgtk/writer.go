package kgtk

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/AdRoll/ifexists"
)

const writerBufferSize = 256 * 1024

// Writer writes rows to a KGTK file, tab-separated. The header is written
// when the Writer is created, so that an empty output still has one.
//
// KGTK values can't hold tabs or line breaks, whatever the column separator
// of the file they were read from: Write rejects the rows having such values.
type Writer struct {
	w      *bufio.Writer
	closer func() error
	closed bool
}

// NewWriter creates a Writer writing to w and writes the header h. close, if
// not nil, is called by Close once all data has been flushed to w.
func NewWriter(w io.Writer, h ifexists.Header, close func() error) (*Writer, error) {
	kw := &Writer{
		w:      bufio.NewWriterSize(w, writerBufferSize),
		closer: close,
	}
	if _, err := kw.w.WriteString(strings.Join(h.Names(), "\t")); err != nil {
		return nil, err
	}
	if err := kw.w.WriteByte('\n'); err != nil {
		return nil, err
	}
	return kw, nil
}

// Write writes row as a line.
func (kw *Writer) Write(row ifexists.Row) error {
	if kw.closed {
		return fmt.Errorf("write on closed writer")
	}
	for i, f := range row {
		if strings.ContainsAny(f, "\t\n\r") {
			return fmt.Errorf("field %d (%q) contains a tab or a line break", i, f)
		}
	}
	for i, f := range row {
		if i > 0 {
			kw.w.WriteByte('\t')
		}
		kw.w.WriteString(f)
	}
	// bufio.Writer errors are sticky, checking the last one is enough.
	return kw.w.WriteByte('\n')
}

// Close flushes the buffered rows and closes the underlying stream. Close
// can be called more than once.
func (kw *Writer) Close() error {
	if kw.closed {
		return nil
	}
	kw.closed = true

	err := kw.w.Flush()
	if kw.closer != nil {
		if cerr := kw.closer(); err == nil {
			err = cerr
		}
	}
	return err
}
