package kgtk

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/AdRoll/ifexists"
)

// Reader reads the rows of a KGTK file. The first line of the file is the
// header; blank lines, lines made of whitespaces and comment lines (starting
// with #) are skipped.
//
// Lines having a number of fields different from the header are handled
// according to the ShortLineAction and LongLineAction reader options: when
// the action is "complain", the row is returned as is and it's up to the
// engine to report it.
type Reader struct {
	role   ifexists.Role
	opts   ifexists.ReaderOptions
	header ifexists.Header
	sep    string

	br      *bufio.Reader
	closers []io.Closer
	line    int64 // physical line number, header included
	eof     bool

	excluded int64
}

// NewReader creates a Reader reading the KGTK stream r, and reads its header.
// opts should have been validated (see ifexists.Config.Validate). The
// closers are closed, in order, by Close.
func NewReader(r io.Reader, role ifexists.Role, opts ifexists.ReaderOptions, closers ...io.Closer) (*Reader, error) {
	kr := &Reader{
		role:    role,
		opts:    opts,
		sep:     string(opts.Separator()),
		br:      bufio.NewReaderSize(r, 64*1024),
		closers: closers,
	}

	line, err := kr.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("missing header line")
		}
		return nil, kr.ioError("can't read header", err)
	}

	h, err := ifexists.NewHeader(strings.Split(line, kr.sep))
	if err != nil {
		return nil, kr.ioError("invalid header", err)
	}
	if h, err = applyMode(h, opts.Mode); err != nil {
		return nil, kr.ioError("invalid header", err)
	}
	kr.header = h

	log.WithFields(log.Fields{
		"role":    role,
		"columns": h.Len(),
		"kind":    h.Kind().String(),
	}).Debug("header read")
	return kr, nil
}

// applyMode checks h against the reader mode and forces its kind accordingly.
func applyMode(h ifexists.Header, mode string) (ifexists.Header, error) {
	switch mode {
	case ifexists.ModeEdge:
		for _, col := range []string{ifexists.ColumnNode1, ifexists.ColumnLabel, ifexists.ColumnNode2} {
			if _, ok := h.Conventional(col); !ok {
				return h, fmt.Errorf("missing %s column in edge file", col)
			}
		}
		return h.WithKind(ifexists.EdgeFile), nil
	case ifexists.ModeNode:
		if _, ok := h.Conventional(ifexists.ColumnID); !ok {
			return h, fmt.Errorf("missing %s column in node file", ifexists.ColumnID)
		}
		return h.WithKind(ifexists.NodeFile), nil
	case ifexists.ModeNone:
		return h.WithKind(ifexists.QuasiFile), nil
	}
	return h, nil
}

func (r *Reader) ioError(msg string, err error) error {
	return &ifexists.Error{Kind: ifexists.IOFailure, Role: r.role, Line: r.line, Msg: msg, Err: err}
}

// readLine returns the next physical line, without its line terminator.
func (r *Reader) readLine() (string, error) {
	if r.eof {
		return "", io.EOF
	}
	line, err := r.br.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		r.eof = true
		if line == "" {
			return "", io.EOF
		}
	}
	r.line++
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// Header returns the header of the file.
func (r *Reader) Header() ifexists.Header { return r.header }

// Next returns the next row, or io.EOF at the end of the file.
func (r *Reader) Next() (ifexists.Row, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, r.ioError("can't read line", err)
		}
		if skipLine(line) {
			continue
		}

		row := ifexists.Row(strings.Split(line, r.sep))
		row, ok := r.fit(row)
		if !ok {
			r.excluded++
			log.WithFields(log.Fields{"role": r.role, "line": r.line, "fields": len(row)}).Debug("line excluded")
			continue
		}
		return row, nil
	}
}

// skipLine reports whether line is blank, only made of whitespaces, or a
// comment.
func skipLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || trimmed[0] == '#'
}

// fit applies the short and long line actions to row. It returns false if
// the row must be excluded.
func (r *Reader) fit(row ifexists.Row) (ifexists.Row, bool) {
	ncols := r.header.Len()
	switch {
	case len(row) < ncols:
		switch r.opts.ShortLineAction {
		case ifexists.ActionExclude:
			return row, false
		case ifexists.ActionPad:
			padded := make(ifexists.Row, ncols)
			copy(padded, row)
			return padded, true
		}
	case len(row) > ncols:
		switch r.opts.LongLineAction {
		case ifexists.ActionExclude:
			return row, false
		case ifexists.ActionTruncate:
			return row[:ncols], true
		}
	}
	return row, true
}

// Excluded returns the number of lines excluded so far because of their
// number of fields.
func (r *Reader) Excluded() int64 { return r.excluded }

// Close closes the underlying stream.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}
