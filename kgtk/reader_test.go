package kgtk

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdRoll/ifexists"
)

func defaultOpts() ifexists.ReaderOptions {
	cfg := ifexists.NewConfig()
	return cfg.Input.Reader
}

func readAll(t *testing.T, r *Reader) []ifexists.Row {
	t.Helper()

	var rows []ifexists.Row
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestReaderHeaderAndRows(t *testing.T) {
	const data = "node1\tlabel\tnode2\n" +
		"Q1\tP31\tQ5\r\n" +
		"\n" +
		"# a comment\n" +
		"   \t \n" +
		"Q2\tP31\tQ6" // no trailing newline

	r, err := NewReader(strings.NewReader(data), ifexists.RoleInput, defaultOpts())
	require.NoError(t, err)

	h := r.Header()
	assert.Equal(t, []string{"node1", "label", "node2"}, h.Names())
	assert.Equal(t, ifexists.EdgeFile, h.Kind())

	rows := readAll(t, r)
	assert.Equal(t, []ifexists.Row{{"Q1", "P31", "Q5"}, {"Q2", "P31", "Q6"}}, rows)

	// Reading past the end keeps returning io.EOF.
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		mode string
	}{
		{name: "empty file", data: ""},
		{name: "duplicate column", data: "id\tname\tid\n"},
		{name: "empty column name", data: "id\t\tname\n"},
		{name: "edge mode without node2", data: "node1\tlabel\nQ1\tP1\n", mode: ifexists.ModeEdge},
		{name: "node mode without id", data: "name\tlabel\n", mode: ifexists.ModeNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOpts()
			if tt.mode != "" {
				opts.Mode = tt.mode
			}
			_, err := NewReader(strings.NewReader(tt.data), ifexists.RoleFilter, opts)
			require.Error(t, err)
			assert.Equal(t, ifexists.IOFailure, ifexists.KindOf(err))

			var ierr *ifexists.Error
			require.True(t, errors.As(err, &ierr))
			assert.Equal(t, ifexists.RoleFilter, ierr.Role)
		})
	}
}

func TestReaderModes(t *testing.T) {
	tests := []struct {
		mode   string
		header string
		want   ifexists.FileKind
	}{
		{ifexists.ModeAuto, "id\tname", ifexists.NodeFile},
		{ifexists.ModeAuto, "from\tpredicate\tto", ifexists.EdgeFile},
		{ifexists.ModeAuto, "a\tb", ifexists.QuasiFile},
		{ifexists.ModeEdge, "subject\trelation\tobject\tid", ifexists.EdgeFile},
		{ifexists.ModeNode, "node1\tid", ifexists.NodeFile},
		{ifexists.ModeNone, "id\tname", ifexists.QuasiFile},
	}
	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.header, func(t *testing.T) {
			opts := defaultOpts()
			opts.Mode = tt.mode
			r, err := NewReader(strings.NewReader(tt.header+"\n"), ifexists.RoleInput, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Header().Kind())
		})
	}
}

func TestReaderLineActions(t *testing.T) {
	const data = "id\tname\tlabel\n" +
		"Q1\tfoo\tbar\n" +
		"Q2\tshort\n" +
		"Q3\tlong\tline\textra\n" +
		"Q4\tbaz\tqux\n"

	tests := []struct {
		short, long string
		want        []ifexists.Row
		excluded    int64
	}{
		{
			short: ifexists.ActionComplain, long: ifexists.ActionComplain,
			want: []ifexists.Row{{"Q1", "foo", "bar"}, {"Q2", "short"}, {"Q3", "long", "line", "extra"}, {"Q4", "baz", "qux"}},
		},
		{
			short: ifexists.ActionPad, long: ifexists.ActionTruncate,
			want: []ifexists.Row{{"Q1", "foo", "bar"}, {"Q2", "short", ""}, {"Q3", "long", "line"}, {"Q4", "baz", "qux"}},
		},
		{
			short: ifexists.ActionExclude, long: ifexists.ActionExclude,
			want:     []ifexists.Row{{"Q1", "foo", "bar"}, {"Q4", "baz", "qux"}},
			excluded: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.short+"-"+tt.long, func(t *testing.T) {
			opts := defaultOpts()
			opts.ShortLineAction = tt.short
			opts.LongLineAction = tt.long

			r, err := NewReader(strings.NewReader(data), ifexists.RoleInput, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, readAll(t, r))
			assert.Equal(t, tt.excluded, r.Excluded())
		})
	}
}

func TestReaderColumnSeparator(t *testing.T) {
	opts := defaultOpts()
	opts.ColumnSeparator = ","

	r, err := NewReader(strings.NewReader("id,name\nQ1,foo\tbar\n"), ifexists.RoleInput, opts)
	require.NoError(t, err)
	assert.Equal(t, []ifexists.Row{{"Q1", "foo\tbar"}}, readAll(t, r))
}

func TestReaderReadError(t *testing.T) {
	broken := io.MultiReader(strings.NewReader("id\tname\nQ1\tfoo\n"), iotest.ErrReader(io.ErrUnexpectedEOF))
	r, err := NewReader(broken, ifexists.RoleInput, defaultOpts())
	require.NoError(t, err)

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, ifexists.Row{"Q1", "foo"}, row)

	_, err = r.Next()
	require.Error(t, err)
	assert.Equal(t, ifexists.IOFailure, ifexists.KindOf(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

type closeRecorder struct {
	name  string
	calls *[]string
}

func (c closeRecorder) Close() error {
	*c.calls = append(*c.calls, c.name)
	return nil
}

func TestReaderClose(t *testing.T) {
	var calls []string
	r, err := NewReader(strings.NewReader("id\n"), ifexists.RoleInput, defaultOpts(),
		closeRecorder{"decompressor", &calls}, closeRecorder{"file", &calls})
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, []string{"decompressor", "file"}, calls)
}
