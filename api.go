package ifexists

// RowReader is an interface representing an ordered stream of rows coming
// from a tabular file, either the input file or the filter file.
type RowReader interface {
	// Header returns the header of the file, read once when the stream is
	// opened.
	Header() Header

	// Next returns the next row, or io.EOF at the end of the stream. Any
	// other error is considered fatal by the engine.
	//
	// Rows whose field count doesn't match the header may be returned; the
	// engine reports them as malformed and counts them against the error
	// budget of the file.
	Next() (Row, error)
}

// RowWriter is an interface representing the destination of the rows that
// pass the filter.
type RowWriter interface {
	// Write writes a single row.
	Write(Row) error

	// Close flushes any buffered data and releases the underlying stream.
	Close() error
}

// RunStats holds the counters of an engine run.
type RunStats struct {
	FilterRows   int64 // well-formed rows read from the filter file
	FilterKeys   int64 // distinct keys in the filter set
	FilterErrors int64 // malformed rows found in the filter file
	InputRows    int64 // well-formed rows read from the input file
	Passed       int64 // rows written to the output
	Rejected     int64 // rows discarded by the filter
	InputErrors  int64 // malformed rows found in the input file
}
