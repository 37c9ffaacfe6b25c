package ifexists

// RowReadCloser is a RowReader owning an underlying stream, released by Close.
type RowReadCloser interface {
	RowReader
	Close() error
}

// OpenFunc opens the tabular file at path for the given role and reads its
// header. "-" (or an empty path) means standard input.
type OpenFunc func(path string, role Role, opts ReaderOptions) (RowReadCloser, error)

// CreateFunc creates the output file at path and writes the header h to it.
// "-" (or an empty path) means standard output.
type CreateFunc func(path string, h Header, cfg ConfigOutput) (RowWriter, error)

// Components holds the implementations of the external collaborators of the
// engine: how to read tabular files, how to write them, and the available
// metrics backends.
type Components struct {
	Open    OpenFunc      // opens the input and the filter files
	Create  CreateFunc    // creates the output file
	Metrics []MetricsDesc // list of available metrics clients
}

// MetricsDesc describes a Metrics interface.
type MetricsDesc struct {
	Name   string                                   // Name of the metrics interface
	Config interface{}                              // Config is the metrics client specific configuration
	New    func(interface{}) (MetricsClient, error) // Constructor
}
