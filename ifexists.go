/*
Package ifexists filters a tabular file based on whether one or more records
exist in a second tabular file with matching values for one or more fields.

For each row of the input file, a composite key is built from its key columns
and looked up in the set of the composite keys of the filter file. Rows whose
key is found (or, with Invert, is not found) are written to the output,
unchanged and in their original order. It's the moral equivalent of a SQL
semi-join (or anti-join), without the database.

The filter file is read completely, and its distinct keys are kept in memory,
before the first input row is processed. The input file is streamed.

The package doesn't include any file reader or writer: they're provided
through Components (see the kgtk package for KGTK/TSV files).
*/
package ifexists

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Main runs the filter described by cfg, opening and creating files with the
// functions provided in comp.
//
// The output is always closed, so the rows written before a fatal error are
// flushed to it.
func Main(cfg *Config, comp Components) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if comp.Open == nil || comp.Create == nil {
		return errors.New("components: Open and Create must be set")
	}

	ctxLog := log.WithField("run", uuid.New().String())
	ctxLog.WithField("c", cfg.String()).Info("configuration")

	m, err := cfg.Metrics.newMetricsClient()
	if err != nil {
		return err
	}
	if c, ok := m.(io.Closer); ok {
		defer c.Close()
	}

	input, err := open(comp.Open, cfg.Input, RoleInput)
	if err != nil {
		return err
	}
	defer input.Close()

	filter, err := open(comp.Open, cfg.Filter, RoleFilter)
	if err != nil {
		return err
	}
	defer filter.Close()

	ctxLog.WithFields(log.Fields{
		"input_kind":  input.Header().Kind().String(),
		"filter_kind": filter.Header().Kind().String(),
	}).Debug("headers read")

	// Don't create the output of a run doomed by its key configuration.
	ecfg := cfg.EngineConfig()
	if _, _, err := ResolveKeyPair(ecfg, input.Header(), filter.Header()); err != nil {
		return err
	}

	out, err := comp.Create(cfg.Output.Path, input.Header(), cfg.Output)
	if err != nil {
		if KindOf(err) == UnknownKind {
			err = ioFailure(RoleOutput, fmt.Sprintf("can't create %q", cfg.Output.Path), err)
		}
		return err
	}

	e, err := NewEngine(EngineParams{
		Config:  ecfg,
		Input:   input,
		Filter:  filter,
		Output:  out,
		Metrics: m,
	})
	if err != nil {
		out.Close()
		return err
	}

	stop := NewStatsDumper(e, m, time.Duration(cfg.General.ReportEvery), ctxLog).Run()
	runErr := e.Run()
	closeErr := out.Close()
	stop()

	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return ioFailure(RoleOutput, "can't close output", closeErr)
	}
	return nil
}

func open(fn OpenFunc, cfg ConfigFile, role Role) (RowReadCloser, error) {
	r, err := fn(cfg.Path, role, cfg.Reader)
	if err != nil {
		if KindOf(err) == UnknownKind {
			err = ioFailure(role, fmt.Sprintf("can't open %q", cfg.Path), err)
		}
		return nil, err
	}
	return r, nil
}
