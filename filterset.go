package ifexists

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// FilterSet is the set of distinct composite keys found in the filter file.
//
// Once returned by BuildFilterSet, a FilterSet is never modified and is safe
// for concurrent use.
type FilterSet struct {
	keys map[string]struct{}
}

// Contains reports whether key is in the set.
func (fs *FilterSet) Contains(key string) bool {
	_, ok := fs.keys[key]
	return ok
}

// Len returns the number of distinct keys in the set.
func (fs *FilterSet) Len() int { return len(fs.keys) }

// BuildConfig holds the parameters of the filter set construction.
type BuildConfig struct {
	Keys      KeyColumns   // key columns of the filter file
	Separator string       // separator for multi-column keys
	Budget    *ErrorBudget // error budget of the filter file
}

// buildCounters are updated during the build, so that they can be read
// concurrently by a StatsDumper.
type buildCounters struct {
	rows int64
	keys int64
}

// BuildFilterSet consumes r until the end of the stream and returns the set
// of the composite keys of its rows.
//
// Rows whose field count differs from the header are reported to the error
// budget and skipped; BuildFilterSet fails with TooManyFilterErrors once the
// budget is exhausted. Errors returned by r are wrapped as IOFailure.
func BuildFilterSet(r RowReader, cfg BuildConfig) (*FilterSet, error) {
	return buildFilterSet(r, cfg, &buildCounters{})
}

func buildFilterSet(r RowReader, cfg BuildConfig, cnt *buildCounters) (*FilterSet, error) {
	if cfg.Budget == nil {
		cfg.Budget = NewErrorBudget(RoleFilter, 0)
	}

	ncols := r.Header().Len()
	keys := make(map[string]struct{})

	var line int64
	for {
		row, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, ioFailure(RoleFilter, "can't read row", err)
		}
		line++

		if len(row) != ncols {
			rowErr := &Error{
				Kind: MalformedRow,
				Role: RoleFilter,
				Line: line,
				Msg:  fmt.Sprintf("expected %d fields, got %d", ncols, len(row)),
			}
			if err := cfg.Budget.Report(rowErr); err != nil {
				return nil, err
			}
			continue
		}

		keys[cfg.Keys.Key(row, cfg.Separator)] = struct{}{}
		atomic.AddInt64(&cnt.rows, 1)
		atomic.StoreInt64(&cnt.keys, int64(len(keys)))
	}

	log.WithFields(log.Fields{"rows": atomic.LoadInt64(&cnt.rows), "unique": len(keys)}).Info("filter set built")
	return &FilterSet{keys: keys}, nil
}
