package ifexists

import (
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// An ErrorBudget counts the recoverable errors found in one file and turns
// them into a fatal error once the configured limit is reached.
type ErrorBudget struct {
	// atomically-accessed, keep on top for 64-bit alignment.
	count int64

	role  Role
	limit int
}

// NewErrorBudget returns the error budget of the file with the given role.
// With limit > 0, the limit-th reported error is fatal. A limit of 0 disables
// the budget.
func NewErrorBudget(role Role, limit int) *ErrorBudget {
	return &ErrorBudget{role: role, limit: limit}
}

// Report records rowErr. It returns nil if the budget isn't exhausted yet, in
// which case the row can be skipped and processing can go on, or a fatal
// TooManyInputErrors/TooManyFilterErrors error otherwise.
func (b *ErrorBudget) Report(rowErr *Error) error {
	n := atomic.AddInt64(&b.count, 1)

	log.WithFields(log.Fields{"role": b.role, "line": rowErr.Line, "errors": n}).Warn(rowErr.Msg)

	if b.limit <= 0 || n < int64(b.limit) {
		return nil
	}

	kind := TooManyInputErrors
	if b.role == RoleFilter {
		kind = TooManyFilterErrors
	}
	return &Error{
		Kind: kind,
		Role: b.role,
		Msg:  fmt.Sprintf("too many data errors (limit is %d)", b.limit),
		Err:  rowErr,
	}
}

// Count returns the number of errors reported so far.
func (b *ErrorBudget) Count() int64 {
	return atomic.LoadInt64(&b.count)
}
