package ifexists

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the errors returned by the engine and its components.
type ErrorKind int

const (
	// UnknownKind is returned by KindOf for errors not produced by this package.
	UnknownKind ErrorKind = iota

	// Configuration-time errors, reported before any row is read.
	MissingKeyConfiguration
	UnknownColumn
	DuplicateKeyColumn
	KeyCountMismatch

	// MalformedRow is a per-row error, counted against the error budget of
	// the file it comes from.
	MalformedRow

	// Budget errors, fatal.
	TooManyInputErrors
	TooManyFilterErrors

	// IOFailure wraps errors from readers, writers and the underlying streams.
	IOFailure
)

var kindNames = map[ErrorKind]string{
	UnknownKind:             "UnknownKind",
	MissingKeyConfiguration: "MissingKeyConfiguration",
	UnknownColumn:           "UnknownColumn",
	DuplicateKeyColumn:      "DuplicateKeyColumn",
	KeyCountMismatch:        "KeyCountMismatch",
	MalformedRow:            "MalformedRow",
	TooManyInputErrors:      "TooManyInputErrors",
	TooManyFilterErrors:     "TooManyFilterErrors",
	IOFailure:               "IOFailure",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Configuration reports whether k is a configuration-time error.
func (k ErrorKind) Configuration() bool {
	switch k {
	case MissingKeyConfiguration, UnknownColumn, DuplicateKeyColumn, KeyCountMismatch:
		return true
	}
	return false
}

// Fatal reports whether an error of kind k aborts the run.
func (k ErrorKind) Fatal() bool {
	return k != MalformedRow
}

// Error is the error type returned by this package.
type Error struct {
	Kind ErrorKind
	Role Role   // file the error refers to, if any
	Line int64  // 1-based row (or line) number, for row errors
	Msg  string // human readable description
	Err  error  // wrapped error, if any
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Line, msg)
	}
	if e.Role != "" {
		msg = fmt.Sprintf("%s file: %s", e.Role, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is to match any *Error having the same Kind as target, when
// target is a *Error with no other field set.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Role == "" && t.Msg == "" && t.Err == nil && t.Line == 0
}

// Sentinel values to be used with errors.Is.
var (
	ErrMissingKeyConfiguration = &Error{Kind: MissingKeyConfiguration}
	ErrUnknownColumn           = &Error{Kind: UnknownColumn}
	ErrDuplicateKeyColumn      = &Error{Kind: DuplicateKeyColumn}
	ErrKeyCountMismatch        = &Error{Kind: KeyCountMismatch}
	ErrMalformedRow            = &Error{Kind: MalformedRow}
	ErrTooManyInputErrors      = &Error{Kind: TooManyInputErrors}
	ErrTooManyFilterErrors     = &Error{Kind: TooManyFilterErrors}
	ErrIOFailure               = &Error{Kind: IOFailure}
)

// KindOf returns the kind of err, or UnknownKind if err doesn't wrap an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownKind
}

func ioFailure(role Role, what string, err error) *Error {
	return &Error{Kind: IOFailure, Role: role, Msg: what, Err: err}
}
