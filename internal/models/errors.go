package models

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteState indicates a stage tried to read a field before any
	// upstream stage populated it. Always an ordering bug, never retried.
	ErrIncompleteState = errors.New("analysis state field not yet populated")

	// ErrFieldAlreadySet indicates a second write to a write-once field.
	ErrFieldAlreadySet = errors.New("analysis state field already populated")
)

// TransientError wraps failures worth retrying at the call site:
// rate limits, network timeouts, flaky upstreams.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: transient: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError wraps failures no retry will fix: bad credentials,
// malformed requests, unsupported symbols.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("%s: permanent: %v", e.Op, e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError.
func Transient(op string, err error) error { return &TransientError{Op: op, Err: err} }

// Permanent wraps err as a PermanentError.
func Permanent(op string, err error) error { return &PermanentError{Op: op, Err: err} }

// IsTransient reports whether err is or wraps a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is or wraps a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
