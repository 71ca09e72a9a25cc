package store

import (
	"errors"
	"fmt"
)

// Numeric error codes reported by the store. The codes travel over the wire
// unchanged so clients can classify failures without string matching.
const (
	CodeNotCommitted           = 1020 // commit lost a conflict; retryable
	CodeTransactionCancelled   = 1025
	CodeTransactionTimedOut    = 1031
	CodeClientInvalidOperation = 2002 // e.g. reusing a finished transaction
	CodeInvalidOptionValue     = 2006
	CodeTransactionTooLarge    = 2101
)

// Common sentinel errors
var (
	ErrKeyNotFound          = errors.New("key not found")
	ErrNotCommitted         = errors.New("transaction not committed due to conflict")
	ErrTransactionCancelled = errors.New("transaction cancelled")
	ErrTransactionTimedOut  = errors.New("transaction timed out")
	ErrTransactionFinished  = errors.New("transaction already committed or cancelled")
	ErrTransactionTooLarge  = errors.New("transaction exceeds byte limit")
	ErrInvalidOptionValue   = errors.New("option value outside legal range")
	ErrStoreClosed          = errors.New("store is closed")
)

// StoreError provides structured error information for store operations.
type StoreError struct {
	Op    string // Operation that failed (e.g., "Commit", "Set")
	Code  int    // Store-defined numeric code
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %v (%d)", e.Op, e.Cause, e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *StoreError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func newError(op string, code int, cause error) error {
	return &StoreError{Op: op, Code: code, Cause: cause}
}

// FromCode reconstructs a StoreError from a numeric code, keyed back to the
// matching sentinel so errors.Is works the same on both sides of the wire.
func FromCode(op string, code int, msg string) error {
	var cause error
	switch code {
	case CodeNotCommitted:
		cause = ErrNotCommitted
	case CodeTransactionCancelled:
		cause = ErrTransactionCancelled
	case CodeTransactionTimedOut:
		cause = ErrTransactionTimedOut
	case CodeClientInvalidOperation:
		cause = ErrTransactionFinished
	case CodeInvalidOptionValue:
		cause = ErrInvalidOptionValue
	case CodeTransactionTooLarge:
		cause = ErrTransactionTooLarge
	default:
		cause = errors.New(msg)
	}
	return &StoreError{Op: op, Code: code, Cause: cause}
}

// CodeOf extracts the numeric store code from an error chain.
// Returns 0 when the chain contains no StoreError.
func CodeOf(err error) int {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Retryable reports whether the error indicates the transaction may succeed
// if simply retried against fresh state. Size-limit violations, timeouts and
// cancellations are permanent rejections.
func Retryable(err error) bool {
	return CodeOf(err) == CodeNotCommitted
}

// IsSizeLimit reports whether the error is a size-limit violation.
func IsSizeLimit(err error) bool {
	return CodeOf(err) == CodeTransactionTooLarge
}

// IsNotFound returns true if the error is a key not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}
