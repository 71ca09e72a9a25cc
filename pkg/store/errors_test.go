package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestStoreError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *StoreError
		expected string
	}{
		{
			name: "with code",
			err: &StoreError{
				Op:    "Commit",
				Code:  CodeTransactionTooLarge,
				Cause: ErrTransactionTooLarge,
			},
			expected: "Commit: transaction exceeds byte limit (2101)",
		},
		{
			name: "without code",
			err: &StoreError{
				Op:    "Get",
				Cause: ErrKeyNotFound,
			},
			expected: "Get: key not found",
		},
		{
			name: "wrapped cause",
			err: &StoreError{
				Op:    "Begin",
				Cause: fmt.Errorf("socket: %w", ErrStoreClosed),
			},
			expected: "Begin: socket: store is closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStoreError_Is(t *testing.T) {
	err := newError("Commit", CodeTransactionTooLarge, ErrTransactionTooLarge)

	if !errors.Is(err, ErrTransactionTooLarge) {
		t.Error("expected errors.Is to match the sentinel cause")
	}
	if errors.Is(err, ErrNotCommitted) {
		t.Error("expected errors.Is not to match an unrelated sentinel")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), 0},
		{"store error", newError("Commit", CodeNotCommitted, ErrNotCommitted), CodeNotCommitted},
		{"wrapped store error", fmt.Errorf("transact: %w", newError("Commit", CodeTransactionTooLarge, ErrTransactionTooLarge)), CodeTransactionTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.expected {
				t.Errorf("CodeOf() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(newError("Commit", CodeNotCommitted, ErrNotCommitted)) {
		t.Error("conflict should be retryable")
	}
	if Retryable(newError("Commit", CodeTransactionTooLarge, ErrTransactionTooLarge)) {
		t.Error("size limit violation must not be retryable")
	}
	if Retryable(newError("Set", CodeTransactionTimedOut, ErrTransactionTimedOut)) {
		t.Error("timeout must not be retryable")
	}
}

func TestFromCode_RoundTripsSentinels(t *testing.T) {
	tests := []struct {
		code     int
		sentinel error
	}{
		{CodeNotCommitted, ErrNotCommitted},
		{CodeTransactionCancelled, ErrTransactionCancelled},
		{CodeTransactionTimedOut, ErrTransactionTimedOut},
		{CodeClientInvalidOperation, ErrTransactionFinished},
		{CodeInvalidOptionValue, ErrInvalidOptionValue},
		{CodeTransactionTooLarge, ErrTransactionTooLarge},
	}

	for _, tt := range tests {
		err := FromCode("Commit", tt.code, "remote message")
		if CodeOf(err) != tt.code {
			t.Errorf("FromCode(%d): CodeOf = %d", tt.code, CodeOf(err))
		}
		if !errors.Is(err, tt.sentinel) {
			t.Errorf("FromCode(%d): lost sentinel identity", tt.code)
		}
	}

	// Unknown codes keep the remote message
	err := FromCode("Commit", 9999, "mystery failure")
	if CodeOf(err) != 9999 {
		t.Errorf("unknown code lost: %d", CodeOf(err))
	}
}
