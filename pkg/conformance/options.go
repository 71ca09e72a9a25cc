package conformance

import (
	"errors"
	"fmt"
)

// ExistingKeyPolicy decides what happens when the scenario keys are already
// present in the target store from a prior run.
type ExistingKeyPolicy string

const (
	// ExistingKeysFail aborts the run; the store is not in a known state.
	ExistingKeysFail ExistingKeyPolicy = "fail"
	// ExistingKeysOverwrite clears the scenario keys before running.
	ExistingKeysOverwrite ExistingKeyPolicy = "overwrite"
)

// ErrKeysPresent aborts a run under the fail policy.
var ErrKeysPresent = errors.New("scenario keys already present in target store")

// Options configures a scenario run. The defaults are the canonical
// scenario values: a 1024-byte value against a 1000-byte limit, under a
// 2 second transaction timeout and 3 automatic retries.
type Options struct {
	// Connection-wide options applied before the first step
	TransactionTimeoutMS int64
	RetryLimit           int64

	// ValueSize is the size of the test value written in every step
	ValueSize int

	// DatabaseLimit is the connection-wide limit that must reject the value
	DatabaseLimit int64

	// GenerousLimit is the connection-wide limit set in the override step,
	// large enough to never trigger
	GenerousLimit int64

	// TransactionLimit is the transaction-scoped limit that must win over
	// GenerousLimit
	TransactionLimit int64

	ExistingKeys ExistingKeyPolicy
}

// DefaultOptions returns the canonical scenario configuration.
func DefaultOptions() Options {
	return Options{
		TransactionTimeoutMS: 2000,
		RetryLimit:           3,
		ValueSize:            1024,
		DatabaseLimit:        1000,
		GenerousLimit:        1_000_000,
		TransactionLimit:     1000,
		ExistingKeys:         ExistingKeysFail,
	}
}

// Validate checks that the options describe a runnable scenario.
func (o *Options) Validate() error {
	if o.ValueSize <= 0 {
		return fmt.Errorf("value size must be positive, got %d", o.ValueSize)
	}
	if o.DatabaseLimit >= int64(o.ValueSize) {
		return fmt.Errorf("database limit %d must be below value size %d to trigger rejection", o.DatabaseLimit, o.ValueSize)
	}
	if o.TransactionLimit >= o.GenerousLimit {
		return fmt.Errorf("transaction limit %d must be below the generous limit %d to prove override precedence", o.TransactionLimit, o.GenerousLimit)
	}
	if o.RetryLimit < 0 {
		return fmt.Errorf("retry limit must not be negative, got %d", o.RetryLimit)
	}
	switch o.ExistingKeys {
	case ExistingKeysFail, ExistingKeysOverwrite:
	default:
		return fmt.Errorf("unknown existing-key policy %q", o.ExistingKeys)
	}
	return nil
}
