// Package conformance drives a target store through a fixed size-limit
// scenario and asserts expected pass/fail outcomes: a compliant write must
// round-trip intact, an oversized write must be rejected with the store's
// size-limit code at both connection and transaction scope, and the
// transaction-scoped limit must take precedence over the connection-wide
// default.
package conformance

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dd0wney/kvconform/pkg/client"
	"github.com/dd0wney/kvconform/pkg/logging"
	"github.com/dd0wney/kvconform/pkg/metrics"
	"github.com/dd0wney/kvconform/pkg/store"
)

// Scenario step names, also used as metrics labels.
const (
	StepRoundtrip     = "roundtrip-under-default-limit"
	StepDatabaseLimit = "database-limit-rejects"
	StepTxnOverride   = "transaction-limit-overrides"
)

// The fixed scenario keys.
var scenarioKeys = [][]byte{[]byte("t1"), []byte("t2"), []byte("t3")}

// Checker verifies size-limit semantics of the store behind a Database.
type Checker struct {
	db      *client.Database
	opts    Options
	logger  logging.Logger
	metrics *metrics.Registry
}

// New creates a checker for the given database handle.
func New(db *client.Database, opts Options) (*Checker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Checker{
		db:      db,
		opts:    opts,
		logger:  logging.With(logging.Component("conformance")),
		metrics: metrics.DefaultRegistry(),
	}, nil
}

// SetLogger replaces the checker's logger.
func (c *Checker) SetLogger(logger logging.Logger) {
	c.logger = logger
}

// Run executes the fixed scenario. The returned report covers every step
// that ran. A non-nil error means the run did not fully pass: an
// AssertionError when a step's outcome mismatched, ErrKeysPresent when the
// store was dirty under the fail policy, or the underlying store error when
// a step failed in an unexpected way.
func (c *Checker) Run() (*Report, error) {
	start := time.Now()
	report := &Report{Endpoint: c.db.Endpoint()}

	err := c.run(report)
	report.Duration = time.Since(start)

	if err != nil {
		c.metrics.RecordScenarioRun("fail")
		c.logger.Error("scenario failed", logging.Error(err), logging.Latency(report.Duration))
	} else {
		c.metrics.RecordScenarioRun("pass")
		c.logger.Info("scenario passed",
			logging.Count(len(report.Steps)),
			logging.Latency(report.Duration),
		)
	}
	return report, err
}

func (c *Checker) run(report *Report) error {
	if err := c.applyConnectionOptions(); err != nil {
		return err
	}
	if err := c.prepareKeys(); err != nil {
		return err
	}

	value := bytes.Repeat([]byte{'a'}, c.opts.ValueSize)

	steps := []struct {
		name string
		fn   func([]byte) StepResult
	}{
		{StepRoundtrip, c.stepRoundtrip},
		{StepDatabaseLimit, c.stepDatabaseLimit},
		{StepTxnOverride, c.stepTxnOverride},
	}

	for _, s := range steps {
		result := s.fn(value)
		report.Steps = append(report.Steps, result)
		c.metrics.RecordScenarioStep(result.Name, outcomeLabel(result), result.Duration)
		c.logger.Info("step finished",
			logging.Step(result.Name),
			logging.Bool("passed", result.Passed),
			logging.Latency(result.Duration),
		)

		if !result.Passed {
			if result.Err != nil {
				return result.Err
			}
			return &AssertionError{Step: result.Name, Expected: result.Expected, Actual: result.Actual}
		}
	}
	return nil
}

func outcomeLabel(r StepResult) string {
	if r.Passed {
		return "pass"
	}
	return "fail"
}

// applyConnectionOptions configures the timeout and retry limit the
// scenario runs under.
func (c *Checker) applyConnectionOptions() error {
	if err := c.db.SetOption(client.OptionTransactionTimeoutMS, c.opts.TransactionTimeoutMS); err != nil {
		return err
	}
	return c.db.SetOption(client.OptionTransactionRetryLimit, c.opts.RetryLimit)
}

// prepareKeys enforces the existing-key policy before any step runs.
func (c *Checker) prepareKeys() error {
	var present [][]byte
	for _, key := range scenarioKeys {
		_, err := c.db.Get(key)
		switch {
		case err == nil:
			present = append(present, key)
		case store.IsNotFound(err):
			// clean
		default:
			return err
		}
	}
	if len(present) == 0 {
		return nil
	}

	if c.opts.ExistingKeys == ExistingKeysFail {
		return fmt.Errorf("%w: %d of %d keys found", ErrKeysPresent, len(present), len(scenarioKeys))
	}

	c.logger.Warn("clearing scenario keys from prior run", logging.Count(len(present)))
	return c.db.Transact(func(txn *client.Transaction) error {
		for _, key := range present {
			if err := txn.Clear(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// stepRoundtrip writes t1 under the default limit and verifies the read
// returns the identical bytes.
func (c *Checker) stepRoundtrip(value []byte) StepResult {
	result := StepResult{Name: StepRoundtrip, Expected: "write succeeds and value round-trips"}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	key := scenarioKeys[0]
	if err := c.db.Set(key, value); err != nil {
		result.Actual = fmt.Sprintf("write failed: %v", err)
		result.Err = err
		return result
	}

	got, err := c.db.Get(key)
	if err != nil {
		result.Actual = fmt.Sprintf("read failed: %v", err)
		result.Err = err
		return result
	}
	if !bytes.Equal(got, value) {
		result.Actual = fmt.Sprintf("read returned %d bytes, wrote %d", len(got), len(value))
		return result
	}

	result.Actual = result.Expected
	result.Passed = true
	return result
}

// stepDatabaseLimit lowers the connection-wide limit below the value size
// and verifies the write is rejected with the size-limit code and left no
// partial mutation behind.
func (c *Checker) stepDatabaseLimit(value []byte) StepResult {
	result := StepResult{
		Name:     StepDatabaseLimit,
		Expected: fmt.Sprintf("write rejected with code %d", store.CodeTransactionTooLarge),
	}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	if err := c.db.SetOption(client.OptionTransactionSizeLimitBytes, c.opts.DatabaseLimit); err != nil {
		result.Actual = fmt.Sprintf("option failed: %v", err)
		result.Err = err
		return result
	}

	key := scenarioKeys[1]
	return c.expectSizeLimitRejection(result, key, value)
}

// stepTxnOverride raises the connection-wide limit to a permissive value,
// then sets a transaction-scoped limit below the value size. The rejection
// proves the transaction option takes precedence.
func (c *Checker) stepTxnOverride(value []byte) StepResult {
	result := StepResult{
		Name:     StepTxnOverride,
		Expected: fmt.Sprintf("write rejected with code %d", store.CodeTransactionTooLarge),
	}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	if err := c.db.SetOption(client.OptionTransactionSizeLimitBytes, c.opts.GenerousLimit); err != nil {
		result.Actual = fmt.Sprintf("option failed: %v", err)
		result.Err = err
		return result
	}

	key := scenarioKeys[2]
	err := c.db.Transact(func(txn *client.Transaction) error {
		if err := txn.SetOption(client.OptionTransactionSizeLimitBytes, c.opts.TransactionLimit); err != nil {
			return err
		}
		return txn.Set(key, value)
	})
	return c.judgeRejection(result, key, err)
}

// expectSizeLimitRejection performs the write and judges the outcome.
func (c *Checker) expectSizeLimitRejection(result StepResult, key, value []byte) StepResult {
	err := c.db.Set(key, value)
	return c.judgeRejection(result, key, err)
}

// judgeRejection passes the step only when the write failed with the
// size-limit code and the key remained unwritten.
func (c *Checker) judgeRejection(result StepResult, key []byte, err error) StepResult {
	if err == nil {
		result.Actual = "write unexpectedly succeeded"
		return result
	}
	if code := store.CodeOf(err); code != store.CodeTransactionTooLarge {
		result.Actual = fmt.Sprintf("write failed with unexpected error: %v", err)
		result.Err = err
		return result
	}

	// The rejected transaction must leave nothing behind.
	if _, getErr := c.db.Get(key); !store.IsNotFound(getErr) {
		if getErr != nil {
			result.Actual = fmt.Sprintf("post-rejection read failed: %v", getErr)
			result.Err = getErr
			return result
		}
		result.Actual = "rejected write left a partial mutation visible"
		return result
	}

	result.Actual = result.Expected
	result.Passed = true
	return result
}
