package conformance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StepResult records one configure/act/assert unit of the scenario.
type StepResult struct {
	Name     string
	Expected string
	Actual   string
	Passed   bool
	Duration time.Duration
	Err      error // non-nil only for unexpected store errors
}

// Report is the outcome of a scenario run.
type Report struct {
	Endpoint string
	Steps    []StepResult
	Duration time.Duration
}

// Passed reports whether every executed step passed.
func (r *Report) Passed() bool {
	if len(r.Steps) == 0 {
		return false
	}
	for _, s := range r.Steps {
		if !s.Passed {
			return false
		}
	}
	return true
}

// String renders a human-readable summary, one line per step.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "conformance run against %s (%s)\n", r.Endpoint, r.Duration.Round(time.Millisecond))
	for _, s := range r.Steps {
		status := "PASS"
		if !s.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  %-4s %-35s expected=%s actual=%s\n", status, s.Name, s.Expected, s.Actual)
	}
	return b.String()
}

// AssertionError reports that a step's actual outcome did not match its
// expected outcome.
type AssertionError struct {
	Step     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed at step %q: expected %s, got %s", e.Step, e.Expected, e.Actual)
}

// IsAssertion reports whether the error is an AssertionError.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}
