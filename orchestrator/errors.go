package orchestrator

import (
	"fmt"
	"strings"
)

// InvocationError reports a backend call that failed before producing
// usable SQL. It covers invoker errors and validator transport errors.
type InvocationError struct {
	ModelID string
	Err     error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("model %s invocation failed: %v", e.ModelID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// ValidationError reports generated SQL that the validator rejected with
// syntax errors. Warnings never produce this error.
type ValidationError struct {
	ModelID      string
	SyntaxErrors []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("model %s produced invalid sql: %s", e.ModelID, strings.Join(e.SyntaxErrors, "; "))
}

// RetryBudgetError reports an exhausted fallback loop. Tried holds the
// backend ids in attempt order; Last is the final attempt's error.
type RetryBudgetError struct {
	Attempts int
	Tried    []string
	Last     error
}

// Error implements the error interface.
func (e *RetryBudgetError) Error() string {
	return fmt.Sprintf("retry budget exhausted after %d attempts (tried %s): %v",
		e.Attempts, strings.Join(e.Tried, ", "), e.Last)
}

// Unwrap returns the final attempt's error.
func (e *RetryBudgetError) Unwrap() error {
	return e.Last
}

// EnsembleError reports an ensemble in which every slot failed.
type EnsembleError struct {
	Tried []string
	Last  error
}

// Error implements the error interface.
func (e *EnsembleError) Error() string {
	return fmt.Sprintf("all ensemble backends failed (tried %s): %v",
		strings.Join(e.Tried, ", "), e.Last)
}

// Unwrap returns the last slot error in selection order.
func (e *EnsembleError) Unwrap() error {
	return e.Last
}
