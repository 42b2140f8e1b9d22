package sqlgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/sqlgo/orchestrator"
	"github.com/hupe1980/sqlgo/registry"
	"github.com/hupe1980/sqlgo/store"
)

var (
	// ErrEmptyQuery is returned when a query is empty or whitespace.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrInvalidMax is returned when maxExamples is not positive.
	ErrInvalidMax = errors.New("max examples must be positive")

	// ErrNoExamples is returned by First when the selection comes back
	// empty, which for a non-empty corpus only happens when MinSimilarity
	// filters every candidate out.
	ErrNoExamples = errors.New("no examples matched")

	// ErrUnknownExample is returned when an example id is not in the
	// corpus.
	ErrUnknownExample = errors.New("unknown example id")

	// ErrEmptyCorpus is returned by Open when no corpus record at all
	// survives validation.
	ErrEmptyCorpus = errors.New("corpus contains no valid examples")

	// ErrNoEligibleBackend is returned when no configured backend
	// supports the requested dialect. This is a configuration error and
	// is surfaced immediately, without retry.
	ErrNoEligibleBackend = errors.New("no eligible backend")

	// ErrRetryBudgetExhausted is returned when every fallback attempt
	// failed. Use errors.As with *orchestrator.RetryBudgetError for the
	// attempted backend ids and the final cause.
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

	// ErrEnsembleFailed is returned when every ensemble backend failed.
	// Use errors.As with *orchestrator.EnsembleError for details.
	ErrEnsembleFailed = errors.New("all ensemble backends failed")

	// ErrUnknownSample is returned when a performance sample id is not
	// buffered, typically because the ring has since evicted it.
	ErrUnknownSample = errors.New("unknown sample id")

	// ErrNoInvoker is returned by generation calls when no Invoker was
	// configured.
	ErrNoInvoker = errors.New("no invoker configured")

	// ErrNoValidator is returned by generation calls when no Validator
	// was configured.
	ErrNoValidator = errors.New("no validator configured")
)

// translateError maps subpackage sentinels onto the public contract, so
// callers match with errors.Is against this package's errors and reach
// for errors.As only when they need attempt-level detail.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, store.ErrUnknownExample) {
		return fmt.Errorf("%w: %w", ErrUnknownExample, err)
	}
	if errors.Is(err, store.ErrEmptyCorpus) {
		return fmt.Errorf("%w: %w", ErrEmptyCorpus, err)
	}
	if errors.Is(err, registry.ErrNoEligibleModel) {
		return fmt.Errorf("%w: %w", ErrNoEligibleBackend, err)
	}
	if errors.Is(err, registry.ErrUnknownSample) {
		return fmt.Errorf("%w: %w", ErrUnknownSample, err)
	}

	var rbe *orchestrator.RetryBudgetError
	if errors.As(err, &rbe) {
		return fmt.Errorf("%w: %w", ErrRetryBudgetExhausted, err)
	}
	var ee *orchestrator.EnsembleError
	if errors.As(err, &ee) {
		return fmt.Errorf("%w: %w", ErrEnsembleFailed, err)
	}

	return err
}
