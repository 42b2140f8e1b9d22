// Package orchestrator drives SQL generation across the configured
// backends. Generate runs a sequential fallback loop that excludes every
// backend it has tried; GenerateEnsemble fans out to the top backends
// concurrently and reconciles their outputs into a consensus result.
//
// Every attempt, successful or not, is recorded as a performance sample
// so backend scores track reality.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/sqlgo/journal"
	"github.com/hupe1980/sqlgo/model"
	"github.com/hupe1980/sqlgo/registry"
	"github.com/hupe1980/sqlgo/resource"
)

const (
	// DefaultRetryBudget caps fallback attempts per Generate call.
	DefaultRetryBudget = 3

	// DefaultEnsembleSize is how many backends an ensemble fans out to.
	DefaultEnsembleSize = 3

	// DefaultCallTimeout bounds one backend invocation.
	DefaultCallTimeout = 30 * time.Second
)

// Invoker turns a generation context into SQL using a concrete backend.
// Implementations talk to whatever serves the model (an HTTP API, a local
// process) and must honor ctx cancellation.
type Invoker interface {
	Invoke(ctx context.Context, desc model.ModelDescriptor, gc model.GenerationContext) (model.ModelResponse, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, desc model.ModelDescriptor, gc model.GenerationContext) (model.ModelResponse, error)

// Invoke calls f(ctx, desc, gc).
func (f InvokerFunc) Invoke(ctx context.Context, desc model.ModelDescriptor, gc model.GenerationContext) (model.ModelResponse, error) {
	return f(ctx, desc, gc)
}

// Validator checks generated SQL against the schema before it reaches the
// caller. Syntax errors disqualify a statement; warnings are attached to
// the result and tolerated.
type Validator interface {
	Validate(ctx context.Context, sql string, schema model.SchemaDescription) (model.ValidationResult, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, sql string, schema model.SchemaDescription) (model.ValidationResult, error)

// Validate calls f(ctx, sql, schema).
func (f ValidatorFunc) Validate(ctx context.Context, sql string, schema model.SchemaDescription) (model.ValidationResult, error) {
	return f(ctx, sql, schema)
}

// Compile-time checks.
var (
	_ Invoker   = (InvokerFunc)(nil)
	_ Validator = (ValidatorFunc)(nil)
)

// Options contains configuration for the orchestrator.
type Options struct {
	// RetryBudget caps fallback attempts per Generate call.
	RetryBudget int

	// EnsembleSize is how many backends GenerateEnsemble fans out to.
	EnsembleSize int

	// CallTimeout bounds a single backend invocation, including its
	// validation. It also bounds ensemble latency, since every slot runs
	// under it.
	CallTimeout time.Duration

	// Controller guards invocation concurrency and rate. Nil admits
	// everything.
	Controller *resource.Controller

	// Journal receives every recorded sample, best-effort. Nil disables
	// journaling.
	Journal journal.Sink

	// Logger receives attempt-level events.
	Logger *slog.Logger
}

// Orchestrator selects backends from the registry and runs generation
// attempts through the caller-provided invoker and validator.
type Orchestrator struct {
	registry  *registry.Registry
	invoker   Invoker
	validator Validator
	opts      Options
	logger    *slog.Logger
}

// New creates an orchestrator on top of a backend registry.
func New(reg *registry.Registry, invoker Invoker, validator Validator, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		RetryBudget:  DefaultRetryBudget,
		EnsembleSize: DefaultEnsembleSize,
		CallTimeout:  DefaultCallTimeout,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.RetryBudget <= 0 {
		opts.RetryBudget = DefaultRetryBudget
	}
	if opts.EnsembleSize <= 0 {
		opts.EnsembleSize = DefaultEnsembleSize
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.Level(1000), // Unreachable level
		}))
	}

	return &Orchestrator{
		registry:  reg,
		invoker:   invoker,
		validator: validator,
		opts:      opts,
		logger:    logger,
	}
}

// Generate produces one validated statement, falling back to the next
// best backend after every failed attempt.
//
// Attempt numbering starts at 0. Each failure carries its error text into
// the next attempt's PreviousError and excludes the failed backend from
// re-selection. When no backend is eligible on the first attempt the
// configuration error surfaces immediately; once the budget or the
// candidate set is exhausted, a RetryBudgetError reports every tried
// backend and the final cause.
func (o *Orchestrator) Generate(ctx context.Context, gc model.GenerationContext) (model.GenerationResult, error) {
	excluded := make(map[string]bool, o.opts.RetryBudget)

	var (
		tried   []string
		lastErr error
	)

	for attempt := 0; attempt < o.opts.RetryBudget; attempt++ {
		if err := ctx.Err(); err != nil {
			return model.GenerationResult{}, err
		}

		gc.RetryAttempt = attempt

		sc := registry.ScoreContext{Category: gc.Category, RetryAttempt: attempt}

		desc, err := o.registry.Best(gc.Dialect, sc, excluded)
		if err != nil {
			if attempt == 0 {
				return model.GenerationResult{}, err
			}
			// Candidates ran out before the budget did.
			break
		}

		excluded[desc.ID] = true
		tried = append(tried, desc.ID)

		result, err := o.attempt(ctx, desc, gc)
		if err != nil {
			lastErr = err
			gc.PreviousError = err.Error()

			o.logger.Debug("generation attempt failed",
				slog.Int("attempt", attempt),
				slog.String("model", desc.ID),
				slog.Any("error", err),
			)

			continue
		}

		return result, nil
	}

	return model.GenerationResult{}, &RetryBudgetError{
		Attempts: len(tried),
		Tried:    tried,
		Last:     lastErr,
	}
}

// attempt runs one guarded invocation plus validation and records its
// performance sample. On success the returned result's ID is also the
// sample id.
func (o *Orchestrator) attempt(ctx context.Context, desc model.ModelDescriptor, gc model.GenerationContext) (model.GenerationResult, error) {
	if err := o.opts.Controller.Acquire(ctx); err != nil {
		return model.GenerationResult{}, fmt.Errorf("acquire invocation slot: %w", err)
	}
	defer o.opts.Controller.Release()

	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	defer cancel()

	start := time.Now()

	resp, err := o.invoker.Invoke(callCtx, desc, gc)
	elapsed := time.Since(start)

	if err != nil {
		o.recordSample(ctx, model.PerformanceSample{
			ID:        uuid.NewString(),
			ModelID:   desc.ID,
			Category:  gc.Category,
			Latency:   elapsed,
			ErrorFlag: true,
			Timestamp: time.Now(),
		})

		return model.GenerationResult{}, &InvocationError{ModelID: desc.ID, Err: err}
	}

	vr, err := o.validator.Validate(callCtx, resp.SQL, gc.Schema)
	if err != nil {
		o.recordSample(ctx, model.PerformanceSample{
			ID:        uuid.NewString(),
			ModelID:   desc.ID,
			Category:  gc.Category,
			Latency:   elapsed,
			ErrorFlag: true,
			Timestamp: time.Now(),
		})

		return model.GenerationResult{}, &InvocationError{ModelID: desc.ID, Err: fmt.Errorf("validate: %w", err)}
	}

	if !vr.IsValid || len(vr.SyntaxErrors) > 0 {
		o.recordSample(ctx, model.PerformanceSample{
			ID:        uuid.NewString(),
			ModelID:   desc.ID,
			Category:  gc.Category,
			Latency:   elapsed,
			ErrorFlag: true,
			Timestamp: time.Now(),
		})

		return model.GenerationResult{}, &ValidationError{ModelID: desc.ID, SyntaxErrors: vr.SyntaxErrors}
	}

	id := uuid.NewString()

	o.recordSample(ctx, model.PerformanceSample{
		ID:        id,
		ModelID:   desc.ID,
		Category:  gc.Category,
		Accuracy:  vr.Confidence * 100,
		Latency:   elapsed,
		Timestamp: time.Now(),
	})

	return model.GenerationResult{
		ID:             id,
		SQL:            resp.SQL,
		Explanation:    resp.Explanation,
		Confidence:     resp.Confidence,
		ModelUsed:      desc.ID,
		GenerationTime: elapsed,
		Validation:     vr,
	}, nil
}

// recordSample feeds the registry ring and, when configured, the journal.
// A failing journal is logged and never fails the generation.
func (o *Orchestrator) recordSample(ctx context.Context, sample model.PerformanceSample) {
	o.registry.Record(sample)

	if o.opts.Journal == nil {
		return
	}

	if err := o.opts.Journal.Append(ctx, sample); err != nil {
		o.logger.Warn("journal append failed",
			slog.String("sample_id", sample.ID),
			slog.Any("error", err),
		)
	}
}
