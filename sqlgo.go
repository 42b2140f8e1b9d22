// Package sqlgo provides an embedded natural-language-to-SQL engine core.
//
// Sqlgo selects few-shot examples for prompt construction and routes
// generation requests across interchangeable model backends, with
// production-ready features including:
//
//   - Example retrieval over Roaring Bitmap inverted indexes (keyword, pattern, table)
//   - Weighted ranking: lexical similarity, schema relevance, quality, usage history
//   - Heuristic intent classification feeding pattern-index retrieval
//   - Accuracy-tracked backend registry with live performance blending
//   - Sequential fallback with retry budget and tried-backend exclusion
//   - Concurrent ensemble generation with edit-distance consensus
//   - Corpus loading from local, in-memory, S3 or MinIO blob stores (zstd/lz4)
//   - Strict record validation with per-record quarantine reporting
//   - Feedback loops: example quality updates and per-sample user satisfaction
//   - Optional invocation throttling (concurrency semaphore + rate limit)
//   - Structured logging, pluggable metrics, and a performance-sample journal
//
// # Engine Construction
//
// Construct one Engine per process with Open; all state lives in the Engine
// value and every method is safe for concurrent use:
//
//	engine, err := sqlgo.Open(ctx, sqlgo.Local("./corpus"),
//	    sqlgo.WithModels(descriptors...),
//	    sqlgo.WithInvoker(invoker),
//	    sqlgo.WithValidator(validator),
//	)
package sqlgo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/sqlgo/blobstore"
	"github.com/hupe1980/sqlgo/intent"
	"github.com/hupe1980/sqlgo/model"
	"github.com/hupe1980/sqlgo/orchestrator"
	"github.com/hupe1980/sqlgo/rank"
	"github.com/hupe1980/sqlgo/registry"
	"github.com/hupe1980/sqlgo/store"
)

// Source locates the example corpus for Open.
//
// Use Static for an in-memory slice, Local for a directory on the local
// file system, or Remote for any blobstore.BlobStore (S3, MinIO, in-memory).
type Source interface {
	load(ctx context.Context, s *store.Store, o *options) (*store.LoadResult, error)
	name() string
}

type staticSource struct {
	examples []model.Example
}

func (src staticSource) load(_ context.Context, s *store.Store, _ *options) (*store.LoadResult, error) {
	return store.LoadStatic(s, src.examples)
}

func (src staticSource) name() string { return "static" }

type blobSource struct {
	bs    blobstore.BlobStore
	label string
}

func (src blobSource) load(ctx context.Context, s *store.Store, o *options) (*store.LoadResult, error) {
	return store.Load(ctx, s, src.bs, o.corpusKey, o.codec)
}

func (src blobSource) name() string { return src.label }

// Static serves the corpus from an already-decoded example slice.
func Static(examples []model.Example) Source {
	return staticSource{examples: examples}
}

// Local serves the corpus from a directory on the local file system.
// The corpus blob key defaults to "examples.json" (see WithCorpusKey).
func Local(dir string) Source {
	return blobSource{bs: blobstore.NewLocalStore(dir), label: "local"}
}

// Remote serves the corpus from the given blob store.
//
// Example with S3:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("corpora/"))
//	engine, _ := sqlgo.Open(ctx, sqlgo.Remote(s3Store))
func Remote(bs blobstore.BlobStore) Source {
	return blobSource{bs: bs, label: "remote"}
}

// Engine is the natural-language-to-SQL engine core. It owns the example
// store, the ranker, the intent classifier, the backend registry and the
// generation orchestrator. Construct one per process with Open; there are
// no global singletons.
//
// All methods are safe for concurrent use.
type Engine struct {
	store      *store.Store
	ranker     *rank.Ranker
	classifier intent.Classifier
	registry   *registry.Registry
	orch       *orchestrator.Orchestrator

	invoker   orchestrator.Invoker
	validator orchestrator.Validator

	dialect string

	metrics MetricsCollector
	logger  *Logger

	quarantined []store.Quarantined
}

// Open loads the example corpus from the source and assembles an Engine.
//
// Malformed corpus records are quarantined with a reason instead of
// aborting the load or defaulting fields; inspect them via Quarantined.
// Opening fails when the source is unreadable, the blob does not decode,
// or no record at all survives validation.
func Open(ctx context.Context, src Source, optFns ...Option) (*Engine, error) {
	opts := applyOptions(optFns)

	st := store.New()

	start := time.Now()
	loaded, err := src.load(ctx, st, &opts)
	if err != nil {
		err = translateError(err)
		opts.logger.LogLoad(ctx, src.name(), 0, 0, err)
		return nil, err
	}

	opts.metrics.RecordLoad(loaded.Loaded, len(loaded.Quarantined), time.Since(start))
	opts.logger.LogLoad(ctx, src.name(), loaded.Loaded, len(loaded.Quarantined), nil)
	for _, q := range loaded.Quarantined {
		opts.logger.WarnContext(ctx, "corpus record quarantined",
			"index", q.Index,
			"id", q.ID,
			"reason", q.Reason,
		)
	}

	models := opts.models
	if opts.modelConfig {
		fromFile, err := registry.LoadConfig(opts.modelConfigPaths...)
		if err != nil {
			return nil, fmt.Errorf("sqlgo: load model config: %w", err)
		}
		models = append(models, fromFile...)
	}

	reg := registry.New(func(o *registry.Options) {
		if opts.sampleCap > 0 {
			o.SampleCap = opts.sampleCap
		}
	})
	for _, desc := range models {
		if err := reg.Register(desc); err != nil {
			return nil, fmt.Errorf("sqlgo: register model %q: %w", desc.ID, err)
		}
	}

	classifier := opts.classifier
	if classifier == nil {
		classifier = intent.NewHeuristic()
	}

	e := &Engine{
		store:       st,
		ranker:      rank.New(st),
		classifier:  classifier,
		registry:    reg,
		invoker:     opts.invoker,
		validator:   opts.validator,
		dialect:     opts.dialect,
		metrics:     opts.metrics,
		logger:      opts.logger,
		quarantined: loaded.Quarantined,
	}

	if opts.invoker != nil && opts.validator != nil {
		e.orch = orchestrator.New(reg, opts.invoker, opts.validator, func(o *orchestrator.Options) {
			o.RetryBudget = opts.retryBudget
			o.EnsembleSize = opts.ensembleSize
			o.CallTimeout = opts.callTimeout
			o.Controller = opts.controller
			o.Journal = opts.journal
			o.Logger = e.logger.Logger
		})
	}

	return e, nil
}

// SelectOptions contains optional knobs for SelectExamples.
type SelectOptions struct {
	// MinSimilarity drops candidates below the similarity threshold
	// before truncation to maxExamples. Zero disables the filter.
	MinSimilarity float64

	// PreferredPatterns are "{category}_{complexity}" index keys unioned
	// into candidate retrieval. When empty, the intent classifier's
	// suggestions are used.
	PreferredPatterns []string
}

// SelectExamples returns up to maxExamples stored examples ranked
// best-first for the query and schema. For a non-empty corpus it never
// returns an empty list unless MinSimilarity filters everything out.
func (e *Engine) SelectExamples(ctx context.Context, query string, schema model.SchemaDescription, maxExamples int, optFns ...func(o *SelectOptions)) ([]model.RankedExample, error) {
	start := time.Now()

	opts := SelectOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := checkSelect(query, maxExamples); err != nil {
		e.metrics.RecordSelect(maxExamples, time.Since(start), err)
		e.logger.LogSelect(ctx, maxExamples, 0, err)
		return nil, err
	}

	patterns := opts.PreferredPatterns
	if len(patterns) == 0 {
		patterns = e.classifier.Classify(query).PatternKeys
	}

	ranked := e.ranker.Select(query, schema, rank.Options{
		MaxExamples:       maxExamples,
		MinSimilarity:     opts.MinSimilarity,
		PreferredPatterns: patterns,
	})

	e.metrics.RecordSelect(maxExamples, time.Since(start), nil)
	e.logger.LogSelect(ctx, maxExamples, len(ranked), nil)
	return ranked, nil
}

func checkSelect(query string, maxExamples int) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	if maxExamples < 1 {
		return ErrInvalidMax
	}
	return nil
}

// UpdateQuality records one generation outcome against a stored example:
// usage increments, the success rate moves by exponential moving average,
// and the quality score drifts within [50,95]. An unknown id changes
// nothing and returns ErrUnknownExample.
func (e *Engine) UpdateQuality(ctx context.Context, exampleID string, success bool) error {
	start := time.Now()

	_, err := e.store.ApplyFeedback(exampleID, success)
	err = translateError(err)

	e.metrics.RecordFeedback(time.Since(start), err)
	e.logger.LogFeedback(ctx, exampleID, success, err)
	return err
}

// Generate produces one validated SQL statement for the generation
// context, falling back across backends on failure. An empty Category is
// filled in by the intent classifier, an empty Dialect by the engine's
// default dialect.
func (e *Engine) Generate(ctx context.Context, gc model.GenerationContext) (model.GenerationResult, error) {
	start := time.Now()

	if err := e.checkGeneration(gc); err != nil {
		e.metrics.RecordGenerate(time.Since(start), err)
		e.logger.LogGenerate(ctx, "", err)
		return model.GenerationResult{}, err
	}

	e.prepare(&gc)

	result, err := e.orch.Generate(ctx, gc)
	err = translateError(err)

	e.metrics.RecordGenerate(time.Since(start), err)
	e.logger.LogGenerate(ctx, result.ModelUsed, err)
	return result, err
}

// GenerateEnsemble produces SQL by invoking the top backends concurrently
// and reconciling their outputs into a consensus result. Use it for
// high-stakes queries where one backend's answer is not trusted alone.
func (e *Engine) GenerateEnsemble(ctx context.Context, gc model.GenerationContext) (model.EnsembleResult, error) {
	start := time.Now()

	if err := e.checkGeneration(gc); err != nil {
		e.metrics.RecordEnsemble(time.Since(start), err)
		e.logger.LogEnsemble(ctx, "", 0, 0, err)
		return model.EnsembleResult{}, err
	}

	e.prepare(&gc)

	result, err := e.orch.GenerateEnsemble(ctx, gc)
	err = translateError(err)

	e.metrics.RecordEnsemble(time.Since(start), err)
	e.logger.LogEnsemble(ctx, result.Primary.ModelUsed, ensembleSuccesses(result, err), result.ConsensusScore, err)
	return result, err
}

func ensembleSuccesses(result model.EnsembleResult, err error) int {
	if err != nil {
		return 0
	}
	return 1 + len(result.Alternatives)
}

func (e *Engine) checkGeneration(gc model.GenerationContext) error {
	switch {
	case e.invoker == nil:
		return ErrNoInvoker
	case e.validator == nil:
		return ErrNoValidator
	case strings.TrimSpace(gc.Query) == "":
		return ErrEmptyQuery
	}
	return nil
}

// prepare fills in the category and dialect a caller left open.
func (e *Engine) prepare(gc *model.GenerationContext) {
	if gc.Category == "" {
		gc.Category = e.classifier.Classify(gc.Query).Category
	}
	if gc.Dialect == "" {
		gc.Dialect = e.dialect
	}
}

// RecordSatisfaction attaches user feedback to a buffered performance
// sample. The sample id is the GenerationResult's ID. Samples evicted
// from the ring report ErrUnknownSample.
func (e *Engine) RecordSatisfaction(ctx context.Context, sampleID string, score float64) error {
	start := time.Now()

	err := translateError(e.registry.AttachSatisfaction(sampleID, score))

	e.metrics.RecordSatisfaction(time.Since(start), err)
	e.logger.LogSatisfaction(ctx, sampleID, score, err)
	return err
}

// RegisterModel adds or replaces a backend descriptor.
func (e *Engine) RegisterModel(desc model.ModelDescriptor) error {
	return e.registry.Register(desc)
}

// Example returns a snapshot of the stored example with the given id.
func (e *Engine) Example(id string) (model.Example, bool) {
	return e.store.Get(id)
}

// Models returns all registered backend descriptors sorted by id.
func (e *Engine) Models() []model.ModelDescriptor {
	return e.registry.Models()
}

// Samples returns a snapshot of the buffered performance samples,
// oldest first.
func (e *Engine) Samples() []model.PerformanceSample {
	return e.registry.Samples()
}

// Quarantined returns the corpus records rejected at load time.
func (e *Engine) Quarantined() []store.Quarantined {
	out := make([]store.Quarantined, len(e.quarantined))
	copy(out, e.quarantined)
	return out
}

// EngineStats is a point-in-time snapshot of engine state.
type EngineStats struct {
	Examples    int
	Tokens      int
	PatternKeys int
	Quarantined int
	Models      int
	Samples     int

	// Operations is set when a BasicMetricsCollector is installed.
	Operations *BasicMetricsStats
}

// Stats returns statistics about the engine.
func (e *Engine) Stats() EngineStats {
	ss := e.store.GetStats()

	stats := EngineStats{
		Examples:    ss.Examples,
		Tokens:      ss.Tokens,
		PatternKeys: ss.PatternKeys,
		Quarantined: len(e.quarantined),
		Models:      e.registry.Len(),
		Samples:     e.registry.SampleCount(),
	}

	if b, ok := e.metrics.(*BasicMetricsCollector); ok {
		s := b.GetStats()
		stats.Operations = &s
	}

	return stats
}
