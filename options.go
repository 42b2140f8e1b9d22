package sqlgo

import (
	"log/slog"
	"time"

	"github.com/hupe1980/sqlgo/codec"
	"github.com/hupe1980/sqlgo/intent"
	"github.com/hupe1980/sqlgo/journal"
	"github.com/hupe1980/sqlgo/model"
	"github.com/hupe1980/sqlgo/orchestrator"
	"github.com/hupe1980/sqlgo/resource"
)

const (
	// DefaultCorpusKey is the blob key Open reads the corpus from.
	DefaultCorpusKey = "examples.json"

	// DefaultDialect fills generation contexts that leave Dialect empty.
	DefaultDialect = "postgres"
)

type options struct {
	codec            codec.Codec
	corpusKey        string
	metrics          MetricsCollector
	logger           *Logger
	classifier       intent.Classifier
	models           []model.ModelDescriptor
	modelConfig      bool
	modelConfigPaths []string
	invoker          orchestrator.Invoker
	validator        orchestrator.Validator
	retryBudget      int
	ensembleSize     int
	callTimeout      time.Duration
	sampleCap        int
	controller       *resource.Controller
	journal          journal.Sink
	dialect          string
}

// Option configures Engine construction.
type Option func(*options)

// WithCodec configures the codec used for decoding corpus blobs.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCorpusKey sets the blob key the corpus is read from.
// Keys ending in ".zst" or ".lz4" are decompressed transparently.
func WithCorpusKey(key string) Option {
	return func(o *options) {
		o.corpusKey = key
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &sqlgo.BasicMetricsCollector{}
//	engine, _ := sqlgo.Open(ctx, src, sqlgo.WithMetricsCollector(metrics))
//	// ... use engine ...
//	stats := metrics.GetStats()
//	fmt.Printf("Selections: %d, Avg latency: %dns\n", stats.SelectCount, stats.SelectAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := sqlgo.NewJSONLogger(slog.LevelInfo)
//	engine, _ := sqlgo.Open(ctx, src, sqlgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithClassifier swaps the intent classifier used to pre-classify queries
// and seed pattern-index lookups. The default is the built-in heuristic.
func WithClassifier(c intent.Classifier) Option {
	return func(o *options) {
		o.classifier = c
	}
}

// WithModels registers backend descriptors at construction. Combine with
// the Model builder:
//
//	sqlgo.WithModels(
//	    sqlgo.Model("sql-pro").SQLSpecialized().Dialects("postgres").AccuracyPrior(88).MustBuild(),
//	    sqlgo.Model("general-fast").Dialects("postgres").AccuracyPrior(74).MustBuild(),
//	)
func WithModels(descs ...model.ModelDescriptor) Option {
	return func(o *options) {
		o.models = append(o.models, descs...)
	}
}

// WithModelConfig loads backend descriptors from a models.yaml file found
// in the given directories when the engine opens (the working directory
// when none are given). See registry.LoadConfig.
func WithModelConfig(paths ...string) Option {
	return func(o *options) {
		o.modelConfig = true
		o.modelConfigPaths = paths
	}
}

// WithInvoker sets the backend invoker. Generation is unavailable
// without one.
func WithInvoker(inv orchestrator.Invoker) Option {
	return func(o *options) {
		o.invoker = inv
	}
}

// WithValidator sets the SQL validator. Generation is unavailable
// without one.
func WithValidator(v orchestrator.Validator) Option {
	return func(o *options) {
		o.validator = v
	}
}

// WithRetryBudget caps fallback attempts per Generate call.
// Default: 3.
func WithRetryBudget(n int) Option {
	return func(o *options) {
		o.retryBudget = n
	}
}

// WithEnsembleSize sets how many backends GenerateEnsemble fans out to.
// Default: 3.
func WithEnsembleSize(n int) Option {
	return func(o *options) {
		o.ensembleSize = n
	}
}

// WithCallTimeout bounds a single backend invocation including its
// validation. Default: 30s.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) {
		o.callTimeout = d
	}
}

// WithSampleCap bounds the performance sample ring buffer.
// Default: 1000.
func WithSampleCap(n int) Option {
	return func(o *options) {
		o.sampleCap = n
	}
}

// WithResourceController guards backend invocations with a concurrency
// and rate limit. Nil means unbounded.
//
// Example:
//
//	ctrl := resource.NewController(resource.Config{
//	    MaxConcurrentInvocations: 4,
//	    InvocationsPerSecond:     10,
//	})
//	engine, _ := sqlgo.Open(ctx, src, sqlgo.WithResourceController(ctrl))
func WithResourceController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithJournal forwards every recorded performance sample to the sink,
// best-effort. A failing sink is logged and never fails a generation.
func WithJournal(sink journal.Sink) Option {
	return func(o *options) {
		o.journal = sink
	}
}

// WithDialect sets the default SQL dialect for generation contexts that
// leave Dialect empty. Default: "postgres".
func WithDialect(dialect string) Option {
	return func(o *options) {
		o.dialect = dialect
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:     codec.Default,
		corpusKey: DefaultCorpusKey,
		metrics:   NoopMetricsCollector{},
		logger:    NoopLogger(),
		dialect:   DefaultDialect,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
