package model

import (
	"strings"
	"time"
)

// Specialization describes what a generation backend is tuned for.
type Specialization string

const (
	SpecializationGeneral   Specialization = "general"
	SpecializationSQL       Specialization = "sql-specialized"
	SpecializationAnalytics Specialization = "analytics"
)

// ModelDescriptor describes one configured generation backend.
//
// Descriptors are created at process start (from code, the fluent builder,
// or a config file) and are immutable thereafter except AccuracyPrior, which
// the registry slowly adjusts from observed performance.
type ModelDescriptor struct {
	ID                string
	Specialization    Specialization
	SupportedDialects []string
	AccuracyPrior     float64 // 0-100
	CostPerQuery      float64 // USD, 0 means free
	AverageLatency    time.Duration
	Priority          int // tie-break ordinal, lower wins
	Configured        bool
}

// SupportsDialect reports whether the backend can emit the given SQL
// dialect, case-insensitively.
func (d ModelDescriptor) SupportsDialect(dialect string) bool {
	for _, s := range d.SupportedDialects {
		if strings.EqualFold(s, dialect) {
			return true
		}
	}
	return false
}

// GenerationContext is one generation request.
//
// RetryAttempt and PreviousError are maintained by the fallback loop:
// attempt numbering starts at 0, and PreviousError carries the failing
// attempt's error text into the next attempt's prompt context.
type GenerationContext struct {
	Query         string
	Schema        SchemaDescription
	Category      QueryCategory
	Dialect       string
	RetryAttempt  int
	PreviousError string
}

// ModelResponse is the raw output of one backend invocation.
// Confidence is the backend's self-reported value within [0,1].
type ModelResponse struct {
	SQL         string
	Explanation string
	Confidence  float64
}

// ValidationResult is the external validator's verdict for one statement.
// Syntax errors make a result unusable; warnings are tolerated and attached.
type ValidationResult struct {
	IsValid      bool
	SyntaxErrors []string
	Warnings     []string
	Confidence   float64 // 0-1
}

// GenerationResult is a validated single-backend outcome. ID doubles as the
// performance sample id, so satisfaction feedback can be attached later.
type GenerationResult struct {
	ID             string
	SQL            string
	Explanation    string
	Confidence     float64
	ModelUsed      string
	GenerationTime time.Duration
	Validation     ValidationResult
}

// EnsembleResult is the reconciled outcome of a concurrent multi-backend
// generation. Primary is the success from the highest-scored backend,
// Recommended maximizes 0.7*self-confidence + 0.3*validation confidence,
// and ConsensusScore is the mean pairwise output similarity in [0,100].
type EnsembleResult struct {
	Primary        GenerationResult
	Alternatives   []GenerationResult
	ConsensusScore float64
	Recommended    GenerationResult
}

// PerformanceSample records one completed generation attempt.
// Satisfaction stays nil until user feedback arrives.
type PerformanceSample struct {
	ID           string
	ModelID      string
	Category     QueryCategory
	Accuracy     float64 // 0-100
	Latency      time.Duration
	Satisfaction *float64 // 0-100, nil until feedback
	ErrorFlag    bool
	Timestamp    time.Time
}
