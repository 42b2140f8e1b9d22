package model

import (
	"time"
)

// Complexity classifies how involved an example's SQL is.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Valid reports whether c is one of the known complexity levels.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityMedium, ComplexityComplex:
		return true
	}
	return false
}

// QueryCategory classifies a generation request.
type QueryCategory string

const (
	CategorySimple    QueryCategory = "simple"
	CategoryComplex   QueryCategory = "complex"
	CategoryAnalytics QueryCategory = "analytics"
)

// Valid reports whether q is one of the known categories.
func (q QueryCategory) Valid() bool {
	switch q {
	case CategorySimple, CategoryComplex, CategoryAnalytics:
		return true
	}
	return false
}

// PatternTag classifies an example's query shape. ReferencedTables drives the
// table index and relevance scoring; an example with no referenced tables is
// reachable only through keyword lookups or the quality fallback.
type PatternTag struct {
	Category         string     `json:"category"`
	Complexity       Complexity `json:"complexity"`
	ReferencedTables []string   `json:"referenced_tables,omitempty"`
	OperationTags    []string   `json:"operation_tags,omitempty"`
	Keywords         []string   `json:"keywords,omitempty"`
}

// Key returns the composite pattern index key "{category}_{complexity}".
func (p PatternTag) Key() string {
	return p.Category + "_" + string(p.Complexity)
}

// Example is a stored natural-language/SQL pair used for few-shot guidance.
//
// An Example is immutable once loaded except for the feedback fields
// (UsageCount, SuccessRate, QualityScore, UpdatedAt), which only the store's
// feedback update mutates. SuccessRate is an exponential moving average;
// QualityScore drifts within [50,95] under feedback and stays within [0,100]
// at all times.
type Example struct {
	ID              string     `json:"id"`
	NaturalLanguage string     `json:"natural_language"`
	SQL             string     `json:"sql"`
	Explanation     string     `json:"explanation,omitempty"`
	Pattern         PatternTag `json:"pattern"`
	QualityScore    float64    `json:"quality_score"`
	UsageCount      int64      `json:"usage_count"`
	SuccessRate     float64    `json:"success_rate"`
	Tags            []string   `json:"tags,omitempty"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at,omitempty"`
}

// RankedExample is the ephemeral view produced by one selection call.
// SimilarityScore and RelevanceScore are within [0,1]; FinalScore is the
// weighted sum and is only guaranteed to be non-negative.
type RankedExample struct {
	Example

	SimilarityScore float64
	RelevanceScore  float64
	FinalScore      float64
}
