// Package sqlgo provides an embedded natural-language-to-SQL engine core.
//
// This file implements a fluent selection API for querying the example
// corpus.
package sqlgo

import (
	"context"

	"github.com/hupe1980/sqlgo/model"
)

// DefaultMaxExamples is the result bound the fluent Select builder starts
// with.
const DefaultMaxExamples = 5

// Select creates a new fluent selection builder for the given query.
//
// Example:
//
//	examples, err := engine.Select("how many customers do we have").
//	    Schema(schema).
//	    Max(3).
//	    MinSimilarity(0.2).
//	    Execute(ctx)
func (e *Engine) Select(query string) *SelectBuilder {
	return &SelectBuilder{
		e:     e,
		query: query,
		max:   DefaultMaxExamples,
	}
}

// SelectBuilder is a fluent builder for constructing selection calls.
type SelectBuilder struct {
	e     *Engine
	query string
	max   int

	schema        model.SchemaDescription
	minSimilarity float64
	patterns      []string
}

// Schema sets the target database schema used for relevance scoring and
// table-index candidate retrieval.
func (sb *SelectBuilder) Schema(schema model.SchemaDescription) *SelectBuilder {
	sb.schema = schema
	return sb
}

// Max sets the maximum number of examples to return.
func (sb *SelectBuilder) Max(n int) *SelectBuilder {
	sb.max = n
	return sb
}

// MinSimilarity drops candidates below the similarity threshold before
// truncation to Max.
func (sb *SelectBuilder) MinSimilarity(min float64) *SelectBuilder {
	sb.minSimilarity = min
	return sb
}

// PreferPatterns unions the given "{category}_{complexity}" index keys
// into candidate retrieval, overriding the intent classifier's
// suggestions.
func (sb *SelectBuilder) PreferPatterns(keys ...string) *SelectBuilder {
	sb.patterns = keys
	return sb
}

// Execute runs the selection and returns the ranked examples.
func (sb *SelectBuilder) Execute(ctx context.Context) ([]model.RankedExample, error) {
	return sb.e.SelectExamples(ctx, sb.query, sb.schema, sb.max, func(o *SelectOptions) {
		o.MinSimilarity = sb.minSimilarity
		o.PreferredPatterns = sb.patterns
	})
}

// MustExecute runs the selection, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (sb *SelectBuilder) MustExecute(ctx context.Context) []model.RankedExample {
	results, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return results
}

// First returns only the best-ranked example, or ErrNoExamples when the
// selection comes back empty.
func (sb *SelectBuilder) First(ctx context.Context) (model.RankedExample, error) {
	sb.max = 1
	results, err := sb.Execute(ctx)
	if err != nil {
		return model.RankedExample{}, err
	}
	if len(results) == 0 {
		return model.RankedExample{}, ErrNoExamples
	}
	return results[0], nil
}
