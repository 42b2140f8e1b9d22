// Package intent provides heuristic query-intent recognition. The engine
// uses it to seed pattern-index lookups during example selection when the
// caller supplies no preferred patterns, and to pre-classify generation
// requests that arrive without a category.
package intent

import (
	"regexp"

	"github.com/hupe1980/sqlgo/model"
)

// Intent is the classifier's reading of a natural-language query.
type Intent struct {
	// Category is the generation category the query most resembles.
	Category model.QueryCategory
	// Complexity is the expected shape of the resulting SQL.
	Complexity model.Complexity
	// PatternKeys are "{category}_{complexity}" index keys, detected key
	// first. Keys absent from the corpus are harmless to look up.
	PatternKeys []string
}

// Classifier maps a query to an Intent.
// Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(query string) Intent
}

// Compile-time interface check.
var _ Classifier = (*Heuristic)(nil)

// Heuristic is a regex/keyword classifier. It is deliberately shallow:
// pattern keys feed an index union where false positives cost nothing, so
// recall beats precision here. Swap in a smarter Classifier via the engine
// options when available.
type Heuristic struct{}

// NewHeuristic creates the default classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

var (
	reCount       = regexp.MustCompile(`(?i)\b(how many|count(?: of)?|number of)\b`)
	reRanking     = regexp.MustCompile(`(?i)\b(top\s+\d+|highest|largest|lowest|smallest|best|worst|most|least)\b`)
	reTrend       = regexp.MustCompile(`(?i)\b(per (?:day|week|month|quarter|year)|over time|trend|growth|month over month|year over year|cohort|moving average)\b`)
	reAggregation = regexp.MustCompile(`(?i)\b(average|avg|sum|total|minimum|maximum|min|max)\b`)
	reGrouping    = regexp.MustCompile(`(?i)\b(per|each|grouped by|group by|breakdown)\b`)
	reJoin        = regexp.MustCompile(`(?i)\b(with their|along with|together with|joined|and their)\b`)
)

// Classify recognizes one dominant query shape. Precedence runs from the
// most to the least specific signal: trend phrasing implies aggregation
// and often grouping, so it must win over both.
func (h *Heuristic) Classify(query string) Intent {
	grouped := reGrouping.MatchString(query)
	joined := reJoin.MatchString(query)

	var (
		pattern    string
		complexity model.Complexity
		category   model.QueryCategory
	)

	switch {
	case reTrend.MatchString(query):
		pattern = "trend"
		complexity = model.ComplexityComplex
		category = model.CategoryAnalytics

	case reRanking.MatchString(query):
		pattern = "ranking"
		complexity = model.ComplexityMedium
		category = model.CategorySimple
		if grouped || joined {
			complexity = model.ComplexityComplex
			category = model.CategoryComplex
		}

	case reCount.MatchString(query):
		pattern = "count"
		complexity = model.ComplexitySimple
		category = model.CategorySimple
		if grouped || joined {
			complexity = model.ComplexityMedium
			category = model.CategoryComplex
		}

	case reAggregation.MatchString(query):
		pattern = "aggregation"
		complexity = model.ComplexityMedium
		category = model.CategorySimple
		if grouped || joined {
			complexity = model.ComplexityComplex
			category = model.CategoryComplex
		}

	default:
		pattern = "filter"
		complexity = model.ComplexitySimple
		category = model.CategorySimple
		if joined {
			pattern = "join"
			complexity = model.ComplexityMedium
			category = model.CategoryComplex
		}
	}

	return Intent{
		Category:    category,
		Complexity:  complexity,
		PatternKeys: patternKeys(pattern, complexity),
	}
}

// patternKeys emits the detected key first, then the same pattern category
// at the remaining complexities. The category signal is strong while the
// complexity read is fuzzy, and extra keys only widen an index union.
func patternKeys(pattern string, detected model.Complexity) []string {
	keys := []string{pattern + "_" + string(detected)}
	for _, c := range []model.Complexity{model.ComplexitySimple, model.ComplexityMedium, model.ComplexityComplex} {
		if c != detected {
			keys = append(keys, pattern+"_"+string(c))
		}
	}
	return keys
}
