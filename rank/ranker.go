// Package rank implements example selection: candidate retrieval through
// the store's inverted indexes and weighted scoring of every candidate
// against the query and schema.
package rank

import (
	"github.com/hupe1980/sqlgo/lexical"
	"github.com/hupe1980/sqlgo/model"
	"github.com/hupe1980/sqlgo/store"
)

// fallbackLimit and fallbackMinQuality shape the quality fallback used when
// no index posting matches the query.
const (
	fallbackLimit      = 10
	fallbackMinQuality = 85
)

// Options shape one selection call.
type Options struct {
	// MaxExamples bounds the result length. Nonpositive yields nil.
	MaxExamples int
	// MinSimilarity drops candidates whose similarity falls below the
	// threshold before truncation to MaxExamples. Zero disables the filter.
	MinSimilarity float64
	// PreferredPatterns are "{category}_{complexity}" keys unioned into
	// candidate retrieval, typically supplied by the intent classifier.
	PreferredPatterns []string
}

// Ranker selects and scores stored examples for generation prompts.
type Ranker struct {
	store *store.Store
}

// New creates a Ranker over the given store.
func New(s *store.Store) *Ranker {
	return &Ranker{store: s}
}

// Select returns up to opts.MaxExamples stored examples ranked best-first
// for the query. Candidates come from the union of keyword, table and
// pattern postings; when nothing matches, the store's highest-quality
// examples stand in, so a non-empty store always yields guidance.
func (r *Ranker) Select(query string, schema model.SchemaDescription, opts Options) []model.RankedExample {
	if opts.MaxExamples <= 0 {
		return nil
	}

	tokens := lexical.Tokenize(query)
	relevantTables := schema.RelevantTables(query)

	ids := r.store.TokenIDs(tokens)
	ids.Or(r.store.TableIDs(relevantTables))
	if len(opts.PreferredPatterns) > 0 {
		ids.Or(r.store.PatternIDs(opts.PreferredPatterns))
	}

	candidates := r.store.Examples(ids)
	if len(candidates) == 0 {
		candidates = r.store.TopQuality(fallbackLimit, fallbackMinQuality)
		if len(candidates) == 0 {
			// Nothing clears the quality bar; take the overall best instead
			// so a non-empty store never selects nothing.
			candidates = r.store.TopQuality(fallbackLimit, 0)
		}
	}

	queryTokens := lexical.TokenSet(query)
	queryNorm := normalizeText(query)

	queue := newResultQueue(opts.MaxExamples)
	for _, ex := range candidates {
		sim := similarity(queryTokens, queryNorm, ex.NaturalLanguage)
		if opts.MinSimilarity > 0 && sim < opts.MinSimilarity {
			continue
		}

		rel := relevance(ex, schema, relevantTables)
		queue.push(model.RankedExample{
			Example:         ex,
			SimilarityScore: sim,
			RelevanceScore:  rel,
			FinalScore:      finalScore(sim, rel, ex),
		})
	}

	return queue.drain()
}
