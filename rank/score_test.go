package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/sqlgo/lexical"
	"github.com/hupe1980/sqlgo/model"
)

func simOf(query, example string) float64 {
	return similarity(lexical.TokenSet(query), normalizeText(query), example)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		example string
		want    float64
	}{
		{
			// Identical texts: Jaccard 1.0, containment bonus capped away.
			name:    "Identical",
			query:   "how many customers do we have",
			example: "how many customers do we have",
			want:    1.0,
		},
		{
			// Tokens {top, best, seller} vs {top, product, time}: 1/5 overlap,
			// plus 0.2 for the shared "top 5" phrase.
			name:    "CanonicalPhraseBonus",
			query:   "top 5 best sellers",
			example: "top 5 products of all time",
			want:    0.2 + 0.2,
		},
		{
			// Tokens overlap 3/5, plus 0.3 because the query text is a
			// substring of the example text.
			name:    "ContainmentBonus",
			query:   "count pending orders",
			example: "count pending orders by region and salesperson",
			want:    0.6 + 0.3,
		},
		{
			// Jaccard 0.75 plus containment exceeds 1; capped.
			name:    "Capped",
			query:   "count pending orders",
			example: "count pending orders by region",
			want:    1.0,
		},
		{
			name:    "Disjoint",
			query:   "warehouse inventory",
			example: "customer satisfaction survey",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, simOf(tt.query, tt.example), 1e-9)
		})
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	queries := []string{
		"how many customers do we have",
		"top 10 products by revenue",
		"average total per month at least more than",
		"",
	}
	examples := []string{
		"how many customers do we have",
		"top 10 products by total revenue per month",
		"",
	}

	for _, q := range queries {
		for _, e := range examples {
			got := simOf(q, e)
			assert.GreaterOrEqual(t, got, 0.0, "query=%q example=%q", q, e)
			assert.LessOrEqual(t, got, 1.0, "query=%q example=%q", q, e)
		}
	}
}

func TestRelevance(t *testing.T) {
	schema := model.SchemaDescription{Tables: map[string]model.TableSchema{
		"customers": {Name: "customers"},
		"orders":    {Name: "orders"},
	}}

	example := func(tables ...string) model.Example {
		return model.Example{Pattern: model.PatternTag{ReferencedTables: tables}}
	}

	tests := []struct {
		name     string
		ex       model.Example
		relevant []string
		want     float64
	}{
		{
			// Full overlap, all tables exist.
			name:     "FullMatch",
			ex:       example("customers"),
			relevant: []string{"customers"},
			want:     1.0,
		},
		{
			// One of two referenced tables overlaps; both exist.
			name:     "PartialOverlap",
			ex:       example("customers", "orders"),
			relevant: []string{"customers"},
			want:     0.6*0.5 + 0.4,
		},
		{
			// Table-free examples are fully applicable on the existence half.
			name:     "NoReferencedTables",
			ex:       example(),
			relevant: []string{"customers"},
			want:     0.4,
		},
		{
			name:     "NoTablesEitherSide",
			ex:       example(),
			relevant: nil,
			want:     0.4,
		},
		{
			// Referenced table missing from the schema.
			name:     "UnknownTable",
			ex:       example("payroll"),
			relevant: nil,
			want:     0,
		},
		{
			// Case-insensitive overlap.
			name:     "CaseFold",
			ex:       example("Customers"),
			relevant: []string{"customers"},
			want:     1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, relevance(tt.ex, schema, tt.relevant), 1e-9)
		})
	}
}

func TestFinalScore(t *testing.T) {
	ex := model.Example{
		QualityScore: 90,
		SuccessRate:  95,
		UsageCount:   20, // saturates at 10
	}

	got := finalScore(1.0, 1.0, ex)
	want := 0.35 + 0.25 + 0.20*0.9 + 0.15*0.95 + 0.05*1.0
	assert.InDelta(t, want, got, 1e-9)
}

func TestFinalScore_UsageSaturation(t *testing.T) {
	base := model.Example{QualityScore: 80, SuccessRate: 80}

	at10 := base
	at10.UsageCount = 10
	at1000 := base
	at1000.UsageCount = 1000

	assert.InDelta(t, finalScore(0.5, 0.5, at10), finalScore(0.5, 0.5, at1000), 1e-9)

	at0 := base
	assert.Less(t, finalScore(0.5, 0.5, at0), finalScore(0.5, 0.5, at10))
}
