package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sqlgo/model"
	"github.com/hupe1980/sqlgo/store"
)

func rankSchema() model.SchemaDescription {
	tables := map[string]model.TableSchema{}
	for _, n := range []string{"customers", "orders", "products", "order_items"} {
		tables[n] = model.TableSchema{
			Name:    n,
			Columns: []model.ColumnInfo{{Name: "id", DataType: "integer", IsPrimaryKey: true}},
		}
	}
	return model.SchemaDescription{Tables: tables}
}

func rankExamples() []model.Example {
	return []model.Example{
		{
			ID:              "ex-count",
			NaturalLanguage: "how many customers do we have",
			SQL:             "SELECT COUNT(*) FROM customers",
			Pattern: model.PatternTag{
				Category:         "count",
				Complexity:       model.ComplexitySimple,
				ReferencedTables: []string{"customers"},
				Keywords:         []string{"count"},
			},
			QualityScore: 90,
			UsageCount:   20,
			SuccessRate:  95,
		},
		{
			ID:              "ex-top",
			NaturalLanguage: "top 10 products by total sales",
			SQL:             "SELECT p.name, SUM(oi.quantity) FROM products p JOIN order_items oi ON oi.product_id = p.id GROUP BY p.name ORDER BY 2 DESC LIMIT 10",
			Pattern: model.PatternTag{
				Category:         "ranking",
				Complexity:       model.ComplexityMedium,
				ReferencedTables: []string{"products", "order_items"},
				Keywords:         []string{"top"},
			},
			QualityScore: 88,
			UsageCount:   12,
			SuccessRate:  90,
		},
		{
			ID:              "ex-trend",
			NaturalLanguage: "average order value per month",
			SQL:             "SELECT DATE_TRUNC('month', created_at), AVG(total) FROM orders GROUP BY 1",
			Pattern: model.PatternTag{
				Category:         "trend",
				Complexity:       model.ComplexityComplex,
				ReferencedTables: []string{"orders"},
			},
			QualityScore: 92,
			UsageCount:   8,
			SuccessRate:  85,
		},
		{
			ID:              "ex-join",
			NaturalLanguage: "customers with pending orders",
			SQL:             "SELECT c.* FROM customers c JOIN orders o ON o.customer_id = c.id WHERE o.status = 'pending'",
			Pattern: model.PatternTag{
				Category:         "join",
				Complexity:       model.ComplexityMedium,
				ReferencedTables: []string{"customers", "orders"},
			},
			QualityScore: 75,
			UsageCount:   5,
			SuccessRate:  70,
		},
		{
			ID:              "ex-orphan",
			NaturalLanguage: "payroll export for employees",
			SQL:             "SELECT * FROM payroll",
			Pattern: model.PatternTag{
				Category:         "filter",
				Complexity:       model.ComplexitySimple,
				ReferencedTables: []string{"payroll"},
			},
			QualityScore: 95,
			UsageCount:   1,
			SuccessRate:  80,
		},
	}
}

func newTestRanker(t *testing.T, examples []model.Example) *Ranker {
	t.Helper()

	s := store.New()
	for _, ex := range examples {
		require.NoError(t, s.Add(ex))
	}
	return New(s)
}

func resultIDs(results []model.RankedExample) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func assertRankedDescending(t *testing.T, results []model.RankedExample) {
	t.Helper()
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].FinalScore, results[i].FinalScore,
			"result %d outranks %d", i, i-1)
	}
}

func TestRanker_Select_CountQuery(t *testing.T) {
	r := newTestRanker(t, rankExamples())

	results := r.Select("How many customers do we have?", rankSchema(), Options{MaxExamples: 5})

	// Keyword and table postings reach ex-count and ex-join only.
	require.Equal(t, []string{"ex-count", "ex-join"}, resultIDs(results))

	top := results[0]
	assert.InDelta(t, 1.0, top.SimilarityScore, 1e-9)
	assert.InDelta(t, 1.0, top.RelevanceScore, 1e-9)
	assert.InDelta(t, 0.9725, top.FinalScore, 1e-9)

	assertRankedDescending(t, results)
}

func TestRanker_Select_ScoreBounds(t *testing.T) {
	r := newTestRanker(t, rankExamples())
	schema := rankSchema()

	queries := []string{
		"How many customers do we have?",
		"top 10 products by revenue",
		"average order value per month",
		"payroll export",
		"something entirely unrelated",
	}

	for _, q := range queries {
		results := r.Select(q, schema, Options{MaxExamples: 10})
		require.NotEmpty(t, results, "query %q", q)
		assertRankedDescending(t, results)

		for _, res := range results {
			assert.GreaterOrEqual(t, res.SimilarityScore, 0.0)
			assert.LessOrEqual(t, res.SimilarityScore, 1.0)
			assert.GreaterOrEqual(t, res.RelevanceScore, 0.0)
			assert.LessOrEqual(t, res.RelevanceScore, 1.0)
			assert.GreaterOrEqual(t, res.FinalScore, 0.0)
		}
	}
}

func TestRanker_Select_QualityFallback(t *testing.T) {
	r := newTestRanker(t, rankExamples())

	// No token, table or pattern posting matches this query.
	results := r.Select("quarterly fiscal compliance briefing", rankSchema(), Options{MaxExamples: 10})

	require.NotEmpty(t, results)
	// Fallback candidates are the quality >= 85 set.
	assert.ElementsMatch(t, []string{"ex-count", "ex-top", "ex-trend", "ex-orphan"}, resultIDs(results))
	assertRankedDescending(t, results)
}

func TestRanker_Select_FallbackRelaxesQualityBar(t *testing.T) {
	examples := []model.Example{
		{
			ID:              "ex-meh",
			NaturalLanguage: "orders by status",
			SQL:             "SELECT status, COUNT(*) FROM orders GROUP BY status",
			Pattern:         model.PatternTag{Category: "count", Complexity: model.ComplexitySimple},
			QualityScore:    60,
			SuccessRate:     60,
		},
		{
			ID:              "ex-meh-2",
			NaturalLanguage: "orders by region",
			SQL:             "SELECT region, COUNT(*) FROM orders GROUP BY region",
			Pattern:         model.PatternTag{Category: "count", Complexity: model.ComplexitySimple},
			QualityScore:    55,
			SuccessRate:     55,
		},
	}
	r := newTestRanker(t, examples)

	// Nothing matches and nothing clears quality 85; the overall best
	// examples must still be returned.
	results := r.Select("unrelated gibberish", rankSchema(), Options{MaxExamples: 5})
	require.NotEmpty(t, results)
	assert.Len(t, results, 2)
}

func TestRanker_Select_MinSimilarityFiltersBeforeTruncation(t *testing.T) {
	r := newTestRanker(t, rankExamples())

	unfiltered := r.Select("How many customers do we have?", rankSchema(), Options{MaxExamples: 5})
	require.Len(t, unfiltered, 2)

	filtered := r.Select("How many customers do we have?", rankSchema(), Options{
		MaxExamples:   5,
		MinSimilarity: 0.5,
	})
	require.Len(t, filtered, 1)
	assert.Equal(t, "ex-count", filtered[0].ID)
	assert.GreaterOrEqual(t, filtered[0].SimilarityScore, 0.5)
}

func TestRanker_Select_PreferredPatterns(t *testing.T) {
	r := newTestRanker(t, rankExamples())

	// The query text matches nothing; the preferred pattern key alone makes
	// the ranking example reachable.
	results := r.Select("zzz qqq xyzzy", rankSchema(), Options{
		MaxExamples:       5,
		PreferredPatterns: []string{"ranking_medium"},
	})

	require.Equal(t, []string{"ex-top"}, resultIDs(results))
}

func TestRanker_Select_TruncatesToMax(t *testing.T) {
	r := newTestRanker(t, rankExamples())

	results := r.Select("quarterly fiscal compliance briefing", rankSchema(), Options{MaxExamples: 2})
	assert.Len(t, results, 2)
	assertRankedDescending(t, results)
}

func TestRanker_Select_TieBreaksByID(t *testing.T) {
	twin := func(id string) model.Example {
		return model.Example{
			ID:              id,
			NaturalLanguage: "count of open tickets",
			SQL:             "SELECT COUNT(*) FROM tickets WHERE status = 'open'",
			Pattern:         model.PatternTag{Category: "count", Complexity: model.ComplexitySimple},
			QualityScore:    80,
			SuccessRate:     80,
			UsageCount:      4,
		}
	}
	r := newTestRanker(t, []model.Example{twin("b-twin"), twin("a-twin")})

	results := r.Select("count of open tickets", model.SchemaDescription{}, Options{MaxExamples: 2})
	require.Len(t, results, 2)
	assert.Equal(t, []string{"a-twin", "b-twin"}, resultIDs(results))
}

func TestRanker_Select_NonpositiveMax(t *testing.T) {
	r := newTestRanker(t, rankExamples())

	assert.Nil(t, r.Select("how many customers", rankSchema(), Options{MaxExamples: 0}))
	assert.Nil(t, r.Select("how many customers", rankSchema(), Options{MaxExamples: -3}))
}
