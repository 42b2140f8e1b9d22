package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/sqlgo/model"
	"github.com/hupe1980/sqlgo/orchestrator"
)

// RNG encapsulates a seeded random number generator. It is thread-safe
// and resettable, so benchmarks can replay identical corpora.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rand.Float64()
}

// Schema returns the retail schema used across tests: customers place
// orders, orders contain order_items, order_items reference products.
func Schema() model.SchemaDescription {
	return model.SchemaDescription{
		Tables: map[string]model.TableSchema{
			"customers": {
				Name: "customers",
				Columns: []model.ColumnInfo{
					{Name: "id", DataType: "bigint", IsPrimaryKey: true},
					{Name: "name", DataType: "text"},
					{Name: "email", DataType: "text"},
					{Name: "created_at", DataType: "timestamptz"},
				},
				PrimaryKeys: []string{"id"},
				RowCount:    1200,
			},
			"orders": {
				Name: "orders",
				Columns: []model.ColumnInfo{
					{Name: "id", DataType: "bigint", IsPrimaryKey: true},
					{Name: "customer_id", DataType: "bigint", IsForeignKey: true},
					{Name: "total", DataType: "numeric"},
					{Name: "created_at", DataType: "timestamptz"},
				},
				PrimaryKeys: []string{"id"},
				ForeignKeys: []model.ForeignKey{
					{Column: "customer_id", ReferencedTable: "customers", ReferencedColumn: "id"},
				},
				RowCount: 58000,
			},
			"products": {
				Name: "products",
				Columns: []model.ColumnInfo{
					{Name: "id", DataType: "bigint", IsPrimaryKey: true},
					{Name: "name", DataType: "text"},
					{Name: "price", DataType: "numeric"},
				},
				PrimaryKeys: []string{"id"},
				RowCount:    450,
			},
			"order_items": {
				Name: "order_items",
				Columns: []model.ColumnInfo{
					{Name: "order_id", DataType: "bigint", IsForeignKey: true},
					{Name: "product_id", DataType: "bigint", IsForeignKey: true},
					{Name: "quantity", DataType: "integer"},
					{Name: "unit_price", DataType: "numeric"},
				},
				ForeignKeys: []model.ForeignKey{
					{Column: "order_id", ReferencedTable: "orders", ReferencedColumn: "id"},
					{Column: "product_id", ReferencedTable: "products", ReferencedColumn: "id"},
				},
				RowCount: 142000,
			},
		},
		Relationships: []model.Relationship{
			{FromTable: "orders", FromColumn: "customer_id", ToTable: "customers", ToColumn: "id"},
			{FromTable: "order_items", FromColumn: "order_id", ToTable: "orders", ToColumn: "id"},
			{FromTable: "order_items", FromColumn: "product_id", ToTable: "products", ToColumn: "id"},
		},
	}
}

// Corpus returns a small retail example corpus covering the common query
// shapes. IDs are stable so tests can assert on selection results.
func Corpus() []model.Example {
	return []model.Example{
		{
			ID:              "ex-count-customers",
			NaturalLanguage: "how many customers do we have",
			SQL:             "SELECT COUNT(*) FROM customers",
			Explanation:     "counts all customer rows",
			Pattern: model.PatternTag{
				Category:         "count",
				Complexity:       model.ComplexitySimple,
				ReferencedTables: []string{"customers"},
			},
			QualityScore: 92,
			SuccessRate:  96,
			UsageCount:   40,
		},
		{
			ID:              "ex-orders-per-customer",
			NaturalLanguage: "how many orders did each customer place",
			SQL:             "SELECT c.name, COUNT(o.id) FROM customers c LEFT JOIN orders o ON o.customer_id = c.id GROUP BY c.name",
			Pattern: model.PatternTag{
				Category:         "count",
				Complexity:       model.ComplexityMedium,
				ReferencedTables: []string{"customers", "orders"},
			},
			QualityScore: 86,
			SuccessRate:  88,
			UsageCount:   18,
		},
		{
			ID:              "ex-top-products",
			NaturalLanguage: "top 5 products by total sales",
			SQL:             "SELECT p.name, SUM(oi.quantity * oi.unit_price) AS sales FROM products p JOIN order_items oi ON oi.product_id = p.id GROUP BY p.name ORDER BY sales DESC LIMIT 5",
			Pattern: model.PatternTag{
				Category:         "ranking",
				Complexity:       model.ComplexityMedium,
				ReferencedTables: []string{"products", "order_items"},
			},
			QualityScore: 88,
			SuccessRate:  90,
			UsageCount:   25,
		},
		{
			ID:              "ex-monthly-revenue",
			NaturalLanguage: "total revenue per month over the last year",
			SQL:             "SELECT DATE_TRUNC('month', created_at) AS month, SUM(total) FROM orders WHERE created_at >= NOW() - INTERVAL '1 year' GROUP BY month ORDER BY month",
			Pattern: model.PatternTag{
				Category:         "trend",
				Complexity:       model.ComplexityComplex,
				ReferencedTables: []string{"orders"},
			},
			QualityScore: 90,
			SuccessRate:  85,
			UsageCount:   12,
		},
		{
			ID:              "ex-average-order-value",
			NaturalLanguage: "average order value",
			SQL:             "SELECT AVG(total) FROM orders",
			Pattern: model.PatternTag{
				Category:         "aggregation",
				Complexity:       model.ComplexitySimple,
				ReferencedTables: []string{"orders"},
			},
			QualityScore: 84,
			SuccessRate:  92,
			UsageCount:   30,
		},
	}
}

// Descriptors returns three configured postgres backends with distinct
// specializations and priors.
func Descriptors() []model.ModelDescriptor {
	return []model.ModelDescriptor{
		{
			ID:                "sql-pro",
			Specialization:    model.SpecializationSQL,
			SupportedDialects: []string{"postgres", "mysql"},
			AccuracyPrior:     88,
			CostPerQuery:      0.002,
			AverageLatency:    900 * time.Millisecond,
			Priority:          1,
			Configured:        true,
		},
		{
			ID:                "general-fast",
			Specialization:    model.SpecializationGeneral,
			SupportedDialects: []string{"postgres"},
			AccuracyPrior:     74,
			CostPerQuery:      0,
			AverageLatency:    300 * time.Millisecond,
			Priority:          2,
			Configured:        true,
		},
		{
			ID:                "insight-analytics",
			Specialization:    model.SpecializationAnalytics,
			SupportedDialects: []string{"postgres"},
			AccuracyPrior:     81,
			CostPerQuery:      0.004,
			AverageLatency:    1500 * time.Millisecond,
			Priority:          3,
			Configured:        true,
		},
	}
}

// GenerateCorpus returns n synthetic examples derived from the RNG, so
// loader and ranking benchmarks can build corpora of any size
// reproducibly.
func GenerateCorpus(rng *RNG, n int) []model.Example {
	categories := []string{"count", "ranking", "aggregation", "trend", "filter", "join"}
	complexities := []model.Complexity{model.ComplexitySimple, model.ComplexityMedium, model.ComplexityComplex}
	tables := []string{"customers", "orders", "products", "order_items", "categories"}

	out := make([]model.Example, n)
	for i := range out {
		cat := categories[rng.Intn(len(categories))]
		table := tables[rng.Intn(len(tables))]

		out[i] = model.Example{
			ID:              fmt.Sprintf("gen-%04d", i),
			NaturalLanguage: fmt.Sprintf("%s of %s number %d", cat, table, i),
			SQL:             fmt.Sprintf("SELECT * FROM %s WHERE id = %d", table, i),
			Pattern: model.PatternTag{
				Category:         cat,
				Complexity:       complexities[rng.Intn(len(complexities))],
				ReferencedTables: []string{table},
			},
			QualityScore: 50 + rng.Float64()*50,
			SuccessRate:  50 + rng.Float64()*50,
			UsageCount:   int64(rng.Intn(20)),
		}
	}

	return out
}

// Invocation is one recorded backend call.
type Invocation struct {
	ModelID string
	Context model.GenerationContext
}

// ScriptedInvoker returns canned responses per backend id and records
// every call. Configure the maps before use; they are not mutated.
type ScriptedInvoker struct {
	// Responses maps backend ids to their canned response.
	Responses map[string]model.ModelResponse

	// Errors maps backend ids to an injected invocation error. Takes
	// precedence over Responses.
	Errors map[string]error

	// Default is returned for ids absent from both maps.
	Default model.ModelResponse

	// Delay simulates backend latency, honoring ctx cancellation.
	Delay time.Duration

	mu    sync.Mutex
	calls []Invocation
}

// Compile-time check that ScriptedInvoker implements orchestrator.Invoker.
var _ orchestrator.Invoker = (*ScriptedInvoker)(nil)

// Invoke implements orchestrator.Invoker.
func (s *ScriptedInvoker) Invoke(ctx context.Context, desc model.ModelDescriptor, gc model.GenerationContext) (model.ModelResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Invocation{ModelID: desc.ID, Context: gc})
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return model.ModelResponse{}, ctx.Err()
		case <-time.After(s.Delay):
		}
	}

	if err, ok := s.Errors[desc.ID]; ok {
		return model.ModelResponse{}, err
	}

	if resp, ok := s.Responses[desc.ID]; ok {
		return resp, nil
	}

	return s.Default, nil
}

// Calls returns the recorded invocations in call order.
func (s *ScriptedInvoker) Calls() []Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Invocation(nil), s.calls...)
}

// CalledModels returns just the backend ids in call order.
func (s *ScriptedInvoker) CalledModels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.ModelID
	}

	return out
}

// ScriptedValidator validates statements by substring matching and
// records every call.
type ScriptedValidator struct {
	// RejectContaining marks statements containing any of these
	// fragments as syntax errors.
	RejectContaining []string

	// Confidence is attached to valid results; 0 defaults to 0.9.
	Confidence float64

	// Warnings are attached to valid results.
	Warnings []string

	// Err, when set, fails every call outright.
	Err error

	mu    sync.Mutex
	calls []string
}

// Compile-time check that ScriptedValidator implements orchestrator.Validator.
var _ orchestrator.Validator = (*ScriptedValidator)(nil)

// Validate implements orchestrator.Validator.
func (v *ScriptedValidator) Validate(_ context.Context, sql string, _ model.SchemaDescription) (model.ValidationResult, error) {
	v.mu.Lock()
	v.calls = append(v.calls, sql)
	v.mu.Unlock()

	if v.Err != nil {
		return model.ValidationResult{}, v.Err
	}

	for _, frag := range v.RejectContaining {
		if strings.Contains(sql, frag) {
			return model.ValidationResult{
				SyntaxErrors: []string{fmt.Sprintf("unexpected token %q", frag)},
			}, nil
		}
	}

	confidence := v.Confidence
	if confidence == 0 {
		confidence = 0.9
	}

	return model.ValidationResult{
		IsValid:    true,
		Confidence: confidence,
		Warnings:   v.Warnings,
	}, nil
}

// Validated returns the statements seen so far, in call order.
func (v *ScriptedValidator) Validated() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return append([]string(nil), v.calls...)
}
