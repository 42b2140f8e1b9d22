package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hupe1980/sqlgo"
	"github.com/hupe1980/sqlgo/model"
	"github.com/hupe1980/sqlgo/orchestrator"
)

func main() {
	ctx := context.Background()

	eng, err := sqlgo.Open(ctx, sqlgo.Static(corpus()),
		sqlgo.WithModels(
			sqlgo.Model("sql-pro").
				SQLSpecialized().
				Dialects("postgres").
				AccuracyPrior(88).
				CostPerQuery(0.002).
				AverageLatency(900*time.Millisecond).
				MustBuild(),
			sqlgo.Model("insight-analytics").
				Analytics().
				Dialects("postgres").
				AccuracyPrior(82).
				CostPerQuery(0.004).
				AverageLatency(1500*time.Millisecond).
				MustBuild(),
			sqlgo.Model("general-fast").
				Dialects("postgres").
				AccuracyPrior(74).
				AverageLatency(300*time.Millisecond).
				MustBuild(),
		),
		sqlgo.WithInvoker(invoker()),
		sqlgo.WithValidator(validator()),
	)
	if err != nil {
		log.Fatal(err)
	}

	stats := eng.Stats()

	fmt.Println("--- Corpus ---")
	fmt.Println("Examples:", stats.Examples)
	fmt.Println("Tokens:", stats.Tokens)
	fmt.Println("Pattern keys:", stats.PatternKeys)
	fmt.Println()

	query := "how many customers signed up last month"
	schema := retailSchema()

	fmt.Println("--- Select ---")

	start := time.Now()

	examples, err := eng.SelectExamples(ctx, query, schema, 3)
	if err != nil {
		log.Fatal(err)
	}

	end := time.Since(start)

	printExamples(examples)
	fmt.Printf("Seconds: %.6f\n\n", end.Seconds())

	fmt.Println("--- Generate ---")

	start = time.Now()

	result, err := eng.Generate(ctx, model.GenerationContext{
		Query:  query,
		Schema: schema,
	})
	if err != nil {
		log.Fatal(err)
	}

	end = time.Since(start)

	fmt.Println("Model:", result.ModelUsed)
	fmt.Println("SQL:", result.SQL)
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	fmt.Printf("Seconds: %.6f\n\n", end.Seconds())

	fmt.Println("--- Ensemble ---")

	start = time.Now()

	ensemble, err := eng.GenerateEnsemble(ctx, model.GenerationContext{
		Query:  "total revenue per month over the last year",
		Schema: schema,
	})
	if err != nil {
		log.Fatal(err)
	}

	end = time.Since(start)

	fmt.Println("Primary:", ensemble.Primary.ModelUsed)
	fmt.Println("Recommended:", ensemble.Recommended.ModelUsed)
	fmt.Println("Alternatives:", len(ensemble.Alternatives))
	fmt.Printf("Consensus: %.1f\n", ensemble.ConsensusScore)
	fmt.Printf("Seconds: %.6f\n\n", end.Seconds())

	fmt.Println("--- Feedback ---")

	if err := eng.UpdateQuality(ctx, examples[0].ID, true); err != nil {
		log.Fatal(err)
	}

	if err := eng.RecordSatisfaction(ctx, result.ID, 90); err != nil {
		log.Fatal(err)
	}

	ex, _ := eng.Example(examples[0].ID)
	fmt.Println("Example:", ex.ID)
	fmt.Println("Usage count:", ex.UsageCount)
	fmt.Printf("Success rate: %.1f\n", ex.SuccessRate)
	fmt.Println("Samples:", len(eng.Samples()))
}

func printExamples(examples []model.RankedExample) {
	for _, ex := range examples {
		fmt.Printf("ID: %s, Final: %.3f, Similarity: %.3f\n", ex.ID, ex.FinalScore, ex.SimilarityScore)
	}
}

// invoker fakes three generation backends with canned responses. A real
// deployment would call the service behind desc.ID here.
func invoker() orchestrator.Invoker {
	canned := map[string]map[string]string{
		"count": {
			"sql-pro":           "SELECT COUNT(*) FROM customers WHERE created_at >= date_trunc('month', now() - interval '1 month')",
			"insight-analytics": "SELECT COUNT(*) FROM customers WHERE created_at >= date_trunc('month', now() - interval '1 month')",
			"general-fast":      "SELECT COUNT(id) FROM customers WHERE created_at >= date_trunc('month', now() - interval '1 month')",
		},
		"revenue": {
			"sql-pro":           "SELECT date_trunc('month', created_at) AS month, SUM(total) FROM orders GROUP BY month ORDER BY month",
			"insight-analytics": "SELECT date_trunc('month', created_at) AS month, SUM(total) FROM orders GROUP BY month ORDER BY month",
			"general-fast":      "SELECT date_trunc('month', o.created_at) AS month, SUM(o.total) FROM orders o GROUP BY month ORDER BY month",
		},
	}

	confidence := map[string]float64{
		"sql-pro":           0.92,
		"insight-analytics": 0.85,
		"general-fast":      0.70,
	}

	return orchestrator.InvokerFunc(func(_ context.Context, desc model.ModelDescriptor, gc model.GenerationContext) (model.ModelResponse, error) {
		kind := "count"
		if strings.Contains(gc.Query, "revenue") {
			kind = "revenue"
		}

		return model.ModelResponse{
			SQL:        canned[kind][desc.ID],
			Confidence: confidence[desc.ID],
		}, nil
	})
}

func validator() orchestrator.Validator {
	return orchestrator.ValidatorFunc(func(_ context.Context, sql string, _ model.SchemaDescription) (model.ValidationResult, error) {
		if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sql)), "SELECT") {
			return model.ValidationResult{SyntaxErrors: []string{"only SELECT statements are allowed"}}, nil
		}
		return model.ValidationResult{IsValid: true, Confidence: 0.95}, nil
	})
}

func corpus() []model.Example {
	return []model.Example{
		{
			ID:              "ex-count-customers",
			NaturalLanguage: "how many customers do we have",
			SQL:             "SELECT COUNT(*) FROM customers",
			Pattern: model.PatternTag{
				Category:         "count",
				Complexity:       model.ComplexitySimple,
				ReferencedTables: []string{"customers"},
			},
			QualityScore: 92,
			SuccessRate:  96,
		},
		{
			ID:              "ex-monthly-signups",
			NaturalLanguage: "customer signups per month",
			SQL:             "SELECT date_trunc('month', created_at) AS month, COUNT(*) FROM customers GROUP BY month ORDER BY month",
			Pattern: model.PatternTag{
				Category:         "trend",
				Complexity:       model.ComplexityComplex,
				ReferencedTables: []string{"customers"},
			},
			QualityScore: 88,
			SuccessRate:  91,
		},
		{
			ID:              "ex-monthly-revenue",
			NaturalLanguage: "total revenue per month",
			SQL:             "SELECT date_trunc('month', created_at) AS month, SUM(total) FROM orders GROUP BY month ORDER BY month",
			Pattern: model.PatternTag{
				Category:         "trend",
				Complexity:       model.ComplexityComplex,
				ReferencedTables: []string{"orders"},
			},
			QualityScore: 90,
			SuccessRate:  93,
		},
		{
			ID:              "ex-top-customers",
			NaturalLanguage: "top 10 customers by total order value",
			SQL:             "SELECT c.id, c.email, SUM(o.total) AS value FROM customers c JOIN orders o ON o.customer_id = c.id GROUP BY c.id, c.email ORDER BY value DESC LIMIT 10",
			Pattern: model.PatternTag{
				Category:         "ranking",
				Complexity:       model.ComplexityComplex,
				ReferencedTables: []string{"customers", "orders"},
			},
			QualityScore: 86,
			SuccessRate:  89,
		},
	}
}

func retailSchema() model.SchemaDescription {
	return model.SchemaDescription{
		Tables: map[string]model.TableSchema{
			"customers": {
				Name: "customers",
				Columns: []model.ColumnInfo{
					{Name: "id", DataType: "bigint", IsPrimaryKey: true},
					{Name: "email", DataType: "text"},
					{Name: "created_at", DataType: "timestamptz"},
				},
				PrimaryKeys: []string{"id"},
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
			},
		},
		Relationships: []model.Relationship{
			{FromTable: "orders", FromColumn: "customer_id", ToTable: "customers", ToColumn: "id"},
		},
	}
}
