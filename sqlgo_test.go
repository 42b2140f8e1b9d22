package sqlgo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sqlgo/model"
	"github.com/hupe1980/sqlgo/testutil"
)

func TestEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("SelectExamples", func(t *testing.T) {
		eng, err := Open(ctx, Static(testutil.Corpus()))
		require.NoError(t, err)

		results, err := eng.SelectExamples(ctx, "how many customers do we have", testutil.Schema(), 3)
		require.NoError(t, err)
		require.NotEmpty(t, results)

		assert.Equal(t, "ex-count-customers", results[0].Example.ID)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].FinalScore, results[i].FinalScore)
		}
	})

	t.Run("SelectHonorsMax", func(t *testing.T) {
		eng, err := Open(ctx, Static(testutil.Corpus()))
		require.NoError(t, err)

		results, err := eng.SelectExamples(ctx, "orders per customer", testutil.Schema(), 2)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), 2)
	})

	t.Run("SelectValidation", func(t *testing.T) {
		eng, err := Open(ctx, Static(testutil.Corpus()))
		require.NoError(t, err)

		_, err = eng.SelectExamples(ctx, "   ", testutil.Schema(), 3)
		require.ErrorIs(t, err, ErrEmptyQuery)

		_, err = eng.SelectExamples(ctx, "how many customers", testutil.Schema(), 0)
		require.ErrorIs(t, err, ErrInvalidMax)
	})

	t.Run("SelectMinSimilarity", func(t *testing.T) {
		eng, err := Open(ctx, Static(testutil.Corpus()))
		require.NoError(t, err)

		// Nothing clears an impossible threshold.
		results, err := eng.SelectExamples(ctx, "how many customers do we have", testutil.Schema(), 3,
			func(o *SelectOptions) { o.MinSimilarity = 1.01 })
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("UpdateQuality", func(t *testing.T) {
		eng, err := Open(ctx, Static(testutil.Corpus()))
		require.NoError(t, err)

		before, ok := eng.Example("ex-count-customers")
		require.True(t, ok)

		require.NoError(t, eng.UpdateQuality(ctx, "ex-count-customers", true))

		after, ok := eng.Example("ex-count-customers")
		require.True(t, ok)
		assert.Equal(t, before.UsageCount+1, after.UsageCount)
		assert.Greater(t, after.SuccessRate, before.SuccessRate)

		err = eng.UpdateQuality(ctx, "no-such-example", true)
		require.ErrorIs(t, err, ErrUnknownExample)
	})

	t.Run("Quarantine", func(t *testing.T) {
		bad := model.Example{ID: "ex-broken", NaturalLanguage: "broken record"}
		eng, err := Open(ctx, Static(append(testutil.Corpus(), bad)))
		require.NoError(t, err)

		q := eng.Quarantined()
		require.Len(t, q, 1)
		assert.Equal(t, 5, q[0].Index)
		assert.Equal(t, "ex-broken", q[0].ID)
		assert.Contains(t, q[0].Reason, "missing sql")

		// Quarantined records are not selectable.
		_, ok := eng.Example("ex-broken")
		assert.False(t, ok)
	})

	t.Run("QuarantineDuplicate", func(t *testing.T) {
		corpus := testutil.Corpus()
		eng, err := Open(ctx, Static(append(corpus, corpus[0])))
		require.NoError(t, err)

		q := eng.Quarantined()
		require.Len(t, q, 1)
		assert.Equal(t, corpus[0].ID, q[0].ID)
		assert.Contains(t, q[0].Reason, "duplicate")
	})

	t.Run("Stats", func(t *testing.T) {
		eng, err := Open(ctx, Static(testutil.Corpus()))
		require.NoError(t, err)

		stats := eng.Stats()
		assert.Equal(t, 5, stats.Examples)
		assert.Positive(t, stats.Tokens)
		assert.Positive(t, stats.PatternKeys)
		assert.Zero(t, stats.Quarantined)
		assert.Zero(t, stats.Models)
		assert.Nil(t, stats.Operations)
	})
}

func openForGeneration(t *testing.T, inv *testutil.ScriptedInvoker, val *testutil.ScriptedValidator, optFns ...Option) *Engine {
	t.Helper()

	opts := []Option{WithModels(testutil.Descriptors()...)}
	if inv != nil {
		opts = append(opts, WithInvoker(inv))
	}
	if val != nil {
		opts = append(opts, WithValidator(val))
	}
	opts = append(opts, optFns...)

	eng, err := Open(context.Background(), Static(testutil.Corpus()), opts...)
	require.NoError(t, err)
	return eng
}

func TestEngine_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("RoutesToBestBackend", func(t *testing.T) {
		inv := &testutil.ScriptedInvoker{
			Default: model.ModelResponse{SQL: "SELECT COUNT(*) FROM customers", Confidence: 0.8},
		}
		eng := openForGeneration(t, inv, &testutil.ScriptedValidator{})

		result, err := eng.Generate(ctx, model.GenerationContext{
			Query:  "how many customers do we have",
			Schema: testutil.Schema(),
		})
		require.NoError(t, err)

		assert.Equal(t, "sql-pro", result.ModelUsed)
		assert.Equal(t, "SELECT COUNT(*) FROM customers", result.SQL)
		assert.NotEmpty(t, result.ID)
		assert.True(t, result.Validation.IsValid)

		// Category and dialect left open are filled in before invocation.
		calls := inv.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, model.CategorySimple, calls[0].Context.Category)
		assert.Equal(t, "postgres", calls[0].Context.Dialect)
	})

	t.Run("FallsBackAfterFailure", func(t *testing.T) {
		inv := &testutil.ScriptedInvoker{
			Errors:  map[string]error{"sql-pro": errors.New("backend unavailable")},
			Default: model.ModelResponse{SQL: "SELECT COUNT(*) FROM customers", Confidence: 0.7},
		}
		eng := openForGeneration(t, inv, &testutil.ScriptedValidator{})

		result, err := eng.Generate(ctx, model.GenerationContext{
			Query:  "how many customers do we have",
			Schema: testutil.Schema(),
		})
		require.NoError(t, err)

		assert.Equal(t, "insight-analytics", result.ModelUsed)
		assert.Equal(t, []string{"sql-pro", "insight-analytics"}, inv.CalledModels())

		calls := inv.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, 1, calls[1].Context.RetryAttempt)
		assert.Contains(t, calls[1].Context.PreviousError, "backend unavailable")
	})

	t.Run("RejectedSQLTriggersFallback", func(t *testing.T) {
		inv := &testutil.ScriptedInvoker{
			Responses: map[string]model.ModelResponse{
				"sql-pro": {SQL: "SELEC COUNT(*) FROM customers"},
			},
			Default: model.ModelResponse{SQL: "SELECT COUNT(*) FROM customers"},
		}
		val := &testutil.ScriptedValidator{RejectContaining: []string{"SELEC "}}
		eng := openForGeneration(t, inv, val)

		result, err := eng.Generate(ctx, model.GenerationContext{
			Query:  "how many customers do we have",
			Schema: testutil.Schema(),
		})
		require.NoError(t, err)

		assert.Equal(t, "insight-analytics", result.ModelUsed)
		assert.Equal(t, "SELECT COUNT(*) FROM customers", result.SQL)
	})

	t.Run("RetryBudgetExhausted", func(t *testing.T) {
		inv := &testutil.ScriptedInvoker{
			Errors: map[string]error{
				"sql-pro":           errors.New("down"),
				"general-fast":      errors.New("down"),
				"insight-analytics": errors.New("down"),
			},
		}
		eng := openForGeneration(t, inv, &testutil.ScriptedValidator{})

		_, err := eng.Generate(ctx, model.GenerationContext{
			Query:  "how many customers do we have",
			Schema: testutil.Schema(),
		})
		require.ErrorIs(t, err, ErrRetryBudgetExhausted)
		assert.Len(t, inv.CalledModels(), 3)
	})

	t.Run("UnknownDialect", func(t *testing.T) {
		inv := &testutil.ScriptedInvoker{}
		eng := openForGeneration(t, inv, &testutil.ScriptedValidator{})

		_, err := eng.Generate(ctx, model.GenerationContext{
			Query:   "how many customers do we have",
			Schema:  testutil.Schema(),
			Dialect: "sqlite",
		})
		require.ErrorIs(t, err, ErrNoEligibleBackend)
		assert.Empty(t, inv.CalledModels())
	})

	t.Run("NoInvoker", func(t *testing.T) {
		eng := openForGeneration(t, nil, &testutil.ScriptedValidator{})

		_, err := eng.Generate(ctx, model.GenerationContext{Query: "how many customers"})
		require.ErrorIs(t, err, ErrNoInvoker)
	})

	t.Run("NoValidator", func(t *testing.T) {
		eng := openForGeneration(t, &testutil.ScriptedInvoker{}, nil)

		_, err := eng.Generate(ctx, model.GenerationContext{Query: "how many customers"})
		require.ErrorIs(t, err, ErrNoValidator)
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		eng := openForGeneration(t, &testutil.ScriptedInvoker{}, &testutil.ScriptedValidator{})

		_, err := eng.Generate(ctx, model.GenerationContext{Query: "  "})
		require.ErrorIs(t, err, ErrEmptyQuery)
	})
}

func TestEngine_GenerateEnsemble(t *testing.T) {
	ctx := context.Background()

	t.Run("ReconcilesTopBackends", func(t *testing.T) {
		inv := &testutil.ScriptedInvoker{
			Responses: map[string]model.ModelResponse{
				"sql-pro":           {SQL: "SELECT COUNT(*) FROM customers", Confidence: 0.9},
				"insight-analytics": {SQL: "SELECT COUNT(*) FROM customers", Confidence: 0.8},
				"general-fast":      {SQL: "SELECT COUNT(id) FROM customers", Confidence: 0.5},
			},
		}
		eng := openForGeneration(t, inv, &testutil.ScriptedValidator{})

		result, err := eng.GenerateEnsemble(ctx, model.GenerationContext{
			Query:  "how many customers do we have",
			Schema: testutil.Schema(),
		})
		require.NoError(t, err)

		assert.Equal(t, "sql-pro", result.Primary.ModelUsed)
		assert.Len(t, result.Alternatives, 2)
		assert.Equal(t, "sql-pro", result.Recommended.ModelUsed)
		assert.Greater(t, result.ConsensusScore, 50.0)
		assert.Less(t, result.ConsensusScore, 100.0)
	})

	t.Run("IdenticalOutputsReachFullConsensus", func(t *testing.T) {
		inv := &testutil.ScriptedInvoker{
			Default: model.ModelResponse{SQL: "SELECT COUNT(*) FROM customers", Confidence: 0.8},
		}
		eng := openForGeneration(t, inv, &testutil.ScriptedValidator{})

		result, err := eng.GenerateEnsemble(ctx, model.GenerationContext{
			Query:  "how many customers do we have",
			Schema: testutil.Schema(),
		})
		require.NoError(t, err)
		assert.InDelta(t, 100.0, result.ConsensusScore, 1e-9)
	})

	t.Run("SurvivesSlotFailures", func(t *testing.T) {
		inv := &testutil.ScriptedInvoker{
			Errors:  map[string]error{"sql-pro": errors.New("down")},
			Default: model.ModelResponse{SQL: "SELECT COUNT(*) FROM customers", Confidence: 0.8},
		}
		eng := openForGeneration(t, inv, &testutil.ScriptedValidator{})

		result, err := eng.GenerateEnsemble(ctx, model.GenerationContext{
			Query:  "how many customers do we have",
			Schema: testutil.Schema(),
		})
		require.NoError(t, err)

		assert.Equal(t, "insight-analytics", result.Primary.ModelUsed)
		assert.Len(t, result.Alternatives, 1)
	})

	t.Run("AllSlotsFail", func(t *testing.T) {
		inv := &testutil.ScriptedInvoker{
			Errors: map[string]error{
				"sql-pro":           errors.New("down"),
				"general-fast":      errors.New("down"),
				"insight-analytics": errors.New("down"),
			},
		}
		eng := openForGeneration(t, inv, &testutil.ScriptedValidator{})

		_, err := eng.GenerateEnsemble(ctx, model.GenerationContext{
			Query:  "how many customers do we have",
			Schema: testutil.Schema(),
		})
		require.ErrorIs(t, err, ErrEnsembleFailed)
	})
}

func TestEngine_RecordSatisfaction(t *testing.T) {
	ctx := context.Background()

	inv := &testutil.ScriptedInvoker{
		Default: model.ModelResponse{SQL: "SELECT COUNT(*) FROM customers", Confidence: 0.8},
	}
	eng := openForGeneration(t, inv, &testutil.ScriptedValidator{})

	result, err := eng.Generate(ctx, model.GenerationContext{
		Query:  "how many customers do we have",
		Schema: testutil.Schema(),
	})
	require.NoError(t, err)

	require.NoError(t, eng.RecordSatisfaction(ctx, result.ID, 92))

	var found bool
	for _, s := range eng.Samples() {
		if s.ID == result.ID {
			found = true
			require.NotNil(t, s.Satisfaction)
			assert.InDelta(t, 92.0, *s.Satisfaction, 1e-9)
		}
	}
	require.True(t, found)

	err = eng.RecordSatisfaction(ctx, "no-such-sample", 50)
	require.ErrorIs(t, err, ErrUnknownSample)
}

func TestEngine_Metrics(t *testing.T) {
	ctx := context.Background()

	metrics := &BasicMetricsCollector{}
	eng, err := Open(ctx, Static(testutil.Corpus()), WithMetricsCollector(metrics))
	require.NoError(t, err)

	_, err = eng.SelectExamples(ctx, "how many customers do we have", testutil.Schema(), 3)
	require.NoError(t, err)

	require.NoError(t, eng.UpdateQuality(ctx, "ex-count-customers", true))
	require.Error(t, eng.UpdateQuality(ctx, "no-such-example", true))

	stats := eng.Stats()
	require.NotNil(t, stats.Operations)
	assert.Equal(t, int64(1), stats.Operations.LoadCount)
	assert.Equal(t, int64(5), stats.Operations.LoadExamples)
	assert.Equal(t, int64(1), stats.Operations.SelectCount)
	assert.Equal(t, int64(2), stats.Operations.FeedbackCount)
	assert.Equal(t, int64(1), stats.Operations.FeedbackErrors)
}

func TestEngine_RegisterModel(t *testing.T) {
	ctx := context.Background()

	eng, err := Open(ctx, Static(testutil.Corpus()))
	require.NoError(t, err)
	require.Empty(t, eng.Models())

	desc, err := Model("sql-pro").
		SQLSpecialized().
		Dialects("postgres").
		AccuracyPrior(88).
		Build()
	require.NoError(t, err)

	require.NoError(t, eng.RegisterModel(desc))

	models := eng.Models()
	require.Len(t, models, 1)
	assert.Equal(t, "sql-pro", models[0].ID)
	assert.Equal(t, 1, eng.Stats().Models)
}
