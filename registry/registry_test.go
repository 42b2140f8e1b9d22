package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sqlgo/model"
)

// generalBackend returns a configured postgres backend with a small but
// non-zero cost so neither the free bonus nor the cost penalty fires.
func generalBackend(id string, prior float64) model.ModelDescriptor {
	return model.ModelDescriptor{
		ID:                id,
		Specialization:    model.SpecializationGeneral,
		SupportedDialects: []string{"postgres"},
		AccuracyPrior:     prior,
		CostPerQuery:      0.005,
		AverageLatency:    800 * time.Millisecond,
		Priority:          1,
		Configured:        true,
	}
}

func newTestRegistry(t *testing.T, descs ...model.ModelDescriptor) *Registry {
	t.Helper()

	r := New()
	for _, d := range descs {
		require.NoError(t, r.Register(d))
	}

	return r
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()

	_, err := r.Model("missing")
	require.ErrorIs(t, err, ErrUnknownModel)

	require.Error(t, r.Register(model.ModelDescriptor{}), "descriptor without id must be rejected")

	require.NoError(t, r.Register(generalBackend("bravo", 70)))
	require.NoError(t, r.Register(generalBackend("alpha", 80)))

	d, err := r.Model("alpha")
	require.NoError(t, err)
	assert.Equal(t, 80.0, d.AccuracyPrior)

	models := r.Models()
	require.Len(t, models, 2)
	assert.Equal(t, "alpha", models[0].ID)
	assert.Equal(t, "bravo", models[1].ID)
	assert.Equal(t, 2, r.Len())

	// Registering the same id again replaces the descriptor.
	require.NoError(t, r.Register(generalBackend("alpha", 60)))

	d, err = r.Model("alpha")
	require.NoError(t, err)
	assert.Equal(t, 60.0, d.AccuracyPrior)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Score_StaticAdjustments(t *testing.T) {
	r := New()

	tests := []struct {
		name           string
		specialization model.Specialization
		cost           float64
		sc             ScoreContext
		want           float64
	}{
		{
			name:           "GeneralNoAdjustments",
			specialization: model.SpecializationGeneral,
			cost:           0.005,
			sc:             ScoreContext{Category: model.CategoryComplex},
			want:           80,
		},
		{
			name:           "SQLSpecializedBonus",
			specialization: model.SpecializationSQL,
			cost:           0.005,
			sc:             ScoreContext{Category: model.CategoryComplex},
			want:           90,
		},
		{
			name:           "SQLSpecializedNoBonusOnAnalytics",
			specialization: model.SpecializationSQL,
			cost:           0.005,
			sc:             ScoreContext{Category: model.CategoryAnalytics},
			want:           80,
		},
		{
			name:           "AnalyticsSpecializedBonusOnAnalytics",
			specialization: model.SpecializationAnalytics,
			cost:           0.005,
			sc:             ScoreContext{Category: model.CategoryAnalytics},
			want:           95,
		},
		{
			name:           "AnalyticsSpecializedNoBonusOnSimple",
			specialization: model.SpecializationAnalytics,
			cost:           0.005,
			sc:             ScoreContext{Category: model.CategorySimple},
			want:           80,
		},
		{
			name:           "FreeBonus",
			specialization: model.SpecializationGeneral,
			cost:           0,
			sc:             ScoreContext{Category: model.CategoryComplex},
			want:           82,
		},
		{
			name:           "CostPenaltyOnSimple",
			specialization: model.SpecializationGeneral,
			cost:           0.02,
			sc:             ScoreContext{Category: model.CategorySimple},
			want:           75,
		},
		{
			name:           "NoCostPenaltyOnComplex",
			specialization: model.SpecializationGeneral,
			cost:           0.02,
			sc:             ScoreContext{Category: model.CategoryComplex},
			want:           80,
		},
		{
			name:           "CostBoundaryIsExclusive",
			specialization: model.SpecializationGeneral,
			cost:           0.01,
			sc:             ScoreContext{Category: model.CategorySimple},
			want:           80,
		},
		{
			name:           "RetryBonusForSQLSpecialized",
			specialization: model.SpecializationSQL,
			cost:           0.005,
			sc:             ScoreContext{Category: model.CategoryComplex, RetryAttempt: 1},
			want:           95,
		},
		{
			name:           "NoRetryBonusForGeneral",
			specialization: model.SpecializationGeneral,
			cost:           0.005,
			sc:             ScoreContext{Category: model.CategoryComplex, RetryAttempt: 2},
			want:           80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := generalBackend("m1", 80)
			d.Specialization = tt.specialization
			d.CostPerQuery = tt.cost

			assert.InDelta(t, tt.want, r.Score(d, tt.sc), 1e-9)
		})
	}
}

func TestRegistry_Score_RecentBlend(t *testing.T) {
	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	seed := func(r *Registry, modelID string, n int, accuracy float64, latency time.Duration, ts time.Time) {
		for i := 0; i < n; i++ {
			r.Record(model.PerformanceSample{
				ID:        fmt.Sprintf("%s-%d", modelID, i),
				ModelID:   modelID,
				Category:  model.CategorySimple,
				Accuracy:  accuracy,
				Latency:   latency,
				Timestamp: ts,
			})
		}
	}

	newFixedRegistry := func() *Registry {
		r := New()
		r.now = func() time.Time { return base }
		return r
	}

	sc := ScoreContext{Category: model.CategorySimple}

	t.Run("BlendsObservedAccuracy", func(t *testing.T) {
		r := newFixedRegistry()
		seed(r, "m1", 10, 90, 100*time.Millisecond, base.Add(-time.Hour))

		// 0.3*80 + 0.4*90 + 0.3*90: accuracy stands in for satisfaction.
		assert.InDelta(t, 87.0, r.Score(generalBackend("m1", 80), sc), 1e-9)
	})

	t.Run("SatisfactionReplacesStandIn", func(t *testing.T) {
		r := newFixedRegistry()
		seed(r, "m1", 10, 90, 100*time.Millisecond, base.Add(-time.Hour))

		for i := 0; i < 10; i++ {
			require.NoError(t, r.AttachSatisfaction(fmt.Sprintf("m1-%d", i), 50))
		}

		// 0.3*80 + 0.4*90 + 0.3*50
		assert.InDelta(t, 75.0, r.Score(generalBackend("m1", 80), sc), 1e-9)
	})

	t.Run("BelowThresholdKeepsPrior", func(t *testing.T) {
		r := newFixedRegistry()
		seed(r, "m1", 9, 90, 100*time.Millisecond, base.Add(-time.Hour))

		assert.InDelta(t, 80.0, r.Score(generalBackend("m1", 80), sc), 1e-9)
	})

	t.Run("SamplesOutsideWindowIgnored", func(t *testing.T) {
		r := newFixedRegistry()
		seed(r, "m1", 10, 90, 100*time.Millisecond, base.Add(-31*24*time.Hour))

		assert.InDelta(t, 80.0, r.Score(generalBackend("m1", 80), sc), 1e-9)
	})

	t.Run("CategoriesAreIsolated", func(t *testing.T) {
		r := newFixedRegistry()
		seed(r, "m1", 10, 90, 100*time.Millisecond, base.Add(-time.Hour))

		assert.InDelta(t, 80.0, r.Score(generalBackend("m1", 80), ScoreContext{Category: model.CategoryComplex}), 1e-9)
	})

	t.Run("SlowBackendPenalized", func(t *testing.T) {
		r := newFixedRegistry()
		seed(r, "slow", 10, 90, 6*time.Second, base.Add(-time.Hour))
		seed(r, "sluggish", 10, 90, 4*time.Second, base.Add(-time.Hour))

		assert.InDelta(t, 77.0, r.Score(generalBackend("slow", 80), sc), 1e-9)
		assert.InDelta(t, 82.0, r.Score(generalBackend("sluggish", 80), sc), 1e-9)
	})
}

func TestRegistry_Record_RingBound(t *testing.T) {
	r := New(WithSampleCap(5))

	for i := 0; i < 8; i++ {
		r.Record(model.PerformanceSample{
			ID:       fmt.Sprintf("s-%d", i),
			ModelID:  "m1",
			Category: model.CategorySimple,
		})
	}

	samples := r.Samples()
	require.Len(t, samples, 5)
	assert.Equal(t, "s-3", samples[0].ID, "oldest surviving sample")
	assert.Equal(t, "s-7", samples[4].ID, "newest sample")
}

func TestRegistry_Record_ConcurrentWriters(t *testing.T) {
	r := New(WithSampleCap(64))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				r.Record(model.PerformanceSample{
					ID:       fmt.Sprintf("g%d-s%d", g, i),
					ModelID:  "m1",
					Category: model.CategorySimple,
				})
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 64, r.SampleCount())
}

func TestRegistry_Record_PriorDrift(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(generalBackend("m1", 80)))

	record := func(i int) {
		r.Record(model.PerformanceSample{
			ID:       fmt.Sprintf("s-%d", i),
			ModelID:  "m1",
			Category: model.CategorySimple,
			Accuracy: 100,
		})
	}

	for i := 0; i < minDriftSamples-1; i++ {
		record(i)
	}

	d, err := r.Model("m1")
	require.NoError(t, err)
	assert.Equal(t, 80.0, d.AccuracyPrior, "prior must not move below the drift threshold")

	record(minDriftSamples - 1)

	d, err = r.Model("m1")
	require.NoError(t, err)
	assert.InDelta(t, 81.0, d.AccuracyPrior, 1e-9, "0.95*80 + 0.05*100")

	record(minDriftSamples)

	d, err = r.Model("m1")
	require.NoError(t, err)
	assert.InDelta(t, 81.95, d.AccuracyPrior, 1e-9, "0.95*81 + 0.05*100")
	assert.LessOrEqual(t, d.AccuracyPrior, 100.0)
}

func TestRegistry_Best(t *testing.T) {
	alpha := generalBackend("alpha", 80)
	alpha.CostPerQuery = 0

	bravo := generalBackend("bravo", 85)
	bravo.CostPerQuery = 0.02

	charlie := generalBackend("charlie", 99)
	charlie.SupportedDialects = []string{"mysql"}

	delta := generalBackend("delta", 99)
	delta.Configured = false

	r := newTestRegistry(t, alpha, bravo, charlie, delta)

	t.Run("HighestScoreWins", func(t *testing.T) {
		// complex: bravo 85 beats alpha 80+2.
		best, err := r.Best("postgres", ScoreContext{Category: model.CategoryComplex}, nil)
		require.NoError(t, err)
		assert.Equal(t, "bravo", best.ID)
	})

	t.Run("CostPenaltyFlipsSelectionOnSimple", func(t *testing.T) {
		// simple: bravo 85-5=80, alpha 80+2=82.
		best, err := r.Best("postgres", ScoreContext{Category: model.CategorySimple}, nil)
		require.NoError(t, err)
		assert.Equal(t, "alpha", best.ID)
	})

	t.Run("ExclusionSkipsTriedBackend", func(t *testing.T) {
		best, err := r.Best("postgres", ScoreContext{Category: model.CategoryComplex}, map[string]bool{"bravo": true})
		require.NoError(t, err)
		assert.Equal(t, "alpha", best.ID)
	})

	t.Run("DialectMustBeSupported", func(t *testing.T) {
		best, err := r.Best("mysql", ScoreContext{Category: model.CategoryComplex}, nil)
		require.NoError(t, err)
		assert.Equal(t, "charlie", best.ID)
	})

	t.Run("UnconfiguredNeverSelected", func(t *testing.T) {
		best, err := r.Best("postgres", ScoreContext{Category: model.CategoryComplex}, nil)
		require.NoError(t, err)
		assert.NotEqual(t, "delta", best.ID)
	})

	t.Run("NoEligibleBackend", func(t *testing.T) {
		_, err := r.Best("sqlite", ScoreContext{Category: model.CategoryComplex}, nil)
		require.ErrorIs(t, err, ErrNoEligibleModel)
	})
}

func TestRegistry_Best_TieBreaks(t *testing.T) {
	zeta := generalBackend("zeta", 80)
	zeta.Priority = 1

	alpha := generalBackend("alpha", 80)
	alpha.Priority = 2

	r := newTestRegistry(t, zeta, alpha)

	best, err := r.Best("postgres", ScoreContext{Category: model.CategoryComplex}, nil)
	require.NoError(t, err)
	assert.Equal(t, "zeta", best.ID, "equal scores break on lower priority")

	yankee := generalBackend("yankee", 80)
	yankee.Priority = 1
	require.NoError(t, r.Register(yankee))

	best, err = r.Best("postgres", ScoreContext{Category: model.CategoryComplex}, nil)
	require.NoError(t, err)
	assert.Equal(t, "yankee", best.ID, "equal priorities break on lexicographic id")
}

func TestRegistry_TopN(t *testing.T) {
	r := newTestRegistry(t,
		generalBackend("alpha", 90),
		generalBackend("bravo", 80),
		generalBackend("charlie", 70),
	)

	sc := ScoreContext{Category: model.CategoryComplex}

	top, err := r.TopN(2, "postgres", sc, nil)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "alpha", top[0].ID)
	assert.Equal(t, "bravo", top[1].ID)

	all, err := r.TopN(5, "postgres", sc, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3, "fewer eligible than requested returns all")

	_, err = r.TopN(3, "sqlite", sc, nil)
	require.ErrorIs(t, err, ErrNoEligibleModel)

	_, err = r.TopN(0, "postgres", sc, nil)
	require.Error(t, err)
}

func TestRegistry_AttachSatisfaction(t *testing.T) {
	r := New()
	r.Record(model.PerformanceSample{
		ID:       "s-1",
		ModelID:  "m1",
		Category: model.CategorySimple,
		Accuracy: 95,
	})

	require.NoError(t, r.AttachSatisfaction("s-1", 90))

	samples := r.Samples()
	require.Len(t, samples, 1)
	require.NotNil(t, samples[0].Satisfaction)
	assert.Equal(t, 90.0, *samples[0].Satisfaction)

	err := r.AttachSatisfaction("missing", 50)
	require.ErrorIs(t, err, ErrUnknownSample)

	require.Error(t, r.AttachSatisfaction("s-1", 101))
	require.Error(t, r.AttachSatisfaction("s-1", -1))

	// Snapshots are isolated from the ring.
	*samples[0].Satisfaction = 10

	again := r.Samples()
	require.NotNil(t, again[0].Satisfaction)
	assert.Equal(t, 90.0, *again[0].Satisfaction)
}

func TestRegistry_FreeBackendWinsOnSimple(t *testing.T) {
	paid := generalBackend("paid", 80)

	free := generalBackend("free", 80)
	free.CostPerQuery = 0

	r := newTestRegistry(t, paid, free)

	sc := ScoreContext{Category: model.CategorySimple}
	assert.Greater(t, r.Score(free, sc), r.Score(paid, sc))

	best, err := r.Best("postgres", sc, nil)
	require.NoError(t, err)
	assert.Equal(t, "free", best.ID)
}
