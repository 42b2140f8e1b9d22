// Package registry maintains the set of configured generation backends,
// scores them against a concrete request, and buffers the performance
// samples that feed observed accuracy and satisfaction back into those
// scores.
//
// Scoring starts from a backend's static AccuracyPrior and specialization
// and, once enough recent samples exist for the (model, category) pair,
// blends in live accuracy, satisfaction and latency. The sample ring is
// bounded and safe for concurrent writers, so ensemble fan-out can record
// without coordination.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/sqlgo/model"
)

const (
	// DefaultSampleCap bounds the in-memory performance sample ring.
	DefaultSampleCap = 1000

	// recentWindow is how far back scoring looks for live performance.
	recentWindow = 30 * 24 * time.Hour

	// minRecentSamples is the evidence threshold below which scoring
	// ignores live performance and trusts the static prior.
	minRecentSamples = 10

	// minDriftSamples is how many samples a model must have produced
	// before appends start nudging its AccuracyPrior.
	minDriftSamples = 20
)

// ScoreContext carries the request facts that influence backend scoring.
// RetryAttempt starts at 0 for the first attempt of a fallback loop.
type ScoreContext struct {
	Category     model.QueryCategory
	RetryAttempt int
}

// Options contains configuration for the registry.
type Options struct {
	// SampleCap bounds the performance sample ring. Oldest samples are
	// trimmed first.
	SampleCap int
}

// Registry is the mutable backend catalog plus the sample ring.
//
// All methods are safe for concurrent use. Descriptors handed out by
// Model, Models, Best and TopN are copies; the registry's own copies are
// only mutated by the slow AccuracyPrior adjustment in Record.
type Registry struct {
	mu sync.RWMutex

	models map[string]*model.ModelDescriptor

	samples   []model.PerformanceSample
	sampleCap int

	// recorded counts appends per model id, independent of ring trims.
	// It gates the prior drift in Record.
	recorded map[string]int

	now func() time.Time
}

// New creates an empty registry.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{
		SampleCap: DefaultSampleCap,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.SampleCap <= 0 {
		opts.SampleCap = DefaultSampleCap
	}

	return &Registry{
		models:    make(map[string]*model.ModelDescriptor),
		sampleCap: opts.SampleCap,
		recorded:  make(map[string]int),
		now:       time.Now,
	}
}

// WithSampleCap sets the bound of the performance sample ring.
func WithSampleCap(n int) func(o *Options) {
	return func(o *Options) {
		o.SampleCap = n
	}
}

// Register adds a backend descriptor. Registering an id that already
// exists replaces the earlier descriptor, which loses any drifted prior.
func (r *Registry) Register(d model.ModelDescriptor) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("registry: descriptor has no id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := d
	r.models[cp.ID] = &cp

	return nil
}

// Model returns the descriptor registered under id.
func (r *Registry) Model(id string) (model.ModelDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.models[id]
	if !ok {
		return model.ModelDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}

	return *d, nil
}

// Models returns all registered descriptors ordered by id.
func (r *Registry) Models() []model.ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ModelDescriptor, 0, len(r.models))
	for _, d := range r.models {
		out = append(out, *d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.models)
}

// Score rates one backend for the given request context.
//
// The static part is the AccuracyPrior plus specialization and cost
// adjustments. Once at least minRecentSamples samples exist for the
// (model, category) pair inside the trailing window, observed accuracy and
// satisfaction are blended in and slow backends are penalized.
func (r *Registry) Score(d model.ModelDescriptor, sc ScoreContext) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.scoreLocked(d, sc)
}

func (r *Registry) scoreLocked(d model.ModelDescriptor, sc ScoreContext) float64 {
	score := d.AccuracyPrior

	switch {
	case d.Specialization == model.SpecializationSQL && sc.Category != model.CategoryAnalytics:
		score += 10
	case d.Specialization == model.SpecializationAnalytics && sc.Category == model.CategoryAnalytics:
		score += 15
	}

	if st, ok := r.recentLocked(d.ID, sc.Category); ok {
		score = 0.3*score + 0.4*st.avgAccuracy + 0.3*st.avgSatisfaction

		switch {
		case st.avgLatency > 5*time.Second:
			score -= 10
		case st.avgLatency > 3*time.Second:
			score -= 5
		}
	}

	if sc.Category == model.CategorySimple && d.CostPerQuery > 0.01 {
		score -= 5
	}

	if d.CostPerQuery == 0 {
		score += 2
	}

	if sc.RetryAttempt > 0 && d.Specialization == model.SpecializationSQL {
		score += 5
	}

	return score
}

type recentStats struct {
	count           int
	avgAccuracy     float64
	avgSatisfaction float64
	avgLatency      time.Duration
}

// recentLocked aggregates the ring samples for (modelID, category) inside
// the trailing window. The second return is false below the evidence
// threshold. When no sample carries satisfaction yet, recent accuracy
// stands in so the blend weights stay constant.
func (r *Registry) recentLocked(modelID string, category model.QueryCategory) (recentStats, bool) {
	cutoff := r.now().Add(-recentWindow)

	var (
		n      int
		accSum float64
		satSum float64
		satN   int
		latSum time.Duration
	)

	for i := range r.samples {
		s := &r.samples[i]
		if s.ModelID != modelID || s.Category != category || s.Timestamp.Before(cutoff) {
			continue
		}

		n++
		accSum += s.Accuracy
		latSum += s.Latency

		if s.Satisfaction != nil {
			satN++
			satSum += *s.Satisfaction
		}
	}

	if n < minRecentSamples {
		return recentStats{}, false
	}

	st := recentStats{
		count:       n,
		avgAccuracy: accSum / float64(n),
		avgLatency:  latSum / time.Duration(n),
	}

	if satN > 0 {
		st.avgSatisfaction = satSum / float64(satN)
	} else {
		st.avgSatisfaction = st.avgAccuracy
	}

	return st, true
}

type scored struct {
	desc  model.ModelDescriptor
	score float64
}

// eligibleLocked scores every configured backend that supports the dialect
// and is not excluded, ordered best-first. Ties break on lower Priority,
// then lexicographic id, so selection is deterministic.
func (r *Registry) eligibleLocked(dialect string, sc ScoreContext, excluded map[string]bool) []scored {
	out := make([]scored, 0, len(r.models))

	for _, d := range r.models {
		if !d.Configured || excluded[d.ID] || !d.SupportsDialect(dialect) {
			continue
		}

		out = append(out, scored{desc: *d, score: r.scoreLocked(*d, sc)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].desc.Priority != out[j].desc.Priority {
			return out[i].desc.Priority < out[j].desc.Priority
		}
		return out[i].desc.ID < out[j].desc.ID
	})

	return out
}

// Best returns the highest scoring eligible backend for the request.
// The excluded set names backend ids a fallback loop has already tried;
// a nil map excludes nothing.
func (r *Registry) Best(dialect string, sc ScoreContext, excluded map[string]bool) (model.ModelDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eligible := r.eligibleLocked(dialect, sc, excluded)
	if len(eligible) == 0 {
		return model.ModelDescriptor{}, fmt.Errorf("%w: dialect %q", ErrNoEligibleModel, dialect)
	}

	return eligible[0].desc, nil
}

// TopN returns up to n eligible backends in descending score order.
func (r *Registry) TopN(n int, dialect string, sc ScoreContext, excluded map[string]bool) ([]model.ModelDescriptor, error) {
	if n <= 0 {
		return nil, fmt.Errorf("registry: n must be positive, got %d", n)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	eligible := r.eligibleLocked(dialect, sc, excluded)
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: dialect %q", ErrNoEligibleModel, dialect)
	}

	if len(eligible) > n {
		eligible = eligible[:n]
	}

	out := make([]model.ModelDescriptor, len(eligible))
	for i, e := range eligible {
		out[i] = e.desc
	}

	return out, nil
}

// Record appends one performance sample to the ring, trimming the oldest
// entries beyond the cap. A zero Timestamp is stamped with the current
// time.
//
// Once a model has produced minDriftSamples samples, every further append
// nudges its AccuracyPrior toward the observed accuracy:
//
//	prior = clamp(0.95*prior + 0.05*accuracy, 0, 100)
//
// so a misconfigured prior corrects itself over time without a single
// outlier dominating.
func (r *Registry) Record(sample model.PerformanceSample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sample.Timestamp.IsZero() {
		sample.Timestamp = r.now()
	}

	r.samples = append(r.samples, sample)
	if len(r.samples) > r.sampleCap {
		r.samples = r.samples[len(r.samples)-r.sampleCap:]
	}

	r.recorded[sample.ModelID]++

	if r.recorded[sample.ModelID] >= minDriftSamples {
		if d, ok := r.models[sample.ModelID]; ok {
			d.AccuracyPrior = clamp(0.95*d.AccuracyPrior+0.05*sample.Accuracy, 0, 100)
		}
	}
}

// AttachSatisfaction sets the satisfaction score on a buffered sample.
// Returns ErrUnknownSample when the id is not in the ring anymore.
func (r *Registry) AttachSatisfaction(sampleID string, score float64) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("registry: satisfaction %v out of range [0,100]", score)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.samples {
		if r.samples[i].ID == sampleID {
			v := score
			r.samples[i].Satisfaction = &v
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnknownSample, sampleID)
}

// Samples returns a snapshot of the ring, oldest first. Satisfaction
// pointers are copied so callers cannot mutate buffered samples.
func (r *Registry) Samples() []model.PerformanceSample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.PerformanceSample, len(r.samples))
	copy(out, r.samples)

	for i := range out {
		if out[i].Satisfaction != nil {
			v := *out[i].Satisfaction
			out[i].Satisfaction = &v
		}
	}

	return out
}

// SampleCount returns the number of buffered samples.
func (r *Registry) SampleCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.samples)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
