package sqlgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    selectCounter     prometheus.Counter
//	    generateHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordSelect(max int, duration time.Duration, err error) {
//	    p.selectCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordLoad is called after each corpus load.
	// loaded is the number of records accepted, quarantined the number rejected,
	// duration is the total time taken.
	RecordLoad(loaded, quarantined int, duration time.Duration)

	// RecordSelect is called after each example selection.
	// max is the number of examples requested, duration is the time taken,
	// err is nil if successful.
	RecordSelect(max int, duration time.Duration, err error)

	// RecordFeedback is called after each quality feedback update.
	RecordFeedback(duration time.Duration, err error)

	// RecordGenerate is called after each fallback generation.
	RecordGenerate(duration time.Duration, err error)

	// RecordEnsemble is called after each ensemble generation.
	RecordEnsemble(duration time.Duration, err error)

	// RecordSatisfaction is called after each satisfaction attachment.
	RecordSatisfaction(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, int, time.Duration)      {}
func (NoopMetricsCollector) RecordSelect(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordFeedback(time.Duration, error)     {}
func (NoopMetricsCollector) RecordGenerate(time.Duration, error)     {}
func (NoopMetricsCollector) RecordEnsemble(time.Duration, error)     {}
func (NoopMetricsCollector) RecordSatisfaction(time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LoadCount          atomic.Int64
	LoadExamples       atomic.Int64
	LoadQuarantined    atomic.Int64
	SelectCount        atomic.Int64
	SelectErrors       atomic.Int64
	SelectTotalNanos   atomic.Int64
	FeedbackCount      atomic.Int64
	FeedbackErrors     atomic.Int64
	GenerateCount      atomic.Int64
	GenerateErrors     atomic.Int64
	GenerateTotalNanos atomic.Int64
	EnsembleCount      atomic.Int64
	EnsembleErrors     atomic.Int64
	EnsembleTotalNanos atomic.Int64
	SatisfactionCount  atomic.Int64
	SatisfactionErrors atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(loaded, quarantined int, duration time.Duration) {
	b.LoadCount.Add(1)
	b.LoadExamples.Add(int64(loaded))
	b.LoadQuarantined.Add(int64(quarantined))
}

// RecordSelect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelect(max int, duration time.Duration, err error) {
	b.SelectCount.Add(1)
	b.SelectTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SelectErrors.Add(1)
	}
}

// RecordFeedback implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFeedback(duration time.Duration, err error) {
	b.FeedbackCount.Add(1)
	if err != nil {
		b.FeedbackErrors.Add(1)
	}
}

// RecordGenerate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGenerate(duration time.Duration, err error) {
	b.GenerateCount.Add(1)
	b.GenerateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.GenerateErrors.Add(1)
	}
}

// RecordEnsemble implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEnsemble(duration time.Duration, err error) {
	b.EnsembleCount.Add(1)
	b.EnsembleTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EnsembleErrors.Add(1)
	}
}

// RecordSatisfaction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSatisfaction(duration time.Duration, err error) {
	b.SatisfactionCount.Add(1)
	if err != nil {
		b.SatisfactionErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LoadCount:          b.LoadCount.Load(),
		LoadExamples:       b.LoadExamples.Load(),
		LoadQuarantined:    b.LoadQuarantined.Load(),
		SelectCount:        b.SelectCount.Load(),
		SelectErrors:       b.SelectErrors.Load(),
		SelectAvgNanos:     b.getAvgSelectNanos(),
		FeedbackCount:      b.FeedbackCount.Load(),
		FeedbackErrors:     b.FeedbackErrors.Load(),
		GenerateCount:      b.GenerateCount.Load(),
		GenerateErrors:     b.GenerateErrors.Load(),
		GenerateAvgNanos:   b.getAvgGenerateNanos(),
		EnsembleCount:      b.EnsembleCount.Load(),
		EnsembleErrors:     b.EnsembleErrors.Load(),
		EnsembleAvgNanos:   b.getAvgEnsembleNanos(),
		SatisfactionCount:  b.SatisfactionCount.Load(),
		SatisfactionErrors: b.SatisfactionErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSelectNanos() int64 {
	count := b.SelectCount.Load()
	if count == 0 {
		return 0
	}
	return b.SelectTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgGenerateNanos() int64 {
	count := b.GenerateCount.Load()
	if count == 0 {
		return 0
	}
	return b.GenerateTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgEnsembleNanos() int64 {
	count := b.EnsembleCount.Load()
	if count == 0 {
		return 0
	}
	return b.EnsembleTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LoadCount          int64
	LoadExamples       int64
	LoadQuarantined    int64
	SelectCount        int64
	SelectErrors       int64
	SelectAvgNanos     int64
	FeedbackCount      int64
	FeedbackErrors     int64
	GenerateCount      int64
	GenerateErrors     int64
	GenerateAvgNanos   int64
	EnsembleCount      int64
	EnsembleErrors     int64
	EnsembleAvgNanos   int64
	SatisfactionCount  int64
	SatisfactionErrors int64
}
