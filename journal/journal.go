// Package journal persists performance samples outside the in-memory
// ring, so feedback survives process restarts and can feed offline
// analysis.
package journal

import (
	"context"
	"sync"

	"github.com/hupe1980/sqlgo/model"
)

// Sink receives every performance sample the engine records. Appends are
// best-effort from the engine's point of view: a failing sink is logged
// and never fails the generation that produced the sample.
type Sink interface {
	Append(ctx context.Context, sample model.PerformanceSample) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, sample model.PerformanceSample) error

// Append calls f(ctx, sample).
func (f SinkFunc) Append(ctx context.Context, sample model.PerformanceSample) error {
	return f(ctx, sample)
}

// Compile-time check that SinkFunc implements Sink.
var _ Sink = (SinkFunc)(nil)

// MemorySink buffers samples in memory. Useful for tests and for
// exporting the session's samples at shutdown.
type MemorySink struct {
	mu      sync.Mutex
	samples []model.PerformanceSample
}

// Compile-time check that MemorySink implements Sink.
var _ Sink = (*MemorySink)(nil)

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append buffers one sample.
func (s *MemorySink) Append(_ context.Context, sample model.PerformanceSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, sample)

	return nil
}

// Samples returns a snapshot of everything appended so far, in append
// order.
func (s *MemorySink) Samples() []model.PerformanceSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.PerformanceSample, len(s.samples))
	copy(out, s.samples)

	return out
}

// Len returns the number of buffered samples.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.samples)
}
