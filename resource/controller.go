// Package resource bounds backend invocations with a concurrency cap and
// a sustained rate limit.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds invocation limits.
type Config struct {
	// MaxConcurrentInvocations caps in-flight backend calls.
	// If 0, concurrency is unbounded.
	MaxConcurrentInvocations int64

	// InvocationsPerSecond caps the sustained call rate across fallback
	// and ensemble paths. If 0, the rate is unlimited.
	InvocationsPerSecond float64

	// Burst is the rate limiter burst size. If 0, defaults to 1 when a
	// rate is configured.
	Burst int
}

// Controller guards backend invocations. All methods are nil-receiver
// safe, so an optional controller can be threaded through call paths
// without checks; a nil controller admits everything.
type Controller struct {
	sem      *semaphore.Weighted // nil if unbounded
	limiter  *rate.Limiter       // nil if unlimited
	inFlight atomic.Int64
}

// NewController creates a new invocation controller.
func NewController(cfg Config) *Controller {
	c := &Controller{}

	if cfg.MaxConcurrentInvocations > 0 {
		c.sem = semaphore.NewWeighted(cfg.MaxConcurrentInvocations)
	}

	if cfg.InvocationsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.InvocationsPerSecond), burst)
	}

	return c
}

// Acquire reserves one invocation slot, blocking until both the
// concurrency cap and the rate limit admit it or ctx is done. When the
// rate wait fails, the already-taken semaphore permit is returned, so a
// canceled caller never leaks capacity.
func (c *Controller) Acquire(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if c.sem != nil {
				c.sem.Release(1)
			}
			return err
		}
	}

	c.inFlight.Add(1)

	return nil
}

// TryAcquire reserves an invocation slot without blocking.
// Returns true if acquired.
func (c *Controller) TryAcquire() bool {
	if c == nil {
		return true
	}

	if c.sem != nil && !c.sem.TryAcquire(1) {
		return false
	}

	if c.limiter != nil && !c.limiter.Allow() {
		if c.sem != nil {
			c.sem.Release(1)
		}
		return false
	}

	c.inFlight.Add(1)

	return true
}

// Release returns a slot taken by a successful Acquire or TryAcquire.
func (c *Controller) Release() {
	if c == nil {
		return
	}

	if c.sem != nil {
		c.sem.Release(1)
	}

	c.inFlight.Add(-1)
}

// InFlight returns the number of currently admitted invocations.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}

	return c.inFlight.Load()
}
