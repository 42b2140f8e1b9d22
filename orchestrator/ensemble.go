package orchestrator

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/sqlgo/model"
	"github.com/hupe1980/sqlgo/registry"
)

// GenerateEnsemble invokes the top backends concurrently and reconciles
// their outputs.
//
// Each slot is fault-isolated: a failing backend is logged and sampled
// but never aborts its siblings. Aggregation is slot-indexed, so the
// result is deterministic for a given set of completed slots no matter
// the completion order. Primary is the success from the highest-scored
// backend, Recommended maximizes 0.7*self-confidence + 0.3*validation
// confidence (ties keep the earlier slot), and ConsensusScore is the mean
// pairwise similarity of the successful statements.
func (o *Orchestrator) GenerateEnsemble(ctx context.Context, gc model.GenerationContext) (model.EnsembleResult, error) {
	sc := registry.ScoreContext{Category: gc.Category}

	descs, err := o.registry.TopN(o.opts.EnsembleSize, gc.Dialect, sc, nil)
	if err != nil {
		return model.EnsembleResult{}, err
	}

	type slot struct {
		result model.GenerationResult
		err    error
	}

	slots := make([]slot, len(descs))

	g, gctx := errgroup.WithContext(ctx)

	for i, desc := range descs {
		i, desc := i, desc
		g.Go(func() error {
			result, err := o.attempt(gctx, desc, gc)
			if err != nil {
				slots[i] = slot{err: err}

				o.logger.Warn("ensemble slot failed",
					slog.Int("slot", i),
					slog.String("model", desc.ID),
					slog.Any("error", err),
				)

				return nil
			}

			slots[i] = slot{result: result}

			return nil
		})
	}

	// Slot errors are captured above; Wait only propagates ctx errors,
	// which the slots already observed.
	_ = g.Wait()

	tried := make([]string, len(descs))
	for i, desc := range descs {
		tried[i] = desc.ID
	}

	var (
		successes []model.GenerationResult
		lastErr   error
	)

	for i := range slots {
		if slots[i].err != nil {
			lastErr = slots[i].err
			continue
		}

		successes = append(successes, slots[i].result)
	}

	if len(successes) == 0 {
		return model.EnsembleResult{}, &EnsembleError{Tried: tried, Last: lastErr}
	}

	sqls := make([]string, len(successes))
	for i, r := range successes {
		sqls[i] = r.SQL
	}

	recommended := successes[0]
	best := 0.7*recommended.Confidence + 0.3*recommended.Validation.Confidence

	for _, r := range successes[1:] {
		v := 0.7*r.Confidence + 0.3*r.Validation.Confidence
		if v > best {
			best = v
			recommended = r
		}
	}

	return model.EnsembleResult{
		Primary:        successes[0],
		Alternatives:   append([]model.GenerationResult(nil), successes[1:]...),
		ConsensusScore: consensusScore(sqls),
		Recommended:    recommended,
	}, nil
}
