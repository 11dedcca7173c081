package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/bucketsim/internal/config"
	"github.com/san-kum/bucketsim/internal/metrics"
)

// Sweep runs cfg once per seed, seedStart .. seedStart+numRuns-1, each on
// its own ensemble. Results come back in seed order.
type Sweep struct {
	cfg       *config.Config
	numRuns   int
	seedStart int64
	metrics   func() []metrics.Metric
}

func NewSweep(cfg *config.Config, numRuns int, seedStart int64) *Sweep {
	return &Sweep{cfg: cfg, numRuns: numRuns, seedStart: seedStart, metrics: metrics.Default}
}

// WithMetrics sets the factory used to give every run fresh metrics.
func (w *Sweep) WithMetrics(fn func() []metrics.Metric) *Sweep {
	w.metrics = fn
	return w
}

func (w *Sweep) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, w.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.numRuns; i++ {
		idx := i
		g.Go(func() error {
			cfg := w.cfg.Clone()
			cfg.Seed = w.seedStart + int64(idx)

			s, err := FromConfig(cfg)
			if err != nil {
				return err
			}
			for _, m := range w.metrics() {
				s.AddMetric(m)
			}
			res, err := s.Run(ctx, cfg.Turns)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
