package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/bucketsim/internal/config"
	"github.com/san-kum/bucketsim/internal/metrics"
	"github.com/san-kum/bucketsim/internal/sim"
)

// GridSearch evaluates every combination of the given parameter values
// and keeps the one with the best metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Maximize flips the objective; the default is to minimize.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

func (g *GridSearch) better(val, best float64) bool {
	if g.maximize {
		return val > best
	}
	return val < best
}

// Search runs base with each grid point applied through Config.SetParam
// and returns the winning parameters and metric value.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid search: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	if g.maximize {
		best = math.Inf(-1)
	}
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("grid search: metric %q never produced a value", metricName)
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if depth == len(g.paramNames) {
		val, err := evaluate(ctx, base, current, metricName)
		if err != nil {
			return err
		}
		if !math.IsNaN(val) && g.better(val, *best) {
			*best = val
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(ctx context.Context, base *config.Config, params map[string]float64, metricName string) (float64, error) {
	cfg := base.Clone()
	for k, v := range params {
		if err := cfg.SetParam(k, v); err != nil {
			return 0, err
		}
	}
	s, err := sim.FromConfig(cfg)
	if err != nil {
		return 0, err
	}
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}

	result, err := s.Run(ctx, cfg.Turns)
	if err != nil {
		return 0, err
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", metricName)
	}
	return val, nil
}
