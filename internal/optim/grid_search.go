// Package optim searches run settings for the one that best scores a metric.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pendart/internal/automation"
	"github.com/san-kum/pendart/internal/config"
	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/experiment"
)

// Candidate is one grid point and the metric value it scored.
type Candidate struct {
	Values map[string]float64
	Score  float64
	index  int
}

// GridSearch tries every combination of the listed values. Names are pose
// fields (theta1, theta2, omega1, omega2, kick) or pendulum parameters
// (l1, l2, m1, m2, g).
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
	workers    int
	logger     *zap.Logger
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, logger: zap.NewNop()}
}

// Maximize makes higher scores win. The default keeps the lowest.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

func (g *GridSearch) WithWorkers(n int) *GridSearch {
	g.workers = n
	return g
}

func (g *GridSearch) WithLogger(l *zap.Logger) *GridSearch {
	if l != nil {
		g.logger = l
	}
	return g
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Set writes the named field into cfg.
func Set(cfg *config.Config, name string, value float64) error {
	switch name {
	case "theta1":
		cfg.InitState.Theta1 = value
	case "theta2":
		cfg.InitState.Theta2 = value
	case "omega1":
		cfg.InitState.Omega1 = value
	case "omega2":
		cfg.InitState.Omega2 = value
	case "kick":
		cfg.Kick = value
	default:
		return automation.SetParam(&cfg.Params, name, value)
	}
	return nil
}

// Search runs base once per grid point and returns the best candidate. Ties
// go to the point visited first. Points whose run diverges are skipped;
// configuration errors abort.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (Candidate, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Candidate{}, fmt.Errorf("%d names but %d ranges", len(g.paramNames), len(g.ranges))
	}
	for i, name := range g.paramNames {
		if len(g.ranges[i]) == 0 {
			return Candidate{}, fmt.Errorf("no values for %s", name)
		}
		trial := *base
		if err := Set(&trial, name, g.ranges[i][0]); err != nil {
			return Candidate{}, err
		}
	}

	workers := g.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu    sync.Mutex
		best  = Candidate{Score: math.NaN()}
		tried int
		next  int
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	g.each(0, make(map[string]float64, len(g.paramNames)), func(point map[string]float64) bool {
		if ctx.Err() != nil {
			return false
		}
		idx := next
		next++
		eg.Go(func() error {
			score, ok, err := g.score(ctx, base, point, metricName)
			if err != nil || !ok {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			tried++
			if math.IsNaN(best.Score) || g.better(score, best.Score) ||
				(score == best.Score && idx < best.index) {
				best = Candidate{Values: point, Score: score, index: idx}
			}
			return nil
		})
		return true
	})

	if err := eg.Wait(); err != nil {
		return Candidate{}, err
	}
	if best.Values == nil {
		return Candidate{}, fmt.Errorf("no grid point finished without diverging")
	}

	g.logger.Info("grid search done",
		zap.String("metric", metricName),
		zap.Int("scored", tried),
		zap.Float64("best", best.Score))
	return best, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if g.maximize {
		return a > b
	}
	return a < b
}

func (g *GridSearch) score(ctx context.Context, base *config.Config, point map[string]float64, metricName string) (float64, bool, error) {
	cfg := *base
	for name, v := range point {
		if err := Set(&cfg, name, v); err != nil {
			return 0, false, err
		}
	}

	exp, err := experiment.New(&cfg, g.logger)
	if err != nil {
		return 0, false, err
	}

	result, err := exp.Run(ctx)
	if dynamo.IsDivergence(err) {
		g.logger.Debug("grid point diverged", zap.Any("point", point))
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, false, fmt.Errorf("unknown metric %q", metricName)
	}
	return val, true, nil
}

// each calls visit with a fresh copy of every grid point until it returns
// false.
func (g *GridSearch) each(depth int, current map[string]float64, visit func(map[string]float64) bool) bool {
	if depth == len(g.paramNames) {
		point := make(map[string]float64, len(current))
		for k, v := range current {
			point[k] = v
		}
		return visit(point)
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if !g.each(depth+1, current, visit) {
			return false
		}
	}
	return true
}
