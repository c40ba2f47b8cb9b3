package sweep

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/integrators"
	"github.com/san-kum/pendart/internal/metrics"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/sim"
)

// Ensemble runs copies of one starting pose whose inner angle is nudged by
// multiples of Spread, to show how quickly nearby pendulums part ways.
type Ensemble struct {
	Params  models.Params
	Members int
	Spread  float64
	Workers int
}

// Member is one run of an ensemble.
type Member struct {
	Offset float64
	Result *dynamo.Result
}

func (e *Ensemble) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) ([]Member, error) {
	dp, err := models.NewDoublePendulum(e.Params)
	if err != nil {
		return nil, err
	}
	if err := dynamo.CheckState(x0, models.StateDim); err != nil {
		return nil, err
	}

	members := make([]Member, e.Members)

	g, gctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		g.SetLimit(e.Workers)
	}

	for i := 0; i < e.Members; i++ {
		idx := i
		g.Go(func() error {
			x := x0.Clone()
			offset := float64(idx) * e.Spread
			x[models.Theta1] += offset

			s := sim.New(dp, integrators.NewRK4())
			s.AddMetric(metrics.NewEnergyDrift(dp))
			s.AddMetric(metrics.NewFlips())

			res, err := s.Run(gctx, x, cfg)
			if err != nil {
				return err
			}
			members[idx] = Member{Offset: offset, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return members, nil
}

// Divergence returns, for each recorded sample, the largest distance between
// any member's outer bob and the first member's.
func Divergence(p models.Params, members []Member) []float64 {
	if len(members) == 0 || members[0].Result == nil {
		return nil
	}
	ref := members[0].Result.States
	out := make([]float64, len(ref))

	for k, x := range ref {
		_, tip := models.Project(p, x[models.Theta1], x[models.Theta2])
		for _, m := range members[1:] {
			if m.Result == nil || k >= len(m.Result.States) {
				continue
			}
			y := m.Result.States[k]
			_, other := models.Project(p, y[models.Theta1], y[models.Theta2])
			out[k] = math.Max(out[k], tip.Dist(other))
		}
	}
	return out
}
