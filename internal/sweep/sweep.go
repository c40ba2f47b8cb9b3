// Package sweep integrates many independent pendulums in parallel.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/integrators"
	"github.com/san-kum/pendart/internal/metrics"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/paint"
)

// progressInterval spaces out progress log lines.
const progressInterval = 2 * time.Second

// Options controls a flip-time sweep. Zero values select defaults.
type Options struct {
	Width, Height int
	Dt            float64
	MaxTime       float64
	Workers       int
	Integrator    dynamo.Integrator
	Logger        *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Width:   200,
		Height:  200,
		Dt:      1.0 / 120,
		MaxTime: 20,
	}
}

func (o *Options) fill() {
	def := DefaultOptions()
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.Dt == 0 {
		o.Dt = def.Dt
	}
	if o.MaxTime == 0 {
		o.MaxTime = def.MaxTime
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Integrator == nil {
		o.Integrator = integrators.NewRK4()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// FlipMap holds, for each starting pose, the time until either arm first
// passed over its pivot. Cells that never flipped hold +Inf.
type FlipMap struct {
	Width, Height int
	MaxTime       float64
	Times         []float64
}

// Angles returns the starting pose of cell (i, j). Columns sweep θ1 from -π
// to π left to right, rows sweep θ2 from π to -π top to bottom.
func (m *FlipMap) Angles(i, j int) (theta1, theta2 float64) {
	return cellAngle(i, m.Width), -cellAngle(j, m.Height)
}

func (m *FlipMap) At(i, j int) float64 { return m.Times[j*m.Width+i] }

// Flipped reports the fraction of cells that flipped within MaxTime.
func (m *FlipMap) Flipped() float64 {
	n := 0
	for _, t := range m.Times {
		if !math.IsInf(t, 1) {
			n++
		}
	}
	return float64(n) / float64(len(m.Times))
}

// Image colours fast flips bright and slow flips dark; cells that never
// flipped are black.
func (m *FlipMap) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for j := 0; j < m.Height; j++ {
		for i := 0; i < m.Width; i++ {
			img.Set(i, j, m.color(m.At(i, j)))
		}
	}
	return img
}

func (m *FlipMap) color(t float64) color.RGBA {
	if math.IsInf(t, 1) {
		return color.RGBA{A: 255}
	}
	// log scale so early flips do not wash out the rest
	f := math.Log1p(t) / math.Log1p(m.MaxTime)
	return paint.HSV(0.75*f, 0.9, 1-0.7*f)
}

func cellAngle(i, n int) float64 {
	return -math.Pi + (float64(i)+0.5)*2*math.Pi/float64(n)
}

// FlipTimeMap integrates a grid of starting poses at rest until an arm
// flips or MaxTime elapses. Rows are processed concurrently.
func FlipTimeMap(ctx context.Context, params models.Params, opts Options) (*FlipMap, error) {
	dp, err := models.NewDoublePendulum(params)
	if err != nil {
		return nil, err
	}
	opts.fill()
	if err := dynamo.CheckStep(opts.Dt); err != nil {
		return nil, err
	}

	m := &FlipMap{
		Width:   opts.Width,
		Height:  opts.Height,
		MaxTime: opts.MaxTime,
		Times:   make([]float64, opts.Width*opts.Height),
	}
	threshold := flipThreshold(params)
	steps := int(math.Ceil(opts.MaxTime / opts.Dt))

	opts.Logger.Info("flip map started",
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
		zap.Int("workers", opts.Workers),
		zap.Float64("max_time", opts.MaxTime))

	var rowsDone atomic.Int64
	progress := rate.Sometimes{Interval: progressInterval}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for j := 0; j < opts.Height; j++ {
		row := j
		g.Go(func() error {
			for i := 0; i < opts.Width; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				theta1, theta2 := m.Angles(i, row)
				x := models.RestState(theta1, theta2)
				if dp.Energy(x) < threshold {
					m.Times[row*opts.Width+i] = math.Inf(1)
					continue
				}
				m.Times[row*opts.Width+i] = flipTime(dp, opts.Integrator, x, opts.Dt, steps)
			}
			done := rowsDone.Add(1)
			progress.Do(func() {
				opts.Logger.Debug("flip map progress",
					zap.Int64("rows", done),
					zap.Int("of", opts.Height))
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
		}
		return nil, err
	}

	opts.Logger.Info("flip map finished", zap.Float64("flipped", m.Flipped()))
	return m, nil
}

// flipThreshold is the least energy at which either arm can reach the
// upright position. Poses below it can never flip.
func flipThreshold(p models.Params) float64 {
	outer := -(p.M1+p.M2)*p.G*p.L1 + p.M2*p.G*p.L2
	inner := (p.M1+p.M2)*p.G*p.L1 - p.M2*p.G*p.L2
	return math.Min(outer, inner)
}

func flipTime(dp *models.DoublePendulum, integ dynamo.Integrator, x dynamo.State, dt float64, steps int) float64 {
	start := [2]int{metrics.Winding(x[models.Theta1]), metrics.Winding(x[models.Theta2])}
	for i := 0; i < steps; i++ {
		x = integ.Step(dp, x, float64(i)*dt, dt)
		if !x.IsValid() {
			return math.Inf(1)
		}
		if metrics.Winding(x[models.Theta1]) != start[0] || metrics.Winding(x[models.Theta2]) != start[1] {
			return float64(i+1) * dt
		}
	}
	return math.Inf(1)
}
