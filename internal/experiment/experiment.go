package experiment

import (
	"context"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/san-kum/pendart/internal/config"
	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/integrators"
	"github.com/san-kum/pendart/internal/metrics"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/paint"
	"github.com/san-kum/pendart/internal/sim"
	"github.com/san-kum/pendart/internal/storage"
)

// Experiment is one headless run assembled from a config.
type Experiment struct {
	cfg       *config.Config
	model     *models.DoublePendulum
	integ     dynamo.Integrator
	simulator *sim.Simulator
	logger    *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	model, err := models.NewDoublePendulum(cfg.Params)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	s := sim.New(model, integ)
	s.SetLogger(logger)
	for _, m := range DefaultMetrics(model) {
		s.AddMetric(m)
	}

	return &Experiment{
		cfg:       cfg,
		model:     model,
		integ:     integ,
		simulator: s,
		logger:    logger,
	}, nil
}

// DefaultMetrics are recorded on every headless run.
func DefaultMetrics(model *models.DoublePendulum) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewEnergy(model),
		metrics.NewEnergyDrift(model),
		metrics.NewFlips(),
	}
}

func (e *Experiment) Model() *models.DoublePendulum { return e.model }
func (e *Experiment) Integrator() dynamo.Integrator { return e.integ }

// Simulator is exposed so callers can attach observers before Run.
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

// Initial is the configured starting state with the kick applied to ω1.
func (e *Experiment) Initial() dynamo.State {
	x := e.cfg.InitialState()
	x[models.Omega1] += e.cfg.Kick
	return x
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	e.logger.Info("running",
		zap.String("preset", e.cfg.Preset),
		zap.String("integrator", e.integ.Name()),
		zap.Float64("dt", e.cfg.Dt),
		zap.Float64("duration", e.cfg.Duration))
	return e.simulator.Run(ctx, e.Initial(), e.cfg.SimConfig())
}

// Info describes the run for storage and export.
func (e *Experiment) Info() storage.RunInfo {
	return storage.RunInfo{
		Preset:     e.cfg.Preset,
		Integrator: e.integ.Name(),
		Dt:         e.cfg.Dt,
		Duration:   e.cfg.Duration,
		Seed:       e.cfg.Seed,
		Params:     e.cfg.Params,
		Initial:    e.Initial(),
	}
}

// Paint runs the experiment with the brush spraying at the outer bob on
// every step, onto a fresh canvas.
func (e *Experiment) Paint(ctx context.Context) (*paint.Canvas, *dynamo.Result, error) {
	view := e.cfg.Paint.View()
	canvas := paint.NewCanvas(view.Width, view.Height)
	painter := NewPainter(canvas, view, e.cfg.Params, e.cfg.Paint.Brush(), e.cfg.Seed)

	e.simulator.AddObserver(painter)
	result, err := e.Run(ctx)
	e.logger.Info("painted",
		zap.Int("sprays", painter.Sprays()),
		zap.Int("particles", painter.Particles()))
	return canvas, result, err
}

// Painter sprays the brush at the outer bob each time it observes a state.
type Painter struct {
	canvas    *paint.Canvas
	view      paint.View
	params    models.Params
	brush     paint.Brush
	rng       *rand.Rand
	sprays    int
	particles int
}

func NewPainter(canvas *paint.Canvas, view paint.View, params models.Params, brush paint.Brush, seed uint64) *Painter {
	return &Painter{
		canvas: canvas,
		view:   view,
		params: params,
		brush:  brush,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (p *Painter) OnStep(x dynamo.State, t float64) {
	_, tip := p.view.Bobs(p.params, x[models.Theta1], x[models.Theta2])
	p.particles += p.canvas.Spray(tip.X, tip.Y, p.brush, p.rng)
	p.sprays++
}

func (p *Painter) Sprays() int    { return p.sprays }
func (p *Painter) Particles() int { return p.particles }
