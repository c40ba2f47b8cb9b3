package sim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/pendart/internal/dynamo"
)

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *zap.Logger
}

func New(dyn dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     zap.NewNop(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
}

// Steps returns the number of fixed steps a config asks for.
func Steps(cfg dynamo.Config) int {
	return int(math.Round(cfg.Duration / cfg.Dt))
}

// Run integrates x0 for cfg.Duration. On divergence it returns the partial
// result together with a *dynamo.SimulationError wrapping dynamo.ErrUnstable.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(x0, cfg); err != nil {
		return nil, err
	}

	every := cfg.RecordEvery
	if every < 1 {
		every = 1
	}

	steps := Steps(cfg)
	result := &dynamo.Result{
		States:  make([]dynamo.State, 0, steps/every+2),
		Times:   make([]float64, 0, steps/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	initialEnergy, hasEnergy := s.computeEnergy(x)

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}
		if runErr != nil {
			break
		}

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		newX := s.integrator.Step(s.dyn, x, t, dt)

		if cfg.ValidateState && !newX.IsValid() {
			runErr = &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: dynamo.ErrUnstable}
			result.Errors = append(result.Errors, runErr)
			s.logger.Warn("state diverged",
				zap.Int("step", i),
				zap.Float64("t", t),
				zap.Float64s("state", x))
			if last := result.Times[len(result.Times)-1]; last != t {
				result.States = append(result.States, x.Clone())
				result.Times = append(result.Times, t)
			}
			break
		}

		x = newX
		result.StepsTaken++
		t = float64(result.StepsTaken) * dt

		if result.StepsTaken%every == 0 || result.StepsTaken == steps {
			result.States = append(result.States, x.Clone())
			result.Times = append(result.Times, t)
		}
	}

	// Metrics and observers see each state before it is stepped, so the
	// final state of a completed run is handed over once more here.
	if runErr == nil {
		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}
	}

	if hasEnergy {
		finalEnergy, _ := s.computeEnergy(x)
		ref := math.Abs(initialEnergy)
		if es, ok := s.dyn.(dynamo.EnergyScaler); ok {
			ref = math.Max(ref, es.EnergyScale())
		}
		if ref != 0 {
			result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / ref
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run finished",
		zap.String("integrator", s.integrator.Name()),
		zap.Int("steps", result.StepsTaken),
		zap.Float64("energy_drift", result.EnergyDrift))

	return result, runErr
}

func (s *Simulator) validateConfig(x0 dynamo.State, cfg dynamo.Config) error {
	if err := dynamo.CheckStep(cfg.Dt); err != nil {
		return err
	}
	if !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 1) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return dynamo.CheckState(x0, s.dyn.StateDim())
}

func (s *Simulator) computeEnergy(x dynamo.State) (float64, bool) {
	if ec, ok := s.dyn.(dynamo.Hamiltonian); ok {
		return ec.Energy(x), true
	}
	return 0, false
}

// RunWithCallback steps until the duration elapses or callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 dynamo.State, cfg dynamo.Config, callback func(dynamo.State, float64) bool) error {
	if err := s.validateConfig(x0, cfg); err != nil {
		return err
	}

	x := x0.Clone()
	steps := Steps(cfg)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		t := float64(i) * cfg.Dt
		if !callback(x, t) {
			return nil
		}

		next := s.integrator.Step(s.dyn, x, t, cfg.Dt)
		if cfg.ValidateState && !next.IsValid() {
			return &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: dynamo.ErrUnstable}
		}
		x = next
	}

	return nil
}
