package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/metrics"
)

// Convergence is the result of a step-doubling experiment.
type Convergence struct {
	Dt     float64
	Coarse float64 // |x(dt) - x(dt/2)|
	Fine   float64 // |x(dt/2) - x(dt/4)|
	Order  float64
}

// Ratio is Coarse/Fine, which approaches 2^p for an order-p method.
func (c Convergence) Ratio() float64 { return c.Coarse / c.Fine }

// StepDoubling integrates x0 over duration with dt, dt/2 and dt/4 and
// estimates the observed order of the integrator.
func StepDoubling(dyn dynamo.System, integ dynamo.Integrator, x0 dynamo.State, dt, duration float64) (Convergence, error) {
	if err := dynamo.CheckStep(dt); err != nil {
		return Convergence{}, err
	}
	if err := dynamo.CheckState(x0, dyn.StateDim()); err != nil {
		return Convergence{}, err
	}
	n := int(math.Round(duration / dt))
	if n < 1 {
		return Convergence{}, fmt.Errorf("duration %g shorter than dt %g", duration, dt)
	}

	var finals [3]dynamo.State
	for i := range finals {
		scale := 1 << i
		x, err := integrate(dyn, integ, x0, dt/float64(scale), n*scale)
		if err != nil {
			return Convergence{}, err
		}
		finals[i] = x
	}

	c := Convergence{
		Dt:     dt,
		Coarse: floats.Distance(finals[0], finals[1], 2),
		Fine:   floats.Distance(finals[1], finals[2], 2),
	}
	if c.Fine == 0 {
		return c, errors.New("step halving left the result unchanged")
	}
	c.Order = math.Log2(c.Ratio())
	return c, nil
}

// EnergyDrift runs steps fixed steps and returns the largest relative
// energy error, measured against max(|E0|, EnergyScale) when available.
func EnergyDrift(dyn dynamo.System, integ dynamo.Integrator, x0 dynamo.State, dt float64, steps int) (float64, error) {
	if _, ok := dyn.(dynamo.Hamiltonian); !ok {
		return 0, fmt.Errorf("%T has no energy", dyn)
	}
	if err := dynamo.CheckStep(dt); err != nil {
		return 0, err
	}

	drift := metrics.NewEnergyDrift(dyn)
	x := x0.Clone()
	for i := 0; i < steps; i++ {
		t := float64(i) * dt
		drift.Observe(x, t)
		x = integ.Step(dyn, x, t, dt)
		if !x.IsValid() {
			return drift.Value(), &dynamo.SimulationError{Step: i, Time: t, Wrapped: dynamo.ErrUnstable}
		}
	}
	drift.Observe(x, float64(steps)*dt)
	return drift.Value(), nil
}

func integrate(dyn dynamo.System, integ dynamo.Integrator, x0 dynamo.State, dt float64, steps int) (dynamo.State, error) {
	x := x0.Clone()
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, float64(i)*dt, dt)
		if !x.IsValid() {
			return nil, &dynamo.SimulationError{Step: i, Time: float64(i) * dt, Wrapped: dynamo.ErrUnstable}
		}
	}
	return x, nil
}
