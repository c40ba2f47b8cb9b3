package integrators

import "github.com/san-kum/pendart/internal/dynamo"

// Euler is the explicit first-order baseline used to compare against RK4.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t float64, dt float64) dynamo.State {
	return x.AddScaled(dyn.Derive(x, t), dt)
}
