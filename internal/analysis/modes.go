package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/models"
)

// Mode is one normal mode of the linearised pendulum. Shape is normalised so
// the inner arm has unit amplitude.
type Mode struct {
	Omega float64
	Shape [2]float64
}

// Period returns the oscillation period in seconds.
func (m Mode) Period() float64 { return 2 * math.Pi / m.Omega }

// NormalModes returns the slow and fast modes of small oscillations about
// the hanging equilibrium, slow first.
func NormalModes(p models.Params) ([2]Mode, error) {
	if err := p.Validate(); err != nil {
		return [2]Mode{}, err
	}

	// M θ'' + K θ = 0 with M = [[a b] [b c]], K = diag(k1, k2)
	a := (p.M1 + p.M2) * p.L1 * p.L1
	b := p.M2 * p.L1 * p.L2
	c := p.M2 * p.L2 * p.L2
	k1 := (p.M1 + p.M2) * p.G * p.L1
	k2 := p.M2 * p.G * p.L2

	qa := a*c - b*b
	qb := k1*c + k2*a
	qc := k1 * k2
	disc := qb*qb - 4*qa*qc
	if qa <= 0 || disc < 0 {
		return [2]Mode{}, fmt.Errorf("degenerate mass matrix: %w", dynamo.ErrParameterBounds)
	}

	root := math.Sqrt(disc)
	ws := [2]float64{(qb - root) / (2 * qa), (qb + root) / (2 * qa)}

	var modes [2]Mode
	for i, w := range ws {
		modes[i] = Mode{
			Omega: math.Sqrt(w),
			Shape: [2]float64{1, (k1 - w*a) / (w * b)},
		}
	}
	return modes, nil
}

// LinearSolution is the closed-form small-angle motion from a given start.
type LinearSolution struct {
	modes [2]Mode
	cos   [2]float64
	sin   [2]float64
}

func NewLinearSolution(p models.Params, x0 dynamo.State) (*LinearSolution, error) {
	if err := dynamo.CheckState(x0, models.StateDim); err != nil {
		return nil, err
	}
	modes, err := NormalModes(p)
	if err != nil {
		return nil, err
	}

	r1, r2 := modes[0].Shape[1], modes[1].Shape[1]
	det := r2 - r1

	// Decompose a (θ1, θ2) pair onto the two mode shapes.
	split := func(v1, v2 float64) [2]float64 {
		return [2]float64{(r2*v1 - v2) / det, (v2 - r1*v1) / det}
	}

	s := &LinearSolution{modes: modes}
	s.cos = split(x0[models.Theta1], x0[models.Theta2])
	vel := split(x0[models.Omega1], x0[models.Omega2])
	for i := range vel {
		s.sin[i] = vel[i] / modes[i].Omega
	}
	return s, nil
}

func (s *LinearSolution) Modes() [2]Mode { return s.modes }

// At evaluates the state at time t.
func (s *LinearSolution) At(t float64) dynamo.State {
	x := make(dynamo.State, models.StateDim)
	for i, m := range s.modes {
		sinT, cosT := math.Sincos(m.Omega * t)
		q := s.cos[i]*cosT + s.sin[i]*sinT
		qd := m.Omega * (s.sin[i]*cosT - s.cos[i]*sinT)

		x[models.Theta1] += m.Shape[0] * q
		x[models.Theta2] += m.Shape[1] * q
		x[models.Omega1] += m.Shape[0] * qd
		x[models.Omega2] += m.Shape[1] * qd
	}
	return x
}
