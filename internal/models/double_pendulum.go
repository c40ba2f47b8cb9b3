package models

import (
	"fmt"
	"math"

	"github.com/san-kum/pendart/internal/dynamo"
)

const (
	DefaultMass    = 1.0
	DefaultLength  = 1.0
	DefaultLength2 = 0.5
	DefaultGravity = 9.81
)

// State vector layout.
const (
	Theta1 = iota
	Theta2
	Omega1
	Omega2
	StateDim
)

// minDenominator guards the shared denominator of both accelerations.
const minDenominator = 1e-12

// Params are fixed for the lifetime of a run. Changing them means building
// a new DoublePendulum.
type Params struct {
	L1 float64 `yaml:"l1" json:"l1"`
	L2 float64 `yaml:"l2" json:"l2"`
	M1 float64 `yaml:"m1" json:"m1"`
	M2 float64 `yaml:"m2" json:"m2"`
	G  float64 `yaml:"g" json:"g"`
}

func DefaultParams() Params {
	return Params{
		L1: DefaultLength, L2: DefaultLength2,
		M1: DefaultMass, M2: DefaultMass,
		G: DefaultGravity,
	}
}

// UnitParams is the symmetric l1=l2=1, m1=m2=1, g=9.81 pendulum.
func UnitParams() Params {
	return Params{
		L1: DefaultLength, L2: DefaultLength,
		M1: DefaultMass, M2: DefaultMass,
		G: DefaultGravity,
	}
}

func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"l1", p.L1}, {"l2", p.L2}, {"m1", p.M1}, {"m2", p.M2}, {"g", p.G},
	}
	for _, f := range fields {
		if !(f.value > 0) || math.IsInf(f.value, 1) {
			return fmt.Errorf("%s=%g must be positive and finite: %w", f.name, f.value, dynamo.ErrParameterBounds)
		}
	}
	return nil
}

type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }
func (v Vec2) Mirror() Vec2         { return Vec2{-v.X, v.Y} }
func (v Vec2) String() string       { return fmt.Sprintf("(%.4f, %.4f)", v.X, v.Y) }

// DoublePendulum is a two-bob point-mass pendulum. Angles are measured from
// the downward vertical; in Cartesian space x grows to the right and y grows
// downward, so a hanging bob has positive y.
type DoublePendulum struct {
	p Params
}

func NewDoublePendulum(p Params) (*DoublePendulum, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &DoublePendulum{p: p}, nil
}

func (d *DoublePendulum) Params() Params { return d.p }
func (d *DoublePendulum) StateDim() int  { return StateDim }

func (d *DoublePendulum) Derive(x dynamo.State, t float64) dynamo.State {
	theta1, theta2, omega1, omega2 := x[Theta1], x[Theta2], x[Omega1], x[Omega2]
	alpha1, alpha2 := d.Accelerations(theta1, theta2, omega1, omega2)
	return dynamo.State{omega1, omega2, alpha1, alpha2}
}

// Accelerations returns the angular accelerations. A degenerate denominator
// yields NaN so the caller's divergence check trips on the step.
func (d *DoublePendulum) Accelerations(theta1, theta2, omega1, omega2 float64) (alpha1, alpha2 float64) {
	m1, m2, l1, l2, g := d.p.M1, d.p.M2, d.p.L1, d.p.L2, d.p.G

	delta := theta1 - theta2
	sinD, cosD := math.Sin(delta), math.Cos(delta)

	den := 2*m1 + m2 - m2*math.Cos(2*theta1-2*theta2)
	if !(den > minDenominator) || math.IsInf(den, 1) {
		return math.NaN(), math.NaN()
	}

	alpha1 = (-g*(2*m1+m2)*math.Sin(theta1) -
		m2*g*math.Sin(theta1-2*theta2) -
		2*sinD*m2*(omega2*omega2*l2+omega1*omega1*l1*cosD)) / (l1 * den)

	alpha2 = (2 * sinD * (omega1*omega1*l1*(m1+m2) +
		g*(m1+m2)*math.Cos(theta1) +
		omega2*omega2*l2*m2*cosD)) / (l2 * den)

	return alpha1, alpha2
}

func (d *DoublePendulum) KineticEnergy(x dynamo.State) float64 {
	theta1, theta2, omega1, omega2 := x[Theta1], x[Theta2], x[Omega1], x[Omega2]
	m1, m2, l1, l2 := d.p.M1, d.p.M2, d.p.L1, d.p.L2

	v1sq := l1 * l1 * omega1 * omega1
	v2sq := l1*l1*omega1*omega1 + l2*l2*omega2*omega2 +
		2*l1*l2*omega1*omega2*math.Cos(theta1-theta2)

	return 0.5*m1*v1sq + 0.5*m2*v2sq
}

// PotentialEnergy is zero with both arms horizontal at the pivot height.
func (d *DoublePendulum) PotentialEnergy(x dynamo.State) float64 {
	theta1, theta2 := x[Theta1], x[Theta2]
	m1, m2, l1, l2, g := d.p.M1, d.p.M2, d.p.L1, d.p.L2, d.p.G

	return -(m1+m2)*g*l1*math.Cos(theta1) - m2*g*l2*math.Cos(theta2)
}

func (d *DoublePendulum) Energy(x dynamo.State) float64 {
	return d.KineticEnergy(x) + d.PotentialEnergy(x)
}

// EnergyScale is the potential energy gap between hanging and the pivot
// height, used to express drift when the energy itself is near zero.
func (d *DoublePendulum) EnergyScale() float64 {
	return (d.p.M1+d.p.M2)*d.p.G*d.p.L1 + d.p.M2*d.p.G*d.p.L2
}

// Positions projects the angles onto the plane, pivot at the origin.
func (d *DoublePendulum) Positions(x dynamo.State) (bob1, bob2 Vec2) {
	return Project(d.p, x[Theta1], x[Theta2])
}

func Project(p Params, theta1, theta2 float64) (bob1, bob2 Vec2) {
	bob1 = Vec2{p.L1 * math.Sin(theta1), p.L1 * math.Cos(theta1)}
	bob2 = bob1.Add(Vec2{p.L2 * math.Sin(theta2), p.L2 * math.Cos(theta2)})
	return bob1, bob2
}

// AngleOf returns the angle from the downward vertical of the arm running
// from anchor to bob.
func AngleOf(anchor, bob Vec2) float64 {
	rel := bob.Sub(anchor)
	return math.Atan2(rel.X, rel.Y)
}

// AnglesFromBobs inverts Project for arbitrary bob positions, ignoring arm
// lengths.
func AnglesFromBobs(bob1, bob2 Vec2) (theta1, theta2 float64) {
	return AngleOf(Vec2{}, bob1), AngleOf(bob1, bob2)
}

// RestState returns the state at rest with the given angles.
func RestState(theta1, theta2 float64) dynamo.State {
	return dynamo.State{theta1, theta2, 0, 0}
}
