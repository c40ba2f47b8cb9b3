package sim

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/integrators"
	"github.com/san-kum/pendart/internal/models"
)

// ErrNotInSetup is returned when the pose is edited outside the setup phase.
var ErrNotInSetup = errors.New("sim: session is not in setup")

type Phase int

const (
	PhaseSetup Phase = iota
	PhaseRunning
	PhasePaused
	PhaseDiverged
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseDiverged:
		return "diverged"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Session is the simulation state owned by a host loop. It is not safe for
// concurrent use; hosts drive it from a single goroutine.
type Session struct {
	model  *models.DoublePendulum
	integ  dynamo.Integrator
	dt     float64
	logger *zap.Logger

	initial dynamo.State
	state   dynamo.State
	steps   int
	phase   Phase
	err     error
}

// NewSession validates params, dt and the initial state. A nil integrator
// selects RK4.
func NewSession(params models.Params, initial dynamo.State, dt float64, integ dynamo.Integrator) (*Session, error) {
	model, err := models.NewDoublePendulum(params)
	if err != nil {
		return nil, err
	}
	if err := dynamo.CheckStep(dt); err != nil {
		return nil, err
	}
	if err := dynamo.CheckState(initial, models.StateDim); err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}
	if integ == nil {
		integ = integrators.NewRK4()
	}

	s := &Session{
		model:   model,
		integ:   integ,
		dt:      dt,
		logger:  zap.NewNop(),
		initial: initial.Clone(),
	}
	s.Reset()
	return s, nil
}

func (s *Session) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
}

func (s *Session) Phase() Phase                  { return s.phase }
func (s *Session) Params() models.Params         { return s.model.Params() }
func (s *Session) Model() *models.DoublePendulum { return s.model }
func (s *Session) Dt() float64                   { return s.dt }
func (s *Session) Steps() int                    { return s.steps }
func (s *Session) Time() float64                 { return float64(s.steps) * s.dt }
func (s *Session) State() dynamo.State           { return s.state.Clone() }
func (s *Session) Initial() dynamo.State         { return s.initial.Clone() }
func (s *Session) Energy() float64               { return s.model.Energy(s.state) }

// Err returns the divergence error, if any.
func (s *Session) Err() error { return s.err }

func (s *Session) Positions() (bob1, bob2 models.Vec2) {
	return s.model.Positions(s.state)
}

// SetAngles repositions both arms at rest. Only valid during setup.
func (s *Session) SetAngles(theta1, theta2 float64) error {
	if s.phase != PhaseSetup {
		return fmt.Errorf("set angles while %s: %w", s.phase, ErrNotInSetup)
	}
	x := models.RestState(theta1, theta2)
	if !x.IsValid() {
		return dynamo.ErrInvalidState
	}
	s.initial = x
	s.state = x.Clone()
	return nil
}

// Start leaves setup, adding kick to the inner arm's angular velocity.
func (s *Session) Start(kick float64) error {
	if s.phase != PhaseSetup {
		return fmt.Errorf("start while %s: %w", s.phase, ErrNotInSetup)
	}
	x := s.initial.Clone()
	x[models.Omega1] += kick
	if !x.IsValid() {
		return fmt.Errorf("kick %g: %w", kick, dynamo.ErrInvalidState)
	}
	s.state = x
	s.steps = 0
	s.phase = PhaseRunning
	s.logger.Debug("session started",
		zap.Float64s("state", x),
		zap.String("integrator", s.integ.Name()))
	return nil
}

func (s *Session) Pause() error {
	if s.phase != PhaseRunning {
		return fmt.Errorf("pause while %s: %w", s.phase, dynamo.ErrNotRunning)
	}
	s.phase = PhasePaused
	return nil
}

func (s *Session) Resume() error {
	if s.phase != PhasePaused {
		return fmt.Errorf("resume while %s: %w", s.phase, dynamo.ErrNotRunning)
	}
	s.phase = PhaseRunning
	return nil
}

// TogglePause flips between running and paused; other phases are left alone.
func (s *Session) TogglePause() {
	switch s.phase {
	case PhaseRunning:
		s.phase = PhasePaused
	case PhasePaused:
		s.phase = PhaseRunning
	}
}

// Step advances exactly one fixed step while running. Setup and paused
// sessions are left untouched. A non-finite result moves the session to
// the diverged phase and keeps the last finite state.
func (s *Session) Step() error {
	switch s.phase {
	case PhaseDiverged:
		return s.err
	case PhaseRunning:
	default:
		return nil
	}

	t := s.Time()
	next := s.integ.Step(s.model, s.state, t, s.dt)
	if !next.IsValid() {
		s.phase = PhaseDiverged
		s.err = &dynamo.SimulationError{Step: s.steps, Time: t, State: s.state.Clone(), Wrapped: dynamo.ErrUnstable}
		s.logger.Warn("session diverged",
			zap.Int("step", s.steps),
			zap.Float64("t", t),
			zap.Float64s("state", s.state))
		return s.err
	}

	s.state = next
	s.steps++
	return nil
}

// Advance calls Step n times, stopping at the first error.
func (s *Session) Advance(n int) error {
	for i := 0; i < n; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Reset discards the running state and returns to setup at the last pose.
func (s *Session) Reset() {
	s.state = s.initial.Clone()
	s.steps = 0
	s.phase = PhaseSetup
	s.err = nil
}

// Restart replaces the setup pose with x and resets.
func (s *Session) Restart(x dynamo.State) error {
	if err := dynamo.CheckState(x, models.StateDim); err != nil {
		return err
	}
	s.initial = x.Clone()
	s.Reset()
	return nil
}
