package sim_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/integrators"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/sim"
)

// nanAfter behaves like RK4 until it has been called n times, then returns NaN.
type nanAfter struct {
	n     int
	calls int
}

func (f *nanAfter) Name() string { return "nan-after" }

func (f *nanAfter) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	f.calls++
	if f.calls > f.n {
		return dynamo.State{math.NaN(), 0, 0, 0}
	}
	return integrators.NewRK4().Step(dyn, x, t, dt)
}

var _ = Describe("Session", func() {
	const dt = 1.0 / 120

	var s *sim.Session

	BeforeEach(func() {
		var err error
		s, err = sim.NewSession(models.UnitParams(), models.RestState(math.Pi/2, math.Pi/2), dt, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		It("starts in setup at the given pose", func() {
			Expect(s.Phase()).To(Equal(sim.PhaseSetup))
			Expect(s.State()).To(Equal(dynamo.State{math.Pi / 2, math.Pi / 2, 0, 0}))
			Expect(s.Time()).To(BeZero())
			Expect(s.Dt()).To(Equal(dt))
		})

		It("rejects invalid masses", func() {
			p := models.UnitParams()
			p.M2 = 0
			_, err := sim.NewSession(p, models.RestState(0, 0), dt, nil)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("rejects a bad time step", func() {
			for _, bad := range []float64{0, -dt, math.NaN(), math.Inf(1)} {
				_, err := sim.NewSession(models.UnitParams(), models.RestState(0, 0), bad, nil)
				Expect(err).To(MatchError(dynamo.ErrInvalidStep))
			}
		})

		It("rejects a non-finite or short initial state", func() {
			_, err := sim.NewSession(models.UnitParams(), dynamo.State{math.NaN(), 0, 0, 0}, dt, nil)
			Expect(err).To(MatchError(dynamo.ErrInvalidState))

			_, err = sim.NewSession(models.UnitParams(), dynamo.State{0, 0}, dt, nil)
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})
	})

	Describe("setup", func() {
		It("moves the arms and zeroes velocities", func() {
			Expect(s.SetAngles(0.4, -0.2)).To(Succeed())
			Expect(s.State()).To(Equal(dynamo.State{0.4, -0.2, 0, 0}))

			bob1, _ := s.Positions()
			Expect(bob1.X).To(BeNumerically("~", math.Sin(0.4), 1e-12))
		})

		It("does not integrate before start", func() {
			before := s.State()
			Expect(s.Advance(10)).To(Succeed())
			Expect(s.State()).To(Equal(before))
			Expect(s.Steps()).To(BeZero())
		})

		It("refuses to move the arms once running", func() {
			Expect(s.Start(0)).To(Succeed())
			Expect(s.SetAngles(0, 0)).To(MatchError(sim.ErrNotInSetup))
		})
	})

	Describe("running", func() {
		It("adds the kick to the inner arm", func() {
			Expect(s.Start(0.25)).To(Succeed())
			Expect(s.Phase()).To(Equal(sim.PhaseRunning))
			Expect(s.State()[models.Omega1]).To(Equal(0.25))
			Expect(s.State()[models.Omega2]).To(BeZero())
		})

		It("advances exactly one step per call", func() {
			Expect(s.Start(0)).To(Succeed())
			x0 := s.State()

			Expect(s.Step()).To(Succeed())
			want := integrators.NewRK4().Step(s.Model(), x0, 0, dt)
			Expect(s.State()).To(Equal(want))
			Expect(s.Steps()).To(Equal(1))
			Expect(s.Time()).To(BeNumerically("~", dt, 1e-15))
		})

		It("is deterministic", func() {
			other, err := sim.NewSession(models.UnitParams(), models.RestState(math.Pi/2, math.Pi/2), dt, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Start(0.1)).To(Succeed())
			Expect(other.Start(0.1)).To(Succeed())
			Expect(s.Advance(600)).To(Succeed())
			Expect(other.Advance(600)).To(Succeed())

			Expect(s.State()).To(Equal(other.State()))
		})

		It("keeps energy within two percent of the scale", func() {
			Expect(s.Start(0)).To(Succeed())
			e0 := s.Energy()
			Expect(s.Advance(10000)).To(Succeed())

			drift := math.Abs(s.Energy()-e0) / s.Model().EnergyScale()
			Expect(drift).To(BeNumerically("<", 0.02))
		})
	})

	Describe("pausing", func() {
		BeforeEach(func() {
			Expect(s.Start(0)).To(Succeed())
			Expect(s.Advance(5)).To(Succeed())
		})

		It("freezes the state", func() {
			Expect(s.Pause()).To(Succeed())
			frozen := s.State()

			Expect(s.Advance(50)).To(Succeed())
			Expect(s.State()).To(Equal(frozen))
			Expect(s.Steps()).To(Equal(5))
		})

		It("toggles back to running", func() {
			s.TogglePause()
			Expect(s.Phase()).To(Equal(sim.PhasePaused))
			s.TogglePause()
			Expect(s.Phase()).To(Equal(sim.PhaseRunning))
		})

		It("only resumes a paused session", func() {
			Expect(s.Resume()).To(MatchError(dynamo.ErrNotRunning))
			Expect(s.Pause()).To(Succeed())
			Expect(s.Pause()).To(MatchError(dynamo.ErrNotRunning))
			Expect(s.Resume()).To(Succeed())
		})
	})

	Describe("divergence", func() {
		var faulty *sim.Session

		BeforeEach(func() {
			var err error
			faulty, err = sim.NewSession(models.UnitParams(), models.RestState(1, 1), dt, &nanAfter{n: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(faulty.Start(0)).To(Succeed())
		})

		It("stops at the last finite state", func() {
			err := faulty.Advance(10)
			Expect(err).To(MatchError(dynamo.ErrUnstable))

			var simErr *dynamo.SimulationError
			Expect(err).To(BeAssignableToTypeOf(simErr))

			Expect(faulty.Phase()).To(Equal(sim.PhaseDiverged))
			Expect(faulty.Steps()).To(Equal(3))
			Expect(faulty.State().IsValid()).To(BeTrue())
		})

		It("refuses further steps until reset", func() {
			Expect(faulty.Advance(10)).To(HaveOccurred())
			Expect(faulty.Step()).To(MatchError(dynamo.ErrUnstable))
			Expect(faulty.Steps()).To(Equal(3))

			faulty.Reset()
			Expect(faulty.Phase()).To(Equal(sim.PhaseSetup))
			Expect(faulty.Err()).NotTo(HaveOccurred())
		})
	})

	Describe("reset", func() {
		It("returns to the setup pose", func() {
			Expect(s.SetAngles(0.3, 0.6)).To(Succeed())
			Expect(s.Start(0.5)).To(Succeed())
			Expect(s.Advance(100)).To(Succeed())

			s.Reset()
			Expect(s.Phase()).To(Equal(sim.PhaseSetup))
			Expect(s.State()).To(Equal(dynamo.State{0.3, 0.6, 0, 0}))
			Expect(s.Steps()).To(BeZero())
		})

		It("restarts from a replacement state", func() {
			Expect(s.Restart(dynamo.State{0.1, 0.2, 0.3, 0.4})).To(Succeed())
			Expect(s.State()).To(Equal(dynamo.State{0.1, 0.2, 0.3, 0.4}))
			Expect(s.Restart(dynamo.State{math.Inf(1), 0, 0, 0})).To(MatchError(dynamo.ErrInvalidState))
		})
	})
})
