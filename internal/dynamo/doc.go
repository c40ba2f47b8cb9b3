// Package dynamo provides the shared vocabulary of the simulation core.
//
// The package defines the types every other package speaks:
//
//   - [State]: flat vector of the system state
//   - [System]: an ODE right-hand side (dX/dt = f(X, t))
//   - [Integrator]: advances a [State] by one fixed step
//   - [Hamiltonian]: systems that can report their total energy
//   - [Metric], [Observer]: per-step hooks used by batch runs
//
// # Example
//
//	dp, err := models.NewDoublePendulum(models.DefaultParams())
//	if err != nil {
//	    return err
//	}
//	x := dynamo.State{math.Pi / 2, math.Pi / 2, 0, 0}
//	x = integrators.NewRK4().Step(dp, x, 0, 1.0/120)
//
// # Thread Safety
//
// [State] values are plain slices and are not safe for concurrent mutation.
// Integrators in this module are stateless and may be shared across
// goroutines as long as each goroutine owns its own [State].
package dynamo
