// Package analysis provides numerical diagnostics for the double pendulum.
//
// The package includes tools for checking the integrator and characterizing
// the motion:
//
//   - [NormalModes] and [LinearSolution]: the small-angle analytic solution
//   - [StepDoubling]: observed convergence order of an integrator
//   - [EnergyDrift]: worst relative energy error over a run
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//   - [GeneratePhasePortrait]: 2D phase space trajectories
//   - [GeneratePoincareSection]: section of phase space at a crossing
//   - [DominantFrequencies]: spectral peaks of a recorded angle
//
// # Chaos Detection
//
// A clearly positive largest Lyapunov exponent indicates chaotic motion:
//
//	lambda := analysis.LyapunovExponent(dyn, integ, x0, dt, duration, 1e-8)
//	if lambda > 0.5 {
//	    // chaotic
//	}
package analysis
