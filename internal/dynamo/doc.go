// Package dynamo provides the numerical primitives shared by the TRPL
// generator: state vectors, ODE systems, integrators and the error taxonomy.
//
// The package defines:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(t, X))
//   - [Jacobian]: optional analytic Jacobian for implicit integrators
//   - [Integrator]: fixed-step integrator interface
//   - [AdaptiveIntegrator]: integrators with their own error control
//   - [Tolerances]: explicit solver tolerances
//
// # Errors
//
// Failures are reported through three sentinels that callers match with
// errors.Is: [ErrInvalidParameter], [ErrSimulationFailure] and the more
// specific step errors wrapped by [SimulationError].
//
// # Example
//
//	sys, _ := physics.NewRelaxation(0.2, physics.DefaultPulse())
//	s := sim.New(sys, integrators.NewRadau5(dynamo.DefaultTolerances()), dynamo.DefaultTolerances())
//	result, err := s.Run(ctx, times, dynamo.State{0})
package dynamo
