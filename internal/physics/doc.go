// Package physics provides the carrier-population model driven by the
// excitation pulse.
//
// [Relaxation] implements [dynamo.System] and [dynamo.Jacobian] for
//
//	dP/dt = -P/τ + I(t)
//
// where I(t) is a [Drive], usually a [GaussianPulse]. Because the system is
// linear in P with a Gaussian drive, [GaussianResponse] gives the exact
// solution from P(0) = 0, which tests and the solver comparison use as
// ground truth.
package physics
