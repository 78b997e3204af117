// Package physics provides the plant models driven by the controllers.
//
// Each model implements the [dynamo.System] interface, defining the
// differential equations governing the system's evolution. [Flywheel] is a
// solid disc with viscous friction and a constant load torque:
//
//	I = m*r^2/2
//	dω/dt = (τ - b*ω - d) / I
//
// Models also implement [dynamo.Configurable] for runtime parameter
// adjustment and [dynamo.Hamiltonian] for kinetic energy.
package physics
