// Package dynamo provides core simulation primitives for controlled
// dynamical systems.
//
// The package defines the fundamental interfaces and types for fixed-step
// numerical simulation of ordinary differential equations:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Controller]: feedback controller interface
//   - [Metric], [Stopper]: per-step observers that score or end a run
//   - [Simulator]: orchestrates simulation runs
//
// # Example
//
//	sys, _ := physics.NewFlywheel(1.0, 0.5, 0.01, 0)
//	sim := dynamo.New(sys, integrators.NewEuler(), ctrl)
//	result, _ := sim.Run(ctx, dynamo.State{0}, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances, controllers and metrics are NOT thread-safe. Build a
// fresh set per goroutine; [ParallelFor] only partitions the index space.
package dynamo
