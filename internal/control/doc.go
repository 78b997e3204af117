// Package control provides feedback controllers for the flywheel.
//
// Controllers implement the [dynamo.Controller] interface to compute
// control inputs based on system state:
//
//   - [PID]: Proportional-Integral-Derivative controller with output clamp
//   - [Fuzzy]: incremental fuzzy PI controller (5x5 rule base)
//   - [None]: Passthrough controller (zero control)
//
// # Usage
//
//	pid := control.NewPID(1.0, 0.1, 0.01, 10.0, 0.5, 0.001) // Kp, Ki, Kd, setpoint, limit, dt
//	sim := dynamo.New(sys, integ, pid)
//	// Controller.Compute is called each timestep
//
// Both feedback controllers assume one Compute call per fixed step of Dt.
// Controllers implementing [dynamo.Configurable] support live tuning.
package control
