// Package metrics scores controlled runs.
//
// Metrics observe each (state, control) pair before it is integrated, so
// integrals use left Riemann sums over the fixed step. Metrics that need the
// final state implement [dynamo.Finisher]; [Settling] doubles as a
// [dynamo.Stopper] to end runs early once the response has settled.
package metrics
