// Package analysis inspects recorded speed trajectories.
//
//   - [ErrorPlane]: the (e, de/dt) trajectory, which is the input plane of
//     the fuzzy controller
//   - [AnalyzeRipple]: dominant frequency and amplitude of what is left of
//     the speed once a controller has settled
//
// # Example
//
//	p := analysis.ErrorPlane(series.Time, series.Omega, meta.Params.OmegaSet)
//	fmt.Print(p.ASCII(60, 20))
package analysis
