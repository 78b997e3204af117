// Package server exposes flywheel simulations over HTTP.
//
// Browsers load the embedded page from / and talk to /ws: each
// start_simulation message runs the PID and fuzzy controllers side by side
// and is answered with one simulation_data message. The same comparison is
// available as POST /api/simulate. Recorded runs are served from /api/runs.
package server
