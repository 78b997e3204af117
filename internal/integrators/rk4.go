package integrators

import "github.com/san-kum/wheelsim/internal/dynamo"

// Classic fourth-order tableau: stage i evaluates at t + c[i]*dt from
// x + c[i]*dt*k[i-1], and the update weights the stages 1:2:2:1.
var (
	rk4Nodes   = [4]float64{0, 0.5, 0.5, 1}
	rk4Weights = [4]float64{1.0 / 6, 2.0 / 6, 2.0 / 6, 1.0 / 6}
)

// RK4 is the classic Runge-Kutta method. Stage buffers are reused between
// steps, so one RK4 must not be shared by concurrent simulations.
type RK4 struct {
	k     [4]dynamo.State
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.stage) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.ensureScratch(len(x))

	copy(r.k[0], dyn.Derive(x, u, t))
	for s := 1; s < len(r.k); s++ {
		h := rk4Nodes[s] * dt
		for i := range x {
			r.stage[i] = x[i] + h*r.k[s-1][i]
		}
		copy(r.k[s], dyn.Derive(r.stage, u, t+h))
	}

	next := make(dynamo.State, len(x))
	for i := range x {
		sum := 0.0
		for s, w := range rk4Weights {
			sum += w * r.k[s][i]
		}
		next[i] = x[i] + dt*sum
	}
	return next
}
