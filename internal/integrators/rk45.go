package integrators

import (
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

const dopriStages = 7

// Dormand-Prince 5(4) tableau. The last row of a equals b, so the seventh
// stage is the derivative at the new state and only feeds the error estimate.
var dopri = struct {
	c [dopriStages]float64
	a [dopriStages][dopriStages - 1]float64
	b [dopriStages]float64
	e [dopriStages]float64
}{
	c: [dopriStages]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1},
	a: [dopriStages][dopriStages - 1]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	},
	b: [dopriStages]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
	e: [dopriStages]float64{
		35.0/384 - 5179.0/57600,
		0,
		500.0/1113 - 7571.0/16695,
		125.0/192 - 393.0/640,
		-2187.0/6784 + 92097.0/339200,
		11.0/84 - 187.0/2100,
		-1.0 / 40,
	},
}

// RK45 is the Dormand-Prince pair. Step advances with the fifth-order
// solution at the given dt; StepAdaptive also proposes the next step size.
type RK45 struct {
	Safety   float64
	MinScale float64
	MaxScale float64

	k     [dopriStages]dynamo.State
	stage dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		Safety:   0.9,
		MinScale: 0.2,
		MaxScale: 10.0,
	}
}

func (r *RK45) ensureScratch(n int) {
	if len(r.stage) == n {
		return
	}
	r.stage = make(dynamo.State, n)
	for s := range r.k {
		r.k[s] = make(dynamo.State, n)
	}
}

func (r *RK45) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	next, _ := r.step(dyn, x, u, t, dt)
	return next
}

// StepAdaptive takes one step of dt and returns the step size that would
// keep the relative local error near tol.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64) {
	next, errMax := r.step(dyn, x, u, t, dt)

	ratio := errMax / tol
	scale := r.MaxScale
	switch {
	case ratio > 1:
		scale = math.Max(r.MinScale, r.Safety*math.Pow(ratio, -0.25))
	case ratio > 0:
		scale = math.Min(r.MaxScale, r.Safety*math.Pow(ratio, -0.2))
	}
	return next, dt * scale
}

func (r *RK45) step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, float64) {
	n := len(x)
	r.ensureScratch(n)

	for s := 0; s < dopriStages; s++ {
		copy(r.stage, x)
		for j := 0; j < s; j++ {
			a := dopri.a[s][j]
			if a == 0 {
				continue
			}
			for i := range r.stage {
				r.stage[i] += dt * a * r.k[j][i]
			}
		}
		copy(r.k[s], dyn.Derive(r.stage, u, t+dopri.c[s]*dt))
	}

	next := make(dynamo.State, n)
	errMax := 0.0
	for i := 0; i < n; i++ {
		sum, est := 0.0, 0.0
		for s := 0; s < dopriStages; s++ {
			sum += dopri.b[s] * r.k[s][i]
			est += dopri.e[s] * r.k[s][i]
		}
		next[i] = x[i] + dt*sum

		scale := math.Abs(x[i]) + math.Abs(dt*r.k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*est)/scale)
	}
	return next, errMax
}
