package metrics

import (
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

// Metric names as they appear in results and on the wire.
const (
	SettlingTime     = "settling_time"
	SteadyStateError = "steady_state_error"
	IntegralError    = "integral_error"
	IntegralTauAbs   = "integral_tau_abs"
	PeakOvershoot    = "peak_overshoot"
	PeakEnergy       = "peak_energy"
)

// AbsErrorIntegral is the IAE of x[0] against a setpoint.
type AbsErrorIntegral struct {
	target float64
	dt     float64
	sum    float64
}

func NewAbsErrorIntegral(target, dt float64) *AbsErrorIntegral {
	return &AbsErrorIntegral{target: target, dt: dt}
}

func (a *AbsErrorIntegral) Name() string { return IntegralError }

func (a *AbsErrorIntegral) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) == 0 {
		return
	}
	a.sum += math.Abs(a.target-x[0]) * a.dt
}

func (a *AbsErrorIntegral) Value() float64 { return a.sum }
func (a *AbsErrorIntegral) Reset()         { a.sum = 0 }

// FinalError is setpoint minus x[0] at the last recorded state.
type FinalError struct {
	target float64
	last   float64
}

func NewFinalError(target float64) *FinalError {
	return &FinalError{target: target}
}

func (f *FinalError) Name() string { return SteadyStateError }

func (f *FinalError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) > 0 {
		f.last = x[0]
	}
}

func (f *FinalError) Finish(x dynamo.State, t float64) {
	if len(x) > 0 {
		f.last = x[0]
	}
}

func (f *FinalError) Value() float64 { return f.target - f.last }
func (f *FinalError) Reset()         { f.last = 0 }

// Overshoot is the largest excursion past the setpoint, in percent of
// |setpoint|. It is zero for a zero setpoint.
type Overshoot struct {
	target float64
	peak   float64
}

func NewOvershoot(target float64) *Overshoot {
	return &Overshoot{target: target}
}

func (o *Overshoot) Name() string { return PeakOvershoot }

func (o *Overshoot) Observe(x dynamo.State, u dynamo.Control, t float64) {
	o.track(x)
}

func (o *Overshoot) Finish(x dynamo.State, t float64) {
	o.track(x)
}

func (o *Overshoot) track(x dynamo.State) {
	if len(x) == 0 || o.target == 0 {
		return
	}
	dev := (x[0] - o.target) * math.Copysign(1, o.target)
	o.peak = math.Max(o.peak, dev)
}

func (o *Overshoot) Value() float64 {
	if o.target == 0 {
		return 0
	}
	return o.peak / math.Abs(o.target) * 100
}

func (o *Overshoot) Reset() { o.peak = 0 }
