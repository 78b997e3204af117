package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Controller computes the control input for state x at time t. The simulator
// calls it exactly once per fixed step, so stateful controllers may rely on
// consecutive calls being dt apart.
type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

// Stopper is consulted after every step with the freshly integrated state.
type Stopper interface {
	ShouldStop(x State, t float64) bool
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
	StopEarly     bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.001,
		Duration:      120.0,
		ValidateState: true,
		StopEarly:     true,
	}
}

// Steps is the number of fixed steps that cover Duration.
func (c Config) Steps() int {
	return int(math.Round(c.Duration / c.Dt))
}

type Result struct {
	States     []State
	Controls   []Control
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Stopped    bool
	Errors     []error
}

// Series extracts component i of every recorded state.
func (r *Result) Series(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}

// ControlSeries extracts component i of every recorded control.
func (r *Result) ControlSeries(i int) []float64 {
	out := make([]float64, len(r.Controls))
	for k, u := range r.Controls {
		if i < len(u) {
			out[k] = u[i]
		}
	}
	return out
}

// Duration is the simulated time covered by the result.
func (r *Result) Duration() float64 {
	if len(r.Times) == 0 {
		return 0
	}
	return r.Times[len(r.Times)-1]
}
