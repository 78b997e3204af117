package dynamo

import (
	"context"
	"fmt"
)

// Finisher is implemented by metrics that need the last recorded state,
// which Observe never sees because it runs before each step.
type Finisher interface {
	Finish(x State, t float64)
}

type Simulator struct {
	dyn        System
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
	stoppers   []Stopper
}

func New(dyn System, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		stoppers:   make([]Stopper, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) AddStopper(st Stopper)  { s.stoppers = append(s.stoppers, st) }

// Run integrates the system from x0. The first record is (t=0, x0, zero
// control); every later record pairs the integrated state with the control
// that produced it, so States, Controls and Times always have equal length.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	result := &Result{
		States:   make([]State, 0, steps+1),
		Controls: make([]Control, 0, steps+1),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
		Errors:   make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	result.States = append(result.States, x.Clone())
	result.Controls = append(result.Controls, make(Control, s.dyn.ControlDim()))
	result.Times = append(result.Times, t)

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		u := s.controller.Compute(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		newX := s.integrator.Step(s.dyn, x, u, t, dt)

		if cfg.ValidateState && !newX.IsValid() {
			runErr = &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState}
			result.Errors = append(result.Errors, runErr)
			break
		}

		x = newX
		t += dt
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)

		if s.shouldStop(x, t) && cfg.StopEarly {
			result.Stopped = true
			break
		}
	}

	for _, m := range s.metrics {
		if f, ok := m.(Finisher); ok {
			f.Finish(x, t)
		}
		result.Metrics[m.Name()] = m.Value()
	}

	return result, runErr
}

// shouldStop asks every stopper, so latching stoppers all see each state.
func (s *Simulator) shouldStop(x State, t float64) bool {
	stop := false
	for _, st := range s.stoppers {
		if st.ShouldStop(x, t) {
			stop = true
		}
	}
	return stop
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: state has %d components, system expects %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	return nil
}
