package dynamo

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

type decaySystem struct{}

func (d *decaySystem) Derive(x State, u Control, t float64) State {
	return State{-x[0] + u[0]}
}

func (d *decaySystem) StateDim() int   { return 1 }
func (d *decaySystem) ControlDim() int { return 1 }

type blowupSystem struct{}

func (b *blowupSystem) Derive(x State, u Control, t float64) State {
	return State{math.Inf(1)}
}

func (b *blowupSystem) StateDim() int   { return 1 }
func (b *blowupSystem) ControlDim() int { return 1 }

type testIntegrator struct{}

func (ti *testIntegrator) Step(dyn System, x State, u Control, t float64, dt float64) State {
	dx := dyn.Derive(x, u, t)
	return State{x[0] + dt*dx[0]}
}

type constController struct{ u float64 }

func (c *constController) Compute(x State, t float64) Control {
	return Control{c.u}
}

type testMetric struct {
	count int
	sum   float64
	last  State
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(x State, u Control, t float64) {
	m.count++
	m.sum += x[0]
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}
func (m *testMetric) Finish(x State, t float64) { m.last = x.Clone() }

type countStopper struct {
	after int
	seen  int
}

func (c *countStopper) ShouldStop(x State, t float64) bool {
	c.seen++
	return c.seen >= c.after
}

func TestSimulatorRun(t *testing.T) {
	sim := New(&decaySystem{}, &testIntegrator{}, &constController{})

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if len(result.Controls) != 11 {
		t.Errorf("expected 11 controls, got %d", len(result.Controls))
	}
	if result.Controls[0][0] != 0 {
		t.Errorf("initial control should be zero, got %f", result.Controls[0][0])
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}

	finalState := result.States[len(result.States)-1][0]
	expected := math.Exp(-1.0)
	if math.Abs(finalState-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, finalState)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&decaySystem{}, &testIntegrator{}, &constController{})

	tests := []struct {
		name string
		x0   State
		cfg  Config
		want error
	}{
		{"zero dt", State{1}, Config{Dt: 0, Duration: 1.0}, ErrInvalidConfig},
		{"negative dt", State{1}, Config{Dt: -0.1, Duration: 1.0}, ErrInvalidConfig},
		{"zero duration", State{1}, Config{Dt: 0.1, Duration: 0}, ErrInvalidConfig},
		{"negative duration", State{1}, Config{Dt: 0.1, Duration: -1.0}, ErrInvalidConfig},
		{"wrong dimension", State{1, 2}, Config{Dt: 0.1, Duration: 1.0}, ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.x0, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&decaySystem{}, &testIntegrator{}, &constController{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
	final := result.States[len(result.States)-1]
	if metric.last == nil || metric.last[0] != final[0] {
		t.Errorf("finisher should see final state %v, got %v", final, metric.last)
	}
}

func TestSimulatorStopEarly(t *testing.T) {
	sim := New(&decaySystem{}, &testIntegrator{}, &constController{})
	stopper := &countStopper{after: 3}
	sim.AddStopper(stopper)

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0, StopEarly: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !result.Stopped {
		t.Error("expected run to stop early")
	}
	if len(result.States) != 4 {
		t.Errorf("expected 4 states, got %d", len(result.States))
	}
}

func TestSimulatorStopperWithoutStopEarly(t *testing.T) {
	sim := New(&decaySystem{}, &testIntegrator{}, &constController{})
	stopper := &countStopper{after: 3}
	sim.AddStopper(stopper)

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Stopped {
		t.Error("run should not stop when StopEarly is false")
	}
	if stopper.seen != 10 {
		t.Errorf("stopper should see every step, saw %d", stopper.seen)
	}
}

func TestSimulatorInvalidState(t *testing.T) {
	sim := New(&blowupSystem{}, &testIntegrator{}, &constController{})

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0, ValidateState: true})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %T", err)
	}
	if simErr.Step != 0 {
		t.Errorf("expected failure at step 0, got %d", simErr.Step)
	}
	if len(result.States) != 1 {
		t.Errorf("invalid state must not be recorded, got %d states", len(result.States))
	}
}

func TestSimulatorCanceled(t *testing.T) {
	sim := New(&decaySystem{}, &testIntegrator{}, &constController{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sim.Run(ctx, State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || len(result.States) != 1 {
		t.Error("expected partial result with the initial state")
	}
}

func TestResultSeries(t *testing.T) {
	r := &Result{
		States:   []State{{1}, {2}, {3}},
		Controls: []Control{{0}, {0.5}, {0.25}},
		Times:    []float64{0, 0.1, 0.2},
	}

	omega := r.Series(0)
	if len(omega) != 3 || omega[2] != 3 {
		t.Errorf("unexpected series %v", omega)
	}
	tau := r.ControlSeries(0)
	if tau[1] != 0.5 {
		t.Errorf("unexpected control series %v", tau)
	}
	if r.Duration() != 0.2 {
		t.Errorf("expected duration 0.2, got %f", r.Duration())
	}
}

func TestConfigSteps(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Steps(); got != 120000 {
		t.Errorf("expected 120000 steps, got %d", got)
	}
}

func TestParallelFor(t *testing.T) {
	var visited [100]int32
	ParallelFor(len(visited), 7, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&visited[i], 1)
		}
	})

	for i, v := range visited {
		if v != 1 {
			t.Errorf("index %d visited %d times", i, v)
		}
	}
}

func TestStateIsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}
