package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

type spinner struct{ inertia float64 }

func (s spinner) Energy(x dynamo.State) float64 { return 0.5 * s.inertia * x[0] * x[0] }

func TestAbsErrorIntegral(t *testing.T) {
	m := NewAbsErrorIntegral(10, 0.1)
	m.Observe(dynamo.State{0}, dynamo.Control{0}, 0)
	m.Observe(dynamo.State{12}, dynamo.Control{0}, 0.1)

	if math.Abs(m.Value()-1.2) > 1e-12 {
		t.Errorf("expected 1.2, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort(0.5)
	m.Observe(nil, dynamo.Control{-1}, 0)
	m.Observe(nil, dynamo.Control{2}, 0.5)

	if m.Name() != IntegralTauAbs {
		t.Errorf("unexpected name %s", m.Name())
	}
	if math.Abs(m.Value()-1.5) > 1e-12 {
		t.Errorf("expected 1.5, got %f", m.Value())
	}
}

func TestFinalErrorUsesFinishedState(t *testing.T) {
	m := NewFinalError(5)
	m.Observe(dynamo.State{1}, nil, 0)
	m.Finish(dynamo.State{4.5}, 1)

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestOvershoot(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		path   []float64
		want   float64
	}{
		{"no overshoot", 10, []float64{0, 5, 9.9}, 0},
		{"positive setpoint", 10, []float64{0, 11, 10}, 10},
		{"negative setpoint", -10, []float64{0, -12, -10}, 20},
		{"zero setpoint", 0, []float64{0, 3, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewOvershoot(tt.target)
			for _, v := range tt.path {
				m.Observe(dynamo.State{v}, nil, 0)
			}
			if math.Abs(m.Value()-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, m.Value())
			}
		})
	}
}

func TestSettlingBand(t *testing.T) {
	lo, hi := NewSettling(100, 0.001).Band()
	if math.Abs(lo-99) > 1e-12 || math.Abs(hi-101) > 1e-12 {
		t.Errorf("expected band [99, 101], got [%f, %f]", lo, hi)
	}

	lo, hi = NewSettling(0, 0.001).Band()
	if math.Abs(lo+0.01) > 1e-12 || math.Abs(hi-0.01) > 1e-12 {
		t.Errorf("expected floor band [-0.01, 0.01], got [%f, %f]", lo, hi)
	}
}

func TestSettlingLatches(t *testing.T) {
	s := NewSettlingBand(1, 0.5, 1.0, 0.01, 0.01)

	// out, in, out, in, in, in: the final stretch inside the band covers
	// the steps from t=1.5 and the hold of 1.0 completes at t=2.5.
	path := []float64{0, 1, 0, 1, 1, 1}
	var stopped []bool
	for i, v := range path {
		stopped = append(stopped, s.ShouldStop(dynamo.State{v}, float64(i+1)*0.5))
	}

	want := []bool{false, false, false, false, true, true}
	for i := range want {
		if stopped[i] != want[i] {
			t.Errorf("step %d: expected stop=%v, got %v", i, want[i], stopped[i])
		}
	}
	if !s.Settled() {
		t.Fatal("expected settled")
	}
	if math.Abs(s.Value()-1.5) > 1e-12 {
		t.Errorf("expected settling time 1.5, got %f", s.Value())
	}

	// Leaving the band after settling does not change the latched value.
	s.ShouldStop(dynamo.State{5}, 3.5)
	if math.Abs(s.Value()-1.5) > 1e-12 {
		t.Errorf("settling time must latch, got %f", s.Value())
	}
}

func TestSettlingNeverSettles(t *testing.T) {
	s := NewSettling(10, 0.001)
	for i := 0; i < 100; i++ {
		s.ShouldStop(dynamo.State{0}, float64(i)*0.001)
	}
	if s.Value() != -1 {
		t.Errorf("expected -1, got %f", s.Value())
	}

	s.Reset()
	if s.Settled() {
		t.Error("expected reset to clear settled flag")
	}
}

func TestEnergyPeak(t *testing.T) {
	m := NewEnergy(spinner{inertia: 2})
	m.Observe(dynamo.State{1}, nil, 0)
	m.Observe(dynamo.State{3}, nil, 0)
	m.Finish(dynamo.State{2}, 0)

	if math.Abs(m.Value()-9) > 1e-12 {
		t.Errorf("expected peak 9, got %f", m.Value())
	}
}
