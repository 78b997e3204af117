package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

func TestRK45Oscillator(t *testing.T) {
	integ := NewRK45()
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x = integ.Step(&oscillator{}, x, nil, float64(i)*dt, dt)
	}

	if !x.IsValid() {
		t.Fatal("RK45 produced invalid state")
	}
	energy := 0.5 * (x[0]*x[0] + x[1]*x[1])
	if drift := math.Abs(energy - 0.5); drift > 1e-6 {
		t.Errorf("energy drift too high: %e", drift)
	}
}

func TestRK45StepAdaptive(t *testing.T) {
	tests := []struct {
		name    string
		dt, tol float64
		grow    bool
	}{
		{"step too large", 1.0, 1e-10, false},
		{"step too small", 1e-4, 1e-3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, next := NewRK45().StepAdaptive(&oscillator{}, dynamo.State{1.0, 0.0}, nil, 0, tt.dt, tt.tol)
			if tt.grow && next <= tt.dt {
				t.Errorf("expected a larger step than %g, got %g", tt.dt, next)
			}
			if !tt.grow && next >= tt.dt {
				t.Errorf("expected a smaller step than %g, got %g", tt.dt, next)
			}
		})
	}
}
