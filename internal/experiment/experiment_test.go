package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

func smallStep() Params {
	p := DefaultParams()
	p.Kp = 0.4
	p.Ki = 0.2
	p.OmegaSet = 1.0
	return p
}

func TestParamsSetAliases(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		key  string
		want string
	}{
		{"kp", "kp"},
		{"Kp", "kp"},
		{"omegaSet", "omega_set"},
		{"max_moment", "maxMoment"},
	}

	for i, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := p.Set(tt.key, float64(i+1)); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			got, err := p.Get(tt.want)
			if err != nil {
				t.Fatalf("get failed: %v", err)
			}
			if got != float64(i+1) {
				t.Errorf("expected %d, got %f", i+1, got)
			}
		})
	}

	if err := p.Set("gravity", 1); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestParamsSetAllCanonicalWins(t *testing.T) {
	// Repeated so map iteration order cannot hide a dependence on it.
	for i := 0; i < 50; i++ {
		p := DefaultParams()
		err := p.SetAll(map[string]float64{
			"Kp":         9,
			"kp":         2,
			"max_moment": 7,
			"maxMoment":  3,
			"omegaSet":   4,
		})
		if err != nil {
			t.Fatalf("set all failed: %v", err)
		}
		if p.Kp != 2 || p.MaxMoment != 3 || p.OmegaSet != 4 {
			t.Fatalf("canonical keys should win, got kp=%v maxMoment=%v omega_set=%v", p.Kp, p.MaxMoment, p.OmegaSet)
		}
	}

	p := DefaultParams()
	if err := p.SetAll(map[string]float64{"gravity": 1}); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestOrderKeys(t *testing.T) {
	keys := []string{"kp", "omega_set", "Kp", "omegaSet"}
	OrderKeys(keys)
	want := []string{"Kp", "omegaSet", "kp", "omega_set"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero mass", func(p *Params) { p.Mass = 0 }},
		{"negative radius", func(p *Params) { p.Radius = -1 }},
		{"negative friction", func(p *Params) { p.B = -0.1 }},
		{"negative torque limit", func(p *Params) { p.MaxMoment = -0.5 }},
		{"nan gain", func(p *Params) { p.Kp = math.NaN() }},
		{"inf setpoint", func(p *Params) { p.OmegaSet = math.Inf(1) }},
	}

	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 12 {
		t.Errorf("expected 12 canonical names, got %d: %v", len(names), names)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if _, err := r.GetIntegrator("rk4"); err != nil {
		t.Errorf("rk4 should be registered: %v", err)
	}
	if got := r.ListIntegrators(); len(got) != 3 || got[2] != "rk45" {
		t.Errorf("unexpected integrators %v", got)
	}
	if _, err := r.GetIntegrator("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
	if _, err := r.GetController("lqr", DefaultParams(), DefaultOptions()); err == nil {
		t.Error("expected error for unknown controller")
	}

	ctrls := r.ListControllers()
	if len(ctrls) != 3 || ctrls[0] != "fuzzy" {
		t.Errorf("unexpected controllers %v", ctrls)
	}
}

func TestRunPIDSettles(t *testing.T) {
	out, err := New(smallStep(), DefaultOptions(), ControllerPID).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !out.Result.Stopped {
		t.Fatal("expected the run to stop once settled")
	}
	if out.Stats.SettlingTime <= 0 || out.Stats.SettlingTime > 20 {
		t.Errorf("unexpected settling time %f", out.Stats.SettlingTime)
	}
	if math.Abs(out.Stats.SteadyStateError) > 0.01 {
		t.Errorf("steady state error too large: %f", out.Stats.SteadyStateError)
	}
	if out.Stats.IntegralError <= 0 || out.Stats.IntegralTauAbs <= 0 {
		t.Errorf("expected positive integrals, got %+v", out.Stats)
	}

	tau := out.Tau()
	for i, v := range tau {
		if math.Abs(v) > 0.5 {
			t.Fatalf("torque %f at sample %d exceeds the limit", v, i)
		}
	}
	if len(tau) != len(out.Times()) || len(out.Omega()) != len(out.Times()) {
		t.Error("series lengths must match the time axis")
	}
}

func TestRunWithoutControlNeverSettles(t *testing.T) {
	opts := DefaultOptions()
	opts.Horizon = 2.0

	out, err := New(smallStep(), opts, ControllerNone).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out.Stats.SettlingTime != -1 {
		t.Errorf("expected -1, got %f", out.Stats.SettlingTime)
	}
	if out.Stats.SteadyStateError != 1.0 {
		t.Errorf("expected steady state error 1, got %f", out.Stats.SteadyStateError)
	}
	if len(out.Times()) != 2001 {
		t.Errorf("expected 2001 samples, got %d", len(out.Times()))
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	p := DefaultParams()
	p.Mass = 0
	if _, err := New(p, DefaultOptions(), ControllerPID).Run(context.Background()); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}

	opts := DefaultOptions()
	opts.Dt = 0
	if _, err := New(DefaultParams(), opts, ControllerPID).Run(context.Background()); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	opts = DefaultOptions()
	opts.Integrator = "leapfrog"
	if _, err := New(DefaultParams(), opts, ControllerPID).Run(context.Background()); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestCompareSharesTimeAxis(t *testing.T) {
	cmp, err := Compare(context.Background(), smallStep(), DefaultOptions())
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	n := len(cmp.Times())
	if len(cmp.Fuzzy.Times()) != n {
		t.Fatalf("time axes differ: pid=%d fuzzy=%d", n, len(cmp.Fuzzy.Times()))
	}
	for i, tv := range cmp.Fuzzy.Times() {
		if tv != cmp.PID.Times()[i] {
			t.Fatalf("time %d differs: %f vs %f", i, tv, cmp.PID.Times()[i])
		}
	}
	if len(cmp.PID.Omega()) != n || len(cmp.Fuzzy.Tau()) != n {
		t.Error("series lengths must match the time axis")
	}

	if cmp.PID.Stats.SettlingTime < 0 {
		t.Errorf("pid should settle, got %f", cmp.PID.Stats.SettlingTime)
	}
	if cmp.Fuzzy.Stats.SettlingTime < 0 {
		t.Errorf("fuzzy should settle, got %f", cmp.Fuzzy.Stats.SettlingTime)
	}
}

func TestCompareZeroSetpoint(t *testing.T) {
	cmp, err := Compare(context.Background(), DefaultParams(), DefaultOptions())
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	if math.Abs(cmp.PID.Stats.SettlingTime) > 1e-6 {
		t.Errorf("a wheel at rest is settled from the start, got %f", cmp.PID.Stats.SettlingTime)
	}
	n := len(cmp.Times())
	if n < 10001 || n > 10003 {
		t.Errorf("expected about 10 s of samples, got %d", n)
	}
}

func TestCompareCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Compare(ctx, smallStep(), DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
