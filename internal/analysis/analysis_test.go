package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestPowerSpectrumPeak(t *testing.T) {
	const n = 64
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Cos(2 * math.Pi * 5 * float64(i) / n)
	}

	ps := PowerSpectrum(data)
	if len(ps) != n/2 {
		t.Fatalf("expected %d bins, got %d", n/2, len(ps))
	}
	peak := 0
	for k := range ps {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if peak != 5 {
		t.Errorf("expected peak at bin 5, got %d", peak)
	}
}

func TestAnalyzeRippleSine(t *testing.T) {
	const dt = 0.001
	var times, values []float64
	for i := 0; i <= 8000; i++ {
		tm := float64(i) * dt
		times = append(times, tm)
		values = append(values, 5+math.Sin(2*math.Pi*2*tm))
	}

	r, err := AnalyzeRipple(times, values, 4)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if r.Samples != 4001 {
		t.Errorf("expected 4001 samples, got %d", r.Samples)
	}
	if math.Abs(r.Mean-5) > 0.01 {
		t.Errorf("expected mean 5, got %f", r.Mean)
	}
	if math.Abs(r.Amplitude-1) > 0.01 {
		t.Errorf("expected amplitude 1, got %f", r.Amplitude)
	}
	if math.Abs(r.Frequency-2) > 0.3 {
		t.Errorf("expected ~2 Hz, got %f", r.Frequency)
	}
}

func TestAnalyzeRippleFlat(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	values := make([]float64, len(times))
	for i := range values {
		values[i] = 3
	}

	r, err := AnalyzeRipple(times, values, 0)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if r.Amplitude != 0 || r.Frequency != 0 {
		t.Errorf("flat signal should have no ripple, got %+v", r)
	}
}

func TestAnalyzeRippleTooShort(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	values := make([]float64, len(times))

	if _, err := AnalyzeRipple(times, values, 5); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
}

func TestErrorPlane(t *testing.T) {
	times := []float64{0, 0.5, 1.0, 1.5}
	omega := []float64{0, 0.5, 1.0, 1.5}

	p := ErrorPlane(times, omega, 1)
	if len(p.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(p.Points))
	}
	for i, pt := range p.Points {
		if math.Abs(pt.Y+1) > 1e-12 {
			t.Errorf("point %d: expected rate -1, got %f", i, pt.Y)
		}
	}
	if p.Points[1].X != 0 {
		t.Errorf("expected zero error at t=1, got %f", p.Points[1].X)
	}
}

func TestErrorPlaneShort(t *testing.T) {
	if p := ErrorPlane([]float64{0}, []float64{0}, 1); len(p.Points) != 0 {
		t.Errorf("expected no points, got %d", len(p.Points))
	}
}

func TestPortraitASCII(t *testing.T) {
	p := ErrorPlane([]float64{0, 1, 2, 3}, []float64{0, 2, 1, 1.5}, 1)

	out := p.ASCII(20, 8)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(lines))
	}
	for i, line := range lines {
		if n := len([]rune(line)); n != 20 {
			t.Errorf("row %d: expected 20 columns, got %d", i, n)
		}
	}
	if !strings.Contains(out, "•") {
		t.Error("expected plotted points")
	}

	var empty *Portrait
	if empty.ASCII(20, 8) != "" {
		t.Error("nil portrait should render empty")
	}
}
