package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrTooShort = errors.New("not enough samples to analyse")

const minRippleSamples = 8

// PowerSpectrum returns the magnitude of the first half of the transform.
func PowerSpectrum(data []float64) []float64 {
	f := fft.FFTReal(data)
	ps := make([]float64, len(f)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(f[i])
	}
	return ps
}

// Ripple describes the residual oscillation of a signal.
type Ripple struct {
	Samples   int     `json:"samples"`
	Mean      float64 `json:"mean"`
	Amplitude float64 `json:"amplitude"`
	Frequency float64 `json:"frequency"`
}

// AnalyzeRipple looks at the samples with time >= from: their mean, half the
// peak-to-peak spread, and the frequency of the strongest non-DC bin. A flat
// signal reports zero frequency.
func AnalyzeRipple(times, values []float64, from float64) (Ripple, error) {
	n := min(len(times), len(values))
	start := 0
	for start < n && times[start] < from {
		start++
	}
	window := values[start:n]
	if len(window) < minRippleSamples {
		return Ripple{}, ErrTooShort
	}

	dt := (times[n-1] - times[start]) / float64(len(window)-1)
	if dt <= 0 {
		return Ripple{}, ErrTooShort
	}

	r := Ripple{Samples: len(window)}
	lo, hi := window[0], window[0]
	for _, v := range window {
		r.Mean += v
		lo = min(lo, v)
		hi = max(hi, v)
	}
	r.Mean /= float64(len(window))
	r.Amplitude = (hi - lo) / 2

	centered := make([]float64, len(window))
	for i, v := range window {
		centered[i] = v - r.Mean
	}
	ps := PowerSpectrum(centered)

	peak, best := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > best {
			peak, best = k, ps[k]
		}
	}
	if best > 1e-12 {
		r.Frequency = float64(peak) / (float64(len(centered)) * dt)
	}
	return r, nil
}
