package control

import (
	"fmt"
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

// Linguistic terms shared by both inputs and the output.
const (
	NB = iota
	NS
	ZE
	PS
	PB
	numTerms
)

var (
	termCenters = [numTerms]float64{-1, -0.5, 0, 0.5, 1}
	termNames   = [numTerms]string{"NB", "NS", "ZE", "PS", "PB"}
)

const termHalfWidth = 0.5

// DefaultFuzzyGain is the torque slew, in multiples of Limit per second, at
// full output.
const DefaultFuzzyGain = 5.0

// ruleBase[e][de] is the output term. Diagonal table: the further error and
// error rate push the same way, the larger the torque increment.
var ruleBase = func() [numTerms][numTerms]int {
	var rb [numTerms][numTerms]int
	for i := 0; i < numTerms; i++ {
		for j := 0; j < numTerms; j++ {
			k := i + j - ZE
			if k < NB {
				k = NB
			}
			if k > PB {
				k = PB
			}
			rb[i][j] = k
		}
	}
	return rb
}()

// Fuzzy is an incremental (PI-type) fuzzy controller. Each step it maps the
// normalised error and error rate to a torque increment, integrates it and
// clamps the accumulated torque to ±Limit.
type Fuzzy struct {
	Target     float64
	Limit      float64
	Dt         float64
	Gain       float64
	ErrorScale float64
	RateScale  float64

	out     float64
	prevErr float64
	started bool
}

func NewFuzzy(target, limit, dt float64) *Fuzzy {
	return &Fuzzy{
		Target: target,
		Limit:  limit,
		Dt:     dt,
		Gain:   DefaultFuzzyGain,
	}
}

func (f *Fuzzy) errorScale() float64 {
	if f.ErrorScale > 0 {
		return f.ErrorScale
	}
	return math.Max(math.Abs(f.Target), 1)
}

func (f *Fuzzy) rateScale() float64 {
	if f.RateScale > 0 {
		return f.RateScale
	}
	return f.errorScale()
}

func (f *Fuzzy) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) < 1 || f.Dt <= 0 {
		return dynamo.Control{0}
	}

	err := f.Target - x[0]
	rate := 0.0
	if f.started {
		rate = (err - f.prevErr) / f.Dt
	}
	f.prevErr = err
	f.started = true

	en := clamp(err/f.errorScale(), 1)
	den := clamp(rate/f.rateScale(), 1)

	delta := Infer(en, den)
	f.out = clamp(f.out+delta*f.Gain*f.Limit*f.Dt, f.Limit)

	return dynamo.Control{f.out}
}

// Infer evaluates the rule base for normalised inputs in [-1, 1] and returns
// the defuzzified increment in [-1, 1].
func Infer(e, de float64) float64 {
	me := Memberships(e)
	mde := Memberships(de)

	num, den := 0.0, 0.0
	for i := 0; i < numTerms; i++ {
		if me[i] == 0 {
			continue
		}
		for j := 0; j < numTerms; j++ {
			w := math.Min(me[i], mde[j])
			if w == 0 {
				continue
			}
			num += w * termCenters[ruleBase[i][j]]
			den += w
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Memberships returns the degree of x in each term. For x in [-1, 1] the
// degrees sum to one.
func Memberships(x float64) [numTerms]float64 {
	var mu [numTerms]float64
	for i, c := range termCenters {
		d := math.Abs(x-c) / termHalfWidth
		if d < 1 {
			mu[i] = 1 - d
		}
	}
	return mu
}

// TermName returns the label of term i, e.g. "PS".
func TermName(i int) string {
	if i < 0 || i >= numTerms {
		return "?"
	}
	return termNames[i]
}

// Output is the currently accumulated torque.
func (f *Fuzzy) Output() float64 {
	return f.out
}

func (f *Fuzzy) Reset() {
	f.out = 0
	f.prevErr = 0
	f.started = false
}

func (f *Fuzzy) GetParams() map[string]float64 {
	return map[string]float64{
		"Gain":       f.Gain,
		"ErrorScale": f.errorScale(),
		"RateScale":  f.rateScale(),
		"Target":     f.Target,
		"Limit":      f.Limit,
	}
}

func (f *Fuzzy) SetParam(name string, value float64) error {
	switch name {
	case "Gain":
		if value < 0 {
			return fmt.Errorf("%w: gain must be non-negative, got %g", dynamo.ErrParameterBounds, value)
		}
		f.Gain = value
	case "ErrorScale":
		f.ErrorScale = value
	case "RateScale":
		f.RateScale = value
	case "Target":
		f.Target = value
	case "Limit":
		if value < 0 {
			return fmt.Errorf("%w: limit must be non-negative, got %g", dynamo.ErrParameterBounds, value)
		}
		f.Limit = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
