package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/wheelsim/internal/control"
	"github.com/san-kum/wheelsim/internal/dynamo"
)

// Params are the plant and controller settings of one simulation request.
type Params struct {
	Kp          float64 `json:"kp" yaml:"kp"`
	Ki          float64 `json:"ki" yaml:"ki"`
	Kd          float64 `json:"kd" yaml:"kd"`
	OmegaSet    float64 `json:"omega_set" yaml:"omega_set"`
	B           float64 `json:"b" yaml:"b"`
	Disturbance float64 `json:"disturbance" yaml:"disturbance"`
	Mass        float64 `json:"mass" yaml:"mass"`
	Radius      float64 `json:"radius" yaml:"radius"`
	MaxMoment   float64 `json:"maxMoment" yaml:"max_moment"`
	FuzzyGain   float64 `json:"fuzzy_gain,omitempty" yaml:"fuzzy_gain,omitempty"`
	ErrorScale  float64 `json:"error_scale,omitempty" yaml:"error_scale,omitempty"`
	RateScale   float64 `json:"rate_scale,omitempty" yaml:"rate_scale,omitempty"`
}

const (
	DefaultMass      = 1.0
	DefaultRadius    = 0.5
	DefaultMaxMoment = 0.5
)

func DefaultParams() Params {
	return Params{
		Mass:      DefaultMass,
		Radius:    DefaultRadius,
		MaxMoment: DefaultMaxMoment,
		FuzzyGain: control.DefaultFuzzyGain,
	}
}

// paramAliases maps every accepted key to its canonical name. Canonical
// names are the browser slider keys; the capitalised gains are what older
// clients sent.
var paramAliases = map[string]string{
	"kp": "kp", "Kp": "kp",
	"ki": "ki", "Ki": "ki",
	"kd": "kd", "Kd": "kd",
	"omega_set": "omega_set", "omegaSet": "omega_set",
	"b":           "b",
	"disturbance": "disturbance",
	"mass":        "mass",
	"radius":      "radius",
	"maxMoment":   "maxMoment", "max_moment": "maxMoment",
	"fuzzy_gain":  "fuzzy_gain", "fuzzyGain": "fuzzy_gain",
	"error_scale": "error_scale", "errorScale": "error_scale",
	"rate_scale":  "rate_scale", "rateScale": "rate_scale",
}

// Canonical resolves an accepted key to its canonical name.
func Canonical(key string) (string, bool) {
	name, ok := paramAliases[key]
	return name, ok
}

func (p *Params) field(name string) *float64 {
	switch name {
	case "kp":
		return &p.Kp
	case "ki":
		return &p.Ki
	case "kd":
		return &p.Kd
	case "omega_set":
		return &p.OmegaSet
	case "b":
		return &p.B
	case "disturbance":
		return &p.Disturbance
	case "mass":
		return &p.Mass
	case "radius":
		return &p.Radius
	case "maxMoment":
		return &p.MaxMoment
	case "fuzzy_gain":
		return &p.FuzzyGain
	case "error_scale":
		return &p.ErrorScale
	case "rate_scale":
		return &p.RateScale
	}
	return nil
}

// Set assigns a parameter by any accepted key.
func (p *Params) Set(key string, value float64) error {
	name, ok := Canonical(key)
	if !ok {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, key)
	}
	*p.field(name) = value
	return nil
}

// SetAll assigns every value in values. Aliases are applied before canonical
// keys, so when both name the same parameter the canonical key wins.
func (p *Params) SetAll(values map[string]float64) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	OrderKeys(keys)
	for _, k := range keys {
		if err := p.Set(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// OrderKeys sorts keys into application order: aliases first, then
// canonical names, each group alphabetically.
func OrderKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := isCanonical(keys[i]), isCanonical(keys[j])
		if ci != cj {
			return cj
		}
		return keys[i] < keys[j]
	})
}

func isCanonical(key string) bool {
	name, _ := Canonical(key)
	return name == key
}

// Get reads a parameter by any accepted key.
func (p Params) Get(key string) (float64, error) {
	name, ok := Canonical(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, key)
	}
	return *p.field(name), nil
}

// Values returns the parameters keyed by canonical name.
func (p Params) Values() map[string]float64 {
	out := make(map[string]float64)
	for _, name := range paramAliases {
		out[name] = *p.field(name)
	}
	return out
}

// Names lists canonical parameter names in sorted order.
func Names() []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, name := range paramAliases {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (p Params) Validate() error {
	for name, v := range p.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", dynamo.ErrParameterBounds, name)
		}
	}
	switch {
	case p.Mass <= 0:
		return fmt.Errorf("%w: mass must be positive, got %g", dynamo.ErrParameterBounds, p.Mass)
	case p.Radius <= 0:
		return fmt.Errorf("%w: radius must be positive, got %g", dynamo.ErrParameterBounds, p.Radius)
	case p.B < 0:
		return fmt.Errorf("%w: b must be non-negative, got %g", dynamo.ErrParameterBounds, p.B)
	case p.MaxMoment < 0:
		return fmt.Errorf("%w: maxMoment must be non-negative, got %g", dynamo.ErrParameterBounds, p.MaxMoment)
	case p.FuzzyGain < 0:
		return fmt.Errorf("%w: fuzzy_gain must be non-negative, got %g", dynamo.ErrParameterBounds, p.FuzzyGain)
	case p.ErrorScale < 0 || p.RateScale < 0:
		return fmt.Errorf("%w: fuzzy scales must be non-negative", dynamo.ErrParameterBounds)
	}
	return nil
}

// Options control how a run is integrated and when it ends.
type Options struct {
	Integrator  string  `json:"integrator" yaml:"integrator" mapstructure:"integrator"`
	Dt          float64 `json:"dt" yaml:"dt" mapstructure:"dt"`
	Horizon     float64 `json:"horizon" yaml:"horizon" mapstructure:"horizon"`
	SettleHold  float64 `json:"settle_hold" yaml:"settle_hold" mapstructure:"settle_hold"`
	SettleRatio float64 `json:"settle_ratio" yaml:"settle_ratio" mapstructure:"settle_ratio"`
	SettleFloor float64 `json:"settle_floor" yaml:"settle_floor" mapstructure:"settle_floor"`
	StopEarly   bool    `json:"stop_early" yaml:"stop_early" mapstructure:"stop_early"`
}

// DefaultOptions reproduce the reference loop: explicit Euler at 1 ms for at
// most 120000 iterations, stopping once the speed has held the band for 10 s.
func DefaultOptions() Options {
	return Options{
		Integrator:  "euler",
		Dt:          0.001,
		Horizon:     120.0,
		SettleHold:  10.0,
		SettleRatio: 0.01,
		SettleFloor: 0.01,
		StopEarly:   true,
	}
}

func (o Options) Validate() error {
	if o.Dt <= 0 || o.Horizon <= 0 || o.Horizon < o.Dt {
		return fmt.Errorf("%w: dt=%g horizon=%g", dynamo.ErrInvalidConfig, o.Dt, o.Horizon)
	}
	if o.SettleHold < 0 || o.SettleRatio < 0 || o.SettleFloor < 0 {
		return fmt.Errorf("%w: settling band must be non-negative", dynamo.ErrInvalidConfig)
	}
	return nil
}
