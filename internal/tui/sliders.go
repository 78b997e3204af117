package tui

import (
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/wheelsim/internal/experiment"
)

// Slider mirrors one range input of the browser page. Key is the payload
// key sent to the server.
type Slider struct {
	Key   string
	Label string
	Min   float64
	Max   float64
	Step  float64
	Value float64
}

// DefaultSliders returns the nine controls in page order.
func DefaultSliders() []Slider {
	return []Slider{
		{Key: "kp", Label: "Kp", Min: 0, Max: 5, Step: 0.01, Value: 1},
		{Key: "ki", Label: "Ki", Min: 0, Max: 2, Step: 0.01, Value: 0.1},
		{Key: "kd", Label: "Kd", Min: 0, Max: 0.5, Step: 0.001, Value: 0.01},
		{Key: "omega_set", Label: "ω setpoint [rad/s]", Min: 0, Max: 100, Step: 1, Value: 10},
		{Key: "b", Label: "Friction b", Min: 0, Max: 0.5, Step: 0.005, Value: 0.01},
		{Key: "disturbance", Label: "Disturbance [N·m]", Min: -1, Max: 1, Step: 0.01, Value: 0},
		{Key: "mass", Label: "Mass [kg]", Min: 0.1, Max: 10, Step: 0.1, Value: 1},
		{Key: "radius", Label: "Radius [m]", Min: 0.05, Max: 1, Step: 0.05, Value: 0.5},
		{Key: "maxMoment", Label: "Max torque [N·m]", Min: 0.1, Max: 5, Step: 0.1, Value: 0.5},
	}
}

// Set snaps v to the slider's step grid and clamps it to [Min, Max].
func (s *Slider) Set(v float64) {
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
	}
	s.Value = math.Max(s.Min, math.Min(s.Max, v))
	s.Value, _ = strconv.ParseFloat(s.Text(), 64)
}

// Move shifts the value by n steps.
func (s *Slider) Move(n int) {
	s.Set(s.Value + float64(n)*s.Step)
}

// Text is the label shown next to the slider, formatted with as many
// decimals as the step has.
func (s *Slider) Text() string {
	return strconv.FormatFloat(s.Value, 'f', decimals(s.Step), 64)
}

// Fraction is the value's position within the range.
func (s *Slider) Fraction() float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func decimals(step float64) int {
	txt := strconv.FormatFloat(step, 'f', -1, 64)
	if i := strings.IndexByte(txt, '.'); i >= 0 {
		return len(txt) - i - 1
	}
	return 0
}

// Params converts slider values into simulation parameters.
func Params(sliders []Slider) (experiment.Params, error) {
	p := experiment.DefaultParams()
	for _, s := range sliders {
		if err := p.Set(s.Key, s.Value); err != nil {
			return p, err
		}
	}
	return p, nil
}
