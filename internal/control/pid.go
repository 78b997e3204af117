package control

import (
	"fmt"
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

// PID tracks Target on x[0] with a fixed sample period Dt. The output is
// clamped to ±Limit. The integral is not clamped, and the first derivative
// is taken against a zero previous error.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64
	Limit  float64
	Dt     float64

	integral float64
	prevErr  float64
}

func NewPID(kp, ki, kd, target, limit, dt float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		Limit:  limit,
		Dt:     dt,
	}
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) < 1 || p.Dt <= 0 {
		return dynamo.Control{0}
	}

	err := p.Target - x[0]
	p.integral += err * p.Dt
	derivative := (err - p.prevErr) / p.Dt
	p.prevErr = err

	u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative
	return dynamo.Control{clamp(u, p.Limit)}
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
		"Limit":  p.Limit,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	case "Limit":
		if value < 0 {
			return fmt.Errorf("%w: limit must be non-negative, got %g", dynamo.ErrParameterBounds, value)
		}
		p.Limit = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
