package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

// Flywheel is a solid disc spun by a torque against viscous friction and a
// constant load. State is [omega], control is [tau].
type Flywheel struct {
	Mass        float64
	Radius      float64
	Friction    float64
	Disturbance float64
}

func NewFlywheel(mass, radius, friction, disturbance float64) (*Flywheel, error) {
	f := &Flywheel{
		Mass:        mass,
		Radius:      radius,
		Friction:    friction,
		Disturbance: disturbance,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Flywheel) Validate() error {
	for name, v := range f.GetParams() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", dynamo.ErrParameterBounds, name)
		}
	}
	if f.Mass <= 0 {
		return fmt.Errorf("%w: mass must be positive, got %g", dynamo.ErrParameterBounds, f.Mass)
	}
	if f.Radius <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %g", dynamo.ErrParameterBounds, f.Radius)
	}
	if f.Friction < 0 {
		return fmt.Errorf("%w: friction must be non-negative, got %g", dynamo.ErrParameterBounds, f.Friction)
	}
	return nil
}

// Inertia of a solid disc about its axis.
func (f *Flywheel) Inertia() float64 {
	return 0.5 * f.Mass * f.Radius * f.Radius
}

func (f *Flywheel) StateDim() int {
	return 1
}

func (f *Flywheel) ControlDim() int {
	return 1
}

func (f *Flywheel) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	omega := x[0]

	torque := 0.0
	if len(u) > 0 {
		torque = u[0]
	}
	alpha := (torque - f.Friction*omega - f.Disturbance) / f.Inertia()

	return dynamo.State{alpha}
}

func (f *Flywheel) Energy(x dynamo.State) float64 {
	return 0.5 * f.Inertia() * x[0] * x[0]
}

func (f *Flywheel) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":        f.Mass,
		"radius":      f.Radius,
		"friction":    f.Friction,
		"disturbance": f.Disturbance,
	}
}

func (f *Flywheel) SetParam(name string, value float64) error {
	next := *f
	switch name {
	case "mass":
		next.Mass = value
	case "radius":
		next.Radius = value
	case "friction":
		next.Friction = value
	case "disturbance":
		next.Disturbance = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*f = next
	return nil
}
