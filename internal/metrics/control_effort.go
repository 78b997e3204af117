package metrics

import (
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

// ControlEffort integrates |u| over the run.
type ControlEffort struct {
	name string
	dt   float64
	sum  float64
}

func NewControlEffort(dt float64) *ControlEffort {
	return &ControlEffort{
		name: IntegralTauAbs,
		dt:   dt,
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for _, val := range u {
		c.sum += math.Abs(val) * c.dt
	}
}

func (c *ControlEffort) Value() float64 {
	return c.sum
}

func (c *ControlEffort) Reset() {
	c.sum = 0
}
