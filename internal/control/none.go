package control

import "github.com/san-kum/wheelsim/internal/dynamo"

// None applies no torque. It is the open-loop baseline for `run --controller
// none`: the wheel only responds to friction and the load disturbance.
type None struct {
	Dim int
}

func NewNone(dim int) *None {
	return &None{Dim: dim}
}

func (n *None) Compute(dynamo.State, float64) dynamo.Control {
	if n.Dim < 1 {
		return dynamo.Control{0}
	}
	return make(dynamo.Control, n.Dim)
}
