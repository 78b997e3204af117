package metrics

import (
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

// Energy records the peak stored energy of a Hamiltonian system.
type Energy struct {
	sys  dynamo.Hamiltonian
	peak float64
}

func NewEnergy(sys dynamo.Hamiltonian) *Energy {
	return &Energy{sys: sys}
}

func (e *Energy) Name() string { return PeakEnergy }

func (e *Energy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	e.peak = math.Max(e.peak, e.sys.Energy(x))
}

func (e *Energy) Finish(x dynamo.State, t float64) {
	e.peak = math.Max(e.peak, e.sys.Energy(x))
}

func (e *Energy) Value() float64 { return e.peak }

func (e *Energy) Reset() { e.peak = 0 }
