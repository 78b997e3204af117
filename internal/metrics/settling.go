package metrics

import (
	"math"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

const (
	DefaultSettleHold  = 10.0
	DefaultSettleRatio = 0.01
	DefaultSettleFloor = 0.01
)

// Settling measures when x[0] entered the tolerance band around the setpoint
// for good. The band half-width is max(ratio*|target|, floor). A run counts
// as settled once it has stayed inside the band for hold seconds; the
// settling time is the moment it last entered. Settling also acts as a
// dynamo.Stopper and keeps reporting true once settled.
type Settling struct {
	target float64
	dt     float64
	hold   float64
	band   float64

	inBand  float64
	settled float64
	done    bool
}

func NewSettling(target, dt float64) *Settling {
	return NewSettlingBand(target, dt, DefaultSettleHold, DefaultSettleRatio, DefaultSettleFloor)
}

func NewSettlingBand(target, dt, hold, ratio, floor float64) *Settling {
	return &Settling{
		target:  target,
		dt:      dt,
		hold:    hold,
		band:    math.Max(ratio*math.Abs(target), floor),
		settled: -1,
	}
}

func (s *Settling) Name() string { return SettlingTime }

func (s *Settling) Observe(x dynamo.State, u dynamo.Control, t float64) {}

func (s *Settling) ShouldStop(x dynamo.State, t float64) bool {
	if s.done {
		return true
	}
	if len(x) == 0 {
		return false
	}

	if x[0] >= s.target-s.band && x[0] <= s.target+s.band {
		s.inBand += s.dt
		if s.inBand >= s.hold {
			s.settled = t - s.inBand
			s.done = true
		}
	} else {
		s.inBand = 0
	}
	return s.done
}

// Band returns the lower and upper band limits.
func (s *Settling) Band() (float64, float64) {
	return s.target - s.band, s.target + s.band
}

// Value is the settling time, or -1 if the run never settled.
func (s *Settling) Value() float64 { return s.settled }

func (s *Settling) Settled() bool { return s.done }

func (s *Settling) Reset() {
	s.inBand = 0
	s.settled = -1
	s.done = false
}
