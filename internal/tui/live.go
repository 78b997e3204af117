package tui

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/san-kum/wheelsim/internal/dynamo"
)

const (
	clearLine  = "\r\033[2K"
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"
)

// LiveRenderer is a dynamo.Observer that redraws one status line with a
// spinning wheel, the speed against its setpoint and the torque. Frames are
// throttled to frameRate per second of wall time.
type LiveRenderer struct {
	w         io.Writer
	label     string
	target    float64
	dt        float64
	frameRate int

	angle     float64
	lastFrame time.Time
	started   bool
}

func NewLiveRenderer(w io.Writer, label string, target, dt float64, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{w: w, label: label, target: target, dt: dt, frameRate: frameRate}
}

func (r *LiveRenderer) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) == 0 {
		return
	}
	r.angle += x[0] * r.dt

	if !r.started {
		r.started = true
		fmt.Fprint(r.w, hideCursor)
	}
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()
	r.draw(x, u, t)
}

// Frame renders the status line for a state without writing it.
func (r *LiveRenderer) Frame(x dynamo.State, u dynamo.Control, t float64) string {
	tau := 0.0
	if len(u) > 0 {
		tau = u[0]
	}

	scale := math.Max(math.Abs(r.target), 1)
	fill := math.Abs(x[0]) / (1.25 * scale)

	return fmt.Sprintf("%s %-5s t=%7.3fs  ω=%8.3f / %-8.3g %s  τ=%+.3f",
		wheelGlyph(r.angle), r.label, t, x[0], r.target, bar(math.Min(fill, 1), 20), tau)
}

func (r *LiveRenderer) draw(x dynamo.State, u dynamo.Control, t float64) {
	fmt.Fprint(r.w, clearLine+r.Frame(x, u, t))
}

// Done ends the live line and restores the cursor.
func (r *LiveRenderer) Done() {
	if r.started {
		fmt.Fprint(r.w, "\n"+showCursor)
	}
}

var wheelFrames = []string{"◐", "◓", "◑", "◒"}

func wheelGlyph(angle float64) string {
	quarter := int(math.Floor(angle/(math.Pi/2))) % len(wheelFrames)
	if quarter < 0 {
		quarter += len(wheelFrames)
	}
	return wheelFrames[quarter]
}
