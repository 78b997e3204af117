package analysis

import (
	"strings"
)

type Point struct{ X, Y float64 }

// Portrait is a trajectory in a 2D plane.
type Portrait struct {
	XLabel, YLabel string
	Points         []Point
}

// ErrorPlane returns the trajectory of the speed error e = setpoint - ω
// against its backward-difference rate. The first sample has no rate and is
// skipped.
func ErrorPlane(times, omega []float64, setpoint float64) *Portrait {
	n := min(len(times), len(omega))
	p := &Portrait{XLabel: "e", YLabel: "de/dt"}
	if n < 2 {
		return p
	}

	p.Points = make([]Point, 0, n-1)
	prev := setpoint - omega[0]
	for i := 1; i < n; i++ {
		e := setpoint - omega[i]
		dt := times[i] - times[i-1]
		rate := 0.0
		if dt > 0 {
			rate = (e - prev) / dt
		}
		p.Points = append(p.Points, Point{X: e, Y: rate})
		prev = e
	}
	return p
}

func (p *Portrait) bounds() (minX, maxX, minY, maxY float64) {
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX = min(minX, pt.X)
		maxX = max(maxX, pt.X)
		minY = min(minY, pt.Y)
		maxY = max(maxY, pt.Y)
	}
	return
}

// ASCII draws the portrait on a width x height character grid, with axes
// where they cross the visible area.
func (p *Portrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := p.bounds()

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := 0; r < height; r++ {
			canvas[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := 0; c < width; c++ {
			if canvas[r][c] == '│' {
				canvas[r][c] = '┼'
			} else {
				canvas[r][c] = '─'
			}
		}
	}

	for _, pt := range p.Points {
		r, c := row(pt.Y), col(pt.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}
