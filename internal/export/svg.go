package export

import (
	"fmt"
	"math"
	"strings"
)

// Line is one series drawn against a shared time axis.
type Line struct {
	Label  string
	Values []float64
	Color  string
	Dashed bool
}

// SeriesToSVG draws lines over times on one set of axes. Lines shorter than
// times are drawn over their own length.
func SeriesToSVG(title string, times []float64, lines []Line, width, height int) string {
	if len(times) < 2 || len(lines) == 0 {
		return ""
	}

	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, l := range lines {
		for _, v := range l.Values {
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
	}
	if math.IsInf(minY, 0) {
		minY, maxY = 0, 1
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	const margin = 40.0
	plotW := float64(width) - 2*margin
	plotH := float64(height) - 2*margin
	px := func(t float64) float64 { return margin + (t-minX)/rangeX*plotW }
	py := func(v float64) float64 { return margin + plotH - (v-minY)/rangeY*plotH }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<text x="%.0f" y="24" fill="#ffffff" font-family="monospace" font-size="14">%s</text>
<g stroke="#444466" stroke-width="1">
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
</g>
<g fill="#888899" font-family="monospace" font-size="10">
<text x="%.1f" y="%.1f">%.3g</text>
<text x="%.1f" y="%.1f">%.3g</text>
<text x="%.1f" y="%.1f">%.3g s</text>
</g>
`,
		width, height, width, height,
		margin, escape(title),
		margin, margin, margin, margin+plotH,
		margin, margin+plotH, margin+plotW, margin+plotH,
		2.0, margin+8, maxY,
		2.0, margin+plotH, minY,
		margin+plotW-30, margin+plotH+16, maxX))

	for i, l := range lines {
		n := min(len(l.Values), len(times))
		if n < 2 {
			continue
		}

		dash := ""
		if l.Dashed {
			dash = ` stroke-dasharray="6 4"`
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, l.Color, dash))
		for j := 0; j < n; j++ {
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(times[j]), py(l.Values[j])))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(times[j]), py(l.Values[j])))
			}
		}
		sb.WriteString("\"/>\n")

		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="%s" font-family="monospace" font-size="11">%s</text>
`, margin+plotW-140, margin+14+float64(i)*14, l.Color, escape(l.Label)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
