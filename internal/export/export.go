package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/storage"
)

type ExportData struct {
	ID         string            `json:"id"`
	Integrator string            `json:"integrator"`
	Dt         float64           `json:"dt"`
	Duration   float64           `json:"duration"`
	Samples    int               `json:"samples"`
	Params     experiment.Params `json:"params"`
	Stats      experiment.Stats  `json:"stats"`
	StatsFuzzy experiment.Stats  `json:"stats_fuzzy"`
	Time       []float64         `json:"time"`
	Omega      []float64         `json:"omega"`
	Tau        []float64         `json:"tau"`
	OmegaFuzzy []float64         `json:"omega_fuzzy"`
	TauFuzzy   []float64         `json:"tau_fuzzy"`
}

func WriteJSON(w io.Writer, meta *storage.RunMetadata, s *storage.Series) error {
	data := ExportData{
		ID:         meta.ID,
		Integrator: meta.Integrator,
		Dt:         meta.Dt,
		Duration:   meta.Duration,
		Samples:    s.Len(),
		Params:     meta.Params,
		Stats:      meta.Stats,
		StatsFuzzy: meta.StatsFuzzy,
		Time:       s.Time,
		Omega:      s.Omega,
		Tau:        s.Tau,
		OmegaFuzzy: s.OmegaFuzzy,
		TauFuzzy:   s.TauFuzzy,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// WriteCSV writes one row per sample with the setpoint repeated, ready for
// spreadsheet plotting.
func WriteCSV(w io.Writer, meta *storage.RunMetadata, s *storage.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "omega_set", "omega", "tau", "omega_fuzzy", "tau_fuzzy"}); err != nil {
		return err
	}

	set := strconv.FormatFloat(meta.Params.OmegaSet, 'g', -1, 64)
	for i := range s.Time {
		row := []string{
			strconv.FormatFloat(s.Time[i], 'f', 3, 64),
			set,
			strconv.FormatFloat(s.Omega[i], 'g', -1, 64),
			strconv.FormatFloat(s.Tau[i], 'g', -1, 64),
			strconv.FormatFloat(s.OmegaFuzzy[i], 'g', -1, 64),
			strconv.FormatFloat(s.TauFuzzy[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// RunToSVG renders a recorded run as two stacked charts: speed for both
// controllers against the setpoint, then torque.
func RunToSVG(meta *storage.RunMetadata, s *storage.Series, width, height int) string {
	setpoint := make([]float64, s.Len())
	for i := range setpoint {
		setpoint[i] = meta.Params.OmegaSet
	}

	speed := SeriesToSVG("speed ω [rad/s]", s.Time, []Line{
		{Label: "ω PID", Values: s.Omega, Color: "#3b82f6"},
		{Label: "ω fuzzy", Values: s.OmegaFuzzy, Color: "#a855f7"},
		{Label: "ω setpoint", Values: setpoint, Color: "#ef4444", Dashed: true},
	}, width, height/2)
	torque := SeriesToSVG("torque τ [N·m]", s.Time, []Line{
		{Label: "τ PID", Values: s.Tau, Color: "#22c55e"},
		{Label: "τ fuzzy", Values: s.TauFuzzy, Color: "#f97316"},
	}, width, height/2)
	if speed == "" || torque == "" {
		return ""
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<g>%s</g>
<g transform="translate(0 %d)">%s</g>
</svg>`, width, height, width, height, stripHeader(speed), height/2, stripHeader(torque))
}

func stripHeader(svg string) string {
	if i := strings.Index(svg, "?>\n"); i >= 0 {
		return svg[i+3:]
	}
	return svg
}
