package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/storage"
)

func sampleRun() (*storage.RunMetadata, *storage.Series) {
	params := experiment.DefaultParams()
	params.OmegaSet = 2
	meta := &storage.RunMetadata{
		ID:         "5f0c1d3e-8a2b-4c6d-9e7f-0a1b2c3d4e5f",
		Params:     params,
		Integrator: "euler",
		Dt:         0.001,
		Duration:   0.002,
		Samples:    3,
		Stats:      experiment.Stats{SettlingTime: -1},
	}
	series := &storage.Series{
		Time:       []float64{0, 0.001, 0.002},
		Omega:      []float64{0, 0.5, 1.25},
		Tau:        []float64{0, 0.5, 0.5},
		OmegaFuzzy: []float64{0, 0.2, 0.4},
		TauFuzzy:   []float64{0, 0.0025, 0.005},
	}
	return meta, series
}

func TestWriteJSON(t *testing.T) {
	meta, series := sampleRun()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, meta, series); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Samples != 3 || data.ID != meta.ID {
		t.Errorf("unexpected header %+v", data)
	}
	if data.Omega[2] != 1.25 || data.TauFuzzy[1] != 0.0025 {
		t.Error("series not exported")
	}
	if data.Params.OmegaSet != 2 {
		t.Errorf("expected omega_set 2, got %v", data.Params.OmegaSet)
	}
}

func TestWriteCSV(t *testing.T) {
	meta, series := sampleRun()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, meta, series); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "time,omega_set,omega,tau,omega_fuzzy,tau_fuzzy" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[3][0] != "0.002" || records[3][1] != "2" || records[3][2] != "1.25" {
		t.Errorf("unexpected row %v", records[3])
	}
}

func TestSeriesToSVG(t *testing.T) {
	svg := SeriesToSVG("a < b", []float64{0, 1, 2}, []Line{
		{Label: "up", Values: []float64{0, 1, 2}, Color: "#00ff00"},
		{Label: "flat", Values: []float64{1, 1, 1}, Color: "#ff0000", Dashed: true},
	}, 400, 200)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not an svg document")
	}
	if strings.Count(svg, "<path") != 2 {
		t.Errorf("expected 2 paths, got %d", strings.Count(svg, "<path"))
	}
	if !strings.Contains(svg, "stroke-dasharray") {
		t.Error("dashed line missing dash array")
	}
	if !strings.Contains(svg, "a &lt; b") {
		t.Error("title should be escaped")
	}
}

func TestSeriesToSVGTooShort(t *testing.T) {
	if SeriesToSVG("x", []float64{0}, []Line{{Values: []float64{1}}}, 100, 100) != "" {
		t.Error("a single sample cannot be drawn")
	}
}

func TestRunToSVG(t *testing.T) {
	meta, series := sampleRun()
	svg := RunToSVG(meta, series, 800, 600)

	if strings.Count(svg, "<?xml") != 1 {
		t.Error("nested charts must not repeat the xml header")
	}
	if strings.Count(svg, "<path") != 5 {
		t.Errorf("expected 5 paths, got %d", strings.Count(svg, "<path"))
	}
}
