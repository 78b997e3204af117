package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/wheelsim/internal/experiment"
)

var (
	ErrNotFound  = errors.New("run not found")
	ErrInvalidID = errors.New("invalid run id")
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var seriesHeader = []string{"time", "omega", "tau", "omega_fuzzy", "tau_fuzzy"}

// Store keeps one directory per recorded comparison under baseDir.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Params     experiment.Params `json:"params"`
	Integrator string            `json:"integrator"`
	Dt         float64           `json:"dt"`
	Duration   float64           `json:"duration"`
	Samples    int               `json:"samples"`
	Stats      experiment.Stats  `json:"stats"`
	StatsFuzzy experiment.Stats  `json:"stats_fuzzy"`
}

// Series are the recorded trajectories of both controllers.
type Series struct {
	Time       []float64
	Omega      []float64
	Tau        []float64
	OmegaFuzzy []float64
	TauFuzzy   []float64
}

func (s *Series) Len() int { return len(s.Time) }

func (s *Store) Save(c *experiment.Comparison) (*RunMetadata, error) {
	times := c.Times()
	meta := &RunMetadata{
		ID:         uuid.NewString(),
		Timestamp:  s.now().UTC(),
		Params:     c.Params,
		Integrator: c.Options.Integrator,
		Dt:         c.Options.Dt,
		Samples:    len(times),
		Stats:      c.PID.Stats,
		StatsFuzzy: c.Fuzzy.Stats,
	}
	if len(times) > 0 {
		meta.Duration = times[len(times)-1]
	}

	series := &Series{
		Time:       times,
		Omega:      c.PID.Omega(),
		Tau:        c.PID.Tau(),
		OmegaFuzzy: c.Fuzzy.Omega(),
		TauFuzzy:   c.Fuzzy.Tau(),
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	// Metadata goes last: a run directory listed by List always has its
	// series. Partial runs are removed.
	if err := writeSeries(filepath.Join(runDir, statesFile), series); err != nil {
		os.RemoveAll(runDir)
		return nil, fmt.Errorf("write states: %w", err)
	}
	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		os.RemoveAll(runDir)
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return meta, nil
}

func writeMetadata(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeSeries(path string, s *Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cols := [][]float64{s.Time, s.Omega, s.Tau, s.OmegaFuzzy, s.TauFuzzy}
	for j, col := range cols {
		if len(col) != len(s.Time) {
			return fmt.Errorf("column %s has %d samples, want %d", seriesHeader[j], len(col), len(s.Time))
		}
	}

	w := csv.NewWriter(f)
	if err := w.Write(seriesHeader); err != nil {
		return err
	}

	row := make([]string, len(cols))
	for i := range s.Time {
		for j, col := range cols {
			row[j] = strconv.FormatFloat(col[i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) runDir(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(dir, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(seriesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read states %s: %w", runID, err)
	}

	series := &Series{}
	if len(records) < 2 {
		return series, nil
	}

	cols := []*[]float64{&series.Time, &series.Omega, &series.Tau, &series.OmegaFuzzy, &series.TauFuzzy}
	for _, col := range cols {
		*col = make([]float64, 0, len(records)-1)
	}
	for line, record := range records[1:] {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("states %s line %d: %w", runID, line+2, err)
			}
			*cols[j] = append(*cols[j], v)
		}
	}

	return series, nil
}
