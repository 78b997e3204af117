package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/wheelsim/internal/experiment"
)

const (
	TypeStartSimulation = "start_simulation"
	TypeSimulationData  = "simulation_data"
	TypeError           = "error"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// SimulationData is the reply to start_simulation. All series share the
// length of Time.
type SimulationData struct {
	RunID      string           `json:"run_id,omitempty"`
	Time       []float64        `json:"time"`
	Omega      []float64        `json:"omega"`
	Tau        []float64        `json:"tau"`
	OmegaSet   float64          `json:"omega_set"`
	Stats      experiment.Stats `json:"stats"`
	OmegaFuzzy []float64        `json:"omega_fuzzy"`
	TauFuzzy   []float64        `json:"tau_fuzzy"`
	StatsFuzzy experiment.Stats `json:"stats_fuzzy"`
}

func (d *SimulationData) Len() int { return len(d.Time) }

// Encode wraps payload in an envelope of the given type.
func Encode(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Payload: raw})
}

func EncodeError(msg string) []byte {
	data, _ := Encode(TypeError, ErrorData{Message: msg})
	return data
}

// Decode parses an envelope. A missing type is malformed.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return &env, nil
}

// ParseStart reads a start_simulation payload on top of the default
// parameters. Capitalised aliases are applied before canonical keys, so
// "kp" wins over "Kp" when both are sent. Keys that name no parameter are
// ignored.
func ParseStart(raw json.RawMessage) (experiment.Params, error) {
	params := experiment.DefaultParams()
	if len(raw) == 0 || string(raw) == "null" {
		return params, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return params, fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		if _, ok := experiment.Canonical(key); ok {
			keys = append(keys, key)
		}
	}
	experiment.OrderKeys(keys)

	for _, key := range keys {
		v, ok := fields[key].(float64)
		if !ok {
			return params, fmt.Errorf("%w: %s must be a number", ErrMalformed, key)
		}
		if err := params.Set(key, v); err != nil {
			return params, err
		}
	}

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// NewSimulationData builds the reply for a comparison. With maxPoints > 0
// the series are thinned to at most maxPoints samples.
func NewSimulationData(c *experiment.Comparison, maxPoints int) *SimulationData {
	idx := Decimate(len(c.Times()), maxPoints)
	return &SimulationData{
		Time:       roundTimes(pick(c.Times(), idx)),
		Omega:      pick(c.PID.Omega(), idx),
		Tau:        pick(c.PID.Tau(), idx),
		OmegaSet:   c.Params.OmegaSet,
		Stats:      c.PID.Stats,
		OmegaFuzzy: pick(c.Fuzzy.Omega(), idx),
		TauFuzzy:   pick(c.Fuzzy.Tau(), idx),
		StatsFuzzy: c.Fuzzy.Stats,
	}
}

// Decimate returns the sample indices kept when thinning n samples to at
// most maxPoints. The first and last samples are always kept. A nil result
// means keep everything.
func Decimate(n, maxPoints int) []int {
	if maxPoints <= 0 || n <= maxPoints {
		return nil
	}
	if maxPoints == 1 {
		return []int{n - 1}
	}

	stride := (n - 1 + maxPoints - 2) / (maxPoints - 1)
	idx := make([]int, 0, maxPoints)
	for i := 0; i < n; i += stride {
		idx = append(idx, i)
	}
	if idx[len(idx)-1] != n-1 {
		idx = append(idx, n-1)
	}
	return idx
}

func pick(xs []float64, idx []int) []float64 {
	if idx == nil {
		return append([]float64(nil), xs...)
	}
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

func roundTimes(ts []float64) []float64 {
	for i, t := range ts {
		ts[i] = math.Round(t*1000) / 1000
	}
	return ts
}
