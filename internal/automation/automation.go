package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/experiment"
)

var ErrEmptyScenario = errors.New("scenario has no steps")

// Scenario is a scripted sequence of comparisons.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step starts from a preset (or the defaults) and overrides individual
// parameters and run options.
type Step struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Params     map[string]float64 `yaml:"params"`
	Integrator string             `yaml:"integrator"`
	Dt         float64            `yaml:"dt"`
	Horizon    float64            `yaml:"horizon"`
	NoStop     bool               `yaml:"no_stop"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	return &scenario, nil
}

// Resolve turns a step into a validated simulation config.
func (s Step) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}

	if err := cfg.Params.SetAll(s.Params); err != nil {
		return nil, err
	}
	if s.Integrator != "" {
		cfg.Options.Integrator = s.Integrator
	}
	if s.Dt > 0 {
		cfg.Options.Dt = s.Dt
	}
	if s.Horizon > 0 {
		cfg.Options.Horizon = s.Horizon
	}
	if s.NoStop {
		cfg.Options.StopEarly = false
	}

	return cfg, cfg.Validate()
}

// StepResult pairs a step with its comparison.
type StepResult struct {
	Step       Step
	Comparison *experiment.Comparison
}

// RunScenario runs the steps in order. onStep, if set, sees each result as
// it completes; an error from it stops the scenario.
func RunScenario(ctx context.Context, scenario *Scenario, onStep func(i int, r StepResult) error) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		c, err := experiment.Compare(ctx, cfg.Params, cfg.Options)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		r := StepResult{Step: step, Comparison: c}
		results = append(results, r)
		if onStep != nil {
			if err := onStep(i, r); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

// MonteCarloConfig perturbs the plant around Base. Spread maps parameter
// names to a relative spread: 0.2 draws uniformly within ±20%.
type MonteCarloConfig struct {
	Base      experiment.Params
	Options   experiment.Options
	Spread    map[string]float64
	NumTrials int
	Seed      int64
}

type Trial struct {
	ID     int
	Params experiment.Params
	PID    experiment.Stats
	Fuzzy  experiment.Stats
	Err    error
}

// RunMonteCarlo draws every trial's parameters up front from one seeded
// source, then runs the comparisons in parallel. A zero seed is replaced by
// the current time.
func RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig) ([]Trial, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", dynamo.ErrInvalidConfig, cfg.NumTrials)
	}
	spread := make(map[string]float64, len(cfg.Spread))
	for key, s := range cfg.Spread {
		name, ok := experiment.Canonical(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, key)
		}
		if s < 0 || s >= 1 {
			return nil, fmt.Errorf("%w: spread for %s must be in [0, 1), got %g", dynamo.ErrParameterBounds, key, s)
		}
		spread[name] = s
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	trials := make([]Trial, cfg.NumTrials)
	for i := range trials {
		p := cfg.Base
		for _, name := range experiment.Names() {
			s, ok := spread[name]
			if !ok {
				continue
			}
			v, _ := p.Get(name)
			p.Set(name, v*(1+(rng.Float64()*2-1)*s))
		}
		trials[i] = Trial{ID: i, Params: p}
	}

	dynamo.ParallelFor(len(trials), 1, func(start, end int) {
		for i := start; i < end; i++ {
			c, err := experiment.Compare(ctx, trials[i].Params, cfg.Options)
			if err != nil {
				trials[i].Err = err
				continue
			}
			trials[i].PID = c.PID.Stats
			trials[i].Fuzzy = c.Fuzzy.Stats
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return trials, nil
}

// Summary aggregates one controller over a set of trials. Mean and worst
// settling time cover settled trials only.
type Summary struct {
	Trials        int
	Settled       int
	Failed        int
	MeanSettling  float64
	WorstSettling float64
	MeanIAE       float64
}

func Summarize(trials []Trial) (pid, fuzzy Summary) {
	add := func(s *Summary, st experiment.Stats) {
		s.MeanIAE += st.IntegralError
		if st.SettlingTime >= 0 {
			s.Settled++
			s.MeanSettling += st.SettlingTime
			s.WorstSettling = max(s.WorstSettling, st.SettlingTime)
		}
	}

	for _, t := range trials {
		pid.Trials++
		fuzzy.Trials++
		if t.Err != nil {
			pid.Failed++
			fuzzy.Failed++
			continue
		}
		add(&pid, t.PID)
		add(&fuzzy, t.Fuzzy)
	}

	for _, s := range []*Summary{&pid, &fuzzy} {
		if ok := s.Trials - s.Failed; ok > 0 {
			s.MeanIAE /= float64(ok)
		}
		if s.Settled > 0 {
			s.MeanSettling /= float64(s.Settled)
		}
	}
	return pid, fuzzy
}
