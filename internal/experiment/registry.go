package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/wheelsim/internal/control"
	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/integrators"
)

// Controller names understood by the registry.
const (
	ControllerPID   = "pid"
	ControllerFuzzy = "fuzzy"
	ControllerNone  = "none"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
	controllers map[string]func(Params, Options) dynamo.Controller
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]func(Params, Options) dynamo.Controller),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.controllers[ControllerNone] = func(p Params, o Options) dynamo.Controller {
		return control.NewNone(1)
	}
	r.controllers[ControllerPID] = func(p Params, o Options) dynamo.Controller {
		return control.NewPID(p.Kp, p.Ki, p.Kd, p.OmegaSet, p.MaxMoment, o.Dt)
	}
	r.controllers[ControllerFuzzy] = func(p Params, o Options) dynamo.Controller {
		f := control.NewFuzzy(p.OmegaSet, p.MaxMoment, o.Dt)
		f.Gain = p.FuzzyGain
		f.ErrorScale = p.ErrorScale
		f.RateScale = p.RateScale
		return f
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, p Params, o Options) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(p, o), nil
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListControllers() []string {
	return sortedKeys(r.controllers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
