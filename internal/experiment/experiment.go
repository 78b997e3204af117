package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/metrics"
	"github.com/san-kum/wheelsim/internal/physics"
)

// Stats are the per-controller scores sent to clients.
type Stats struct {
	SettlingTime     float64 `json:"settling_time"`
	SteadyStateError float64 `json:"steady_state_error"`
	IntegralError    float64 `json:"integral_error"`
	IntegralTauAbs   float64 `json:"integral_tau_abs"`
	PeakOvershoot    float64 `json:"peak_overshoot"`
	PeakEnergy       float64 `json:"peak_energy"`
}

func statsFrom(m map[string]float64) Stats {
	return Stats{
		SettlingTime:     m[metrics.SettlingTime],
		SteadyStateError: m[metrics.SteadyStateError],
		IntegralError:    m[metrics.IntegralError],
		IntegralTauAbs:   m[metrics.IntegralTauAbs],
		PeakOvershoot:    m[metrics.PeakOvershoot],
		PeakEnergy:       m[metrics.PeakEnergy],
	}
}

// Outcome is one controller's run.
type Outcome struct {
	Controller string
	Result     *dynamo.Result
	Stats      Stats
}

func (o *Outcome) Times() []float64 { return o.Result.Times }
func (o *Outcome) Omega() []float64 { return o.Result.Series(0) }
func (o *Outcome) Tau() []float64   { return o.Result.ControlSeries(0) }

// Experiment runs one controller against a fresh flywheel.
type Experiment struct {
	params     Params
	opts       Options
	controller string
	registry   *Registry
	observers  []dynamo.Observer
}

func New(params Params, opts Options, controller string) *Experiment {
	return &Experiment{
		params:     params,
		opts:       opts,
		controller: controller,
		registry:   NewRegistry(),
	}
}

// AddObserver attaches an observer to the simulator built by Run.
func (e *Experiment) AddObserver(o dynamo.Observer) {
	e.observers = append(e.observers, o)
}

func (e *Experiment) Setup() (*dynamo.Simulator, error) {
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}

	plant, err := physics.NewFlywheel(e.params.Mass, e.params.Radius, e.params.B, e.params.Disturbance)
	if err != nil {
		return nil, err
	}
	integ, err := e.registry.GetIntegrator(e.opts.Integrator)
	if err != nil {
		return nil, err
	}
	ctrl, err := e.registry.GetController(e.controller, e.params, e.opts)
	if err != nil {
		return nil, err
	}

	sim := dynamo.New(plant, integ, ctrl)

	target, dt := e.params.OmegaSet, e.opts.Dt
	settling := metrics.NewSettlingBand(target, dt, e.opts.SettleHold, e.opts.SettleRatio, e.opts.SettleFloor)
	sim.AddMetric(settling)
	sim.AddStopper(settling)
	sim.AddMetric(metrics.NewFinalError(target))
	sim.AddMetric(metrics.NewAbsErrorIntegral(target, dt))
	sim.AddMetric(metrics.NewControlEffort(dt))
	sim.AddMetric(metrics.NewOvershoot(target))
	sim.AddMetric(metrics.NewEnergy(plant))

	for _, o := range e.observers {
		sim.AddObserver(o)
	}
	return sim, nil
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	sim, err := e.Setup()
	if err != nil {
		return nil, err
	}

	cfg := dynamo.Config{
		Dt:            e.opts.Dt,
		Duration:      e.opts.Horizon,
		ValidateState: true,
		StopEarly:     e.opts.StopEarly,
	}

	result, err := sim.Run(ctx, dynamo.State{0}, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s run: %w", e.controller, err)
	}

	return &Outcome{
		Controller: e.controller,
		Result:     result,
		Stats:      statsFrom(result.Metrics),
	}, nil
}
