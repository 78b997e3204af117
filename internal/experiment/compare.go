package experiment

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Comparison holds the PID and fuzzy runs of one request on a shared time
// axis: both results have the same number of samples and identical times.
type Comparison struct {
	Params  Params
	Options Options
	PID     *Outcome
	Fuzzy   *Outcome
}

func (c *Comparison) Times() []float64 { return c.PID.Times() }

// Compare runs both feedback controllers concurrently. Runs that stop early
// at different times are reconciled by re-running the shorter one, without
// early stopping, for exactly as many steps as the longer one. The settling
// metric latches, so the re-run reports the same settling time.
func Compare(ctx context.Context, params Params, opts Options) (*Comparison, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var pid, fuzzy *Outcome
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pid, err = New(params, opts, ControllerPID).Run(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fuzzy, err = New(params, opts, ControllerFuzzy).Run(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	steps := max(pid.Result.StepsTaken, fuzzy.Result.StepsTaken)
	var err error
	if pid, err = extend(ctx, pid, params, opts, steps); err != nil {
		return nil, err
	}
	if fuzzy, err = extend(ctx, fuzzy, params, opts, steps); err != nil {
		return nil, err
	}

	return &Comparison{Params: params, Options: opts, PID: pid, Fuzzy: fuzzy}, nil
}

func extend(ctx context.Context, o *Outcome, params Params, opts Options, steps int) (*Outcome, error) {
	if o.Result.StepsTaken == steps {
		return o, nil
	}
	opts.StopEarly = false
	opts.Horizon = float64(steps) * opts.Dt
	return New(params, opts, o.Controller).Run(ctx)
}
