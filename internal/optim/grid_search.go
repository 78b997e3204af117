package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/wheelsim/internal/dynamo"
	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/metrics"
)

var ErrUnknownMetric = errors.New("unknown metric")

// Candidate is one evaluated grid point.
type Candidate struct {
	Values map[string]float64
	Stats  experiment.Stats
	Score  float64
	Err    error
}

// GridSearch tries every combination of the given parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d params but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := experiment.Canonical(name); !ok {
			return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("grid search: empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Point returns the i-th grid point; the last parameter varies fastest.
func (g *GridSearch) Point(i int) map[string]float64 {
	values := make(map[string]float64, len(g.paramNames))
	for d := len(g.paramNames) - 1; d >= 0; d-- {
		r := g.ranges[d]
		values[g.paramNames[d]] = r[i%len(r)]
		i /= len(r)
	}
	return values
}

// Search evaluates every grid point with controller on top of base and
// returns the candidates sorted best first. Points that fail to run or
// never produce a finite score sort last.
func (g *GridSearch) Search(ctx context.Context, base experiment.Params, opts experiment.Options, controller, metric string) ([]Candidate, error) {
	if _, err := Score(experiment.Stats{}, metric); err != nil {
		return nil, err
	}

	results := make([]Candidate, g.Size())
	dynamo.ParallelFor(len(results), 1, func(start, end int) {
		for i := start; i < end; i++ {
			results[i] = g.evaluate(ctx, i, base, opts, controller, metric)
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return results, nil
}

func (g *GridSearch) evaluate(ctx context.Context, i int, base experiment.Params, opts experiment.Options, controller, metric string) Candidate {
	c := Candidate{Values: g.Point(i), Score: math.Inf(1)}

	params := base
	for name, v := range c.Values {
		if err := params.Set(name, v); err != nil {
			c.Err = err
			return c
		}
	}

	out, err := experiment.New(params, opts, controller).Run(ctx)
	if err != nil {
		c.Err = err
		return c
	}

	c.Stats = out.Stats
	c.Score, _ = Score(out.Stats, metric)
	return c
}

// Score reads a minimisation objective from stats. A run that never
// settles scores +Inf on settling time.
func Score(s experiment.Stats, metric string) (float64, error) {
	switch metric {
	case metrics.SettlingTime:
		if s.SettlingTime < 0 {
			return math.Inf(1), nil
		}
		return s.SettlingTime, nil
	case metrics.SteadyStateError:
		return s.SteadyStateError, nil
	case metrics.IntegralError:
		return s.IntegralError, nil
	case metrics.IntegralTauAbs:
		return s.IntegralTauAbs, nil
	case metrics.PeakOvershoot:
		return s.PeakOvershoot, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
