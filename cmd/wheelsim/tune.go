package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/metrics"
	"github.com/san-kum/wheelsim/internal/optim"
)

func newTuneCmd() *cobra.Command {
	var (
		sf         simFlags
		controller string
		metric     string
		sweeps     []string
		top        int
	)

	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search controller parameters",
		Long: `Sweep one or more parameters over a grid and rank the results.

Each --sweep takes name=lo:hi:n, for example:
  wheelsim tune --omega-set 10 --sweep kp=0.1:2:8 --sweep ki=0:0.5:6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSimulation(cmd.Flags(), &sf)
			if err != nil {
				return err
			}
			if len(sweeps) == 0 {
				return fmt.Errorf("at least one --sweep is required")
			}

			names := make([]string, 0, len(sweeps))
			ranges := make([][]float64, 0, len(sweeps))
			for _, s := range sweeps {
				name, values, err := parseSweep(s)
				if err != nil {
					return err
				}
				names = append(names, name)
				ranges = append(ranges, values)
			}

			grid, err := optim.NewGridSearch(names, ranges)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			fmt.Printf("evaluating %d points with %s controller, ranking by %s...\n", grid.Size(), controller, metric)
			start := time.Now()
			results, err := grid.Search(ctx, cfg.Params, cfg.Options, controller, metric)
			if err != nil {
				return err
			}
			fmt.Printf("completed in %v\n\n", time.Since(start))

			if top > 0 && top < len(results) {
				results = results[:top]
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "RANK\t%s\tSCORE\n", strings.ToUpper(strings.Join(names, "\t")))
			for i, c := range results {
				cols := make([]string, len(names))
				for j, n := range names {
					cols[j] = strconv.FormatFloat(c.Values[n], 'g', 4, 64)
				}
				score := fmt.Sprintf("%.4f", c.Score)
				if c.Err != nil {
					score = "error: " + c.Err.Error()
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, strings.Join(cols, "\t"), score)
			}
			return w.Flush()
		},
	}

	addSimFlags(cmd.Flags(), &sf)
	cmd.Flags().StringVar(&controller, "controller", experiment.ControllerPID, "controller to tune: pid or fuzzy")
	cmd.Flags().StringVar(&metric, "metric", metrics.IntegralError, "objective to minimise")
	cmd.Flags().StringArrayVar(&sweeps, "sweep", nil, "parameter sweep name=lo:hi:n (repeatable)")
	cmd.Flags().IntVar(&top, "top", 10, "show the best N results (0 shows all)")

	return cmd
}

// parseSweep reads name=lo:hi:n.
func parseSweep(s string) (string, []float64, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid sweep %q: want name=lo:hi:n", s)
	}
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("invalid sweep %q: want name=lo:hi:n", s)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid sweep %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid sweep %q: %w", s, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("invalid sweep %q: count must be a positive integer", s)
	}
	return name, optim.Linspace(lo, hi, n), nil
}
