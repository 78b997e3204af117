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

	"github.com/san-kum/wheelsim/internal/automation"
	"github.com/san-kum/wheelsim/internal/storage"
)

func newScenarioCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario of comparisons",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}

			var st *storage.Store
			if save {
				st = storage.New(dataDir)
				if err := st.Init(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			if sc.Name != "" {
				fmt.Printf("scenario: %s\n", sc.Name)
			}
			if sc.Description != "" {
				fmt.Println(sc.Description)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tNAME\tPID SETTLE\tFUZZY SETTLE\tPID IAE\tFUZZY IAE\tRUN ID")
			_, err = automation.RunScenario(ctx, sc, func(i int, r automation.StepResult) error {
				id := "-"
				if st != nil {
					meta, err := st.Save(r.Comparison)
					if err != nil {
						return err
					}
					id = meta.ID
				}
				pid, fuzzy := r.Comparison.PID.Stats, r.Comparison.Fuzzy.Stats
				fmt.Fprintf(w, "%d/%d\t%s\t%s\t%s\t%.3f\t%.3f\t%s\n",
					i+1, len(sc.Steps), r.Step.Name,
					settleText(pid.SettlingTime), settleText(fuzzy.SettlingTime),
					pid.IntegralError, fuzzy.IntegralError, id)
				return nil
			})
			if ferr := w.Flush(); err == nil {
				err = ferr
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&save, "save", true, "record every step under the data directory")
	return cmd
}

func newRobustnessCmd() *cobra.Command {
	var (
		sf      simFlags
		spreads []string
		trials  int
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "robustness",
		Short: "Monte Carlo comparison under plant perturbations",
		Long: `Perturb plant parameters around a base configuration and compare how
often each controller settles.

Each --spread takes name=fraction, for example:
  wheelsim robustness --preset spinup --spread mass=0.3 --spread b=0.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSimulation(cmd.Flags(), &sf)
			if err != nil {
				return err
			}

			spread := make(map[string]float64, len(spreads))
			for _, s := range spreads {
				name, value, ok := strings.Cut(s, "=")
				if !ok {
					return fmt.Errorf("invalid spread %q: want name=fraction", s)
				}
				f, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("invalid spread %q: %w", s, err)
				}
				spread[name] = f
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			fmt.Printf("running %d trials...\n", trials)
			start := time.Now()
			results, err := automation.RunMonteCarlo(ctx, automation.MonteCarloConfig{
				Base:      cfg.Params,
				Options:   cfg.Options,
				Spread:    spread,
				NumTrials: trials,
				Seed:      seed,
			})
			if err != nil {
				return err
			}
			fmt.Printf("completed in %v\n\n", time.Since(start))

			pid, fuzzy := automation.Summarize(results)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CTRL\tSETTLED\tFAILED\tMEAN SETTLE\tWORST SETTLE\tMEAN IAE")
			for _, row := range []struct {
				name string
				s    automation.Summary
			}{{"pid", pid}, {"fuzzy", fuzzy}} {
				fmt.Fprintf(w, "%s\t%d/%d\t%d\t%.3fs\t%.3fs\t%.3f\n",
					row.name, row.s.Settled, row.s.Trials, row.s.Failed,
					row.s.MeanSettling, row.s.WorstSettling, row.s.MeanIAE)
			}
			return w.Flush()
		},
	}

	addSimFlags(cmd.Flags(), &sf)
	cmd.Flags().StringArrayVar(&spreads, "spread", nil, "relative perturbation name=fraction (repeatable)")
	cmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	return cmd
}
