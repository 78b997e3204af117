package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/wheelsim/internal/analysis"
	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/storage"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		width, height int
		phase         bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [run-id]",
		Short: "residual ripple and error-plane portrait of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, series, err := loadRun(args[0])
			if err != nil {
				return err
			}

			controllers := []struct {
				name  string
				omega []float64
				stats experiment.Stats
			}{
				{experiment.ControllerPID, series.Omega, meta.Stats},
				{experiment.ControllerFuzzy, series.OmegaFuzzy, meta.StatsFuzzy},
			}

			for _, c := range controllers {
				from := rippleStart(meta, c.stats)
				fmt.Printf("%s (from t=%.2fs)\n", c.name, from)

				r, err := analysis.AnalyzeRipple(series.Time, c.omega, from)
				switch {
				case errors.Is(err, analysis.ErrTooShort):
					fmt.Println("  not enough samples after settling")
				case err != nil:
					return err
				default:
					fmt.Printf("  mean ω:     %.4f rad/s\n", r.Mean)
					fmt.Printf("  ripple:     ±%.5f rad/s\n", r.Amplitude)
					fmt.Printf("  frequency:  %.3f Hz\n", r.Frequency)
				}

				if phase {
					fmt.Println()
					fmt.Print(analysis.ErrorPlane(series.Time, c.omega, meta.Params.OmegaSet).ASCII(width, height))
					fmt.Println("  e →, de/dt ↑")
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&phase, "phase", true, "draw the error-plane portrait")
	cmd.Flags().IntVar(&width, "width", 60, "portrait width")
	cmd.Flags().IntVar(&height, "height", 20, "portrait height")
	return cmd
}

// rippleStart is the settling time, or the second half of the run when the
// controller never settled.
func rippleStart(meta *storage.RunMetadata, s experiment.Stats) float64 {
	if s.SettlingTime >= 0 {
		return s.SettlingTime
	}
	return meta.Duration / 2
}
