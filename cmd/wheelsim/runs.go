package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/export"
	"github.com/san-kum/wheelsim/internal/storage"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIMESTAMP\tSETPOINT\tDURATION\tPID SETTLE\tFUZZY SETTLE")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2fs\t%s\t%s\n",
					r.ID,
					r.Timestamp.Format("2006-01-02 15:04:05"),
					r.Params.OmegaSet,
					r.Duration,
					settleText(r.Stats.SettlingTime),
					settleText(r.StatsFuzzy.SettlingTime),
				)
			}
			return w.Flush()
		},
	}
}

func settleText(t float64) string {
	if t < 0 {
		return "never"
	}
	return fmt.Sprintf("%.2fs", t)
}

func loadRun(id string) (*storage.RunMetadata, *storage.Series, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	series, err := st.LoadSeries(id)
	if err != nil {
		return nil, nil, err
	}
	return meta, series, nil
}

func newPlotCmd() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "plot [run-id]",
		Short: "plot a recorded run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, series, err := loadRun(args[0])
			if err != nil {
				return err
			}
			if series.Len() == 0 {
				return fmt.Errorf("run %s has no samples", meta.ID)
			}

			setpoint := make([]float64, series.Len())
			for i := range setpoint {
				setpoint[i] = meta.Params.OmegaSet
			}

			speed := asciigraph.PlotMany(
				[][]float64{series.Omega, series.OmegaFuzzy, setpoint},
				asciigraph.Height(10),
				asciigraph.Width(width),
				asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Purple, asciigraph.Red),
				asciigraph.SeriesLegends("PID", "fuzzy", "setpoint"),
				asciigraph.Caption("speed ω [rad/s]"),
			)
			torque := asciigraph.PlotMany(
				[][]float64{series.Tau, series.TauFuzzy},
				asciigraph.Height(10),
				asciigraph.Width(width),
				asciigraph.SeriesColors(asciigraph.Green, asciigraph.Orange),
				asciigraph.SeriesLegends("PID", "fuzzy"),
				asciigraph.Caption("torque τ [N·m]"),
			)

			fmt.Println(speed)
			fmt.Println()
			fmt.Println(torque)
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 80, "plot width in columns")
	return cmd
}

// outputWriter opens path for writing, or stdout when path is empty.
func outputWriter(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func newExportJSONCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-json [run-id]",
		Short: "export a recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, series, err := loadRun(args[0])
			if err != nil {
				return err
			}
			w, closeFn, err := outputWriter(out)
			if err != nil {
				return err
			}
			if err := export.WriteJSON(w, meta, series); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-csv [run-id]",
		Short: "export a recorded run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, series, err := loadRun(args[0])
			if err != nil {
				return err
			}
			w, closeFn, err := outputWriter(out)
			if err != nil {
				return err
			}
			if err := export.WriteCSV(w, meta, series); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newExportSVGCmd() *cobra.Command {
	var (
		out           string
		width, height int
	)

	cmd := &cobra.Command{
		Use:   "export-svg [run-id]",
		Short: "render a recorded run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, series, err := loadRun(args[0])
			if err != nil {
				return err
			}
			svg := export.RunToSVG(meta, series, width, height)
			if svg == "" {
				return fmt.Errorf("run %s has no samples", meta.ID)
			}
			if out == "" {
				out = meta.ID + ".svg"
			}
			if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default <run-id>.svg)")
	cmd.Flags().IntVar(&width, "width", 800, "image width")
	cmd.Flags().IntVar(&height, "height", 600, "image height")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list simulation presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKP\tKI\tKD\tSETPOINT\tB\tDISTURBANCE\tMASS\tRADIUS\tMAX MOMENT")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name).Params
				fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%g\t%g\t%g\t%g\t%g\n",
					name, p.Kp, p.Ki, p.Kd, p.OmegaSet, p.B, p.Disturbance, p.Mass, p.Radius, p.MaxMoment)
			}
			return w.Flush()
		},
	}
}
