package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/experiment"
	"github.com/san-kum/wheelsim/internal/storage"
	"github.com/san-kum/wheelsim/internal/tui"
)

// paramFlags maps command-line flags to parameter keys.
var paramFlags = []struct {
	flag, key, usage string
}{
	{"kp", "kp", "PID proportional gain"},
	{"ki", "ki", "PID integral gain"},
	{"kd", "kd", "PID derivative gain"},
	{"omega-set", "omega_set", "speed setpoint [rad/s]"},
	{"b", "b", "viscous friction [N·m·s/rad]"},
	{"disturbance", "disturbance", "constant load torque [N·m]"},
	{"mass", "mass", "flywheel mass [kg]"},
	{"radius", "radius", "flywheel radius [m]"},
	{"max-moment", "maxMoment", "torque limit [N·m]"},
	{"fuzzy-gain", "fuzzy_gain", "fuzzy torque slew in limits per second"},
	{"error-scale", "error_scale", "fuzzy error normalisation (0 = auto)"},
	{"rate-scale", "rate_scale", "fuzzy error-rate normalisation (0 = auto)"},
}

type simFlags struct {
	configFile string
	preset     string
	integrator string
	dt         float64
	horizon    float64
	noStop     bool
}

func addSimFlags(f *pflag.FlagSet, sf *simFlags) {
	defaults := experiment.DefaultParams()
	for _, p := range paramFlags {
		v, _ := defaults.Get(p.key)
		f.Float64(p.flag, v, p.usage)
	}

	opts := experiment.DefaultOptions()
	f.StringVar(&sf.configFile, "config", "", "simulation config file (yaml)")
	f.StringVar(&sf.preset, "preset", "", "start from a named preset")
	f.StringVar(&sf.integrator, "integrator", opts.Integrator, "integrator: euler, rk4 or rk45")
	f.Float64Var(&sf.dt, "dt", opts.Dt, "timestep [s]")
	f.Float64Var(&sf.horizon, "time", opts.Horizon, "maximum simulated time [s]")
	f.BoolVar(&sf.noStop, "no-stop", false, "run the full horizon instead of stopping once settled")
}

// loadSimulation resolves preset, then config file, then explicitly set
// flags, each overriding the previous.
func loadSimulation(f *pflag.FlagSet, sf *simFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if sf.preset != "" {
		cfg = config.GetPreset(sf.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", sf.preset, config.ListPresets())
		}
	}

	if sf.configFile != "" {
		loaded, err := config.Load(sf.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	for _, p := range paramFlags {
		if !f.Changed(p.flag) {
			continue
		}
		v, _ := f.GetFloat64(p.flag)
		if err := cfg.Params.Set(p.key, v); err != nil {
			return nil, err
		}
	}

	if f.Changed("integrator") {
		cfg.Options.Integrator = sf.integrator
	}
	if f.Changed("dt") {
		cfg.Options.Dt = sf.dt
	}
	if f.Changed("time") {
		cfg.Options.Horizon = sf.horizon
	}
	if sf.noStop {
		cfg.Options.StopEarly = false
	}

	return cfg, cfg.Validate()
}

func newRunCmd() *cobra.Command {
	var (
		sf         simFlags
		controller string
		live       bool
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "compare PID and fuzzy control locally and record the run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSimulation(cmd.Flags(), &sf)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			if controller != "" {
				return runSingle(ctx, cfg, controller, live)
			}
			return runCompare(ctx, cfg, save)
		},
	}

	addSimFlags(cmd.Flags(), &sf)
	cmd.Flags().StringVar(&controller, "controller", "", "run only this controller: pid, fuzzy or none")
	cmd.Flags().BoolVar(&live, "live", false, "show a live status line (single controller only)")
	cmd.Flags().BoolVar(&save, "save", true, "record the comparison under the data directory")

	return cmd
}

func runSingle(ctx context.Context, cfg *config.Config, controller string, live bool) error {
	exp := experiment.New(cfg.Params, cfg.Options, controller)

	var renderer *tui.LiveRenderer
	if live {
		renderer = tui.NewLiveRenderer(os.Stdout, controller, cfg.Params.OmegaSet, cfg.Options.Dt, 30)
		exp.AddObserver(renderer)
	}

	fmt.Printf("running %s controller...\n", controller)
	start := time.Now()
	out, err := exp.Run(ctx)
	if renderer != nil {
		renderer.Done()
	}
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v, %d steps\n\n", time.Since(start), out.Result.StepsTaken)
	return printStats([]string{controller}, []experiment.Stats{out.Stats})
}

func runCompare(ctx context.Context, cfg *config.Config, save bool) error {
	fmt.Println("running PID and fuzzy controllers...")
	start := time.Now()

	c, err := experiment.Compare(ctx, cfg.Params, cfg.Options)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v, %d samples\n", time.Since(start), len(c.Times()))

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta, err := st.Save(c)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", meta.ID)
	}

	fmt.Println()
	return printStats(
		[]string{experiment.ControllerPID, experiment.ControllerFuzzy},
		[]experiment.Stats{c.PID.Stats, c.Fuzzy.Stats},
	)
}

func printStats(names []string, stats []experiment.Stats) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CTRL\tSETTLING\tSS ERROR\tIAE\tEFFORT\tOVERSHOOT\tPEAK ENERGY")
	for i, s := range stats {
		settling := "never"
		if s.SettlingTime >= 0 {
			settling = fmt.Sprintf("%.3fs", s.SettlingTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.3f\t%.3f\t%.1f%%\t%.3fJ\n",
			names[i], settling, s.SteadyStateError, s.IntegralError, s.IntegralTauAbs, s.PeakOvershoot, s.PeakEnergy)
	}
	return w.Flush()
}
