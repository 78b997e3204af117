package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dataDir string

func main() {
	rootCmd := &cobra.Command{
		Use:           "wheelsim",
		Short:         "flywheel speed-control lab: PID vs fuzzy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".wheelsim", "data directory for recorded runs")

	rootCmd.AddCommand(
		newServeCmd(),
		newRunCmd(),
		newTuneCmd(),
		newConsoleCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportJSONCmd(),
		newExportCSVCmd(),
		newExportSVGCmd(),
		newPresetsCmd(),
		newAnalyzeCmd(),
		newScenarioCmd(),
		newRobustnessCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
