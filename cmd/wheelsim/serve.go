package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/wheelsim/internal/config"
	"github.com/san-kum/wheelsim/internal/server"
	"github.com/san-kum/wheelsim/internal/storage"
)

func newServeCmd() *cobra.Command {
	var configFile string
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the browser lab and the simulation socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("data") {
				v.Set("data_dir", dataDir)
			}
			cfg, err := config.LoadServer(v, configFile)
			if err != nil {
				return err
			}

			log, err := server.NewLogger(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer log.Sync()

			st := storage.New(cfg.DataDir)
			if cfg.Record {
				if err := st.Init(); err != nil {
					return err
				}
			}

			log.Info("starting wheelsim",
				zap.String("addr", cfg.Addr),
				zap.String("data_dir", cfg.DataDir),
				zap.Bool("record", cfg.Record),
				zap.Int("max_points", cfg.MaxPoints),
				zap.Float64("horizon", cfg.Simulation.Horizon),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, log, st).Run(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "server config file (yaml)")
	f.String("addr", ":8000", "listen address")
	f.Bool("record", false, "record every simulation under the data directory")
	f.Int("max-points", 0, "thin replies to at most this many samples (0 keeps all)")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.String("log-format", "console", "log format: console or json")

	v.BindPFlag("addr", f.Lookup("addr"))
	v.BindPFlag("record", f.Lookup("record"))
	v.BindPFlag("max_points", f.Lookup("max-points"))
	v.BindPFlag("log.level", f.Lookup("log-level"))
	v.BindPFlag("log.format", f.Lookup("log-format"))

	return cmd
}
