package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"hktravel/internal/catalog"
	"hktravel/internal/config"
	"hktravel/internal/planner"
	"hktravel/pkg/hktransport"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "hktravel",
	Short:         "Hong Kong travel planning backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file merged into the environment")

	rootCmd.AddCommand(serveCmd, planCmd, weatherCmd, arrivalsCmd)
}

func loadConfig(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	return cfg, logger, nil
}

func newTransportClient(cfg *config.Config, cat *catalog.Store, logger *slog.Logger) *hktransport.Client {
	return hktransport.New(cat, planner.New(cat, logger), hktransport.Options{
		Latency:       cfg.TransportLatency,
		RatePerMinute: cfg.TransportRatePerMinute,
		Seed:          cfg.TransportSeed,
	})
}
