package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hktravel/internal/weather"
)

var weatherJSON bool

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Show current weather for the configured location",
	Args:  cobra.NoArgs,
	RunE:  runWeather,
}

func init() {
	weatherCmd.Flags().BoolVar(&weatherJSON, "json", false, "Print the reading as JSON")
}

func runWeather(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	svc := weather.New(newWeatherFetcher(cfg), nil, weather.Options{
		Lat: cfg.WeatherLat,
		Lon: cfg.WeatherLon,
	}, logger)
	if !svc.Configured() {
		return fmt.Errorf("%w: set OPENWEATHER_API_KEY", weather.ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	w, err := svc.Current(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if weatherJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(w)
	}

	fmt.Fprintf(out, "%s: %.1f°C (feels like %.1f°C), %s\n", w.Location, w.Temperature, w.FeelsLike, w.Description)
	fmt.Fprintf(out, "humidity %d%%, wind %.1f m/s\n", w.Humidity, w.WindSpeed)
	return nil
}
