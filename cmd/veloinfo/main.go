package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ma4s-org/veloinfo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
	jsonLogs   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "veloinfo",
		Short:         "Bicycle routing engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")

	rootCmd.AddCommand(newServeCmd(), newRouteCmd(), newExportCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadConfig returns defaults when no configuration file is given
func loadConfig() (veloinfo.Config, error) {
	if configFile == "" {
		cfg := veloinfo.DefaultConfig()
		return cfg, cfg.Validate()
	}
	return veloinfo.LoadConfig(configFile)
}

// openStore prepares edge store described by configuration. Returned closer must be called on exit
func openStore(ctx context.Context, cfg veloinfo.Config, logger *slog.Logger) (veloinfo.FactStore, func() error, error) {
	switch cfg.Store {
	case veloinfo.STORE_BADGER:
		store, err := veloinfo.OpenBadgerStore(cfg.BadgerDir, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.DataFile != "" {
			if err := importData(ctx, cfg, store, logger); err != nil {
				store.Close()
				return nil, nil, err
			}
		}
		return store, store.Close, nil
	default:
		if cfg.DataFile == "" {
			return nil, nil, errors.New("data_file is required for memory store")
		}
		store, err := veloinfo.LoadOSM(ctx, cfg.DataFile, cfg.Verbose || verbose, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}
}

// importData (re)loads data file into the store
func importData(ctx context.Context, cfg veloinfo.Config, store veloinfo.FactStore, logger *slog.Logger) error {
	loaded, err := veloinfo.LoadOSM(ctx, cfg.DataFile, cfg.Verbose || verbose, logger)
	if err != nil {
		return err
	}
	switch s := store.(type) {
	case *veloinfo.MemoryStore:
		s.ReplaceAll(loaded)
	case *veloinfo.BadgerStore:
		if err := s.Import(loaded.Records()); err != nil {
			return errors.Wrap(err, "Can't import edges")
		}
	default:
		return fmt.Errorf("store %T does not support import", store)
	}
	return nil
}

// parseLonLat parses "lon,lat" string
func parseLonLat(str string) (veloinfo.GeoPoint, error) {
	parts := strings.Split(str, ",")
	if len(parts) != 2 {
		return veloinfo.GeoPoint{}, fmt.Errorf("expected 'lon,lat', got '%s'", str)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return veloinfo.GeoPoint{}, errors.Wrapf(err, "Can't parse longitude '%s'", parts[0])
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return veloinfo.GeoPoint{}, errors.Wrapf(err, "Can't parse latitude '%s'", parts[1])
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return veloinfo.GeoPoint{}, fmt.Errorf("coordinates out of range: '%s'", str)
	}
	return veloinfo.GeoPoint{Lon: lon, Lat: lat}, nil
}

// profileByName returns balanced profile for empty name
func profileByName(engine *veloinfo.Engine, name string) (veloinfo.Profile, error) {
	switch name {
	case "", engine.Balanced().Name():
		return engine.Balanced(), nil
	case engine.CorridorProfile().Name():
		return engine.CorridorProfile(), nil
	}
	return nil, fmt.Errorf("unknown profile '%s'", name)
}
