package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sciml-cfd/calibration-core/internal/calib"
	"github.com/sciml-cfd/calibration-core/internal/driver"
	"github.com/sciml-cfd/calibration-core/internal/loss"
	"github.com/sciml-cfd/calibration-core/internal/profile"
	"github.com/sciml-cfd/calibration-core/internal/provenance"
	"github.com/sciml-cfd/calibration-core/internal/solver"
	"github.com/sciml-cfd/calibration-core/internal/tecplot"
	"github.com/sciml-cfd/calibration-core/pkg/config"
	"github.com/sciml-cfd/calibration-core/pkg/logger"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

func main() {
	root := &cobra.Command{
		Use:           "prcal",
		Short:         "Calibrates the turbulent Prandtl number against a reference boundary-layer profile",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "prcal.yaml", "path to the session configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (text, json)")

	root.AddCommand(newRunCmd(), newScoreCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the session configuration and applies flag overrides,
// then installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	logger.SetDefault(logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout))
	return cfg, nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a full calibration session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runCalibration(cfg)
		},
	}
}

func runCalibration(cfg *config.Config) error {
	// Fail before the first trial on anything no trial could survive.
	if _, err := os.Stat(cfg.BaseConfig); err != nil {
		return fmt.Errorf("base solver configuration %s: %w", cfg.BaseConfig, err)
	}
	curve, err := loss.LoadReference(cfg.Reference)
	if err != nil {
		return fmt.Errorf("reference profile %s: %w", cfg.Reference, err)
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return fmt.Errorf("working directory %s: %w", cfg.WorkDir, err)
	}

	timeout, err := cfg.Solver.GetTimeout()
	if err != nil {
		return fmt.Errorf("solver timeout: %w", err)
	}

	store, err := provenance.NewStore(cfg.ResultsDir, cfg.WorkDir, time.Now())
	if err != nil {
		return err
	}

	invoker := &solver.CFDCommand{
		Binary:   cfg.Solver.Binary,
		Launcher: cfg.Solver.Launcher,
		Cores:    cfg.Solver.Cores,
		Timeout:  timeout,
		Dir:      cfg.WorkDir,
	}
	drv := driver.New(cfg, invoker, loss.NewEvaluator(curve), store)

	session, err := calib.NewSession(cfg, drv, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := session.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Println()
	fmt.Println("==================================================")
	if errors.Is(err, context.Canceled) {
		fmt.Println("Calibration interrupted")
	} else {
		fmt.Println("Calibration complete")
	}
	fmt.Printf("Optimal Pr_t:   %.4f\n", result.BestTrial.Param)
	fmt.Printf("Final RMSE:     %.4f K\n", result.BestTrial.Loss)
	fmt.Printf("Trials:         %d (%s)\n", result.Trials, result.Reason)
	fmt.Printf("Elapsed:        %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("Results folder: %s\n", result.SessionDir)
	fmt.Println("==================================================")
	return nil
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <flow.dat>",
		Short: "Score one existing solver output against the reference profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return scoreOutput(cfg, args[0])
		},
	}
}

func scoreOutput(cfg *config.Config, path string) error {
	curve, err := loss.LoadReference(cfg.Reference)
	if err != nil {
		return fmt.Errorf("reference profile %s: %w", cfg.Reference, err)
	}

	tbl, err := tecplot.Parse(path)
	if err != nil {
		return fmt.Errorf("solver output %s: %w", path, err)
	}
	window := profile.Window{
		Station:   cfg.Station.X,
		Tolerance: cfg.Station.Tolerance,
		Inclusive: cfg.Station.Inclusive,
	}
	slice, err := profile.Extract(tbl, window, cfg.Freestream.Velocity, cfg.Freestream.Temperature)
	if err != nil {
		return fmt.Errorf("station x=%g: %w", cfg.Station.X, err)
	}

	rmse := loss.NewEvaluator(curve).Score(slice)
	fmt.Printf("points: %d\n", slice.Len())
	fmt.Printf("rmse:   %.6f\n", rmse)
	return nil
}
