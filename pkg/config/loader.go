package config

import (
	"fmt"
	"os"
)

// Load loads and parses a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.BaseConfig == "" {
		return fmt.Errorf("base_config must be set")
	}
	if cfg.Reference == "" {
		return fmt.Errorf("reference must be set")
	}

	if err := validateSolver(&cfg.Solver); err != nil {
		return fmt.Errorf("solver validation failed: %w", err)
	}
	if err := validateSearch(&cfg.Search); err != nil {
		return fmt.Errorf("search validation failed: %w", err)
	}
	if err := validateSimulation(&cfg.Simulation); err != nil {
		return fmt.Errorf("simulation validation failed: %w", err)
	}
	if err := validateStation(&cfg.Station); err != nil {
		return fmt.Errorf("station validation failed: %w", err)
	}
	if err := validateFreestream(&cfg.Freestream); err != nil {
		return fmt.Errorf("freestream validation failed: %w", err)
	}

	return nil
}

// validateSolver validates the solver launch settings
func validateSolver(s *Solver) error {
	if s.Binary == "" {
		return fmt.Errorf("binary cannot be empty")
	}
	if s.Cores < 1 {
		return fmt.Errorf("cores must be at least 1, got %d", s.Cores)
	}
	if s.Cores > 1 && s.Launcher == "" {
		return fmt.Errorf("launcher must be set when cores > 1")
	}
	if _, err := s.GetTimeout(); err != nil {
		return fmt.Errorf("invalid timeout %s: %w", s.Timeout, err)
	}
	return nil
}

// validateSearch validates the parameter search settings
func validateSearch(s *Search) error {
	if s.LowerBound >= s.UpperBound {
		return fmt.Errorf("lower_bound %f must be below upper_bound %f", s.LowerBound, s.UpperBound)
	}
	if s.XAtol <= 0 {
		return fmt.Errorf("xatol must be positive, got %f", s.XAtol)
	}
	if s.MaxTrials <= 0 {
		return fmt.Errorf("max_trials must be positive, got %d", s.MaxTrials)
	}
	return nil
}

// validateSimulation validates the per-trial solver settings
func validateSimulation(s *Simulation) error {
	if s.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", s.Iterations)
	}
	if s.OutputFreq <= 0 {
		return fmt.Errorf("output_freq must be positive, got %d", s.OutputFreq)
	}
	return nil
}

// validateStation validates the slice window
func validateStation(s *Station) error {
	if s.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %f", s.Tolerance)
	}
	return nil
}

// validateFreestream validates the normalization scales
func validateFreestream(f *Freestream) error {
	if f.Velocity <= 0 {
		return fmt.Errorf("velocity must be positive, got %f", f.Velocity)
	}
	if f.Temperature <= 0 {
		return fmt.Errorf("temperature must be positive, got %f", f.Temperature)
	}
	return nil
}
