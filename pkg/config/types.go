package config

import "time"

// Config represents a full calibration session configuration
type Config struct {
	LogLevel   string     `yaml:"log_level"`
	LogFormat  string     `yaml:"log_format,omitempty"`
	WorkDir    string     `yaml:"workdir"`
	ResultsDir string     `yaml:"results_dir"`
	BaseConfig string     `yaml:"base_config"`
	Reference  string     `yaml:"reference"`
	Solver     Solver     `yaml:"solver"`
	Search     Search     `yaml:"search"`
	Simulation Simulation `yaml:"simulation"`
	Station    Station    `yaml:"station"`
	Freestream Freestream `yaml:"freestream"`
}

// Solver describes how the external CFD process is launched
type Solver struct {
	Binary   string `yaml:"binary"`
	Launcher string `yaml:"launcher"` // process-parallel launcher, e.g. mpirun
	Cores    int    `yaml:"cores"`
	Timeout  string `yaml:"timeout,omitempty"` // e.g. "30m"; empty or "0s" disables
}

// GetTimeout parses the solver timeout. An empty value means no timeout.
func (s *Solver) GetTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Timeout)
}

// Search configures the bounded parameter search
type Search struct {
	LowerBound float64 `yaml:"lower_bound"`
	UpperBound float64 `yaml:"upper_bound"`
	XAtol      float64 `yaml:"xatol"`      // absolute tolerance on the parameter
	MaxTrials  int     `yaml:"max_trials"` // trial budget
}

// Simulation holds per-trial solver settings injected into the config overlay
type Simulation struct {
	Iterations int `yaml:"iterations"`
	OutputFreq int `yaml:"output_freq"`
}

// Station selects the spatial slice compared against the reference profile
type Station struct {
	X         float64 `yaml:"x"`
	Tolerance float64 `yaml:"tolerance"`
	Inclusive bool    `yaml:"inclusive,omitempty"` // closed window comparison at the edges
}

// Freestream holds the reference scales used to normalize profiles
type Freestream struct {
	Velocity    float64 `yaml:"velocity"`    // U_inf [m/s]
	Temperature float64 `yaml:"temperature"` // T_inf [K]
}

// DefaultConfig returns the configuration for the Mach 14 flat plate case
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		LogFormat:  "text",
		WorkDir:    ".",
		ResultsDir: "results",
		Solver: Solver{
			Binary:   "SU2_CFD",
			Launcher: "mpirun",
			Cores:    4,
		},
		Search: Search{
			LowerBound: 0.5,
			UpperBound: 0.95,
			XAtol:      1e-3,
			MaxTrials:  20,
		},
		Simulation: Simulation{
			Iterations: 51,
			OutputFreq: 10,
		},
		Station: Station{
			X:         1.5,
			Tolerance: 0.005,
		},
		Freestream: Freestream{
			Velocity:    1882.0,
			Temperature: 47.4,
		},
	}
}
