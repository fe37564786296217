// Package provenance maps parameter values to the directories holding the
// artifacts produced while evaluating them, and maintains the session's
// durable trial log.
package provenance

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sciml-cfd/calibration-core/pkg/logger"
)

// Fixed names of the session summary files written into the working area
// during a run and collected into the run folder at the end.
const (
	LogFileName         = "optimization_log.csv"
	ConvergencePlotName = "optimization_convergence.png"
)

// TrialFiles are the fixed-name solver outputs moved into a parameter's
// artifact directory after a successful trial.
var TrialFiles = []string{
	"flow.dat",
	"flow.vtu",
	"surface_flow.vtu",
	"surface_flow.csv",
	"history.csv",
	"restart_flow.dat",
}

// ParamKey renders a parameter value at the fixed precision used for
// artifact directory names. Two trials that round to the same key share a
// directory; the later trial's files replace the earlier's file-by-file.
// That precision/accuracy tradeoff is deliberate.
func ParamKey(param float64) string {
	return fmt.Sprintf("%.4f", param)
}

// PlotName is the comparison plot filename for a parameter key.
func PlotName(key string) string {
	return "plot_Pr" + key + ".png"
}

// Store owns one calibration session's artifact tree: a run folder under
// the results root that collects per-parameter directories and, at
// session end, the summary files.
type Store struct {
	runDir  string
	workDir string
}

// NewStore creates the session run folder under resultsRoot. workDir is
// the transient working area where the solver writes its fixed-name
// outputs.
func NewStore(resultsRoot, workDir string, now time.Time) (*Store, error) {
	runDir := filepath.Join(resultsRoot, "run_"+now.Format("060102_1504"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run folder %s: %w", runDir, err)
	}
	return &Store{runDir: runDir, workDir: workDir}, nil
}

// RunDir returns the session folder path.
func (s *Store) RunDir() string {
	return s.runDir
}

// ParamDir returns the artifact directory path for a parameter key
// without creating it.
func (s *Store) ParamDir(key string) string {
	return filepath.Join(s.runDir, "Pr_"+key)
}

// ArchiveTrial moves a trial's output files from the working area into
// the parameter's artifact directory, creating it on first use. Existing
// destination files are replaced individually; sources that do not exist
// are skipped.
func (s *Store) ArchiveTrial(key string, files []string) error {
	dir := s.ParamDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}

	for _, name := range files {
		src := filepath.Join(s.workDir, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := filepath.Join(dir, name)
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to replace %s: %w", dst, err)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("failed to move %s: %w", name, err)
		}
		logger.Debug("archived trial file", "file", name, "dir", dir)
	}
	return nil
}

// Finalize moves the named summary files into the run folder and renames
// it to encode the base-configuration identity, the trial count, and the
// date. A name collision gets a time-of-day suffix instead of an
// overwrite. It returns the final session path.
func (s *Store) Finalize(configStem string, trials int, now time.Time, summaryFiles ...string) (string, error) {
	for _, name := range summaryFiles {
		src := filepath.Join(s.workDir, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dst := filepath.Join(s.runDir, name)
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to replace summary file %s: %w", dst, err)
		}
		if err := os.Rename(src, dst); err != nil {
			return "", fmt.Errorf("failed to move summary file %s: %w", name, err)
		}
	}

	root := filepath.Dir(s.runDir)
	finalName := fmt.Sprintf("%s_%diter_%s", configStem, trials, now.Format("060102"))
	finalPath := filepath.Join(root, finalName)
	if _, err := os.Stat(finalPath); err == nil {
		finalPath = filepath.Join(root, finalName+"_"+now.Format("1504"))
	}

	if err := os.Rename(s.runDir, finalPath); err != nil {
		return "", fmt.Errorf("failed to rename run folder: %w", err)
	}
	s.runDir = finalPath
	return finalPath, nil
}
