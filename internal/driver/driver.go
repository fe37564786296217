// Package driver evaluates one calibration trial end to end: generate the
// trial configuration, invoke the solver, reduce its output to a scalar
// loss, and archive the trial's artifacts. Its contract with the search
// loop is exception-free: every failure mode maps to a finite loss.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sciml-cfd/calibration-core/internal/loss"
	"github.com/sciml-cfd/calibration-core/internal/profile"
	"github.com/sciml-cfd/calibration-core/internal/provenance"
	"github.com/sciml-cfd/calibration-core/internal/solver"
	"github.com/sciml-cfd/calibration-core/internal/tecplot"
	"github.com/sciml-cfd/calibration-core/internal/visual"
	"github.com/sciml-cfd/calibration-core/pkg/config"
	"github.com/sciml-cfd/calibration-core/pkg/logger"
)

const (
	// CrashPenalty is the loss assigned when the solver exits non-zero
	// or the pipeline fails unexpectedly. It is an independent constant,
	// not derived from the evaluator's sentinel.
	CrashPenalty = 100.0

	// ArchiveThreshold bounds disk usage: only trials scoring below it
	// persist a plot and artifact directory.
	ArchiveThreshold = 50.0

	// flowFile is the fixed-name volume output the overlay pins.
	flowFile = "flow.dat"
)

// Driver runs single trials. All side effects are scoped to one trial:
// the generated configuration artifact is removed in cleanup along with
// any stray solver output, so consecutive trials never read stale data.
type Driver struct {
	workDir    string
	baseConfig string
	invoker    solver.Invoker
	evaluator  *loss.Evaluator
	window     profile.Window
	freestream config.Freestream
	sim        config.Simulation
	store      *provenance.Store
}

// New assembles a driver over an already-validated configuration.
func New(cfg *config.Config, invoker solver.Invoker, evaluator *loss.Evaluator, store *provenance.Store) *Driver {
	return &Driver{
		workDir:    cfg.WorkDir,
		baseConfig: cfg.BaseConfig,
		invoker:    invoker,
		evaluator:  evaluator,
		window: profile.Window{
			Station:   cfg.Station.X,
			Tolerance: cfg.Station.Tolerance,
			Inclusive: cfg.Station.Inclusive,
		},
		freestream: cfg.Freestream,
		sim:        cfg.Simulation,
		store:      store,
	}
}

// Evaluate runs one trial at the given parameter value and returns its
// loss. It never returns an error and never panics past its boundary:
// solver crashes and unexpected faults yield CrashPenalty, unscorable
// output yields the evaluator's sentinel.
func (d *Driver) Evaluate(ctx context.Context, iteration int, param float64) (trialLoss float64) {
	key := provenance.ParamKey(param)
	runID := fmt.Sprintf("Iter_%d_Pr%s", iteration, key)
	cfgPath := filepath.Join(d.workDir, "run_"+runID+".cfg")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("unexpected fault in trial pipeline, applying penalty", "run", runID, "cause", r)
			trialLoss = CrashPenalty
		}
	}()
	defer d.cleanup(cfgPath)

	if err := GenerateOverlay(d.baseConfig, cfgPath, param, d.sim); err != nil {
		logger.Error("config generation failed, applying penalty", "run", runID, "error", err)
		return CrashPenalty
	}

	// A leftover volume file from a previous trial must never be scored
	// as this trial's output.
	if err := os.Remove(d.flowPath()); err != nil && !os.IsNotExist(err) {
		logger.Error("failed to clear stale output, applying penalty", "run", runID, "error", err)
		return CrashPenalty
	}

	if err := d.invoker.Invoke(ctx, cfgPath); err != nil {
		logger.Warn("solver failed, applying penalty", "run", runID, "error", err)
		return CrashPenalty
	}

	trialLoss, slice := d.score()

	if trialLoss < ArchiveThreshold {
		d.persist(key, slice)
	}
	return trialLoss
}

// score runs parse → extract → evaluate on the trial's volume output.
// Degradation signals from either stage map to the evaluator's sentinel.
func (d *Driver) score() (float64, *profile.Slice) {
	tbl, err := tecplot.Parse(d.flowPath())
	if err != nil {
		if !errors.Is(err, tecplot.ErrUnparseable) {
			logger.Warn("output file unreadable", "error", err)
		}
		return loss.Sentinel, nil
	}

	slice, err := profile.Extract(tbl, d.window, d.freestream.Velocity, d.freestream.Temperature)
	if err != nil {
		return loss.Sentinel, nil
	}

	return d.evaluator.Score(slice), slice
}

// persist renders the comparison plot and moves the trial's outputs into
// the parameter's artifact directory. Persistence problems are logged,
// not propagated: the loss is already known.
func (d *Driver) persist(key string, slice *profile.Slice) {
	plotName := provenance.PlotName(key)
	if slice != nil {
		path := filepath.Join(d.workDir, plotName)
		if err := visual.Comparison(d.evaluator.Reference(), slice, key, path); err != nil {
			logger.Warn("comparison plot failed", "param", key, "error", err)
		}
	}

	files := append([]string{}, provenance.TrialFiles...)
	files = append(files, plotName)
	if err := d.store.ArchiveTrial(key, files); err != nil {
		logger.Warn("artifact archival failed", "param", key, "error", err)
	}
}

// cleanup removes the transient trial config and any stray volume output
// so the next trial starts from a clean working area. It runs on every
// path, success or failure.
func (d *Driver) cleanup(cfgPath string) {
	for _, path := range []string{cfgPath, d.flowPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("cleanup failed", "file", path, "error", err)
		}
	}
}

func (d *Driver) flowPath() string {
	return filepath.Join(d.workDir, flowFile)
}
