// Package calib runs the bounded parameter search over the trial driver
// and owns the session-level bookkeeping: trial history, the durable
// trial log, the convergence plot, and the final run folder.
package calib

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sciml-cfd/calibration-core/internal/provenance"
	"github.com/sciml-cfd/calibration-core/internal/visual"
	"github.com/sciml-cfd/calibration-core/pkg/config"
	"github.com/sciml-cfd/calibration-core/pkg/logger"
)

// Objective evaluates one candidate parameter value end to end and
// returns a finite loss. Fault handling is the objective's problem;
// the session only records what comes back.
type Objective interface {
	Evaluate(ctx context.Context, iteration int, param float64) float64
}

// Trial is one completed objective evaluation.
type Trial struct {
	Iteration int
	Param     float64
	Loss      float64
	Elapsed   time.Duration
}

// Result summarizes a finished calibration session.
type Result struct {
	BestTrial  Trial
	Trials     int
	Converged  bool
	Reason     string
	SessionDir string
	History    []Trial
}

// Session drives one calibration run. It is not safe for concurrent use;
// trials are strictly sequential because each one owns the working area.
type Session struct {
	cfg       *config.Config
	objective Objective
	store     *provenance.Store
	trialLog  *provenance.TrialLog

	history   []Trial
	iteration int
}

// NewSession creates a session around an objective and an artifact store,
// opening the trial log in the working area.
func NewSession(cfg *config.Config, objective Objective, store *provenance.Store) (*Session, error) {
	trialLog, err := provenance.NewTrialLog(filepath.Join(cfg.WorkDir, provenance.LogFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open trial log: %w", err)
	}
	return &Session{
		cfg:       cfg,
		objective: objective,
		store:     store,
		trialLog:  trialLog,
	}, nil
}

// History returns the trials completed so far, in order.
func (s *Session) History() []Trial {
	return s.history
}

// evaluate runs one trial, records it, and returns its loss to the search.
func (s *Session) evaluate(ctx context.Context, param float64) float64 {
	s.iteration++
	iteration := s.iteration

	logger.Info("trial started", "iteration", iteration, "pr_t", param)
	start := time.Now()
	trialLoss := s.objective.Evaluate(ctx, iteration, param)
	elapsed := time.Since(start)

	trial := Trial{Iteration: iteration, Param: param, Loss: trialLoss, Elapsed: elapsed}
	s.history = append(s.history, trial)
	if err := s.trialLog.Append(iteration, param, trialLoss, elapsed); err != nil {
		logger.Warn("failed to record trial", "iteration", iteration, "error", err)
	}
	logger.Info("trial complete",
		"iteration", iteration, "pr_t", param, "rmse", trialLoss, "elapsed", elapsed.Round(time.Millisecond))
	return trialLoss
}

// Run executes the search to termination, re-runs the best trial so its
// artifacts reflect the reported optimum, and seals the session folder.
// The verification run is not part of the trial history.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	lower, upper := s.cfg.Search.LowerBound, s.cfg.Search.UpperBound
	logger.Info("calibration started",
		"lower", lower, "upper", upper, "xatol", s.cfg.Search.XAtol, "max_trials", s.cfg.Search.MaxTrials)

	search := Minimize(ctx, func(x float64) float64 {
		return s.evaluate(ctx, x)
	}, lower, upper, s.cfg.Search.XAtol, s.cfg.Search.MaxTrials)

	if len(s.history) == 0 {
		s.trialLog.Close()
		return nil, fmt.Errorf("search terminated without completing any trial")
	}

	// The reported optimum is the best recorded trial, not the search's
	// terminal point. A late crashed trial must not displace it.
	best := s.history[0]
	for _, t := range s.history[1:] {
		if t.Loss < best.Loss {
			best = t
		}
	}

	reason := "interval width below tolerance"
	switch {
	case ctx.Err() != nil:
		reason = "cancelled"
	case !search.Converged:
		reason = "trial budget exhausted"
	}

	result := &Result{
		BestTrial: best,
		Trials:    len(s.history),
		Converged: search.Converged,
		Reason:    reason,
		History:   s.history,
	}

	if ctx.Err() != nil {
		logger.Warn("calibration cancelled", "trials", result.Trials)
		s.finalize(result)
		return result, ctx.Err()
	}

	logger.Info("search finished",
		"best_pr_t", best.Param, "best_rmse", best.Loss, "trials", result.Trials, "reason", reason)

	// Re-run the best parameter so the working area and its artifact
	// directory hold the optimum's outputs, not the last probe's.
	verification := s.objective.Evaluate(ctx, s.iteration+1, best.Param)
	if verification != best.Loss {
		logger.Warn("verification run differs from recorded best",
			"recorded", best.Loss, "verification", verification)
	}

	s.finalize(result)
	return result, nil
}

// finalize writes the convergence plot, closes the trial log, and moves
// both into the sealed run folder. Failures here are reported but never
// override the search outcome.
func (s *Session) finalize(result *Result) {
	iterations := make([]float64, len(s.history))
	losses := make([]float64, len(s.history))
	for i, t := range s.history {
		iterations[i] = float64(t.Iteration)
		losses[i] = t.Loss
	}
	plotPath := filepath.Join(s.cfg.WorkDir, provenance.ConvergencePlotName)
	if err := visual.Convergence(iterations, losses, plotPath); err != nil {
		logger.Warn("failed to render convergence plot", "error", err)
	}

	if err := s.trialLog.Close(); err != nil {
		logger.Warn("failed to close trial log", "error", err)
	}

	stem := strings.TrimSuffix(filepath.Base(s.cfg.BaseConfig), filepath.Ext(s.cfg.BaseConfig))
	dir, err := s.store.Finalize(stem, result.Trials, time.Now(),
		provenance.LogFileName, provenance.ConvergencePlotName)
	if err != nil {
		logger.Warn("failed to seal run folder", "error", err)
		dir = s.store.RunDir()
	}
	result.SessionDir = dir
	logger.Info("session sealed", "dir", dir)
}
