package calib

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sciml-cfd/calibration-core/internal/provenance"
	"github.com/sciml-cfd/calibration-core/pkg/config"
)

// stubObjective counts calls and delegates to fn.
type stubObjective struct {
	fn    func(iteration int, param float64) float64
	calls int
}

func (o *stubObjective) Evaluate(_ context.Context, iteration int, param float64) float64 {
	o.calls++
	return o.fn(iteration, param)
}

func newSessionConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.WorkDir = t.TempDir()
	cfg.ResultsDir = t.TempDir()
	cfg.BaseConfig = "configs/plate.cfg"
	return cfg
}

func newTestSession(t *testing.T, cfg *config.Config, obj Objective) *Session {
	t.Helper()
	store, err := provenance.NewStore(cfg.ResultsDir, cfg.WorkDir, time.Now())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s, err := NewSession(cfg, obj, store)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestSessionFindsMinimum(t *testing.T) {
	cfg := newSessionConfig(t)
	cfg.Search.MaxTrials = 100
	obj := &stubObjective{fn: func(_ int, param float64) float64 {
		return (param - 0.7) * (param - 0.7)
	}}
	s := newTestSession(t, cfg, obj)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Converged {
		t.Fatalf("expected convergence, got %+v", result)
	}
	if math.Abs(result.BestTrial.Param-0.7) > 1e-2 {
		t.Errorf("best parameter %f, want near 0.7", result.BestTrial.Param)
	}
	if result.Trials != len(result.History) {
		t.Errorf("Trials = %d but history has %d entries", result.Trials, len(result.History))
	}
	// One extra evaluation for the verification run, not in the history.
	if obj.calls != result.Trials+1 {
		t.Errorf("objective called %d times, want %d trials + 1 verification", obj.calls, result.Trials)
	}
}

func TestSessionSealsRunFolder(t *testing.T) {
	cfg := newSessionConfig(t)
	obj := &stubObjective{fn: func(_ int, param float64) float64 {
		return (param - 0.7) * (param - 0.7)
	}}
	s := newTestSession(t, cfg, obj)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.SessionDir == "" {
		t.Fatalf("no session directory reported")
	}
	base := filepath.Base(result.SessionDir)
	want := "plate_"
	if len(base) < len(want) || base[:len(want)] != want {
		t.Errorf("session folder %q does not encode the config stem", base)
	}

	for _, name := range []string{provenance.LogFileName, provenance.ConvergencePlotName} {
		if _, err := os.Stat(filepath.Join(result.SessionDir, name)); err != nil {
			t.Errorf("summary file %s missing from sealed folder: %v", name, err)
		}
	}
}

func TestSessionTrialLogRows(t *testing.T) {
	cfg := newSessionConfig(t)
	obj := &stubObjective{fn: func(_ int, param float64) float64 {
		return (param - 0.7) * (param - 0.7)
	}}
	s := newTestSession(t, cfg, obj)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	f, err := os.Open(filepath.Join(result.SessionDir, provenance.LogFileName))
	if err != nil {
		t.Fatalf("open trial log: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read trial log: %v", err)
	}
	if len(records) != result.Trials+1 {
		t.Fatalf("trial log has %d rows, want header + %d trials", len(records), result.Trials)
	}
	if records[0][0] != "Iteration" {
		t.Errorf("unexpected header %v", records[0])
	}
}

func TestSessionBestIgnoresPenaltyTrials(t *testing.T) {
	cfg := newSessionConfig(t)
	obj := &stubObjective{fn: func(iteration int, param float64) float64 {
		if iteration == 2 {
			return 999.0
		}
		return (param - 0.7) * (param - 0.7)
	}}
	s := newTestSession(t, cfg, obj)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.BestTrial.Loss >= 999.0 {
		t.Errorf("penalty trial reported as best: %+v", result.BestTrial)
	}
	for _, trial := range result.History {
		if trial.Loss < result.BestTrial.Loss {
			t.Errorf("history holds a better trial %+v than reported best %+v", trial, result.BestTrial)
		}
	}
}

func TestSessionBudgetExhausted(t *testing.T) {
	cfg := newSessionConfig(t)
	cfg.Search.MaxTrials = 3
	cfg.Search.XAtol = 1e-9
	obj := &stubObjective{fn: func(_ int, param float64) float64 {
		return (param - 0.7) * (param - 0.7)
	}}
	s := newTestSession(t, cfg, obj)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Converged {
		t.Errorf("expected budget termination, got converged")
	}
	if result.Reason != "trial budget exhausted" {
		t.Errorf("Reason = %q", result.Reason)
	}
	if result.Trials > 3 {
		t.Errorf("ran %d trials, budget is 3", result.Trials)
	}
}

func TestSessionCancelled(t *testing.T) {
	cfg := newSessionConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	obj := &stubObjective{}
	obj.fn = func(_ int, param float64) float64 {
		if obj.calls >= 2 {
			cancel()
		}
		return (param - 0.7) * (param - 0.7)
	}
	s := newTestSession(t, cfg, obj)

	result, err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if result == nil {
		t.Fatalf("expected a partial result on cancellation")
	}
	if result.Reason != "cancelled" {
		t.Errorf("Reason = %q", result.Reason)
	}
	// No verification run after cancellation.
	if obj.calls != result.Trials {
		t.Errorf("objective called %d times, want %d", obj.calls, result.Trials)
	}
	if result.SessionDir == "" {
		t.Errorf("cancelled session was not sealed")
	}
}
