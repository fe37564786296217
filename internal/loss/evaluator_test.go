package loss

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sciml-cfd/calibration-core/internal/profile"
)

func mustCurve(t *testing.T, u, temp []float64) *Curve {
	t.Helper()
	c, err := NewCurve(u, temp)
	if err != nil {
		t.Fatalf("failed to build curve: %v", err)
	}
	return c
}

func sliceOf(points ...profile.Point) *profile.Slice {
	return &profile.Slice{Points: points}
}

func TestScoreExactMatch(t *testing.T) {
	ref := mustCurve(t, []float64{0, 1}, []float64{0, 10})
	e := NewEvaluator(ref)

	sl := sliceOf(profile.Point{UNorm: 0, TNorm: 0}, profile.Point{UNorm: 1, TNorm: 10})
	if got := e.Score(sl); got != 0.0 {
		t.Fatalf("expected exact match loss 0.0, got %f", got)
	}
}

func TestScoreKnownResidual(t *testing.T) {
	ref := mustCurve(t, []float64{0, 1}, []float64{0, 0})
	e := NewEvaluator(ref)

	// Residuals 3 and 4 vs a zero reference: RMSE = sqrt((9+16)/2).
	sl := sliceOf(profile.Point{UNorm: 0.2, TNorm: 3}, profile.Point{UNorm: 0.8, TNorm: 4})
	want := math.Sqrt(25.0 / 2.0)
	if got := e.Score(sl); math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected RMSE %f, got %f", want, got)
	}
}

func TestScoreInterpolatesMidpoints(t *testing.T) {
	ref := mustCurve(t, []float64{0, 1}, []float64{0, 10})
	e := NewEvaluator(ref)

	// Reference at u=0.5 interpolates to 5; slice matches it exactly.
	sl := sliceOf(profile.Point{UNorm: 0.5, TNorm: 5})
	if got := e.Score(sl); got != 0.0 {
		t.Fatalf("expected 0.0 at interpolated midpoint, got %f", got)
	}
}

func TestScoreClampsOutOfRange(t *testing.T) {
	ref := mustCurve(t, []float64{0.2, 0.8}, []float64{2, 8})
	e := NewEvaluator(ref)

	// Below and above the reference range clamp to the endpoint ordinates.
	sl := sliceOf(profile.Point{UNorm: 0.0, TNorm: 2}, profile.Point{UNorm: 1.0, TNorm: 8})
	if got := e.Score(sl); got != 0.0 {
		t.Fatalf("expected clamped endpoints to match exactly, got %f", got)
	}
}

func TestScoreIdempotent(t *testing.T) {
	ref := mustCurve(t, []float64{0, 0.5, 1}, []float64{1, 4, 9})
	e := NewEvaluator(ref)
	sl := sliceOf(
		profile.Point{UNorm: 0.1, TNorm: 1.5},
		profile.Point{UNorm: 0.6, TNorm: 5.5},
	)

	first := e.Score(sl)
	second := e.Score(sl)
	if first != second {
		t.Fatalf("scoring not idempotent: %v then %v", first, second)
	}
}

func TestScoreSentinelPaths(t *testing.T) {
	ref := mustCurve(t, []float64{0, 1}, []float64{0, 10})

	tests := []struct {
		name string
		e    *Evaluator
		s    *profile.Slice
	}{
		{"nil slice", NewEvaluator(ref), nil},
		{"empty slice", NewEvaluator(ref), sliceOf()},
		{"nil reference", NewEvaluator(nil), sliceOf(profile.Point{UNorm: 0.5, TNorm: 5})},
		{"nan ordinate", NewEvaluator(ref), sliceOf(profile.Point{UNorm: 0.5, TNorm: math.NaN()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.e.Score(tt.s)
			if got != Sentinel {
				t.Errorf("expected sentinel %f, got %f", Sentinel, got)
			}
		})
	}
}

func TestScoreAlwaysFiniteNonNegative(t *testing.T) {
	ref := mustCurve(t, []float64{0, 1}, []float64{0, 10})
	e := NewEvaluator(ref)

	slices := []*profile.Slice{
		nil,
		sliceOf(),
		sliceOf(profile.Point{UNorm: math.Inf(1), TNorm: 1}),
		sliceOf(profile.Point{UNorm: 0.5, TNorm: math.Inf(-1)}),
		sliceOf(profile.Point{UNorm: 0.3, TNorm: 4}),
	}
	for i, sl := range slices {
		got := e.Score(sl)
		if math.IsNaN(got) || math.IsInf(got, 0) || got < 0 {
			t.Errorf("slice %d: loss must be finite and non-negative, got %f", i, got)
		}
	}
}

func TestNewCurveValidation(t *testing.T) {
	tests := []struct {
		name string
		u, v []float64
	}{
		{"too few points", []float64{1}, []float64{1}},
		{"length mismatch", []float64{0, 1}, []float64{1}},
		{"unsorted", []float64{0, 2, 1}, []float64{1, 2, 3}},
		{"duplicate abscissa", []float64{0, 1, 1}, []float64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCurve(tt.u, tt.v); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dns.csv")
	content := strings.Join([]string{
		"u_norm,t_norm",
		"0.0,1.0",
		"0.5,3.0",
		"1.0,9.0",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write reference: %v", err)
	}

	c, err := LoadReference(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.U) != 3 {
		t.Fatalf("expected header skipped and 3 data rows, got %d", len(c.U))
	}
	if got := c.Interpolate(0.25); got != 2.0 {
		t.Errorf("expected interpolated value 2.0, got %f", got)
	}
	if got := c.Interpolate(-5); got != 1.0 {
		t.Errorf("expected left clamp 1.0, got %f", got)
	}
	if got := c.Interpolate(5); got != 9.0 {
		t.Errorf("expected right clamp 9.0, got %f", got)
	}
}

func TestLoadReferenceMissingFile(t *testing.T) {
	if _, err := LoadReference(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatalf("expected error for missing reference dataset")
	}
}

func TestLoadReferenceTooShort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dns.csv")
	if err := os.WriteFile(path, []byte("u,t\n0.5,1.0\n"), 0o644); err != nil {
		t.Fatalf("failed to write reference: %v", err)
	}
	if _, err := LoadReference(path); err == nil {
		t.Fatalf("expected error for single-point reference")
	}
}
