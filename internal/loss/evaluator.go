package loss

import (
	"math"

	"github.com/sciml-cfd/calibration-core/internal/profile"
	"github.com/sciml-cfd/calibration-core/pkg/logger"
	"github.com/sciml-cfd/calibration-core/pkg/numeric"
)

// Sentinel is the loss reported when a trial cannot be scored normally:
// empty slice, missing data, or an interpolation fault. It is far larger
// than any realistic converged value without destabilizing the search.
const Sentinel = 999.0

// Evaluator scores station profiles against a fixed reference curve.
type Evaluator struct {
	ref *Curve
}

// NewEvaluator creates an evaluator over an already-loaded reference curve.
func NewEvaluator(ref *Curve) *Evaluator {
	return &Evaluator{ref: ref}
}

// Reference returns the evaluator's reference curve.
func (e *Evaluator) Reference() *Curve {
	return e.ref
}

// Score returns the root-mean-square discrepancy between the slice and
// the reference curve interpolated onto the slice abscissas. Any failure
// degrades to Sentinel; the result is always finite and non-negative.
func (e *Evaluator) Score(s *profile.Slice) (rmse float64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("loss evaluation fault, applying sentinel", "cause", r)
			rmse = Sentinel
		}
	}()

	if e.ref == nil || s == nil || len(s.Points) == 0 {
		return Sentinel
	}

	want := make([]float64, len(s.Points))
	for i, p := range s.Points {
		want[i] = e.ref.Interpolate(p.UNorm)
	}
	rmse = numeric.RMSE(s.Ordinates(), want)

	if math.IsNaN(rmse) || math.IsInf(rmse, 0) {
		return Sentinel
	}
	return rmse
}
