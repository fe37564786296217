package calib

import (
	"context"
	"math"
)

// goldenMean is (3 - sqrt(5)) / 2, the golden-section step fraction.
const goldenMean = 0.3819660112501051

// ObjectiveFunc is a bounded scalar objective. It must always return a
// finite value: the search has no concept of a failed evaluation, only a
// large one, which is why the driver maps every fault to a finite loss.
type ObjectiveFunc func(x float64) float64

// MinimizeResult reports the terminal point of the search. Note that the
// terminal point is not necessarily the best evaluation seen; callers that
// care pick the minimum from their own trial history.
type MinimizeResult struct {
	X           float64
	Fx          float64
	Evaluations int
	Converged   bool
}

// signOrOne is sign(v) with zero mapping to +1, so a degenerate step
// still has a direction.
func signOrOne(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Minimize searches the closed interval [lower, upper] for a minimum of f
// using a golden-section / parabolic-interpolation hybrid, the bounded
// line-search suited to unimodal-ish, expensive, noisy objectives. It
// stops as soon as the bracket width drops below xatol, maxEvals
// evaluations have been spent, or ctx is cancelled. maxEvals is a strict
// budget; f is never called more than that.
func Minimize(ctx context.Context, f ObjectiveFunc, lower, upper, xatol float64, maxEvals int) MinimizeResult {
	sqrtEps := math.Sqrt(2.220446049250313e-16)

	a, b := lower, upper
	fulc := a + goldenMean*(b-a)
	nfc, xf := fulc, fulc
	rat, e := 0.0, 0.0

	x := xf
	fx := f(x)
	num := 1
	ffulc, fnfc := fx, fx
	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xatol/3.0
	tol2 := 2.0 * tol1

	converged := true
	for math.Abs(xf-xm) > (tol2 - 0.5*(b-a)) {
		if num >= maxEvals || ctx.Err() != nil {
			converged = false
			break
		}

		golden := true

		// Attempt a parabolic fit through the three best points.
		if math.Abs(e) > tol1 {
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2.0 * (q - r)
			if q > 0.0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat
			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				// Parabolic step is acceptable.
				rat = p / q
				x = xf + rat
				if (x-a) < tol2 || (b-x) < tol2 {
					rat = tol1 * signOrOne(xm-xf)
				}
			} else {
				golden = true
			}
		}

		if golden {
			// Fall back to a golden-section step.
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenMean * e
		}

		x = xf + signOrOne(rat)*math.Max(math.Abs(rat), tol1)
		fu := f(x)
		num++

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xatol/3.0
		tol2 = 2.0 * tol1
	}

	return MinimizeResult{X: xf, Fx: fx, Evaluations: num, Converged: converged}
}
