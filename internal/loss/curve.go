// Package loss scores a station profile against an externally supplied
// reference curve, reducing each trial to the scalar the search minimizes.
package loss

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/interp"

	"github.com/sciml-cfd/calibration-core/pkg/numeric"
)

// Curve is an immutable reference profile: ordered (normalized-velocity,
// normalized-temperature) pairs with a fitted linear interpolant. Queries
// outside the abscissa range are clamped to the nearest endpoint ordinate.
type Curve struct {
	U []float64
	T []float64

	pl interp.PiecewiseLinear
}

// NewCurve builds a curve from pre-sorted pairs. The abscissa must be
// strictly increasing and hold at least two points.
func NewCurve(u, t []float64) (*Curve, error) {
	if len(u) != len(t) {
		return nil, fmt.Errorf("reference curve: %d abscissas but %d ordinates", len(u), len(t))
	}
	if len(u) < 2 {
		return nil, fmt.Errorf("reference curve: need at least 2 points, got %d", len(u))
	}
	for i := 1; i < len(u); i++ {
		if u[i] <= u[i-1] {
			return nil, fmt.Errorf("reference curve: abscissa not strictly increasing at row %d (%f after %f)", i, u[i], u[i-1])
		}
	}

	c := &Curve{U: u, T: t}
	if err := c.pl.Fit(u, t); err != nil {
		return nil, fmt.Errorf("reference curve: fit failed: %w", err)
	}
	return c, nil
}

// LoadReference reads a two-column delimited reference dataset: first
// column abscissa, second ordinate, already sorted by abscissa. Rows whose
// first two fields are not numeric (such as a header line) are skipped.
func LoadReference(path string) (*Curve, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference dataset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var u, t []float64
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read reference dataset %s: %w", path, err)
		}
		if len(record) < 2 {
			continue
		}
		a, errA := strconv.ParseFloat(record[0], 64)
		b, errB := strconv.ParseFloat(record[1], 64)
		if errA != nil || errB != nil {
			continue
		}
		u = append(u, a)
		t = append(t, b)
	}

	c, err := NewCurve(u, t)
	if err != nil {
		return nil, fmt.Errorf("reference dataset %s: %w", path, err)
	}
	return c, nil
}

// Interpolate returns the reference ordinate at the given abscissa, with
// out-of-range queries clamped to the endpoints.
func (c *Curve) Interpolate(u float64) float64 {
	return c.pl.Predict(numeric.Clamp(u, c.U[0], c.U[len(c.U)-1]))
}
