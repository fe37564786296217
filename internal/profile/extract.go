// Package profile extracts the boundary-layer profile at a fixed spatial
// station from a parsed result table and normalizes it against the
// freestream reference scales.
package profile

import (
	"errors"
	"sort"

	"github.com/sciml-cfd/calibration-core/internal/tecplot"
)

// ErrEmptySlice signals that no data rows fell inside the station window.
// Like tecplot.ErrUnparseable it is a degradation signal mapped to a
// sentinel loss by the caller.
var ErrEmptySlice = errors.New("profile: no rows at station")

// Window selects rows around a spatial station. With Inclusive false
// (the default) rows exactly at station±tolerance are excluded.
type Window struct {
	Station   float64
	Tolerance float64
	Inclusive bool
}

// Contains reports whether the coordinate falls inside the window.
func (w Window) Contains(x float64) bool {
	lo, hi := w.Station-w.Tolerance, w.Station+w.Tolerance
	if w.Inclusive {
		return x >= lo && x <= hi
	}
	return x > lo && x < hi
}

// Point is one profile sample in normalized coordinates.
type Point struct {
	UNorm float64 // u / U_inf
	TNorm float64 // T / T_inf
}

// Slice is a station profile sorted ascending by normalized velocity
// with duplicate abscissa values collapsed, as the downstream
// interpolation requires.
type Slice struct {
	Points []Point
}

// Len returns the number of samples in the slice.
func (s *Slice) Len() int {
	return len(s.Points)
}

// Abscissas returns the normalized velocities of the slice.
func (s *Slice) Abscissas() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.UNorm
	}
	return out
}

// Ordinates returns the normalized temperatures of the slice.
func (s *Slice) Ordinates() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.TNorm
	}
	return out
}

// Extract filters the table to the station window and normalizes velocity
// and temperature by the freestream scales. It returns ErrEmptySlice when
// the window holds no rows.
func Extract(tbl *tecplot.Table, w Window, uInf, tInf float64) (*Slice, error) {
	x, ok := tbl.Column(tecplot.ColX)
	if !ok {
		return nil, ErrEmptySlice
	}
	u, ok := tbl.Column(tecplot.ColVelocityX)
	if !ok {
		return nil, ErrEmptySlice
	}
	temp, ok := tbl.Column(tecplot.ColTemp)
	if !ok {
		return nil, ErrEmptySlice
	}

	points := make([]Point, 0, len(x))
	for i := range x {
		if !w.Contains(x[i]) {
			continue
		}
		points = append(points, Point{UNorm: u[i] / uInf, TNorm: temp[i] / tInf})
	}
	if len(points) == 0 {
		return nil, ErrEmptySlice
	}

	// Stable sort keeps first-seen ordering among equal abscissas, so
	// the dedupe below retains the first occurrence.
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].UNorm < points[j].UNorm
	})

	deduped := points[:1]
	for _, p := range points[1:] {
		if p.UNorm != deduped[len(deduped)-1].UNorm {
			deduped = append(deduped, p)
		}
	}

	return &Slice{Points: deduped}, nil
}
