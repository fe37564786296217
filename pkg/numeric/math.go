package numeric

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Clamp limits value to the closed interval [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Mean calculates the mean of a slice of float64 values.
// An empty slice has mean 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values) / float64(len(values))
}

// RMSE calculates the root-mean-square error between two equal-length
// slices. It panics if the lengths differ and returns 0 for empty input.
func RMSE(got, want []float64) float64 {
	if len(got) != len(want) {
		panic("numeric: RMSE slice lengths differ")
	}
	if len(got) == 0 {
		return 0
	}
	resid := make([]float64, len(got))
	floats.SubTo(resid, got, want)
	return math.Sqrt(floats.Dot(resid, resid) / float64(len(resid)))
}
