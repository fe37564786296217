// Package visual renders the session's plot artifacts: the per-trial T-U
// comparison against the reference profile and the session convergence
// history.
package visual

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sciml-cfd/calibration-core/internal/loss"
	"github.com/sciml-cfd/calibration-core/internal/profile"
)

// ValidCut separates physically meaningful losses from penalty and
// sentinel values in the convergence plot.
const ValidCut = 20.0

var (
	refColor   = color.RGBA{A: 255}
	runColor   = color.RGBA{R: 220, A: 255}
	pathColor  = color.RGBA{B: 220, A: 255}
	bestColor  = color.RGBA{G: 160, A: 255}
	crashColor = color.RGBA{R: 220, A: 255}
)

func toXYs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

// Comparison renders the computed boundary-layer profile against the
// reference curve and saves it as a PNG.
func Comparison(ref *loss.Curve, sl *profile.Slice, prLabel, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Boundary Layer T-U Profile\nPr_t = %s", prLabel)
	p.X.Label.Text = "u / u_inf"
	p.Y.Label.Text = "T / T_inf"
	p.Add(plotter.NewGrid())

	refPoints, err := plotter.NewScatter(toXYs(ref.U, ref.T))
	if err != nil {
		return fmt.Errorf("failed to build reference scatter: %w", err)
	}
	refPoints.GlyphStyle.Color = refColor
	refPoints.GlyphStyle.Radius = vg.Points(2)
	p.Add(refPoints)
	p.Legend.Add("Reference data", refPoints)

	runLine, err := plotter.NewLine(toXYs(sl.Abscissas(), sl.Ordinates()))
	if err != nil {
		return fmt.Errorf("failed to build profile line: %w", err)
	}
	runLine.Color = runColor
	runLine.Width = vg.Points(2)
	p.Add(runLine)
	p.Legend.Add(fmt.Sprintf("Computed (Pr_t=%s)", prLabel), runLine)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save comparison plot: %w", err)
	}
	return nil
}

// Convergence renders loss versus iteration and saves it as a PNG. Trials
// with loss below ValidCut form the optimization path; penalty and
// sentinel trials are marked separately at the top of the plot, and the
// best valid trial is highlighted.
func Convergence(iterations, losses []float64, path string) error {
	if len(iterations) != len(losses) {
		return fmt.Errorf("convergence plot: %d iterations but %d losses", len(iterations), len(losses))
	}

	p := plot.New()
	p.Title.Text = "Convergence of Turbulence Calibration"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "RMSE (Temperature Error)"
	p.Add(plotter.NewGrid())

	var valid plotter.XYs
	var crashedIters []float64
	bestIdx := -1
	for i := range losses {
		if losses[i] < ValidCut {
			valid = append(valid, plotter.XY{X: iterations[i], Y: losses[i]})
			if bestIdx < 0 || losses[i] < losses[bestIdx] {
				bestIdx = i
			}
		} else {
			crashedIters = append(crashedIters, iterations[i])
		}
	}

	if len(valid) > 0 {
		line, err := plotter.NewLine(valid)
		if err != nil {
			return fmt.Errorf("failed to build convergence line: %w", err)
		}
		line.Color = pathColor
		p.Add(line)
		p.Legend.Add("Optimization path", line)

		best, err := plotter.NewScatter(plotter.XYs{{X: iterations[bestIdx], Y: losses[bestIdx]}})
		if err != nil {
			return fmt.Errorf("failed to build best marker: %w", err)
		}
		best.GlyphStyle.Color = bestColor
		best.GlyphStyle.Radius = vg.Points(6)
		best.GlyphStyle.Shape = draw.PyramidGlyph{}
		p.Add(best)
		p.Legend.Add(fmt.Sprintf("Best (RMSE=%.4f)", losses[bestIdx]), best)

		// Keep the axis focused on the meaningful losses; crash
		// markers sit above.
		yMin, yMax := losses[bestIdx], losses[bestIdx]
		for _, v := range valid {
			if v.Y > yMax {
				yMax = v.Y
			}
		}
		p.Y.Min = yMin * 0.9
		p.Y.Max = yMax * 1.1
	}

	if len(crashedIters) > 0 {
		// Penalty trials are pinned just under the ceiling so they stay
		// visible inside the focused axis.
		ceiling := ValidCut
		if len(valid) > 0 {
			ceiling = p.Y.Max
		} else {
			p.Y.Min = 0
			p.Y.Max = ceiling
		}
		crashed := make(plotter.XYs, len(crashedIters))
		for i, it := range crashedIters {
			crashed[i] = plotter.XY{X: it, Y: ceiling * 0.95}
		}
		marks, err := plotter.NewScatter(crashed)
		if err != nil {
			return fmt.Errorf("failed to build crash markers: %w", err)
		}
		marks.GlyphStyle.Color = crashColor
		marks.GlyphStyle.Radius = vg.Points(4)
		marks.GlyphStyle.Shape = draw.CrossGlyph{}
		p.Add(marks)
		p.Legend.Add("Crash penalty", marks)
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save convergence plot: %w", err)
	}
	return nil
}
