package driver

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sciml-cfd/calibration-core/pkg/config"
)

// GenerateOverlay materializes a per-trial solver configuration from the
// base template. It is a textual overlay, not a config-language parser:
// only the recognized directive lines are rewritten, everything else
// passes through verbatim. The overlay pins the calibrated Prandtl
// number, disables restarts, and fixes the output cadence and file
// basenames the rest of the pipeline expects.
func GenerateOverlay(basePath, outPath string, prandtl float64, sim config.Simulation) error {
	in, err := os.Open(basePath)
	if err != nil {
		return fmt.Errorf("failed to open base template %s: %w", basePath, err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create trial config %s: %w", outPath, err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "PRANDTL_TURB"):
			fmt.Fprintf(w, "PRANDTL_TURB= %g\n", prandtl)
		case strings.Contains(line, "RESTART_SOL"):
			fmt.Fprintln(w, "RESTART_SOL= NO")
		case strings.Contains(line, "OUTPUT_WRT_FREQ"):
			fmt.Fprintf(w, "OUTPUT_WRT_FREQ= %d\n", sim.OutputFreq)
		case strings.HasPrefix(strings.TrimSpace(line), "ITER="):
			fmt.Fprintf(w, "ITER= %d\n", sim.Iterations)
		case strings.Contains(line, "OUTPUT_FILES"):
			fmt.Fprintln(w, "OUTPUT_FILES= (RESTART, PARAVIEW, TECPLOT_ASCII)")
		case strings.Contains(line, "VOLUME_FILENAME"):
			fmt.Fprintln(w, "VOLUME_FILENAME= flow")
		case strings.Contains(line, "CONV_FILENAME"):
			fmt.Fprintln(w, "CONV_FILENAME= history")
		case strings.Contains(line, "RESTART_FILENAME"):
			fmt.Fprintln(w, "RESTART_FILENAME= restart_flow")
		default:
			fmt.Fprintln(w, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read base template %s: %w", basePath, err)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write trial config %s: %w", outPath, err)
	}
	return nil
}
