// Package solver launches the external CFD process. The process is a
// black box: it consumes one generated configuration file and the only
// observable contract is "produced its declared outputs and exited 0"
// versus a non-zero exit.
package solver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/sciml-cfd/calibration-core/pkg/logger"
)

// Invoker runs the solver once for a given configuration file. Tests
// substitute fakes that deterministically succeed, fail, or drop specific
// output files in place.
type Invoker interface {
	Invoke(ctx context.Context, configPath string) error
}

// CFDCommand invokes the solver binary as a subprocess, optionally under
// a process-parallel launcher such as mpirun.
type CFDCommand struct {
	Binary   string
	Launcher string
	Cores    int
	Timeout  time.Duration // zero disables the deadline
	Dir      string        // working directory for the process
}

// argv builds the command line: a serial run is "<binary> <config>", a
// parallel one is "<launcher> -n <cores> <binary> <config>".
func (c *CFDCommand) argv(configPath string) (string, []string) {
	if c.Cores > 1 {
		return c.Launcher, []string{"-n", strconv.Itoa(c.Cores), c.Binary, configPath}
	}
	return c.Binary, []string{configPath}
}

// Invoke runs the solver to completion. Solver stdout is discarded; a
// hung process is bounded by Timeout when one is configured.
func (c *CFDCommand) Invoke(ctx context.Context, configPath string) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	name, args := c.argv(configPath)
	logger.Info("invoking solver", "command", name, "cores", c.Cores, "config", configPath)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = c.Dir
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("solver timed out after %s: %w", c.Timeout, ctx.Err())
		}
		return fmt.Errorf("solver exited abnormally: %w", err)
	}
	return nil
}
