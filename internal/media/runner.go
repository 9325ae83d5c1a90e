// Package media merges audio clips and sign-language video clips with
// ffmpeg, and cleans up generated output directories.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Runner executes an external media tool. Concatenators depend on this
// instead of os/exec so tests can stub the subprocess.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs the tool as a subprocess and surfaces its stderr on
// failure.
type ExecRunner struct {
	logger *zap.Logger
}

func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debug("running media tool",
		zap.String("command", name),
		zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, stderr.String())
	}
	return nil
}
