// Package shell runs expanded command lines under the system shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/kyanite-sh/kyanite/internal/model"
)

// Runner executes one command line per call via `<shell> -c`. The zero
// value uses "sh".
type Runner struct {
	Shell string
}

// Run captures stdout and stderr separately. A command that started but
// exited non-zero is a valid Execution with its exit code set; the error
// return is reserved for failing to launch the shell at all.
func (r Runner) Run(ctx context.Context, command string) (model.Execution, error) {
	sh := r.Shell
	if sh == "" {
		sh = "sh"
	}

	cmd := exec.CommandContext(ctx, sh, "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	ex := model.Execution{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return ex, nil
	case errors.As(err, &exitErr):
		ex.ExitCode = exitErr.ExitCode()
		return ex, nil
	default:
		return model.Execution{}, err
	}
}
