// Package gitx adapts an external git installation into the narrow set of
// primitives the advisor consumes: branch resolution, range logs,
// name-status diffs, merge-base, merge/rebase initiation and abort, and
// staging. It never reimplements merge machinery.
package gitx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Runner executes a single git command and returns trimmed stdout.
// Failures come back as *BackendError.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner shells out to the git binary in a fixed working directory.
type ExecRunner struct {
	Dir string
	Log zerolog.Logger
}

// Run executes git with the given arguments, capturing stdout and stderr.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	r.Log.Debug().Strs("args", args).Err(err).Msg("git")
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", &BackendError{Args: args, Stderr: "git not found: ensure git is installed and in PATH", Err: err}
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", &BackendError{
			Args:     args,
			Stderr:   stderr.String(),
			ExitCode: exitCode,
			Err:      err,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}
