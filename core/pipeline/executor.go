package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// ExitNotFound is the status of a stage whose command couldn't be found.
const ExitNotFound = 127

// Executor runs pipelines on behalf of a shell session.
type Executor struct {
	// Builtins resolves in-process commands.
	Builtins Registry
	// LookPath resolves external command names to executable paths.
	LookPath func(name string) (string, error)

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Dir is the working directory of external stages.
	Dir string
	// Env is the environment of external stages, nil inherits the process
	// environment.
	Env []string

	// Log receives debug information, may be nil.
	Log *log.Logger
}

// Run executes p and returns the exit status of its last stage. The returned
// error is informational, the failure has already been reported on Stderr.
func (e *Executor) Run(ctx context.Context, p Pipeline) (int, error) {
	strategy := Select(p, e.Builtins)
	if e.Log != nil {
		e.Log.Debug("running pipeline", "stages", len(p), "strategy", strategy)
	}

	switch strategy {
	case AllExternal:
		return e.runExternal(ctx, p)
	default:
		return e.runMixed(ctx, p)
	}
}

// command builds the child process for an external stage.
func (e *Executor) command(ctx context.Context, stage Stage) (*exec.Cmd, error) {
	path, err := e.LookPath(stage.Name())
	if err != nil {
		fmt.Fprintf(e.Stderr, "%s: command not found\n", stage.Name())
		return nil, &ExecutableNotFoundError{Name: stage.Name()}
	}

	// A bare name would be searched for again on the process's PATH.
	if !filepath.IsAbs(path) && e.Dir != "" {
		path = filepath.Join(e.Dir, path)
	}

	cmd := exec.CommandContext(ctx, path, stage.Args()...)
	// Keep argv[0] as typed rather than the resolved path.
	cmd.Args[0] = stage.Name()
	cmd.Dir = e.Dir
	cmd.Env = e.Env
	cmd.Stderr = e.Stderr
	return cmd, nil
}

// exitStatus converts the result of exec.Cmd.Wait or Run to a shell status.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
	}
	return 1
}
