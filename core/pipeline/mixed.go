package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// runMixed runs the stages of a pipeline containing a builtin one after the
// other. Each non-final stage's entire output is held in memory and becomes
// the next stage's input; nothing is streamed.
//
// The shell's own stdin is never connected to the first stage.
func (e *Executor) runMixed(ctx context.Context, p Pipeline) (int, error) {
	var (
		carried  []byte
		hasInput bool
		status   int
		firstErr error
	)

	for i, stage := range p {
		last := i == len(p)-1

		var stdin io.Reader
		if hasInput {
			stdin = bytes.NewReader(carried)
		}

		var captured bytes.Buffer
		var stdout io.Writer = e.Stdout
		if !last {
			stdout = &captured
		}

		var err error
		status, err = e.runStage(ctx, stage, stdin, stdout)
		if err != nil && firstErr == nil {
			firstErr = err
		}

		if !last {
			carried = captured.Bytes()
			hasInput = true
		}
	}

	return status, firstErr
}

// runStage runs a single stage to completion.
func (e *Executor) runStage(ctx context.Context, stage Stage, stdin io.Reader, stdout io.Writer) (int, error) {
	if builtin, ok := e.Builtins.Lookup(stage.Name()); ok {
		return builtin(ctx, stage, stdin, stdout, e.Stderr), nil
	}

	cmd, err := e.command(ctx, stage)
	if err != nil {
		return ExitNotFound, err
	}
	cmd.Stdin = stdin
	cmd.Stdout = stdout

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(e.Stderr, "%s: %v\n", stage.Name(), err)
			return 1, err
		}
		return exitStatus(err), nil
	}
	return 0, nil
}
