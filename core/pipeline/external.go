package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// runExternal starts every stage as a child process before waiting on any of
// them. Stages are joined by OS pipes, the parent drops its copy of each pipe
// end as soon as the child holding it has started.
func (e *Executor) runExternal(ctx context.Context, p Pipeline) (int, error) {
	var (
		started  []*exec.Cmd
		final    *exec.Cmd
		firstErr error
		status   int
	)

	setErr := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	// stdin is the input of the stage about to start, upstream is the parent's
	// copy of that input if it is the read end of a pipe.
	var stdin io.Reader = e.Stdin
	var upstream *os.File

	for i, stage := range p {
		last := i == len(p)-1

		cmd, err := e.command(ctx, stage)
		if err != nil {
			setErr(err)
			if upstream != nil {
				upstream.Close()
				upstream = nil
			}
			// The next stage gets an empty input.
			stdin = nil
			status = ExitNotFound
			continue
		}
		cmd.Stdin = stdin

		var r, w *os.File
		if last {
			cmd.Stdout = e.Stdout
		} else {
			r, w, err = os.Pipe()
			if err != nil {
				setErr(fmt.Errorf("pipe: %w", err))
				if upstream != nil {
					upstream.Close()
					upstream = nil
				}
				status = 1
				break
			}
			cmd.Stdout = w
		}

		startErr := cmd.Start()

		// The child holds its own copies now.
		if upstream != nil {
			upstream.Close()
			upstream = nil
		}
		if w != nil {
			w.Close()
		}

		if startErr != nil {
			fmt.Fprintf(e.Stderr, "%s: %v\n", stage.Name(), startErr)
			setErr(startErr)
			if r != nil {
				r.Close()
			}
			stdin = nil
			status = 1
			continue
		}

		started = append(started, cmd)
		if last {
			final = cmd
		}
		if r != nil {
			stdin = r
			upstream = r
		}
	}

	if upstream != nil {
		upstream.Close()
	}

	// Statuses of earlier stages are discarded like in any other shell.
	for _, cmd := range started {
		waitErr := cmd.Wait()
		if cmd == final {
			status = exitStatus(waitErr)
		}
	}

	if e.Log != nil && firstErr != nil {
		e.Log.Debug("external pipeline", "err", firstErr)
	}
	return status, firstErr
}
