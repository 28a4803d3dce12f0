// Package pipeline splits a tokenized command line into stages and runs them,
// either as concurrently running processes joined by OS pipes or, when a
// builtin is involved, one stage at a time with buffered hand-off.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// PipeToken separates stages.
const PipeToken = "|"

// ErrEmptyPipeline is returned by Split when no stage remains.
var ErrEmptyPipeline = errors.New("empty pipeline")

// ExecutableNotFoundError is returned when a stage's command can't be found
// on the search path.
type ExecutableNotFoundError struct {
	Name string
}

func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("%s: command not found", e.Name)
}

func (e *ExecutableNotFoundError) Unwrap() error {
	return exec.ErrNotFound
}

// Stage is the argument vector of one command in a pipeline, element 0 is the
// command name.
type Stage []string

// Name gets the command name.
func (s Stage) Name() string {
	return s[0]
}

// Args gets the positional arguments.
func (s Stage) Args() []string {
	return s[1:]
}

// Pipeline is an ordered list of non-empty stages.
type Pipeline []Stage

// Split partitions tokens on PipeToken. Empty segments, such as those produced
// by leading, trailing or doubled pipes, are dropped.
func Split(tokens []string) (Pipeline, error) {
	var out Pipeline
	var current Stage
	for _, tok := range tokens {
		if tok == PipeToken {
			if len(current) > 0 {
				out = append(out, current)
			}
			current = nil
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		out = append(out, current)
	}

	if len(out) == 0 {
		return nil, ErrEmptyPipeline
	}
	return out, nil
}

// BuiltinFunc runs a stage inside the shell. stdin is nil when there is no
// captured input.
type BuiltinFunc func(ctx context.Context, stage Stage, stdin io.Reader, stdout, stderr io.Writer) int

// Registry resolves builtin names.
type Registry interface {
	Lookup(name string) (BuiltinFunc, bool)
}

// Strategy is how a pipeline gets run.
type Strategy int

const (
	// AllExternal pipelines run every stage as a concurrent child process.
	AllExternal Strategy = iota
	// Mixed pipelines contain at least one builtin and run sequentially.
	Mixed
)

func (s Strategy) String() string {
	switch s {
	case AllExternal:
		return "all-external"
	case Mixed:
		return "mixed"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Select picks the strategy for p.
func Select(p Pipeline, reg Registry) Strategy {
	for _, stage := range p {
		if _, ok := reg.Lookup(stage.Name()); ok {
			return Mixed
		}
	}
	return AllExternal
}
