package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/anmitsu/go-shlex"
	"github.com/charmbracelet/log"
	"github.com/josephlewis42/pipesh/core/complete"
	"github.com/josephlewis42/pipesh/core/config"
	"github.com/josephlewis42/pipesh/core/history"
	"github.com/josephlewis42/pipesh/core/pipeline"
	"github.com/josephlewis42/pipesh/core/vos"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Shell is a single interactive session. Everything a command can change
// (working directory, history, whether to keep running) lives here rather
// than in process globals.
type Shell struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Env     vos.VEnv
	History *history.Store
	Config  *config.Configuration
	Log     *log.Logger

	// Set to true to quit the shell
	Quit bool

	wd       string
	lastRet  int
	exitCode int
}

var _ pipeline.Registry = (*Shell)(nil)

// NewShell creates a session in the process's working directory using the
// process's standard streams. History files are read and written on fsys.
func NewShell(cfg *config.Configuration, env vos.VEnv, fsys afero.Fs, logger *log.Logger) (*Shell, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return &Shell{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Env:     env,
		History: history.New(fsys),
		Config:  cfg,
		Log:     logger,
		wd:      wd,
	}, nil
}

// Init seeds the history from the configured history file. A missing file is
// fine, other failures are logged and the session carries on.
func (s *Shell) Init() {
	s.Env.Setenv(vos.EnvPWD, s.wd)

	path := s.histFile()
	if path == "" {
		return
	}
	if err := s.History.Read(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.Log.Error("loading history", "path", path, "err", err)
	}
}

// Getwd gets the session's working directory.
func (s *Shell) Getwd() string {
	return s.wd
}

// Chdir changes the session's working directory, dir must be absolute.
func (s *Shell) Chdir(dir string) {
	s.wd = dir
	s.Env.Setenv(vos.EnvPWD, dir)
}

// ExitCode is the status the shell should exit with.
func (s *Shell) ExitCode() int {
	return s.exitCode
}

// LastStatus is the status of the most recent command.
func (s *Shell) LastStatus() int {
	return s.lastRet
}

func (s *Shell) histFile() string {
	return s.Env.Getenv(s.Config.HistoryEnv)
}

// persistHistory rewrites the configured history file, if any.
func (s *Shell) persistHistory() {
	path := s.histFile()
	if path == "" {
		return
	}
	if err := s.History.Write(path); err != nil {
		s.Log.Error("saving history", "path", path, "err", err)
	}
}

// lookPath resolves name to an absolute path, relative names and $PATH
// entries are taken from the session's directory.
func (s *Shell) lookPath(name string) (string, error) {
	return vos.LookPathFrom(s.Env, s.wd, name)
}

func (s *Shell) isTerminal() bool {
	f, ok := s.Stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *Shell) prompt() string {
	if s.Config.ColorPrompt && s.isTerminal() {
		ColorBoldGreen.EnableColor()
		return ColorBoldGreen.Sprint(s.Config.Prompt)
	}
	return s.Config.Prompt
}

// RunInteractive reads and runs lines until exit, end of input or an
// interrupt at the prompt.
func (s *Shell) RunInteractive() int {
	completer := complete.New(BuiltinNames(), func() []string {
		return vos.SearchPathFrom(s.Env, s.wd)
	})

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           readline.NewCancelableStdin(s.Stdin),
		Stdout:          s.Stdout,
		Stderr:          s.Stderr,
	})
	if err != nil {
		fmt.Fprintf(s.Stderr, "sh: %s\n", err)
		return 1
	}
	defer rl.Close()

	// Make loaded history available to line recall.
	for _, e := range s.History.Entries() {
		if err := rl.SaveHistory(e.Line); err != nil {
			s.Log.Debug("seeding line recall", "err", err)
			break
		}
	}

	ctx := context.Background()
	for !s.Quit {
		completer.Reset()
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return s.exitCode // Input closed, quit.

		case err == readline.ErrInterrupt:
			return s.exitCode

		case err != nil:
			s.Log.Error("reading line", "err", err)
			continue

		default:
			s.RunCommand(ctx, line)
		}
	}
	return s.exitCode
}

// RunCommand records line in the history and runs it, returning its status.
// Blank lines are ignored.
func (s *Shell) RunCommand(ctx context.Context, line string) int {
	line = strings.TrimSpace(line)
	if line == "" {
		return s.lastRet
	}

	s.History.Add(line)
	s.execute(ctx, line)
	return s.lastRet
}

func (s *Shell) execute(ctx context.Context, line string) {
	// Redirection is handled by a full POSIX shell.
	if strings.Contains(line, ">") {
		s.lastRet = s.delegate(ctx, line)
		return
	}

	tokens, err := shlex.Split(line, true)
	if err != nil {
		fmt.Fprintf(s.Stderr, "sh: syntax error: %v\n", err)
		s.lastRet = 2
		return
	}

	p, err := pipeline.Split(tokens)
	if errors.Is(err, pipeline.ErrEmptyPipeline) {
		return
	}

	status, err := s.executor().Run(ctx, p)
	if err != nil {
		s.Log.Debug("pipeline failed", "line", line, "err", err)
	}
	s.lastRet = status
}

func (s *Shell) executor() *pipeline.Executor {
	return &pipeline.Executor{
		Builtins: s,
		LookPath: s.lookPath,
		Stdin:    s.Stdin,
		Stdout:   s.Stdout,
		Stderr:   s.Stderr,
		Dir:      s.wd,
		Env:      s.Env.Environ(),
		Log:      s.Log,
	}
}

// delegate runs line verbatim in a POSIX shell interpreter sharing the
// session's directory, environment and streams.
func (s *Shell) delegate(ctx context.Context, line string) int {
	file, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		fmt.Fprintf(s.Stderr, "sh: syntax error: %v\n", err)
		return 2
	}

	runner, err := interp.New(
		interp.StdIO(s.Stdin, s.Stdout, s.Stderr),
		interp.Dir(s.wd),
		interp.Env(expand.ListEnviron(s.Env.Environ()...)),
	)
	if err != nil {
		s.Log.Error("starting interpreter", "err", err)
		return 1
	}

	err = runner.Run(ctx, file)
	status, isStatus := interp.IsExitStatus(err)
	switch {
	case err == nil:
		return 0
	case isStatus:
		return int(status)
	default:
		fmt.Fprintf(s.Stderr, "sh: %v\n", err)
		return 1
	}
}

// Lookup implements pipeline.Registry by binding builtins to this session.
func (s *Shell) Lookup(name string) (pipeline.BuiltinFunc, bool) {
	builtin, ok := AllBuiltins[name]
	if !ok {
		return nil, false
	}

	return func(_ context.Context, stage pipeline.Stage, stdin io.Reader, stdout, stderr io.Writer) int {
		return builtin.Main(s, ExecContext{
			Args:   stage,
			Stdin:  stdin,
			Stdout: stdout,
			Stderr: stderr,
		})
	}, true
}
