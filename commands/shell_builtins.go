package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/josephlewis42/pipesh/core/history"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

// ExecContext is what a builtin sees of the stage it runs as.
type ExecContext struct {
	// Args contains the command name followed by its arguments.
	Args []string

	// Stdin holds output captured from the previous stage, nil if there was
	// none.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type ShellBuiltin interface {
	Main(s *Shell, ec ExecContext) int
}

type ShellBuiltinFunc func(s *Shell, ec ExecContext) int

func (f ShellBuiltinFunc) Main(s *Shell, ec ExecContext) int {
	return f(s, ec)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinNames lists the builtins in sorted order.
func BuiltinNames() []string {
	var names []string
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Echo writes its arguments separated by spaces. Piped input is ignored.
func Echo(s *Shell, ec ExecContext) int {
	fmt.Fprintln(ec.Stdout, strings.Join(ec.Args[1:], " "))
	return 0
}

// Pwd prints the session's working directory.
func Pwd(s *Shell, ec ExecContext) int {
	fmt.Fprintln(ec.Stdout, s.Getwd())
	return 0
}

// Cd is the cd shell builtin
func Cd(s *Shell, ec ExecContext) int {
	args := ec.Args
	switch len(args) {
	case 1:
		args = append(args, "~")
		fallthrough
	case 2:
		target := args[1]
		if target == "~" || strings.HasPrefix(target, "~/") {
			home, err := s.Env.UserHomeDir()
			if err != nil {
				fmt.Fprintf(ec.Stdout, "%s: HOME not set\n", args[0])
				return 1
			}
			target = home + strings.TrimPrefix(target, "~")
		}

		if !filepath.IsAbs(target) {
			target = filepath.Join(s.Getwd(), target)
		}
		target = filepath.Clean(target)

		if info, err := os.Stat(target); err != nil || !info.IsDir() {
			fmt.Fprintf(ec.Stdout, "%s: %s: No such file or directory\n", args[0], args[1])
			return 1
		}
		s.Chdir(target)
	default:
		fmt.Fprintf(ec.Stdout, "%s: too many arguments\n", args[0])
		return 1
	}
	return 0
}

// Type reports how each argument would be interpreted as a command name.
func Type(s *Shell, ec ExecContext) int {
	if len(ec.Args) < 2 {
		fmt.Fprintln(ec.Stdout, "type: missing argument")
		return 1
	}

	ret := 0
	for _, name := range ec.Args[1:] {
		if _, ok := AllBuiltins[name]; ok {
			fmt.Fprintf(ec.Stdout, "%s is a shell builtin\n", name)
			continue
		}
		if path, err := s.lookPath(name); err == nil {
			fmt.Fprintf(ec.Stdout, "%s is %s\n", name, path)
			continue
		}
		fmt.Fprintf(ec.Stdout, "%s: not found\n", name)
		ret = 1
	}
	return ret
}

// Exit quits the shell, saving the history file if one is configured.
func Exit(s *Shell, ec ExecContext) int {
	status := 0
	if len(ec.Args) > 1 {
		n, err := strconv.Atoi(ec.Args[1])
		if err != nil {
			fmt.Fprintf(ec.Stderr, "%s: %s: numeric argument required\n", ec.Args[0], ec.Args[1])
			n = 2
		}
		status = n
	}

	s.Quit = true
	s.exitCode = status
	s.persistHistory()
	return status
}

// History lists the session history or synchronizes it with a file.
func History(s *Shell, ec ExecContext) int {
	// Anything else, "-5" and "-x" included, is a (bad) count.
	if len(ec.Args) > 1 && isHistoryOption(ec.Args[1]) {
		return historyFile(s, ec)
	}

	n := -1
	if len(ec.Args) > 1 {
		var err error
		if n, err = history.ParseCount(ec.Args[1]); err != nil {
			fmt.Fprintf(ec.Stdout, "%s: %v\n", ec.Args[0], err)
			return 1
		}
	}

	if err := s.History.List(ec.Stdout, n); err != nil {
		return 1
	}
	return 0
}

// isHistoryOption reports whether arg selects -r, -w, -a or help.
func isHistoryOption(arg string) bool {
	switch {
	case arg == "-h", arg == "--help":
		return true
	case len(arg) < 2 || arg[0] != '-':
		return false
	default:
		return strings.ContainsRune("rwa", rune(arg[1]))
	}
}

// historyFile handles history -r, -w and -a.
func historyFile(s *Shell, ec ExecContext) int {
	cmd := &SimpleCommand{
		Use:   "history [-r FILE | -w FILE | -a FILE | N]",
		Short: "Display or manipulate the history list.",
	}

	opts := cmd.Flags()
	readPath := opts.String('r', "", "read FILE and append its lines to the history list", "FILE")
	writePath := opts.String('w', "", "write the history list to FILE, replacing it", "FILE")
	appendPath := opts.String('a', "", "append lines added since the last read or write to FILE", "FILE")

	return cmd.Run(ec, func() int {
		w := ec.Stdout
		for _, opt := range []struct {
			flag rune
			path string
		}{{'r', *readPath}, {'w', *writePath}, {'a', *appendPath}} {
			if opts.IsSet(opt.flag) && opt.path == "" {
				fmt.Fprintln(w, "history: : No such file or directory")
				return 1
			}
		}

		switch {
		case *readPath != "":
			if err := s.History.Read(*readPath); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					fmt.Fprintf(w, "history: %s: No such file or directory\n", *readPath)
				} else {
					fmt.Fprintf(w, "history: error reading file %s: %v\n", *readPath, err)
				}
				return 1
			}
		case *writePath != "":
			if err := s.History.Write(*writePath); err != nil {
				fmt.Fprintf(w, "history: error writing to file %s: %v\n", *writePath, err)
				return 1
			}
		case *appendPath != "":
			if err := s.History.Append(*appendPath); err != nil {
				fmt.Fprintf(w, "history: error appending to file %s: %v\n", *appendPath, err)
				return 1
			}
		default:
			s.History.List(w, -1)
		}
		return 0
	})
}

func init() {
	AllBuiltins["echo"] = ShellBuiltinFunc(Echo)
	AllBuiltins["pwd"] = ShellBuiltinFunc(Pwd)
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["type"] = ShellBuiltinFunc(Type)
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
	AllBuiltins["history"] = ShellBuiltinFunc(History)
}
