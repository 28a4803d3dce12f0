package vos

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

// IsExecutable reports whether path names a regular file the current user
// may execute.
func IsExecutable(path string) error {
	d, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !d.Mode().IsRegular() {
		return fs.ErrPermission
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fs.ErrPermission
	}
	return nil
}

// SearchPath returns the non-empty directories listed in $PATH, in order.
func SearchPath(env VEnv) []string {
	var dirs []string
	for _, dir := range filepath.SplitList(env.Getenv(EnvPath)) {
		if dir == "" {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// LookPath searches for an executable named file in the directories named by
// the PATH environment variable. If file contains a slash, it is tried directly
// and the PATH is not consulted.
func LookPath(env VEnv, file string) (string, error) {
	return LookPathFrom(env, "", file)
}

// LookPathFrom is LookPath for a session working in dir. A relative file or
// $PATH entry is taken relative to dir rather than the process's working
// directory, so when dir is absolute the result is too.
func LookPathFrom(env VEnv, dir, file string) (string, error) {
	if strings.Contains(file, "/") {
		path := within(dir, file)
		err := IsExecutable(path)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}

	for _, searchDir := range SearchPath(env) {
		path := filepath.Join(within(dir, searchDir), file)
		if err := IsExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// SearchPathFrom is SearchPath with relative entries taken relative to dir.
func SearchPathFrom(env VEnv, dir string) []string {
	dirs := SearchPath(env)
	for i, d := range dirs {
		dirs[i] = within(dir, d)
	}
	return dirs
}

func within(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
