// Package vos is the slice of the operating system a shell session sees:
// its environment and the executables reachable from its search path.
package vos

const (
	EnvHome = "HOME"
	EnvPWD  = "PWD"
	EnvPath = "PATH"
)
