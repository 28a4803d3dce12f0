// Package logger builds the diagnostic logger for shell sessions. Diagnostics
// go to stderr and never interleave with command output on stdout.
package logger
