// Package history keeps the ordered log of command lines typed in a session
// and synchronizes it with plain text history files.
package history

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Entry is a single history line with its 1-based position in the store.
type Entry struct {
	Index int
	Line  string
}

// InvalidArgumentError is returned for a bad history count.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Reason
}

// Store is an append-only log of command lines. Entries are never renumbered
// or removed during a session.
//
// lastSynced is the number of entries already sent to a file by Read, Write
// or Append; Append only writes what comes after it.
type Store struct {
	fs         afero.Fs
	entries    []string
	lastSynced int
}

// New creates an empty store that reads and writes files on fs.
func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// Add appends a line, surrounding whitespace is trimmed.
func (s *Store) Add(line string) Entry {
	s.entries = append(s.entries, strings.TrimSpace(line))
	return Entry{Index: len(s.entries), Line: s.entries[len(s.entries)-1]}
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// LastSynced returns the synchronization cursor.
func (s *Store) LastSynced() int {
	return s.lastSynced
}

// Entries returns a copy of every entry in index order.
func (s *Store) Entries() []Entry {
	return s.Tail(-1)
}

// Tail returns the last n entries, or all of them if n is negative or larger
// than the store.
func (s *Store) Tail(n int) []Entry {
	start := 0
	if n >= 0 && n < len(s.entries) {
		start = len(s.entries) - n
	}

	out := make([]Entry, 0, len(s.entries)-start)
	for i := start; i < len(s.entries); i++ {
		out = append(out, Entry{Index: i + 1, Line: s.entries[i]})
	}
	return out
}

// List writes the last n entries (all if n is negative) as a right aligned
// index and the line.
func (s *Store) List(w io.Writer, n int) error {
	for _, e := range s.Tail(n) {
		if _, err := fmt.Fprintf(w, "%5d  %s\n", e.Index, e.Line); err != nil {
			return err
		}
	}
	return nil
}

// Read appends each non-blank line of path to the store in file order, then
// moves the cursor to the end so a later Append doesn't write them back.
//
// A missing file returns an error matching fs.ErrNotExist and leaves the
// store untouched.
func (s *Store) Read(path string) error {
	fd, err := s.fs.Open(path)
	if err != nil {
		return err
	}
	defer fd.Close()

	var lines []string
	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	// Keep what was read even if the file was cut short.
	s.entries = append(s.entries, lines...)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	s.lastSynced = len(s.entries)
	return nil
}

// Write replaces the contents of path with every entry, one per line.
func (s *Store) Write(path string) error {
	fd, err := s.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if err := writeLines(fd, s.entries); err != nil {
		fd.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := fd.Close(); err != nil {
		return err
	}

	s.lastSynced = len(s.entries)
	return nil
}

// Append adds the entries added since the last synchronization to the end of
// path, creating it if needed. Calling it again without adding entries writes
// nothing.
func (s *Store) Append(path string) error {
	fd, err := s.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if err := writeLines(fd, s.entries[s.lastSynced:]); err != nil {
		fd.Close()
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	if err := fd.Close(); err != nil {
		return err
	}

	s.lastSynced = len(s.entries)
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseCount parses the argument of "history N".
func ParseCount(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, &InvalidArgumentError{Reason: fmt.Sprintf("'%s'", arg)}
	}
	if n < 0 {
		return 0, &InvalidArgumentError{Reason: "negative number"}
	}
	return n, nil
}
