// Package complete produces tab completion candidates for command names.
package complete

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/josephlewis42/pipesh/core/vos"
)

// Completer offers builtin names followed by executables on the search path.
//
// Candidates for a prefix are computed once and reused for every state asked
// for with the same prefix.
type Completer struct {
	builtins   []string
	searchPath func() []string

	prefix     string
	candidates []string
	cached     bool
}

// New creates a completer. searchPath is consulted each time a new prefix is
// completed so changes to $PATH are picked up.
func New(builtins []string, searchPath func() []string) *Completer {
	sorted := append([]string(nil), builtins...)
	sort.Strings(sorted)

	return &Completer{
		builtins:   sorted,
		searchPath: searchPath,
	}
}

// Candidates returns every completion of prefix, each followed by a space.
// Builtins come first and match case-insensitively, then executables in
// search path order which match case-sensitively. Names found in more than
// one directory are repeated.
func (c *Completer) Candidates(prefix string) []string {
	if c.cached && c.prefix == prefix {
		return c.candidates
	}

	var out []string
	lower := strings.ToLower(prefix)
	for _, name := range c.builtins {
		if strings.HasPrefix(strings.ToLower(name), lower) {
			out = append(out, name+" ")
		}
	}

	for _, dir := range c.searchPath() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasPrefix(name, prefix) || !isExecutable(dir, entry) {
				continue
			}
			out = append(out, name+" ")
		}
	}

	c.prefix, c.candidates, c.cached = prefix, out, true
	return out
}

func isExecutable(dir string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return false
	}
	// Follows symlinks, /usr/bin is full of them.
	return vos.IsExecutable(filepath.Join(dir, entry.Name())) == nil
}

// Reset drops cached candidates, call it when a new line is started.
func (c *Completer) Reset() {
	c.prefix, c.candidates, c.cached = "", nil, false
}

// Complete returns the candidate at index state, false once they run out.
func (c *Completer) Complete(prefix string, state int) (string, bool) {
	candidates := c.Candidates(prefix)
	if state < 0 || state >= len(candidates) {
		return "", false
	}
	return candidates[state], true
}

// Do implements readline.AutoCompleter, completing the word under the cursor.
//
// readline can only insert text after the cursor, so builtins matched in a
// different case (EC for echo) are left out here; Complete still returns them.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	start := pos
	for start > 0 && !unicode.IsSpace(line[start-1]) {
		start--
	}
	word := string(line[start:pos])

	var out [][]rune
	for _, candidate := range c.Candidates(word) {
		if !strings.HasPrefix(candidate, word) {
			continue
		}
		out = append(out, []rune(strings.TrimPrefix(candidate, word)))
	}
	return out, pos - start
}
