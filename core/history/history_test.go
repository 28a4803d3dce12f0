package history

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(lines ...string) *Store {
	s := New(afero.NewMemMapFs())
	for _, l := range lines {
		s.Add(l)
	}
	return s
}

func numbered(n int) []string {
	var out []string
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("cmd %d", i))
	}
	return out
}

func ExampleStore_List() {
	s := New(afero.NewMemMapFs())
	s.Add("echo hello")
	s.Add("  pwd  ")
	s.Add("history")

	s.List(os.Stdout, -1)

	// Output:     1  echo hello
	//     2  pwd
	//     3  history
}

func TestStore_Add(t *testing.T) {
	s := newStore()

	e := s.Add("  ls -l \n")

	assert.Equal(t, Entry{Index: 1, Line: "ls -l"}, e)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Tail(t *testing.T) {
	s := newStore(numbered(10)...)

	t.Run("last three", func(t *testing.T) {
		assert.Equal(t, []Entry{
			{Index: 8, Line: "cmd 8"},
			{Index: 9, Line: "cmd 9"},
			{Index: 10, Line: "cmd 10"},
		}, s.Tail(3))
	})

	t.Run("more than stored", func(t *testing.T) {
		short := newStore(numbered(3)...)
		assert.Len(t, short.Tail(5), 3)
	})

	t.Run("zero", func(t *testing.T) {
		assert.Empty(t, s.Tail(0))
	})

	t.Run("all", func(t *testing.T) {
		assert.Len(t, s.Tail(-1), 10)
		assert.Equal(t, s.Tail(-1), s.Entries())
	})
}

func TestStore_List(t *testing.T) {
	s := newStore(numbered(10)...)
	buf := &bytes.Buffer{}

	require.NoError(t, s.List(buf, 3))

	assert.Equal(t, "    8  cmd 8\n    9  cmd 9\n   10  cmd 10\n", buf.String())
}

func TestStore_Read(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		s := newStore("a")

		err := s.Read("/nope")

		assert.True(t, errors.Is(err, fs.ErrNotExist))
		assert.Equal(t, 1, s.Len())
		assert.Equal(t, 0, s.LastSynced())
	})

	t.Run("appends in order", func(t *testing.T) {
		s := newStore("first")
		require.NoError(t, afero.WriteFile(s.fs, "/hist", []byte("a\n  b  \n\nc"), 0644))

		require.NoError(t, s.Read("/hist"))

		assert.Equal(t, []Entry{
			{Index: 1, Line: "first"},
			{Index: 2, Line: "a"},
			{Index: 3, Line: "b"},
			{Index: 4, Line: "c"},
		}, s.Entries())
		assert.Equal(t, 4, s.LastSynced())
	})
}

func TestStore_WriteRead(t *testing.T) {
	memFs := afero.NewMemMapFs()
	original := New(memFs)
	for _, l := range []string{"echo hello", "ls | wc -l", "history 2"} {
		original.Add(l)
	}
	require.NoError(t, afero.WriteFile(memFs, "/hist", []byte("stale\nstale\nstale\nstale\n"), 0644))

	require.NoError(t, original.Write("/hist"))
	assert.Equal(t, 3, original.LastSynced())

	contents, err := afero.ReadFile(memFs, "/hist")
	require.NoError(t, err)
	assert.Equal(t, "echo hello\nls | wc -l\nhistory 2\n", string(contents))

	fresh := New(memFs)
	require.NoError(t, fresh.Read("/hist"))
	assert.Equal(t, original.Entries(), fresh.Entries())
}

func TestStore_Append(t *testing.T) {
	memFs := afero.NewMemMapFs()
	s := New(memFs)
	s.Add("one")
	s.Add("two")

	readFile := func() string {
		t.Helper()
		contents, err := afero.ReadFile(memFs, "/hist")
		require.NoError(t, err)
		return string(contents)
	}

	require.NoError(t, s.Append("/hist"))
	assert.Equal(t, "one\ntwo\n", readFile())

	// Nothing new, nothing written.
	require.NoError(t, s.Append("/hist"))
	assert.Equal(t, "one\ntwo\n", readFile())

	s.Add("three")
	require.NoError(t, s.Append("/hist"))
	assert.Equal(t, "one\ntwo\nthree\n", readFile())
	assert.Equal(t, 3, s.LastSynced())
}

func TestStore_AppendAfterRead(t *testing.T) {
	memFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFs, "/hist", []byte("old\n"), 0644))

	s := New(memFs)
	require.NoError(t, s.Read("/hist"))
	s.Add("new")
	require.NoError(t, s.Append("/hist"))

	contents, err := afero.ReadFile(memFs, "/hist")
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(contents))
}

func TestStore_WriteFailure(t *testing.T) {
	s := New(afero.NewReadOnlyFs(afero.NewMemMapFs()))
	s.Add("one")

	assert.Error(t, s.Write("/hist"))
	assert.Error(t, s.Append("/hist"))
	assert.Equal(t, 0, s.LastSynced())
}

func TestParseCount(t *testing.T) {
	cases := map[string]struct {
		arg      string
		expected int
		err      string
	}{
		"zero":         {arg: "0", expected: 0},
		"positive":     {arg: "3", expected: 3},
		"negative":     {arg: "-5", err: "invalid argument: negative number"},
		"not a number": {arg: "abc", err: "invalid argument: 'abc'"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			n, err := ParseCount(tc.arg)
			if tc.err != "" {
				var invalid *InvalidArgumentError
				assert.ErrorAs(t, err, &invalid)
				assert.EqualError(t, err, tc.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, n)
		})
	}
}
