package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfplucker/internal/common"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

func sourcePaths(t *testing.T, root string, opts Options) []string {
	t.Helper()
	jobs, _, err := New(nil).Enumerate(context.Background(), root, opts)
	require.NoError(t, err)
	out := make([]string, len(jobs))
	for i, j := range jobs {
		rel, err := filepath.Rel(root, j.SourcePath)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
		assert.Equal(t, i, j.Index)
	}
	return out
}

func TestEnumerate_DirectoryRecursiveLexicographic(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.pdf"))
	touch(t, filepath.Join(root, "a.PDF"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.pdf"))
	touch(t, filepath.Join(root, "sub", "deeper", "a.pdf"))
	touch(t, filepath.Join(root, ".hidden", "x.pdf"))
	touch(t, filepath.Join(root, ".y.pdf"))

	got := sourcePaths(t, root, Options{})
	assert.Equal(t, []string{"a.PDF", "b.pdf", "sub/c.pdf", "sub/deeper/a.pdf"}, got)
}

func TestEnumerate_IncludeHidden(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, ".hidden", "x.pdf"))
	touch(t, filepath.Join(root, "a.pdf"))

	got := sourcePaths(t, root, Options{IncludeHidden: true})
	assert.Equal(t, []string{".hidden/x.pdf", "a.pdf"}, got)
}

func TestEnumerate_Amount(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"d.pdf", "a.pdf", "c.pdf", "b.pdf"} {
		touch(t, filepath.Join(root, n))
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, sourcePaths(t, root, Options{Amount: 2}))
	assert.Len(t, sourcePaths(t, root, Options{Amount: 10}), 4)
}

func TestEnumerate_SingleFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "only.pdf")
	touch(t, file)

	jobs, stats, err := New(nil).Enumerate(context.Background(), file, Options{Amount: 5})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, file, jobs[0].SourcePath)
	assert.Equal(t, uint32(1), stats.Matched)
}

func TestEnumerate_InvalidSource(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "doc.txt"))
	empty := filepath.Join(root, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))

	cases := map[string]string{
		"missing":   filepath.Join(root, "nope"),
		"not a pdf": filepath.Join(root, "doc.txt"),
		"empty dir": empty,
		"blank":     " ",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := New(nil).Enumerate(context.Background(), src, Options{})
			require.Error(t, err)
			assert.True(t, common.IsCode(err, common.CodeInvalidSource), err.Error())
		})
	}
}

func TestEnumerate_UniqueJobIDs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "b.pdf"))

	jobs, _, err := New(nil).Enumerate(context.Background(), root, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, jobs[0].ID, jobs[1].ID)
}
