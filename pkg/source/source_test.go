package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/reach/internal/vcs"
)

var (
	_ ContentSource = (*FilesystemSource)(nil)
	_ ContentSource = (*TreeSource)(nil)
	_ ContentSource = MapSource(nil)
)

func TestFilesystemSource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app.ts"), []byte("export {}\n"), 0o644))

	src := NewFilesystem(root)
	assert.Equal(t, root, src.Root())

	content, err := src.Read("src/app.ts")
	require.NoError(t, err)
	assert.Equal(t, "export {}\n", string(content))

	_, err = src.Read("nonexistent.ts")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = src.Read("../outside.ts")
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestMapSource(t *testing.T) {
	src := MapSource{"a/b.py": "import os\n"}

	content, err := src.Read("a/b.py")
	require.NoError(t, err)
	assert.Equal(t, "import os\n", string(content))

	_, err = src.Read("missing.py")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestTreeSource(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.ts"), []byte("import './a'\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	_, err = wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	r, err := vcs.NewGitOpener().PlainOpen(dir)
	require.NoError(t, err)
	tree, err := r.Tree("HEAD")
	require.NoError(t, err)

	src := NewTree(tree)
	content, err := src.Read("index.ts")
	require.NoError(t, err)
	assert.Equal(t, "import './a'\n", string(content))

	_, err = src.Read("missing.ts")
	assert.Error(t, err)
}

func TestSub(t *testing.T) {
	src := MapSource{"web/src/app.ts": "export {}\n"}

	sub := Sub(src, "web")
	content, err := sub.Read("src/app.ts")
	require.NoError(t, err)
	assert.Equal(t, "export {}\n", string(content))

	_, err = sub.Read("web/src/app.ts")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.Equal(t, ContentSource(src), Sub(src, "."))
	assert.Equal(t, ContentSource(src), Sub(src, ""))
}

func TestReadLimited(t *testing.T) {
	src := MapSource{
		"short.ts": "a\nb\n",
		"long.ts":  "1\n2\n3\n4\n5\n",
		"crlf.ts":  "1\r\n2\r\n3\r\n",
		"exact.ts": "1\n2\n3",
	}

	tests := []struct {
		path      string
		max       int
		want      string
		truncated bool
	}{
		{"short.ts", 10, "a\nb\n", false},
		{"long.ts", 3, "1\n2\n3\n", true},
		{"long.ts", 0, "1\n2\n3\n4\n5\n", false},
		{"long.ts", 5, "1\n2\n3\n4\n5\n", false},
		{"crlf.ts", 2, "1\r\n2\r\n", true},
		{"exact.ts", 3, "1\n2\n3", false},
	}

	for _, tt := range tests {
		content, truncated, err := ReadLimited(src, tt.path, tt.max)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(content), "%s max=%d", tt.path, tt.max)
		assert.Equal(t, tt.truncated, truncated, "%s max=%d", tt.path, tt.max)
	}

	_, _, err := ReadLimited(src, "missing.ts", 10)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
