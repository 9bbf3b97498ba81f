// Package source abstracts where file content is read from.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/panbanda/reach/internal/vcs"
)

// ContentSource provides file content by project-relative path.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files below a root directory.
type FilesystemSource struct {
	root string
}

// NewFilesystem creates a source that reads from the filesystem. Relative
// paths are resolved against root; an empty root means the working directory.
func NewFilesystem(root string) *FilesystemSource {
	return &FilesystemSource{root: root}
}

// Root returns the directory paths are resolved against.
func (f *FilesystemSource) Root() string {
	return f.root
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(p string) ([]byte, error) {
	if f.root == "" || filepath.IsAbs(p) {
		return os.ReadFile(p)
	}
	clean := path.Clean(filepath.ToSlash(p))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrPermission}
	}
	return os.ReadFile(filepath.Join(f.root, filepath.FromSlash(clean)))
}

// MapSource serves content from memory. It is mostly useful in tests and for
// scanning unsaved buffers.
type MapSource map[string]string

// Read implements ContentSource.
func (m MapSource) Read(p string) ([]byte, error) {
	content, ok := m[filepath.ToSlash(p)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}
	return []byte(content), nil
}

// TreeSource reads files from a git tree.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	tree vcs.Tree
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git tree.
func NewTree(tree vcs.Tree) *TreeSource {
	return &TreeSource{tree: tree}
}

// Read implements ContentSource.
func (t *TreeSource) Read(p string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.File(filepath.ToSlash(p))
}

// Sub returns a source that reads paths relative to dir inside src. An
// empty or "." dir returns src unchanged.
func Sub(src ContentSource, dir string) ContentSource {
	dir = path.Clean(filepath.ToSlash(dir))
	if dir == "." || dir == "" {
		return src
	}
	return subSource{src: src, dir: dir}
}

type subSource struct {
	src ContentSource
	dir string
}

func (s subSource) Read(p string) ([]byte, error) {
	return s.src.Read(path.Join(s.dir, filepath.ToSlash(p)))
}

// ReadLimited reads at most maxLines lines of path. truncated reports whether
// content was dropped. maxLines <= 0 reads everything.
func ReadLimited(src ContentSource, p string, maxLines int) (content []byte, truncated bool, err error) {
	data, err := src.Read(p)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", p, err)
	}
	if maxLines <= 0 {
		return data, false, nil
	}
	return Truncate(data, maxLines)
}

// Truncate keeps the first maxLines lines of data.
func Truncate(data []byte, maxLines int) ([]byte, bool, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	offset, lines := 0, 0
	for sc.Scan() {
		if lines == maxLines {
			return data[:offset], true, nil
		}
		lines++
		offset += len(sc.Bytes())
		if offset < len(data) && data[offset] == '\r' {
			offset++
		}
		if offset < len(data) && data[offset] == '\n' {
			offset++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, false, err
	}
	return data, false, nil
}
