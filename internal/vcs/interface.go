// Package vcs provides version control system abstractions.
package vcs

// Repository provides the git operations used to pick analysis targets.
type Repository interface {
	// RepoPath returns the root path of the working tree.
	RepoPath() string
	// ChangedFiles returns the staged, modified and untracked files of the
	// working tree, relative to RepoPath.
	ChangedFiles() ([]string, error)
	// DiffFiles returns the files that differ between rev and HEAD.
	DiffFiles(rev string) ([]string, error)
	// Tree returns the file tree of a revision.
	Tree(rev string) (Tree, error)
}

// TreeEntry represents a file in a git tree.
type TreeEntry struct {
	Path string
	Size int64
}

// Tree represents a git tree object.
type Tree interface {
	// Entries returns all files in the tree (recursively).
	Entries() ([]TreeEntry, error)
	// File returns the content of the file at path.
	File(path string) ([]byte, error)
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
