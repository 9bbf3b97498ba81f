package vcs

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when no git repository encloses a path.
var ErrNotRepository = errors.New("not a git repository")

// GitOpener opens git repositories using go-git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// PlainOpen opens an existing git repository.
func (o *GitOpener) PlainOpen(path string) (Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, wrapOpenErr(path, err)
	}
	return newGitRepository(repo)
}

// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
func (o *GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, wrapOpenErr(path, err)
	}
	return newGitRepository(repo)
}

func wrapOpenErr(path string, err error) error {
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("%s: %w", path, ErrNotRepository)
	}
	return err
}

// gitRepository wraps go-git Repository.
type gitRepository struct {
	repo *git.Repository
	root string
}

func newGitRepository(repo *git.Repository) (*gitRepository, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	return &gitRepository{repo: repo, root: wt.Filesystem.Root()}, nil
}

func (r *gitRepository) RepoPath() string {
	return r.root
}

func (r *gitRepository) ChangedFiles() ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := wt.Status()
	if err != nil {
		return nil, err
	}

	var files []string
	for path, s := range status {
		if s.Staging == git.Deleted || s.Worktree == git.Deleted {
			continue
		}
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			files = append(files, filepath.ToSlash(path))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (r *gitRepository) DiffFiles(rev string) ([]string, error) {
	from, err := r.commitTree(rev)
	if err != nil {
		return nil, err
	}
	to, err := r.commitTree("HEAD")
	if err != nil {
		return nil, err
	}
	changes, err := from.Diff(to)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(changes))
	var files []string
	for _, c := range changes {
		name := c.To.Name
		if name == "" {
			// Deleted files have no HEAD content to analyse.
			continue
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (r *gitRepository) Tree(rev string) (Tree, error) {
	tree, err := r.commitTree(rev)
	if err != nil {
		return nil, err
	}
	return &gitTree{tree: tree}, nil
}

func (r *gitRepository) commitTree(rev string) (*object.Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

// gitTree wraps go-git Tree.
type gitTree struct {
	tree *object.Tree
}

func (t *gitTree) Entries() ([]TreeEntry, error) {
	var entries []TreeEntry
	err := t.tree.Files().ForEach(func(f *object.File) error {
		entries = append(entries, TreeEntry{Path: f.Name, Size: f.Size})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (t *gitTree) File(path string) ([]byte, error) {
	f, err := t.tree.File(path)
	if err != nil {
		return nil, err
	}
	rd, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return io.ReadAll(rd)
}

// RelativeTo rewrites repository-relative paths as paths relative to dir,
// dropping those outside it. repoRoot and dir are filesystem paths.
func RelativeTo(repoRoot, dir string, paths []string) []string {
	prefix, err := filepath.Rel(repoRoot, dir)
	if err != nil {
		return nil
	}
	prefix = filepath.ToSlash(prefix)
	if prefix == "." {
		return paths
	}
	if prefix == ".." || strings.HasPrefix(prefix, "../") {
		return nil
	}

	var out []string
	for _, p := range paths {
		if rest, ok := strings.CutPrefix(p, prefix+"/"); ok {
			out = append(out, rest)
		}
	}
	return out
}

// Default opener singleton
var defaultOpener Opener = NewGitOpener()

// DefaultOpener returns the default git opener.
func DefaultOpener() Opener {
	return defaultOpener
}

// SetDefaultOpener sets the default git opener (useful for testing).
func SetDefaultOpener(opener Opener) {
	defaultOpener = opener
}
