package scanner

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/reach/pkg/config"
	"github.com/panbanda/reach/pkg/parser"
)

// Scanner finds candidate source files in a project directory.
type Scanner struct {
	config   *config.Config
	patterns gitignore.Matcher
	ignores  gitignore.Matcher
	// prefix is the scan root relative to the git root, as path segments.
	prefix []string
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for a .git
// entry. Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns prepares the config patterns and, when enabled, every
// .gitignore of the enclosing repository.
func (s *Scanner) loadExcludePatterns(absRoot string) {
	s.patterns, s.ignores, s.prefix = nil, nil, nil

	var patterns []gitignore.Pattern
	for _, p := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	if len(patterns) > 0 {
		s.patterns = gitignore.NewMatcher(patterns)
	}

	if !s.config.Exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(absRoot)
	if gitRoot == "" {
		return
	}
	ignored, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(ignored) == 0 {
		return
	}
	s.ignores = gitignore.NewMatcher(ignored)
	if rel, err := filepath.Rel(gitRoot, absRoot); err == nil && rel != "." {
		s.prefix = strings.Split(filepath.ToSlash(rel), "/")
	}
}

// isExcluded checks a root-relative, slash-separated path.
func (s *Scanner) isExcluded(rel string, isDir bool) bool {
	parts := strings.Split(rel, "/")
	if s.patterns != nil && s.patterns.Match(parts, isDir) {
		return true
	}
	if s.ignores != nil {
		full := append(append([]string(nil), s.prefix...), parts...)
		if s.ignores.Match(full, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans root and returns the project-relative,
// forward-slash paths of every supported source file, sorted.
// Symlinks that leave the root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	files := make([]string, 0, 256)
	walkErr := filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if p == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(p)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
			// WalkDir does not follow symlinks; a linked file is still a file.
			if info, err := os.Stat(resolved); err != nil || info.IsDir() {
				return nil
			}
		}

		if d.IsDir() {
			if s.config.IsExcludedDir(d.Name()) || s.isExcluded(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.Accept(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})

	sort.Strings(files)
	return files, walkErr
}

// Accept reports whether a root-relative path is a candidate source file.
// Directory exclusions apply to every segment of the path.
func (s *Scanner) Accept(rel string) bool {
	rel = filepath.ToSlash(rel)
	if parser.DetectLanguage(rel) == parser.LangUnknown {
		return false
	}
	if s.config.ShouldExclude(rel) || s.isExcluded(rel, false) {
		return false
	}
	if !s.config.Scan.IncludeTests && IsTestFile(rel) {
		return false
	}
	return true
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(p, root string) bool {
	absPath, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

var testExtensions = map[string]struct{}{
	".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {}, ".py": {},
}

// IsTestFile reports whether a project-relative path names a test file:
// a `.test.` or `.spec.` name, a `test_` prefix, or a file under a `tests`
// or `__tests__` directory.
func IsTestFile(rel string) bool {
	rel = strings.ToLower(filepath.ToSlash(rel))
	if _, ok := testExtensions[path.Ext(rel)]; !ok {
		return false
	}
	name := path.Base(rel)
	if strings.Contains(name, ".test.") || strings.Contains(name, ".spec.") {
		return true
	}
	if strings.HasPrefix(name, "test_") {
		return true
	}
	wrapped := "/" + rel
	return strings.Contains(wrapped, "/tests/") || strings.Contains(wrapped, "/__tests__/")
}
