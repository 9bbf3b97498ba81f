package impact

import (
	"bytes"
	"context"
	"path"
	"sort"
	"strings"

	"github.com/panbanda/reach/internal/fileproc"
	"github.com/panbanda/reach/internal/scanner"
	"github.com/panbanda/reach/pkg/config"
	"github.com/panbanda/reach/pkg/source"
)

// CollectTests lists every test file below root, honoring the configured
// exclusions but not scan.include_tests.
func CollectTests(root string, cfg *config.Config) ([]string, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	withTests := *cfg
	withTests.Scan.IncludeTests = true

	files, err := scanner.NewScanner(&withTests).ScanDir(root)
	if err != nil {
		return nil, err
	}
	return FilterTests(files), nil
}

// FilterTests keeps the test files of files, sorted.
func FilterTests(files []string) []string {
	var tests []string
	for _, f := range files {
		if scanner.IsTestFile(f) {
			tests = append(tests, f)
		}
	}
	sort.Strings(tests)
	return tests
}

// ReadTests loads the lowercased content of every test. Unreadable tests
// map to empty content.
func ReadTests(ctx context.Context, src source.ContentSource, tests []string, workers int) (map[string]string, error) {
	bodies, err := fileproc.ForEachFile(ctx, tests, func(file string) (string, error) {
		data, err := src.Read(file)
		if err != nil {
			return "", nil
		}
		return string(bytes.ToLower(data)), nil
	}, fileproc.Options{Workers: workers})
	if err != nil {
		return nil, err
	}

	contents := make(map[string]string, len(tests))
	for i, t := range tests {
		contents[t] = bodies[i]
	}
	return contents, nil
}

// FindAffectedTests selects the tests related to changed files. A test is
// related when its name or its content mentions one of the tokens of a
// changed file: its stem, the stem up to the first dot, or its path
// without extension. Changed files with no match fall back to tests in the
// same directory or its __tests__ subdirectory. contents must be lowercase.
func FindAffectedTests(changed, tests []string, contents map[string]string) []string {
	selected := make(map[string]struct{})

	for _, c := range changed {
		tokens := testTokens(c)
		found := false

		for _, t := range tests {
			name := strings.ToLower(path.Base(t))
			if containsAny(name, tokens) {
				selected[t] = struct{}{}
				found = true
			}
		}
		for _, t := range tests {
			if containsAny(contents[t], tokens) {
				selected[t] = struct{}{}
				found = true
			}
		}

		if found {
			continue
		}
		dir := path.Dir(c)
		for _, t := range tests {
			parent := path.Dir(t)
			if parent == dir || (path.Base(parent) == "__tests__" && path.Dir(parent) == dir) {
				selected[t] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(selected))
	for t := range selected {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func testTokens(file string) []string {
	stem, ext := splitExt(path.Base(file))
	base, _, _ := strings.Cut(stem, ".")
	trimmed := strings.TrimSuffix(file, ext)

	var tokens []string
	for _, tok := range []string{stem, base, trimmed} {
		if tok != "" {
			tokens = append(tokens, strings.ToLower(tok))
		}
	}
	return tokens
}

// splitExt splits name at its last dot. A leading dot starts the stem,
// not an extension.
func splitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
