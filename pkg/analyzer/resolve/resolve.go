// Package resolve maps raw import specifiers to files inside a project.
package resolve

import (
	"io/fs"
	"path"
	"strings"

	"github.com/panbanda/reach/pkg/models"
	"github.com/panbanda/reach/pkg/parser"
)

// Options control specifier resolution.
type Options struct {
	// Extensions are appended, in order, to a base path without a match.
	Extensions []string
	// AliasPrefixes map to the project root once stripped.
	AliasPrefixes []string
	// SourceRoots are top-level directories that bare specifiers may start with.
	SourceRoots []string
	// SkipSchemes are specifier prefixes that never resolve.
	SkipSchemes []string
}

// DefaultOptions returns the default resolution options.
func DefaultOptions() Options {
	return Options{
		Extensions:    []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".py", ".json"},
		AliasPrefixes: []string{"@/", "~/"},
		SourceRoots:   []string{"src"},
		SkipSchemes:   []string{"http://", "https://", "node:"},
	}
}

// Resolver resolves specifiers against a fixed set of known files and the
// project tree. It is safe for concurrent use once built.
type Resolver struct {
	fsys  fs.FS
	known map[string]struct{}
	opts  Options
}

// New creates a resolver rooted at fsys. known lists project-relative,
// slash-separated paths; fsys may be nil to resolve against known alone.
func New(fsys fs.FS, known []string, opts Options) *Resolver {
	if opts.Extensions == nil {
		opts.Extensions = DefaultOptions().Extensions
	}
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	return &Resolver{fsys: fsys, known: set, opts: opts}
}

// Resolve returns the project file that spec refers to when imported from
// importer. External packages and anything outside the project resolve to
// ("", false).
func (r *Resolver) Resolve(spec, importer string) (string, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", false
	}
	if parser.DetectFamily(importer) == models.FamilyIndented {
		return r.resolvePython(spec, importer)
	}
	return r.resolveCurly(spec, importer)
}

// ResolveReference resolves ref and, for `from pkg import name` forms, any
// imported names that are submodules of the package.
func (r *Resolver) ResolveReference(ref models.ImportReference) []string {
	var out []string
	target, ok := r.Resolve(ref.Specifier, ref.File)
	if ok {
		out = append(out, target)
	}
	if ref.Kind != models.ImportPythonFrom {
		return out
	}
	pkg, ok := r.pythonBase(ref.Specifier, ref.File)
	if !ok {
		return out
	}
	for _, name := range ref.Names {
		sub := path.Join(pkg, name)
		if found, ok := r.first([]string{sub + ".py", sub + "/__init__.py"}); ok && found != target {
			out = append(out, found)
		}
	}
	return out
}

func (r *Resolver) resolveCurly(spec, importer string) (string, bool) {
	for _, scheme := range r.opts.SkipSchemes {
		if strings.HasPrefix(spec, scheme) {
			return "", false
		}
	}

	var base string
	switch {
	case strings.HasPrefix(spec, "."):
		base = path.Join(path.Dir(importer), spec)
	case strings.HasPrefix(spec, "/"):
		base = path.Clean(strings.TrimLeft(spec, "/"))
	default:
		if rest, ok := r.stripAlias(spec); ok {
			base = path.Clean(rest)
		} else if r.isSourceRoot(spec) {
			base = path.Clean(spec)
		} else {
			return "", false
		}
	}
	return r.Lookup(base)
}

func (r *Resolver) stripAlias(spec string) (string, bool) {
	for _, prefix := range r.opts.AliasPrefixes {
		if rest, ok := strings.CutPrefix(spec, prefix); ok {
			return rest, true
		}
	}
	return "", false
}

func (r *Resolver) isSourceRoot(spec string) bool {
	first, _, _ := strings.Cut(spec, "/")
	for _, root := range r.opts.SourceRoots {
		if first == root {
			return true
		}
	}
	return false
}

func (r *Resolver) resolvePython(spec, importer string) (string, bool) {
	base, ok := r.pythonBase(spec, importer)
	if !ok {
		return "", false
	}
	if strings.Trim(spec, ".") == "" {
		return r.first([]string{path.Join(base, "__init__.py")})
	}
	return r.first([]string{base + ".py", base + "/__init__.py"})
}

// pythonBase converts a dotted module path into a slash path, ascending
// level-1 packages from the importer for relative forms.
func (r *Resolver) pythonBase(spec, importer string) (string, bool) {
	rest := strings.TrimLeft(spec, ".")
	level := len(spec) - len(rest)
	rel := strings.ReplaceAll(rest, ".", "/")
	if level == 0 {
		if rel == "" {
			return "", false
		}
		return path.Clean(rel), true
	}

	dir := path.Dir(importer)
	for range level - 1 {
		if dir == "." {
			return "", false
		}
		dir = path.Dir(dir)
	}
	return path.Join(dir, rel), true
}

// Lookup returns the first existing candidate for base.
func (r *Resolver) Lookup(base string) (string, bool) {
	return r.first(r.Candidates(base))
}

// Candidates lists the paths tried for base, in priority order: base
// itself, base plus each extension, then an index file per extension inside
// base. A base that already has an extension is tried verbatim first.
func (r *Resolver) Candidates(base string) []string {
	base = strings.TrimSuffix(base, "/")
	candidates := make([]string, 0, 1+2*len(r.opts.Extensions))
	candidates = append(candidates, base)
	for _, ext := range r.opts.Extensions {
		candidates = append(candidates, base+ext)
	}
	for _, ext := range r.opts.Extensions {
		candidates = append(candidates, path.Join(base, "index"+ext))
	}
	return candidates
}

func (r *Resolver) first(candidates []string) (string, bool) {
	for _, c := range candidates {
		if escapes(c) {
			continue
		}
		if _, ok := r.known[c]; ok {
			return c, true
		}
		if r.isFile(c) {
			return c, true
		}
	}
	return "", false
}

func (r *Resolver) isFile(name string) bool {
	if r.fsys == nil || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(r.fsys, name)
	return err == nil && info.Mode().IsRegular()
}

func escapes(p string) bool {
	return p == "" || p == "." || p == ".." || strings.HasPrefix(p, "../") || path.IsAbs(p)
}
