// Package graph builds the file-level import graph of a project and runs the
// structural analyses over it: module grouping, cycle detection, blast radius
// and dependency ordering.
//
// Building is a two-stage pipeline. Stage one scans every file independently
// and in parallel; stage two resolves all collected references against the
// complete set of known files. No stage-one result depends on another file.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/panbanda/reach/internal/cache"
	"github.com/panbanda/reach/internal/fileproc"
	"github.com/panbanda/reach/internal/scanner"
	"github.com/panbanda/reach/pkg/analyzer/blocks"
	"github.com/panbanda/reach/pkg/analyzer/imports"
	"github.com/panbanda/reach/pkg/analyzer/resolve"
	"github.com/panbanda/reach/pkg/config"
	"github.com/panbanda/reach/pkg/models"
	"github.com/panbanda/reach/pkg/parser"
	"github.com/panbanda/reach/pkg/source"
)

// ErrInvalidRoot is returned when the project root is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid project root")

// Builder builds dependency graphs.
type Builder struct {
	cfg        *config.Config
	logger     *slog.Logger
	cache      *cache.Cache
	src        source.ContentSource
	workers    int
	scanBlocks bool
	onProgress func()
}

// Option is a functional option for configuring Builder.
type Option func(*Builder)

// WithConfig sets the configuration. Defaults to config.DefaultConfig().
func WithConfig(cfg *config.Config) Option {
	return func(b *Builder) {
		if cfg != nil {
			b.cfg = cfg
		}
	}
}

// WithLogger sets the logger. Defaults to a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithWorkers overrides the configured worker count.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithCache reuses per-file scans across runs.
func WithCache(c *cache.Cache) Option {
	return func(b *Builder) {
		b.cache = c
	}
}

// WithSource reads content from src instead of the filesystem under root.
func WithSource(src source.ContentSource) Option {
	return func(b *Builder) {
		b.src = src
	}
}

// WithBlocks also records the block spans of every file.
func WithBlocks(enabled bool) Option {
	return func(b *Builder) {
		b.scanBlocks = enabled
	}
}

// WithProgress registers a callback invoked once per scanned file.
// It is called from worker goroutines.
func WithProgress(fn func()) Option {
	return func(b *Builder) {
		b.onProgress = fn
	}
}

// NewBuilder creates a new graph builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers <= 0 {
		b.workers = b.cfg.Workers()
	}
	return b
}

// CacheVersion identifies the settings that shape a FileScan, so cached
// scans taken under other settings are not reused.
func CacheVersion(cfg *config.Config, withBlocks bool) string {
	return cache.Version(
		"scan/1",
		strconv.Itoa(cfg.Scan.MaxLines),
		strconv.Itoa(cfg.Scan.BlockWindow),
		strconv.Itoa(cfg.Scan.FallbackCap),
		strconv.FormatBool(withBlocks),
	)
}

// Result is everything learned from one build.
type Result struct {
	Root        string                     `json:"root"`
	Files       []models.SourceFile        `json:"files"`
	Graph       *models.Graph              `json:"graph"`
	Modules     *models.ModuleGraph        `json:"modules"`
	Scans       map[string]models.FileScan `json:"-"`
	Warnings    []models.Warning           `json:"warnings,omitempty"`
	Fingerprint string                     `json:"fingerprint"`
}

// Paths returns the project-relative path of every file, sorted.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.Path
	}
	return paths
}

// Build scans files and links them into a dependency graph. files may be
// absolute or relative to root; a nil slice enumerates root with the
// configured exclusions. Problems with individual files become warnings.
// The only errors are an invalid root and context cancellation.
func (b *Builder) Build(ctx context.Context, root string, files []string) (*Result, error) {
	absRoot, err := b.checkRoot(root)
	if err != nil {
		return nil, err
	}

	var warnings models.WarningSet
	if files == nil {
		if absRoot == "" {
			return nil, fmt.Errorf("%w: a root directory is required to enumerate files", ErrInvalidRoot)
		}
		files, err = scanner.NewScanner(b.cfg).ScanDir(absRoot)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}

	paths := b.normalize(absRoot, files, &warnings)
	src := b.src
	if src == nil {
		src = source.NewFilesystem(absRoot)
	}
	b.logger.Debug("building graph", "root", absRoot, "files", len(paths), "workers", b.workers)

	// Stage 1: per-file scans, in input order.
	scans, err := fileproc.MapFiles(ctx, paths, func(psr *parser.Parser, file string) (models.FileScan, error) {
		return b.scanFile(ctx, psr, src, file), nil
	}, fileproc.Options{Workers: b.workers, OnProgress: b.onProgress})
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	// Stage 2: resolution against the complete file set.
	resolver := resolve.New(nil, paths, b.cfg.ResolveOptions())
	g := Link(paths, scans, resolver)

	res := &Result{
		Root:    absRoot,
		Files:   make([]models.SourceFile, 0, len(scans)),
		Graph:   g,
		Modules: BuildModules(g, b.cfg.Namer()),
		Scans:   make(map[string]models.FileScan, len(scans)),
	}
	for _, s := range scans {
		lang := parser.DetectLanguage(s.File)
		res.Files = append(res.Files, models.SourceFile{
			Path:     s.File,
			Language: string(lang),
			Family:   lang.Family(),
			Lines:    s.Lines,
		})
		res.Scans[s.File] = s
		warnings.Add(s.Warnings...)
	}
	res.Warnings = warnings.Sorted()
	res.Fingerprint = Fingerprint(g)

	b.logger.Debug("graph built",
		"files", len(res.Files),
		"edges", g.Forward.EdgeCount(),
		"modules", len(res.Modules.Modules),
		"warnings", len(res.Warnings),
	)
	return res, nil
}

func (b *Builder) checkRoot(root string) (string, error) {
	if root == "" && b.src != nil {
		return "", nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidRoot, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}
	return abs, nil
}

// normalize maps files to sorted, unique, project-relative slash paths.
func (b *Builder) normalize(absRoot string, files []string, warnings *models.WarningSet) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel := f
		if filepath.IsAbs(f) {
			if absRoot == "" {
				warnings.Add(models.Warnf(models.WarnIO, f, 0, "File outside project root: %s", f))
				continue
			}
			r, err := filepath.Rel(absRoot, f)
			if err != nil {
				warnings.Add(models.Warnf(models.WarnIO, f, 0, "File outside project root: %s", f))
				continue
			}
			rel = r
		}
		rel = path.Clean(filepath.ToSlash(rel))
		if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
			warnings.Add(models.Warnf(models.WarnIO, f, 0, "File outside project root: %s", f))
			continue
		}
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		out = append(out, rel)
	}
	sort.Strings(out)
	return out
}

// scanFile is the stage-one work for one file. It never fails: unreadable
// files yield an empty scan carrying an io warning.
func (b *Builder) scanFile(ctx context.Context, psr *parser.Parser, src source.ContentSource, file string) models.FileScan {
	scan := models.FileScan{File: file}

	content, truncated, err := source.ReadLimited(src, file, b.cfg.Scan.MaxLines)
	if err != nil {
		b.logger.Warn("unable to read file", "file", file, "error", err)
		scan.Warnings = append(scan.Warnings, models.Warnf(models.WarnIO, file, 0, "Unable to read file: %s", file))
		if err := b.cache.Invalidate(file); err != nil {
			b.logger.Debug("cache invalidate failed", "file", file, "error", err)
		}
		return scan
	}

	var hash string
	if b.cache.Enabled() {
		hash = cache.HashBytes(content)
		if cached, ok := b.cache.Lookup(file, hash); ok {
			b.logger.Debug("cache hit", "file", file)
			return cached
		}
	}

	family := parser.DetectFamily(file)
	scan.Lines = len(blocks.SplitLines(content))
	scan.Truncated = truncated
	if truncated {
		b.logger.Debug("file truncated", "file", file, "max_lines", b.cfg.Scan.MaxLines)
		scan.Warnings = append(scan.Warnings, models.Warnf(models.WarnTruncated, file, 0,
			"Large file truncated to first %d lines: %s", b.cfg.Scan.MaxLines, file))
	}
	scan.Imports = imports.Extract(file, content, family)
	if b.scanBlocks && family != models.FamilyUnknown {
		spans, warns := blocks.ScanWith(ctx, psr, file, content, family, b.cfg.BlockOptions())
		scan.Spans = spans
		scan.Warnings = append(scan.Warnings, warns...)
	}

	if hash != "" {
		if err := b.cache.Store(file, hash, scan); err != nil {
			b.logger.Debug("cache store failed", "file", file, "error", err)
		}
	}
	return scan
}

// Link resolves every reference of scans and returns the frozen graph over
// files. Unresolvable references are dropped, as are self-edges.
func Link(files []string, scans []models.FileScan, r *resolve.Resolver) *models.Graph {
	known := make(map[string]struct{}, len(files))
	for _, f := range files {
		known[f] = struct{}{}
	}

	var edges []models.Edge
	for _, s := range scans {
		for _, ref := range s.Imports {
			for _, target := range r.ResolveReference(ref) {
				if target == s.File {
					continue
				}
				if _, ok := known[target]; !ok {
					continue
				}
				edges = append(edges, models.Edge{From: s.File, To: target})
			}
		}
	}
	return NewGraph(files, edges)
}

// NewGraph freezes nodes and edges into a Graph. Every node and every edge
// endpoint becomes a key of both adjacency maps; edge lists are sorted and
// unique; self-edges are dropped.
func NewGraph(nodes []string, edges []models.Edge) *models.Graph {
	fwd := make(map[string]map[string]struct{}, len(nodes))
	rev := make(map[string]map[string]struct{}, len(nodes))
	touch := func(n string) {
		if _, ok := fwd[n]; !ok {
			fwd[n] = make(map[string]struct{})
			rev[n] = make(map[string]struct{})
		}
	}
	for _, n := range nodes {
		touch(n)
	}
	for _, e := range edges {
		touch(e.From)
		touch(e.To)
		if e.From == e.To {
			continue
		}
		fwd[e.From][e.To] = struct{}{}
		rev[e.To][e.From] = struct{}{}
	}
	return &models.Graph{Forward: freeze(fwd), Reverse: freeze(rev)}
}

func freeze(m map[string]map[string]struct{}) models.Adjacency {
	adj := make(models.Adjacency, len(m))
	for k, set := range m {
		list := make([]string, 0, len(set))
		for v := range set {
			list = append(list, v)
		}
		sort.Strings(list)
		adj[k] = list
	}
	return adj
}
