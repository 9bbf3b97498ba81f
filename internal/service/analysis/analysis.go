// Package analysis ties configuration, caching and the analyzers together
// for the command line and the MCP server.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/panbanda/reach/internal/cache"
	"github.com/panbanda/reach/internal/scanner"
	"github.com/panbanda/reach/internal/store"
	"github.com/panbanda/reach/internal/vcs"
	"github.com/panbanda/reach/pkg/analyzer/blocks"
	"github.com/panbanda/reach/pkg/analyzer/graph"
	"github.com/panbanda/reach/pkg/analyzer/impact"
	"github.com/panbanda/reach/pkg/analyzer/imports"
	"github.com/panbanda/reach/pkg/config"
	"github.com/panbanda/reach/pkg/models"
	"github.com/panbanda/reach/pkg/source"
)

// ErrNoTargets is returned when an impact prediction has nothing to predict.
var ErrNoTargets = errors.New("no target files")

// Service orchestrates analysis operations.
type Service struct {
	config  *config.Config
	opener  vcs.Opener
	logger  *slog.Logger
	noCache bool
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// WithLogger sets the logger handed to every analyzer.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithoutCache disables the per-file scan cache regardless of configuration.
func WithoutCache() Option {
	return func(s *Service) {
		s.noCache = true
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration in use.
func (s *Service) Config() *config.Config {
	return s.config
}

// GraphOptions configures a graph build.
type GraphOptions struct {
	// Files restricts the build to these paths. Nil enumerates the root.
	Files []string
	// Rev builds the graph from the files committed at this git revision
	// instead of the working tree.
	Rev        string
	Blocks     bool
	OnProgress func()
}

// BuildGraph builds the dependency graph of root.
func (s *Service) BuildGraph(ctx context.Context, root string, opts GraphOptions) (*graph.Result, error) {
	builderOpts := []graph.Option{
		graph.WithConfig(s.config),
		graph.WithLogger(s.logger),
		graph.WithCache(s.openCache(root, opts.Blocks)),
		graph.WithBlocks(opts.Blocks),
		graph.WithProgress(opts.OnProgress),
	}
	files := opts.Files
	if opts.Rev != "" {
		src, revFiles, err := s.revisionSource(root, opts.Rev)
		if err != nil {
			return nil, err
		}
		builderOpts = append(builderOpts, graph.WithSource(src))
		if files == nil {
			files = revFiles
		}
	}
	return graph.NewBuilder(builderOpts...).Build(ctx, root, files)
}

// revisionSource reads root as it was committed at rev. It returns the
// source files of root in that tree, relative to root.
func (s *Service) revisionSource(root, rev string) (source.ContentSource, []string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("revision %s: %w", rev, err)
	}
	repo, err := s.opener.PlainOpenWithDetect(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("revision %s: %w", rev, err)
	}
	tree, err := repo.Tree(rev)
	if err != nil {
		return nil, nil, fmt.Errorf("revision %s: %w", rev, err)
	}
	entries, err := tree.Entries()
	if err != nil {
		return nil, nil, fmt.Errorf("revision %s: %w", rev, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	sc := scanner.NewScanner(s.config)
	files := []string{}
	for _, f := range vcs.RelativeTo(repo.RepoPath(), absRoot, paths) {
		if sc.Accept(f) {
			files = append(files, f)
		}
	}

	prefix, err := filepath.Rel(repo.RepoPath(), absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("revision %s: %w", rev, err)
	}
	s.logger.Debug("revision tree", "rev", rev, "entries", len(entries), "files", len(files))
	return source.Sub(source.NewTree(tree), prefix), files, nil
}

// CacheStats reports the scan cache of root.
func (s *Service) CacheStats(root string) (*cache.Stats, error) {
	return s.openCache(root, false).GetStats()
}

// ClearCache removes every scan cache entry of root.
func (s *Service) ClearCache(root string) error {
	return s.openCache(root, false).Clear()
}

// openCache returns the scan cache for root, or a disabled cache when
// caching is off or the directory cannot be created.
func (s *Service) openCache(root string, withBlocks bool) *cache.Cache {
	if s.noCache || !s.config.Cache.Enabled {
		return cache.Disabled()
	}
	dir := s.config.Cache.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	c, err := cache.New(dir, s.config.Cache.TTL, true, graph.CacheVersion(s.config, withBlocks))
	if err != nil {
		s.logger.Warn("scan cache disabled", "dir", dir, "error", err)
		return cache.Disabled()
	}
	return c
}

// BlocksResult holds the block spans of a set of files.
type BlocksResult struct {
	Spans     []models.BlockSpan `json:"blocks" toon:"blocks"`
	Long      []models.BlockSpan `json:"long_blocks" toon:"long_blocks"`
	Threshold int                `json:"threshold" toon:"threshold"`
	Warnings  []models.Warning   `json:"warnings,omitempty" toon:"warnings,omitempty"`
}

// ScanBlocks locates the block spans of files below root, or of every
// source file when files is nil.
func (s *Service) ScanBlocks(ctx context.Context, root string, files []string, onProgress func()) (*BlocksResult, error) {
	res, err := s.BuildGraph(ctx, root, GraphOptions{Files: files, Blocks: true, OnProgress: onProgress})
	if err != nil {
		return nil, err
	}
	var spans []models.BlockSpan
	for _, f := range res.Files {
		spans = append(spans, res.Scans[f.Path].Spans...)
	}
	threshold := s.config.Scan.LongBlockLines
	return &BlocksResult{
		Spans:     spans,
		Long:      blocks.LongBlocks(spans, threshold),
		Threshold: threshold,
		Warnings:  res.Warnings,
	}, nil
}

// ImportsResult holds the import references of a set of files.
type ImportsResult struct {
	Imports  []models.ImportReference `json:"imports" toon:"imports"`
	Warnings []models.Warning         `json:"warnings,omitempty" toon:"warnings,omitempty"`
}

// ListImports extracts the import references of files below root.
func (s *Service) ListImports(ctx context.Context, root string, files []string, onProgress func()) (*ImportsResult, error) {
	res, err := s.BuildGraph(ctx, root, GraphOptions{Files: files, OnProgress: onProgress})
	if err != nil {
		return nil, err
	}
	var refs []models.ImportReference
	for _, f := range res.Files {
		refs = append(refs, res.Scans[f.Path].Imports...)
	}
	return &ImportsResult{Imports: imports.Dedupe(refs), Warnings: res.Warnings}, nil
}

// CyclesResult holds the module cycles of a graph and, when there are
// none, a dependency order of its modules.
type CyclesResult struct {
	Cycles []models.SCCGroup `json:"cycles" toon:"cycles"`
	Order  []string          `json:"order,omitempty" toon:"order,omitempty"`
}

// FindCycles detects circular module dependencies in res.
func FindCycles(res *graph.Result) *CyclesResult {
	out := &CyclesResult{Cycles: graph.FindCycles(res.Modules.Adjacency)}
	if len(out.Cycles) == 0 {
		// Without cycles the order is total and the error is always nil.
		out.Order, _ = graph.TopologicalOrder(res.Modules.Adjacency)
	}
	if out.Cycles == nil {
		out.Cycles = []models.SCCGroup{}
	}
	return out
}

// BlastRadiusResult is the blast radius of one file.
type BlastRadiusResult struct {
	models.BlastRadius
	Warnings []models.Warning `json:"warnings,omitempty" toon:"warnings,omitempty"`
}

// BlastRadius reports which files depend on target within depth hops.
// A depth below one uses the configured impact depth.
func (s *Service) BlastRadius(ctx context.Context, root, target string, depth int) (*BlastRadiusResult, error) {
	res, err := s.BuildGraph(ctx, root, GraphOptions{})
	if err != nil {
		return nil, err
	}
	if depth < 1 {
		depth = s.config.Impact.Depth
	}

	var warnings models.WarningSet
	resolved := impact.ResolveTargets(res.Root, res.Paths(), []string{target}, s.config.ResolveOptions(), &warnings)
	if len(resolved) == 0 {
		return nil, fmt.Errorf("blast radius: %w", ErrNoTargets)
	}
	return &BlastRadiusResult{
		BlastRadius: graph.ComputeBlastRadius(res.Graph.Reverse, resolved[0], depth),
		Warnings:    warnings.Sorted(),
	}, nil
}

// ImpactOptions configures an impact prediction.
type ImpactOptions struct {
	Targets []string
	Depth   int
	// Changed adds the files changed in the working tree to Targets.
	Changed bool
	// Since compares against a revision instead of the working tree.
	Since      string
	OnProgress func()
}

// PredictImpact predicts the effect of editing the target files of root.
func (s *Service) PredictImpact(ctx context.Context, root string, opts ImpactOptions) (*models.Impact, error) {
	targets := opts.Targets
	if opts.Changed || opts.Since != "" {
		changed, err := s.ChangedTargets(root, opts.Since)
		if err != nil {
			return nil, err
		}
		targets = append(targets, changed...)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("predict impact: %w", ErrNoTargets)
	}

	res, err := s.BuildGraph(ctx, root, GraphOptions{OnProgress: opts.OnProgress})
	if err != nil {
		return nil, err
	}
	p := impact.NewPredictor(
		impact.WithConfig(s.config),
		impact.WithDepth(opts.Depth),
		impact.WithLogger(s.logger),
	)
	return p.Predict(ctx, res, targets)
}

// ChangedTargets returns the source files of root that changed in git,
// relative to root. An empty since lists uncommitted changes; otherwise the
// files that differ between since and HEAD.
func (s *Service) ChangedTargets(root, since string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("changed files: %w", err)
	}
	repo, err := s.opener.PlainOpenWithDetect(absRoot)
	if err != nil {
		return nil, fmt.Errorf("changed files: %w", err)
	}

	var files []string
	if since == "" {
		files, err = repo.ChangedFiles()
	} else {
		files, err = repo.DiffFiles(since)
	}
	if err != nil {
		return nil, fmt.Errorf("changed files: %w", err)
	}

	sc := scanner.NewScanner(s.config)
	var out []string
	for _, f := range vcs.RelativeTo(repo.RepoPath(), absRoot, files) {
		if sc.Accept(f) {
			out = append(out, f)
		}
	}
	s.logger.Debug("changed targets", "repo", repo.RepoPath(), "changed", len(files), "targets", len(out))
	return out, nil
}

// ExportOptions configures a snapshot export.
type ExportOptions struct {
	// Keep prunes older snapshots of the same root down to this many. Zero keeps all.
	Keep int
	// Force saves a snapshot even when the latest one has the same digest.
	Force      bool
	OnProgress func()
}

// ExportResult describes a saved or reused snapshot.
type ExportResult struct {
	Database    string         `json:"database" toon:"database"`
	SnapshotID  int64          `json:"snapshot_id" toon:"snapshot_id"`
	Fingerprint string         `json:"fingerprint" toon:"fingerprint"`
	Digest      string         `json:"digest" toon:"digest"`
	Unchanged   bool           `json:"unchanged" toon:"unchanged"`
	Pruned      int64          `json:"pruned" toon:"pruned"`
	Rows        map[string]int `json:"rows" toon:"rows"`
}

// Export builds the graph of root and saves it as a snapshot in the SQLite
// database at dbPath.
func (s *Service) Export(ctx context.Context, root, dbPath string, opts ExportOptions) (*ExportResult, error) {
	res, err := s.BuildGraph(ctx, root, GraphOptions{Blocks: true, OnProgress: opts.OnProgress})
	if err != nil {
		return nil, err
	}

	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return nil, err
	}

	snap := store.FromResult(res, graph.FindCycles(res.Modules.Adjacency), s.now())
	out := &ExportResult{Database: dbPath, Fingerprint: res.Fingerprint, Digest: snap.Digest}
	latest, err := st.Latest(ctx, res.Root)
	switch {
	case err == nil && latest.Digest == snap.Digest && !opts.Force:
		s.logger.Debug("snapshot unchanged since last export", "snapshot", latest.ID)
		out.SnapshotID = latest.ID
		out.Unchanged = true
	case err == nil || errors.Is(err, store.ErrNoSnapshot):
		id, err := st.Save(ctx, snap)
		if err != nil {
			return nil, err
		}
		out.SnapshotID = id
	default:
		return nil, err
	}

	if opts.Keep > 0 {
		if out.Pruned, err = st.Prune(ctx, res.Root, opts.Keep); err != nil {
			return nil, err
		}
	}
	if out.Rows, err = st.Counts(ctx, out.SnapshotID); err != nil {
		return nil, err
	}
	return out, nil
}
