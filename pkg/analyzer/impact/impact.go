// Package impact predicts the effect of editing a set of files: which files
// depend on them, how risky the change is, and which tests should run.
package impact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/panbanda/reach/pkg/analyzer/graph"
	"github.com/panbanda/reach/pkg/analyzer/resolve"
	"github.com/panbanda/reach/pkg/config"
	"github.com/panbanda/reach/pkg/models"
	"github.com/panbanda/reach/pkg/source"
)

// MaxRecommendations caps the advice attached to a prediction.
const MaxRecommendations = 6

// Thresholds on direct dependents used by Classify.
const (
	criticalAbove = 10
	highAtLeast   = 5
	mediumAtLeast = 2
)

// Predictor computes impact predictions over a built graph.
type Predictor struct {
	cfg    *config.Config
	depth  int
	src    source.ContentSource
	tests  []string
	logger *slog.Logger
}

// Option is a functional option for configuring Predictor.
type Option func(*Predictor)

// WithConfig sets the configuration. Defaults to config.DefaultConfig().
func WithConfig(cfg *config.Config) Option {
	return func(p *Predictor) {
		if cfg != nil {
			p.cfg = cfg
		}
	}
}

// WithDepth overrides impact.depth.
func WithDepth(depth int) Option {
	return func(p *Predictor) {
		p.depth = depth
	}
}

// WithSource reads test contents from src instead of the project root.
func WithSource(src source.ContentSource) Option {
	return func(p *Predictor) {
		p.src = src
	}
}

// WithTests fixes the candidate test files instead of discovering them.
func WithTests(tests []string) Option {
	return func(p *Predictor) {
		p.tests = tests
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Predictor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPredictor creates a new impact predictor.
func NewPredictor(opts ...Option) *Predictor {
	p := &Predictor{
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.depth == 0 {
		p.depth = p.cfg.Impact.Depth
	}
	p.depth = max(p.depth, 1)
	return p
}

// Predict resolves targets against the project of res and predicts the
// impact of editing them. Targets that cannot be found are still reported,
// with a target warning, and simply have no dependents.
func (p *Predictor) Predict(ctx context.Context, res *graph.Result, targets []string) (*models.Impact, error) {
	if res == nil || res.Graph == nil {
		return nil, fmt.Errorf("predict impact: no graph")
	}

	var warnings models.WarningSet
	resolved := ResolveTargets(res.Root, res.Paths(), targets, p.cfg.ResolveOptions(), &warnings)
	p.logger.Debug("predicting impact", "targets", len(resolved), "depth", p.depth)

	out := &models.Impact{
		Targets:        resolved,
		DependencyTree: make(map[string]models.BlastRadius, len(resolved)),
	}

	allDirect := make(map[string]struct{})
	allIndirect := make(map[string]struct{})
	levels := make([]models.ImpactLevel, 0, len(resolved))
	signal := false
	for _, t := range resolved {
		br := graph.ComputeBlastRadius(res.Graph.Reverse, t, p.depth)
		out.DependencyTree[t] = br
		for _, d := range br.Direct {
			allDirect[d] = struct{}{}
		}
		for _, d := range br.Indirect {
			allIndirect[d] = struct{}{}
		}
		s := IsEntryOrConfig(t, p.cfg.Impact.Entrypoints, p.cfg.Impact.ConfigFiles)
		signal = signal || s
		levels = append(levels, Classify(len(br.Direct), s))
	}

	total := len(allDirect)
	for d := range allIndirect {
		if _, ok := allDirect[d]; !ok {
			total++
		}
	}
	out.Summary = models.ImpactSummary{
		Level:              OverallLevel(levels, signal, len(allDirect)),
		DirectDependents:   len(allDirect),
		IndirectDependents: len(allIndirect),
		TotalBlastRadius:   total,
	}

	scope := slices.Clone(resolved)
	for d := range allDirect {
		scope = append(scope, d)
	}
	sort.Strings(scope)
	scope = slices.Compact(scope)

	tests, err := p.candidateTests(res)
	if err != nil {
		return nil, err
	}
	contents, err := ReadTests(ctx, p.contentSource(res), tests, p.cfg.Workers())
	if err != nil {
		return nil, fmt.Errorf("predict impact: %w", err)
	}
	out.AffectedTests = FindAffectedTests(scope, tests, contents)
	out.Recommendations = Recommend(resolved, out.DependencyTree, out.AffectedTests, out.Summary.Level)
	out.Warnings = warnings.Sorted()

	p.logger.Debug("impact predicted",
		"level", out.Summary.Level,
		"direct", out.Summary.DirectDependents,
		"tests", len(out.AffectedTests),
	)
	return out, nil
}

func (p *Predictor) contentSource(res *graph.Result) source.ContentSource {
	if p.src != nil {
		return p.src
	}
	return source.NewFilesystem(res.Root)
}

func (p *Predictor) candidateTests(res *graph.Result) ([]string, error) {
	if p.tests != nil {
		return p.tests, nil
	}
	if res.Root == "" {
		return FilterTests(res.Paths()), nil
	}
	tests, err := CollectTests(res.Root, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("collect tests: %w", err)
	}
	return tests, nil
}

// ResolveTargets maps requested paths to project-relative files. A target
// is accepted when it exists below root, is a known file, or one of its
// extension and index candidates is known. Anything else is kept verbatim
// and reported. The result is sorted and unique.
func ResolveTargets(root string, known, targets []string, opts resolve.Options, warnings *models.WarningSet) []string {
	r := resolve.New(nil, known, opts)
	knownSet := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSet[k] = struct{}{}
	}

	var out []string
	for _, raw := range targets {
		norm := strings.ReplaceAll(strings.TrimSpace(raw), `\`, "/")
		if norm == "" {
			continue
		}
		if rel, ok := relativeTarget(root, norm); ok {
			if _, isKnown := knownSet[rel]; isKnown || existsUnder(root, rel) {
				out = append(out, rel)
				continue
			}
			if found, ok := r.Lookup(rel); ok {
				out = append(out, found)
				continue
			}
		}
		if _, ok := knownSet[norm]; ok {
			out = append(out, norm)
			continue
		}
		out = append(out, norm)
		warnings.Add(models.Warnf(models.WarnTarget, norm, 0, "Target file not found in project: %s", norm))
	}
	sort.Strings(out)
	return slices.Compact(out)
}

// relativeTarget converts target to a clean slash path below root.
func relativeTarget(root, target string) (string, bool) {
	rel := target
	if path.IsAbs(target) || filepath.IsAbs(target) {
		if root == "" {
			return "", false
		}
		r, err := filepath.Rel(root, filepath.FromSlash(target))
		if err != nil {
			return "", false
		}
		rel = filepath.ToSlash(r)
	}
	rel = path.Clean(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func existsUnder(root, rel string) bool {
	if root == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil && info.Mode().IsRegular()
}

// IsEntryOrConfig reports whether editing file is inherently critical:
// a known entry point, a configuration file, or anything under config/.
func IsEntryOrConfig(file string, entrypoints, configFiles []string) bool {
	lower := strings.ToLower(file)
	name := path.Base(lower)
	if slices.Contains(entrypoints, lower) || slices.Contains(configFiles, name) {
		return true
	}
	return strings.Contains(lower, "/config/") ||
		strings.HasPrefix(lower, "config/") ||
		strings.HasSuffix(lower, ".config.js") ||
		strings.HasSuffix(lower, ".config.ts")
}

// Classify grades one target by its direct dependent count.
func Classify(direct int, critical bool) models.ImpactLevel {
	switch {
	case critical || direct > criticalAbove:
		return models.ImpactCritical
	case direct >= highAtLeast:
		return models.ImpactHigh
	case direct >= mediumAtLeast:
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}

// OverallLevel combines per-target levels. Any entry or config signal makes
// the change critical; a combined direct count that alone rates high lifts
// a low or medium result to high.
func OverallLevel(levels []models.ImpactLevel, signal bool, totalDirect int) models.ImpactLevel {
	if len(levels) == 0 {
		return models.ImpactLow
	}
	level := models.ImpactLow
	for _, l := range levels {
		if l.Score() > level.Score() {
			level = l
		}
	}
	if signal {
		return models.ImpactCritical
	}
	if Classify(totalDirect, false).Score() >= models.ImpactHigh.Score() && level.Score() < models.ImpactHigh.Score() {
		return models.ImpactHigh
	}
	return level
}

var contractHints = []string{"/models/", "model", "schema", "interface"}

// Recommend produces review advice for a prediction, at most
// MaxRecommendations entries.
func Recommend(targets []string, tree map[string]models.BlastRadius, tests []string, level models.ImpactLevel) []string {
	var recs []string
	for _, t := range targets {
		if n := len(tree[t].Direct); n > 0 {
			recs = append(recs, fmt.Sprintf("%d direct dependents for `%s`; review dependent call sites before editing.", n, t))
		} else {
			recs = append(recs, fmt.Sprintf("No direct dependents found for `%s`; change risk appears localized.", t))
		}
	}

	if len(tests) > 0 {
		recs = append(recs, fmt.Sprintf("Run affected tests: %d test files identified.", len(tests)))
	} else {
		recs = append(recs, "No related tests were matched; consider running broader integration tests.")
	}

	if touchesContracts(targets) {
		recs = append(recs, "Consider whether this change affects API response shape or validation contracts.")
	}
	if level.Score() >= models.ImpactHigh.Score() {
		recs = append(recs, "High blast radius detected; stage the change behind focused regression verification.")
	}

	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

func touchesContracts(targets []string) bool {
	for _, t := range targets {
		lower := strings.ToLower(t)
		for _, hint := range contractHints {
			if strings.Contains(lower, hint) {
				return true
			}
		}
	}
	return false
}
