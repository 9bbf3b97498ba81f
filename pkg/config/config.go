package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/panbanda/reach/pkg/analyzer/blocks"
	"github.com/panbanda/reach/pkg/analyzer/resolve"
)

// ErrInvalidConfig is returned when a configuration fails schema or
// semantic validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration options for reach.
type Config struct {
	Scan    ScanConfig    `koanf:"scan" toml:"scan" yaml:"scan" json:"scan"`
	Resolve ResolveConfig `koanf:"resolve" toml:"resolve" yaml:"resolve" json:"resolve"`
	Modules ModulesConfig `koanf:"modules" toml:"modules" yaml:"modules" json:"modules"`
	Impact  ImpactConfig  `koanf:"impact" toml:"impact" yaml:"impact" json:"impact"`
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude" json:"exclude"`
	Cache   CacheConfig   `koanf:"cache" toml:"cache" yaml:"cache" json:"cache"`
	Output  OutputConfig  `koanf:"output" toml:"output" yaml:"output" json:"output"`
}

// ScanConfig bounds per-file work.
type ScanConfig struct {
	MaxLines       int  `koanf:"max_lines" toml:"max_lines" yaml:"max_lines" json:"max_lines"`
	BlockWindow    int  `koanf:"block_window" toml:"block_window" yaml:"block_window" json:"block_window"`
	FallbackCap    int  `koanf:"fallback_cap" toml:"fallback_cap" yaml:"fallback_cap" json:"fallback_cap"`
	LongBlockLines int  `koanf:"long_block_lines" toml:"long_block_lines" yaml:"long_block_lines" json:"long_block_lines"`
	Workers        int  `koanf:"workers" toml:"workers" yaml:"workers" json:"workers"` // 0 = 2x NumCPU
	IncludeTests   bool `koanf:"include_tests" toml:"include_tests" yaml:"include_tests" json:"include_tests"`
}

// ResolveConfig controls import specifier resolution.
type ResolveConfig struct {
	Extensions    []string `koanf:"extensions" toml:"extensions" yaml:"extensions" json:"extensions"`
	AliasPrefixes []string `koanf:"alias_prefixes" toml:"alias_prefixes" yaml:"alias_prefixes" json:"alias_prefixes"`
	SourceRoots   []string `koanf:"source_roots" toml:"source_roots" yaml:"source_roots" json:"source_roots"`
	SkipSchemes   []string `koanf:"skip_schemes" toml:"skip_schemes" yaml:"skip_schemes" json:"skip_schemes"`
}

// ModulesConfig controls how files are grouped into modules.
type ModulesConfig struct {
	Roles      []string `koanf:"roles" toml:"roles" yaml:"roles" json:"roles"`
	Containers []string `koanf:"containers" toml:"containers" yaml:"containers" json:"containers"`
}

// ImpactConfig tunes change-impact prediction.
type ImpactConfig struct {
	Depth       int      `koanf:"depth" toml:"depth" yaml:"depth" json:"depth"`
	Entrypoints []string `koanf:"entrypoints" toml:"entrypoints" yaml:"entrypoints" json:"entrypoints"`
	ConfigFiles []string `koanf:"config_files" toml:"config_files" yaml:"config_files" json:"config_files"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Dirs      []string `koanf:"dirs" toml:"dirs" yaml:"dirs" json:"dirs"`
	Patterns  []string `koanf:"patterns" toml:"patterns" yaml:"patterns" json:"patterns"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore" json:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" yaml:"enabled" json:"enabled"`
	Dir     string `koanf:"dir" toml:"dir" yaml:"dir" json:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" yaml:"ttl" json:"ttl"` // hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format" json:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color" yaml:"color" json:"color"`
}

// DefaultEntrypoints are files whose edits are always treated as critical.
var DefaultEntrypoints = []string{
	"src/index.js", "src/index.ts", "src/main.js", "src/main.ts",
	"index.js", "index.ts", "main.py", "app.py", "server.js", "server.ts",
}

// DefaultConfigFiles are project configuration file names.
var DefaultConfigFiles = []string{
	"package.json", "tsconfig.json", "pyproject.toml", "requirements.txt",
	".env", ".env.local", "vite.config.js", "vite.config.ts",
	"webpack.config.js", "next.config.js", "next.config.mjs",
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	ro := resolve.DefaultOptions()
	return &Config{
		Scan: ScanConfig{
			MaxLines:       2000,
			BlockWindow:    blocks.DefaultWindow,
			FallbackCap:    blocks.DefaultFallbackCap,
			LongBlockLines: blocks.DefaultLongBlockLines,
			IncludeTests:   true,
		},
		Resolve: ResolveConfig{
			Extensions:    ro.Extensions,
			AliasPrefixes: ro.AliasPrefixes,
			SourceRoots:   ro.SourceRoots,
			SkipSchemes:   ro.SkipSchemes,
		},
		Modules: ModulesConfig{
			Roles:      append([]string(nil), resolve.DefaultRoles...),
			Containers: append([]string(nil), resolve.DefaultContainers...),
		},
		Impact: ImpactConfig{
			Depth:       2,
			Entrypoints: append([]string(nil), DefaultEntrypoints...),
			ConfigFiles: append([]string(nil), DefaultConfigFiles...),
		},
		Exclude: ExcludeConfig{
			Dirs: []string{
				".git",
				".reach",
				"node_modules",
				"dist",
				"build",
				"__pycache__",
				".next",
			},
			Patterns: []string{
				"*.min.js",
				"*.d.ts",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".reach/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// LoadResult is a loaded configuration and the file it came from.
type LoadResult struct {
	Config *Config
	Source string // empty when defaults were used
}

type loadOptions struct {
	path       string
	searchDirs []string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads an explicit file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithSearchDirs overrides the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) { o.searchDirs = dirs }
}

// ConfigNames are the file names searched for, in order.
var ConfigNames = []string{
	"reach.toml",
	"reach.yaml",
	"reach.yml",
	"reach.json",
	".reach.toml",
	".reach.yaml",
	".reach.yml",
	".reach.json",
}

// LoadConfig loads the explicit path, or the first config found in the search
// directories, or the defaults. A file that exists but fails to load or
// validate is an error.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{searchDirs: []string{".", ".reach"}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	if path := Find(o.searchDirs...); path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: path}, nil
	}
	return &LoadResult{Config: DefaultConfig()}, nil
}

// Find returns the first config file present in dirs.
func Find(dirs ...string) string {
	for _, dir := range dirs {
		for _, name := range ConfigNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := validateSchema(k.Raw()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	res, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return res.Config
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// Validate performs semantic checks the schema cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Scan.MaxLines < 1 {
		errs = append(errs, fmt.Errorf("scan.max_lines must be positive, got %d", c.Scan.MaxLines))
	}
	if c.Scan.BlockWindow < 1 {
		errs = append(errs, fmt.Errorf("scan.block_window must be positive, got %d", c.Scan.BlockWindow))
	}
	if c.Scan.FallbackCap < 1 {
		errs = append(errs, fmt.Errorf("scan.fallback_cap must be positive, got %d", c.Scan.FallbackCap))
	}
	if c.Scan.Workers < 0 {
		errs = append(errs, fmt.Errorf("scan.workers must not be negative, got %d", c.Scan.Workers))
	}
	if c.Impact.Depth < 1 {
		errs = append(errs, fmt.Errorf("impact.depth must be at least 1, got %d", c.Impact.Depth))
	}
	for _, ext := range c.Resolve.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("resolve.extensions entry %q must start with a dot", ext))
		}
	}
	for _, p := range c.Exclude.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			errs = append(errs, fmt.Errorf("exclude.patterns entry %q: %w", p, err))
		}
	}
	switch c.Output.Format {
	case "text", "json", "markdown", "toon":
	default:
		errs = append(errs, fmt.Errorf("output.format %q is not one of text, json, markdown, toon", c.Output.Format))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Workers returns the configured worker count, defaulting to 2x NumCPU.
func (c *Config) Workers() int {
	if c.Scan.Workers > 0 {
		return c.Scan.Workers
	}
	return runtime.NumCPU() * 2
}

// BlockOptions returns the curly-scan options.
func (c *Config) BlockOptions() blocks.Options {
	return blocks.Options{Window: c.Scan.BlockWindow, FallbackCap: c.Scan.FallbackCap}
}

// ResolveOptions returns the resolver options.
func (c *Config) ResolveOptions() resolve.Options {
	return resolve.Options{
		Extensions:    c.Resolve.Extensions,
		AliasPrefixes: c.Resolve.AliasPrefixes,
		SourceRoots:   c.Resolve.SourceRoots,
		SkipSchemes:   c.Resolve.SkipSchemes,
	}
}

// Namer returns the module namer for the configured roles and containers.
func (c *Config) Namer() *resolve.Namer {
	return resolve.NewNamer(c.Modules.Roles, c.Modules.Containers)
}

// ShouldExclude checks if a project-relative, slash-separated path should be
// excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	path = filepath.ToSlash(path)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, "/"+dir+"/") || strings.HasPrefix(path, dir+"/") {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// IsExcludedDir reports whether a directory name is excluded outright.
func (c *Config) IsExcludedDir(name string) bool {
	for _, dir := range c.Exclude.Dirs {
		if name == dir {
			return true
		}
	}
	return false
}
