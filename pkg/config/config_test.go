package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if cfg.Scan.MaxLines != 2000 {
		t.Errorf("Scan.MaxLines = %d, want 2000", cfg.Scan.MaxLines)
	}
	if cfg.Scan.BlockWindow != 2000 {
		t.Errorf("Scan.BlockWindow = %d, want 2000", cfg.Scan.BlockWindow)
	}
	if cfg.Scan.FallbackCap != 50 {
		t.Errorf("Scan.FallbackCap = %d, want 50", cfg.Scan.FallbackCap)
	}
	if !cfg.Scan.IncludeTests {
		t.Error("Scan.IncludeTests should be true by default")
	}
	if cfg.Impact.Depth != 2 {
		t.Errorf("Impact.Depth = %d, want 2", cfg.Impact.Depth)
	}
	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	assert.Contains(t, cfg.Resolve.Extensions, ".ts")
	assert.Contains(t, cfg.Resolve.Extensions, ".py")
	assert.Contains(t, cfg.Modules.Roles, "middleware")
	assert.Contains(t, cfg.Impact.ConfigFiles, "package.json")
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigIsIndependent(t *testing.T) {
	a := DefaultConfig()
	a.Modules.Roles[0] = "mutated"
	a.Impact.Entrypoints[0] = "mutated"

	b := DefaultConfig()
	assert.NotEqual(t, "mutated", b.Modules.Roles[0])
	assert.NotEqual(t, "mutated", b.Impact.Entrypoints[0])
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "reach.toml", `
[scan]
max_lines = 500
workers = 4

[resolve]
alias_prefixes = ["#/"]

[impact]
depth = 3

[exclude]
dirs = ["vendor", "custom_exclude"]

[output]
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	if cfg.Scan.MaxLines != 500 {
		t.Errorf("Scan.MaxLines = %d, want 500", cfg.Scan.MaxLines)
	}
	if cfg.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", cfg.Workers())
	}
	if cfg.Impact.Depth != 3 {
		t.Errorf("Impact.Depth = %d, want 3", cfg.Impact.Depth)
	}
	assert.Equal(t, []string{"#/"}, cfg.Resolve.AliasPrefixes)
	assert.Equal(t, []string{"vendor", "custom_exclude"}, cfg.Exclude.Dirs)
	assert.Equal(t, "json", cfg.Output.Format)
	// Untouched sections keep their defaults.
	assert.Equal(t, 50, cfg.Scan.FallbackCap)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "reach.yaml", `
scan:
  block_window: 300
modules:
  roles: [handlers, services]
output:
  format: markdown
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Scan.BlockWindow)
	assert.Equal(t, []string{"handlers", "services"}, cfg.Modules.Roles)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.Equal(t, "handlers", cfg.Namer().ModuleName("src/handlers/user.ts"))
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "reach.json", `{
  "impact": {"depth": 5},
  "cache": {"enabled": false},
  "output": {"format": "toon"}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Impact.Depth)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "toon", cfg.Output.Format)
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/reach.toml")
	if err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidSyntax(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "reach.toml", "[scan\ninvalid toml")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestLoadSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown section", "reach.toml", "[analysis]\ncomplexity = true\n"},
		{"unknown key", "reach.toml", "[scan]\nmax_line = 10\n"},
		{"zero max lines", "reach.toml", "[scan]\nmax_lines = 0\n"},
		{"wrong type", "reach.yaml", "impact:\n  depth: deep\n"},
		{"bad format", "reach.json", `{"output": {"format": "html"}}`},
		{"extension without dot", "reach.toml", "[resolve]\nextensions = [\"ts\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.file, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "error should wrap ErrInvalidConfig: %v", err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.Workers = -1
	cfg.Impact.Depth = 0
	cfg.Exclude.Patterns = []string{"[unclosed"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "scan.workers")
	assert.Contains(t, err.Error(), "impact.depth")
	assert.Contains(t, err.Error(), "exclude.patterns")
}

func TestSchemaCompiles(t *testing.T) {
	sch, err := Schema()
	require.NoError(t, err)
	require.NotNil(t, sch)
	assert.NotEmpty(t, SchemaJSON())
}

func TestLoadConfigSearch(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".reach/reach.yml", "impact:\n  depth: 4\n")

	res, err := LoadConfig(WithSearchDirs(dir, filepath.Join(dir, ".reach")))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".reach", "reach.yml"), res.Source)
	assert.Equal(t, 4, res.Config.Impact.Depth)
}

func TestLoadConfigPrefersEarlierDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "reach.toml", "[impact]\ndepth = 7\n")
	writeConfig(t, dir, ".reach/reach.toml", "[impact]\ndepth = 9\n")

	res, err := LoadConfig(WithSearchDirs(dir, filepath.Join(dir, ".reach")))
	require.NoError(t, err)
	assert.Equal(t, 7, res.Config.Impact.Depth)
}

func TestLoadConfigDefaults(t *testing.T) {
	res, err := LoadConfig(WithSearchDirs(t.TempDir()))
	require.NoError(t, err)
	assert.Empty(t, res.Source)
	assert.Equal(t, DefaultConfig(), res.Config)
}

func TestLoadConfigExplicitPathError(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "custom.toml", "[scan]\nmax_lines = -5\n")

	_, err := LoadConfig(WithPath(path))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadOrDefault(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)

	writeConfig(t, tmpDir, "reach.toml", "[scan]\nlong_block_lines = 99\n")
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	cfg := LoadOrDefault()
	if cfg.Scan.LongBlockLines != 99 {
		t.Errorf("LoadOrDefault() should load from file, got LongBlockLines=%d", cfg.Scan.LongBlockLines)
	}
}

func TestTOMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Impact.Depth = 6
	cfg.Exclude.Dirs = []string{"vendor"}

	content, err := toml.Marshal(cfg)
	require.NoError(t, err)

	path := writeConfig(t, t.TempDir(), "reach.toml", string(content))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDerivedOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.BlockWindow = 120
	cfg.Scan.FallbackCap = 12

	bo := cfg.BlockOptions()
	assert.Equal(t, 120, bo.Window)
	assert.Equal(t, 12, bo.FallbackCap)

	ro := cfg.ResolveOptions()
	assert.Equal(t, cfg.Resolve.Extensions, ro.Extensions)
	assert.Equal(t, cfg.Resolve.SkipSchemes, ro.SkipSchemes)

	cfg.Scan.Workers = 0
	assert.Greater(t, cfg.Workers(), 0)
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		path string
		want bool
	}{
		{"node_modules/pkg/index.js", true},
		{"web/node_modules/pkg/index.js", true},
		{".git/objects/file", true},
		{"dist/bundle.js", true},
		{"app.min.js", true},
		{"types/api.d.ts", true},
		{"src/app.ts", false},
		{"lib/distance.py", false},
		{"build_tools.py", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := cfg.ShouldExclude(tt.path)
			if got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsExcludedDir(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.IsExcludedDir("node_modules"))
	assert.True(t, cfg.IsExcludedDir("__pycache__"))
	assert.False(t, cfg.IsExcludedDir("src"))
}
