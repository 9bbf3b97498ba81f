package impact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/reach/pkg/config"
	"github.com/panbanda/reach/pkg/source"
)

func TestFindAffectedTests(t *testing.T) {
	tests := []struct {
		name     string
		changed  []string
		tests    []string
		contents map[string]string
		want     []string
	}{
		{
			name:    "matches test file name",
			changed: []string{"src/auth/login.ts"},
			tests:   []string{"src/auth/login.test.ts", "src/other/x.test.ts"},
			want:    []string{"src/auth/login.test.ts"},
		},
		{
			name:     "matches test content",
			changed:  []string{"api/handlers.py"},
			tests:    []string{"tests/test_api.py", "tests/test_db.py"},
			contents: map[string]string{"tests/test_api.py": "from api.handlers import route\n"},
			want:     []string{"tests/test_api.py"},
		},
		{
			name:    "stem before first dot",
			changed: []string{"src/button.styles.ts"},
			tests:   []string{"src/button.spec.tsx"},
			want:    []string{"src/button.spec.tsx"},
		},
		{
			name:     "falls back to sibling and __tests__ directory",
			changed:  []string{"lib/zz.ts"},
			tests:    []string{"lib/a.test.ts", "lib/__tests__/b.test.ts", "other/c.test.ts", "lib/deep/d.test.ts"},
			contents: map[string]string{"lib/a.test.ts": "describe('a')"},
			want:     []string{"lib/__tests__/b.test.ts", "lib/a.test.ts"},
		},
		{
			name:    "no fallback once anything matched",
			changed: []string{"lib/user.ts"},
			tests:   []string{"lib/a.test.ts", "spec/user.test.ts"},
			want:    []string{"spec/user.test.ts"},
		},
		{
			name:    "nothing changed",
			changed: nil,
			tests:   []string{"a.test.ts"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindAffectedTests(tt.changed, tt.tests, tt.contents)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTestTokens(t *testing.T) {
	assert.Equal(t, []string{"user.test", "user", "src/user.test"}, testTokens("src/User.test.ts"))
	assert.Equal(t, []string{"makefile", "makefile", "makefile"}, testTokens("Makefile"))
	assert.Equal(t, []string{".env", ".env"}, testTokens(".env"))
}

func TestCollectTests(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"src/a.ts",
		"src/a.test.ts",
		"node_modules/pkg/x.test.js",
		"tests/test_b.py",
		"tests/conftest.py",
	} {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	cfg := config.DefaultConfig()
	cfg.Scan.IncludeTests = false

	got, err := CollectTests(root, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.test.ts", "tests/conftest.py", "tests/test_b.py"}, got)
	assert.False(t, cfg.Scan.IncludeTests, "caller config must not change")
}

func TestFilterTests(t *testing.T) {
	got := FilterTests([]string{"b.spec.ts", "a.ts", "test_x.py", "a.test.js"})
	assert.Equal(t, []string{"a.test.js", "b.spec.ts", "test_x.py"}, got)
	assert.Empty(t, FilterTests(nil))
}

func TestReadTests(t *testing.T) {
	src := source.MapSource{"a.test.ts": "Describe('Cart')\n"}

	got, err := ReadTests(context.Background(), src, []string{"a.test.ts", "missing.test.ts"}, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"a.test.ts":       "describe('cart')\n",
		"missing.test.ts": "",
	}, got)
}

func TestReadTestsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadTests(ctx, source.MapSource{}, []string{"a.test.ts"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
