package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/services/user.ts", "services"},
		{"src/Controllers/auth.ts", "controllers"},
		{"server/api/middleware/auth.js", "middlewares"},
		{"src/feature/hooks/useThing.ts", "hooks"},
		{"src/billing/invoice.ts", "billing"},
		{"frontend/dashboard/App.tsx", "dashboard"},
		{"src/index.ts", "index.ts"},
		{"scripts/deploy.py", "scripts"},
		{"README.md", "readme.md"},
		{"src", "src"},
		{"", "root"},
		{"./", "root"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ModuleName(tt.path))
		})
	}
}

func TestNamer_Custom(t *testing.T) {
	n := NewNamer([]string{"domain"}, []string{"pkg"})

	assert.Equal(t, "domain", n.ModuleName("pkg/x/domain/a.go"))
	assert.Equal(t, "x", n.ModuleName("pkg/x/a.go"))
	assert.Equal(t, "services", n.ModuleName("services/a.go"))
}
