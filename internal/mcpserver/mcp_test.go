package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/reach/internal/output"
	"github.com/panbanda/reach/internal/service/analysis"
	"github.com/panbanda/reach/pkg/config"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/models/user.ts":   "import { get } from '../services/user'\n\nexport function load(id) {\n  return id\n}\n",
		"src/services/user.ts": "import { load } from '../models/user'\n\nexport function get(id) {\n  return load(id)\n}\n",
		"src/app.ts":           "import { get } from './services/user'\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func testService() *analysis.Service {
	return analysis.New(analysis.WithConfig(config.DefaultConfig()), analysis.WithoutCache())
}

// connect starts s on an in-memory transport and returns a client session.
func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverT, clientT := mcp.NewInMemoryTransports()

	ss, err := s.Connect(ctx, serverT)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callText(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", res.Content[0])
	return text.Text, res.IsError
}

func TestServerCreation(t *testing.T) {
	server := NewServer("1.0.0-test", testService())
	require.NotNil(t, server)
	assert.NotNil(t, server.server)
	assert.NotNil(t, server.svc)
}

func TestServerCreationDefaults(t *testing.T) {
	server := NewServer("", nil)
	require.NotNil(t, server)
	assert.NotNil(t, server.svc)
}

func TestListTools(t *testing.T) {
	cs := connect(t, NewServer("test", testService()))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		assert.Contains(t, tool.Description, "USE WHEN:", tool.Name)
		assert.Contains(t, tool.Description, "INTERPRETING RESULTS:", tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"scan_blocks", "list_imports", "analyze_graph", "find_cycles", "blast_radius", "predict_impact",
	}, names)
}

func TestCallFindCycles(t *testing.T) {
	root := writeProject(t)
	cs := connect(t, NewServer("test", testService()))

	text, isErr := callText(t, cs, "find_cycles", map[string]any{"root": root, "format": "json"})
	require.False(t, isErr, text)

	var data output.CyclesData
	require.NoError(t, json.Unmarshal([]byte(text), &data))
	require.Len(t, data.Cycles, 1)
	assert.Equal(t, []string{"models", "services"}, []string(data.Cycles[0]))
}

func TestCallBlastRadius(t *testing.T) {
	root := writeProject(t)
	cs := connect(t, NewServer("test", testService()))

	text, isErr := callText(t, cs, "blast_radius", map[string]any{
		"root":   root,
		"file":   "src/services/user.ts",
		"depth":  1,
		"format": "json",
	})
	require.False(t, isErr, text)

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &data))
	assert.Equal(t, "src/services/user.ts", data["target"])
	assert.ElementsMatch(t, []any{"src/app.ts", "src/models/user.ts"}, data["direct"])
}

func TestCallScanBlocksDefaultsToTOON(t *testing.T) {
	root := writeProject(t)
	cs := connect(t, NewServer("test", testService()))

	text, isErr := callText(t, cs, "scan_blocks", map[string]any{"root": root, "files": []string{"src/models/user.ts"}})
	require.False(t, isErr, text)
	assert.Contains(t, text, "load")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(text), "{"), "expected TOON, got JSON")
}

func TestCallPredictImpactMarkdown(t *testing.T) {
	root := writeProject(t)
	cs := connect(t, NewServer("test", testService()))

	text, isErr := callText(t, cs, "predict_impact", map[string]any{
		"root":   root,
		"files":  []string{"src/models/user.ts"},
		"format": "markdown",
	})
	require.False(t, isErr, text)
	assert.True(t, strings.HasPrefix(text, "# Impact Prediction"))
}

func TestCallPredictImpactNoTargets(t *testing.T) {
	root := writeProject(t)
	cs := connect(t, NewServer("test", testService()))

	text, isErr := callText(t, cs, "predict_impact", map[string]any{"root": root})
	assert.True(t, isErr)
	assert.Contains(t, text, "no files given")
}

func TestCallInvalidRoot(t *testing.T) {
	cs := connect(t, NewServer("test", testService()))

	text, isErr := callText(t, cs, "analyze_graph", map[string]any{"root": filepath.Join(t.TempDir(), "missing")})
	assert.True(t, isErr)
	assert.True(t, strings.HasPrefix(text, "Error: "))
}

func TestHandleBlastRadiusRequiresFile(t *testing.T) {
	s := NewServer("test", testService())

	res, _, err := s.handleBlastRadius(context.Background(), nil, BlastRadiusInput{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetFormat(t *testing.T) {
	tests := []struct {
		in   string
		want output.Format
	}{
		{"", output.FormatTOON},
		{"toon", output.FormatTOON},
		{"json", output.FormatJSON},
		{"markdown", output.FormatMarkdown},
		{"md", output.FormatMarkdown},
		{"text", output.FormatTOON},
	}
	for _, tt := range tests {
		if got := getFormat(AnalyzeInput{Format: tt.in}); got != tt.want {
			t.Errorf("getFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetRoot(t *testing.T) {
	assert.Equal(t, ".", getRoot(AnalyzeInput{}))
	assert.Equal(t, "/src", getRoot(AnalyzeInput{Root: "/src"}))
}

func TestLoadPrompts(t *testing.T) {
	prompts := loadPrompts()
	require.NotEmpty(t, prompts)

	for _, p := range prompts {
		t.Run(p.Name, func(t *testing.T) {
			assert.NotEmpty(t, p.Description)
			assert.NotEmpty(t, p.Body)
			assert.False(t, strings.HasPrefix(p.Body, "---"))
		})
	}
}

func TestListAndGetPrompt(t *testing.T) {
	cs := connect(t, NewServer("test", testService()))
	ctx := context.Background()

	list, err := cs.ListPrompts(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, p := range list.Prompts {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "change-impact")

	res, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      "change-impact",
		Arguments: map[string]string{"files": "src/a.ts"},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "[src/a.ts]")
	assert.Contains(t, text, "depth 2")
	assert.NotContains(t, text, "{{")
}

func TestParseFrontmatter(t *testing.T) {
	fm, body, ok := parseFrontmatter([]byte("---\ndescription: hi\narguments:\n  - name: files\n    required: true\n---\n\nBody {{files}}\n"))
	require.True(t, ok)
	assert.Equal(t, "hi", fm.Description)
	require.Len(t, fm.Arguments, 1)
	assert.True(t, fm.Arguments[0].Required)
	assert.Equal(t, "Body {{files}}\n", body)

	_, _, ok = parseFrontmatter([]byte("no frontmatter"))
	assert.False(t, ok)

	_, _, ok = parseFrontmatter([]byte("---\ndescription: [\n---\nbody"))
	assert.False(t, ok)
}

func TestSubstituteArg(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		args       map[string]string
		defaultVal string
		expected   string
	}{
		{"use provided value", "depth {{depth}} hops", map[string]string{"depth": "3"}, "2", "depth 3 hops"},
		{"use default when missing", "depth {{depth}} hops", map[string]string{}, "2", "depth 2 hops"},
		{"use default when empty", "depth {{depth}} hops", map[string]string{"depth": ""}, "2", "depth 2 hops"},
		{"nil args", "depth {{depth}} hops", nil, "2", "depth 2 hops"},
		{"no placeholder unchanged", "no placeholder here", map[string]string{"depth": "3"}, "2", "no placeholder here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := substituteArg(tt.text, "depth", tt.args, tt.defaultVal); got != tt.expected {
				t.Errorf("substituteArg() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("v1.2.3")
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "io.github.panbanda/reach", m.Name)
	assert.Equal(t, "1.2.3", m.Version)
	require.Len(t, m.Packages, 1)
	assert.Equal(t, "ghcr.io/panbanda/reach:1.2.3", m.Packages[0].Identifier)
	assert.Equal(t, "stdio", m.Packages[0].Transport.Type)

	require.Len(t, m.Packages[0].EnvironmentVariables, 1)
	assert.Equal(t, "REACH_CONFIG", m.Packages[0].EnvironmentVariables[0].Name)

	cat, ok := m.Meta[publisherKey]
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"break-cycles", "change-impact", "long-blocks"}, cat.Prompts)
	for _, tool := range cat.Tools {
		assert.NotEmpty(t, tool.Summary, tool.Name)
		assert.NotContains(t, tool.Summary, "\n")
	}
}

func TestManifestVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "0.0.0"},
		{"v1.2.3", "1.2.3"},
		{"1.2.3-rc.1", "1.2.3-rc.1"},
		{"dev", "0.0.0-dev"},
	}
	for _, tt := range tests {
		if got := manifestVersion(tt.in); got != tt.want {
			t.Errorf("manifestVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestManifestListsRegisteredTools(t *testing.T) {
	cs := connect(t, NewServer("test", testService()))
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	registered := make(map[string]string)
	for _, tool := range res.Tools {
		registered[tool.Name] = tool.Description
	}
	require.Len(t, toolCatalog, len(registered))
	for _, entry := range catalog().Tools {
		desc, ok := registered[entry.Name]
		require.True(t, ok, entry.Name)
		assert.True(t, strings.HasPrefix(desc, entry.Summary), entry.Name)
	}
}
