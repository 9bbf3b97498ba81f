package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/reach/pkg/analyzer/graph"
	"github.com/panbanda/reach/pkg/models"
)

func render(t *testing.T, format Format, r Renderable) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewWriterFormatter(format, &buf, false).Output(r))
	return buf.String()
}

func sampleImpact() *models.Impact {
	return &models.Impact{
		Targets: []string{"src/models/user.ts"},
		Summary: models.ImpactSummary{
			Level:              models.ImpactMedium,
			DirectDependents:   2,
			IndirectDependents: 1,
			TotalBlastRadius:   3,
		},
		DependencyTree: map[string]models.BlastRadius{
			"src/models/user.ts": {
				Target:   "src/models/user.ts",
				Depth:    2,
				Direct:   []string{"src/api/users.ts", "src/services/user.ts"},
				Indirect: []string{"src/app.ts"},
			},
		},
		AffectedTests:   []string{"src/services/user.test.ts"},
		Recommendations: []string{"Run affected tests: 1 test files identified."},
		Warnings: []models.Warning{
			models.Warnf(models.WarnTarget, "gone.ts", 0, "Target file not found in project: gone.ts"),
		},
	}
}

func TestImpactText(t *testing.T) {
	out := render(t, FormatText, Impact(sampleImpact()))

	for _, want := range []string{
		"Impact Prediction",
		"Level:      MEDIUM",
		"Targets:    src/models/user.ts",
		"Total:      3",
		"src/services/user.ts",
		"indirect",
		"src/services/user.test.ts",
		"* Run affected tests: 1 test files identified.",
		"Target file not found in project: gone.ts",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("impact text missing %q in:\n%s", want, out)
		}
	}
}

func TestImpactMarkdown(t *testing.T) {
	out := render(t, FormatMarkdown, Impact(sampleImpact()))

	assert.True(t, strings.HasPrefix(out, "# Impact Prediction\n\n- **Level:** medium\n"))
	assert.Contains(t, out, "| src/models/user.ts | direct | src/api/users.ts |")
	assert.Contains(t, out, "## Recommendations\n\n- Run affected tests")
	assert.Contains(t, out, "## Warnings")
}

func TestImpactJSON(t *testing.T) {
	out := render(t, FormatJSON, Impact(sampleImpact()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "impact_summary")
	assert.Contains(t, decoded, "dependency_tree")
	assert.Equal(t, []any{"src/services/user.test.ts"}, decoded["affected_tests"])
}

func TestBlocksView(t *testing.T) {
	spans := []models.BlockSpan{
		{File: "a.ts", Name: "run", StartLine: 1, EndLine: 80},
		{File: "a.ts", Name: "stop", StartLine: 82, EndLine: 85},
		{File: "a.ts", Name: "broken", StartLine: 90},
	}
	long := spans[:1]

	out := render(t, FormatText, Blocks(spans, long, nil, 50))
	assert.Contains(t, out, "> 50")
	assert.Contains(t, out, "broken")
	assert.NotContains(t, out, "Warnings")

	var data BlocksData
	require.NoError(t, json.Unmarshal([]byte(render(t, FormatJSON, Blocks(spans, long, nil, 50))), &data))
	assert.Len(t, data.Blocks, 3)
	assert.Len(t, data.Long, 1)
}

func TestImportsView(t *testing.T) {
	refs := []models.ImportReference{
		{File: "a.ts", Specifier: "./b", Names: []string{"x", "y"}, Line: 3, Kind: models.ImportFrom},
	}
	warns := []models.Warning{models.Warnf(models.WarnIO, "c.ts", 0, "Unable to read file: c.ts")}

	out := render(t, FormatMarkdown, Imports(refs, warns))
	assert.Contains(t, out, "| a.ts | 3 | import | ./b | x, y |")
	assert.Contains(t, out, "| io | c.ts |  | Unable to read file: c.ts |")

	refs = append(refs,
		models.ImportReference{File: "a.ts", Specifier: "react", Line: 1, Kind: models.ImportFrom},
		models.ImportReference{File: "a.ts", Specifier: "./b", Line: 5, Kind: models.ImportSideEffect},
	)
	var data ImportsData
	require.NoError(t, json.Unmarshal([]byte(render(t, FormatJSON, Imports(refs, nil))), &data))
	assert.Len(t, data.Imports, 3)
	assert.Equal(t, []string{"./b", "react"}, data.Modules)
}

func TestGraphView(t *testing.T) {
	g := graph.NewGraph([]string{"src/models/user.ts", "src/services/user.ts"}, []models.Edge{
		{From: "src/services/user.ts", To: "src/models/user.ts"},
	})
	res := &graph.Result{
		Root:        "/project",
		Graph:       g,
		Modules:     graph.BuildModules(g, nil),
		Fingerprint: graph.Fingerprint(g),
		Files: []models.SourceFile{
			{Path: "src/models/user.ts"},
			{Path: "src/services/user.ts"},
		},
	}

	out := render(t, FormatMarkdown, Graph(res))
	assert.Contains(t, out, "Files: 2")
	assert.Contains(t, out, "Edges: 1")
	assert.Contains(t, out, "| src/services/user.ts | src/models/user.ts |")
	assert.Contains(t, out, "## Modules")
}

func TestCyclesView(t *testing.T) {
	groups := []models.SCCGroup{{"models", "services"}}

	out := render(t, FormatMarkdown, Cycles(groups, nil))
	assert.Contains(t, out, "| 1 | 2 | models -> services |")
	assert.NotContains(t, out, "Module Order")

	out = render(t, FormatText, Cycles(nil, []string{"utils", "models"}))
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "Module Order")
	assert.Contains(t, out, "utils\nmodels")
}

func TestBlastRadiusView(t *testing.T) {
	br := models.BlastRadius{
		Target:   "src/models/user.ts",
		Depth:    2,
		Direct:   []string{"src/services/user.ts"},
		Indirect: []string{"src/app.ts"},
	}

	out := render(t, FormatMarkdown, BlastRadius(br, nil))
	assert.Contains(t, out, "Target: src/models/user.ts")
	assert.Contains(t, out, "| direct | src/services/user.ts |")
	assert.Contains(t, out, "| indirect | src/app.ts |")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(render(t, FormatJSON, BlastRadius(br, nil))), &decoded))
	assert.Equal(t, "src/models/user.ts", decoded["target"])
	assert.NotContains(t, decoded, "warnings")
}

func TestRowsView(t *testing.T) {
	out := render(t, FormatMarkdown, Rows("Snapshot", map[string]int{"files": 3, "blocks": 7}))

	require.Contains(t, out, "| files | 3 |")
	assert.Less(t, strings.Index(out, "| blocks | 7 |"), strings.Index(out, "| files | 3 |"))
}
