package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/panbanda/reach/pkg/analyzer/graph"
	"github.com/panbanda/reach/pkg/analyzer/imports"
	"github.com/panbanda/reach/pkg/models"
)

// BlocksData is the serialized form of a block scan.
type BlocksData struct {
	Blocks   []models.BlockSpan `json:"blocks" toon:"blocks"`
	Long     []models.BlockSpan `json:"long_blocks,omitempty" toon:"long_blocks,omitempty"`
	Warnings []models.Warning   `json:"warnings,omitempty" toon:"warnings,omitempty"`
}

// Blocks renders block spans, flagging those longer than threshold lines.
func Blocks(spans, long []models.BlockSpan, warnings []models.Warning, threshold int) Renderable {
	isLong := make(map[string]bool, len(long))
	for _, s := range long {
		isLong[spanKey(s)] = true
	}

	rows := make([][]string, 0, len(spans))
	for _, s := range spans {
		end, lines := "?", "?"
		if s.Resolved() {
			end = strconv.Itoa(s.EndLine)
			lines = strconv.Itoa(s.Length())
		}
		flag := ""
		if isLong[spanKey(s)] {
			flag = fmt.Sprintf("> %d", threshold)
		}
		rows = append(rows, []string{s.File, s.Name, strconv.Itoa(s.StartLine), end, lines, flag})
	}

	return &Report{
		Sections: withWarnings([]Renderable{
			NewTable("Blocks", []string{"File", "Block", "Start", "End", "Lines", "Long"}, rows,
				[]string{"Total", strconv.Itoa(len(spans)), "", "", "", strconv.Itoa(len(long))}, nil),
		}, warnings),
		Data: BlocksData{Blocks: spans, Long: long, Warnings: warnings},
	}
}

func spanKey(s models.BlockSpan) string {
	return s.File + ":" + strconv.Itoa(s.StartLine) + ":" + s.Name
}

// withWarnings appends a warnings table when there is anything to show.
func withWarnings(sections []Renderable, ws []models.Warning) []Renderable {
	if len(ws) == 0 {
		return sections
	}
	return append(sections, Warnings(ws))
}

// ImportsData is the serialized form of extracted imports.
type ImportsData struct {
	Imports  []models.ImportReference `json:"imports" toon:"imports"`
	Modules  []string                 `json:"modules" toon:"modules"`
	Warnings []models.Warning         `json:"warnings,omitempty" toon:"warnings,omitempty"`
}

// Imports renders raw import references.
func Imports(refs []models.ImportReference, warnings []models.Warning) Renderable {
	rows := make([][]string, 0, len(refs))
	for _, r := range refs {
		rows = append(rows, []string{r.File, strconv.Itoa(r.Line), string(r.Kind), r.Specifier, strings.Join(r.Names, ", ")})
	}
	return &Report{
		Sections: withWarnings([]Renderable{
			NewTable("Imports", []string{"File", "Line", "Kind", "Module", "Names"}, rows, nil, nil),
		}, warnings),
		Data: ImportsData{Imports: refs, Modules: imports.Specifiers(refs), Warnings: warnings},
	}
}

// Graph renders a build result: summary, module boundaries and file edges.
func Graph(res *graph.Result) Renderable {
	summary := &Section{
		Title: "Dependency Graph",
		Content: fmt.Sprintf("Root: %s\nFiles: %d\nEdges: %d\nModules: %d\nFingerprint: %s",
			res.Root, len(res.Files), res.Graph.Forward.EdgeCount(), len(res.Modules.Modules), res.Fingerprint),
	}

	var modRows [][]string
	for _, name := range res.Modules.Names() {
		m := res.Modules.Modules[name]
		modRows = append(modRows, []string{
			name,
			strconv.Itoa(len(m.Files)),
			strings.Join(m.ImportsFrom, ", "),
			strings.Join(m.ImportedBy, ", "),
		})
	}

	var edgeRows [][]string
	for _, e := range res.Graph.Edges() {
		edgeRows = append(edgeRows, []string{e.From, e.To})
	}

	return &Report{
		Sections: withWarnings([]Renderable{
			summary,
			NewTable("Modules", []string{"Module", "Files", "Imports", "Imported By"}, modRows, nil, nil),
			NewTable("File Dependencies", []string{"From", "To"}, edgeRows, nil, nil),
		}, res.Warnings),
		Data: res,
	}
}

// CyclesData is the serialized form of a cycle report.
type CyclesData struct {
	Cycles []models.SCCGroup `json:"cycles" toon:"cycles"`
	Order  []string          `json:"order,omitempty" toon:"order,omitempty"`
}

// Cycles renders circular module groups and, when known, a dependency-first
// module order.
func Cycles(groups []models.SCCGroup, order []string) Renderable {
	rows := make([][]string, 0, len(groups))
	for i, g := range groups {
		rows = append(rows, []string{strconv.Itoa(i + 1), strconv.Itoa(len(g)), strings.Join(g, " -> ")})
	}
	sections := []Renderable{
		NewTable("Circular Dependencies", []string{"#", "Size", "Modules"}, rows, nil, nil),
	}
	if len(order) > 0 {
		sections = append(sections, &Section{Title: "Module Order", Content: strings.Join(order, "\n")})
	}
	return &Report{
		Sections: sections,
		Data:     CyclesData{Cycles: groups, Order: order},
	}
}

// Warnings renders analysis warnings as a table.
func Warnings(ws []models.Warning) Renderable {
	rows := make([][]string, 0, len(ws))
	for _, w := range ws {
		line := ""
		if w.Line > 0 {
			line = strconv.Itoa(w.Line)
		}
		rows = append(rows, []string{string(w.Kind), w.File, line, w.Message})
	}
	return NewTable("Warnings", []string{"Kind", "File", "Line", "Message"}, rows, nil, ws)
}

// Impact renders an impact prediction.
func Impact(imp *models.Impact) Renderable {
	return impactView{imp}
}

type impactView struct {
	imp *models.Impact
}

func (v impactView) RenderData() any {
	return v.imp
}

func (v impactView) RenderText(w io.Writer, colored bool) error {
	s := v.imp.Summary
	writeTitle(w, "Impact Prediction", colored, "=")
	level := strings.ToUpper(string(s.Level))
	if colored {
		level = LevelColor(s.Level, level)
	}
	fmt.Fprintf(w, "Level:      %s\n", level)
	fmt.Fprintf(w, "Targets:    %s\n", strings.Join(v.imp.Targets, ", "))
	fmt.Fprintf(w, "Direct:     %d\n", s.DirectDependents)
	fmt.Fprintf(w, "Indirect:   %d\n", s.IndirectDependents)
	fmt.Fprintf(w, "Total:      %d\n\n", s.TotalBlastRadius)

	if err := v.dependents().RenderText(w, colored); err != nil {
		return err
	}
	if err := v.tests().RenderText(w, colored); err != nil {
		return err
	}

	writeTitle(w, "Recommendations", colored, "=")
	for _, r := range v.imp.Recommendations {
		if colored {
			fmt.Fprintf(w, "%s %s\n", color.CyanString("*"), r)
		} else {
			fmt.Fprintf(w, "* %s\n", r)
		}
	}
	if len(v.imp.Warnings) > 0 {
		fmt.Fprintln(w)
		return Warnings(v.imp.Warnings).RenderText(w, colored)
	}
	return nil
}

func (v impactView) RenderMarkdown(w io.Writer) error {
	s := v.imp.Summary
	fmt.Fprintf(w, "# Impact Prediction\n\n")
	fmt.Fprintf(w, "- **Level:** %s\n", s.Level)
	fmt.Fprintf(w, "- **Targets:** %s\n", strings.Join(v.imp.Targets, ", "))
	fmt.Fprintf(w, "- **Direct dependents:** %d\n", s.DirectDependents)
	fmt.Fprintf(w, "- **Indirect dependents:** %d\n", s.IndirectDependents)
	fmt.Fprintf(w, "- **Total blast radius:** %d\n\n", s.TotalBlastRadius)

	if err := v.dependents().RenderMarkdown(w); err != nil {
		return err
	}
	if err := v.tests().RenderMarkdown(w); err != nil {
		return err
	}
	fmt.Fprintf(w, "## Recommendations\n\n")
	for _, r := range v.imp.Recommendations {
		fmt.Fprintf(w, "- %s\n", r)
	}
	fmt.Fprintln(w)
	if len(v.imp.Warnings) > 0 {
		return Warnings(v.imp.Warnings).RenderMarkdown(w)
	}
	return nil
}

func (v impactView) dependents() *Table {
	var rows [][]string
	for _, t := range v.imp.Targets {
		br := v.imp.DependencyTree[t]
		for _, d := range br.Direct {
			rows = append(rows, []string{t, "direct", d})
		}
		for _, d := range br.Indirect {
			rows = append(rows, []string{t, "indirect", d})
		}
	}
	return NewTable("Dependents", []string{"Target", "Distance", "File"}, rows, nil, nil)
}

func (v impactView) tests() *Table {
	rows := make([][]string, 0, len(v.imp.AffectedTests))
	for _, t := range v.imp.AffectedTests {
		rows = append(rows, []string{t})
	}
	return NewTable("Affected Tests", []string{"Test"}, rows, nil, nil)
}

// BlastRadiusData is the serialized form of a single-file blast radius.
type BlastRadiusData struct {
	models.BlastRadius
	Warnings []models.Warning `json:"warnings,omitempty" toon:"warnings,omitempty"`
}

// BlastRadius renders the dependents of one file.
func BlastRadius(br models.BlastRadius, warnings []models.Warning) Renderable {
	rows := make([][]string, 0, br.Total())
	for _, d := range br.Direct {
		rows = append(rows, []string{"direct", d})
	}
	for _, d := range br.Indirect {
		rows = append(rows, []string{"indirect", d})
	}
	return &Report{
		Sections: withWarnings([]Renderable{
			&Section{
				Title:   "Blast Radius",
				Content: fmt.Sprintf("Target: %s\nDepth: %d\nDirect: %d\nIndirect: %d", br.Target, br.Depth, len(br.Direct), len(br.Indirect)),
			},
			NewTable("Dependents", []string{"Distance", "File"}, rows, nil, nil),
		}, warnings),
		Data: BlastRadiusData{BlastRadius: br, Warnings: warnings},
	}
}

// Rows renders per-table row counts, sorted by table name.
func Rows(title string, counts map[string]int) Renderable {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(counts[name])})
	}
	return NewTable(title, []string{"Table", "Rows"}, rows, nil, counts)
}
