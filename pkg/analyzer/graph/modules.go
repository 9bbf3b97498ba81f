package graph

import (
	"sort"

	"github.com/panbanda/reach/pkg/analyzer/resolve"
	"github.com/panbanda/reach/pkg/models"
)

// BuildModules collapses the file graph into modules named by namer. Only
// cross-module edges survive. Every module is a key of the adjacency, even
// one with no cross-module imports.
func BuildModules(g *models.Graph, namer *resolve.Namer) *models.ModuleGraph {
	if namer == nil {
		namer = resolve.DefaultNamer()
	}

	files := g.Files()
	owner := make(map[string]string, len(files))
	members := make(map[string][]string)
	for _, f := range files {
		name := namer.ModuleName(f)
		owner[f] = name
		members[name] = append(members[name], f)
	}

	var edges []models.Edge
	for _, e := range g.Edges() {
		from, to := owner[e.From], owner[e.To]
		if from == to {
			continue
		}
		edges = append(edges, models.Edge{From: from, To: to})
	}

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	mg := NewGraph(names, edges)
	modules := make(map[string]*models.ModuleBoundary, len(names))
	for _, name := range names {
		modules[name] = &models.ModuleBoundary{
			Name:        name,
			Files:       members[name],
			ImportsFrom: mg.Forward[name],
			ImportedBy:  mg.Reverse[name],
		}
	}
	return &models.ModuleGraph{Modules: modules, Adjacency: mg.Forward}
}
