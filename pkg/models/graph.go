package models

import "sort"

// Adjacency maps a node to the sorted list of nodes it points at.
type Adjacency map[string][]string

// Nodes returns every node that appears as a key or a value, sorted.
func (a Adjacency) Nodes() []string {
	seen := make(map[string]struct{}, len(a))
	for from, tos := range a {
		seen[from] = struct{}{}
		for _, to := range tos {
			seen[to] = struct{}{}
		}
	}
	nodes := make([]string, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// EdgeCount returns the total number of edges.
func (a Adjacency) EdgeCount() int {
	n := 0
	for _, tos := range a {
		n += len(tos)
	}
	return n
}

// Has reports whether the edge from -> to exists.
func (a Adjacency) Has(from, to string) bool {
	tos := a[from]
	i := sort.SearchStrings(tos, to)
	return i < len(tos) && tos[i] == to
}

// Edge is a directed file-to-file dependency.
type Edge struct {
	From string `json:"from" toon:"from"`
	To   string `json:"to" toon:"to"`
}

// Graph is the file-level dependency graph.
// Every encountered file is a key of both maps, possibly with an empty list.
type Graph struct {
	Forward Adjacency `json:"imports" toon:"imports"`
	Reverse Adjacency `json:"imported_by" toon:"imported_by"`
}

// Files returns every file in the graph, sorted.
func (g *Graph) Files() []string {
	files := make([]string, 0, len(g.Forward))
	for f := range g.Forward {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Edges returns all edges sorted by (from, to).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.Forward.EdgeCount())
	for _, from := range g.Files() {
		for _, to := range g.Forward[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// ModuleBoundary aggregates the files of one module and its cross-module links.
type ModuleBoundary struct {
	Name        string   `json:"name" toon:"name"`
	Files       []string `json:"files" toon:"files"`
	ImportsFrom []string `json:"imports_from" toon:"imports_from"`
	ImportedBy  []string `json:"imported_by" toon:"imported_by"`
}

// ModuleGraph is the coarse, module-level view of a Graph.
type ModuleGraph struct {
	Modules   map[string]*ModuleBoundary `json:"modules" toon:"modules"`
	Adjacency Adjacency                  `json:"adjacency" toon:"adjacency"`
}

// Names returns the module names, sorted.
func (m *ModuleGraph) Names() []string {
	names := make([]string, 0, len(m.Modules))
	for name := range m.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SCCGroup is one circular dependency cluster: sorted module names.
type SCCGroup []string

// BlastRadius holds the dependents of one file, partitioned by distance.
type BlastRadius struct {
	Target   string   `json:"target" toon:"target"`
	Depth    int      `json:"depth" toon:"depth"`
	Direct   []string `json:"direct" toon:"direct"`
	Indirect []string `json:"indirect" toon:"indirect"`
}

// Total returns the number of distinct dependents.
func (b BlastRadius) Total() int {
	return len(b.Direct) + len(b.Indirect)
}
