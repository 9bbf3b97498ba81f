package graph

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/panbanda/reach/pkg/models"
)

// CycleError reports the node sets that prevent a total dependency order.
type CycleError struct {
	Groups []models.SCCGroup
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Groups))
	for i, g := range e.Groups {
		parts[i] = "[" + strings.Join(g, " ") + "]"
	}
	return fmt.Sprintf("dependency cycles prevent ordering: %s", strings.Join(parts, ", "))
}

// TopologicalOrder returns the nodes of adj with every dependency before its
// importers, ties broken by name. When adj has cycles the orderable nodes are
// still returned, together with a *CycleError naming the rest.
// Self-edges are ignored.
func TopologicalOrder(adj models.Adjacency) ([]string, error) {
	nodes := adj.Nodes()
	id := make(map[string]int64, len(nodes))
	g := simple.NewDirectedGraph()
	for i, n := range nodes {
		id[n] = int64(i)
		g.AddNode(simple.Node(int64(i)))
	}
	for from, tos := range adj {
		for _, to := range tos {
			if from == to {
				continue
			}
			// Edges point from dependency to importer so dependencies sort first.
			g.SetEdge(simple.Edge{F: simple.Node(id[to]), T: simple.Node(id[from])})
		}
	}

	sorted, err := topo.SortStabilized(g, byID)
	order := make([]string, 0, len(sorted))
	for _, n := range sorted {
		if n != nil {
			order = append(order, nodes[n.ID()])
		}
	}
	if err == nil {
		return order, nil
	}

	var uo topo.Unorderable
	if !errors.As(err, &uo) {
		return order, err
	}
	cerr := &CycleError{}
	for _, set := range uo {
		group := make(models.SCCGroup, len(set))
		for i, n := range set {
			group[i] = nodes[n.ID()]
		}
		sort.Strings(group)
		cerr.Groups = append(cerr.Groups, group)
	}
	slices.SortFunc(cerr.Groups, func(a, b models.SCCGroup) int {
		return slices.Compare(a, b)
	})
	return order, cerr
}

func byID(ns []gonum.Node) {
	sort.Slice(ns, func(i, j int) bool { return ns[i].ID() < ns[j].ID() })
}
