package graph

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/panbanda/reach/pkg/models"
)

func TestFindCycles(t *testing.T) {
	tests := []struct {
		name string
		adj  models.Adjacency
		want []models.SCCGroup
	}{
		{
			name: "empty",
			adj:  models.Adjacency{},
			want: nil,
		},
		{
			name: "acyclic",
			adj:  models.Adjacency{"a": {"b"}, "b": {"c"}, "c": {}},
			want: nil,
		},
		{
			name: "three module cycle",
			adj:  models.Adjacency{"services": {"models"}, "models": {"utils"}, "utils": {"services"}},
			want: []models.SCCGroup{{"models", "services", "utils"}},
		},
		{
			name: "self edge",
			adj:  models.Adjacency{"a": {"a", "b"}, "b": {}},
			want: []models.SCCGroup{{"a"}},
		},
		{
			name: "two disjoint cycles sorted",
			adj: models.Adjacency{
				"x": {"y"}, "y": {"x"},
				"b": {"c"}, "c": {"b", "x"},
			},
			want: []models.SCCGroup{{"b", "c"}, {"x", "y"}},
		},
		{
			name: "nested cycles collapse into one component",
			adj: models.Adjacency{
				"a": {"b"}, "b": {"c", "a"}, "c": {"d"}, "d": {"b"},
			},
			want: []models.SCCGroup{{"a", "b", "c", "d"}},
		},
		{
			name: "targets that are not keys",
			adj:  models.Adjacency{"a": {"z"}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindCycles(tt.adj))
		})
	}
}

func TestFindCycles_DeepChain(t *testing.T) {
	const n = 10000
	adj := make(models.Adjacency, n)
	for i := range n {
		adj[fmt.Sprintf("m%05d", i)] = []string{fmt.Sprintf("m%05d", i+1)}
	}

	assert.Empty(t, FindCycles(adj), "an open chain has no cycles")

	adj[fmt.Sprintf("m%05d", n)] = []string{"m00000"}
	cycles := FindCycles(adj)
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0], n+1)
	assert.True(t, sort.StringsAreSorted(cycles[0]))
}

func TestFindCycles_MatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := range 50 {
		nodes := 5 + rng.Intn(40)
		edges := rng.Intn(nodes * 3)

		adj := make(models.Adjacency, nodes)
		g := simple.NewDirectedGraph()
		for i := range nodes {
			adj[name(i)] = nil
			g.AddNode(simple.Node(int64(i)))
		}
		for range edges {
			from, to := rng.Intn(nodes), rng.Intn(nodes)
			if from == to || g.HasEdgeFromTo(int64(from), int64(to)) {
				continue
			}
			adj[name(from)] = append(adj[name(from)], name(to))
			g.SetEdge(simple.Edge{F: simple.Node(int64(from)), T: simple.Node(int64(to))})
		}

		var want []models.SCCGroup
		for _, scc := range topo.TarjanSCC(g) {
			if len(scc) < 2 {
				continue
			}
			group := make(models.SCCGroup, len(scc))
			for i, n := range scc {
				group[i] = name(int(n.ID()))
			}
			sort.Strings(group)
			want = append(want, group)
		}
		slices.SortFunc(want, func(a, b models.SCCGroup) int { return slices.Compare(a, b) })

		assert.Equal(t, want, FindCycles(adj), "round %d", round)
	}
}

func name(i int) string {
	return fmt.Sprintf("n%03d", i)
}
