package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/panbanda/reach/pkg/models"
)

// chain builds D -> C -> B -> A, each importing the previous.
func chain() *models.Graph {
	return NewGraph(nil, []models.Edge{
		{From: "B", To: "A"},
		{From: "C", To: "B"},
		{From: "D", To: "C"},
	})
}

func TestComputeBlastRadius_Bounded(t *testing.T) {
	br := ComputeBlastRadius(chain().Reverse, "A", 2)

	assert.Equal(t, "A", br.Target)
	assert.Equal(t, 2, br.Depth)
	assert.Equal(t, []string{"B"}, br.Direct)
	assert.Equal(t, []string{"C"}, br.Indirect)
	assert.Equal(t, 2, br.Total())
}

func TestComputeBlastRadius_Depths(t *testing.T) {
	g := chain()

	tests := []struct {
		depth        int
		wantDepth    int
		wantIndirect []string
	}{
		{depth: -3, wantDepth: 1, wantIndirect: []string{}},
		{depth: 0, wantDepth: 1, wantIndirect: []string{}},
		{depth: 1, wantDepth: 1, wantIndirect: []string{}},
		{depth: 3, wantDepth: 3, wantIndirect: []string{"C", "D"}},
		{depth: 10, wantDepth: 10, wantIndirect: []string{"C", "D"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("depth=%d", tt.depth), func(t *testing.T) {
			br := ComputeBlastRadius(g.Reverse, "A", tt.depth)
			assert.Equal(t, tt.wantDepth, br.Depth)
			assert.Equal(t, []string{"B"}, br.Direct)
			assert.Equal(t, tt.wantIndirect, br.Indirect)
		})
	}
}

func TestComputeBlastRadius_Cycle(t *testing.T) {
	g := NewGraph(nil, []models.Edge{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
		{From: "c", To: "a"},
		{From: "x", To: "a"},
	})

	br := ComputeBlastRadius(g.Reverse, "a", 5)
	assert.Equal(t, []string{"c", "x"}, br.Direct)
	assert.Equal(t, []string{"b"}, br.Indirect)
	assert.NotContains(t, br.Indirect, "a")
}

func TestComputeBlastRadius_ShortestDistanceWins(t *testing.T) {
	// top imports both mid and target directly.
	g := NewGraph(nil, []models.Edge{
		{From: "mid", To: "target"},
		{From: "top", To: "mid"},
		{From: "top", To: "target"},
	})

	br := ComputeBlastRadius(g.Reverse, "target", 2)
	assert.Equal(t, []string{"mid", "top"}, br.Direct)
	assert.Empty(t, br.Indirect)
}

func TestComputeBlastRadius_UnknownTarget(t *testing.T) {
	br := ComputeBlastRadius(chain().Reverse, "nope", 2)
	assert.NotNil(t, br.Direct)
	assert.Empty(t, br.Direct)
	assert.Empty(t, br.Indirect)
}

func TestComputeBlastRadius_DeepChain(t *testing.T) {
	const n = 10000
	edges := make([]models.Edge, 0, n)
	for i := range n {
		edges = append(edges, models.Edge{From: fmt.Sprintf("f%05d", i+1), To: fmt.Sprintf("f%05d", i)})
	}
	g := NewGraph(nil, edges)

	br := ComputeBlastRadius(g.Reverse, "f00000", n)
	assert.Equal(t, []string{"f00001"}, br.Direct)
	assert.Len(t, br.Indirect, n-1)
}
