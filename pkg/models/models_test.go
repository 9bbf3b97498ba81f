package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarningSet_DedupesAndSorts(t *testing.T) {
	var s WarningSet
	s.Add(
		Warnf(WarnParse, "b.py", 0, "Python AST parse failed for b.py: syntax error"),
		Warnf(WarnUnterminated, "a.ts", 9, "JS/TS block parse failed for a.ts:9"),
		Warnf(WarnParse, "b.py", 0, "Python AST parse failed for b.py: syntax error"),
		Warnf(WarnUnterminated, "a.ts", 3, "JS/TS block parse failed for a.ts:3"),
	)

	got := s.Sorted()
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{
		"JS/TS block parse failed for a.ts:3",
		"JS/TS block parse failed for a.ts:9",
		"Python AST parse failed for b.py: syntax error",
	}, []string{got[0].Message, got[1].Message, got[2].Message})
}

func TestAdjacency(t *testing.T) {
	adj := Adjacency{
		"a": {"b", "c"},
		"b": {"c"},
		"d": {},
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, adj.Nodes())
	assert.Equal(t, 3, adj.EdgeCount())
	assert.True(t, adj.Has("a", "c"))
	assert.False(t, adj.Has("c", "a"))
	assert.False(t, adj.Has("missing", "a"))
}

func TestGraph_Edges(t *testing.T) {
	g := &Graph{
		Forward: Adjacency{"src/b.ts": {}, "src/a.ts": {"src/b.ts", "src/c.ts"}, "src/c.ts": {}},
		Reverse: Adjacency{"src/b.ts": {"src/a.ts"}, "src/a.ts": {}, "src/c.ts": {"src/a.ts"}},
	}

	assert.Equal(t, []string{"src/a.ts", "src/b.ts", "src/c.ts"}, g.Files())
	assert.Equal(t, []Edge{
		{From: "src/a.ts", To: "src/b.ts"},
		{From: "src/a.ts", To: "src/c.ts"},
	}, g.Edges())
}

func TestBlockSpan(t *testing.T) {
	span := BlockSpan{StartLine: 3, EndLine: 7}
	assert.True(t, span.Resolved())
	assert.Equal(t, 5, span.Length())

	assert.Equal(t, 0, BlockSpan{StartLine: 3}.Length())
}

func TestImpactLevel_Score(t *testing.T) {
	assert.Less(t, ImpactLow.Score(), ImpactMedium.Score())
	assert.Less(t, ImpactMedium.Score(), ImpactHigh.Score())
	assert.Less(t, ImpactHigh.Score(), ImpactCritical.Score())
}
