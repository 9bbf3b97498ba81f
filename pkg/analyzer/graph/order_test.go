package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/reach/pkg/models"
)

func TestTopologicalOrder(t *testing.T) {
	adj := models.Adjacency{
		"controllers": {"services"},
		"services":    {"models", "utils"},
		"models":      {"utils"},
		"utils":       {},
		"routes":      {"controllers"},
	}

	order, err := TopologicalOrder(adj)
	require.NoError(t, err)
	assert.Equal(t, []string{"utils", "models", "services", "controllers", "routes"}, order)
}

func TestTopologicalOrder_TiesBrokenByName(t *testing.T) {
	order, err := TopologicalOrder(models.Adjacency{"c": {}, "a": {}, "b": {}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTopologicalOrder_IgnoresSelfEdges(t *testing.T) {
	order, err := TopologicalOrder(models.Adjacency{"a": {"a", "b"}, "b": {}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestTopologicalOrder_Cycles(t *testing.T) {
	adj := models.Adjacency{
		"app":      {"services"},
		"services": {"models"},
		"models":   {"services"},
		"utils":    {},
	}

	order, err := TopologicalOrder(adj)
	require.Error(t, err)

	var cerr *CycleError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []models.SCCGroup{{"models", "services"}}, cerr.Groups)
	assert.Contains(t, err.Error(), "[models services]")
	assert.Contains(t, order, "utils")
	assert.NotContains(t, order, "models")
}
