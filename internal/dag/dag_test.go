package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamond builds raw -> (stg_a, stg_b) -> mart.
func diamond(t *testing.T) *Graph[int] {
	t.Helper()
	g := New[int]()
	for i, id := range []string{"raw", "stg_a", "stg_b", "mart"} {
		g.AddNode(id, i)
	}
	require.NoError(t, g.AddEdge("raw", "stg_a"))
	require.NoError(t, g.AddEdge("raw", "stg_b"))
	require.NoError(t, g.AddEdge("stg_a", "mart"))
	require.NoError(t, g.AddEdge("stg_b", "mart"))
	return g
}

func TestGraph_Nodes(t *testing.T) {
	g := diamond(t)
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, []string{"mart", "raw", "stg_a", "stg_b"}, g.IDs())

	v, ok := g.Node("stg_b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	g.AddNode("stg_b", 20)
	v, _ = g.Node("stg_b")
	assert.Equal(t, 20, v, "AddNode replaces the value")
	assert.Equal(t, 4, g.Len())

	assert.Equal(t, []string{"stg_a", "stg_b"}, g.Parents("mart"))
	assert.Equal(t, []string{"stg_a", "stg_b"}, g.Children("raw"))
}

func TestGraph_AddEdge(t *testing.T) {
	g := New[string]()
	g.AddNode("a", "")
	g.AddNode("b", "")

	assert.Error(t, g.AddEdge("missing", "a"))
	assert.Error(t, g.AddEdge("a", "missing"))

	require.NoError(t, g.AddEdge("a", "a"), "self-loops are ignored")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("a", "b"), "duplicates are ignored")
	assert.Equal(t, 1, g.EdgeCount())
}

func TestGraph_Levels(t *testing.T) {
	levels, err := diamond(t).Levels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"raw"}, {"stg_a", "stg_b"}, {"mart"}}, levels)
}

func TestGraph_LevelsDisconnected(t *testing.T) {
	g := New[int]()
	for _, id := range []string{"b", "a", "c"} {
		g.AddNode(id, 0)
	}
	require.NoError(t, g.AddEdge("c", "a"))

	levels, err := g.Levels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"b", "c"}, {"a"}}, levels)
}

func TestGraph_LevelsEmpty(t *testing.T) {
	levels, err := New[int]().Levels()
	require.NoError(t, err)
	assert.Empty(t, levels)
}

func TestGraph_Cycle(t *testing.T) {
	g := diamond(t)
	assert.Nil(t, g.Cycle())

	require.NoError(t, g.AddEdge("mart", "raw"))
	cycle := g.Cycle()
	require.NotEmpty(t, cycle)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1], "cycle path is closed")

	_, err := g.Levels()
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "->")
}

func TestGraph_Affected(t *testing.T) {
	g := diamond(t)
	assert.Equal(t, []string{"mart", "stg_a"}, g.Affected([]string{"stg_a"}))
	assert.Equal(t, []string{"mart", "raw", "stg_a", "stg_b"}, g.Affected([]string{"raw"}))
	assert.Empty(t, g.Affected([]string{"unknown"}))
}

func TestGraph_Upstream(t *testing.T) {
	g := diamond(t)
	assert.Equal(t, []string{"raw", "stg_a", "stg_b"}, g.Upstream("mart"))
	assert.Empty(t, g.Upstream("raw"))
}
