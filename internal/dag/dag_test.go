package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/modular/internal/dag"
)

func position(order []dag.NodeIndex, ix dag.NodeIndex) int {
	for i := range order {
		if order[i] == ix {
			return i
		}
	}
	return -1
}

func TestAddEdgeRejectsCycles(t *testing.T) {
	var g dag.Graph[string, int]
	a := g.AddNode("a")
	b := g.AddNode("b")
	c := g.AddNode("c")

	_, err := g.AddEdge(a, b, 0)
	require.NoError(t, err)
	_, err = g.AddEdge(b, c, 1)
	require.NoError(t, err)

	tests := []struct {
		description string
		source      dag.NodeIndex
		target      dag.NodeIndex
	}{
		{description: "self loop", source: a, target: a},
		{description: "direct back edge", source: b, target: a},
		{description: "transitive back edge", source: c, target: a},
	}
	for _, test := range tests {
		edges := g.EdgeCount()
		_, err := g.AddEdge(test.source, test.target, 0)
		assert.ErrorIs(t, err, dag.ErrWouldCycle, test.description)
		assert.Equal(t, edges, g.EdgeCount(), test.description)
	}
	assert.Len(t, g.Children(c), 0)
	assert.Len(t, g.Parents(a), 0)

	// parallel edges are fine
	_, err = g.AddEdge(a, c, 2)
	assert.NoError(t, err)
	_, err = g.AddEdge(a, c, 3)
	assert.NoError(t, err)
	assert.Equal(t, 4, g.EdgeCount())
}

func TestToposort(t *testing.T) {
	var g dag.Graph[int, struct{}]
	nodes := make([]dag.NodeIndex, 6)
	for i := range nodes {
		nodes[i] = g.AddNode(i)
	}
	links := [][2]int{{5, 2}, {5, 0}, {4, 0}, {4, 1}, {2, 3}, {3, 1}}
	for _, l := range links {
		_, err := g.AddEdge(nodes[l[0]], nodes[l[1]], struct{}{})
		require.NoError(t, err)
	}

	order := g.Toposort(nil)
	require.Len(t, order, 6)
	for _, l := range links {
		assert.Less(t, position(order, nodes[l[0]]), position(order, nodes[l[1]]))
	}
	// deterministic
	assert.Equal(t, order, g.Toposort(make([]dag.NodeIndex, 0, 6)))
}

func TestStableIndices(t *testing.T) {
	var g dag.Graph[string, string]
	a := g.AddNode("a")
	b := g.AddNode("b")
	c := g.AddNode("c")
	ab, err := g.AddEdge(a, b, "ab")
	require.NoError(t, err)
	bc, err := g.AddEdge(b, c, "bc")
	require.NoError(t, err)
	ac, err := g.AddEdge(a, c, "ac")
	require.NoError(t, err)

	weight, removed, ok := g.RemoveNode(b)
	require.True(t, ok)
	assert.Equal(t, "b", weight)
	assert.ElementsMatch(t, []dag.EdgeIndex{ab, bc}, removed)
	assert.False(t, g.ContainsEdge(ab))
	assert.False(t, g.ContainsEdge(bc))

	// survivors keep their indices
	assert.Equal(t, "a", g.Node(a))
	assert.Equal(t, "c", g.Node(c))
	assert.Equal(t, "ac", g.Edge(ac))
	src, dst := g.Endpoints(ac)
	assert.Equal(t, a, src)
	assert.Equal(t, c, dst)
	assert.Equal(t, []dag.EdgeIndex{ac}, g.Children(a))
	assert.Equal(t, []dag.EdgeIndex{ac}, g.Parents(c))
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []dag.NodeIndex{a, c}, g.Nodes())
	assert.Equal(t, []dag.EdgeIndex{ac}, g.Edges())

	// freed index is reused
	d := g.AddNode("d")
	assert.Equal(t, b, d)

	_, _, ok = g.RemoveNode(b + 10)
	assert.False(t, ok)
	_, ok = g.RemoveEdge(ab)
	assert.False(t, ok)
	assert.Panics(t, func() { g.Node(b + 10) })
	assert.Panics(t, func() { _, _ = g.AddEdge(a, b+10, "") })
}

func TestEdgeOrder(t *testing.T) {
	var g dag.Graph[int, int]
	a := g.AddNode(0)
	b := g.AddNode(1)
	first, _ := g.AddEdge(a, b, 1)
	second, _ := g.AddEdge(a, b, 2)
	third, _ := g.AddEdge(a, b, 3)
	assert.Equal(t, []dag.EdgeIndex{first, second, third}, g.Parents(b))

	_, ok := g.RemoveEdge(second)
	require.True(t, ok)
	assert.Equal(t, []dag.EdgeIndex{first, third}, g.Parents(b))
	assert.Equal(t, []dag.EdgeIndex{first, third}, g.Children(a))
}
