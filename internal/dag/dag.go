// Package dag implements directed acyclic graph with stable indices.
// Removing nodes or edges never renumbers survivors: freed indices are
// reused by later insertions.
package dag

import (
	"errors"
	"slices"
)

// ErrWouldCycle is returned when inserted edge would close a cycle.
var ErrWouldCycle = errors.New("edge would cycle")

type (
	// NodeIndex identifies a node within the graph.
	NodeIndex uint32
	// EdgeIndex identifies an edge within the graph.
	EdgeIndex uint32
)

type node[N any] struct {
	weight   N
	alive    bool
	incoming []EdgeIndex
	outgoing []EdgeIndex
}

type edge[E any] struct {
	weight E
	alive  bool
	source NodeIndex
	target NodeIndex
}

// Graph is a directed acyclic graph with node weights N and edge weights E.
// Zero value is an empty graph ready to use.
type Graph[N, E any] struct {
	nodes     []node[N]
	edges     []edge[E]
	freeNodes []NodeIndex
	freeEdges []EdgeIndex
	nodeCount int
	edgeCount int
}

// AddNode inserts a node and returns its index.
func (g *Graph[N, E]) AddNode(weight N) NodeIndex {
	g.nodeCount++
	if n := len(g.freeNodes); n > 0 {
		ix := g.freeNodes[n-1]
		g.freeNodes = g.freeNodes[:n-1]
		g.nodes[ix] = node[N]{weight: weight, alive: true}
		return ix
	}
	g.nodes = append(g.nodes, node[N]{weight: weight, alive: true})
	return NodeIndex(len(g.nodes) - 1)
}

// RemoveNode removes the node and all incident edges. Removed edges are
// returned in the order they were detached. False is returned if node
// doesn't exist.
func (g *Graph[N, E]) RemoveNode(ix NodeIndex) (N, []EdgeIndex, bool) {
	var zero N
	if !g.ContainsNode(ix) {
		return zero, nil, false
	}
	n := &g.nodes[ix]
	removed := make([]EdgeIndex, 0, len(n.incoming)+len(n.outgoing))
	removed = append(removed, n.incoming...)
	removed = append(removed, n.outgoing...)
	for _, e := range removed {
		g.RemoveEdge(e)
	}
	weight := n.weight
	*n = node[N]{}
	g.freeNodes = append(g.freeNodes, ix)
	g.nodeCount--
	return weight, removed, true
}

// AddEdge inserts an edge from source to target. ErrWouldCycle is returned
// and the graph is left unchanged if target already reaches source.
// Panics if either node doesn't exist.
func (g *Graph[N, E]) AddEdge(source, target NodeIndex, weight E) (EdgeIndex, error) {
	g.mustNode(source)
	g.mustNode(target)
	if g.reaches(target, source) {
		return 0, ErrWouldCycle
	}

	e := edge[E]{weight: weight, alive: true, source: source, target: target}
	var ix EdgeIndex
	if n := len(g.freeEdges); n > 0 {
		ix = g.freeEdges[n-1]
		g.freeEdges = g.freeEdges[:n-1]
		g.edges[ix] = e
	} else {
		g.edges = append(g.edges, e)
		ix = EdgeIndex(len(g.edges) - 1)
	}
	g.nodes[source].outgoing = append(g.nodes[source].outgoing, ix)
	g.nodes[target].incoming = append(g.nodes[target].incoming, ix)
	g.edgeCount++
	return ix, nil
}

// RemoveEdge removes the edge. False is returned if edge doesn't exist.
func (g *Graph[N, E]) RemoveEdge(ix EdgeIndex) (E, bool) {
	var zero E
	if !g.ContainsEdge(ix) {
		return zero, false
	}
	e := g.edges[ix]
	src, dst := &g.nodes[e.source], &g.nodes[e.target]
	src.outgoing = slices.DeleteFunc(src.outgoing, func(x EdgeIndex) bool { return x == ix })
	dst.incoming = slices.DeleteFunc(dst.incoming, func(x EdgeIndex) bool { return x == ix })
	g.edges[ix] = edge[E]{}
	g.freeEdges = append(g.freeEdges, ix)
	g.edgeCount--
	return e.weight, true
}

// ContainsNode returns true if node exists.
func (g *Graph[N, E]) ContainsNode(ix NodeIndex) bool {
	return int(ix) < len(g.nodes) && g.nodes[ix].alive
}

// ContainsEdge returns true if edge exists.
func (g *Graph[N, E]) ContainsEdge(ix EdgeIndex) bool {
	return int(ix) < len(g.edges) && g.edges[ix].alive
}

// Node returns node weight. Panics if node doesn't exist.
func (g *Graph[N, E]) Node(ix NodeIndex) N {
	return g.mustNode(ix).weight
}

// Edge returns edge weight. Panics if edge doesn't exist.
func (g *Graph[N, E]) Edge(ix EdgeIndex) E {
	return g.mustEdge(ix).weight
}

// Endpoints returns source and target of the edge. Panics if edge doesn't
// exist.
func (g *Graph[N, E]) Endpoints(ix EdgeIndex) (NodeIndex, NodeIndex) {
	e := g.mustEdge(ix)
	return e.source, e.target
}

// Parents returns incoming edges of the node in insertion order. The
// returned slice must not be modified.
func (g *Graph[N, E]) Parents(ix NodeIndex) []EdgeIndex {
	return g.mustNode(ix).incoming
}

// Children returns outgoing edges of the node in insertion order. The
// returned slice must not be modified.
func (g *Graph[N, E]) Children(ix NodeIndex) []EdgeIndex {
	return g.mustNode(ix).outgoing
}

// NodeCount returns number of nodes.
func (g *Graph[N, E]) NodeCount() int { return g.nodeCount }

// EdgeCount returns number of edges.
func (g *Graph[N, E]) EdgeCount() int { return g.edgeCount }

// Nodes returns indices of all nodes in ascending order.
func (g *Graph[N, E]) Nodes() []NodeIndex {
	result := make([]NodeIndex, 0, g.nodeCount)
	for i := range g.nodes {
		if g.nodes[i].alive {
			result = append(result, NodeIndex(i))
		}
	}
	return result
}

// Edges returns indices of all edges in ascending order.
func (g *Graph[N, E]) Edges() []EdgeIndex {
	result := make([]EdgeIndex, 0, g.edgeCount)
	for i := range g.edges {
		if g.edges[i].alive {
			result = append(result, EdgeIndex(i))
		}
	}
	return result
}

// Toposort returns nodes in topological order. Among nodes that are ready
// at the same time, lower indices come first, so the order is
// deterministic for the same structure. The result is written into dst,
// which is returned.
func (g *Graph[N, E]) Toposort(dst []NodeIndex) []NodeIndex {
	dst = dst[:0]
	inDegree := make([]int, len(g.nodes))
	ready := make([]NodeIndex, 0, g.nodeCount)
	for i := range g.nodes {
		if !g.nodes[i].alive {
			continue
		}
		inDegree[i] = len(g.nodes[i].incoming)
		if inDegree[i] == 0 {
			ready = append(ready, NodeIndex(i))
		}
	}
	for len(ready) > 0 {
		// pop the lowest index
		m := 0
		for i := range ready {
			if ready[i] < ready[m] {
				m = i
			}
		}
		ix := ready[m]
		ready[m] = ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		dst = append(dst, ix)

		for _, e := range g.nodes[ix].outgoing {
			t := g.edges[e].target
			inDegree[t]--
			if inDegree[t] == 0 {
				ready = append(ready, t)
			}
		}
	}
	return dst
}

// reaches returns true if there is a path from source to target.
func (g *Graph[N, E]) reaches(from, to NodeIndex) bool {
	if from == to {
		return true
	}
	visited := make(map[NodeIndex]struct{})
	stack := []NodeIndex{from}
	for len(stack) > 0 {
		ix := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.nodes[ix].outgoing {
			t := g.edges[e].target
			if t == to {
				return true
			}
			if _, ok := visited[t]; !ok {
				visited[t] = struct{}{}
				stack = append(stack, t)
			}
		}
	}
	return false
}

func (g *Graph[N, E]) mustNode(ix NodeIndex) *node[N] {
	if !g.ContainsNode(ix) {
		panic("dag: node doesn't exist")
	}
	return &g.nodes[ix]
}

func (g *Graph[N, E]) mustEdge(ix EdgeIndex) *edge[E] {
	if !g.ContainsEdge(ix) {
		panic("dag: edge doesn't exist")
	}
	return &g.edges[ix]
}
