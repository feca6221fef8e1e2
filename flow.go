package modular

import (
	"errors"
	"fmt"
	"slices"

	"pipelined.dev/modular/internal/dag"
	"pipelined.dev/modular/signal"
)

type (
	// NodeIx identifies a node within its flow.
	NodeIx = dag.NodeIndex
	// EdgeIx identifies an edge within its flow.
	EdgeIx = dag.EdgeIndex
)

// NodeKind is a kind of flow node.
type NodeKind uint8

// Node kinds.
const (
	NodeElement NodeKind = iota
	NodeInput
	NodeOutput
)

func (k NodeKind) String() string {
	switch k {
	case NodeInput:
		return "input"
	case NodeOutput:
		return "output"
	default:
		return "element"
	}
}

// Node is a vertex of flow graph. Input nodes feed the flow input slot No
// to every outgoing edge. Output nodes collect incoming edges into the
// flow output slot No. Element nodes wrap a primitive or a nested flow.
type Node struct {
	Kind    NodeKind
	No      uint32
	Type    signal.Type
	Element Element
}

var (
	inputNodeInputs   = []signal.InputNo{0}
	inputNodeOutputs  = []signal.OutputNo{0}
	outputNodeInputs  = []signal.InputNo{0}
	outputNodeOutputs []signal.OutputNo
)

func (n Node) inputs(fs *FlowStore) []signal.InputNo {
	switch n.Kind {
	case NodeInput:
		return nil
	case NodeOutput:
		return outputNodeInputs
	default:
		return n.Element.inputs(fs)
	}
}

func (n Node) outputs(fs *FlowStore) []signal.OutputNo {
	switch n.Kind {
	case NodeInput:
		return inputNodeOutputs
	case NodeOutput:
		return outputNodeOutputs
	default:
		return n.Element.outputs(fs)
	}
}

func (n Node) inputType(fs *FlowStore, no signal.InputNo) (signal.Type, bool) {
	switch n.Kind {
	case NodeInput:
		return signal.Type{}, false
	case NodeOutput:
		return n.Type, no == 0
	default:
		return n.Element.inputType(fs, no)
	}
}

func (n Node) outputType(fs *FlowStore, no signal.OutputNo) (signal.Type, bool) {
	switch n.Kind {
	case NodeInput:
		return n.Type, no == 0
	case NodeOutput:
		return signal.Type{}, false
	default:
		return n.Element.outputType(fs, no)
	}
}

// InputTypes returns declared inputs of the node and their types.
func (n Node) InputTypes(fs *FlowStore) map[signal.InputNo]signal.Type {
	inputs := n.inputs(fs)
	m := make(map[signal.InputNo]signal.Type, len(inputs))
	for _, no := range inputs {
		m[no], _ = n.inputType(fs, no)
	}
	return m
}

// OutputTypes returns declared outputs of the node and their types.
func (n Node) OutputTypes(fs *FlowStore) map[signal.OutputNo]signal.Type {
	outputs := n.outputs(fs)
	m := make(map[signal.OutputNo]signal.Type, len(outputs))
	for _, no := range outputs {
		m[no], _ = n.outputType(fs, no)
	}
	return m
}

func (n Node) String() string {
	if n.Kind == NodeElement {
		return n.Element.String()
	}
	return fmt.Sprintf("%v(%d, %v)", n.Kind, n.No, n.Type)
}

// Edge connects output slot of source node to input slot of target node.
// Type is fixed at creation.
type Edge struct {
	OutputNo signal.OutputNo
	InputNo  signal.InputNo
	Type     signal.Type
}

// Flow is a directed acyclic graph of nodes. It caches the topological
// visit order and its own declared input and output slots. Both are
// recomputed on every structural mutation.
type Flow struct {
	graph       dag.Graph[Node, Edge]
	visitOrder  []NodeIx
	inputTypes  map[signal.InputNo]signal.Type
	outputTypes map[signal.OutputNo]signal.Type
	// sorted slot numbers
	inputNos  []signal.InputNo
	outputNos []signal.OutputNo
}

func newFlow() *Flow {
	return &Flow{
		inputTypes:  make(map[signal.InputNo]signal.Type),
		outputTypes: make(map[signal.OutputNo]signal.Type),
	}
}

func (f *Flow) addElement(e Element) NodeIx {
	ix := f.graph.AddNode(Node{Kind: NodeElement, Element: e})
	f.updateVisitOrder()
	return ix
}

func (f *Flow) addInput(t signal.Type) (signal.InputNo, NodeIx) {
	no := nextNo(f.inputTypes, f.inputNos)
	f.inputTypes[no] = t
	f.inputNos = insertSorted(f.inputNos, no)
	ix := f.graph.AddNode(Node{Kind: NodeInput, No: uint32(no), Type: t})
	f.updateVisitOrder()
	return no, ix
}

func (f *Flow) addOutput(t signal.Type) (signal.OutputNo, NodeIx) {
	no := nextNo(f.outputTypes, f.outputNos)
	f.outputTypes[no] = t
	f.outputNos = insertSorted(f.outputNos, no)
	ix := f.graph.AddNode(Node{Kind: NodeOutput, No: uint32(no), Type: t})
	f.updateVisitOrder()
	return no, ix
}

// removeNode removes the node with its incident edges. Removed edges are
// returned.
func (f *Flow) removeNode(ix NodeIx) (Node, []EdgeIx) {
	n, edges, ok := f.graph.RemoveNode(ix)
	if !ok {
		panic(fmt.Sprintf("remove node %d: node doesn't exist", ix))
	}
	switch n.Kind {
	case NodeInput:
		no := signal.InputNo(n.No)
		delete(f.inputTypes, no)
		f.inputNos = deleteSorted(f.inputNos, no)
	case NodeOutput:
		no := signal.OutputNo(n.No)
		delete(f.outputTypes, no)
		f.outputNos = deleteSorted(f.outputNos, no)
	}
	f.updateVisitOrder()
	return n, edges
}

func (f *Flow) addEdge(fs *FlowStore, source NodeIx, outputNo signal.OutputNo, target NodeIx, inputNo signal.InputNo) (EdgeIx, signal.Type, error) {
	t, ok := f.Node(source).outputType(fs, outputNo)
	if !ok {
		return 0, signal.Type{}, fmt.Errorf("%w: node %d has no output %d", ErrUnknownSlot, source, outputNo)
	}
	targetType, ok := f.Node(target).inputType(fs, inputNo)
	if !ok {
		return 0, signal.Type{}, fmt.Errorf("%w: node %d has no input %d", ErrUnknownSlot, target, inputNo)
	}
	if t != targetType {
		return 0, signal.Type{}, fmt.Errorf("%w: %v to %v", ErrTypeMismatch, t, targetType)
	}

	ix, err := f.graph.AddEdge(source, target, Edge{OutputNo: outputNo, InputNo: inputNo, Type: t})
	if err != nil {
		if errors.Is(err, dag.ErrWouldCycle) {
			return 0, signal.Type{}, fmt.Errorf("%w: node %d to node %d", ErrWouldCycle, source, target)
		}
		return 0, signal.Type{}, err
	}
	f.updateVisitOrder()
	return ix, t, nil
}

func (f *Flow) removeEdge(ix EdgeIx) Edge {
	e, ok := f.graph.RemoveEdge(ix)
	if !ok {
		panic(fmt.Sprintf("remove edge %d: edge doesn't exist", ix))
	}
	f.updateVisitOrder()
	return e
}

func (f *Flow) updateVisitOrder() {
	f.visitOrder = f.graph.Toposort(f.visitOrder)
}

// Node returns the node. Panics if node doesn't exist.
func (f *Flow) Node(ix NodeIx) Node {
	return f.graph.Node(ix)
}

// Edge returns the edge. Panics if edge doesn't exist.
func (f *Flow) Edge(ix EdgeIx) Edge {
	return f.graph.Edge(ix)
}

// Endpoints returns source and target nodes of the edge.
func (f *Flow) Endpoints(ix EdgeIx) (NodeIx, NodeIx) {
	return f.graph.Endpoints(ix)
}

// ContainsNode returns true if node exists.
func (f *Flow) ContainsNode(ix NodeIx) bool {
	return f.graph.ContainsNode(ix)
}

// ContainsEdge returns true if edge exists.
func (f *Flow) ContainsEdge(ix EdgeIx) bool {
	return f.graph.ContainsEdge(ix)
}

// NodeCount returns number of nodes.
func (f *Flow) NodeCount() int { return f.graph.NodeCount() }

// EdgeCount returns number of edges.
func (f *Flow) EdgeCount() int { return f.graph.EdgeCount() }

// Nodes returns all nodes in ascending order.
func (f *Flow) Nodes() []NodeIx { return f.graph.Nodes() }

// Edges returns all edges in ascending order.
func (f *Flow) Edges() []EdgeIx { return f.graph.Edges() }

// VisitOrder returns a copy of cached topological order.
func (f *Flow) VisitOrder() []NodeIx {
	return slices.Clone(f.visitOrder)
}

// InputTypes returns a copy of declared flow inputs.
func (f *Flow) InputTypes() map[signal.InputNo]signal.Type {
	m := make(map[signal.InputNo]signal.Type, len(f.inputTypes))
	for k, v := range f.inputTypes {
		m[k] = v
	}
	return m
}

// OutputTypes returns a copy of declared flow outputs.
func (f *Flow) OutputTypes() map[signal.OutputNo]signal.Type {
	m := make(map[signal.OutputNo]signal.Type, len(f.outputTypes))
	for k, v := range f.outputTypes {
		m[k] = v
	}
	return m
}

// InputEdges returns edges that feed the input slot of the node.
func (f *Flow) InputEdges(ix NodeIx, no signal.InputNo) []EdgeIx {
	var result []EdgeIx
	for _, e := range f.graph.Parents(ix) {
		if f.graph.Edge(e).InputNo == no {
			result = append(result, e)
		}
	}
	return result
}

// OutputEdges returns edges that drain the output slot of the node.
func (f *Flow) OutputEdges(ix NodeIx, no signal.OutputNo) []EdgeIx {
	var result []EdgeIx
	for _, e := range f.graph.Children(ix) {
		if f.graph.Edge(e).OutputNo == no {
			result = append(result, e)
		}
	}
	return result
}

// nextNo returns the next free slot number scanning upward from the
// current maximum with wraparound.
func nextNo[T ~uint32](used map[T]signal.Type, sorted []T) T {
	if len(sorted) == 0 {
		return 0
	}
	next := sorted[len(sorted)-1] + 1
	for {
		if _, ok := used[next]; !ok {
			return next
		}
		next++
	}
}

func insertSorted[T ~uint32](s []T, v T) []T {
	i, _ := slices.BinarySearch(s, v)
	return slices.Insert(s, i, v)
}

func deleteSorted[T ~uint32](s []T, v T) []T {
	if i, ok := slices.BinarySearch(s, v); ok {
		return slices.Delete(s, i, i+1)
	}
	return s
}
