package modular

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/modular/log"
	"pipelined.dev/modular/prim"
	"pipelined.dev/modular/signal"
)

// Store is the only entry point for structural mutation and evaluation.
// It keeps flows, their processors and the primitive registry consistent:
// edge buffers are allocated and freed together with edges, primitive
// references together with element nodes.
//
// Store is not safe for concurrent use.
type Store struct {
	uid        string
	flows      *FlowStore
	processors *ProcessorStore
	registry   *prim.Registry
	sharing    prim.Sharing
	checks     bool
	log        logrus.FieldLogger
}

// NewStore creates a new empty store and applies provided options.
func NewStore(options ...Option) *Store {
	s := &Store{
		uid:        xid.New().String(),
		flows:      newFlowStore(),
		processors: newProcessorStore(),
		registry:   prim.NewRegistry(),
		sharing:    prim.ExclusivePerNode,
		checks:     true,
	}
	for _, option := range options {
		option(s)
	}
	if s.log == nil {
		s.log = log.GetLogger()
	}
	s.log = s.log.WithField("store", s.uid)
	return s
}

// UID returns unique id of the store.
func (s *Store) UID() string {
	return s.uid
}

// Sharing returns primitive sharing policy of the store.
func (s *Store) Sharing() prim.Sharing {
	return s.sharing
}

// Flows returns flow arena. It must be used for inspection only.
func (s *Store) Flows() *FlowStore {
	return s.flows
}

// Registry returns primitive registry. It must be used for inspection
// only.
func (s *Store) Registry() *prim.Registry {
	return s.registry
}

// Flow returns flow by id. Panics if flow doesn't exist.
func (s *Store) Flow(id FlowID) *Flow {
	return s.flows.mustGet(id)
}

// Processor returns processor of the flow. Panics if flow doesn't exist.
func (s *Store) Processor(id FlowID) *Processor {
	return s.processors.mustGet(id)
}

// NewFlow creates empty flow with its processor.
func (s *Store) NewFlow() FlowID {
	id := s.flows.add(newFlow())
	s.processors.add(id)
	s.log.WithField("flow", id).Debug("flow created")
	return id
}

// RemoveFlow removes flow with its processor and releases primitives used
// by its element nodes. ErrFlowInUse is returned if flow is nested into
// other flows.
func (s *Store) RemoveFlow(id FlowID) error {
	f := s.flows.mustGet(id)
	for _, other := range s.flows.IDs() {
		if other != id && s.flows.embeds(other, id) {
			return fmt.Errorf("%w: flow %d is nested into flow %d", ErrFlowInUse, id, other)
		}
	}
	for _, ix := range f.graph.Nodes() {
		s.release(id, ix, f.graph.Node(ix))
	}
	s.flows.remove(id)
	s.processors.remove(id)
	s.log.WithField("flow", id).Debug("flow removed")
	return nil
}

// AddElement adds primitive element node to the flow.
func (s *Store) AddElement(id FlowID, e prim.Element) NodeIx {
	f := s.flows.mustGet(id)
	ix := f.addElement(PrimElement(e))
	s.registry.Use(s.primKey(id, ix, e))
	s.log.WithFields(logrus.Fields{"flow": id, "node": ix, "element": e}).Debug("element added")
	return ix
}

// AddFlowElement adds node that nests sub flow into the flow.
// ErrRecursiveFlow is returned if flow would contain itself.
func (s *Store) AddFlowElement(id, sub FlowID) (NodeIx, error) {
	f := s.flows.mustGet(id)
	s.flows.mustGet(sub)
	if id == sub || s.flows.embeds(sub, id) {
		return 0, fmt.Errorf("%w: flow %d into flow %d", ErrRecursiveFlow, sub, id)
	}
	ix := f.addElement(FlowElement(sub))
	s.log.WithFields(logrus.Fields{"flow": id, "node": ix, "nested": sub}).Debug("flow element added")
	return ix, nil
}

// AddInput adds input node to the flow. Its slot number is returned.
func (s *Store) AddInput(id FlowID, t signal.Type) (signal.InputNo, NodeIx) {
	no, ix := s.flows.mustGet(id).addInput(t)
	s.log.WithFields(logrus.Fields{"flow": id, "node": ix, "input": no, "type": t}).Debug("input added")
	return no, ix
}

// AddOutput adds output node to the flow. Its slot number is returned.
func (s *Store) AddOutput(id FlowID, t signal.Type) (signal.OutputNo, NodeIx) {
	no, ix := s.flows.mustGet(id).addOutput(t)
	s.log.WithFields(logrus.Fields{"flow": id, "node": ix, "output": no, "type": t}).Debug("output added")
	return no, ix
}

// RemoveNode removes node from the flow. Buffers of incident edges are
// freed and primitive is released. Removing an input or output node
// also removes edges attached to that slot in flows that nest this one.
// Panics if node doesn't exist.
func (s *Store) RemoveNode(id FlowID, ix NodeIx) {
	f := s.flows.mustGet(id)
	p := s.processors.mustGet(id)
	switch n := f.Node(ix); n.Kind {
	case NodeInput:
		s.detachSlot(id, func(parent *Flow, nix NodeIx) []EdgeIx {
			return parent.InputEdges(nix, signal.InputNo(n.No))
		})
	case NodeOutput:
		s.detachSlot(id, func(parent *Flow, nix NodeIx) []EdgeIx {
			return parent.OutputEdges(nix, signal.OutputNo(n.No))
		})
	}
	n, edges := f.removeNode(ix)
	for _, e := range edges {
		p.removeEdge(e)
	}
	s.release(id, ix, n)
	s.log.WithFields(logrus.Fields{"flow": id, "node": ix, "edges": len(edges)}).Debug("node removed")
}

// AddEdge connects output slot of source node to input slot of target
// node and allocates the edge buffer. ErrTypeMismatch is returned if
// slot types differ, ErrWouldCycle if edge would close a cycle. In both
// cases the flow is left unchanged.
func (s *Store) AddEdge(id FlowID, source NodeIx, outputNo signal.OutputNo, target NodeIx, inputNo signal.InputNo) (EdgeIx, signal.Type, error) {
	f := s.flows.mustGet(id)
	ix, t, err := f.addEdge(s.flows, source, outputNo, target, inputNo)
	if err != nil {
		return 0, signal.Type{}, fmt.Errorf("flow %d: %w", id, err)
	}
	s.processors.mustGet(id).addEdge(ix, t)
	s.log.WithFields(logrus.Fields{"flow": id, "edge": ix, "type": t}).Debug("edge added")
	return ix, t, nil
}

// detachSlot removes edges returned by slotEdges for every node that
// nests flow id.
func (s *Store) detachSlot(id FlowID, slotEdges func(*Flow, NodeIx) []EdgeIx) {
	for _, other := range s.flows.IDs() {
		parent := s.flows.mustGet(other)
		for _, nix := range parent.Nodes() {
			n := parent.Node(nix)
			if n.Kind != NodeElement {
				continue
			}
			if nested, ok := n.Element.Flow(); !ok || nested != id {
				continue
			}
			for _, e := range slotEdges(parent, nix) {
				s.RemoveEdge(other, e)
			}
		}
	}
}

// RemoveEdge removes edge and frees its buffer. Panics if edge doesn't
// exist.
func (s *Store) RemoveEdge(id FlowID, ix EdgeIx) {
	s.flows.mustGet(id).removeEdge(ix)
	s.processors.mustGet(id).removeEdge(ix)
	s.log.WithFields(logrus.Fields{"flow": id, "edge": ix}).Debug("edge removed")
}

// Compute evaluates a single block of bufferSize samples. Provided output
// buffers are resized and filled, outputs which are not provided are not
// written. Inputs which are not provided are treated as silence.
//
// When consistency checks are enabled, Compute panics if provided buffers
// don't match declared flow types or sampled inputs are not of bufferSize
// length.
func (s *Store) Compute(id FlowID, out map[signal.OutputNo]signal.Buffer, in map[signal.InputNo]signal.Buffer, bufferSize int) {
	s.compute(id, out, in, bufferSize)
}

func (s *Store) compute(id FlowID, out map[signal.OutputNo]signal.Buffer, in map[signal.InputNo]signal.Buffer, bufferSize int) {
	s.processors.mustGet(id).compute(s, s.flows.mustGet(id), out, in, bufferSize)
}

func (s *Store) primKey(id FlowID, ix NodeIx, e prim.Element) prim.Key {
	return s.sharing.Key(e, prim.Owner{Flow: uint64(id), Node: uint32(ix)})
}

// release frees primitive reference of element node.
func (s *Store) release(id FlowID, ix NodeIx, n Node) {
	if n.Kind != NodeElement {
		return
	}
	if e, ok := n.Element.Prim(); ok {
		if s.registry.Free(s.primKey(id, ix, e)) {
			s.log.WithFields(logrus.Fields{"flow": id, "node": ix, "element": e}).Debug("primitive destroyed")
		}
	}
}
