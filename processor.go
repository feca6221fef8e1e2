package modular

import (
	"fmt"

	"pipelined.dev/modular/prim"
	"pipelined.dev/modular/signal"
)

// ProcessorStore keeps runtime state of every flow.
type ProcessorStore struct {
	processors map[FlowID]*Processor
}

func newProcessorStore() *ProcessorStore {
	return &ProcessorStore{
		processors: make(map[FlowID]*Processor),
	}
}

// Get returns processor of the flow. False is returned if flow doesn't
// exist.
func (ps *ProcessorStore) Get(id FlowID) (*Processor, bool) {
	p, ok := ps.processors[id]
	return p, ok
}

func (ps *ProcessorStore) mustGet(id FlowID) *Processor {
	p, ok := ps.processors[id]
	if !ok {
		panic(fmt.Sprintf("processor of flow %d doesn't exist", id))
	}
	return p
}

func (ps *ProcessorStore) add(id FlowID) {
	ps.processors[id] = newProcessor(id)
}

func (ps *ProcessorStore) remove(id FlowID) {
	delete(ps.processors, id)
}

// Processor holds one buffer per edge of its flow. Buffers are resized
// lazily: only when requested size differs from current one.
type Processor struct {
	flowID  FlowID
	buffers map[EdgeIx]signal.Buffer

	// scratch state reused by every element evaluation
	in     map[signal.InputNo]signal.Buffer
	out    map[signal.OutputNo]signal.Buffer
	rest   []EdgeIx
	fanOut []fanOut
}

// fanOut links direct output buffer with the edges that receive its copy.
type fanOut struct {
	direct     signal.Buffer
	start, end int
}

func newProcessor(id FlowID) *Processor {
	return &Processor{
		flowID:  id,
		buffers: make(map[EdgeIx]signal.Buffer),
		in:      make(map[signal.InputNo]signal.Buffer),
		out:     make(map[signal.OutputNo]signal.Buffer),
	}
}

// Buffer returns buffer of the edge. False is returned if edge doesn't
// have a buffer.
func (p *Processor) Buffer(ix EdgeIx) (signal.Buffer, bool) {
	b, ok := p.buffers[ix]
	return b, ok
}

// Len returns number of edge buffers.
func (p *Processor) Len() int {
	return len(p.buffers)
}

func (p *Processor) addEdge(ix EdgeIx, t signal.Type) {
	if _, ok := p.buffers[ix]; ok {
		panic(fmt.Sprintf("edge %d already has a buffer", ix))
	}
	p.buffers[ix] = signal.NewBuffer(t)
}

func (p *Processor) removeEdge(ix EdgeIx) {
	if _, ok := p.buffers[ix]; !ok {
		panic(fmt.Sprintf("edge %d doesn't have a buffer", ix))
	}
	delete(p.buffers, ix)
}

func (p *Processor) buffer(ix EdgeIx) signal.Buffer {
	b, ok := p.buffers[ix]
	if !ok {
		panic(fmt.Sprintf("edge %d doesn't have a buffer", ix))
	}
	return b
}

// compute evaluates single block of the flow.
func (p *Processor) compute(s *Store, f *Flow, out map[signal.OutputNo]signal.Buffer, in map[signal.InputNo]signal.Buffer, bufferSize int) {
	if s.checks {
		checkInputs(in, f.inputTypes, bufferSize)
		checkOutputs(out, f.outputTypes)
	}

	for _, b := range out {
		b.UpdateSize(bufferSize)
	}

	for _, ix := range f.visitOrder {
		n := f.graph.Node(ix)
		switch n.Kind {
		case NodeElement:
			p.computeElement(s, f, ix, n.Element, bufferSize)
		case NodeInput:
			src, ok := in[signal.InputNo(n.No)]
			for _, e := range f.graph.Children(ix) {
				b := p.buffer(e)
				if ok {
					b.CopyFrom(src)
				} else {
					b.UpdateSize(bufferSize)
					b.Clear()
				}
			}
		case NodeOutput:
			dst, ok := out[signal.OutputNo(n.No)]
			if !ok {
				continue
			}
			dst.UpdateSize(bufferSize)
			parents := f.graph.Parents(ix)
			if len(parents) == 0 {
				dst.Clear()
				continue
			}
			dst.CopyFrom(p.buffer(parents[0]))
			for _, e := range parents[1:] {
				dst.Merge(p.buffer(e))
			}
		}
	}
}

func (p *Processor) computeElement(s *Store, f *Flow, ix NodeIx, e Element, bufferSize int) {
	clear(p.in)
	clear(p.out)
	p.rest = p.rest[:0]
	p.fanOut = p.fanOut[:0]

	parents := f.graph.Parents(ix)
	for _, no := range e.inputs(s.flows) {
		var head signal.Buffer
		for _, edge := range parents {
			w := f.graph.Edge(edge)
			if w.InputNo != no {
				continue
			}
			b := p.buffer(edge)
			if s.checks && !signal.Matches(b, w.Type) {
				panic(fmt.Sprintf("edge %d buffer doesn't match %v", edge, w.Type))
			}
			if head == nil {
				// first edge accumulates the rest
				head = b
				head.UpdateSize(bufferSize)
				continue
			}
			head.Merge(b)
		}
		if head != nil {
			p.in[no] = head
		}
	}

	children := f.graph.Children(ix)
	for _, no := range e.outputs(s.flows) {
		var direct signal.Buffer
		start := len(p.rest)
		for _, edge := range children {
			if f.graph.Edge(edge).OutputNo != no {
				continue
			}
			if direct == nil {
				direct = p.buffer(edge)
				direct.UpdateSize(bufferSize)
				continue
			}
			p.rest = append(p.rest, edge)
		}
		if direct != nil {
			p.out[no] = direct
			p.fanOut = append(p.fanOut, fanOut{direct: direct, start: start, end: len(p.rest)})
		}
	}

	if nested, ok := e.Flow(); ok {
		s.compute(nested, p.out, p.in, bufferSize)
	} else {
		pe, _ := e.Prim()
		key := s.sharing.Key(pe, prim.Owner{Flow: uint64(p.flowID), Node: uint32(ix)})
		s.registry.Processor(key).Process(p.out, p.in, bufferSize)
	}

	for _, fo := range p.fanOut {
		for _, edge := range p.rest[fo.start:fo.end] {
			b := p.buffer(edge)
			b.UpdateSize(bufferSize)
			b.CopyFrom(fo.direct)
		}
	}
}

func checkInputs(in map[signal.InputNo]signal.Buffer, types map[signal.InputNo]signal.Type, bufferSize int) {
	for no, b := range in {
		if t, ok := types[no]; ok && !signal.Matches(b, t) {
			panic(fmt.Sprintf("input %d: %v %v buffer doesn't match %v", no, b.Shape(), b.Prim(), t))
		}
		if b.Shape() == signal.ShapeSampled && b.Len() != bufferSize {
			panic(fmt.Sprintf("input %d: buffer size %d doesn't match %d", no, b.Len(), bufferSize))
		}
	}
}

func checkOutputs(out map[signal.OutputNo]signal.Buffer, types map[signal.OutputNo]signal.Type) {
	for no, b := range out {
		if t, ok := types[no]; ok && !signal.Matches(b, t) {
			panic(fmt.Sprintf("output %d: %v %v buffer doesn't match %v", no, b.Shape(), b.Prim(), t))
		}
	}
}
