/*
Package modular allows to build, mutate and evaluate typed DSP graphs.

Concept

The signal is processed by a flow: a directed acyclic graph of nodes
connected with typed edges. There are three kinds of nodes:

    Input - feeds the flow input slot into the graph;
    Output - collects the graph into the flow output slot;
    Element - a primitive processor or a nested flow.

Every node declares numbered input and output slots with a signal type.
An edge connects an output slot of one node to an input slot of another
and is accepted only when both slots have the same type and the edge
doesn't close a cycle.

Store

Flows, their runtime state and primitive processors are owned by Store.
It's the only entry point for mutation:

    s := modular.NewStore()
    f := s.NewFlow()
    osc := s.AddElement(f, prim.SineOsc(22050))
    freq := s.AddElement(f, prim.Constant(signal.F32Value(440), 22050))
    _, out := s.AddOutput(f, signal.SampledType(signal.F32, 22050))
    s.AddEdge(f, freq, 0, osc, 0)
    s.AddEdge(f, osc, 0, out, 0)

Every edge owns a buffer that is allocated when edge is created and freed
when it's removed. Primitive processors are reference counted: the
sharing policy decides if equal primitives share a single processor or
every node gets its own.

Evaluation

Compute evaluates a single block of samples:

    left := signal.NewSampled[float32](64)
    s.Compute(f, map[signal.OutputNo]signal.Buffer{0: left}, nil, 64)

Nodes are visited in topological order. When several edges feed the same
input slot, their buffers are merged into the first one. When one output
slot feeds several edges, the first edge receives the processor output and
the rest get a copy. Buffers are resized only when block size changes, so
evaluation with a stable block size doesn't allocate.

Flow can be nested into another flow with AddFlowElement. Nested flow is
exposed with its declared input and output slots and evaluated in place.
*/
package modular
