package modular

import (
	"fmt"

	"pipelined.dev/modular/prim"
	"pipelined.dev/modular/signal"
)

// Element is a payload of graph node: either primitive or nested flow.
type Element struct {
	prim   prim.Element
	flow   FlowID
	nested bool
}

// PrimElement returns element for primitive.
func PrimElement(e prim.Element) Element {
	return Element{prim: e}
}

// FlowElement returns element for nested flow.
func FlowElement(id FlowID) Element {
	return Element{flow: id, nested: true}
}

// Prim returns primitive descriptor. False is returned for nested flows.
func (e Element) Prim() (prim.Element, bool) {
	return e.prim, !e.nested
}

// Flow returns nested flow id. False is returned for primitives.
func (e Element) Flow() (FlowID, bool) {
	return e.flow, e.nested
}

func (e Element) inputs(fs *FlowStore) []signal.InputNo {
	if e.nested {
		return fs.mustGet(e.flow).inputNos
	}
	return e.prim.Inputs()
}

func (e Element) outputs(fs *FlowStore) []signal.OutputNo {
	if e.nested {
		return fs.mustGet(e.flow).outputNos
	}
	return e.prim.Outputs()
}

func (e Element) inputType(fs *FlowStore, no signal.InputNo) (signal.Type, bool) {
	if e.nested {
		t, ok := fs.mustGet(e.flow).inputTypes[no]
		return t, ok
	}
	return e.prim.InputType(no)
}

func (e Element) outputType(fs *FlowStore, no signal.OutputNo) (signal.Type, bool) {
	if e.nested {
		t, ok := fs.mustGet(e.flow).outputTypes[no]
		return t, ok
	}
	return e.prim.OutputType(no)
}

func (e Element) String() string {
	if e.nested {
		return fmt.Sprintf("flow(%d)", e.flow)
	}
	return e.prim.String()
}
