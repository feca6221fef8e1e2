// Package prim provides built-in leaf signal-processing algorithms and a
// reference-counted registry of their stateful processors.
//
// Primitives are described by Element values. Element is comparable and
// carries no runtime state: equal descriptors describe structurally
// identical primitives. The state lives in a Processor owned by Registry.
package prim

import (
	"fmt"

	"pipelined.dev/modular/signal"
)

// Kind is a kind of primitive algorithm.
type Kind uint8

// Built-in primitives.
const (
	KindSineOsc Kind = iota + 1
	KindConstant
	KindMultiply
	KindAdd
)

func (k Kind) String() string {
	switch k {
	case KindSineOsc:
		return "sine"
	case KindConstant:
		return "constant"
	case KindMultiply:
		return "multiply"
	case KindAdd:
		return "add"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Element is a descriptor of primitive.
type Element struct {
	Kind    Kind
	Nyquist uint64
	Value   signal.Value
}

// SineOsc describes float32 sine oscillator. Its only input is frequency
// in Hz.
func SineOsc(nyquist uint64) Element {
	return Element{Kind: KindSineOsc, Nyquist: nyquist}
}

// Constant describes a source of constant value.
func Constant(v signal.Value, nyquist uint64) Element {
	return Element{Kind: KindConstant, Nyquist: nyquist, Value: v}
}

// Multiply describes elementwise product of two float32 signals.
func Multiply(nyquist uint64) Element {
	return Element{Kind: KindMultiply, Nyquist: nyquist}
}

// Add describes elementwise sum of two float32 signals.
func Add(nyquist uint64) Element {
	return Element{Kind: KindAdd, Nyquist: nyquist}
}

var (
	noInputs     []signal.InputNo
	unaryInputs  = []signal.InputNo{0}
	binaryInputs = []signal.InputNo{0, 1}
	singleOutput = []signal.OutputNo{0}
)

// Inputs returns declared input numbers in ascending order. The returned
// slice must not be modified.
func (e Element) Inputs() []signal.InputNo {
	switch e.Kind {
	case KindSineOsc:
		return unaryInputs
	case KindMultiply, KindAdd:
		return binaryInputs
	default:
		return noInputs
	}
}

// Outputs returns declared output numbers in ascending order. The returned
// slice must not be modified.
func (e Element) Outputs() []signal.OutputNo {
	return singleOutput
}

// InputType returns type of input slot. False is returned if slot is not
// declared.
func (e Element) InputType(no signal.InputNo) (signal.Type, bool) {
	for _, in := range e.Inputs() {
		if in == no {
			return signal.SampledType(signal.F32, e.Nyquist), true
		}
	}
	return signal.Type{}, false
}

// OutputType returns type of output slot. False is returned if slot is not
// declared.
func (e Element) OutputType(no signal.OutputNo) (signal.Type, bool) {
	if no != 0 {
		return signal.Type{}, false
	}
	if e.Kind == KindConstant {
		return signal.SampledType(e.Value.Prim(), e.Nyquist), true
	}
	return signal.SampledType(signal.F32, e.Nyquist), true
}

// InputTypes returns map of declared inputs and their types.
func (e Element) InputTypes() map[signal.InputNo]signal.Type {
	m := make(map[signal.InputNo]signal.Type, len(e.Inputs()))
	for _, no := range e.Inputs() {
		m[no], _ = e.InputType(no)
	}
	return m
}

// OutputTypes returns map of declared outputs and their types.
func (e Element) OutputTypes() map[signal.OutputNo]signal.Type {
	m := make(map[signal.OutputNo]signal.Type, len(e.Outputs()))
	for _, no := range e.Outputs() {
		m[no], _ = e.OutputType(no)
	}
	return m
}

func (e Element) String() string {
	if e.Kind == KindConstant {
		return fmt.Sprintf("%v(%v)@%d", e.Kind, e.Value, e.Nyquist)
	}
	return fmt.Sprintf("%v@%d", e.Kind, e.Nyquist)
}
