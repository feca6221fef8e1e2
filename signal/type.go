package signal

import (
	"fmt"
	"math"
)

// PrimType is a primitive sample kind.
type PrimType uint8

// Supported primitive kinds.
const (
	F32 PrimType = iota
	C32
	U32
	I32
)

func (p PrimType) String() string {
	switch p {
	case F32:
		return "f32"
	case C32:
		return "c32"
	case U32:
		return "u32"
	case I32:
		return "i32"
	default:
		return fmt.Sprintf("prim(%d)", uint8(p))
	}
}

// Shape tells if signal is sampled or event.
type Shape uint8

const (
	// ShapeSampled is a signal with one sample per graph tick.
	ShapeSampled Shape = iota
	// ShapeEvent is a sparse stream of timed occurrences.
	ShapeEvent
)

// Type identifies the signal carried by a connection. Types are
// comparable: two sampled types are equal only when both primitive kind
// and nyquist frequency match.
type Type struct {
	Shape   Shape
	Prim    PrimType
	Nyquist uint64
}

// SampledType returns sampled type for provided primitive kind and nyquist
// frequency, the half of the sample rate.
func SampledType(p PrimType, nyquist uint64) Type {
	return Type{Shape: ShapeSampled, Prim: p, Nyquist: nyquist}
}

// EventType returns event type for provided primitive kind.
func EventType(p PrimType) Type {
	return Type{Shape: ShapeEvent, Prim: p}
}

// SampleRate returns sample rate of sampled type. Zero is returned for
// event types.
func (t Type) SampleRate() int {
	if t.Shape != ShapeSampled {
		return 0
	}
	return int(t.Nyquist * 2)
}

func (t Type) String() string {
	if t.Shape == ShapeEvent {
		return fmt.Sprintf("event(%v)", t.Prim)
	}
	return fmt.Sprintf("sampled(%v@%d)", t.Prim, t.Nyquist)
}

type (
	// InputNo is a number of input slot.
	InputNo uint32
	// OutputNo is a number of output slot.
	OutputNo uint32
)

// Value is a scalar of one primitive kind. Values are comparable and
// can be used as map keys: floating point payloads are compared by their
// bits.
type Value struct {
	prim PrimType
	bits uint64
}

// F32Value returns float32 value.
func F32Value(v float32) Value {
	return Value{prim: F32, bits: uint64(math.Float32bits(v))}
}

// C32Value returns complex64 value.
func C32Value(v complex64) Value {
	re := uint64(math.Float32bits(real(v)))
	im := uint64(math.Float32bits(imag(v)))
	return Value{prim: C32, bits: re | im<<32}
}

// U32Value returns uint32 value.
func U32Value(v uint32) Value {
	return Value{prim: U32, bits: uint64(v)}
}

// I32Value returns int32 value.
func I32Value(v int32) Value {
	return Value{prim: I32, bits: uint64(uint32(v))}
}

// Prim returns primitive kind of the value.
func (v Value) Prim() PrimType {
	return v.prim
}

// F32 returns float32 payload. Panics if value is of other kind.
func (v Value) F32() float32 {
	v.mustBe(F32)
	return math.Float32frombits(uint32(v.bits))
}

// C32 returns complex64 payload. Panics if value is of other kind.
func (v Value) C32() complex64 {
	v.mustBe(C32)
	re := math.Float32frombits(uint32(v.bits))
	im := math.Float32frombits(uint32(v.bits >> 32))
	return complex(re, im)
}

// U32 returns uint32 payload. Panics if value is of other kind.
func (v Value) U32() uint32 {
	v.mustBe(U32)
	return uint32(v.bits)
}

// I32 returns int32 payload. Panics if value is of other kind.
func (v Value) I32() int32 {
	v.mustBe(I32)
	return int32(uint32(v.bits))
}

func (v Value) mustBe(p PrimType) {
	if v.prim != p {
		panic(fmt.Sprintf("value of kind %v used as %v", v.prim, p))
	}
}

func (v Value) String() string {
	switch v.prim {
	case F32:
		return fmt.Sprintf("%v", v.F32())
	case C32:
		return fmt.Sprintf("%v", v.C32())
	case U32:
		return fmt.Sprintf("%v", v.U32())
	default:
		return fmt.Sprintf("%v", v.I32())
	}
}
