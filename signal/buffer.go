package signal

import (
	"fmt"
	"slices"
)

// Sample is a constraint for primitive sample kinds.
type Sample interface {
	float32 | complex64 | uint32 | int32
}

// Buffer is a per-connection signal buffer. It's implemented by *Sampled
// and *Event buffers of all primitive kinds. Merging or copying buffers
// of different shape or primitive kind is a programmer error and causes
// panic.
type Buffer interface {
	Shape() Shape
	Prim() PrimType
	// Len returns number of samples or events.
	Len() int
	// UpdateSize resizes sampled buffer if its length differs from n.
	// It's no-op for event buffers.
	UpdateSize(n int)
	// Merge adds samples elementwise or appends events of other buffer.
	Merge(other Buffer)
	// CopyFrom overwrites the buffer with the content of other buffer.
	CopyFrom(other Buffer)
	// Clear zeroes samples or drops events.
	Clear()
}

// NewBuffer allocates empty buffer for provided type.
func NewBuffer(t Type) Buffer {
	if t.Shape == ShapeEvent {
		switch t.Prim {
		case F32:
			return &Event[float32]{}
		case C32:
			return &Event[complex64]{}
		case U32:
			return &Event[uint32]{}
		case I32:
			return &Event[int32]{}
		}
	} else {
		switch t.Prim {
		case F32:
			return &Sampled[float32]{}
		case C32:
			return &Sampled[complex64]{}
		case U32:
			return &Sampled[uint32]{}
		case I32:
			return &Sampled[int32]{}
		}
	}
	panic(fmt.Sprintf("unsupported type %v", t))
}

// Matches returns true if buffer can carry signal of provided type.
func Matches(b Buffer, t Type) bool {
	return b.Shape() == t.Shape && b.Prim() == t.Prim
}

// FillValue fills sampled buffer with the value. Panics if buffer is not
// sampled or value kind doesn't match the buffer.
func FillValue(b Buffer, v Value) {
	switch s := b.(type) {
	case *Sampled[float32]:
		s.Fill(v.F32())
	case *Sampled[complex64]:
		s.Fill(v.C32())
	case *Sampled[uint32]:
		s.Fill(v.U32())
	case *Sampled[int32]:
		s.Fill(v.I32())
	default:
		panic(fmt.Sprintf("fill %v buffer with %v value", b.Prim(), v.Prim()))
	}
}

func primOf[T Sample]() PrimType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return F32
	case complex64:
		return C32
	case uint32:
		return U32
	default:
		return I32
	}
}

// Sampled is a flat buffer with one sample per graph tick.
type Sampled[T Sample] struct {
	samples []T
}

// NewSampled returns sampled buffer of provided length.
func NewSampled[T Sample](n int) *Sampled[T] {
	return &Sampled[T]{samples: make([]T, n)}
}

// Shape returns ShapeSampled.
func (b *Sampled[T]) Shape() Shape { return ShapeSampled }

// Prim returns primitive kind of the samples.
func (b *Sampled[T]) Prim() PrimType { return primOf[T]() }

// Len returns number of samples.
func (b *Sampled[T]) Len() int { return len(b.samples) }

// Cap returns capacity of underlying storage.
func (b *Sampled[T]) Cap() int { return cap(b.samples) }

// Samples returns underlying samples. The slice is valid until the next
// resize.
func (b *Sampled[T]) Samples() []T { return b.samples }

// UpdateSize resizes the buffer only if its length differs from n. New
// samples are zeroed.
func (b *Sampled[T]) UpdateSize(n int) {
	l := len(b.samples)
	if l == n {
		return
	}
	if n < l {
		b.samples = b.samples[:n]
		return
	}
	b.samples = slices.Grow(b.samples, n-l)[:n]
	clear(b.samples[l:])
}

// Merge adds samples of other buffer elementwise.
func (b *Sampled[T]) Merge(other Buffer) {
	o := mustSampled[T](other)
	n := min(len(b.samples), len(o.samples))
	for i := 0; i < n; i++ {
		b.samples[i] += o.samples[i]
	}
}

// CopyFrom resizes the buffer to the length of other and copies its
// samples.
func (b *Sampled[T]) CopyFrom(other Buffer) {
	o := mustSampled[T](other)
	b.UpdateSize(len(o.samples))
	copy(b.samples, o.samples)
}

// Clear sets all samples to zero.
func (b *Sampled[T]) Clear() {
	clear(b.samples)
}

// Fill sets all samples to v.
func (b *Sampled[T]) Fill(v T) {
	for i := range b.samples {
		b.samples[i] = v
	}
}

func mustSampled[T Sample](b Buffer) *Sampled[T] {
	s, ok := b.(*Sampled[T])
	if !ok {
		panic(fmt.Sprintf("sampled %v buffer mixed with %v %v buffer", primOf[T](), b.Shape(), b.Prim()))
	}
	return s
}

// Timed is a single occurrence in event buffer.
type Timed[T Sample] struct {
	Time  uint64
	Value T
}

// Event is an append-only sequence of timed values.
type Event[T Sample] struct {
	events []Timed[T]
}

// Shape returns ShapeEvent.
func (b *Event[T]) Shape() Shape { return ShapeEvent }

// Prim returns primitive kind of event values.
func (b *Event[T]) Prim() PrimType { return primOf[T]() }

// Len returns number of events.
func (b *Event[T]) Len() int { return len(b.events) }

// Events returns buffered events.
func (b *Event[T]) Events() []Timed[T] { return b.events }

// Push appends new event.
func (b *Event[T]) Push(time uint64, v T) {
	b.events = append(b.events, Timed[T]{Time: time, Value: v})
}

// UpdateSize is no-op for event buffers.
func (b *Event[T]) UpdateSize(int) {}

// Merge appends events of other buffer. Events are not reordered by time.
func (b *Event[T]) Merge(other Buffer) {
	b.events = append(b.events, mustEvent[T](other).events...)
}

// CopyFrom replaces events with events of other buffer.
func (b *Event[T]) CopyFrom(other Buffer) {
	b.events = append(b.events[:0], mustEvent[T](other).events...)
}

// Clear drops all events.
func (b *Event[T]) Clear() {
	b.events = b.events[:0]
}

func mustEvent[T Sample](b Buffer) *Event[T] {
	e, ok := b.(*Event[T])
	if !ok {
		panic(fmt.Sprintf("event %v buffer mixed with %v %v buffer", primOf[T](), b.Shape(), b.Prim()))
	}
	return e
}

func (s Shape) String() string {
	if s == ShapeEvent {
		return "event"
	}
	return "sampled"
}
