package prim

import (
	"fmt"
	"math"

	"pipelined.dev/modular/signal"
)

// Processor computes primitive outputs for a single block.
//
// Input map contains buffers of connected inputs, absent key means the
// input is unconnected. Output map contains buffers the processor must
// refresh for exactly bufferSize samples. No guarantee is given about
// the content of output buffers on entry.
type Processor interface {
	Process(out map[signal.OutputNo]signal.Buffer, in map[signal.InputNo]signal.Buffer, bufferSize int)
}

// New returns processor for provided element.
func New(e Element) Processor {
	switch e.Kind {
	case KindSineOsc:
		return &sineOsc{sampleRate: float64(e.Nyquist * 2)}
	case KindConstant:
		return constant{value: e.Value}
	case KindMultiply:
		return binary(func(a, b float32) float32 { return a * b })
	case KindAdd:
		return binary(func(a, b float32) float32 { return a + b })
	default:
		panic(fmt.Sprintf("unknown primitive %v", e.Kind))
	}
}

type constant struct {
	value signal.Value
}

func (c constant) Process(out map[signal.OutputNo]signal.Buffer, _ map[signal.InputNo]signal.Buffer, bufferSize int) {
	if y, ok := out[0]; ok {
		y.UpdateSize(bufferSize)
		signal.FillValue(y, c.value)
	}
}

// sineOsc keeps running phase in cycles. Phase isn't wrapped.
type sineOsc struct {
	phase      float64
	sampleRate float64
}

func (o *sineOsc) Process(out map[signal.OutputNo]signal.Buffer, in map[signal.InputNo]signal.Buffer, bufferSize int) {
	b, ok := out[0]
	if !ok {
		return
	}
	y := b.(*signal.Sampled[float32])
	y.UpdateSize(bufferSize)

	fb, ok := in[0]
	if !ok {
		y.Clear()
		return
	}
	f := fb.(*signal.Sampled[float32]).Samples()
	samples := y.Samples()
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * o.phase))
		if i < len(f) {
			o.phase += float64(f[i]) / o.sampleRate
		}
	}
}

// Phase returns current phase of oscillator processor in cycles. False is
// returned if processor is not an oscillator.
func Phase(p Processor) (float64, bool) {
	if o, ok := p.(*sineOsc); ok {
		return o.phase, true
	}
	return 0, false
}

type binary func(a, b float32) float32

func (fn binary) Process(out map[signal.OutputNo]signal.Buffer, in map[signal.InputNo]signal.Buffer, bufferSize int) {
	b, ok := out[0]
	if !ok {
		return
	}
	y := b.(*signal.Sampled[float32])
	y.UpdateSize(bufferSize)

	b0, ok0 := in[0]
	b1, ok1 := in[1]
	if !ok0 || !ok1 {
		y.Clear()
		return
	}
	x0 := b0.(*signal.Sampled[float32]).Samples()
	x1 := b1.(*signal.Sampled[float32]).Samples()
	samples := y.Samples()
	n := min(len(samples), len(x0), len(x1))
	for i := 0; i < n; i++ {
		samples[i] = fn(x0[i], x1[i])
	}
}
