package prim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/modular/prim"
	"pipelined.dev/modular/signal"
)

const nyquist = 22050

func f32(n int, v float32) *signal.Sampled[float32] {
	b := signal.NewSampled[float32](n)
	b.Fill(v)
	return b
}

func TestElementTypes(t *testing.T) {
	f32Type := signal.SampledType(signal.F32, nyquist)
	tests := []struct {
		element prim.Element
		inputs  map[signal.InputNo]signal.Type
		outputs map[signal.OutputNo]signal.Type
	}{
		{
			element: prim.SineOsc(nyquist),
			inputs:  map[signal.InputNo]signal.Type{0: f32Type},
			outputs: map[signal.OutputNo]signal.Type{0: f32Type},
		},
		{
			element: prim.Constant(signal.I32Value(1), nyquist),
			inputs:  map[signal.InputNo]signal.Type{},
			outputs: map[signal.OutputNo]signal.Type{0: signal.SampledType(signal.I32, nyquist)},
		},
		{
			element: prim.Multiply(nyquist),
			inputs:  map[signal.InputNo]signal.Type{0: f32Type, 1: f32Type},
			outputs: map[signal.OutputNo]signal.Type{0: f32Type},
		},
		{
			element: prim.Add(nyquist),
			inputs:  map[signal.InputNo]signal.Type{0: f32Type, 1: f32Type},
			outputs: map[signal.OutputNo]signal.Type{0: f32Type},
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.inputs, test.element.InputTypes(), test.element.String())
		assert.Equal(t, test.outputs, test.element.OutputTypes(), test.element.String())
		_, ok := test.element.InputType(2)
		assert.False(t, ok)
		_, ok = test.element.OutputType(1)
		assert.False(t, ok)
	}

	assert.Equal(t, prim.SineOsc(100), prim.SineOsc(100))
	assert.NotEqual(t, prim.SineOsc(100), prim.SineOsc(200))
	assert.NotEqual(t, prim.Constant(signal.F32Value(1), 100), prim.Constant(signal.F32Value(2), 100))
}

func TestConstant(t *testing.T) {
	p := prim.New(prim.Constant(signal.F32Value(2.5), nyquist))
	y := signal.NewSampled[float32](0)
	for _, bufferSize := range []int{1, 64, 3} {
		p.Process(map[signal.OutputNo]signal.Buffer{0: y}, nil, bufferSize)
		require.Equal(t, bufferSize, y.Len())
		for _, v := range y.Samples() {
			assert.Equal(t, float32(2.5), v)
		}
	}

	// output isn't connected
	assert.NotPanics(t, func() { p.Process(map[signal.OutputNo]signal.Buffer{}, nil, 10) })
}

func TestSineOsc(t *testing.T) {
	const (
		frequency  = 440
		bufferSize = 64
		blocks     = 5
	)
	p := prim.New(prim.SineOsc(nyquist))
	freq := f32(bufferSize, frequency)
	y := signal.NewSampled[float32](bufferSize)

	n := 0
	for k := 0; k < blocks; k++ {
		p.Process(
			map[signal.OutputNo]signal.Buffer{0: y},
			map[signal.InputNo]signal.Buffer{0: freq},
			bufferSize,
		)
		for _, v := range y.Samples() {
			expected := math.Sin(2 * math.Pi * frequency / (2 * nyquist) * float64(n))
			assert.InDelta(t, expected, v, 1e-5, "sample %d", n)
			n++
		}
	}
	phase, ok := prim.Phase(p)
	require.True(t, ok)
	assert.InDelta(t, float64(frequency*bufferSize*blocks)/(2*nyquist), phase, 1e-9)

	// unconnected frequency clears output and keeps phase
	p.Process(map[signal.OutputNo]signal.Buffer{0: y}, nil, bufferSize)
	for _, v := range y.Samples() {
		assert.Equal(t, float32(0), v)
	}
	after, _ := prim.Phase(p)
	assert.Equal(t, phase, after)
}

func TestBinary(t *testing.T) {
	tests := []struct {
		element  prim.Element
		inputs   map[signal.InputNo]signal.Buffer
		expected float32
	}{
		{
			element:  prim.Multiply(nyquist),
			inputs:   map[signal.InputNo]signal.Buffer{0: f32(16, 3), 1: f32(16, 4)},
			expected: 12,
		},
		{
			element:  prim.Add(nyquist),
			inputs:   map[signal.InputNo]signal.Buffer{0: f32(16, 3), 1: f32(16, 4)},
			expected: 7,
		},
		{
			element:  prim.Multiply(nyquist),
			inputs:   map[signal.InputNo]signal.Buffer{0: f32(16, 3)},
			expected: 0,
		},
		{
			element:  prim.Add(nyquist),
			inputs:   map[signal.InputNo]signal.Buffer{1: f32(16, 4)},
			expected: 0,
		},
	}
	for _, test := range tests {
		p := prim.New(test.element)
		// stale content must be overwritten
		y := f32(16, 99)
		p.Process(map[signal.OutputNo]signal.Buffer{0: y}, test.inputs, 16)
		require.Equal(t, 16, y.Len())
		for _, v := range y.Samples() {
			assert.Equal(t, test.expected, v, test.element.String())
		}
	}
}

func TestRegistry(t *testing.T) {
	r := prim.NewRegistry()
	osc := prim.SineOsc(nyquist)

	shared := prim.ShareByDescriptor.Key(osc, prim.Owner{Flow: 1, Node: 1})
	p1 := r.Use(shared)
	p2 := r.Use(prim.ShareByDescriptor.Key(osc, prim.Owner{Flow: 1, Node: 2}))
	assert.Same(t, p1, p2)
	assert.Equal(t, 2, r.Refs(shared))
	assert.Equal(t, 1, r.Len())

	node1 := prim.ExclusivePerNode.Key(osc, prim.Owner{Flow: 1, Node: 1})
	node2 := prim.ExclusivePerNode.Key(osc, prim.Owner{Flow: 1, Node: 2})
	e1 := r.Use(node1)
	e2 := r.Use(node2)
	assert.NotSame(t, e1, e2)
	assert.Equal(t, 3, r.Len())

	assert.False(t, r.Free(shared))
	assert.Same(t, p1, r.Processor(shared))
	assert.True(t, r.Free(shared))
	assert.Equal(t, 0, r.Refs(shared))
	assert.True(t, r.Free(node1))
	assert.True(t, r.Free(node2))
	assert.Equal(t, 0, r.Len())

	assert.Panics(t, func() { r.Free(shared) })
	assert.Panics(t, func() { r.Processor(shared) })

	// state is recreated after destruction
	p3 := r.Use(shared)
	phase, _ := prim.Phase(p3)
	assert.Equal(t, float64(0), phase)
}

func TestParseSharing(t *testing.T) {
	s, err := prim.ParseSharing("descriptor")
	assert.NoError(t, err)
	assert.Equal(t, prim.ShareByDescriptor, s)
	s, err = prim.ParseSharing("node")
	assert.NoError(t, err)
	assert.Equal(t, prim.ExclusivePerNode, s)
	_, err = prim.ParseSharing("global")
	assert.Error(t, err)
}
