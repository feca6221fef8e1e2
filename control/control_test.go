package control_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/modular/control"
	"pipelined.dev/modular/mutable"
	"pipelined.dev/modular/signal"
)

func TestPitch(t *testing.T) {
	tests := []struct {
		semitones float64
		expected  float64
	}{
		{semitones: 0, expected: 440},
		{semitones: 12, expected: 880},
		{semitones: -12, expected: 220},
		{semitones: 3, expected: 523.2511},
		{semitones: -1, expected: 415.3047},
	}
	for _, test := range tests {
		assert.InDelta(t, test.expected, control.Pitch(test.semitones), 1e-4)
	}
}

func TestKeyboard(t *testing.T) {
	km := control.Keyboard()
	assert.Len(t, km, 41)
	tests := []struct {
		key      control.Key
		expected control.Change
	}{
		{key: "a", expected: control.Change{Track: 0, Semitones: -1}},
		{key: "z", expected: control.Change{Track: 0, Semitones: 0}},
		{key: control.RShift, expected: control.Change{Track: 0, Semitones: 17}},
		{key: "1", expected: control.Change{Track: 1, Semitones: 11}},
		{key: "q", expected: control.Change{Track: 1, Semitones: 12}},
		{key: "\\", expected: control.Change{Track: 1, Semitones: 32}},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, km[test.key], "key %q", test.key)
	}
}

func TestKeys(t *testing.T) {
	km := control.Keyboard()
	assert.Equal(t, []control.Key{"z", "x", "c", control.RShift, "q"}, km.Keys("zxc RShift q"))
	assert.Empty(t, km.Keys("   "))
}

type setterMock struct {
	mutable.Context
	values map[signal.InputNo]signal.Value
}

func (s *setterMock) SetInput(no signal.InputNo, v signal.Value) mutable.Mutation {
	return s.Mutate(func() error {
		s.values[no] = v
		return nil
	})
}

func TestController(t *testing.T) {
	setter := &setterMock{
		Context: mutable.Mutable(),
		values:  make(map[signal.InputNo]signal.Value),
	}
	c := control.NewController(control.Keyboard(), setter, map[control.Track]signal.InputNo{
		0: 0,
		1: 3,
	})

	_, ok := c.Press("h")
	assert.False(t, ok)

	mutations := c.Type("z hq")
	require.Len(t, mutations, 2)
	for _, m := range mutations {
		require.NoError(t, m.Apply())
	}
	assert.Equal(t, signal.F32Value(440), setter.values[0])
	assert.Equal(t, signal.F32Value(880), setter.values[3])

	c = control.NewController(control.Keyboard(), setter, map[control.Track]signal.InputNo{0: 0})
	_, ok = c.Press("q")
	assert.False(t, ok)
}
