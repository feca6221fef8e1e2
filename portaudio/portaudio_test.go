//go:build portaudio

package portaudio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/modular"
	"pipelined.dev/modular/engine"
	"pipelined.dev/modular/portaudio"
	"pipelined.dev/modular/prim"
	"pipelined.dev/modular/render"
	"pipelined.dev/modular/signal"
)

const (
	nyquist    = 22050
	bufferSize = 64
)

func TestPlayer(t *testing.T) {
	s := modular.NewStore()
	f := s.NewFlow()
	freq := s.AddElement(f, prim.Constant(signal.F32Value(440), nyquist))
	osc := s.AddElement(f, prim.SineOsc(nyquist))
	_, out := s.AddOutput(f, signal.SampledType(signal.F32, nyquist))
	_, _, err := s.AddEdge(f, freq, 0, osc, 0)
	require.NoError(t, err)
	_, _, err = s.AddEdge(f, osc, 0, out, 0)
	require.NoError(t, err)

	e := engine.New(s, f)
	defer e.Close()
	p, err := portaudio.Open(render.NewInterleaver(e, []signal.OutputNo{0, 0}), 2*nyquist, bufferSize)
	require.NoError(t, err)
	require.NoError(t, p.Start())
	time.Sleep(500 * time.Millisecond)
	require.NoError(t, p.Close())
	assert.NoError(t, p.Err())
}
