package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/modular"
	"pipelined.dev/modular/engine"
	"pipelined.dev/modular/metric"
	"pipelined.dev/modular/prim"
	"pipelined.dev/modular/signal"
)

const (
	nyquist    = 22050
	bufferSize = 64
)

var f32 = signal.SampledType(signal.F32, nyquist)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// doubler returns flow that multiplies its input by 2.
func doubler(t *testing.T) (*modular.Store, modular.FlowID) {
	t.Helper()
	s := modular.NewStore()
	f := s.NewFlow()
	_, in := s.AddInput(f, f32)
	two := s.AddElement(f, prim.Constant(signal.F32Value(2), nyquist))
	m := s.AddElement(f, prim.Multiply(nyquist))
	_, out := s.AddOutput(f, f32)
	for _, e := range [][3]modular.NodeIx{{in, m, 0}, {two, m, 1}, {m, out, 0}} {
		_, _, err := s.AddEdge(f, e[0], 0, e[1], signal.InputNo(e[2]))
		require.NoError(t, err)
	}
	return s, f
}

func samples(t *testing.T, e *engine.Engine, no signal.OutputNo) []float32 {
	t.Helper()
	var result []float32
	e.Read(func(out map[signal.OutputNo]signal.Buffer) {
		b, ok := out[no]
		require.True(t, ok)
		result = append(result, b.(*signal.Sampled[float32]).Samples()...)
	})
	return result
}

func filled(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestRequest(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s, f := doubler(t)
	e := engine.New(s, f, engine.WithLogger(logger))
	defer e.Close()

	require.NoError(t, e.Request(bufferSize))
	assert.Equal(t, make([]float32, bufferSize), samples(t, e, 0))

	require.NoError(t, e.Push(e.SetInput(0, signal.F32Value(3))))
	require.NoError(t, e.Request(bufferSize))
	assert.Equal(t, filled(bufferSize, 6), samples(t, e, 0))

	require.NoError(t, e.Request(bufferSize/2))
	assert.Equal(t, filled(bufferSize/2, 6), samples(t, e, 0))

	require.NoError(t, e.Push(e.ResetInput(0)))
	require.NoError(t, e.Request(bufferSize))
	assert.Equal(t, make([]float32, bufferSize), samples(t, e, 0))

	assert.Equal(t, "4", metric.Get(e.MetricLabel())[metric.Blocks])
	assert.Equal(t, "224", metric.Get(e.MetricLabel())[metric.Samples])
}

func TestSetInputMismatch(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	s, f := doubler(t)
	e := engine.New(s, f, engine.WithLogger(logger))
	defer e.Close()

	require.NoError(t, e.Push(e.SetInput(0, signal.U32Value(3))))
	require.NoError(t, e.Request(bufferSize))
	assert.Equal(t, make([]float32, bufferSize), samples(t, e, 0))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "mutation failed", entry.Message)
	assert.ErrorIs(t, entry.Data[logrus.ErrorKey].(error), engine.ErrInputType)
}

func TestModify(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s, f := doubler(t)
	e := engine.New(s, f, engine.WithLogger(logger))
	defer e.Close()

	require.NoError(t, e.Push(e.Modify(func(s *modular.Store) error {
		c := s.AddElement(f, prim.Constant(signal.F32Value(7), nyquist))
		_, out := s.AddOutput(f, f32)
		_, _, err := s.AddEdge(f, c, 0, out, 0)
		return err
	})))
	require.NoError(t, e.Request(bufferSize))
	assert.Equal(t, filled(bufferSize, 7), samples(t, e, 1))
	assert.Equal(t, make([]float32, bufferSize), samples(t, e, 0))
}

func TestStalled(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s, f := doubler(t)
	e := engine.New(s, f, engine.WithLogger(logger), engine.WithTimeout(100*time.Millisecond))
	defer e.Close()

	release := make(chan struct{})
	require.NoError(t, e.Push(e.Modify(func(*modular.Store) error {
		<-release
		return nil
	})))
	err := e.Request(bufferSize)
	assert.True(t, errors.Is(err, engine.ErrStalled))

	close(release)
	require.NoError(t, e.Request(bufferSize))
	require.NoError(t, e.Request(bufferSize))
}

func TestClose(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s, f := doubler(t)
	e := engine.New(s, f, engine.WithLogger(logger))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.ErrorIs(t, e.Request(bufferSize), engine.ErrClosed)
	assert.ErrorIs(t, e.Push(e.SetInput(0, signal.F32Value(1))), engine.ErrClosed)
	// store is released
	s.RemoveNode(f, s.Flow(f).Nodes()[0])
}
