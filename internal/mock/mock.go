// Package mock provides mocks for rendering components and allows to
// execute tests without engine or devices.
package mock

import (
	"pipelined.dev/modular/signal"
)

// Source mocks render.Source. Every requested block contains Value in
// every output.
type Source struct {
	counter
	Value       float32
	NumOutputs  int
	ErrorOnCall error
	outputs     map[signal.OutputNo]signal.Buffer
}

// Request fills outputs with a block of Value.
func (m *Source) Request(bufferSize int) error {
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	if m.outputs == nil {
		m.outputs = make(map[signal.OutputNo]signal.Buffer, m.NumOutputs)
		for i := 0; i < m.NumOutputs; i++ {
			m.outputs[signal.OutputNo(i)] = signal.NewSampled[float32](0)
		}
	}
	for _, b := range m.outputs {
		s := b.(*signal.Sampled[float32])
		s.UpdateSize(bufferSize)
		s.Fill(m.Value)
	}
	m.advance(bufferSize)
	return nil
}

// Read calls fn with outputs of the last block.
func (m *Source) Read(fn func(map[signal.OutputNo]signal.Buffer)) {
	fn(m.outputs)
}

// Sink mocks render.Sink. It keeps copies of written channels.
type Sink struct {
	counter
	ErrorOnCall error
	Closed      bool
	channels    [][]float32
}

// Write appends a block of channels.
func (m *Sink) Write(channels ...*signal.Sampled[float32]) error {
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	if m.channels == nil {
		m.channels = make([][]float32, len(channels))
	}
	for i, c := range channels {
		m.channels[i] = append(m.channels[i], c.Samples()...)
	}
	if len(channels) > 0 {
		m.advance(channels[0].Len())
	}
	return nil
}

// Close marks sink closed.
func (m *Sink) Close() error {
	m.Closed = true
	return nil
}

// Channels returns all written samples per channel.
func (m *Sink) Channels() [][]float32 {
	return m.channels
}

type counter struct {
	blocks  int
	samples int
}

func (c *counter) advance(size int) {
	c.blocks++
	c.samples += size
}

// Count returns number of blocks and samples.
func (c *counter) Count() (int, int) {
	return c.blocks, c.samples
}
