// Package wav provides sink that encodes rendered signal into wav files.
package wav

import (
	"errors"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/modular/signal"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")

// pcmFormat is wav audio format for PCM data.
const pcmFormat = 1

// Sink encodes float32 channels into wav stream.
type Sink struct {
	bitDepth signal.BitDepth
	encoder  *wav.Encoder
	buffer   *audio.IntBuffer
	closer   io.Closer
}

// NewSink creates new wav sink that writes to ws.
func NewSink(ws io.WriteSeeker, sampleRate, numChannels int, bitDepth signal.BitDepth) (*Sink, error) {
	if bitDepth != signal.BitDepth16 && bitDepth != signal.BitDepth32 {
		return nil, ErrUnsupportedBitDepth
	}
	return &Sink{
		bitDepth: bitDepth,
		encoder:  wav.NewEncoder(ws, sampleRate, int(bitDepth), numChannels, pcmFormat),
		buffer: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: numChannels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

// Create creates wav file and returns sink that writes to it. File is
// closed with the sink.
func Create(path string, sampleRate, numChannels int, bitDepth signal.BitDepth) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSink(f, sampleRate, numChannels, bitDepth)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// Write encodes a block of channels.
func (s *Sink) Write(channels ...*signal.Sampled[float32]) error {
	s.buffer.Data = signal.AsInterInt(s.buffer.Data, s.bitDepth, channels...)
	return s.encoder.Write(s.buffer)
}

// Close flushes encoder and closes the file if sink owns it.
func (s *Sink) Close() error {
	err := s.encoder.Close()
	if err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
