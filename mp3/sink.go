// Package mp3 provides sink that encodes rendered signal into mp3 files.
package mp3

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/viert/lame"

	"pipelined.dev/modular/signal"
)

// Sink allows to send data to mp3 files.
type Sink struct {
	wr     *lame.LameWriter
	closer io.Closer
	ints   []int
	buf    bytes.Buffer
}

// NewSink creates new Sink that writes to w. Quality is lame quality
// from 0 (best) to 9 (worst).
func NewSink(w io.Writer, sampleRate, numChannels, bitRate, quality int) *Sink {
	s := Sink{
		wr: lame.NewWriter(w),
	}
	s.wr.Encoder.SetBitrate(bitRate)
	s.wr.Encoder.SetQuality(quality)
	s.wr.Encoder.SetNumChannels(numChannels)
	s.wr.Encoder.SetInSamplerate(sampleRate)
	s.wr.Encoder.SetMode(lame.JOINT_STEREO)
	s.wr.Encoder.SetVBR(lame.VBR_RH)
	s.wr.Encoder.InitParams()
	return &s
}

// Create creates mp3 file and returns sink that writes to it. File is
// closed with the sink.
func Create(path string, sampleRate, numChannels, bitRate, quality int) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := NewSink(f, sampleRate, numChannels, bitRate, quality)
	s.closer = f
	return s, nil
}

// Write encodes a block of channels as 16 bit PCM.
func (s *Sink) Write(channels ...*signal.Sampled[float32]) error {
	s.ints = signal.AsInterInt(s.ints, signal.BitDepth16, channels...)
	s.buf.Reset()
	for i := range s.ints {
		if err := binary.Write(&s.buf, binary.LittleEndian, int16(s.ints[i])); err != nil {
			return err
		}
	}
	_, err := s.wr.Write(s.buf.Bytes())
	return err
}

// Close flushes encoder and closes the file if sink owns it.
func (s *Sink) Close() error {
	err := s.wr.Close()
	if err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
