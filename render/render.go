// Package render evaluates flows offline and writes the signal to sinks.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pipelined.dev/modular/signal"
)

var (
	// ErrUnknownOutput is returned when rendered output is not declared
	// by the flow.
	ErrUnknownOutput = errors.New("unknown output")
	// ErrOutputType is returned when rendered output doesn't carry float32
	// samples.
	ErrOutputType = errors.New("output is not sampled float32")
)

type (
	// Sink consumes rendered blocks. Channels are valid only during
	// Write call.
	Sink interface {
		Write(channels ...*signal.Sampled[float32]) error
		Close() error
	}

	// Source evaluates blocks on request. It's implemented by
	// engine.Engine.
	Source interface {
		Request(bufferSize int) error
		Read(func(map[signal.OutputNo]signal.Buffer))
	}
)

// Frames returns number of frames in duration at provided sample rate.
func Frames(sampleRate int, d time.Duration) int {
	return int(int64(sampleRate) * int64(d) / int64(time.Second))
}

// Render requests blocks of bufferSize from the source until the number
// of frames is reached and writes provided outputs to the sink as
// channels. The last block is shortened to fit frames. Number of
// rendered frames is returned. Sink is not closed.
func Render(ctx context.Context, src Source, sink Sink, outputs []signal.OutputNo, frames, bufferSize int) (int, error) {
	channels := make([]*signal.Sampled[float32], len(outputs))
	var rendered int
	for rendered < frames {
		select {
		case <-ctx.Done():
			return rendered, ctx.Err()
		default:
		}
		n := min(bufferSize, frames-rendered)
		if err := src.Request(n); err != nil {
			return rendered, fmt.Errorf("request block: %w", err)
		}
		var err error
		src.Read(func(out map[signal.OutputNo]signal.Buffer) {
			for i, no := range outputs {
				b, ok := out[no]
				if !ok {
					err = fmt.Errorf("%w: %d", ErrUnknownOutput, no)
					return
				}
				s, ok := b.(*signal.Sampled[float32])
				if !ok {
					err = fmt.Errorf("%w: output %d is %v %v", ErrOutputType, no, b.Shape(), b.Prim())
					return
				}
				channels[i] = s
			}
			err = sink.Write(channels...)
		})
		if err != nil {
			return rendered, err
		}
		rendered += n
	}
	return rendered, nil
}

// Interleaver fills interleaved buffers of audio devices from a source.
type Interleaver struct {
	src      Source
	outputs  []signal.OutputNo
	channels []*signal.Sampled[float32]
}

// NewInterleaver returns interleaver that maps outputs to device
// channels in provided order.
func NewInterleaver(src Source, outputs []signal.OutputNo) *Interleaver {
	return &Interleaver{
		src:      src,
		outputs:  outputs,
		channels: make([]*signal.Sampled[float32], len(outputs)),
	}
}

// NumChannels returns number of interleaved channels.
func (i *Interleaver) NumChannels() int {
	return len(i.outputs)
}

// Fill requests a block that fits dst and interleaves it into dst.
// Frames that can't be filled are silenced.
func (i *Interleaver) Fill(dst []float32) error {
	n := len(i.outputs)
	if n == 0 {
		clear(dst)
		return nil
	}
	if err := i.src.Request(len(dst) / n); err != nil {
		clear(dst)
		return fmt.Errorf("request block: %w", err)
	}
	var err error
	i.src.Read(func(out map[signal.OutputNo]signal.Buffer) {
		for j, no := range i.outputs {
			s, ok := out[no].(*signal.Sampled[float32])
			if !ok {
				err = fmt.Errorf("%w: %d", ErrOutputType, no)
				return
			}
			i.channels[j] = s
		}
		frames := signal.Interleave(dst, i.channels...)
		clear(dst[frames*n:])
	})
	if err != nil {
		clear(dst)
	}
	return err
}
