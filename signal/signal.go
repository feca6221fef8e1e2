// Package signal provides the value and buffer model of the processing
// graph. It allows to:
// 	- describe connection types (sampled or event, primitive kind, nyquist)
// 	- carry per-block samples and events in reusable buffers
// 	- convert float32 channels to interleaved data for sinks and drivers
package signal

import (
	"math"
	"time"
)

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for float-to-int conversion.
type BitDepth int

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// Interleave writes channels into interleaved dst. Length of dst must be
// at least number of channels multiplied by the shortest channel length.
// Number of frames written is returned.
func Interleave(dst []float32, channels ...*Sampled[float32]) int {
	numChannels := len(channels)
	if numChannels == 0 {
		return 0
	}
	frames := channels[0].Len()
	for _, c := range channels[1:] {
		frames = min(frames, c.Len())
	}
	frames = min(frames, len(dst)/numChannels)
	for j, c := range channels {
		samples := c.Samples()
		for i := 0; i < frames; i++ {
			dst[i*numChannels+j] = samples[i]
		}
	}
	return frames
}

// AsInterInt converts float32 channels to interleaved ints of provided
// bit depth. The result is written into dst, which is grown if needed,
// and returned.
func AsInterInt(dst []int, bitDepth BitDepth, channels ...*Sampled[float32]) []int {
	numChannels := len(channels)
	if numChannels == 0 {
		return dst[:0]
	}
	frames := channels[0].Len()
	for _, c := range channels[1:] {
		frames = min(frames, c.Len())
	}
	n := frames * numChannels
	if cap(dst) < n {
		dst = make([]int, n)
	}
	dst = dst[:n]

	// determine the multiplier for bit depth conversion
	multiplier := float64(bitDepth.multiplier())
	for j, c := range channels {
		samples := c.Samples()
		for i := 0; i < frames; i++ {
			dst[i*numChannels+j] = int(float64(clamp(samples[i])) * multiplier)
		}
	}
	return dst
}

func clamp(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
