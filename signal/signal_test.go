package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/modular/signal"
)

func sampled(values ...float32) *signal.Sampled[float32] {
	b := signal.NewSampled[float32](len(values))
	copy(b.Samples(), values)
	return b
}

func TestInterleave(t *testing.T) {
	tests := []struct {
		description string
		channels    []*signal.Sampled[float32]
		dstSize     int
		frames      int
		expected    []float32
	}{
		{
			description: "stereo",
			channels:    []*signal.Sampled[float32]{sampled(1, 1, 1), sampled(2, 2, 2)},
			dstSize:     6,
			frames:      3,
			expected:    []float32{1, 2, 1, 2, 1, 2},
		},
		{
			description: "short channel",
			channels:    []*signal.Sampled[float32]{sampled(1, 1, 1), sampled(2)},
			dstSize:     6,
			frames:      1,
			expected:    []float32{1, 2, 0, 0, 0, 0},
		},
		{
			description: "short destination",
			channels:    []*signal.Sampled[float32]{sampled(1, 1, 1), sampled(2, 2, 2)},
			dstSize:     4,
			frames:      2,
			expected:    []float32{1, 2, 1, 2},
		},
		{
			description: "no channels",
			dstSize:     2,
			expected:    []float32{0, 0},
		},
	}
	for _, test := range tests {
		dst := make([]float32, test.dstSize)
		frames := signal.Interleave(dst, test.channels...)
		assert.Equal(t, test.frames, frames, test.description)
		assert.Equal(t, test.expected, dst, test.description)
	}
}

func TestAsInterInt(t *testing.T) {
	tests := []struct {
		description string
		channels    []*signal.Sampled[float32]
		bitDepth    signal.BitDepth
		expected    []int
	}{
		{
			description: "16 bit",
			channels:    []*signal.Sampled[float32]{sampled(1, 0), sampled(-1, 0.5)},
			bitDepth:    signal.BitDepth16,
			expected:    []int{math.MaxInt16 - 1, -(math.MaxInt16 - 1), 0, (math.MaxInt16 - 1) / 2},
		},
		{
			description: "clipping",
			channels:    []*signal.Sampled[float32]{sampled(2, -3)},
			bitDepth:    signal.BitDepth8,
			expected:    []int{math.MaxInt8 - 1, -(math.MaxInt8 - 1)},
		},
		{
			description: "no channels",
			bitDepth:    signal.BitDepth16,
			expected:    []int{},
		},
	}
	for _, test := range tests {
		result := signal.AsInterInt(nil, test.bitDepth, test.channels...)
		if len(test.expected) == 0 {
			assert.Empty(t, result, test.description)
			continue
		}
		assert.Equal(t, test.expected, result, test.description)
	}
}

func TestAsInterIntReusesDestination(t *testing.T) {
	dst := make([]int, 0, 16)
	result := signal.AsInterInt(dst, signal.BitDepth16, sampled(0, 0), sampled(0, 0))
	assert.Equal(t, 4, len(result))
	assert.Equal(t, 16, cap(result))
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 500*time.Millisecond, signal.DurationOf(48000, 24000))
}
