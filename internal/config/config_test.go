package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/modular/internal/config"
	"pipelined.dev/modular/prim"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint64(22050), cfg.Nyquist())
	assert.Equal(t, prim.ExclusivePerNode, cfg.SharingPolicy())
}

func TestLoad(t *testing.T) {
	path := write(t, "modular.yaml", `
sample_rate: 48000
buffer_size: 128
duration: 2s
output: out.wav
sharing: descriptor
mp3:
  bit_rate: 320
`)
	t.Setenv("MODULAR_BUFFER_SIZE", "256")
	t.Setenv("MODULAR_TIMEOUT", "250ms")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, 256, cfg.BufferSize)
	assert.Equal(t, config.DefaultChannels, cfg.Channels)
	assert.Equal(t, 2*time.Second, cfg.Duration)
	assert.Equal(t, "out.wav", cfg.Output)
	assert.Equal(t, 320, cfg.MP3.BitRate)
	assert.Equal(t, config.DefaultQuality, cfg.MP3.Quality)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, prim.ShareByDescriptor, cfg.SharingPolicy())
}

func TestLoadEnvFile(t *testing.T) {
	env := write(t, ".env", "MODULAR_CHANNELS=1\nMODULAR_BIT_DEPTH=32\n")
	t.Cleanup(func() {
		os.Unsetenv("MODULAR_CHANNELS")
		os.Unsetenv("MODULAR_BIT_DEPTH")
	})

	cfg, err := config.Load("", env)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Channels)
	assert.Equal(t, 32, cfg.BitDepth)

	_, err = config.Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	var tests = []struct {
		description string
		yaml        string
		env         map[string]string
	}{
		{
			description: "unsupported bit depth",
			yaml:        "bit_depth: 24",
		},
		{
			description: "odd sample rate",
			yaml:        "sample_rate: 44101",
		},
		{
			description: "unknown field",
			yaml:        "samplerate: 44100",
		},
		{
			description: "unknown sharing",
			yaml:        "sharing: everything",
		},
		{
			description: "zero buffer size",
			env:         map[string]string{"MODULAR_BUFFER_SIZE": "0"},
		},
		{
			description: "malformed duration",
			env:         map[string]string{"MODULAR_DURATION": "forever"},
		},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			for k, v := range test.env {
				t.Setenv(k, v)
			}
			path := write(t, "modular.yaml", test.yaml)
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidateEvenSampleRate(t *testing.T) {
	cfg := config.Default()
	cfg.SampleRate = 44101
	err := cfg.Validate()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "SampleRate", verrs[0].Field())
	assert.Equal(t, "even", verrs[0].Tag())

	cfg.SampleRate = 48000
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, uint64(24000), cfg.Nyquist())
}
