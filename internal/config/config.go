// Package config loads settings of modular command.
//
// Settings come from optional YAML file and are overridden by
// environment variables. Variables are also loaded from .env files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pipelined.dev/modular/prim"
)

// EnvPrefix is a prefix of environment variables.
const EnvPrefix = "MODULAR_"

// Defaults follow the common 44.1 kHz stereo setup with 64 frames
// blocks.
const (
	DefaultSampleRate = 44100
	DefaultBufferSize = 64
	DefaultChannels   = 2
	DefaultBitDepth   = 16
	DefaultBitRate    = 192
	DefaultQuality    = 2
	DefaultTimeout    = time.Second
	DefaultDuration   = 5 * time.Second
)

var validate = validator.New()

type (
	// Config holds settings of rendering and playback.
	Config struct {
		SampleRate int           `yaml:"sample_rate" validate:"min=8000,max=192000,even"`
		BufferSize int           `yaml:"buffer_size" validate:"min=1,max=65536"`
		Channels   int           `yaml:"channels" validate:"min=1,max=8"`
		Duration   time.Duration `yaml:"duration" validate:"gt=0"`
		Output     string        `yaml:"output"`
		BitDepth   int           `yaml:"bit_depth" validate:"oneof=16 32"`
		MP3        MP3           `yaml:"mp3"`
		Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
		Sharing    string        `yaml:"sharing" validate:"omitempty,oneof=node descriptor"`
	}

	// MP3 holds settings of mp3 encoder.
	MP3 struct {
		BitRate int `yaml:"bit_rate" validate:"min=32,max=320"`
		Quality int `yaml:"quality" validate:"min=0,max=9"`
	}
)

// even keeps nyquist frequency integral.
func init() {
	err := validate.RegisterValidation("even", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%2 == 0
	})
	if err != nil {
		panic(fmt.Sprintf("register even validation: %v", err))
	}
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultBufferSize,
		Channels:   DefaultChannels,
		Duration:   DefaultDuration,
		BitDepth:   DefaultBitDepth,
		MP3: MP3{
			BitRate: DefaultBitRate,
			Quality: DefaultQuality,
		},
		Timeout: DefaultTimeout,
	}
}

// Load reads configuration from YAML file at path, if it's not empty,
// and applies environment overrides. If no env files are provided, .env
// in working directory is loaded when it exists.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(envFiles...); err != nil && (len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist)) {
		return nil, fmt.Errorf("load env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Nyquist returns nyquist frequency of configured sample rate.
func (c *Config) Nyquist() uint64 {
	return uint64(c.SampleRate / 2)
}

// SharingPolicy returns primitive sharing policy.
func (c *Config) SharingPolicy() prim.Sharing {
	// validated
	s, _ := prim.ParseSharing(c.Sharing)
	return s
}

func (c *Config) applyEnv() error {
	var err error
	setInt := func(name string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && err == nil {
			*dst, err = strconv.Atoi(v)
			if err != nil {
				err = fmt.Errorf("parse %s%s: %w", EnvPrefix, name, err)
			}
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && err == nil {
			*dst, err = time.ParseDuration(v)
			if err != nil {
				err = fmt.Errorf("parse %s%s: %w", EnvPrefix, name, err)
			}
		}
	}
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	setInt("SAMPLE_RATE", &c.SampleRate)
	setInt("BUFFER_SIZE", &c.BufferSize)
	setInt("CHANNELS", &c.Channels)
	setDuration("DURATION", &c.Duration)
	setString("OUTPUT", &c.Output)
	setInt("BIT_DEPTH", &c.BitDepth)
	setInt("MP3_BIT_RATE", &c.MP3.BitRate)
	setInt("MP3_QUALITY", &c.MP3.Quality)
	setDuration("TIMEOUT", &c.Timeout)
	setString("SHARING", &c.Sharing)
	return err
}
