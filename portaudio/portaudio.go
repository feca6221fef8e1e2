// Package portaudio plays flows on the default audio device.
package portaudio

import (
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"pipelined.dev/modular/log"
	"pipelined.dev/modular/render"
)

type (
	// Player streams interleaved blocks of the source to default output
	// device. Every device callback requests one block.
	Player struct {
		interleaver *render.Interleaver
		stream      *portaudio.Stream
		log         logrus.FieldLogger

		mu  sync.Mutex
		err error
	}

	// Option provides a way to set functional parameters to player.
	Option func(*Player)
)

// WithLogger sets logger to the player.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Player) {
		p.log = l
	}
}

// Open initializes portaudio and opens default output stream for the
// interleaver channels.
func Open(interleaver *render.Interleaver, sampleRate, bufferSize int, options ...Option) (*Player, error) {
	p := &Player{
		interleaver: interleaver,
	}
	for _, option := range options {
		option(p)
	}
	if p.log == nil {
		p.log = log.GetLogger()
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	stream, err := portaudio.OpenDefaultStream(0, interleaver.NumChannels(), float64(sampleRate), bufferSize, p.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	p.stream = stream
	return p, nil
}

// Start starts the playback.
func (p *Player) Start() error {
	p.log.Info("playback started")
	return p.stream.Start()
}

// Err returns the first error that occurred in device callback.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close stops the stream and terminates portaudio.
func (p *Player) Close() error {
	err := p.stream.Stop()
	if err != nil {
		return err
	}
	err = p.stream.Close()
	if err != nil {
		return err
	}
	p.log.Info("playback stopped")
	return portaudio.Terminate()
}

func (p *Player) callback(out []float32) {
	if err := p.interleaver.Fill(out); err != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.err == nil {
			p.err = err
			p.log.WithError(err).Error("device callback failed")
		}
	}
}
