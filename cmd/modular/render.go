package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pipelined.dev/modular/control"
	"pipelined.dev/modular/internal/config"
	"pipelined.dev/modular/mp3"
	"pipelined.dev/modular/render"
	"pipelined.dev/modular/signal"
	"pipelined.dev/modular/wav"
)

// ErrFormat is returned when output file format is not supported.
var ErrFormat = errors.New("unsupported output format")

func renderCmd() *cobra.Command {
	var (
		out  string
		keys string
		note time.Duration
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the patch into wav or mp3 file",
		Long: `Render evaluates the patch offline. Without keys it renders configured
duration of the initial chord. With keys every key is played for note
duration, one after another.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.close()
			if out != "" {
				s.cfg.Output = out
			}
			return s.render(cmd.Context(), keys, note)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, .wav or .mp3")
	cmd.Flags().StringVar(&keys, "keys", "", "keys to play, e.g. \"zxcv q\"")
	cmd.Flags().DurationVar(&note, "note", 250*time.Millisecond, "duration of every key")
	return cmd
}

func (s *session) render(ctx context.Context, keys string, note time.Duration) error {
	if s.cfg.Output == "" {
		return fmt.Errorf("%w: output file is not set", ErrFormat)
	}
	sink, err := openSink(s.cfg)
	if err != nil {
		return err
	}
	if err := s.start(); err != nil {
		sink.Close()
		return err
	}

	var frames int
	if keys == "" {
		frames, err = render.Render(ctx, s.engine, sink, s.patch.outputs, render.Frames(s.cfg.SampleRate, s.cfg.Duration), s.cfg.BufferSize)
	} else {
		frames, err = s.renderKeys(ctx, sink, keys, render.Frames(s.cfg.SampleRate, note))
	}
	if err != nil {
		sink.Close()
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"output":   s.cfg.Output,
		"frames":   frames,
		"duration": signal.DurationOf(s.cfg.SampleRate, int64(frames)),
	}).Info("rendered")
	return nil
}

func (s *session) renderKeys(ctx context.Context, sink render.Sink, keys string, noteFrames int) (int, error) {
	km := control.Keyboard()
	controller := control.NewController(km, s.engine, s.patch.inputs)
	var total int
	for _, k := range km.Keys(keys) {
		if m, ok := controller.Press(k); ok {
			if err := s.engine.Push(m); err != nil {
				return total, err
			}
		}
		frames, err := render.Render(ctx, s.engine, sink, s.patch.outputs, noteFrames, s.cfg.BufferSize)
		total += frames
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func openSink(cfg *config.Config) (render.Sink, error) {
	switch strings.ToLower(filepath.Ext(cfg.Output)) {
	case ".wav":
		return wav.Create(cfg.Output, cfg.SampleRate, cfg.Channels, signal.BitDepth(cfg.BitDepth))
	case ".mp3":
		return mp3.Create(cfg.Output, cfg.SampleRate, cfg.Channels, cfg.MP3.BitRate, cfg.MP3.Quality)
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormat, cfg.Output)
	}
}
