package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"pipelined.dev/modular/control"
	"pipelined.dev/modular/mutable"
	"pipelined.dev/modular/portaudio"
	"pipelined.dev/modular/render"
)

func playCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play the patch on default audio device",
		Long: `Play starts the patch on default audio device and reads keys from
standard input line by line. Lower keyboard row plays the first voice,
upper row plays the second one. Type "quit" to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.close()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return s.play(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func (s *session) play(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := s.start(); err != nil {
		return err
	}
	player, err := portaudio.Open(render.NewInterleaver(s.engine, s.patch.outputs), s.cfg.SampleRate, s.cfg.BufferSize, portaudio.WithLogger(s.log))
	if err != nil {
		return err
	}
	if err := player.Start(); err != nil {
		player.Close()
		return err
	}

	pusher := mutable.NewPusher()
	pusher.AddDestination(s.engine.Context, s.engine.Destination())
	controller := control.NewController(control.Keyboard(), s.engine, s.patch.inputs)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, `type keys and press enter, "quit" to stop`)
	err = s.readKeys(ctx, lines, pusher, controller, player)
	if cerr := player.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *session) readKeys(ctx context.Context, lines <-chan string, pusher mutable.Pusher, controller *control.Controller, player *portaudio.Player) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "quit" {
				return nil
			}
			pusher.Put(controller.Type(line)...)
			if err := pusher.Push(ctx); err != nil {
				return nil
			}
			if err := player.Err(); err != nil {
				return err
			}
		}
	}
}
