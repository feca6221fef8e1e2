// Command modular renders and plays the demo synth patch.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pipelined.dev/modular"
	"pipelined.dev/modular/control"
	"pipelined.dev/modular/engine"
	"pipelined.dev/modular/internal/config"
	"pipelined.dev/modular/log"
	"pipelined.dev/modular/signal"
)

var (
	configPath string
	envFiles   []string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "modular",
	Short: "Modular is a typed DSP graph synth",
	Long: `Modular builds a two-voice synth patch out of typed processing graphs
and either renders it into a file or plays it on the default audio device.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(renderCmd(), playCmd(), graphCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session holds everything commands need to run the patch.
type session struct {
	cfg    *config.Config
	log    *logrus.Logger
	store  *modular.Store
	patch  *patch
	engine *engine.Engine
}

func newSession() (*session, error) {
	cfg, err := config.Load(configPath, envFiles...)
	if err != nil {
		return nil, err
	}
	l := log.GetLogger()
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	s := modular.NewStore(modular.WithLogger(l), modular.WithSharing(cfg.SharingPolicy()))
	p, err := buildPatch(s, cfg.Nyquist(), cfg.Channels)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:   cfg,
		log:   l,
		store: s,
		patch: p,
	}, nil
}

// start starts engine with both tracks tuned to the first keys of their
// keyboard rows.
func (s *session) start() error {
	s.engine = engine.New(s.store, s.patch.flow,
		engine.WithLogger(s.log),
		engine.WithTimeout(s.cfg.Timeout),
		engine.WithSampleRate(s.cfg.SampleRate),
	)
	return s.engine.Push(
		s.engine.SetInput(s.patch.inputs[0], signal.F32Value(float32(control.Pitch(-1)))),
		s.engine.SetInput(s.patch.inputs[1], signal.F32Value(float32(control.Pitch(11)))),
	)
}

func (s *session) close() error {
	if s.engine == nil {
		return nil
	}
	return s.engine.Close()
}
