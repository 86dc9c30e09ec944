package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/jbridge/bridge"
	"github.com/wippyai/jbridge/config"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/proxy"
	"github.com/wippyai/jbridge/reflection"
	"github.com/wippyai/jbridge/simvm"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:               "jbridge",
	Short:             "Inspect and call managed classes through the bridge",
	Long:              "jbridge runs the bridge against the in-process demo runtime: it lists class members, calls them, renders WIT and offers an interactive explorer.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log bridge activity to stderr")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Class configuration file (TOML)")
}

func setupLogging(*cobra.Command, []string) error {
	if !verbose {
		return nil
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	jvm.SetLogger(l.Named("jvm"))
	reflection.SetLogger(l.Named("reflection"))
	proxy.SetLogger(l.Named("proxy"))
	bridge.SetLogger(l.Named("bridge"))
	return nil
}

// session is a bridge over a fresh demo runtime.
type session struct {
	rt *simvm.Runtime
	b  *bridge.Bridge
}

func open() (*session, error) {
	var cfg *config.File
	if configPath != "" {
		f, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = f
	}

	rt := simvm.New()
	if err := rt.Define(simvm.Demo()...); err != nil {
		return nil, err
	}
	b, err := bridge.New(jvm.NewLoader(rt.Opener()), bridge.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	return &session{rt: rt, b: b}, nil
}

func (s *session) Close() {
	if err := s.b.Close(); err != nil {
		bridge.Logger().Warn("close bridge", zap.Error(err))
	}
}

// demoClasses lists the application classes of the demo runtime.
func demoClasses() []string {
	var names []string
	for _, c := range simvm.Demo() {
		names = append(names, c.Name)
	}
	return names
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
