package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ha1tch/nodegraph/internal/config"
)

var version = "0.3.0"

// app carries state shared by subcommands once the root has run.
type app struct {
	configPath string
	logLevel   string

	cfg      *config.Config
	log      *slog.Logger
	closeLog func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "nodegraph",
		Short: "nodegraph: node-graph canvas server and renderer",
		Long: brand.Sprint("nodegraph") + " drives a node-graph canvas: drag nodes, wire ports, zoom.\n" +
			subtle.Sprint("Serve it over a websocket, or render a scripted session to SVG/PNG."),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
	}
	root.SetVersionTemplate("nodegraph {{ .Version }}\n")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		serveCmd(a),
		renderCmd(a),
		configCmd(a),
		versionCmd(),
	)

	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, closeFn, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.log, a.closeLog = cfg, logger, closeFn
	return nil
}
