// Command nodeedit is a terminal node-graph editor.
package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/ha1tch/nodegraph/internal/config"
)

func main() {
	var (
		configPath string
		empty      bool
	)

	cmd := &cobra.Command{
		Use:   "nodeedit",
		Short: "Edit a node graph in the terminal",
		Long: `Drag nodes with the mouse, drag from an output port (right side) to an
input port (left side) to connect them, and scroll to zoom.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if empty {
				cfg.Editor.Seed = false
			}
			// The terminal owns stdout and stderr; log to the configured file only.
			logger, closeLog, err := cfg.Log.NewLogger(nil)
			if err != nil {
				return err
			}
			defer closeLog()

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("init screen: %w", err)
			}
			defer screen.Fini()

			ed := newEditor(screen, cfg, logger)
			ed.run()
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default "+config.Path()+")")
	cmd.Flags().BoolVar(&empty, "empty", false, "start from an empty canvas")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "nodeedit: %v\n", err)
		os.Exit(1)
	}
}
