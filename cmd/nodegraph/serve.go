package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ha1tch/nodegraph/internal/server"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a shared canvas over a websocket",
		Long: `Serve one canvas to websocket clients on /ws. Clients send events and
receive frames; /frame.svg renders the current frame and /healthz reports status.

  nodegraph serve
  nodegraph serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			srv, err := server.New(a.cfg, a.log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "  %s on %s\n", brand.Sprint("nodegraph serve"), a.cfg.Server.Addr)
			if n := len(a.cfg.Server.Commands); n > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", subtle.Sprintf("%d invokable commands", n))
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
