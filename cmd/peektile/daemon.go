package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/peektile/internal/daemon"
)

func newDaemonCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the preview daemon in the foreground",
		Long: `Run the preview daemon in the foreground.

The daemon connects to the X server named by $DISPLAY, creates a preview for
every EVE Online client it finds and keeps them in sync until it receives
SIGINT, SIGTERM or a shutdown request. SIGHUP reloads the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := daemon.New(daemon.Options{
				ConfigPath: a.configPath,
				SocketPath: a.socketPath,
				Watch:      watch,
				LogLevel:   a.logLevel,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return d.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", true, "reload when the config file changes")
	return cmd
}
