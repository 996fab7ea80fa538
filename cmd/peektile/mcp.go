package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/logging"
	"github.com/1broseidon/peektile/internal/mcp"
	"github.com/1broseidon/peektile/internal/runtimepath"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server on stdio. Designed to be invoked by MCP clients.

The server exposes the running daemon as tools: preview_ping,
preview_positions, preview_list_profiles, preview_set_profile and
preview_shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.ResolvePath(a.configPath)
			if err != nil {
				return err
			}
			socketPath := a.socketPath
			if socketPath == "" {
				if socketPath, err = runtimepath.SocketPath(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := mcp.NewServer(a.client(), socketPath, configPath, logging.WithComponent("mcp"))
			return server.Run(ctx)
		},
	}

	cmd.AddCommand(serve)
	return cmd
}
