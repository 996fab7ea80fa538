package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/config"
)

const (
	ServerName    = "peektile"
	ServerVersion = "0.1.0"
)

// Daemon is the IPC surface the tools drive. ipc.Client implements it.
type Daemon interface {
	Ping() error
	Positions() (map[string]config.CharacterSettings, error)
	SetProfile(profile config.Profile, global config.GlobalSettings) error
	Shutdown() error
}

// Server exposes the preview daemon to MCP clients.
type Server struct {
	mcpServer  *mcpsdk.Server
	daemon     Daemon
	socketPath string
	configPath string
	logger     zerolog.Logger

	// loadConfig is replaced in tests.
	loadConfig func(path string) (*config.LoadResult, error)
}

// NewServer creates an MCP server that talks to the daemon listening on
// socketPath. configPath names the file profiles are read from.
func NewServer(daemon Daemon, socketPath, configPath string, logger zerolog.Logger) *Server {
	s := &Server{
		daemon:     daemon,
		socketPath: socketPath,
		configPath: configPath,
		logger:     logger,
		loadConfig: config.LoadFromPath,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "preview_ping",
		Description: "Check whether the preview daemon is running and reachable on its control socket.",
	}, s.handlePing)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "preview_positions",
		Description: "List the remembered preview position and size of every character in the active profile, sorted by character name.",
	}, s.handlePositions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "preview_list_profiles",
		Description: "List the profiles defined in the config file and which one is selected.",
	}, s.handleListProfiles)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "preview_set_profile",
		Description: "Switch the running daemon to a profile from the config file. Every preview is rebuilt with the profile's settings; remembered positions are kept.",
	}, s.handleSetProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "preview_shutdown",
		Description: "Stop the preview daemon. All previews are removed.",
	}, s.handleShutdown)
}
