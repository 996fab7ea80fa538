package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/ipc"
	"github.com/1broseidon/peektile/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the global flags shared by every subcommand.
type app struct {
	configPath string
	socketPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "peektile",
		Short: "Live window previews for EVE Online clients on X11",
		Long: `peektile shows a small live preview of every EVE Online client window
running under Wine. Click a preview to focus its client, drag it with the
right button to move it, and cycle between clients with hotkeys.

Preview positions are remembered per character in the config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := a.logLevel
			if level == "" {
				level = "info"
			}
			logging.Init(level, logging.StderrIsTerminal())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/peektile/config.yaml)")
	root.PersistentFlags().StringVar(&a.socketPath, "socket", "", "daemon socket (default is $XDG_RUNTIME_DIR/peektile/preview.sock)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newDaemonCmd(a),
		newPingCmd(a),
		newPositionsCmd(a),
		newShutdownCmd(a),
		newWatchCmd(a),
		newProfileCmd(a),
		newConfigCmd(a),
		newTUICmd(a),
		newMCPCmd(a),
	)
	return root
}

func (a *app) client() *ipc.Client {
	if a.socketPath != "" {
		return ipc.NewClientAt(a.socketPath)
	}
	return ipc.NewClient()
}

// load reads the config file named by --config, or the default one.
func (a *app) load() (*config.LoadResult, error) {
	path, err := config.ResolvePath(a.configPath)
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(path)
}
