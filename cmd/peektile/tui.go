package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/peektile/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive monitor",
		Long: `Open the interactive monitor.

Shows live preview positions polled from the daemon, lets you push a profile
and edit the selected profile's settings. Works offline from the config file
when the daemon is not running.

Keybindings:
  tab, 1-3   Switch tabs
  enter, a   Push the selected profile to the daemon (Profiles)
  e          Edit settings (Settings)
  ctrl+s     Review and save changes
  q          Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(a.configPath, a.client())
		},
	}
}
