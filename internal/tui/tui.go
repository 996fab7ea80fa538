package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/peektile/internal/config"
)

// Client is the daemon surface the TUI uses. ipc.Client implements it.
type Client interface {
	Ping() error
	Positions() (map[string]config.CharacterSettings, error)
	SetProfile(profile config.Profile, global config.GlobalSettings) error
}

// Run starts the interactive TUI for the config file at configPath. It
// works as an offline browser when the daemon is not running.
func Run(configPath string, client Client) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	m, err := newModel(configPath, client)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
