// Package hotkeys turns keyboard input into cycle commands for the daemon.
// Listeners run on their own goroutines and only ever send on a channel.
package hotkeys

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/x11"
)

// Command is an abstract cycle request.
type Command int

const (
	Forward Command = iota
	Backward
)

func (c Command) String() string {
	switch c {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Source delivers cycle commands until closed.
type Source interface {
	Commands() <-chan Command
	Close()
}

// Open starts the backend named in cfg. The none backend returns a source
// whose channel never fires.
func Open(cfg config.HotkeyConfig, conn *x11.Connection, buffer int, logger zerolog.Logger) (Source, error) {
	switch cfg.Backend {
	case config.HotkeyBackendEvdev, "":
		l, err := StartEvdev(cfg.DevicesDir, buffer, logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.HotkeyBackendX11:
		l, err := StartX11(conn, cfg.Forward, cfg.Backward, buffer, logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.HotkeyBackendNone:
		return disabled{}, nil
	}
	return nil, fmt.Errorf("unknown hotkey backend %q", cfg.Backend)
}

type disabled struct{}

func (disabled) Commands() <-chan Command { return nil }
func (disabled) Close()                   {}
