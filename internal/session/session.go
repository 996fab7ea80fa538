package session

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/peektile/internal/config"
)

// State caches the last observed position of each preview by source window.
// It lives for one process and is never written to disk.
type State struct {
	positions map[xproto.Window]config.Position
}

func New() *State {
	return &State{positions: make(map[xproto.Window]config.Position)}
}

// GetPosition resolves where the preview for window should be placed.
// A durable position for a named character always wins. Otherwise the
// window's last session position is used when the window has no character
// yet, or when allowInherit lets a new character take over the spot of the
// previous one. A nil result means the caller picks a default.
func (s *State) GetPosition(name string, window xproto.Window, durable map[string]config.CharacterSettings, allowInherit bool) *config.Position {
	if name != "" {
		if settings, ok := durable[name]; ok {
			pos := settings.Position()
			return &pos
		}
		if !allowInherit {
			return nil
		}
	}
	if pos, ok := s.positions[window]; ok {
		return &pos
	}
	return nil
}

// UpdateWindowPosition records the position of window's preview.
func (s *State) UpdateWindowPosition(window xproto.Window, x, y int16) {
	s.positions[window] = config.Position{X: x, Y: y}
}

// Forget drops the cached position of window.
func (s *State) Forget(window xproto.Window) {
	delete(s.positions, window)
}
