package config

import (
	"fmt"
)

// State is the durable character table of the selected profile together with
// the file it is persisted to. It is owned by the daemon's main loop and is
// not safe for concurrent use.
type State struct {
	path string
	cfg  *Config
}

func NewState(path string, cfg *Config) *State {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &State{path: path, cfg: cfg}
}

func (s *State) Path() string { return s.path }

func (s *State) Config() *Config { return s.cfg }

// Profile returns the selected profile.
func (s *State) Profile() *Profile { return s.cfg.Profile() }

func (s *State) Global() GlobalSettings { return s.cfg.Global }

func (s *State) Target() TargetRule { return s.cfg.Target }

// Positions returns a copy of the selected profile's character table.
func (s *State) Positions() map[string]CharacterSettings {
	chars := s.Profile().Characters
	out := make(map[string]CharacterSettings, len(chars))
	for name, settings := range chars {
		out[name] = settings
	}
	return out
}

// Dimensions returns the saved preview size for name. A missing character or
// a size with a zero side yields the global defaults.
func (s *State) Dimensions(name string) (uint16, uint16) {
	w := s.cfg.Global.DefaultThumbnailWidth
	h := s.cfg.Global.DefaultThumbnailHeight
	if name == "" {
		return w, h
	}
	if settings, ok := s.Profile().Characters[name]; ok && settings.Width > 0 && settings.Height > 0 {
		return settings.Width, settings.Height
	}
	return w, h
}

// UpdatePosition records where name's preview sits and saves. An empty name
// is ignored.
func (s *State) UpdatePosition(name string, x, y int16, width, height uint16) error {
	if name == "" {
		return nil
	}
	s.setCharacter(name, CharacterSettings{X: x, Y: y, Width: width, Height: height})
	return s.save()
}

// HandleCharacterChange runs when a window's character changes from oldName
// to newName. The preview's current placement is stored under oldName and
// saved, then newName's saved position is returned, or nil when newName has
// none.
func (s *State) HandleCharacterChange(oldName, newName string, pos Position, width, height uint16) (*Position, error) {
	var saveErr error
	if oldName != "" {
		s.setCharacter(oldName, CharacterSettings{X: pos.X, Y: pos.Y, Width: width, Height: height})
		saveErr = s.save()
	}

	if newName == "" {
		return nil, saveErr
	}
	if settings, ok := s.Profile().Characters[newName]; ok {
		p := settings.Position()
		return &p, saveErr
	}
	return nil, saveErr
}

// ApplyProfile makes p the selected profile and replaces the global settings.
// Characters already remembered for a profile of the same name are kept
// unless p carries its own entry. Nothing is written to disk here.
func (s *State) ApplyProfile(p Profile, global GlobalSettings) error {
	cfg := s.cfg.Clone()
	cfg.Global = global

	next := p.Clone()
	if existing, ok := cfg.FindProfile(p.Name); ok {
		for name, settings := range existing.Characters {
			if _, ok := next.Characters[name]; !ok {
				next.Characters[name] = settings
			}
		}
		*existing = next
	} else {
		cfg.Profiles = append(cfg.Profiles, next)
	}
	cfg.SelectedProfile = p.Name

	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// Replace swaps in a freshly loaded config. Positions recorded in memory for
// characters the new file does not know are carried over.
func (s *State) Replace(cfg *Config) {
	next := cfg.Clone()
	prev := s.Profile()
	if p, ok := next.FindProfile(prev.Name); ok {
		for name, settings := range prev.Characters {
			if _, ok := p.Characters[name]; !ok {
				p.Characters[name] = settings
			}
		}
	}
	s.cfg = next
}

func (s *State) setCharacter(name string, settings CharacterSettings) {
	p := s.Profile()
	if p.Characters == nil {
		p.Characters = make(map[string]CharacterSettings)
	}
	p.Characters[name] = settings
}

// save merges the selected profile's character table into the file on disk
// so edits made to other keys since the daemon started are preserved. A
// profile that exists only in memory is not written.
func (s *State) save() error {
	if s.path == "" {
		return nil
	}

	var onDisk *Config
	exists, err := pathExists(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if exists {
		res, err := LoadFromPath(s.path)
		if err != nil {
			return fmt.Errorf("failed to reload config before save: %w", err)
		}
		onDisk = res.Config
	} else {
		onDisk = s.cfg.Clone()
	}

	current := s.Profile()
	target, ok := onDisk.FindProfile(current.Name)
	if !ok {
		return nil
	}
	if target.Characters == nil {
		target.Characters = make(map[string]CharacterSettings, len(current.Characters))
	}
	for name, settings := range current.Characters {
		target.Characters[name] = settings
	}

	if err := onDisk.SaveTo(s.path); err != nil {
		return fmt.Errorf("failed to save character positions: %w", err)
	}
	return nil
}
