package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig layers raw over DefaultConfig. A file without any
// profiles gets the default profile.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.SelectedProfile != nil {
		cfg.SelectedProfile = strings.TrimSpace(*raw.SelectedProfile)
	}

	if g := raw.Global; g != nil {
		if g.LogLevel != nil {
			cfg.Global.LogLevel = *g.LogLevel
		}
		if g.MinimizeClientsOnSwitch != nil {
			cfg.Global.MinimizeClientsOnSwitch = *g.MinimizeClientsOnSwitch
		}
		if g.PreserveThumbnailPositionOnSwap != nil {
			cfg.Global.PreserveThumbnailPositionOnSwap = *g.PreserveThumbnailPositionOnSwap
		}
		if g.DefaultThumbnailWidth != nil {
			cfg.Global.DefaultThumbnailWidth = *g.DefaultThumbnailWidth
		}
		if g.DefaultThumbnailHeight != nil {
			cfg.Global.DefaultThumbnailHeight = *g.DefaultThumbnailHeight
		}
		if g.ReconcileIntervalSeconds != nil {
			cfg.Global.ReconcileIntervalSeconds = *g.ReconcileIntervalSeconds
		}
		if h := g.Hotkeys; h != nil {
			if h.Backend != nil {
				cfg.Global.Hotkeys.Backend = strings.ToLower(strings.TrimSpace(*h.Backend))
			}
			if h.DevicesDir != nil {
				cfg.Global.Hotkeys.DevicesDir = *h.DevicesDir
			}
			if h.Forward != nil {
				cfg.Global.Hotkeys.Forward = *h.Forward
			}
			if h.Backward != nil {
				cfg.Global.Hotkeys.Backward = *h.Backward
			}
		}
	}

	if t := raw.Target; t != nil {
		if t.TitlePrefix != nil {
			cfg.Target.TitlePrefix = *t.TitlePrefix
		}
		if t.LoggedOutTitle != nil {
			cfg.Target.LoggedOutTitle = *t.LoggedOutTitle
		}
		if t.LoggedOutLabel != nil {
			cfg.Target.LoggedOutLabel = *t.LoggedOutLabel
		}
		if t.ProcessMarkers != nil {
			cfg.Target.ProcessMarkers = append([]string(nil), t.ProcessMarkers...)
		}
	}

	if len(raw.Profiles) > 0 {
		cfg.Profiles = make([]Profile, 0, len(raw.Profiles))
		for i, rp := range raw.Profiles {
			p, err := buildProfile(rp)
			if err != nil {
				return nil, &ValidationError{Path: fmt.Sprintf("profiles[%d]", i), Err: err}
			}
			cfg.Profiles = append(cfg.Profiles, p)
		}
		if raw.SelectedProfile == nil {
			cfg.SelectedProfile = cfg.Profiles[0].Name
		}
	}

	return cfg, nil
}

func buildProfile(rp RawProfile) (Profile, error) {
	p := DefaultProfile()
	p.Description = ""

	if rp.Name == nil {
		return Profile{}, fmt.Errorf("name is required")
	}
	p.Name = strings.TrimSpace(*rp.Name)
	if rp.Description != nil {
		p.Description = *rp.Description
	}
	if rp.OpacityPercent != nil {
		p.OpacityPercent = *rp.OpacityPercent
	}
	if rp.BorderEnabled != nil {
		p.BorderEnabled = *rp.BorderEnabled
	}
	if rp.BorderSize != nil {
		p.BorderSize = *rp.BorderSize
	}
	if rp.BorderColor != nil {
		p.BorderColor = *rp.BorderColor
	}
	if rp.TextSize != nil {
		p.TextSize = *rp.TextSize
	}
	if rp.TextX != nil {
		p.TextX = *rp.TextX
	}
	if rp.TextY != nil {
		p.TextY = *rp.TextY
	}
	if rp.TextColor != nil {
		p.TextColor = *rp.TextColor
	}
	if rp.TextFont != nil {
		p.TextFont = *rp.TextFont
	}
	if rp.HideWhenNoFocus != nil {
		p.HideWhenNoFocus = *rp.HideWhenNoFocus
	}
	if rp.SnapThreshold != nil {
		p.SnapThreshold = *rp.SnapThreshold
	}
	if rp.HotkeyRequireFocus != nil {
		p.HotkeyRequireFocus = *rp.HotkeyRequireFocus
	}
	if rp.CycleGroup != nil {
		p.CycleGroup = append([]string(nil), rp.CycleGroup...)
	}
	for name, settings := range rp.Characters {
		p.Characters[name] = settings
	}
	return p, nil
}
