package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Position is the top-left corner of a preview on the root window.
type Position struct {
	X int16 `yaml:"x" json:"x"`
	Y int16 `yaml:"y" json:"y"`
}

// CharacterSettings is what is remembered about a character between runs.
// Zero dimensions mean "use the global default".
type CharacterSettings struct {
	X      int16  `yaml:"x" json:"x"`
	Y      int16  `yaml:"y" json:"y"`
	Width  uint16 `yaml:"width,omitempty" json:"width,omitempty"`
	Height uint16 `yaml:"height,omitempty" json:"height,omitempty"`
}

func (c CharacterSettings) Position() Position {
	return Position{X: c.X, Y: c.Y}
}

// Hotkey backends.
const (
	HotkeyBackendEvdev = "evdev"
	HotkeyBackendX11   = "x11"
	HotkeyBackendNone  = "none"
)

type HotkeyConfig struct {
	Backend    string `yaml:"backend" json:"backend"`
	DevicesDir string `yaml:"devices_dir" json:"devices_dir"`
	Forward    string `yaml:"forward" json:"forward"`
	Backward   string `yaml:"backward" json:"backward"`
}

type GlobalSettings struct {
	LogLevel                        string       `yaml:"log_level" json:"log_level"`
	MinimizeClientsOnSwitch         bool         `yaml:"minimize_clients_on_switch" json:"minimize_clients_on_switch"`
	PreserveThumbnailPositionOnSwap bool         `yaml:"preserve_thumbnail_position_on_swap" json:"preserve_thumbnail_position_on_swap"`
	DefaultThumbnailWidth           uint16       `yaml:"default_thumbnail_width" json:"default_thumbnail_width"`
	DefaultThumbnailHeight          uint16       `yaml:"default_thumbnail_height" json:"default_thumbnail_height"`
	ReconcileIntervalSeconds        int          `yaml:"reconcile_interval_seconds" json:"reconcile_interval_seconds"`
	Hotkeys                         HotkeyConfig `yaml:"hotkeys" json:"hotkeys"`
}

// TargetRule decides which client windows get a preview.
type TargetRule struct {
	TitlePrefix    string   `yaml:"title_prefix" json:"title_prefix"`
	LoggedOutTitle string   `yaml:"logged_out_title" json:"logged_out_title"`
	LoggedOutLabel string   `yaml:"logged_out_label" json:"logged_out_label"`
	ProcessMarkers []string `yaml:"process_markers" json:"process_markers"`
}

// Profile is one named set of visual and behavioral settings plus the
// remembered characters that belong to it.
type Profile struct {
	Name               string                       `yaml:"name" json:"name"`
	Description        string                       `yaml:"description,omitempty" json:"description,omitempty"`
	OpacityPercent     int                          `yaml:"opacity_percent" json:"opacity_percent"`
	BorderEnabled      bool                         `yaml:"border_enabled" json:"border_enabled"`
	BorderSize         int                          `yaml:"border_size" json:"border_size"`
	BorderColor        string                       `yaml:"border_color" json:"border_color"`
	TextSize           int                          `yaml:"text_size" json:"text_size"`
	TextX              int                          `yaml:"text_x" json:"text_x"`
	TextY              int                          `yaml:"text_y" json:"text_y"`
	TextColor          string                       `yaml:"text_color" json:"text_color"`
	TextFont           string                       `yaml:"text_font,omitempty" json:"text_font,omitempty"`
	HideWhenNoFocus    bool                         `yaml:"hide_when_no_focus" json:"hide_when_no_focus"`
	SnapThreshold      int                          `yaml:"snap_threshold" json:"snap_threshold"`
	HotkeyRequireFocus bool                         `yaml:"hotkey_require_focus" json:"hotkey_require_focus"`
	CycleGroup         []string                     `yaml:"cycle_group,omitempty" json:"cycle_group,omitempty"`
	Characters         map[string]CharacterSettings `yaml:"characters,omitempty" json:"characters,omitempty"`
}

type Config struct {
	SelectedProfile string         `yaml:"selected_profile" json:"selected_profile"`
	Global          GlobalSettings `yaml:"global" json:"global"`
	Target          TargetRule     `yaml:"target" json:"target"`
	Profiles        []Profile      `yaml:"profiles" json:"profiles"`
}

const (
	DefaultProfileName        = "default"
	DefaultThumbnailWidth     = 250
	DefaultThumbnailHeight    = 141
	DefaultReconcileSeconds   = 5
	DefaultLoggedOutLabel     = "(logged out)"
	MaxBorderSize             = 100
	MinTextSize               = 1
	MaxTextSize               = 200
	MaxOpacityPercent         = 100
	MaxThumbnailDimension     = 4096
	defaultTitlePrefix        = "EVE - "
	defaultLoggedOutTitle     = "EVE"
	defaultHotkeyForward      = "Tab"
	defaultHotkeyBackward     = "Shift-Tab"
	defaultBorderColor        = "#7FFF0000"
	defaultTextColor          = "#FFFFFFFF"
	defaultOpacityPercent     = 75
	defaultBorderSize         = 3
	defaultTextSize           = 22
	defaultTextX              = 10
	defaultTextY              = 20
	defaultSnapThreshold      = 15
	defaultHotkeyRequireFocus = false
)

var defaultProcessMarkers = []string{"wine64-preloader", "wine-preloader"}

func DefaultProfile() Profile {
	return Profile{
		Name:               DefaultProfileName,
		Description:        "Default profile",
		OpacityPercent:     defaultOpacityPercent,
		BorderEnabled:      true,
		BorderSize:         defaultBorderSize,
		BorderColor:        defaultBorderColor,
		TextSize:           defaultTextSize,
		TextX:              defaultTextX,
		TextY:              defaultTextY,
		TextColor:          defaultTextColor,
		SnapThreshold:      defaultSnapThreshold,
		HotkeyRequireFocus: defaultHotkeyRequireFocus,
		Characters:         map[string]CharacterSettings{},
	}
}

func DefaultConfig() *Config {
	return &Config{
		SelectedProfile: DefaultProfileName,
		Global: GlobalSettings{
			LogLevel:                 "info",
			DefaultThumbnailWidth:    DefaultThumbnailWidth,
			DefaultThumbnailHeight:   DefaultThumbnailHeight,
			ReconcileIntervalSeconds: DefaultReconcileSeconds,
			Hotkeys: HotkeyConfig{
				Backend:    HotkeyBackendEvdev,
				DevicesDir: "/dev/input",
				Forward:    defaultHotkeyForward,
				Backward:   defaultHotkeyBackward,
			},
		},
		Target: TargetRule{
			TitlePrefix:    defaultTitlePrefix,
			LoggedOutTitle: defaultLoggedOutTitle,
			LoggedOutLabel: DefaultLoggedOutLabel,
			ProcessMarkers: append([]string(nil), defaultProcessMarkers...),
		},
		Profiles: []Profile{DefaultProfile()},
	}
}

// SelectedProfileIndex returns the index of the selected profile, falling
// back to the first profile when the selection names nothing.
func (c *Config) SelectedProfileIndex() int {
	for i := range c.Profiles {
		if c.Profiles[i].Name == c.SelectedProfile {
			return i
		}
	}
	return 0
}

// Profile returns the selected profile. Validate guarantees at least one.
func (c *Config) Profile() *Profile {
	if len(c.Profiles) == 0 {
		p := DefaultProfile()
		c.Profiles = append(c.Profiles, p)
	}
	return &c.Profiles[c.SelectedProfileIndex()]
}

// FindProfile returns the profile called name.
func (c *Config) FindProfile(name string) (*Profile, bool) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], true
		}
	}
	return nil, false
}

// ProfileNames lists profile names in file order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Target.ProcessMarkers = append([]string(nil), c.Target.ProcessMarkers...)
	out.Profiles = make([]Profile, len(c.Profiles))
	for i, p := range c.Profiles {
		out.Profiles[i] = p.Clone()
	}
	return &out
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	out := p
	out.CycleGroup = append([]string(nil), p.CycleGroup...)
	out.Characters = make(map[string]CharacterSettings, len(p.Characters))
	for name, settings := range p.Characters {
		out.Characters[name] = settings
	}
	return out
}

// EqualIgnoringCharacters reports whether c and other differ only in
// remembered character positions.
func (c *Config) EqualIgnoringCharacters(other *Config) bool {
	if other == nil {
		return false
	}
	a, b := c.Clone(), other.Clone()
	for i := range a.Profiles {
		a.Profiles[i].Characters = nil
	}
	for i := range b.Profiles {
		b.Profiles[i].Characters = nil
	}
	return reflect.DeepEqual(a, b)
}

func (c *Config) Validate() error {
	if len(c.Profiles) == 0 {
		return &ValidationError{Path: "profiles", Err: fmt.Errorf("at least one profile is required")}
	}

	g := c.Global
	if g.DefaultThumbnailWidth == 0 || g.DefaultThumbnailWidth > MaxThumbnailDimension {
		return &ValidationError{Path: "global.default_thumbnail_width", Err: fmt.Errorf("must be between 1 and %d, got %d", MaxThumbnailDimension, g.DefaultThumbnailWidth)}
	}
	if g.DefaultThumbnailHeight == 0 || g.DefaultThumbnailHeight > MaxThumbnailDimension {
		return &ValidationError{Path: "global.default_thumbnail_height", Err: fmt.Errorf("must be between 1 and %d, got %d", MaxThumbnailDimension, g.DefaultThumbnailHeight)}
	}
	if g.ReconcileIntervalSeconds < 0 {
		return &ValidationError{Path: "global.reconcile_interval_seconds", Err: fmt.Errorf("must be >= 0, got %d", g.ReconcileIntervalSeconds)}
	}
	switch g.Hotkeys.Backend {
	case HotkeyBackendEvdev, HotkeyBackendX11, HotkeyBackendNone:
	default:
		return &ValidationError{Path: "global.hotkeys.backend", Err: fmt.Errorf("must be one of %q, %q, %q, got %q", HotkeyBackendEvdev, HotkeyBackendX11, HotkeyBackendNone, g.Hotkeys.Backend)}
	}
	if g.Hotkeys.Backend != HotkeyBackendNone {
		if strings.TrimSpace(g.Hotkeys.Forward) == "" {
			return &ValidationError{Path: "global.hotkeys.forward", Err: fmt.Errorf("must not be empty")}
		}
		if strings.TrimSpace(g.Hotkeys.Backward) == "" {
			return &ValidationError{Path: "global.hotkeys.backward", Err: fmt.Errorf("must not be empty")}
		}
	}

	if strings.TrimSpace(c.Target.TitlePrefix) == "" {
		return &ValidationError{Path: "target.title_prefix", Err: fmt.Errorf("must not be empty")}
	}

	seen := make(map[string]int, len(c.Profiles))
	for i, p := range c.Profiles {
		path := fmt.Sprintf("profiles[%d]", i)
		if strings.TrimSpace(p.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("must not be empty")}
		}
		if prev, ok := seen[p.Name]; ok {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate profile %q (also profiles[%d])", p.Name, prev)}
		}
		seen[p.Name] = i
		if err := p.validate(path); err != nil {
			return err
		}
	}

	return nil
}

func (p Profile) validate(path string) error {
	if p.OpacityPercent < 0 || p.OpacityPercent > MaxOpacityPercent {
		return &ValidationError{Path: path + ".opacity_percent", Err: fmt.Errorf("must be between 0 and %d, got %d", MaxOpacityPercent, p.OpacityPercent)}
	}
	if p.BorderSize < 0 || p.BorderSize > MaxBorderSize {
		return &ValidationError{Path: path + ".border_size", Err: fmt.Errorf("must be between 0 and %d, got %d", MaxBorderSize, p.BorderSize)}
	}
	if p.TextSize < MinTextSize || p.TextSize > MaxTextSize {
		return &ValidationError{Path: path + ".text_size", Err: fmt.Errorf("must be between %d and %d, got %d", MinTextSize, MaxTextSize, p.TextSize)}
	}
	if p.SnapThreshold < 0 {
		return &ValidationError{Path: path + ".snap_threshold", Err: fmt.Errorf("must be >= 0, got %d", p.SnapThreshold)}
	}
	if _, err := ParseHexColor(p.BorderColor); err != nil {
		return &ValidationError{Path: path + ".border_color", Err: err}
	}
	if _, err := ParseHexColor(p.TextColor); err != nil {
		return &ValidationError{Path: path + ".text_color", Err: err}
	}
	if p.TextFont != "" {
		if _, err := os.Stat(p.TextFont); err != nil {
			return &ValidationError{Path: path + ".text_font", Err: fmt.Errorf("font file: %w", err)}
		}
	}
	for name, ch := range p.Characters {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: path + ".characters", Err: fmt.Errorf("character name must not be empty")}
		}
		if ch.Width > MaxThumbnailDimension || ch.Height > MaxThumbnailDimension {
			return &ValidationError{Path: path + ".characters." + name, Err: fmt.Errorf("dimensions %dx%d exceed %d", ch.Width, ch.Height, MaxThumbnailDimension)}
		}
	}
	return nil
}

// Warnings lists suspicious but valid settings.
func (c *Config) Warnings() []string {
	var warnings []string
	if _, ok := c.FindProfile(c.SelectedProfile); !ok && len(c.Profiles) > 0 {
		warnings = append(warnings, fmt.Sprintf("selected_profile %q not found, using %q", c.SelectedProfile, c.Profiles[0].Name))
	}
	for _, p := range c.Profiles {
		if p.BorderEnabled && p.BorderSize == 0 {
			warnings = append(warnings, fmt.Sprintf("profile %q: border_enabled with border_size 0 draws nothing", p.Name))
		}
		for _, name := range p.CycleGroup {
			if strings.TrimSpace(name) == "" {
				warnings = append(warnings, fmt.Sprintf("profile %q: cycle_group contains an empty name", p.Name))
				break
			}
		}
	}
	return warnings
}

// Save writes c to the default config path.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes c to path atomically: the YAML goes to a temporary file in
// the same directory which is then renamed over path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
