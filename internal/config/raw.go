package config

// Raw* types mirror the YAML schema with pointer fields so that unset keys can
// be told apart from zero values when defaults are applied.

type RawConfig struct {
	SelectedProfile *string      `yaml:"selected_profile"`
	Global          *RawGlobal   `yaml:"global"`
	Target          *RawTarget   `yaml:"target"`
	Profiles        []RawProfile `yaml:"profiles"`
}

type RawHotkeys struct {
	Backend    *string `yaml:"backend"`
	DevicesDir *string `yaml:"devices_dir"`
	Forward    *string `yaml:"forward"`
	Backward   *string `yaml:"backward"`
}

type RawGlobal struct {
	LogLevel                        *string     `yaml:"log_level"`
	MinimizeClientsOnSwitch         *bool       `yaml:"minimize_clients_on_switch"`
	PreserveThumbnailPositionOnSwap *bool       `yaml:"preserve_thumbnail_position_on_swap"`
	DefaultThumbnailWidth           *uint16     `yaml:"default_thumbnail_width"`
	DefaultThumbnailHeight          *uint16     `yaml:"default_thumbnail_height"`
	ReconcileIntervalSeconds        *int        `yaml:"reconcile_interval_seconds"`
	Hotkeys                         *RawHotkeys `yaml:"hotkeys"`
}

type RawTarget struct {
	TitlePrefix    *string  `yaml:"title_prefix"`
	LoggedOutTitle *string  `yaml:"logged_out_title"`
	LoggedOutLabel *string  `yaml:"logged_out_label"`
	ProcessMarkers []string `yaml:"process_markers"`
}

type RawProfile struct {
	Name               *string                      `yaml:"name"`
	Description        *string                      `yaml:"description"`
	OpacityPercent     *int                         `yaml:"opacity_percent"`
	BorderEnabled      *bool                        `yaml:"border_enabled"`
	BorderSize         *int                         `yaml:"border_size"`
	BorderColor        *string                      `yaml:"border_color"`
	TextSize           *int                         `yaml:"text_size"`
	TextX              *int                         `yaml:"text_x"`
	TextY              *int                         `yaml:"text_y"`
	TextColor          *string                      `yaml:"text_color"`
	TextFont           *string                      `yaml:"text_font"`
	HideWhenNoFocus    *bool                        `yaml:"hide_when_no_focus"`
	SnapThreshold      *int                         `yaml:"snap_threshold"`
	HotkeyRequireFocus *bool                        `yaml:"hotkey_require_focus"`
	CycleGroup         []string                     `yaml:"cycle_group"`
	Characters         map[string]CharacterSettings `yaml:"characters"`
}
