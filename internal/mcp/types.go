package mcp

// PingInput is the input for the preview_ping tool.
type PingInput struct{}

// PingOutput is the output for the preview_ping tool.
type PingOutput struct {
	Running bool   `json:"running"`
	Socket  string `json:"socket"`
	Error   string `json:"error,omitempty"`
}

// PositionsInput is the input for the preview_positions tool.
type PositionsInput struct {
	Character string `json:"character,omitempty" jsonschema:"Only return this character (exact name)"`
}

// CharacterInfo is one remembered preview placement.
type CharacterInfo struct {
	Character string `json:"character"`
	X         int16  `json:"x"`
	Y         int16  `json:"y"`
	Width     uint16 `json:"width,omitempty"`
	Height    uint16 `json:"height,omitempty"`
}

// PositionsOutput is the output for the preview_positions tool.
type PositionsOutput struct {
	Characters []CharacterInfo `json:"characters"`
}

// ListProfilesInput is the input for the preview_list_profiles tool.
type ListProfilesInput struct{}

// ProfileInfo summarises one configured profile.
type ProfileInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Selected    bool   `json:"selected"`
	Characters  int    `json:"characters"`
}

// ListProfilesOutput is the output for the preview_list_profiles tool.
type ListProfilesOutput struct {
	ConfigPath string        `json:"config_path"`
	Profiles   []ProfileInfo `json:"profiles"`
}

// SetProfileInput is the input for the preview_set_profile tool.
type SetProfileInput struct {
	Profile string `json:"profile" jsonschema:"required,Name of a profile defined in the config file"`
}

// SetProfileOutput is the output for the preview_set_profile tool.
type SetProfileOutput struct {
	Profile string `json:"profile"`
	Applied bool   `json:"applied"`
}

// ShutdownInput is the input for the preview_shutdown tool.
type ShutdownInput struct{}

// ShutdownOutput is the output for the preview_shutdown tool.
type ShutdownOutput struct {
	Stopped bool `json:"stopped"`
}
