package config

import "fmt"

// DisplayConfig is a profile resolved into the values the renderer uses.
type DisplayConfig struct {
	Opacity         uint32
	BorderEnabled   bool
	BorderSize      uint16
	BorderColor     Color16
	TextSize        float64
	TextX           int16
	TextY           int16
	TextColor       uint32
	TextFont        string
	HideWhenNoFocus bool
	SnapThreshold   int
	LoggedOutLabel  string
}

// BuildDisplayConfig resolves p for rendering. Text color stays packed ARGB
// because glyph rasterization works on 8-bit channels.
func BuildDisplayConfig(p Profile, target TargetRule) (DisplayConfig, error) {
	border, err := ParseHexColor(p.BorderColor)
	if err != nil {
		return DisplayConfig{}, fmt.Errorf("profile %q border_color: %w", p.Name, err)
	}
	text, err := ParseHexColor(p.TextColor)
	if err != nil {
		return DisplayConfig{}, fmt.Errorf("profile %q text_color: %w", p.Name, err)
	}

	label := target.LoggedOutLabel
	if label == "" {
		label = DefaultLoggedOutLabel
	}

	return DisplayConfig{
		Opacity:         OpacityWord(p.OpacityPercent),
		BorderEnabled:   p.BorderEnabled,
		BorderSize:      uint16(p.BorderSize),
		BorderColor:     ExpandARGB(border),
		TextSize:        float64(p.TextSize),
		TextX:           int16(p.TextX),
		TextY:           int16(p.TextY),
		TextColor:       text,
		TextFont:        p.TextFont,
		HideWhenNoFocus: p.HideWhenNoFocus,
		SnapThreshold:   p.SnapThreshold,
		LoggedOutLabel:  label,
	}, nil
}

// EffectiveBorderSize is the border inset actually drawn.
func (d DisplayConfig) EffectiveBorderSize() uint16 {
	if !d.BorderEnabled {
		return 0
	}
	return d.BorderSize
}
