package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Color16 is a color with 16-bit channels as XRender expects them.
type Color16 struct {
	Red   uint16
	Green uint16
	Blue  uint16
	Alpha uint16
}

// ParseHexColor parses "#AARRGGBB" or "#RRGGBB" into a packed ARGB word. The
// short form is fully opaque.
func ParseHexColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 6:
		hex = "FF" + hex
	case 8:
	default:
		return 0, fmt.Errorf("invalid color %q: want #AARRGGBB or #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint32(v), nil
}

// ExpandARGB widens a packed ARGB word to 16-bit channels, mapping 0xFF to
// 0xFFFF.
func ExpandARGB(argb uint32) Color16 {
	return Color16{
		Red:   uint16((argb>>16)&0xFF) * 257,
		Green: uint16((argb>>8)&0xFF) * 257,
		Blue:  uint16(argb&0xFF) * 257,
		Alpha: uint16((argb>>24)&0xFF) * 257,
	}
}

// OpacityWord converts a percentage into the _NET_WM_WINDOW_OPACITY value the
// compositor reads: the 8-bit alpha sits in the top byte.
func OpacityWord(percent int) uint32 {
	if percent < 0 {
		percent = 0
	}
	if percent > MaxOpacityPercent {
		percent = MaxOpacityPercent
	}
	return uint32(percent*255/100) << 24
}
