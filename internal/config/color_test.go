package config

import "testing"

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"#7FFF0000", 0x7FFF0000, false},
		{"#FFFFFFFF", 0xFFFFFFFF, false},
		{"7fff0000", 0x7FFF0000, false},
		{"#00FF00", 0xFF00FF00, false},
		{" #000000 ", 0xFF000000, false},
		{"", 0, true},
		{"#FFF", 0, true},
		{"#GGGGGGGG", 0, true},
		{"#123456789", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHexColor(%q) expected error, got %#x", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHexColor(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestExpandARGB(t *testing.T) {
	got := ExpandARGB(0x7FFF0000)
	want := Color16{Red: 0xFFFF, Green: 0, Blue: 0, Alpha: 0x7F7F}
	if got != want {
		t.Fatalf("ExpandARGB = %+v, want %+v", got, want)
	}
	if c := ExpandARGB(0x80402010); c.Red != 0x4040 || c.Green != 0x2020 || c.Blue != 0x1010 || c.Alpha != 0x8080 {
		t.Fatalf("ExpandARGB channel order wrong: %+v", c)
	}
}

func TestOpacityWord(t *testing.T) {
	tests := []struct {
		percent int
		want    uint32
	}{
		{75, 0xBF000000},
		{100, 0xFF000000},
		{0, 0},
		{50, 0x7F000000},
		{150, 0xFF000000},
		{-5, 0},
	}
	for _, tt := range tests {
		if got := OpacityWord(tt.percent); got != tt.want {
			t.Errorf("OpacityWord(%d) = %#x, want %#x", tt.percent, got, tt.want)
		}
	}
}

func TestBuildDisplayConfig(t *testing.T) {
	p := DefaultProfile()
	d, err := BuildDisplayConfig(p, DefaultConfig().Target)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if d.Opacity != 0xBF000000 {
		t.Fatalf("opacity = %#x", d.Opacity)
	}
	if d.BorderSize != 3 || d.EffectiveBorderSize() != 3 {
		t.Fatalf("border size = %d", d.BorderSize)
	}
	if d.BorderColor.Red != 0xFFFF || d.BorderColor.Alpha != 0x7F7F {
		t.Fatalf("border color = %+v", d.BorderColor)
	}
	if d.TextColor != 0xFFFFFFFF {
		t.Fatalf("text color = %#x", d.TextColor)
	}
	if d.TextX != 10 || d.TextY != 20 || d.TextSize != 22 {
		t.Fatalf("text placement = (%d,%d) size %v", d.TextX, d.TextY, d.TextSize)
	}
	if d.LoggedOutLabel != DefaultLoggedOutLabel {
		t.Fatalf("logged out label = %q", d.LoggedOutLabel)
	}

	p.BorderEnabled = false
	d, _ = BuildDisplayConfig(p, TargetRule{})
	if d.EffectiveBorderSize() != 0 {
		t.Fatalf("disabled border should draw nothing, got %d", d.EffectiveBorderSize())
	}
	if d.LoggedOutLabel != DefaultLoggedOutLabel {
		t.Fatalf("empty label should fall back, got %q", d.LoggedOutLabel)
	}

	p.TextColor = "nope"
	if _, err := BuildDisplayConfig(p, TargetRule{}); err == nil {
		t.Fatal("expected error for bad text color")
	}
}
