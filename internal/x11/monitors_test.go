package x11

import "testing"

func TestClampToMonitors(t *testing.T) {
	monitors := []Monitor{
		{Name: "left", X: 0, Y: 0, Width: 1920, Height: 1080},
		{Name: "right", X: 1920, Y: 0, Width: 2560, Height: 1440},
	}

	tests := []struct {
		name         string
		x, y         int
		wantX, wantY int
	}{
		{"fully visible", 100, 100, 100, 100},
		{"partly visible", -100, 50, -100, 50},
		{"on second monitor", 3000, 1300, 3000, 1300},
		{"off the left edge", -500, 100, 0, 100},
		{"below the first monitor", 200, 1200, 200, 830},
		{"far right", 9000, 200, 4230, 200},
		{"above both", 2000, -400, 2000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := ClampToMonitors(tt.x, tt.y, 250, 250, monitors)
			if x != tt.wantX || y != tt.wantY {
				t.Fatalf("ClampToMonitors(%d, %d) = (%d, %d), want (%d, %d)", tt.x, tt.y, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestClampToMonitors_NoMonitors(t *testing.T) {
	if x, y := ClampToMonitors(-5000, -5000, 10, 10, nil); x != -5000 || y != -5000 {
		t.Fatalf("expected passthrough, got (%d, %d)", x, y)
	}
}
