package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestState(t *testing.T) (*State, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	return NewState(path, DefaultConfig()), path
}

func TestState_UpdatePositionPersists(t *testing.T) {
	s, path := newTestState(t)

	if err := s.UpdatePosition("Alice", 100, 200, 250, 141); err != nil {
		t.Fatalf("update: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := res.Config.Profile().Characters["Alice"]
	if !ok {
		t.Fatal("Alice not persisted")
	}
	if got != (CharacterSettings{X: 100, Y: 200, Width: 250, Height: 141}) {
		t.Fatalf("unexpected persisted settings %+v", got)
	}
}

func TestState_UpdatePositionEmptyNameIgnored(t *testing.T) {
	s, path := newTestState(t)
	if err := s.UpdatePosition("", 1, 2, 3, 4); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file written, stat err = %v", err)
	}
	if len(s.Positions()) != 0 {
		t.Fatalf("expected no positions, got %v", s.Positions())
	}
}

func TestState_HandleCharacterChange(t *testing.T) {
	s, path := newTestState(t)
	if err := s.UpdatePosition("Bob", 500, 600, 0, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := s.HandleCharacterChange("Alice", "Bob", Position{X: 10, Y: 20}, 250, 141)
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if got == nil || *got != (Position{X: 500, Y: 600}) {
		t.Fatalf("expected Bob's saved position, got %v", got)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if alice := res.Config.Profile().Characters["Alice"]; alice.X != 10 || alice.Y != 20 {
		t.Fatalf("expected Alice saved at (10,20), got %+v", alice)
	}

	got, err = s.HandleCharacterChange("Bob", "Carol", Position{X: 1, Y: 2}, 250, 141)
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown character, got %+v", *got)
	}

	got, err = s.HandleCharacterChange("Carol", "", Position{X: 3, Y: 4}, 250, 141)
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil) for logout, got (%v, %v)", got, err)
	}
	if c := s.Positions()["Carol"]; c.X != 3 || c.Y != 4 {
		t.Fatalf("expected Carol stored on logout, got %+v", c)
	}
}

func TestState_HandleCharacterChangeFromEmpty(t *testing.T) {
	s, path := newTestState(t)
	got, err := s.HandleCharacterChange("", "Alice", Position{X: 1, Y: 1}, 250, 141)
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("login from logged-out should not save, stat err = %v", err)
	}
}

func TestState_Dimensions(t *testing.T) {
	s, _ := newTestState(t)
	s.Profile().Characters["Wide"] = CharacterSettings{Width: 400, Height: 225}
	s.Profile().Characters["HalfSet"] = CharacterSettings{Width: 300}

	tests := []struct {
		name  string
		wantW uint16
		wantH uint16
	}{
		{"Wide", 400, 225},
		{"HalfSet", DefaultThumbnailWidth, DefaultThumbnailHeight},
		{"Unknown", DefaultThumbnailWidth, DefaultThumbnailHeight},
		{"", DefaultThumbnailWidth, DefaultThumbnailHeight},
	}
	for _, tt := range tests {
		w, h := s.Dimensions(tt.name)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("Dimensions(%q) = %dx%d, want %dx%d", tt.name, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestState_SavePreservesOtherEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(strings.Join([]string{
		"profiles:",
		"  - name: default",
		"    opacity_percent: 40",
		"",
	}, "\n")), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := NewState(path, res.Config)

	// Edit the file behind the daemon's back.
	if err := os.WriteFile(path, []byte(strings.Join([]string{
		"profiles:",
		"  - name: default",
		"    opacity_percent: 60",
		"",
	}, "\n")), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	if err := s.UpdatePosition("Alice", 5, 6, 250, 141); err != nil {
		t.Fatalf("update: %v", err)
	}

	res, err = LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	p := res.Config.Profile()
	if p.OpacityPercent != 60 {
		t.Fatalf("expected external edit kept, opacity = %d", p.OpacityPercent)
	}
	if _, ok := p.Characters["Alice"]; !ok {
		t.Fatal("expected Alice merged into file")
	}
}

func TestState_ApplyProfile(t *testing.T) {
	s, _ := newTestState(t)
	s.Profile().Characters["Alice"] = CharacterSettings{X: 1, Y: 2}

	pushed := DefaultProfile()
	pushed.OpacityPercent = 30
	pushed.Characters = map[string]CharacterSettings{"Bob": {X: 9, Y: 9}}
	global := s.Global()
	global.MinimizeClientsOnSwitch = true

	if err := s.ApplyProfile(pushed, global); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.Profile().OpacityPercent != 30 {
		t.Fatalf("expected pushed opacity, got %d", s.Profile().OpacityPercent)
	}
	if !s.Global().MinimizeClientsOnSwitch {
		t.Fatal("expected pushed global settings")
	}
	pos := s.Positions()
	if _, ok := pos["Alice"]; !ok {
		t.Fatal("expected remembered Alice kept")
	}
	if _, ok := pos["Bob"]; !ok {
		t.Fatal("expected pushed Bob added")
	}

	fresh := DefaultProfile()
	fresh.Name = "new"
	if err := s.ApplyProfile(fresh, global); err != nil {
		t.Fatalf("apply new: %v", err)
	}
	if s.Profile().Name != "new" || len(s.Config().Profiles) != 2 {
		t.Fatalf("expected new profile appended and selected, got %v", s.Config().ProfileNames())
	}

	bad := DefaultProfile()
	bad.TextSize = 0
	if err := s.ApplyProfile(bad, global); err == nil {
		t.Fatal("expected invalid profile to be rejected")
	}
	if s.Profile().Name != "new" {
		t.Fatal("rejected profile must not change state")
	}
}

func TestState_ReplaceCarriesMemoryPositions(t *testing.T) {
	s, _ := newTestState(t)
	s.Profile().Characters["Alice"] = CharacterSettings{X: 1, Y: 2}

	next := DefaultConfig()
	next.Profiles[0].OpacityPercent = 90
	next.Profiles[0].Characters["Bob"] = CharacterSettings{X: 3, Y: 4}
	s.Replace(next)

	if s.Profile().OpacityPercent != 90 {
		t.Fatalf("expected reloaded opacity, got %d", s.Profile().OpacityPercent)
	}
	pos := s.Positions()
	if len(pos) != 2 {
		t.Fatalf("expected Alice and Bob, got %v", pos)
	}
}
