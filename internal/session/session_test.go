package session

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/peektile/internal/config"
)

func TestGetPosition(t *testing.T) {
	durable := map[string]config.CharacterSettings{
		"Alice": {X: 500, Y: 600, Width: 250, Height: 141},
	}

	tests := []struct {
		name         string
		character    string
		window       xproto.Window
		session      map[xproto.Window]config.Position
		allowInherit bool
		want         *config.Position
	}{
		{
			name:      "durable wins over session",
			character: "Alice",
			window:    1,
			session:   map[xproto.Window]config.Position{1: {X: 10, Y: 20}},
			want:      &config.Position{X: 500, Y: 600},
		},
		{
			name:         "durable wins even with inherit",
			character:    "Alice",
			window:       1,
			session:      map[xproto.Window]config.Position{1: {X: 10, Y: 20}},
			allowInherit: true,
			want:         &config.Position{X: 500, Y: 600},
		},
		{
			name:         "new character inherits window position",
			character:    "Bob",
			window:       1,
			session:      map[xproto.Window]config.Position{1: {X: 10, Y: 20}},
			allowInherit: true,
			want:         &config.Position{X: 10, Y: 20},
		},
		{
			name:      "new character without inherit gets nothing",
			character: "Bob",
			window:    1,
			session:   map[xproto.Window]config.Position{1: {X: 10, Y: 20}},
			want:      nil,
		},
		{
			name:    "unnamed window uses session",
			window:  1,
			session: map[xproto.Window]config.Position{1: {X: 10, Y: 20}},
			want:    &config.Position{X: 10, Y: 20},
		},
		{
			name:   "unnamed window without session",
			window: 2,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			for w, p := range tt.session {
				s.UpdateWindowPosition(w, p.X, p.Y)
			}
			got := s.GetPosition(tt.character, tt.window, durable, tt.allowInherit)
			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("GetPosition() = %+v, want nil", *got)
			case tt.want != nil && got == nil:
				t.Fatalf("GetPosition() = nil, want %+v", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Fatalf("GetPosition() = %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestUpdateWindowPosition_RoundTrip(t *testing.T) {
	s := New()
	s.UpdateWindowPosition(7, 10, 20)
	got := s.GetPosition("", 7, nil, false)
	if got == nil || got.X != 10 || got.Y != 20 {
		t.Fatalf("GetPosition() = %v, want (10, 20)", got)
	}

	s.UpdateWindowPosition(7, -5, 3)
	got = s.GetPosition("", 7, nil, false)
	if got == nil || got.X != -5 || got.Y != 3 {
		t.Fatalf("GetPosition() after overwrite = %v, want (-5, 3)", got)
	}

	s.Forget(7)
	if got := s.GetPosition("", 7, nil, false); got != nil {
		t.Fatalf("GetPosition() after Forget = %+v, want nil", *got)
	}
}
