package thumbnail

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/config"
)

func TestNew_RejectsZeroDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height uint16
	}{
		{"zero width", 0, 141},
		{"zero height", 250, 0},
		{"both zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A nil env proves no X request is attempted before validation.
			thumb, err := New(nil, 0x400001, "Alice", tt.width, tt.height, nil)
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Fatalf("expected ErrInvalidDimensions, got %v", err)
			}
			if thumb != nil {
				t.Fatal("expected no thumbnail")
			}
		})
	}
}

func TestSpawnPosition(t *testing.T) {
	tests := []struct {
		x, y int16
		want config.Position
	}{
		{0, 0, config.Position{X: 20, Y: 20}},
		{1000, 500, config.Position{X: 1020, Y: 520}},
		{-30, -10, config.Position{X: -10, Y: 10}},
		{32760, 32760, config.Position{X: 32767, Y: 32767}},
	}
	for _, tt := range tests {
		if got := spawnPosition(tt.x, tt.y); got != tt.want {
			t.Errorf("spawnPosition(%d, %d) = %+v, want %+v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCenteredOrigin(t *testing.T) {
	tests := []struct {
		w, h, tw, th int
		wantX, wantY int
	}{
		{250, 141, 100, 21, 75, 60},
		{250, 141, 250, 141, 0, 0},
		{100, 50, 120, 10, -10, 20},
	}
	for _, tt := range tests {
		x, y := centeredOrigin(tt.w, tt.h, tt.tw, tt.th)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("centeredOrigin(%d, %d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.w, tt.h, tt.tw, tt.th, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestInsetRect(t *testing.T) {
	x, y, w, h, ok := insetRect(250, 141, 3)
	if !ok || x != 3 || y != 3 || w != 244 || h != 135 {
		t.Fatalf("insetRect(250, 141, 3) = (%d, %d, %d, %d, %v)", x, y, w, h, ok)
	}
	if _, _, w, h, ok := insetRect(250, 141, 0); !ok || w != 250 || h != 141 {
		t.Fatalf("no border should cover everything, got %dx%d ok=%v", w, h, ok)
	}
	if _, _, _, _, ok := insetRect(10, 10, 5); ok {
		t.Fatal("border filling the thumbnail should leave no inset")
	}
	if _, _, _, _, ok := insetRect(10, 200, 100); ok {
		t.Fatal("oversized border should leave no inset")
	}
}

func TestRowSpans(t *testing.T) {
	spans := rowSpans(100, 10, putImageHeader+4*100*3)
	want := [][2]int{{0, 3}, {3, 3}, {6, 3}, {9, 1}}
	if len(spans) != len(want) {
		t.Fatalf("got %v, want %v", spans, want)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Fatalf("span %d = %v, want %v", i, spans[i], want[i])
		}
	}

	if got := rowSpans(100, 10, 262140); len(got) != 1 || got[0] != [2]int{0, 10} {
		t.Fatalf("small bitmap should fit in one request, got %v", got)
	}
	if got := rowSpans(100000, 2, 1000); len(got) != 2 {
		t.Fatalf("rows wider than a request still go one per request, got %v", got)
	}
	if got := rowSpans(0, 10, 1000); got != nil {
		t.Fatalf("expected no spans for empty bitmap, got %v", got)
	}
}

func TestLabel(t *testing.T) {
	env := &Env{Display: &config.DisplayConfig{LoggedOutLabel: "(logged out)"}}
	thumb := &Thumbnail{env: env, Name: "Alice"}
	if got := thumb.Label(); got != "Alice" {
		t.Fatalf("Label() = %q", got)
	}
	thumb.Name = ""
	if got := thumb.Label(); got != "(logged out)" {
		t.Fatalf("Label() = %q", got)
	}
}

func TestRollbackRunsNewestFirst(t *testing.T) {
	var order []int
	var r rollback
	for i := 1; i <= 3; i++ {
		i := i
		r.add(func() error {
			order = append(order, i)
			if i == 2 {
				return errors.New("boom")
			}
			return nil
		})
	}
	r.run(zerolog.Nop())
	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Fatalf("unexpected release order %v", order)
	}
}
