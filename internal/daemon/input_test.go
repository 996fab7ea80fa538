package daemon

import (
	"errors"
	"testing"

	"github.com/1broseidon/peektile/internal/classify"
	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/x11"
)

func TestBeginPress(t *testing.T) {
	in := beginPress(buttonDrag, 10, 20, 300, 400)
	if !in.Dragging {
		t.Fatal("expected right button to start a drag")
	}
	if in.DragStartX != 10 || in.DragStartY != 20 || in.WinStartX != 300 || in.WinStartY != 400 {
		t.Fatalf("unexpected input state %+v", in)
	}

	if in := beginPress(buttonFocus, 10, 20, 300, 400); in.Dragging {
		t.Fatal("left button must not start a drag")
	}
	if in := beginPress(2, 10, 20, 300, 400); in.Dragging {
		t.Fatal("middle button must not start a drag")
	}
}

func TestIsClick(t *testing.T) {
	press := beginPress(buttonFocus, 50, 60, 0, 0)

	tests := []struct {
		name   string
		button byte
		x, y   int16
		want   bool
	}{
		{name: "released in place", button: buttonFocus, x: 50, y: 60, want: true},
		{name: "moved horizontally", button: buttonFocus, x: 51, y: 60, want: false},
		{name: "moved vertically", button: buttonFocus, x: 50, y: 59, want: false},
		{name: "drag button", button: buttonDrag, x: 50, y: 60, want: false},
		{name: "middle button", button: 2, x: 50, y: 60, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isClick(tt.button, press, tt.x, tt.y); got != tt.want {
				t.Fatalf("isClick = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDragPosition(t *testing.T) {
	tests := []struct {
		name         string
		winX, winY   int16
		fromX, fromY int16
		toX, toY     int16
		wantX, wantY int16
	}{
		{name: "no movement", winX: 100, winY: 200, fromX: 10, fromY: 10, toX: 10, toY: 10, wantX: 100, wantY: 200},
		{name: "moved right and up", winX: 100, winY: 200, fromX: 10, fromY: 10, toX: 50, toY: 5, wantX: 140, wantY: 195},
		{name: "negative coordinates", winX: 5, winY: 5, fromX: 100, fromY: 100, toX: 50, toY: 80, wantX: -45, wantY: -15},
		{name: "clamped high", winX: 32000, winY: 0, fromX: 0, fromY: 0, toX: 1000, toY: 0, wantX: 32767, wantY: 0},
		{name: "clamped low", winX: -32000, winY: 0, fromX: 1000, fromY: 0, toX: 0, toY: 0, wantX: -32768, wantY: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := beginPress(buttonDrag, tt.fromX, tt.fromY, tt.winX, tt.winY)
			x, y := dragPosition(in, tt.toX, tt.toY)
			if x != tt.wantX || y != tt.wantY {
				t.Fatalf("dragPosition = (%d, %d), want (%d, %d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestSnapDrag(t *testing.T) {
	peer := x11.Geometry{X: 0, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name         string
		x, y         int16
		peers        []x11.Geometry
		threshold    int
		wantX, wantY int16
	}{
		{name: "snaps to right edge of peer", x: 105, y: 3, peers: []x11.Geometry{peer}, threshold: 15, wantX: 100, wantY: 0},
		{name: "out of range", x: 300, y: 300, peers: []x11.Geometry{peer}, threshold: 15, wantX: 300, wantY: 300},
		{name: "disabled", x: 105, y: 3, peers: []x11.Geometry{peer}, threshold: 0, wantX: 105, wantY: 3},
		{name: "no peers", x: 105, y: 3, threshold: 15, wantX: 105, wantY: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := snapDrag(tt.x, tt.y, 100, 100, tt.peers, tt.threshold)
			if x != tt.wantX || y != tt.wantY {
				t.Fatalf("snapDrag = (%d, %d), want (%d, %d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestShouldShowAll(t *testing.T) {
	tests := []struct {
		name     string
		hide     bool
		previews []visibility
		want     bool
	}{
		{name: "policy off", hide: false, previews: []visibility{{Visible: false}}, want: false},
		{name: "all visible", hide: true, previews: []visibility{{Visible: true}, {Visible: true}}, want: false},
		{name: "one hidden", hide: true, previews: []visibility{{Visible: true}, {Visible: false}}, want: true},
		{name: "no previews", hide: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldShowAll(tt.hide, tt.previews); got != tt.want {
				t.Fatalf("shouldShowAll = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldHideAll(t *testing.T) {
	tests := []struct {
		name     string
		hide     bool
		previews []visibility
		want     bool
	}{
		{name: "policy off", hide: false, previews: []visibility{{Visible: true}}, want: false},
		{name: "nothing focused", hide: true, previews: []visibility{{Visible: true}, {Visible: true}}, want: true},
		{name: "one focused", hide: true, previews: []visibility{{Focused: true, Visible: true}, {Visible: true}}, want: false},
		{name: "one minimized", hide: true, previews: []visibility{{Minimized: true, Visible: true}, {Visible: true}}, want: false},
		{name: "no previews", hide: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldHideAll(tt.hide, tt.previews); got != tt.want {
				t.Fatalf("shouldHideAll = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFocusVisibility(t *testing.T) {
	tests := []struct {
		name     string
		hide     bool
		focused  bool
		previews []visibility
		wantShow bool
		wantOK   bool
	}{
		{name: "policy off on focus in", hide: false, focused: true, previews: []visibility{{Focused: true}}, wantShow: true, wantOK: false},
		{name: "policy off on focus out", hide: false, focused: false, previews: []visibility{{Visible: true}}, wantOK: false},
		{name: "focus in reveals hidden", hide: true, focused: true, previews: []visibility{{Focused: true}, {Visible: false}}, wantShow: true, wantOK: true},
		{name: "focus in with all visible", hide: true, focused: true, previews: []visibility{{Focused: true, Visible: true}}, wantShow: true, wantOK: false},
		{name: "focus out hides all", hide: true, focused: false, previews: []visibility{{Visible: true}, {Visible: true}}, wantShow: false, wantOK: true},
		{name: "focus out with another focused", hide: true, focused: false, previews: []visibility{{Visible: true}, {Focused: true, Visible: true}}, wantOK: false},
		{name: "focus out with one minimized", hide: true, focused: false, previews: []visibility{{Minimized: true, Visible: true}}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			show, ok := focusVisibility(tt.hide, tt.focused, tt.previews)
			if ok != tt.wantOK || (ok && show != tt.wantShow) {
				t.Fatalf("focusVisibility = (%v, %v), want (%v, %v)", show, ok, tt.wantShow, tt.wantOK)
			}
		})
	}
}

func TestTitleAction(t *testing.T) {
	tests := []struct {
		name    string
		result  classify.Result
		current string
		want    titleChange
	}{
		{name: "no longer a client", result: classify.Result{Kind: classify.NotTarget}, current: "Alice", want: titleDrop},
		{name: "same character", result: classify.Result{Kind: classify.LoggedIn, Name: "Alice"}, current: "Alice", want: titleKeep},
		{name: "still logged out", result: classify.Result{Kind: classify.LoggedOut}, current: "", want: titleKeep},
		{name: "logged in", result: classify.Result{Kind: classify.LoggedIn, Name: "Alice"}, current: "", want: titleRename},
		{name: "logged out", result: classify.Result{Kind: classify.LoggedOut}, current: "Alice", want: titleRename},
		{name: "character swap", result: classify.Result{Kind: classify.LoggedIn, Name: "Bob"}, current: "Alice", want: titleRename},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titleAction(tt.result, tt.current); got != tt.want {
				t.Fatalf("titleAction = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoveAfterCharacterChange(t *testing.T) {
	at := config.Position{X: 10, Y: 20}

	tests := []struct {
		name   string
		next   *config.Position
		want   config.Position
		wantOK bool
	}{
		{name: "no saved position", next: nil, want: at, wantOK: false},
		{name: "saved at same spot", next: &config.Position{X: 10, Y: 20}, want: at, wantOK: false},
		{name: "saved elsewhere", next: &config.Position{X: 300, Y: 20}, want: config.Position{X: 300, Y: 20}, wantOK: true},
		{name: "differs only in y", next: &config.Position{X: 10, Y: -5}, want: config.Position{X: 10, Y: -5}, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := moveAfterCharacterChange(at, tt.next)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("moveAfterCharacterChange = (%+v, %v), want (%+v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAddedPosition(t *testing.T) {
	origin := config.Position{X: 520, Y: 320}
	geom := x11.Geometry{X: 521, Y: 322, Width: 250, Height: 141}

	if got := addedPosition(origin, geom, nil); got.X != 521 || got.Y != 322 {
		t.Fatalf("expected live geometry, got %+v", got)
	}
	if got := addedPosition(origin, x11.Geometry{}, errors.New("bad window")); got != origin {
		t.Fatalf("expected creation origin on query failure, got %+v", got)
	}
}
