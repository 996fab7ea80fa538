package daemon

import (
	"github.com/1broseidon/peektile/internal/classify"
	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/snap"
	"github.com/1broseidon/peektile/internal/thumbnail"
	"github.com/1broseidon/peektile/internal/x11"
)

// Pointer buttons with a meaning on a preview.
const (
	buttonFocus = 1
	buttonDrag  = 3
)

// beginPress records a press at the root point (rootX, rootY) on a preview
// whose window sits at (winX, winY).
func beginPress(button byte, rootX, rootY, winX, winY int16) thumbnail.InputState {
	return thumbnail.InputState{
		Dragging:   button == buttonDrag,
		DragStartX: rootX,
		DragStartY: rootY,
		WinStartX:  winX,
		WinStartY:  winY,
	}
}

// isClick reports whether a release at (rootX, rootY) completes a focus
// click: the focus button, released where it was pressed.
func isClick(button byte, in thumbnail.InputState, rootX, rootY int16) bool {
	return button == buttonFocus && in.DragStartX == rootX && in.DragStartY == rootY
}

// dragPosition is where a dragged preview goes when the pointer is at
// (rootX, rootY), before snapping.
func dragPosition(in thumbnail.InputState, rootX, rootY int16) (int16, int16) {
	x := int(in.WinStartX) + int(rootX) - int(in.DragStartX)
	y := int(in.WinStartY) + int(rootY) - int(in.DragStartY)
	return clampCoord(x), clampCoord(y)
}

// snapDrag applies edge snapping against the peers' live geometry.
func snapDrag(x, y int16, width, height uint16, peers []x11.Geometry, threshold int) (int16, int16) {
	dragged := snap.Rect{X: int(x), Y: int(y), Width: int(width), Height: int(height)}
	others := make([]snap.Rect, 0, len(peers))
	for _, p := range peers {
		others = append(others, snap.Rect{X: int(p.X), Y: int(p.Y), Width: int(p.Width), Height: int(p.Height)})
	}
	sx, sy, ok := snap.FindSnapPosition(dragged, others, threshold)
	if !ok {
		return x, y
	}
	return clampCoord(sx), clampCoord(sy)
}

func clampCoord(v int) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return int16(v)
}

// visibility is the focus summary used by the hide-when-unfocused policy.
type visibility struct {
	Focused   bool
	Minimized bool
	Visible   bool
}

// shouldShowAll reports whether gaining focus must reveal hidden previews.
func shouldShowAll(hideWhenNoFocus bool, previews []visibility) bool {
	if !hideWhenNoFocus {
		return false
	}
	for _, p := range previews {
		if !p.Visible {
			return true
		}
	}
	return false
}

// shouldHideAll reports whether losing focus leaves no client focused or
// minimized, in which case every preview is hidden.
func shouldHideAll(hideWhenNoFocus bool, previews []visibility) bool {
	if !hideWhenNoFocus {
		return false
	}
	for _, p := range previews {
		if p.Focused || p.Minimized {
			return false
		}
	}
	return true
}

// focusVisibility decides the global hide/show pass after a focus change on
// one preview. ok is false when nothing changes.
func focusVisibility(hideWhenNoFocus, focused bool, previews []visibility) (show, ok bool) {
	if focused {
		return true, shouldShowAll(hideWhenNoFocus, previews)
	}
	return false, shouldHideAll(hideWhenNoFocus, previews)
}

// titleChange is what a title update means for a tracked preview.
type titleChange int

const (
	titleKeep titleChange = iota
	titleDrop
	titleRename
)

// titleAction classifies a title update for a preview currently showing
// name.
func titleAction(result classify.Result, name string) titleChange {
	switch {
	case !result.IsTarget():
		return titleDrop
	case result.Name == name:
		return titleKeep
	}
	return titleRename
}

// moveAfterCharacterChange returns where a preview at pos moves after a
// character change resolved to next. ok is false when it stays put.
func moveAfterCharacterChange(pos config.Position, next *config.Position) (config.Position, bool) {
	if next == nil || (next.X == pos.X && next.Y == pos.Y) {
		return pos, false
	}
	return *next, true
}

// addedPosition is the position recorded for a new preview: its live
// geometry, or the origin it was created at when the query failed.
func addedPosition(origin config.Position, geom x11.Geometry, err error) config.Position {
	if err != nil {
		return origin
	}
	return config.Position{X: geom.X, Y: geom.Y}
}
