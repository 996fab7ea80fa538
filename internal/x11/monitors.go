package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// Monitor represents a physical display
type Monitor struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// GetMonitors retrieves all active monitors using XRandR. Without RandR the
// whole root window is reported as one monitor.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	w, h := c.ScreenSize()
	whole := []Monitor{{Name: "screen", Width: int(w), Height: int(h)}}

	if err := randr.Init(c.Conn()); err != nil {
		c.logger.Debug().Err(err).Msg("RandR not available, using root window size")
		return whole, nil
	}

	resources, err := randr.GetScreenResources(c.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Disabled CRTCs have no size or no outputs.
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     i,
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}

	if len(monitors) == 0 {
		return whole, nil
	}
	return monitors, nil
}

// ClampToMonitors keeps a w x h rectangle at (x, y) reachable. If any part
// of it is visible on some monitor it is returned unchanged; otherwise it is
// moved fully onto the monitor whose area is nearest.
func ClampToMonitors(x, y int, w, h int, monitors []Monitor) (int, int) {
	if len(monitors) == 0 {
		return x, y
	}
	for _, m := range monitors {
		if x < m.X+m.Width && x+w > m.X && y < m.Y+m.Height && y+h > m.Y {
			return x, y
		}
	}

	best := monitors[0]
	bestDist := -1
	cx, cy := x+w/2, y+h/2
	for _, m := range monitors {
		dx := distanceOutside(cx, m.X, m.X+m.Width)
		dy := distanceOutside(cy, m.Y, m.Y+m.Height)
		if d := dx*dx + dy*dy; bestDist < 0 || d < bestDist {
			best, bestDist = m, d
		}
	}

	return clampAxis(x, w, best.X, best.Width), clampAxis(y, h, best.Y, best.Height)
}

func distanceOutside(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo - v
	case v >= hi:
		return v - hi + 1
	default:
		return 0
	}
}

func clampAxis(v, size, lo, extent int) int {
	if v+size > lo+extent {
		v = lo + extent - size
	}
	if v < lo {
		v = lo
	}
	return v
}
