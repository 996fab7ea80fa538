package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Source indication for _NET_ACTIVE_WINDOW: 2 means a pager or direct user
// action, which window managers honour over focus stealing prevention.
const sourceIndicationPager = 2

// Geometry is a window's position relative to its parent, its size and
// its depth.
type Geometry struct {
	X      int16
	Y      int16
	Width  uint16
	Height uint16
	Depth  byte
}

// Contains reports whether the root coordinate (x, y) lies inside g,
// edges included.
func (g Geometry) Contains(x, y int16) bool {
	px, py := int(x), int(y)
	return px >= int(g.X) && px <= int(g.X)+int(g.Width) &&
		py >= int(g.Y) && py <= int(g.Y)+int(g.Height)
}

// GetGeometry queries the live geometry of a window.
func (c *Connection) GetGeometry(win xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to get geometry of window %d: %w", win, err)
	}
	return Geometry{X: geom.X, Y: geom.Y, Width: geom.Width, Height: geom.Height, Depth: geom.Depth}, nil
}

// RootPosition translates the window's origin to root coordinates. Client
// windows are usually reparented into a frame, so GetGeometry alone reports
// the offset inside the frame.
func (c *Connection) RootPosition(win xproto.Window) (int16, int16, error) {
	reply, err := xproto.TranslateCoordinates(c.Conn(), win, c.Root, 0, 0).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to translate coordinates of window %d: %w", win, err)
	}
	return reply.DstX, reply.DstY, nil
}

// activeWindowMessage builds the _NET_ACTIVE_WINDOW request for win.
func activeWindowMessage(atom xproto.Atom, win xproto.Window) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atom,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			sourceIndicationPager,
			uint32(xproto.TimeCurrentTime),
			0, 0, 0,
		}),
	}
}

// iconifyMessage builds the ICCCM WM_CHANGE_STATE request that asks the
// window manager to iconify win.
func iconifyMessage(atom xproto.Atom, win xproto.Window) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{icccm.StateIconic, 0, 0, 0, 0}),
	}
}

func (c *Connection) sendToRoot(ev xproto.ClientMessageEvent) error {
	return xproto.SendEventChecked(
		c.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// ActivateWindow raises win and asks the window manager to focus it.
// The client message is built by hand because the xgbutil ewmh
// ClientEvent helper panics on this library version.
func (c *Connection) ActivateWindow(win xproto.Window) error {
	err := xproto.ConfigureWindowChecked(c.Conn(), win,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}).Check()
	if err != nil {
		return fmt.Errorf("failed to raise window %d: %w", win, err)
	}
	if err := c.sendToRoot(activeWindowMessage(c.Atoms.NetActiveWindow, win)); err != nil {
		return fmt.Errorf("failed to activate window %d: %w", win, err)
	}
	return nil
}

// MinimizeWindow asks the window manager to iconify win.
func (c *Connection) MinimizeWindow(win xproto.Window) error {
	if err := c.sendToRoot(iconifyMessage(c.Atoms.WmChangeState, win)); err != nil {
		return fmt.Errorf("failed to minimize window %d: %w", win, err)
	}
	return nil
}

// IsMinimized reports whether win carries _NET_WM_STATE_HIDDEN.
func (c *Connection) IsMinimized(win xproto.Window) (bool, error) {
	reply, err := xproto.GetProperty(c.Conn(), false, win, c.Atoms.NetWmState,
		xproto.AtomAtom, 0, 1024).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to read _NET_WM_STATE of window %d: %w", win, err)
	}
	return containsAtom(atomsFromReply(reply), c.Atoms.NetWmStateHidden), nil
}

func atomsFromReply(reply *xproto.GetPropertyReply) []xproto.Atom {
	if reply == nil || reply.Format != 32 {
		return nil
	}
	atoms := make([]xproto.Atom, 0, len(reply.Value)/4)
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		atoms = append(atoms, xproto.Atom(xgb.Get32(reply.Value[i:])))
	}
	return atoms
}

func containsAtom(atoms []xproto.Atom, want xproto.Atom) bool {
	for _, a := range atoms {
		if a == want {
			return true
		}
	}
	return false
}

// ActiveWindow returns the window named by _NET_ACTIVE_WINDOW, or 0.
func (c *Connection) ActiveWindow() (xproto.Window, error) {
	win, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to read _NET_ACTIVE_WINDOW: %w", err)
	}
	return win, nil
}

// IsTrackedFocused reports whether the active window is one of tracked.
func (c *Connection) IsTrackedFocused(tracked func(xproto.Window) bool) (bool, error) {
	active, err := c.ActiveWindow()
	if err != nil {
		return false, err
	}
	return active != 0 && tracked(active), nil
}

// ClientList returns the windows listed in _NET_CLIENT_LIST.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to read _NET_CLIENT_LIST: %w", err)
	}
	return clients, nil
}

// WindowTitle returns _NET_WM_NAME, falling back to WM_NAME. A window with
// neither has an empty title.
func (c *Connection) WindowTitle(win xproto.Window) (string, error) {
	if name, err := ewmh.WmNameGet(c.XUtil, win); err == nil && name != "" {
		return name, nil
	}
	reply, err := xproto.GetProperty(c.Conn(), false, win, c.Atoms.WmName,
		xproto.GetPropertyTypeAny, 0, 1024).Reply()
	if err != nil {
		return "", fmt.Errorf("failed to read WM_NAME of window %d: %w", win, err)
	}
	return string(reply.Value), nil
}

// WindowPID returns the _NET_WM_PID of win. ok is false when the property
// is missing or unreadable.
func (c *Connection) WindowPID(win xproto.Window) (pid uint32, ok bool) {
	v, err := ewmh.WmPidGet(c.XUtil, win)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// SelectInput replaces the event mask this client has on win.
func (c *Connection) SelectInput(win xproto.Window, mask uint32) error {
	err := xproto.ChangeWindowAttributesChecked(c.Conn(), win, xproto.CwEventMask, []uint32{mask}).Check()
	if err != nil {
		return fmt.Errorf("failed to select input on window %d: %w", win, err)
	}
	return nil
}

// SetOpacity writes the raw _NET_WM_WINDOW_OPACITY word.
func (c *Connection) SetOpacity(win xproto.Window, opacity uint32) error {
	if err := xprop.ChangeProp32(c.XUtil, win, "_NET_WM_WINDOW_OPACITY", "CARDINAL", uint(opacity)); err != nil {
		return fmt.Errorf("failed to set opacity on window %d: %w", win, err)
	}
	return nil
}

// SetAbove marks win as _NET_WM_STATE_ABOVE.
func (c *Connection) SetAbove(win xproto.Window) error {
	if err := ewmh.WmStateSet(c.XUtil, win, []string{"_NET_WM_STATE_ABOVE"}); err != nil {
		return fmt.Errorf("failed to set _NET_WM_STATE on window %d: %w", win, err)
	}
	return nil
}

// SetClass tags win with WM_CLASS instance and class name.
func (c *Connection) SetClass(win xproto.Window, name string) error {
	if err := icccm.WmClassSet(c.XUtil, win, &icccm.WmClass{Instance: name, Class: name}); err != nil {
		return fmt.Errorf("failed to set WM_CLASS on window %d: %w", win, err)
	}
	return nil
}

// QueryPointer returns the pointer position in root coordinates.
func (c *Connection) QueryPointer() (int16, int16, error) {
	reply, err := xproto.QueryPointer(c.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query pointer: %w", err)
	}
	return reply.RootX, reply.RootY, nil
}
