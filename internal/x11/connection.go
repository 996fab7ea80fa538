package x11

import (
	"encoding/binary"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/rs/zerolog"
)

// Connection manages the X11 connection, the extensions previews need and
// the atoms interned at startup.
type Connection struct {
	XUtil  *xgbutil.XUtil
	Root   xproto.Window
	Screen *xproto.ScreenInfo
	Atoms  Atoms

	formats []render.Pictforminfo
	pump    *eventPump
	logger  zerolog.Logger
}

// NewConnection connects to the X server named by $DISPLAY and negotiates
// RENDER, DAMAGE and XFIXES. Any failure here is fatal for the daemon.
func NewConnection(logger zerolog.Logger) (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	c := &Connection{
		XUtil:  xu,
		Root:   xu.RootWin(),
		Screen: xu.Screen(),
		logger: logger,
	}

	if err := c.initExtensions(); err != nil {
		xu.Conn().Close()
		return nil, err
	}

	atoms, err := internAtoms(xu)
	if err != nil {
		xu.Conn().Close()
		return nil, err
	}
	c.Atoms = atoms

	formats, err := render.QueryPictFormats(xu.Conn()).Reply()
	if err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("failed to query picture formats: %w", err)
	}
	c.formats = formats.Formats

	// Required before any key grab by the x11 hotkey backend.
	keybind.Initialize(xu)

	xevent.ErrorHandlerSet(xu, func(err xgb.Error) {
		c.logger.Debug().Str("error", err.Error()).Msg("asynchronous X error")
	})

	return c, nil
}

func (c *Connection) initExtensions() error {
	conn := c.XUtil.Conn()

	if err := xfixes.Init(conn); err != nil {
		return fmt.Errorf("XFIXES extension not available: %w", err)
	}
	if _, err := xfixes.QueryVersion(conn, 2, 0).Reply(); err != nil {
		return fmt.Errorf("failed to negotiate XFIXES version: %w", err)
	}

	if err := damage.Init(conn); err != nil {
		return fmt.Errorf("DAMAGE extension not available: %w", err)
	}
	if _, err := damage.QueryVersion(conn, 1, 1).Reply(); err != nil {
		return fmt.Errorf("failed to negotiate DAMAGE version: %w", err)
	}

	if err := render.Init(conn); err != nil {
		return fmt.Errorf("RENDER extension not available: %w", err)
	}
	ver, err := render.QueryVersion(conn, 0, 11).Reply()
	if err != nil {
		return fmt.Errorf("failed to negotiate RENDER version: %w", err)
	}
	c.logger.Debug().
		Uint32("render_major", ver.MajorVersion).
		Uint32("render_minor", ver.MinorVersion).
		Msg("RENDER negotiated")

	return nil
}

// Conn returns the underlying xgb connection.
func (c *Connection) Conn() *xgb.Conn {
	return c.XUtil.Conn()
}

// ScreenSize returns the root window size in pixels.
func (c *Connection) ScreenSize() (uint16, uint16) {
	return c.Screen.WidthInPixels, c.Screen.HeightInPixels
}

// RootDepth is the depth of the root window and of every preview window.
func (c *Connection) RootDepth() byte {
	return c.Screen.RootDepth
}

// ImageByteOrder is the byte order the server expects in ZPixmap image
// data.
func (c *Connection) ImageByteOrder() binary.ByteOrder {
	return imageByteOrder(c.XUtil.Setup().ImageByteOrder)
}

func imageByteOrder(order byte) binary.ByteOrder {
	if order == xproto.ImageOrderMSBFirst {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Close stops the event pump, if running, and disconnects from the X server.
func (c *Connection) Close() {
	if c.pump != nil {
		c.pump.stop(c)
		c.pump = nil
	}
	c.XUtil.Conn().Close()
}
