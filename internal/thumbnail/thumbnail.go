// Package thumbnail owns one live preview window: the override-redirect
// window itself, the RENDER pictures that scale the source into it, the
// pre-rendered border and label overlay, and the damage handle that tells
// the daemon when to refresh.
package thumbnail

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/rs/zerolog"

	"github.com/1broseidon/peektile/internal/config"
	"github.com/1broseidon/peektile/internal/font"
	"github.com/1broseidon/peektile/internal/x11"
)

// ErrInvalidDimensions is returned by New when width or height is zero.
var ErrInvalidDimensions = errors.New("thumbnail dimensions must be non-zero")

const (
	// SpawnOffset is added to the source window's origin when a preview
	// has no remembered position.
	SpawnOffset = 20

	// ClassName is the WM_CLASS of every preview window.
	ClassName = "peektile"

	minimizedLabel = "MINIMIZED"

	previewEventMask = xproto.EventMaskSubstructureNotify |
		xproto.EventMaskButtonPress |
		xproto.EventMaskButtonRelease |
		xproto.EventMaskPointerMotion
)

// Env is what every thumbnail of one daemon run shares. Display is read
// only for the lifetime of the run.
type Env struct {
	Conn     *x11.Connection
	Display  *config.DisplayConfig
	Font     *font.Renderer
	Monitors []x11.Monitor
	Logger   zerolog.Logger
}

// InputState tracks a press on the preview until the matching release.
type InputState struct {
	Dragging   bool
	DragStartX int16
	DragStartY int16
	WinStartX  int16
	WinStartY  int16
}

// Thumbnail is the preview of one source window.
type Thumbnail struct {
	Window xproto.Window
	Source xproto.Window
	Damage damage.Damage

	// Name is the character shown, empty while the client is logged out.
	Name   string
	Width  uint16
	Height uint16
	// Origin is where the preview window was created.
	Origin config.Position

	Focused   bool
	Visible   bool
	Minimized bool
	Input     InputState

	env    *Env
	logger zerolog.Logger

	borderFill     render.Picture
	srcPicture     render.Picture
	dstPicture     render.Picture
	overlayPixmap  xproto.Pixmap
	overlayPicture render.Picture
	overlayGC      xproto.Gcontext
}

// spawnPosition is where a preview without a remembered position appears.
func spawnPosition(srcX, srcY int16) config.Position {
	return config.Position{
		X: clampInt16(int(srcX) + SpawnOffset),
		Y: clampInt16(int(srcY) + SpawnOffset),
	}
}

func clampInt16(v int) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return int16(v)
}

func validateDimensions(width, height uint16) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}

// rollback releases resources created so far, newest first.
type rollback []func() error

func (r *rollback) add(fn func() error) { *r = append(*r, fn) }

func (r rollback) run(logger zerolog.Logger) {
	for i := len(r) - 1; i >= 0; i-- {
		if err := r[i](); err != nil {
			logger.Error().Err(err).Msg("failed to roll back preview resource")
		}
	}
}

// New creates the preview for source. pos is the remembered position; when
// nil the preview spawns at the source window's origin plus SpawnOffset.
// If any resource fails to be created everything created before it,
// including the preview window, is released before the error is returned.
func New(env *Env, source xproto.Window, name string, width, height uint16, pos *config.Position) (*Thumbnail, error) {
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}

	conn := env.Conn
	xc := conn.Conn()
	logger := env.Logger.With().Uint32("source", uint32(source)).Str("character", name).Logger()

	srcGeom, err := conn.GetGeometry(source)
	if err != nil {
		return nil, err
	}

	var origin config.Position
	if pos != nil {
		origin = *pos
	} else {
		sx, sy, err := conn.RootPosition(source)
		if err != nil {
			return nil, err
		}
		origin = spawnPosition(sx, sy)
		x, y := x11.ClampToMonitors(int(origin.X), int(origin.Y), int(width), int(height), env.Monitors)
		origin = config.Position{X: clampInt16(x), Y: clampInt16(y)}
	}

	t := &Thumbnail{
		Source:  source,
		Name:    name,
		Width:   width,
		Height:  height,
		Origin:  origin,
		Visible: true,
		env:     env,
		logger:  logger,
	}

	var undo rollback
	fail := func(err error) (*Thumbnail, error) {
		undo.run(logger)
		return nil, err
	}

	wid, err := xproto.NewWindowId(xc)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}
	err = xproto.CreateWindowChecked(
		xc,
		conn.RootDepth(),
		wid,
		conn.Root,
		origin.X, origin.Y,
		width, height,
		0,
		xproto.WindowClassInputOutput,
		conn.Screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{conn.Screen.BlackPixel, 1, previewEventMask},
	).Check()
	if err != nil {
		return nil, fmt.Errorf("failed to create preview window: %w", err)
	}
	t.Window = wid
	undo.add(func() error { return xproto.DestroyWindowChecked(xc, wid).Check() })

	if err := conn.SetOpacity(wid, env.Display.Opacity); err != nil {
		return fail(err)
	}
	if err := conn.SetClass(wid, ClassName); err != nil {
		return fail(err)
	}
	if err := conn.SetAbove(wid); err != nil {
		return fail(err)
	}
	if err := xproto.MapWindowChecked(xc, wid).Check(); err != nil {
		return fail(fmt.Errorf("failed to map preview window: %w", err))
	}

	if t.borderFill, err = render.NewPictureId(xc); err != nil {
		return fail(fmt.Errorf("failed to allocate picture id: %w", err))
	}
	c := env.Display.BorderColor
	fill := render.Color{Red: c.Red, Green: c.Green, Blue: c.Blue, Alpha: c.Alpha}
	if err := render.CreateSolidFillChecked(xc, t.borderFill, fill).Check(); err != nil {
		return fail(fmt.Errorf("failed to create border fill: %w", err))
	}
	undo.add(func() error { return render.FreePictureChecked(xc, t.borderFill).Check() })

	srcFormat, err := conn.PictFormat(srcGeom.Depth, srcGeom.Depth == 32)
	if err != nil {
		return fail(err)
	}
	if t.srcPicture, err = render.NewPictureId(xc); err != nil {
		return fail(fmt.Errorf("failed to allocate picture id: %w", err))
	}
	if err := render.CreatePictureChecked(xc, t.srcPicture, xproto.Drawable(source), srcFormat, 0, nil).Check(); err != nil {
		return fail(fmt.Errorf("failed to create source picture: %w", err))
	}
	undo.add(func() error { return render.FreePictureChecked(xc, t.srcPicture).Check() })
	if err := render.SetPictureFilterChecked(xc, t.srcPicture, uint16(len(scaleFilter)), scaleFilter, nil).Check(); err != nil {
		logger.Debug().Err(err).Msg("scale filter not supported, using nearest")
	}

	dstFormat, err := conn.PictFormat(conn.RootDepth(), false)
	if err != nil {
		return fail(err)
	}
	if t.dstPicture, err = render.NewPictureId(xc); err != nil {
		return fail(fmt.Errorf("failed to allocate picture id: %w", err))
	}
	if err := render.CreatePictureChecked(xc, t.dstPicture, xproto.Drawable(wid), dstFormat, 0, nil).Check(); err != nil {
		return fail(fmt.Errorf("failed to create preview picture: %w", err))
	}
	undo.add(func() error { return render.FreePictureChecked(xc, t.dstPicture).Check() })

	if t.overlayPixmap, err = xproto.NewPixmapId(xc); err != nil {
		return fail(fmt.Errorf("failed to allocate pixmap id: %w", err))
	}
	if err := xproto.CreatePixmapChecked(xc, 32, t.overlayPixmap, xproto.Drawable(conn.Root), width, height).Check(); err != nil {
		return fail(fmt.Errorf("failed to create overlay pixmap: %w", err))
	}
	undo.add(func() error { return xproto.FreePixmapChecked(xc, t.overlayPixmap).Check() })

	argbFormat, err := conn.PictFormat(32, true)
	if err != nil {
		return fail(err)
	}
	if t.overlayPicture, err = render.NewPictureId(xc); err != nil {
		return fail(fmt.Errorf("failed to allocate picture id: %w", err))
	}
	if err := render.CreatePictureChecked(xc, t.overlayPicture, xproto.Drawable(t.overlayPixmap), argbFormat, 0, nil).Check(); err != nil {
		return fail(fmt.Errorf("failed to create overlay picture: %w", err))
	}
	undo.add(func() error { return render.FreePictureChecked(xc, t.overlayPicture).Check() })

	if t.overlayGC, err = xproto.NewGcontextId(xc); err != nil {
		return fail(fmt.Errorf("failed to allocate gc id: %w", err))
	}
	if err := xproto.CreateGCChecked(xc, t.overlayGC, xproto.Drawable(t.overlayPixmap), 0, nil).Check(); err != nil {
		return fail(fmt.Errorf("failed to create overlay gc: %w", err))
	}
	undo.add(func() error { return xproto.FreeGCChecked(xc, t.overlayGC).Check() })

	if t.Damage, err = damage.NewDamageId(xc); err != nil {
		return fail(fmt.Errorf("failed to allocate damage id: %w", err))
	}
	if err := damage.CreateChecked(xc, t.Damage, xproto.Drawable(source), damage.ReportLevelRawRectangles).Check(); err != nil {
		return fail(fmt.Errorf("failed to create damage for window %d: %w", source, err))
	}
	undo.add(func() error { return damage.DestroyChecked(xc, t.Damage).Check() })

	if err := t.redraw(); err != nil {
		return fail(err)
	}

	logger.Debug().
		Uint32("window", uint32(wid)).
		Int16("x", origin.X).
		Int16("y", origin.Y).
		Uint16("width", width).
		Uint16("height", height).
		Msg("preview created")
	return t, nil
}

// Label is the text drawn for the current character.
func (t *Thumbnail) Label() string {
	if t.Name == "" {
		return t.env.Display.LoggedOutLabel
	}
	return t.Name
}

// Release frees every resource the thumbnail owns. Each resource is freed
// independently and failures are logged. When sourceGone is set the source
// window is already destroyed, which took its damage and picture with it.
func (t *Thumbnail) Release(sourceGone bool) {
	xc := t.env.Conn.Conn()
	type resource struct {
		name string
		free func() error
	}
	var resources []resource
	if !sourceGone {
		resources = append(resources,
			resource{"damage", func() error { return damage.DestroyChecked(xc, t.Damage).Check() }},
			resource{"source picture", func() error { return render.FreePictureChecked(xc, t.srcPicture).Check() }},
		)
	}
	resources = append(resources,
		resource{"overlay gc", func() error { return xproto.FreeGCChecked(xc, t.overlayGC).Check() }},
		resource{"overlay picture", func() error { return render.FreePictureChecked(xc, t.overlayPicture).Check() }},
		resource{"preview picture", func() error { return render.FreePictureChecked(xc, t.dstPicture).Check() }},
		resource{"border fill", func() error { return render.FreePictureChecked(xc, t.borderFill).Check() }},
		resource{"overlay pixmap", func() error { return xproto.FreePixmapChecked(xc, t.overlayPixmap).Check() }},
		resource{"preview window", func() error { return xproto.DestroyWindowChecked(xc, t.Window).Check() }},
	)

	for _, r := range resources {
		if err := r.free(); err != nil {
			t.logger.Error().Err(err).Str("resource", r.name).Msg("failed to release preview resource")
		}
	}
	t.logger.Debug().Uint32("window", uint32(t.Window)).Msg("preview released")
}
