package thumbnail

import (
	"fmt"

	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/peektile/internal/font"
	"github.com/1broseidon/peektile/internal/x11"
)

// scaleFilter smooths the downscaled capture. Servers without it fall back
// to nearest neighbour.
const scaleFilter = "good"

// putImageHeader is the fixed size of a PutImage request in bytes.
const putImageHeader = 24

// Update refreshes the preview: the source is scaled into the preview
// window, then the border and label overlay is blended on top.
func (t *Thumbnail) Update() error {
	if err := t.capture(); err != nil {
		return err
	}
	t.overlay()
	return nil
}

func (t *Thumbnail) capture() error {
	geom, err := t.env.Conn.GetGeometry(t.Source)
	if err != nil {
		return err
	}
	if geom.Width == 0 || geom.Height == 0 {
		return nil
	}

	xc := t.env.Conn.Conn()
	render.SetPictureTransform(xc, t.srcPicture, x11.ScaleTransform(geom.Width, geom.Height, t.Width, t.Height))
	render.Composite(xc, render.PictOpSrc, t.srcPicture, 0, t.dstPicture,
		0, 0, 0, 0, 0, 0, t.Width, t.Height)
	return nil
}

func (t *Thumbnail) overlay() {
	render.Composite(t.env.Conn.Conn(), render.PictOpOver, t.overlayPicture, 0, t.dstPicture,
		0, 0, 0, 0, 0, 0, t.Width, t.Height)
}

// Border redraws the overlay with or without the focus border, then the
// label on top of it.
func (t *Thumbnail) Border(focused bool) error {
	xc := t.env.Conn.Conn()
	if focused && t.env.Display.EffectiveBorderSize() > 0 {
		render.Composite(xc, render.PictOpSrc, t.borderFill, 0, t.overlayPicture,
			0, 0, 0, 0, 0, 0, t.Width, t.Height)
	} else {
		render.Composite(xc, render.PictOpClear, t.overlayPicture, 0, t.overlayPicture,
			0, 0, 0, 0, 0, 0, t.Width, t.Height)
	}
	return t.drawName()
}

// drawName clears the area inside the border and draws the label at the
// configured text offset.
func (t *Thumbnail) drawName() error {
	b := t.env.Display.EffectiveBorderSize()
	if x, y, w, h, ok := insetRect(t.Width, t.Height, b); ok {
		render.Composite(t.env.Conn.Conn(), render.PictOpClear, t.overlayPicture, 0, t.overlayPicture,
			0, 0, 0, 0, x, y, w, h)
	}
	return t.drawText(t.Label(), t.env.Display.TextX, t.env.Display.TextY)
}

// insetRect is the region inside a border of size b. ok is false when the
// border covers the whole thumbnail.
func insetRect(width, height, b uint16) (x, y int16, w, h uint16, ok bool) {
	if 2*uint32(b) >= uint32(width) || 2*uint32(b) >= uint32(height) {
		return 0, 0, 0, 0, false
	}
	return int16(b), int16(b), width - 2*b, height - 2*b, true
}

func (t *Thumbnail) drawMinimized() error {
	w, h := t.env.Font.Measure(minimizedLabel)
	x, y := centeredOrigin(int(t.Width), int(t.Height), w, h)
	return t.drawText(minimizedLabel, clampInt16(x), clampInt16(y))
}

// centeredOrigin is the top-left corner that centers a textW x textH label
// in a width x height area.
func centeredOrigin(width, height, textW, textH int) (int, int) {
	return (width - textW) / 2, (height - textH) / 2
}

// drawText rasterizes text and blends it onto the overlay at (x, y). The
// bitmap travels through a temporary depth-32 pixmap that is freed again.
func (t *Thumbnail) drawText(text string, x, y int16) error {
	bmp, err := t.env.Font.RenderText(text, t.env.Display.TextColor)
	if err != nil {
		return fmt.Errorf("failed to render label %q: %w", text, err)
	}
	if bmp.Empty() {
		return nil
	}
	w, h := uint16(bmp.Width), uint16(bmp.Height)

	conn := t.env.Conn
	xc := conn.Conn()

	pix, err := xproto.NewPixmapId(xc)
	if err != nil {
		return fmt.Errorf("failed to allocate pixmap id: %w", err)
	}
	xproto.CreatePixmap(xc, 32, pix, xproto.Drawable(conn.Root), w, h)
	defer xproto.FreePixmap(xc, pix)

	t.putBitmap(xproto.Drawable(pix), bmp)

	format, err := conn.PictFormat(32, true)
	if err != nil {
		return err
	}
	pic, err := render.NewPictureId(xc)
	if err != nil {
		return fmt.Errorf("failed to allocate picture id: %w", err)
	}
	render.CreatePicture(xc, pic, xproto.Drawable(pix), format, 0, nil)
	defer render.FreePicture(xc, pic)

	render.Composite(xc, render.PictOpOver, pic, 0, t.overlayPicture,
		0, 0, 0, 0, x, y, w, h)
	return nil
}

// putBitmap uploads bmp in as many PutImage requests as the server's
// maximum request length requires.
func (t *Thumbnail) putBitmap(dst xproto.Drawable, bmp font.Bitmap) {
	xc := t.env.Conn.Conn()
	data := bmp.Bytes(t.env.Conn.ImageByteOrder())
	stride := 4 * bmp.Width
	maxBytes := 4 * int(t.env.Conn.XUtil.Setup().MaximumRequestLength)

	for _, span := range rowSpans(bmp.Width, bmp.Height, maxBytes) {
		start, rows := span[0], span[1]
		xproto.PutImage(xc, xproto.ImageFormatZPixmap, dst, t.overlayGC,
			uint16(bmp.Width), uint16(rows), 0, int16(start), 0, 32,
			data[start*stride:(start+rows)*stride])
	}
}

// rowSpans splits height rows of width ARGB pixels into [start, count]
// spans that each fit in one request of at most maxBytes.
func rowSpans(width, height, maxBytes int) [][2]int {
	if width <= 0 || height <= 0 {
		return nil
	}
	per := (maxBytes - putImageHeader) / (4 * width)
	if per < 1 {
		per = 1
	}
	var spans [][2]int
	for start := 0; start < height; start += per {
		rows := per
		if start+rows > height {
			rows = height - start
		}
		spans = append(spans, [2]int{start, rows})
	}
	return spans
}

// redraw rebuilds the overlay from the current state and pushes a frame.
func (t *Thumbnail) redraw() error {
	if err := t.Border(t.Focused && !t.Minimized); err != nil {
		return err
	}
	if t.Minimized {
		if err := t.drawMinimized(); err != nil {
			return err
		}
	}
	return t.Update()
}

// SetFocused applies a focus change. Gaining focus leaves the minimized
// state.
func (t *Thumbnail) SetFocused(focused bool) error {
	t.Focused = focused
	if focused {
		t.Minimized = false
	}
	return t.redraw()
}

// SetMinimized marks the source as iconified and shows the MINIMIZED label.
func (t *Thumbnail) SetMinimized() error {
	t.Minimized = true
	return t.redraw()
}

// SetName changes the character shown. An empty name shows the logged-out
// label.
func (t *Thumbnail) SetName(name string) error {
	t.Name = name
	t.logger = t.env.Logger.With().Uint32("source", uint32(t.Source)).Str("character", name).Logger()
	return t.redraw()
}

// SetVisible maps or unmaps the preview window.
func (t *Thumbnail) SetVisible(visible bool) {
	if visible == t.Visible {
		return
	}
	t.Visible = visible
	xc := t.env.Conn.Conn()
	if visible {
		xproto.MapWindow(xc, t.Window)
	} else {
		xproto.UnmapWindow(xc, t.Window)
	}
}

// Reposition moves the preview to (x, y) in root coordinates. No position
// is cached; Geometry asks the server.
func (t *Thumbnail) Reposition(x, y int16) {
	xproto.ConfigureWindow(t.env.Conn.Conn(), t.Window,
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{uint32(int32(x)), uint32(int32(y))})
}

// Geometry is the live position and size of the preview window.
func (t *Thumbnail) Geometry() (x11.Geometry, error) {
	return t.env.Conn.GetGeometry(t.Window)
}

// Contains reports whether the root point (x, y) is over this visible
// preview, using its live geometry.
func (t *Thumbnail) Contains(x, y int16) (bool, error) {
	if !t.Visible {
		return false, nil
	}
	geom, err := t.Geometry()
	if err != nil {
		return false, err
	}
	return geom.Contains(x, y), nil
}
