// Package font rasterizes preview labels into premultiplied ARGB bitmaps.
package font

import (
	"encoding/binary"
	"fmt"
	"image"
	"os"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Bitmap is a rendered label. Pix holds Width*Height premultiplied ARGB
// words in row-major order.
type Bitmap struct {
	Width  int
	Height int
	Pix    []uint32
}

func (b Bitmap) Empty() bool {
	return b.Width == 0 || b.Height == 0
}

// Bytes packs the pixels as depth-32 ZPixmap data in the server's image
// byte order.
func (b Bitmap) Bytes(order binary.ByteOrder) []byte {
	out := make([]byte, 4*len(b.Pix))
	for i, px := range b.Pix {
		order.PutUint32(out[4*i:], px)
	}
	return out
}

// At returns the pixel at (x, y).
func (b Bitmap) At(x, y int) uint32 {
	return b.Pix[y*b.Width+x]
}

// Renderer rasterizes text with one face at one size. It is not safe for
// concurrent use.
type Renderer struct {
	face    xfont.Face
	size    float64
	metrics xfont.Metrics
}

// New loads the TrueType/OpenType font at path, or the bundled Go Regular
// face when path is empty.
func New(path string, size float64) (*Renderer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", size)
	}

	data := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file %s: %w", path, err)
		}
		data = b
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}

	return &Renderer{face: face, size: size, metrics: face.Metrics()}, nil
}

func (r *Renderer) Size() float64 { return r.size }

// Measure returns the pixel extent RenderText would produce for text.
func (r *Renderer) Measure(text string) (int, int) {
	if text == "" {
		return 0, 0
	}
	w := xfont.MeasureString(r.face, text).Ceil()
	h := (r.metrics.Ascent + r.metrics.Descent).Ceil()
	return w, h
}

// RenderText draws text in argb on a transparent background.
func (r *Renderer) RenderText(text string, argb uint32) (Bitmap, error) {
	w, h := r.Measure(text)
	if w <= 0 || h <= 0 {
		return Bitmap{}, nil
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	d := xfont.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: r.face,
		Dot:  fixed.Point26_6{X: 0, Y: r.metrics.Ascent},
	}
	d.DrawString(text)

	fa := (argb >> 24) & 0xFF
	fr := (argb >> 16) & 0xFF
	fg := (argb >> 8) & 0xFF
	fb := argb & 0xFF

	pix := make([]uint32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			coverage := uint32(mask.AlphaAt(x, y).A)
			if coverage == 0 {
				continue
			}
			a := fa * coverage / 255
			pix[y*w+x] = a<<24 | (fr*a/255)<<16 | (fg*a/255)<<8 | fb*a/255
		}
	}

	return Bitmap{Width: w, Height: h, Pix: pix}, nil
}

func (r *Renderer) Close() error {
	return r.face.Close()
}
