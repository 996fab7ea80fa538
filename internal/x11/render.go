package x11

import (
	"errors"
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/render"
)

// ErrNoPictFormat is returned when RENDER offers no format for a requested
// depth and alpha combination.
var ErrNoPictFormat = errors.New("no matching picture format")

// ToFixed converts v to RENDER's 16.16 fixed-point representation.
func ToFixed(v float64) render.Fixed {
	return render.Fixed(math.Round(v * 65536))
}

// ScaleTransform returns the picture transform that maps a dstW x dstH
// destination onto a srcW x srcH source. RENDER transforms map destination
// coordinates to source coordinates, hence src/dst.
func ScaleTransform(srcW, srcH, dstW, dstH uint16) render.Transform {
	return render.Transform{
		Matrix11: ToFixed(float64(srcW) / float64(dstW)),
		Matrix22: ToFixed(float64(srcH) / float64(dstH)),
		Matrix33: ToFixed(1),
	}
}

// PictFormat returns a direct picture format of the given depth, with an
// alpha channel when alpha is set and without one otherwise.
func (c *Connection) PictFormat(depth byte, alpha bool) (render.Pictformat, error) {
	return selectPictFormat(c.formats, depth, alpha)
}

func selectPictFormat(formats []render.Pictforminfo, depth byte, alpha bool) (render.Pictformat, error) {
	for _, f := range formats {
		if f.Type != render.PictTypeDirect || f.Depth != depth {
			continue
		}
		if (f.Direct.AlphaMask != 0) == alpha {
			return f.Id, nil
		}
	}
	return 0, fmt.Errorf("%w: depth %d, alpha %v", ErrNoPictFormat, depth, alpha)
}
