package snap

// Rect is a screen rectangle in root-window coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) Left() int   { return r.X }
func (r Rect) Right() int  { return r.X + r.Width }
func (r Rect) Top() int    { return r.Y }
func (r Rect) Bottom() int { return r.Y + r.Height }

type candidate struct {
	offset   int
	distance int
	ok       bool
}

// consider keeps the edge pair if it is within threshold and strictly closer
// than the current best, so ties go to the first pair seen.
func (c *candidate) consider(edge, target, threshold int) {
	distance := abs(edge - target)
	if distance > threshold {
		return
	}
	if c.ok && distance >= c.distance {
		return
	}
	*c = candidate{offset: target - edge, distance: distance, ok: true}
}

// FindSnapPosition returns the top-left position for dragged after aligning
// its edges with the closest peer edges within threshold pixels. Each axis is
// resolved independently; an axis without a qualifying edge keeps its value.
// ok is false when neither axis snapped. A threshold of 0 disables snapping.
func FindSnapPosition(dragged Rect, others []Rect, threshold int) (x, y int, ok bool) {
	x, y = dragged.X, dragged.Y
	if threshold <= 0 {
		return x, y, false
	}

	var bestX, bestY candidate
	for _, other := range others {
		bestX.consider(dragged.Left(), other.Right(), threshold)
		bestX.consider(dragged.Right(), other.Left(), threshold)
		bestX.consider(dragged.Left(), other.Left(), threshold)
		bestX.consider(dragged.Right(), other.Right(), threshold)

		bestY.consider(dragged.Top(), other.Bottom(), threshold)
		bestY.consider(dragged.Bottom(), other.Top(), threshold)
		bestY.consider(dragged.Top(), other.Top(), threshold)
		bestY.consider(dragged.Bottom(), other.Bottom(), threshold)
	}

	if bestX.ok {
		x += bestX.offset
	}
	if bestY.ok {
		y += bestY.offset
	}
	return x, y, bestX.ok || bestY.ok
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
