package screen

import "math"

// Point is a position in virtual-desktop logical pixels.
type Point struct {
	X int
	Y int
}

// Rect is an axis-aligned rectangle in virtual-desktop logical pixels.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) Right() int  { return r.X + r.Width }
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Within reports whether r lies entirely inside outer.
func (r Rect) Within(outer Rect) bool {
	return r.X >= outer.X && r.Y >= outer.Y && r.Right() <= outer.Right() && r.Bottom() <= outer.Bottom()
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	return math.Hypot(dx, dy)
}

// distanceSq is the squared distance from p to the closest point of r (0 when inside).
func (r Rect) distanceSq(p Point) int {
	dx := 0
	if p.X < r.X {
		dx = r.X - p.X
	} else if p.X > r.Right() {
		dx = p.X - r.Right()
	}
	dy := 0
	if p.Y < r.Y {
		dy = r.Y - p.Y
	} else if p.Y > r.Bottom() {
		dy = p.Y - r.Bottom()
	}
	return dx*dx + dy*dy
}

// Clamp moves r so that it lies fully inside area. If r is larger than area
// in a dimension it is shrunk to fit.
func Clamp(r, area Rect) Rect {
	if r.Width > area.Width {
		r.Width = area.Width
	}
	if r.Height > area.Height {
		r.Height = area.Height
	}
	r.X = clampInt(r.X, area.X, area.Right()-r.Width)
	r.Y = clampInt(r.Y, area.Y, area.Bottom()-r.Height)
	return r
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
