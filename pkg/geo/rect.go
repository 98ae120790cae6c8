package geo

// Rect is an inclusive axis-aligned rectangle on the planar grid.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// EmptyRect returns a rectangle that contains nothing; extending it with a
// point yields the degenerate rectangle around that point.
func EmptyRect() Rect {
	return Rect{
		Min: Point{X: Unset, Y: Unset},
		Max: Point{X: 0, Y: 0},
	}
}

// IsEmpty reports whether no point has been added to r.
func (r Rect) IsEmpty() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y
}

// Extend grows r to include p.
func (r *Rect) Extend(p Point) {
	r.Min.X = min(r.Min.X, p.X)
	r.Min.Y = min(r.Min.Y, p.Y)
	r.Max.X = max(r.Max.X, p.X)
	r.Max.Y = max(r.Max.Y, p.Y)
}

// Width returns the extent of r along x, or 0 when empty.
func (r Rect) Width() Coord {
	if r.IsEmpty() {
		return 0
	}
	return r.Max.X - r.Min.X
}

// Height returns the extent of r along y, or 0 when empty.
func (r Rect) Height() Coord {
	if r.IsEmpty() {
		return 0
	}
	return r.Max.Y - r.Min.Y
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return !r.IsEmpty() &&
		p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether r and o share at least one point.
func (r Rect) Intersects(o Rect) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return false
	}
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X &&
		r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// BoundsOf returns the smallest rectangle containing every point in pts.
func BoundsOf(pts []Point) Rect {
	r := EmptyRect()
	for _, p := range pts {
		r.Extend(p)
	}
	return r
}
