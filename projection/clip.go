package projection

// ClipRect is an axis-aligned pixel rectangle, Min inclusive and Max
// exclusive.
type ClipRect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Empty reports whether the rectangle contains no pixels.
func (c ClipRect) Empty() bool {
	return c.MinX >= c.MaxX || c.MinY >= c.MaxY
}

// ContainsPoint checks if a pixel is inside the rectangle
func (c ClipRect) ContainsPoint(x, y int) bool {
	return x >= c.MinX && x < c.MaxX &&
		y >= c.MinY && y < c.MaxY
}

// Overlaps checks if two rectangles share at least one pixel
func (c ClipRect) Overlaps(other ClipRect) bool {
	// Rectangles overlap if they overlap on both axes
	return c.MaxX > other.MinX && c.MinX < other.MaxX &&
		c.MaxY > other.MinY && c.MinY < other.MaxY
}

// MarkerBox returns the box covered by a marker of the given radius centred
// on (x, y).
func MarkerBox(x, y, radius int) ClipRect {
	return ClipRect{
		MinX: x - radius,
		MinY: y - radius,
		MaxX: x + radius + 1,
		MaxY: y + radius + 1,
	}
}
