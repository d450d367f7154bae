// Package style holds the marker styles a point volume is plotted with.
//
// Styles are owned by the caller and referred to by the renderer through
// integer identifiers handed out by a Registry. The renderer only reads them.
package style

import (
	"errors"
	"fmt"
	"image/color"
)

var ErrInvalidStyle = errors.New("style: invalid style")

// MarkStyle describes how a single data point is drawn.
type MarkStyle struct {
	// Color is the base marker colour, before fogging.
	Color color.NRGBA
	// LabelColor is used for text labels attached to points.
	LabelColor color.NRGBA
	// OpaqueLimit is the number of overlapping markers it takes to reach
	// full opacity. 1 means opaque markers.
	OpaqueLimit int

	shape     Shape
	size      int
	footprint Footprint
}

// NewMarkStyle creates an opaque style and computes its footprint.
func NewMarkStyle(shape Shape, size int, c color.NRGBA) (*MarkStyle, error) {
	if !shape.valid() {
		return nil, fmt.Errorf("%w: unknown shape %d", ErrInvalidStyle, shape)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrInvalidStyle, size)
	}

	return &MarkStyle{
		Color:       c,
		LabelColor:  color.NRGBA{A: 0xff},
		OpaqueLimit: 1,
		shape:       shape,
		size:        size,
		footprint:   shape.Rasterize(size),
	}, nil
}

func (s *MarkStyle) Shape() Shape {
	return s.shape
}

func (s *MarkStyle) Size() int {
	return s.size
}

// Footprint returns the pixel offsets painted by the marker. The returned
// slice is shared and must not be modified.
func (s *MarkStyle) Footprint() Footprint {
	return s.footprint
}

// MaxRadius returns the largest distance, on either axis, from the marker
// centre to a painted pixel.
func (s *MarkStyle) MaxRadius() int {
	return s.footprint.Radius
}

// Alpha returns the opacity of a single marker.
func (s *MarkStyle) Alpha() float32 {
	if s.OpaqueLimit <= 1 {
		return 1
	}
	return 1 / float32(s.OpaqueLimit)
}

// Translucent reports whether overlapping markers of this style blend.
func (s *MarkStyle) Translucent() bool {
	return s.OpaqueLimit > 1
}
