// Package projection maps normalized 3D points onto screen pixels.
//
// Points live in the unit cube. A Projector rotates them about the cube
// centre, scales the X/Y plane onto the viewport and keeps the rotated Z as
// depth. A cheap bounding-box test rejects markers that cannot touch the
// clip rectangle before any per-pixel work is done.
package projection

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidViewport = errors.New("projection: invalid viewport")

// DefaultPadFactor leaves room for the rotated cube's diagonal.
const DefaultPadFactor = math.Sqrt2

// Viewport describes the pixel area the volume is drawn into.
type Viewport struct {
	Width  int
	Height int
	// PadFactor is the ratio of the smaller viewport dimension to the
	// projected side of the unit cube; 1 means no extra space.
	PadFactor float64
}

func (v Viewport) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidViewport, v.Width, v.Height)
	}
	if !(v.PadFactor > 0) || math.IsInf(v.PadFactor, 0) {
		return fmt.Errorf("%w: pad factor %v", ErrInvalidViewport, v.PadFactor)
	}
	return nil
}

// Scale returns the number of pixels spanned by one unit of normalized
// coordinate.
func (v Viewport) Scale() float64 {
	return float64(min(v.Width, v.Height)) / v.PadFactor
}

// Offsets returns the pixel position of the normalized origin, chosen so the
// unit cube is centred in the viewport.
func (v Viewport) Offsets() (xoff, yoff int) {
	side := int(math.Round(v.Scale()))
	return (v.Width - side) / 2, (v.Height + side) / 2
}

// Clip returns the whole viewport as a clip rectangle.
func (v Viewport) Clip() ClipRect {
	return ClipRect{MaxX: v.Width, MaxY: v.Height}
}

// MinDimension returns the smaller of width and height.
func (v Viewport) MinDimension() int {
	return min(v.Width, v.Height)
}
