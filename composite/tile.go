package composite

import (
	"image"
	"image/color"
)

// NoStyle marks a pixel no marker was drawn on.
const NoStyle int32 = -1

// Style buffer encoding: marker pixels hold the style id, label pixels hold
// labelBase minus the style id.
const labelBase int32 = -2

func labelCode(style int) int32 {
	return labelBase - int32(style)
}

func decodeStyle(code int32) (style int, label bool, ok bool) {
	switch {
	case code >= 0:
		return int(code), false, true
	case code <= labelBase:
		return int(labelBase - code), true, true
	default:
		return 0, false, false
	}
}

// Tile is the result of a flush: the smallest viewport rectangle holding
// every drawn pixel, with packed 0xAARRGGBB pixels (0 where nothing was
// drawn) and the style that ended up on top of each pixel. A Tile owns its
// slices; it stays valid after the workspace is reused.
type Tile struct {
	X, Y          int
	Width, Height int
	Pix           []uint32
	Styles        []int32
}

// Empty reports whether nothing was drawn.
func (t Tile) Empty() bool {
	return t.Width <= 0 || t.Height <= 0
}

// Bounds returns the tile rectangle in viewport coordinates.
func (t Tile) Bounds() image.Rectangle {
	return image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height)
}

func (t Tile) index(x, y int) (int, bool) {
	if !image.Pt(x, y).In(t.Bounds()) {
		return 0, false
	}
	return (y-t.Y)*t.Width + (x - t.X), true
}

// At returns the packed colour at a viewport position, 0 outside the tile.
func (t Tile) At(x, y int) uint32 {
	if i, ok := t.index(x, y); ok {
		return t.Pix[i]
	}
	return 0
}

// StyleAt returns the style drawn on top at a viewport position and whether
// the pixel belongs to a label rather than a marker. ok is false for pixels
// nothing was drawn on.
func (t Tile) StyleAt(x, y int) (style int, label bool, ok bool) {
	i, in := t.index(x, y)
	if !in {
		return 0, false, false
	}
	return decodeStyle(t.Styles[i])
}

// Image converts the tile to an image whose bounds are the tile rectangle in
// viewport coordinates.
func (t Tile) Image() *image.NRGBA {
	img := image.NewNRGBA(t.Bounds())
	if t.Empty() {
		return img
	}
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			argb := t.Pix[y*t.Width+x]
			img.SetNRGBA(t.X+x, t.Y+y, color.NRGBA{
				R: uint8(argb >> 16),
				G: uint8(argb >> 8),
				B: uint8(argb),
				A: uint8(argb >> 24),
			})
		}
	}
	return img
}
