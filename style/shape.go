package style

import (
	"image"

	"golang.org/x/image/vector"
)

// Shape identifies the outline a marker is drawn with.
type Shape int

const (
	ShapePoint Shape = iota
	ShapeFilledCircle
	ShapeOpenCircle
	ShapeFilledSquare
	ShapeOpenSquare
	ShapeCross
)

// coverageThreshold is the minimum rasterized alpha for a pixel to belong to
// a footprint.
const coverageThreshold = 0x80

// kappa is the cubic Bézier control distance for a quarter circle.
const kappa = 0.5522847498

func (s Shape) String() string {
	switch s {
	case ShapePoint:
		return "point"
	case ShapeFilledCircle:
		return "filled circle"
	case ShapeOpenCircle:
		return "open circle"
	case ShapeFilledSquare:
		return "filled square"
	case ShapeOpenSquare:
		return "open square"
	case ShapeCross:
		return "cross"
	default:
		return "unknown"
	}
}

func (s Shape) valid() bool {
	return s >= ShapePoint && s <= ShapeCross
}

// Footprint is the fixed set of pixel offsets, relative to the marker centre,
// painted by a marker. Radius bounds every offset on both axes.
type Footprint struct {
	Offsets []image.Point
	Radius  int
}

// Bounds returns the bounding rectangle of the offsets, or an empty rectangle
// for an empty footprint.
func (f Footprint) Bounds() image.Rectangle {
	if len(f.Offsets) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: f.Offsets[0], Max: f.Offsets[0].Add(image.Pt(1, 1))}
	for _, p := range f.Offsets[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}

// Rasterize computes the footprint of a shape at the given size. Size 0
// always yields a single pixel.
func (s Shape) Rasterize(size int) Footprint {
	if s == ShapePoint || size <= 0 {
		return Footprint{Offsets: []image.Point{{0, 0}}}
	}

	dim := 2*size + 1
	z := vector.NewRasterizer(dim, dim)
	c := float32(size) + 0.5
	full := float32(dim)

	switch s {
	case ShapeFilledCircle:
		circle(z, c, c, c, false)
	case ShapeOpenCircle:
		circle(z, c, c, c, false)
		circle(z, c, c, c-1, true)
	case ShapeFilledSquare:
		rect(z, 0, 0, full, full, false)
	case ShapeOpenSquare:
		rect(z, 0, 0, full, full, false)
		rect(z, 1, 1, full-1, full-1, true)
	case ShapeCross:
		rect(z, 0, float32(size), full, float32(size)+1, false)
		rect(z, float32(size), 0, float32(size)+1, full, false)
	}

	mask := image.NewAlpha(image.Rect(0, 0, dim, dim))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	offsets := make([]image.Point, 0, dim*dim)
	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			if mask.AlphaAt(x, y).A >= coverageThreshold {
				offsets = append(offsets, image.Pt(x-size, y-size))
			}
		}
	}

	return Footprint{Offsets: offsets, Radius: size}
}

// circle adds a closed circular contour. Reversed contours cancel coverage of
// a forward one, which is how the open shapes get their holes.
func circle(z *vector.Rasterizer, cx, cy, r float32, reverse bool) {
	k := r * kappa
	if !reverse {
		z.MoveTo(cx+r, cy)
		z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
		z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
		z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
		z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	} else {
		z.MoveTo(cx+r, cy)
		z.CubeTo(cx+r, cy-k, cx+k, cy-r, cx, cy-r)
		z.CubeTo(cx-k, cy-r, cx-r, cy-k, cx-r, cy)
		z.CubeTo(cx-r, cy+k, cx-k, cy+r, cx, cy+r)
		z.CubeTo(cx+k, cy+r, cx+r, cy+k, cx+r, cy)
	}
	z.ClosePath()
}

func rect(z *vector.Rasterizer, x0, y0, x1, y1 float32, reverse bool) {
	z.MoveTo(x0, y0)
	if !reverse {
		z.LineTo(x1, y0)
		z.LineTo(x1, y1)
		z.LineTo(x0, y1)
	} else {
		z.LineTo(x0, y1)
		z.LineTo(x1, y1)
		z.LineTo(x1, y0)
	}
	z.ClosePath()
}
