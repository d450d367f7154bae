package projection

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Centre is the rotation centre of the unit cube.
var Centre = mgl64.Vec3{0.5, 0.5, 0.5}

// Projector maps normalized points to integer pixel positions for one frame.
type Projector struct {
	viewport Viewport
	rotation mgl64.Mat3
	zoom     float64
	scale    float64
	xoff     int
	yoff     int
	clip     ClipRect
}

// NewProjector creates a projector for a viewport and view rotation. Zoom
// scales the rotated X/Y coordinates about the cube centre; values <= 0 are
// treated as 1.
func NewProjector(viewport Viewport, rotation mgl64.Mat3, zoom float64) (*Projector, error) {
	if err := viewport.Validate(); err != nil {
		return nil, err
	}
	if !(zoom > 0) || math.IsInf(zoom, 0) {
		zoom = 1
	}

	xoff, yoff := viewport.Offsets()
	return &Projector{
		viewport: viewport,
		rotation: rotation,
		zoom:     zoom,
		scale:    viewport.Scale(),
		xoff:     xoff,
		yoff:     yoff,
		clip:     viewport.Clip(),
	}, nil
}

func (p *Projector) Viewport() Viewport {
	return p.viewport
}

func (p *Projector) Rotation() mgl64.Mat3 {
	return p.rotation
}

// SetClip restricts the visible area. The rectangle is intersected with the
// viewport.
func (p *Projector) SetClip(clip ClipRect) {
	vc := p.viewport.Clip()
	p.clip = ClipRect{
		MinX: max(clip.MinX, vc.MinX),
		MinY: max(clip.MinY, vc.MinY),
		MaxX: min(clip.MaxX, vc.MaxX),
		MaxY: min(clip.MaxY, vc.MaxY),
	}
}

func (p *Projector) Clip() ClipRect {
	return p.clip
}

// Rotate applies the view rotation and zoom to a normalized point, about the
// cube centre.
func (p *Projector) Rotate(point mgl64.Vec3) mgl64.Vec3 {
	r := p.rotation.Mul3x1(point.Sub(Centre))
	r[0] *= p.zoom
	r[1] *= p.zoom
	return r.Add(Centre)
}

// Project returns the pixel position and depth of a normalized point.
// ok is false if any component of the point is NaN or infinite.
func (p *Projector) Project(point mgl64.Vec3) (px, py int, z float64, ok bool) {
	if !finite(point) {
		return 0, 0, 0, false
	}

	r := p.Rotate(point)
	px = p.xoff + int(math.Round(r.X()*p.scale))
	py = p.yoff - int(math.Round(r.Y()*p.scale))
	return px, py, r.Z(), true
}

// Visible reports whether a marker of the given radius centred on (px, py)
// can touch the clip rectangle.
func (p *Projector) Visible(px, py, radius int) bool {
	return MarkerBox(px, py, radius).Overlaps(p.clip)
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
