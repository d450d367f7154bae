package style

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// maxCachedLabels bounds the label footprint cache.
const maxCachedLabels = 4096

// Label placement relative to the point, in pixels.
const (
	labelOffsetX = 4
	labelOffsetY = -4
)

// Registry maps integer style identifiers to styles. Identifiers are dense
// indices assigned in insertion order.
type Registry struct {
	styles []*MarkStyle
	labels map[string]Footprint
	face   font.Face
}

func NewRegistry(styles ...*MarkStyle) *Registry {
	r := &Registry{
		styles: make([]*MarkStyle, 0, len(styles)),
		labels: make(map[string]Footprint),
		face:   basicfont.Face7x13,
	}
	for _, s := range styles {
		r.Add(s)
	}
	return r
}

// Add registers a style and returns its identifier.
func (r *Registry) Add(s *MarkStyle) int {
	r.styles = append(r.styles, s)
	return len(r.styles) - 1
}

// Get returns the style with the given identifier.
func (r *Registry) Get(id int) (*MarkStyle, bool) {
	if id < 0 || id >= len(r.styles) {
		return nil, false
	}
	return r.styles[id], true
}

func (r *Registry) Len() int {
	return len(r.styles)
}

// MaxRadius returns the largest marker radius of all registered styles.
func (r *Registry) MaxRadius() int {
	radius := 0
	for _, s := range r.styles {
		radius = max(radius, s.MaxRadius())
	}
	return radius
}

// Translucent reports whether any registered style is translucent.
func (r *Registry) Translucent() bool {
	for _, s := range r.styles {
		if s.Translucent() {
			return true
		}
	}
	return false
}

// LabelFootprint returns the pixels covered by a text label drawn next to a
// point, relative to the point. Labels are not bounded by the style radius.
func (r *Registry) LabelFootprint(text string) Footprint {
	if fp, ok := r.labels[text]; ok {
		return fp
	}
	if len(r.labels) >= maxCachedLabels {
		clear(r.labels)
	}

	fp := rasterizeLabel(r.face, text)
	r.labels[text] = fp
	return fp
}

func rasterizeLabel(face font.Face, text string) Footprint {
	if text == "" {
		return Footprint{}
	}

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	height := ascent + metrics.Descent.Ceil()
	width := font.MeasureString(face, text).Ceil()
	if width <= 0 || height <= 0 {
		return Footprint{}
	}

	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(text)

	offsets := make([]image.Point, 0, width*height/2)
	radius := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask.AlphaAt(x, y).A < coverageThreshold {
				continue
			}
			p := image.Pt(labelOffsetX+x, labelOffsetY-ascent+y)
			offsets = append(offsets, p)
			radius = max(radius, abs(p.X), abs(p.Y))
		}
	}

	return Footprint{Offsets: offsets, Radius: radius}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
