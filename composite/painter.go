package composite

import (
	"image"
	"slices"

	"github.com/akmonengine/pointvolume/style"
	"github.com/go-gl/mathgl/mgl32"
)

// PainterSort resolves visibility with the painter's algorithm. Submit only
// records the point; Flush sorts all points by depth and sequence number and
// paints them back to front, smallest depth first, so that the points with
// larger depth end up on top. Each marker blends over what is already there
// with its style's alpha, which gives correct results for translucent
// markers.
//
// Cost is O(P log P) time and O(P) memory, independent of resolution.
type PainterSort struct {
	frame
	points []Point3D
}

func NewPainterSort(cfg Config) (*PainterSort, error) {
	p := &PainterSort{}
	f, err := newFrame(p, cfg)
	if err != nil {
		return nil, err
	}
	p.frame = f
	return p, nil
}

func (ps *PainterSort) Submit(px, py int, z float64, styleID int) error {
	return ps.SubmitLabel(px, py, z, styleID, "")
}

func (ps *PainterSort) SubmitLabel(px, py int, z float64, styleID int, label string) error {
	s, err := ps.accept(Point3D{X: px, Y: py, Z: z, Style: styleID})
	if err != nil || s == nil {
		return err
	}
	ps.points = append(ps.points, ps.next(px, py, z, styleID, label))
	return nil
}

// Pending returns the number of points waiting for Flush.
func (ps *PainterSort) Pending() int {
	return len(ps.points)
}

func (ps *PainterSort) Flush() (Tile, error) {
	if err := ps.beginFlush(); err != nil {
		return Tile{}, err
	}

	slices.SortFunc(ps.points, compareDepth)
	for _, p := range ps.points {
		s, _ := ps.styles.Get(p.Style)
		ps.paint(p, s, s.Footprint().Offsets, false)
		if p.Label != "" {
			ps.paint(p, s, ps.styles.LabelFootprint(p.Label).Offsets, true)
		}
	}
	ps.points = ps.points[:0]

	ws := ps.ws
	return ws.tile(func(i int) uint32 {
		return unpremultiply(ws.accum[i])
	}), nil
}

// paint blends one footprint over the accumulation buffers.
func (ps *PainterSort) paint(p Point3D, s *style.MarkStyle, offsets []image.Point, label bool) {
	c := colorOf(s, label)
	alpha := c.W()
	if !label {
		alpha *= s.Alpha()
	}
	rgb := c.Vec3()
	if ps.fogger != nil {
		rgb = ps.fogger.ShadeRGB32(p.Z, rgb)
	}
	src := rgb.Vec4(1).Mul(alpha)
	code := int32(p.Style)
	if label {
		code = labelCode(p.Style)
	}

	ws := ps.ws
	keep := 1 - alpha
	cx := p.X + ws.pad
	cy := p.Y + ws.pad
	for _, off := range offsets {
		x, y := cx+off.X, cy+off.Y
		i, ok := ws.index(x, y)
		if !ok {
			continue
		}
		ws.accum[i] = src.Add(ws.accum[i].Mul(keep))
		ws.depth[i] = p.Z
		ws.styles[i] = code
		ws.mark(i, x, y)
	}
}

func (ps *PainterSort) Reset() {
	ps.reset()
	ps.points = ps.points[:0]
}

func (ps *PainterSort) Release() {
	ps.release(ps)
}

// unpremultiply packs a premultiplied colour into 0xAARRGGBB.
func unpremultiply(c mgl32.Vec4) uint32 {
	a := c.W()
	if a <= 0 {
		return 0
	}
	rgb := c.Vec3().Mul(1 / a)
	return uint32(channel(a))<<24 |
		uint32(channel(rgb.X()))<<16 |
		uint32(channel(rgb.Y()))<<8 |
		uint32(channel(rgb.Z()))
}

func channel(v float32) uint8 {
	v = v*255 + 0.5
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
