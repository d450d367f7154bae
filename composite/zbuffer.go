package composite

import (
	"image"
	"image/color"

	"github.com/akmonengine/pointvolume/fog"
	"github.com/akmonengine/pointvolume/style"
)

// ZBuffer resolves visibility with a per-pixel depth buffer. Each submitted
// marker is written straight into the workspace wherever it beats the depth
// already recorded, and the dirty bounding box grows as it goes. Flush then
// shades only the dirty pixels inside that box.
//
// Cost is O(P·K + D) for P points of K footprint pixels and D dirty pixels,
// with O(W·H) memory.
//
// Markers are treated as opaque: when two translucent markers overlap only
// the winner's colour survives, there is no blending between them. Use
// PainterSort when translucency matters.
type ZBuffer struct {
	frame
	submitted int
}

func NewZBuffer(cfg Config) (*ZBuffer, error) {
	z := &ZBuffer{}
	f, err := newFrame(z, cfg)
	if err != nil {
		return nil, err
	}
	z.frame = f
	return z, nil
}

func (z *ZBuffer) Submit(px, py int, depth float64, styleID int) error {
	return z.SubmitLabel(px, py, depth, styleID, "")
}

func (z *ZBuffer) SubmitLabel(px, py int, depth float64, styleID int, label string) error {
	p := Point3D{X: px, Y: py, Z: depth, Style: styleID, Label: label}
	s, err := z.accept(p)
	if err != nil || s == nil {
		return err
	}
	p = z.next(px, py, depth, styleID, label)

	z.plot(p, s.Footprint().Offsets, int32(p.Style))
	if p.Label != "" {
		z.plot(p, z.styles.LabelFootprint(p.Label).Offsets, labelCode(p.Style))
	}
	z.submitted++
	return nil
}

// plot writes one footprint into the buffers. Offsets falling outside the
// padded buffer are skipped.
func (z *ZBuffer) plot(p Point3D, offsets []image.Point, code int32) {
	ws := z.ws
	cx := p.X + ws.pad
	cy := p.Y + ws.pad
	for _, off := range offsets {
		x, y := cx+off.X, cy+off.Y
		i, ok := ws.index(x, y)
		if !ok {
			continue
		}
		if p.Z > ws.depth[i] {
			ws.depth[i] = p.Z
			ws.styles[i] = code
			ws.mark(i, x, y)
		}
	}
}

// Submitted returns the number of points accepted this frame.
func (z *ZBuffer) Submitted() int {
	return z.submitted
}

func (z *ZBuffer) Flush() (Tile, error) {
	if err := z.beginFlush(); err != nil {
		return Tile{}, err
	}

	ws := z.ws
	t := ws.tile(func(i int) uint32 {
		id, label, _ := decodeStyle(ws.styles[i])
		s, _ := z.styles.Get(id)
		return shadePacked(z.fogger, ws.depth[i], markColor(s, label))
	})
	return t, nil
}

func (z *ZBuffer) Reset() {
	z.reset()
	z.submitted = 0
}

func (z *ZBuffer) Release() {
	z.release(z)
}

func markColor(s *style.MarkStyle, label bool) color.NRGBA {
	if s == nil {
		return color.NRGBA{}
	}
	if label {
		return s.LabelColor
	}
	return s.Color
}

func shadePacked(f *fog.Fogger, depth float64, c color.NRGBA) uint32 {
	if f != nil {
		c = f.ShadeNRGBA(depth, c)
	}
	return fog.PackARGB(c)
}
