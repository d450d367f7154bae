// Package composite resolves which of many overlapping point markers are
// visible and composites them into a packed-pixel tile.
//
// Two strategies implement Resolver:
//
//   - ZBuffer keeps the winning depth per pixel. Memory scales with the
//     screen, time with the number of pixels touched. Markers are opaque.
//   - PainterSort keeps every point, sorts them by depth and paints them in
//     order, blending translucent markers. Memory scales with the number of
//     points.
//
// Both apply the same depth rule: a point is drawn over another where its
// depth is strictly larger. At equal depth the earlier submission stays on
// top.
//
// A frame is a sequence of Submit calls followed by exactly one Flush.
// Submitting after Flush, or flushing twice, is an error until Reset starts
// the next frame.
package composite

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/pointvolume/fog"
	"github.com/akmonengine/pointvolume/style"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrFlushed        = errors.New("composite: frame already flushed")
	ErrWorkspaceInUse = errors.New("composite: workspace held by another resolver")
	ErrUnderPadded    = errors.New("composite: marker radius exceeds workspace padding")
	ErrUnknownStyle   = errors.New("composite: unknown style")
)

// Resolver decides point visibility for one frame at a time.
type Resolver interface {
	// Submit adds a marker centred on viewport pixel (px, py) at the given
	// depth. Points with a non-finite depth are dropped without error.
	Submit(px, py int, z float64, styleID int) error
	// SubmitLabel is Submit with a text label drawn beside the marker.
	SubmitLabel(px, py int, z float64, styleID int, label string) error
	// Flush composites the frame and returns the drawn region.
	Flush() (Tile, error)
	// Reset starts a new frame on the same workspace.
	Reset()
	// Release gives the workspace back so another resolver may use it.
	Release()
}

// Config holds what both strategies need.
type Config struct {
	Workspace      *Workspace
	Styles         *style.Registry
	Fogger         *fog.Fogger
	ViewportWidth  int
	ViewportHeight int
}

// Padding returns the border the workspace needs around a viewport for the
// given largest marker radius.
func Padding(maxRadius int) int {
	return 2 + 2*maxRadius
}

// frame is the state shared by both strategies.
type frame struct {
	owner   any
	ws      *Workspace
	styles  *style.Registry
	fogger  *fog.Fogger
	width   int
	height  int
	pad     int
	seq     uint64
	flushed bool
}

func newFrame(owner any, cfg Config) (frame, error) {
	if cfg.Workspace == nil {
		cfg.Workspace = NewWorkspace()
	}
	if cfg.Styles == nil {
		return frame{}, fmt.Errorf("%w: no style registry", ErrUnknownStyle)
	}
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		return frame{}, fmt.Errorf("composite: invalid viewport %dx%d", cfg.ViewportWidth, cfg.ViewportHeight)
	}
	if err := cfg.Workspace.claim(owner); err != nil {
		return frame{}, err
	}

	f := frame{
		owner:  owner,
		ws:     cfg.Workspace,
		styles: cfg.Styles,
		fogger: cfg.Fogger,
		width:  cfg.ViewportWidth,
		height: cfg.ViewportHeight,
		pad:    Padding(cfg.Styles.MaxRadius()),
	}
	f.ws.Init(f.width, f.height, f.pad)
	return f, nil
}

// accept validates a submission and returns its style, or nil if the point
// is to be silently dropped.
func (f *frame) accept(p Point3D) (*style.MarkStyle, error) {
	if f.ws.owner != f.owner {
		return nil, ErrWorkspaceInUse
	}
	if f.flushed {
		return nil, ErrFlushed
	}
	s, ok := f.styles.Get(p.Style)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStyle, p.Style)
	}
	if s.MaxRadius() > f.pad {
		return nil, fmt.Errorf("%w: style %d radius %d, pad %d", ErrUnderPadded, p.Style, s.MaxRadius(), f.pad)
	}
	if math.IsNaN(p.Z) || math.IsInf(p.Z, 0) {
		return nil, nil
	}
	return s, nil
}

func (f *frame) next(px, py int, z float64, styleID int, label string) Point3D {
	f.seq++
	return Point3D{X: px, Y: py, Z: z, Style: styleID, Seq: f.seq, Label: label}
}

func (f *frame) beginFlush() error {
	if f.ws.owner != f.owner {
		return ErrWorkspaceInUse
	}
	if f.flushed {
		return ErrFlushed
	}
	f.flushed = true
	return nil
}

// reset starts a new frame. A released resolver leaves the workspace alone;
// its next Submit or Flush reports ErrWorkspaceInUse.
func (f *frame) reset() {
	f.flushed = false
	if f.ws.owner != f.owner {
		return
	}
	f.ws.Init(f.width, f.height, f.pad)
}

func (f *frame) release(owner any) {
	f.ws.release(owner)
}

// colorOf returns the straight-alpha colour of a marker or label pixel,
// channels in [0,1].
func colorOf(s *style.MarkStyle, label bool) mgl32.Vec4 {
	c := s.Color
	if label {
		c = s.LabelColor
	}
	return mgl32.Vec4{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}
