// Package pointvolume renders clouds of 3D points as shaded, depth-resolved
// markers.
//
// A Renderer is created once per viewport and style set. Each frame starts
// with Begin, which takes the current view rotation, continues with one Plot
// per point and ends with Flush, which returns the drawn region as a
// composite.Tile:
//
//	r, _ := pointvolume.NewRenderer(vp, styles, pointvolume.WithFogginess(1))
//	frame, _ := r.Begin(composer.Matrix(), composer.Dragging())
//	for _, p := range points {
//	    _ = frame.Plot(p, 0)
//	}
//	tile, err := frame.Flush()
package pointvolume

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/akmonengine/pointvolume/composite"
	"github.com/akmonengine/pointvolume/fog"
	"github.com/akmonengine/pointvolume/projection"
	"github.com/akmonengine/pointvolume/style"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrClosed     = errors.New("pointvolume: renderer closed")
	ErrNoStyles   = errors.New("pointvolume: no style registry")
	ErrStaleFrame = errors.New("pointvolume: frame superseded by a later Begin")
)

// Strategy selects how overlapping markers are resolved.
type Strategy uint8

const (
	// StrategyAuto picks PainterSort when translucency must be honoured or
	// few points are expected, ZBuffer otherwise.
	StrategyAuto Strategy = iota
	StrategyZBuffer
	StrategySort
)

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyZBuffer:
		return "zbuffer"
	case StrategySort:
		return "sort"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// SortThresholdDivisor sets the point count under which StrategyAuto sorts
// rather than using a depth buffer: pixels/SortThresholdDivisor.
const SortThresholdDivisor = 4

// DecimationMillis is the full-frame time, in milliseconds, per unit of
// decimation step while rotating.
const DecimationMillis = 100

// Renderer owns a visibility resolver and its workspace for one viewport.
type Renderer struct {
	viewport   projection.Viewport
	styles     *style.Registry
	fogger     *fog.Fogger
	workspace  *composite.Workspace
	resolver   composite.Resolver
	strategy   Strategy
	zoom       float64
	normalizer *projection.Normalizer
	clip       *projection.ClipRect
	registry   *PointRegistry

	// duration of the last frame plotted without decimation
	lastFull time.Duration
	frames   uint64
	frame    *Frame
	closed   bool

	now func() time.Time
}

// NewRenderer creates a renderer for a viewport and a set of styles. The
// styles are read, never modified; styles added to the registry later must
// not be larger than the largest one present now.
func NewRenderer(viewport projection.Viewport, styles *style.Registry, opts ...Option) (*Renderer, error) {
	if viewport.PadFactor == 0 {
		viewport.PadFactor = projection.DefaultPadFactor
	}
	if err := viewport.Validate(); err != nil {
		return nil, err
	}
	if styles == nil {
		return nil, ErrNoStyles
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	fogger, err := fog.New(o.fogScale)
	if err != nil {
		return nil, err
	}
	fogger.SetFogginess(o.fogginess)
	if o.fogColor != nil {
		fogger.SetColor(o.fogColor)
	}

	ws := o.workspace
	if ws == nil {
		ws = composite.NewWorkspace()
	}

	r := &Renderer{
		viewport:   viewport,
		styles:     styles,
		fogger:     fogger,
		workspace:  ws,
		zoom:       o.zoom,
		normalizer: o.normalizer,
		clip:       o.clip,
		registry:   o.registry,
		now:        time.Now,
	}
	r.strategy = chooseStrategy(o.strategy, styles, o.expectedPoints, viewport)

	allocs := ws.Allocations()
	cfg := composite.Config{
		Workspace:      ws,
		Styles:         styles,
		Fogger:         fogger,
		ViewportWidth:  viewport.Width,
		ViewportHeight: viewport.Height,
	}
	switch r.strategy {
	case StrategySort:
		r.resolver, err = composite.NewPainterSort(cfg)
	default:
		r.resolver, err = composite.NewZBuffer(cfg)
	}
	if err != nil {
		return nil, err
	}

	Logger().Debug("pointvolume: renderer created",
		slog.String("strategy", r.strategy.String()),
		slog.Int("width", viewport.Width),
		slog.Int("height", viewport.Height),
		slog.Bool("allocated", ws.Allocations() != allocs))
	return r, nil
}

// chooseStrategy resolves StrategyAuto. An expected point count of zero means
// unknown and only translucency decides.
func chooseStrategy(requested Strategy, styles *style.Registry, expected int, vp projection.Viewport) Strategy {
	if requested == StrategyZBuffer || requested == StrategySort {
		return requested
	}
	if styles.Translucent() {
		return StrategySort
	}
	pixels := vp.Width * vp.Height
	if expected > 0 && expected < pixels/SortThresholdDivisor {
		return StrategySort
	}
	return StrategyZBuffer
}

func (r *Renderer) Strategy() Strategy {
	return r.strategy
}

func (r *Renderer) Viewport() projection.Viewport {
	return r.viewport
}

// Fogger returns the shader applied to every frame. Changes take effect on
// the next Flush.
func (r *Renderer) Fogger() *fog.Fogger {
	return r.fogger
}

func (r *Renderer) PointRegistry() *PointRegistry {
	return r.registry
}

// Step returns the decimation step the next frame will use: while rotating
// only every Step-th point is plotted, so that a frame takes about
// DecimationMillis milliseconds whatever the point count.
func (r *Renderer) Step(rotating bool) int {
	if !rotating {
		return 1
	}
	return max(int(r.lastFull.Milliseconds())/DecimationMillis, 1)
}

// Begin starts a frame viewed through the given rotation. rotating marks an
// intermediate frame during a drag, which may be decimated and does not
// update the point registry. Any frame not yet flushed is abandoned.
func (r *Renderer) Begin(rotation mgl64.Mat3, rotating bool) (*Frame, error) {
	if r.closed {
		return nil, ErrClosed
	}

	projector, err := projection.NewProjector(r.viewport, rotation, r.zoom)
	if err != nil {
		return nil, err
	}
	if r.clip != nil {
		projector.SetClip(*r.clip)
	}

	if r.frames > 0 {
		allocs := r.workspace.Allocations()
		r.resolver.Reset()
		if r.workspace.Allocations() != allocs {
			Logger().Debug("pointvolume: workspace reallocated", slog.Int("allocations", r.workspace.Allocations()))
		}
	}
	r.frames++

	if r.registry != nil && !rotating {
		r.registry.Clear()
	}

	r.frame = &Frame{
		renderer:  r,
		projector: projector,
		rotating:  rotating,
		step:      r.Step(rotating),
		start:     r.now(),
	}
	return r.frame, nil
}

// Close releases the workspace so another renderer may use it.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.resolver.Release()
	r.frame = nil
	r.closed = true
}

// FrameStats counts what happened to the points offered to a frame.
type FrameStats struct {
	// Points is the number of Plot calls.
	Points int
	// Skipped points were left out by decimation while rotating.
	Skipped int
	// Invalid points had a NaN or infinite coordinate.
	Invalid int
	// Clipped points fell entirely outside the clip rectangle.
	Clipped int
	// Plotted points were handed to the resolver.
	Plotted int
}

// Frame collects the points of one rendering pass.
type Frame struct {
	renderer  *Renderer
	projector *projection.Projector
	rotating  bool
	step      int
	start     time.Time
	stats     FrameStats
}

// Plot submits a point. Points with a non-finite coordinate, points whose
// marker cannot reach the clip rectangle and points left out by decimation
// are dropped and counted, not reported as errors.
func (f *Frame) Plot(p mgl64.Vec3, styleID int) error {
	return f.PlotLabel(p, styleID, "")
}

// PlotLabel is Plot with a text label drawn beside the marker.
func (f *Frame) PlotLabel(p mgl64.Vec3, styleID int, label string) error {
	r := f.renderer
	if r.frame != f {
		return ErrStaleFrame
	}

	index := f.stats.Points
	f.stats.Points++
	if f.step > 1 && index%f.step != 0 {
		f.stats.Skipped++
		return nil
	}

	if r.normalizer != nil {
		p = r.normalizer.Normalize(p)
	}
	px, py, z, ok := f.projector.Project(p)
	if !ok {
		f.stats.Invalid++
		return nil
	}

	s, ok := r.styles.Get(styleID)
	if !ok {
		return fmt.Errorf("%w: %d", composite.ErrUnknownStyle, styleID)
	}
	if !f.projector.Visible(px, py, s.MaxRadius()) {
		f.stats.Clipped++
		return nil
	}

	if err := r.resolver.SubmitLabel(px, py, z, styleID, label); err != nil {
		return err
	}
	f.stats.Plotted++

	if r.registry != nil && !f.rotating {
		r.registry.Insert(index, px, py, z)
	}
	return nil
}

func (f *Frame) Stats() FrameStats {
	return f.stats
}

// Step returns the decimation step of this frame, 1 when every point is
// plotted.
func (f *Frame) Step() int {
	return f.step
}

// Projector returns the projection used by this frame, for drawing overlays
// such as axes in the same screen space.
func (f *Frame) Projector() *projection.Projector {
	return f.projector
}

// Flush composites the frame and returns the region drawn on.
func (f *Frame) Flush() (composite.Tile, error) {
	r := f.renderer
	if r.frame != f {
		return composite.Tile{}, ErrStaleFrame
	}

	tile, err := r.resolver.Flush()
	if err != nil {
		Logger().Warn("pointvolume: flush failed", slog.String("err", err.Error()))
		return composite.Tile{}, err
	}

	elapsed := r.now().Sub(f.start)
	if !f.rotating {
		r.lastFull = elapsed
	}

	Logger().Debug("pointvolume: frame",
		slog.Int("points", f.stats.Points),
		slog.Int("plotted", f.stats.Plotted),
		slog.Int("skipped", f.stats.Skipped),
		slog.Int("invalid", f.stats.Invalid),
		slog.Int("clipped", f.stats.Clipped),
		slog.Int("step", f.step),
		slog.Duration("elapsed", elapsed))
	return tile, nil
}
