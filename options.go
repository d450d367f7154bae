package pointvolume

import (
	"image/color"

	"github.com/akmonengine/pointvolume/composite"
	"github.com/akmonengine/pointvolume/fog"
	"github.com/akmonengine/pointvolume/projection"
	"github.com/go-gl/mathgl/mgl64"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := pointvolume.NewRenderer(vp, styles,
//	    pointvolume.WithFogginess(2),
//	    pointvolume.WithStrategy(pointvolume.StrategySort))
type Option func(*options)

type options struct {
	strategy       Strategy
	expectedPoints int
	fogginess      float64
	fogScale       float64
	fogColor       color.Color
	zoom           float64
	workspace      *composite.Workspace
	registry       *PointRegistry
	normalizer     *projection.Normalizer
	clip           *projection.ClipRect
}

func defaultOptions() options {
	return options{
		strategy: StrategyAuto,
		fogScale: fog.DefaultScale,
		zoom:     1,
	}
}

// WithStrategy forces a visibility strategy instead of choosing one from the
// styles and expected point count.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithExpectedPoints gives the number of points a full frame is expected to
// plot. It is only used by StrategyAuto.
func WithExpectedPoints(n int) Option {
	return func(o *options) {
		o.expectedPoints = n
	}
}

// WithFogginess sets the depth fog intensity. 0 disables fog.
func WithFogginess(f float64) Option {
	return func(o *options) {
		o.fogginess = f
	}
}

// WithFogScale sets the reference distance the fogginess is measured in.
func WithFogScale(scale float64) Option {
	return func(o *options) {
		o.fogScale = scale
	}
}

// WithFogColor sets the colour distant points fade towards, normally the
// plot background.
func WithFogColor(c color.Color) Option {
	return func(o *options) {
		o.fogColor = c
	}
}

// WithZoom magnifies the rotated X/Y plane about the cube centre.
func WithZoom(zoom float64) Option {
	return func(o *options) {
		o.zoom = zoom
	}
}

// WithWorkspace shares a workspace between renderers that are never active
// at the same time, so its buffers are allocated once.
func WithWorkspace(ws *composite.Workspace) Option {
	return func(o *options) {
		o.workspace = ws
	}
}

// WithPointRegistry records the screen position of every plotted point of
// each full frame, for picking with PointRegistry.Closest.
func WithPointRegistry(pr *PointRegistry) Option {
	return func(o *options) {
		o.registry = pr
	}
}

// WithBounds maps data coordinates within [lo, hi] onto the unit cube before
// projection. Without it points must already be normalized.
func WithBounds(lo, hi mgl64.Vec3) Option {
	return func(o *options) {
		n := projection.NewNormalizer(lo, hi)
		o.normalizer = &n
	}
}

// WithClip restricts drawing to part of the viewport.
func WithClip(clip projection.ClipRect) Option {
	return func(o *options) {
		o.clip = &clip
	}
}
