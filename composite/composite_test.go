package composite

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/akmonengine/pointvolume/fog"
	"github.com/akmonengine/pointvolume/style"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

const (
	testWidth  = 40
	testHeight = 30
)

type strategy struct {
	name string
	make func(cfg Config) (Resolver, error)
}

var strategies = []strategy{
	{"zbuffer", func(cfg Config) (Resolver, error) { return NewZBuffer(cfg) }},
	{"painter", func(cfg Config) (Resolver, error) { return NewPainterSort(cfg) }},
}

func mustStyle(t testing.TB, shape style.Shape, size int, c color.NRGBA) *style.MarkStyle {
	t.Helper()
	s, err := style.NewMarkStyle(shape, size, c)
	if err != nil {
		t.Fatalf("NewMarkStyle: %v", err)
	}
	return s
}

// twoStyles returns a registry with a red style 0 and a blue style 1.
func twoStyles(t testing.TB, shape style.Shape, size int) *style.Registry {
	return style.NewRegistry(mustStyle(t, shape, size, red), mustStyle(t, shape, size, blue))
}

func newTestConfig(reg *style.Registry, ws *Workspace) Config {
	return Config{
		Workspace:      ws,
		Styles:         reg,
		ViewportWidth:  testWidth,
		ViewportHeight: testHeight,
	}
}

// =============================================================================
// Occlusion Tests
// =============================================================================

func TestLargerDepthObscures(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			for _, order := range []string{"near first", "far first"} {
				r, err := st.make(newTestConfig(twoStyles(t, style.ShapePoint, 0), nil))
				if err != nil {
					t.Fatal(err)
				}

				if order == "near first" {
					_ = r.Submit(10, 10, 1.0, 0)
					_ = r.Submit(10, 10, 5.0, 1)
				} else {
					_ = r.Submit(10, 10, 5.0, 1)
					_ = r.Submit(10, 10, 1.0, 0)
				}

				tile, err := r.Flush()
				if err != nil {
					t.Fatalf("%s: Flush: %v", order, err)
				}
				id, label, ok := tile.StyleAt(10, 10)
				if !ok || label || id != 1 {
					t.Errorf("%s: style at pixel = %d (label=%v ok=%v), want 1", order, id, label, ok)
				}
				if got := tile.At(10, 10); got != fog.PackARGB(blue) {
					t.Errorf("%s: colour at pixel = %08x, want %08x", order, got, fog.PackARGB(blue))
				}
			}
		})
	}
}

func TestEqualDepthEarlierSubmissionOnTop(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			for _, order := range [][2]int{{0, 1}, {1, 0}} {
				r, _ := st.make(newTestConfig(twoStyles(t, style.ShapeFilledCircle, 2), nil))
				_ = r.Submit(3, 3, 2.0, order[0])
				_ = r.Submit(3, 3, 2.0, order[1])
				_ = r.Submit(3, 3, 1.5, order[1])
				tile, _ := r.Flush()

				for _, px := range [][2]int{{3, 3}, {4, 3}, {3, 4}} {
					if id, _, _ := tile.StyleAt(px[0], px[1]); id != order[0] {
						t.Errorf("order %v: pixel %v went to style %d, want first submission %d", order, px, id, order[0])
					}
				}
			}
		})
	}
}

func TestCompareDepth(t *testing.T) {
	tests := []struct {
		name string
		a, b Point3D
		want int
	}{
		{"shallower first", Point3D{Z: 1, Seq: 9}, Point3D{Z: 2, Seq: 1}, -1},
		{"deeper last", Point3D{Z: 3, Seq: 1}, Point3D{Z: 2, Seq: 9}, 1},
		{"tie paints later submission first", Point3D{Z: 2, Seq: 7}, Point3D{Z: 2, Seq: 3}, -1},
		{"tie paints earlier submission last", Point3D{Z: 2, Seq: 3}, Point3D{Z: 2, Seq: 7}, 1},
		{"same submission", Point3D{Z: 2, Seq: 3}, Point3D{Z: 2, Seq: 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareDepth(tt.a, tt.b); got != tt.want {
				t.Errorf("compareDepth(%+v, %+v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFootprintOcclusion(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			r, _ := st.make(newTestConfig(twoStyles(t, style.ShapeFilledSquare, 2), nil))
			// Red square in front, blue square behind and shifted right.
			_ = r.Submit(10, 10, 3, 0)
			_ = r.Submit(12, 10, 1, 1)

			tile, _ := r.Flush()
			want := map[[2]int]int{
				{8, 10}:  0, // red only
				{11, 10}: 0, // overlap, red is in front
				{13, 10}: 1, // blue only
				{14, 12}: 1,
			}
			for pos, id := range want {
				got, _, ok := tile.StyleAt(pos[0], pos[1])
				if !ok || got != id {
					t.Errorf("pixel %v: style %d ok=%v, want %d", pos, got, ok, id)
				}
			}
			if _, _, ok := tile.StyleAt(10, 13); ok {
				t.Error("pixel outside both squares reported drawn")
			}
		})
	}
}

// =============================================================================
// Tile Tests
// =============================================================================

func TestFlush_TileBoundsDirtyRegion(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			r, _ := st.make(newTestConfig(twoStyles(t, style.ShapeFilledSquare, 1), nil))
			_ = r.Submit(5, 6, 1, 0)
			_ = r.Submit(20, 15, 1, 1)

			tile, err := r.Flush()
			if err != nil {
				t.Fatal(err)
			}
			if tile.X != 4 || tile.Y != 5 || tile.Width != 18 || tile.Height != 12 {
				t.Errorf("tile = (%d,%d %dx%d), want (4,5 18x12)", tile.X, tile.Y, tile.Width, tile.Height)
			}
			if len(tile.Pix) != tile.Width*tile.Height || len(tile.Styles) != len(tile.Pix) {
				t.Errorf("tile slices have wrong length")
			}
			if tile.At(12, 10) != 0 {
				t.Error("untouched pixel inside the tile should be 0")
			}
		})
	}
}

func TestFlush_ClippedToViewport(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			r, _ := st.make(newTestConfig(twoStyles(t, style.ShapeFilledSquare, 2), nil))
			// Centre off the left edge; only the right column pixels are visible.
			_ = r.Submit(-2, 10, 1, 0)

			tile, _ := r.Flush()
			if tile.X != 0 || tile.Width != 1 || tile.Height != 5 {
				t.Errorf("tile = (%d,%d %dx%d), want x=0 width 1 height 5", tile.X, tile.Y, tile.Width, tile.Height)
			}

			// A marker entirely in the padding draws nothing visible.
			r.Reset()
			_ = r.Submit(-4, 10, 1, 0)
			tile, _ = r.Flush()
			if !tile.Empty() {
				t.Errorf("marker in the padding produced %v", tile.Bounds())
			}
		})
	}
}

func TestFlush_Empty(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			r, _ := st.make(newTestConfig(twoStyles(t, style.ShapePoint, 0), nil))
			tile, err := r.Flush()
			if err != nil {
				t.Fatalf("empty flush returned error: %v", err)
			}
			if !tile.Empty() || tile.Bounds().Dx() != 0 {
				t.Errorf("empty flush returned tile %v", tile.Bounds())
			}
		})
	}
}

func TestTileImage(t *testing.T) {
	r, _ := NewZBuffer(newTestConfig(twoStyles(t, style.ShapePoint, 0), nil))
	_ = r.Submit(7, 8, 1, 1)
	tile, _ := r.Flush()

	img := tile.Image()
	if img.Bounds() != tile.Bounds() {
		t.Errorf("image bounds %v, want %v", img.Bounds(), tile.Bounds())
	}
	if got := img.NRGBAAt(7, 8); got != blue {
		t.Errorf("image pixel = %v, want %v", got, blue)
	}
}

// =============================================================================
// Invalid Input Tests
// =============================================================================

func TestNonFiniteDepthDropped(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			r, _ := st.make(newTestConfig(twoStyles(t, style.ShapePoint, 0), nil))
			for i := 0; i < 10; i++ {
				z := 1.0
				if i == 4 {
					z = math.NaN()
				}
				if err := r.Submit(2*i, 3, z, 0); err != nil {
					t.Fatalf("Submit %d: %v", i, err)
				}
			}
			if err := r.Submit(1, 1, math.Inf(1), 1); err != nil {
				t.Fatalf("Submit(+Inf): %v", err)
			}

			tile, err := r.Flush()
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 10; i++ {
				_, _, ok := tile.StyleAt(2*i, 3)
				if i == 4 && ok {
					t.Error("NaN point was drawn")
				}
				if i != 4 && (!ok || tile.At(2*i, 3) != fog.PackARGB(red)) {
					t.Errorf("valid point %d not drawn correctly", i)
				}
			}
			if _, _, ok := tile.StyleAt(1, 1); ok {
				t.Error("infinite-depth point was drawn")
			}
		})
	}
}

func TestUnknownStyle(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			r, _ := st.make(newTestConfig(twoStyles(t, style.ShapePoint, 0), nil))
			if err := r.Submit(1, 1, 1, 7); !errors.Is(err, ErrUnknownStyle) {
				t.Errorf("Submit with unknown style: %v, want %v", err, ErrUnknownStyle)
			}
		})
	}
}

func TestUnderPadded(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			reg := twoStyles(t, style.ShapePoint, 0)
			r, _ := st.make(newTestConfig(reg, nil))
			// Registered after the workspace was padded for radius 0.
			big := reg.Add(mustStyle(t, style.ShapeFilledCircle, 10, red))
			if err := r.Submit(1, 1, 1, big); !errors.Is(err, ErrUnderPadded) {
				t.Errorf("Submit with oversized style: %v, want %v", err, ErrUnderPadded)
			}
		})
	}
}

// =============================================================================
// Frame Protocol Tests
// =============================================================================

func TestProtocol(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			r, _ := st.make(newTestConfig(twoStyles(t, style.ShapePoint, 0), nil))
			_ = r.Submit(1, 1, 1, 0)
			if _, err := r.Flush(); err != nil {
				t.Fatal(err)
			}
			if err := r.Submit(1, 1, 1, 0); !errors.Is(err, ErrFlushed) {
				t.Errorf("Submit after Flush: %v, want %v", err, ErrFlushed)
			}
			if _, err := r.Flush(); !errors.Is(err, ErrFlushed) {
				t.Errorf("second Flush: %v, want %v", err, ErrFlushed)
			}

			r.Reset()
			if err := r.Submit(1, 1, 1, 0); err != nil {
				t.Errorf("Submit after Reset: %v", err)
			}
			if _, err := r.Flush(); err != nil {
				t.Errorf("Flush after Reset: %v", err)
			}
		})
	}
}

func TestWorkspaceSingleWriter(t *testing.T) {
	reg := twoStyles(t, style.ShapePoint, 0)
	ws := NewWorkspace()

	z, err := NewZBuffer(newTestConfig(reg, ws))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewPainterSort(newTestConfig(reg, ws)); !errors.Is(err, ErrWorkspaceInUse) {
		t.Errorf("second resolver on a held workspace: %v, want %v", err, ErrWorkspaceInUse)
	}

	z.Release()
	p, err := NewPainterSort(newTestConfig(reg, ws))
	if err != nil {
		t.Fatalf("resolver after Release: %v", err)
	}
	p.Release()
}

func TestReleasedResolverCannotWrite(t *testing.T) {
	reg := twoStyles(t, style.ShapePoint, 0)

	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			ws := NewWorkspace()
			stale, err := st.make(newTestConfig(reg, ws))
			if err != nil {
				t.Fatal(err)
			}
			stale.Release()

			holder, err := NewZBuffer(newTestConfig(reg, ws))
			if err != nil {
				t.Fatalf("claim after Release: %v", err)
			}
			_ = holder.Submit(2, 2, 1, 0)

			if err := stale.Submit(2, 2, 5, 1); !errors.Is(err, ErrWorkspaceInUse) {
				t.Errorf("Submit after Release: %v, want %v", err, ErrWorkspaceInUse)
			}
			stale.Reset()
			if _, err := stale.Flush(); !errors.Is(err, ErrWorkspaceInUse) {
				t.Errorf("Flush after Release: %v, want %v", err, ErrWorkspaceInUse)
			}

			tile, err := holder.Flush()
			if err != nil {
				t.Fatal(err)
			}
			if id, _, _ := tile.StyleAt(2, 2); id != 0 {
				t.Errorf("holder's pixel went to style %d, want 0", id)
			}
		})
	}
}

// =============================================================================
// Workspace Reuse Tests
// =============================================================================

func TestWorkspaceReuse_NoLeakBetweenFrames(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			ws := NewWorkspace()
			r, _ := st.make(newTestConfig(twoStyles(t, style.ShapeFilledCircle, 3), ws))
			for i := 0; i < 50; i++ {
				_ = r.Submit(i%testWidth, (3*i)%testHeight, float64(i), i%2)
			}
			first, _ := r.Flush()
			if first.Empty() {
				t.Fatal("populated frame produced an empty tile")
			}

			r.Reset()
			second, err := r.Flush()
			if err != nil {
				t.Fatal(err)
			}
			if !second.Empty() {
				t.Errorf("empty frame after populated frame leaked %v", second.Bounds())
			}

			r.Reset()
			_ = r.Submit(20, 20, 0.5, 1)
			third, _ := r.Flush()
			if third.Bounds().Dx() != 7 || third.Bounds().Dy() != 7 {
				t.Errorf("third frame tile %v, want a single 7x7 marker", third.Bounds())
			}
			for y := third.Y; y < third.Y+third.Height; y++ {
				for x := third.X; x < third.X+third.Width; x++ {
					if id, _, ok := third.StyleAt(x, y); ok && id != 1 {
						t.Fatalf("pixel (%d,%d) leaked style %d from an earlier frame", x, y, id)
					}
				}
			}
			if ws.Allocations() != 1 {
				t.Errorf("workspace allocated %d times for a constant size", ws.Allocations())
			}
		})
	}
}

func TestWorkspace_GrowOnly(t *testing.T) {
	ws := NewWorkspace()
	if !ws.Init(10, 10, 2) {
		t.Error("first Init should allocate")
	}
	if ws.Init(10, 10, 2) {
		t.Error("same size Init should reuse")
	}
	if ws.Init(6, 8, 2) {
		t.Error("smaller Init should reuse")
	}
	if w, h := ws.Size(); w != 10 || h != 12 {
		t.Errorf("Size() = %dx%d, want 10x12", w, h)
	}
	if !ws.Init(30, 30, 2) {
		t.Error("larger Init should reallocate")
	}
	if ws.Allocations() != 2 {
		t.Errorf("Allocations() = %d, want 2", ws.Allocations())
	}
}

func TestWorkspace_ResizeClearsEverything(t *testing.T) {
	reg := twoStyles(t, style.ShapeFilledSquare, 1)
	ws := NewWorkspace()

	big, _ := NewZBuffer(Config{Workspace: ws, Styles: reg, ViewportWidth: 30, ViewportHeight: 30})
	_ = big.Submit(15, 15, 1, 0)
	_, _ = big.Flush()
	big.Release()

	small, _ := NewZBuffer(Config{Workspace: ws, Styles: reg, ViewportWidth: 20, ViewportHeight: 25})
	tile, _ := small.Flush()
	if !tile.Empty() {
		t.Errorf("resized workspace leaked %v", tile.Bounds())
	}
}

// =============================================================================
// Shading Tests
// =============================================================================

func TestFlush_AppliesFog(t *testing.T) {
	fogger, _ := fog.New(1)
	fogger.SetFogginess(1)

	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			cfg := newTestConfig(twoStyles(t, style.ShapePoint, 0), nil)
			cfg.Fogger = fogger
			r, _ := st.make(cfg)
			_ = r.Submit(1, 1, 0, 0)
			_ = r.Submit(5, 1, 2, 0)
			tile, _ := r.Flush()

			if got := tile.At(1, 1); got != fog.PackARGB(red) {
				t.Errorf("zero depth colour %08x, want unfogged %08x", got, fog.PackARGB(red))
			}
			far := fog.UnpackARGB(tile.At(5, 1))
			want := fogger.ShadeNRGBA(2, red)
			if diff := int(far.G) - int(want.G); diff < -1 || diff > 1 || far.R != 255 {
				t.Errorf("fogged colour %v, want about %v", far, want)
			}
		})
	}
}

func TestPainter_BlendsTranslucent(t *testing.T) {
	reg := twoStyles(t, style.ShapePoint, 0)
	front, _ := reg.Get(1)
	front.OpaqueLimit = 2

	p, _ := NewPainterSort(newTestConfig(reg, nil))
	_ = p.Submit(4, 4, 1, 0) // opaque red behind
	_ = p.Submit(4, 4, 2, 1) // half transparent blue in front
	tile, _ := p.Flush()

	c := fog.UnpackARGB(tile.At(4, 4))
	if c.A != 255 {
		t.Errorf("alpha = %d, want 255", c.A)
	}
	if c.R < 126 || c.R > 129 || c.B < 126 || c.B > 129 {
		t.Errorf("blend = %v, want half red half blue", c)
	}
	if id, _, _ := tile.StyleAt(4, 4); id != 1 {
		t.Errorf("top style = %d, want 1", id)
	}
}

func TestLabels(t *testing.T) {
	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			reg := twoStyles(t, style.ShapePoint, 0)
			r, _ := st.make(newTestConfig(reg, nil))
			if err := r.SubmitLabel(5, 25, 1, 1, "Vega"); err != nil {
				t.Fatal(err)
			}
			tile, _ := r.Flush()

			labels := 0
			for y := tile.Y; y < tile.Y+tile.Height; y++ {
				for x := tile.X; x < tile.X+tile.Width; x++ {
					if id, label, ok := tile.StyleAt(x, y); ok && label {
						labels++
						if id != 1 {
							t.Fatalf("label pixel carries style %d, want 1", id)
						}
					}
				}
			}
			if labels == 0 {
				t.Error("no label pixels drawn")
			}
			if id, label, ok := tile.StyleAt(5, 25); !ok || label || id != 1 {
				t.Error("marker pixel missing under its label")
			}
		})
	}
}

func TestUnpremultiply(t *testing.T) {
	tests := []struct {
		name string
		in   mgl32.Vec4
		want uint32
	}{
		{"empty", mgl32.Vec4{}, 0},
		{"opaque", mgl32.Vec4{1, 0, 0.5, 1}, 0xffff0080},
		{"half covered", mgl32.Vec4{0.5, 0, 0.25, 0.5}, 0x80ff0080},
		{"clamped", mgl32.Vec4{2, 0, 0, 1}, 0xffff0000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unpremultiply(tt.in); got != tt.want {
				t.Errorf("unpremultiply(%v) = %08x, want %08x", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func benchmarkResolver(b *testing.B, st strategy, points int) {
	reg := twoStyles(b, style.ShapeFilledCircle, 2)
	fogger, _ := fog.New(fog.DefaultScale)
	fogger.SetFogginess(1)
	cfg := Config{Workspace: NewWorkspace(), Styles: reg, Fogger: fogger, ViewportWidth: 500, ViewportHeight: 500}
	r, err := st.make(cfg)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		r.Reset()
		for i := 0; i < points; i++ {
			_ = r.Submit((i*7919)%500, (i*104729)%500, float64(i%1000)/1000, i&1)
		}
		_, _ = r.Flush()
	}
}

func BenchmarkZBuffer_100k(b *testing.B) { benchmarkResolver(b, strategies[0], 100_000) }
func BenchmarkPainter_100k(b *testing.B) { benchmarkResolver(b, strategies[1], 100_000) }
