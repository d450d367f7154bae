// Command cloud shows a rotating cloud of points. Drag with the left mouse
// button to rotate, click with the right button to pick the closest point,
// press R to return to the home view and Escape to cancel a drag.
package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/akmonengine/pointvolume"
	"github.com/akmonengine/pointvolume/projection"
	"github.com/akmonengine/pointvolume/rotation"
	"github.com/akmonengine/pointvolume/style"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"golang.org/x/image/draw"
)

const (
	screenWidth  = 640
	screenHeight = 480
	numPoints    = 40_000
	pickRadius   = 4
	homeDuration = 0.6 // seconds
)

var background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

type point struct {
	pos   mgl64.Vec3
	style int
	label string
}

// homeAnim turns the view back to the home rotation.
type homeAnim struct {
	tween *gween.Tween
	from  mgl64.Quat
	to    mgl64.Quat
}

type Game struct {
	renderer *pointvolume.Renderer
	composer *rotation.Composer
	registry *pointvolume.PointRegistry
	points   []point

	dragX, dragY int
	home         *homeAnim
	picked       string

	canvas *image.RGBA
	screen *ebiten.Image
}

func NewGame() (*Game, error) {
	core, err := style.NewMarkStyle(style.ShapeFilledCircle, 1, color.NRGBA{R: 30, G: 60, B: 200, A: 255})
	if err != nil {
		return nil, err
	}
	halo, err := style.NewMarkStyle(style.ShapeOpenCircle, 2, color.NRGBA{R: 220, G: 40, B: 40, A: 255})
	if err != nil {
		return nil, err
	}
	halo.LabelColor = color.NRGBA{R: 120, G: 0, B: 0, A: 255}
	styles := style.NewRegistry(core, halo)

	registry := pointvolume.NewPointRegistry(8, 4096)
	points := makeCloud(numPoints)
	renderer, err := pointvolume.NewRenderer(
		projection.Viewport{Width: screenWidth, Height: screenHeight},
		styles,
		pointvolume.WithExpectedPoints(len(points)),
		pointvolume.WithFogginess(2),
		pointvolume.WithFogColor(background),
		pointvolume.WithBounds(mgl64.Vec3{-3, -3, -3}, mgl64.Vec3{3, 3, 3}),
		pointvolume.WithPointRegistry(registry),
	)
	if err != nil {
		return nil, err
	}

	g := &Game{
		renderer: renderer,
		composer: rotation.NewComposer(rotation.DefaultView()),
		registry: registry,
		points:   points,
		canvas:   image.NewRGBA(image.Rect(0, 0, screenWidth, screenHeight)),
		screen:   ebiten.NewImage(screenWidth, screenHeight),
	}
	g.composer.Events.Subscribe(rotation.ROTATION_END, func(event rotation.Event) {
		m := event.(rotation.EndEvent).Matrix
		slog.Debug("rotation committed", slog.Float64("drift", rotation.OrthonormalityError(m)))
	})
	g.composer.Events.Subscribe(rotation.ROTATION_ABORT, func(rotation.Event) {
		slog.Debug("rotation cancelled")
	})
	return g, nil
}

// makeCloud scatters points in two gaussian clusters, labelling the
// brightest few of the second.
func makeCloud(n int) []point {
	rng := rand.New(rand.NewPCG(1, 2))
	points := make([]point, n)
	for i := range points {
		p := &points[i]
		if i%5 == 0 {
			p.pos = mgl64.Vec3{1 + rng.NormFloat64()*0.4, 1 + rng.NormFloat64()*0.4, -1 + rng.NormFloat64()*0.4}
			p.style = 1
			if i%2000 == 0 {
				p.label = fmt.Sprintf("S%d", i/2000)
			}
			continue
		}
		p.pos = mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64() * 0.6, rng.NormFloat64() * 0.8}
	}
	return points
}

func (g *Game) Update() error {
	x, y := ebiten.CursorPosition()
	inside := x >= 0 && y >= 0 && x < screenWidth && y < screenHeight

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && inside:
		g.home = nil
		if err := g.composer.Start(); err == nil {
			g.dragX, g.dragY = x, y
		}
	case g.composer.Dragging() && (inpututil.IsKeyJustPressed(ebiten.KeyEscape) || !inside):
		_, _ = g.composer.Abort()
	case g.composer.Dragging() && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		_, _ = g.composer.End()
	case g.composer.Dragging():
		scale := float64(min(screenWidth, screenHeight))
		_, _ = g.composer.Drag(float64(x-g.dragX), float64(y-g.dragY), scale)
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		if p, ok := g.registry.Closest(x, y, pickRadius); ok {
			g.picked = fmt.Sprintf("point %d at %.2f", p.Index, g.points[p.Index].pos)
		} else {
			g.picked = ""
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) && !g.composer.Dragging() {
		g.home = &homeAnim{
			tween: gween.New(0, 1, homeDuration, ease.OutCubic),
			from:  mgl64.Mat4ToQuat(g.composer.Matrix().Mat4()),
			to:    mgl64.Mat4ToQuat(rotation.DefaultView().Mat4()),
		}
	}
	if g.home != nil {
		t, done := g.home.tween.Update(1 / float32(ebiten.TPS()))
		q := mgl64.QuatSlerp(g.home.from, g.home.to, float64(t))
		if done {
			q = g.home.to
			g.home = nil
		}
		_ = g.composer.Set(rotation.Orthonormalize(q.Mat4().Mat3()))
	}

	g.composer.Events.Flush()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	rotating := g.composer.Dragging() || g.home != nil
	frame, err := g.renderer.Begin(g.composer.Matrix(), rotating)
	if err != nil {
		log.Print(err)
		return
	}
	for _, p := range g.points {
		if err := frame.PlotLabel(p.pos, p.style, p.label); err != nil {
			log.Print(err)
			return
		}
	}
	tile, err := frame.Flush()
	if err != nil {
		log.Print(err)
		return
	}

	draw.Draw(g.canvas, g.canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	if !tile.Empty() {
		draw.Draw(g.canvas, tile.Bounds(), tile.Image(), tile.Bounds().Min, draw.Over)
	}
	g.screen.WritePixels(g.canvas.Pix)
	screen.DrawImage(g.screen, nil)

	stats := frame.Stats()
	msg := fmt.Sprintf("%d/%d points, step %d", stats.Plotted, stats.Points, frame.Step())
	if g.picked != "" {
		msg += "\n" + g.picked
	}
	ebitenutil.DebugPrint(screen, msg)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
	if len(os.Args) > 1 && os.Args[1] == "-v" {
		pointvolume.SetLogger(logger)
	}

	game, err := NewGame()
	if err != nil {
		log.Fatal(err)
	}
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Point cloud")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
