package composite

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// emptyDepth marks a pixel no marker has reached yet. Larger depth wins, so
// every finite depth beats it.
var emptyDepth = math.Inf(-1)

// Workspace is a grow-only arena of per-pixel buffers shared by successive
// frames. Buffers are reallocated only when a frame needs more pixels than
// they can hold; otherwise they are cleared and reused. Only the region
// dirtied by the previous frame is cleared when the size is unchanged.
//
// A Workspace has a single writer: exactly one resolver may hold it at a
// time. It does no locking.
type Workspace struct {
	width  int // padded width
	height int // padded height
	pad    int

	depth  []float64
	styles []int32
	dirty  []uint64
	argb   []uint32
	// premultiplied red, green, blue and alpha used when blending
	accum []mgl32.Vec4

	// dirty bounding box in buffer coordinates, Max exclusive
	box image.Rectangle

	owner  any
	allocs int
}

func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Init prepares the buffers for a viewport of the given size surrounded by
// pad pixels on every side. It reports whether the buffers were reallocated.
func (w *Workspace) Init(viewportWidth, viewportHeight, pad int) bool {
	width := viewportWidth + 2*pad
	height := viewportHeight + 2*pad
	n := width * height

	if n > cap(w.depth) {
		w.allocate(n)
		w.width, w.height, w.pad = width, height, pad
		w.box = image.Rectangle{}
		return true
	}

	if width != w.width || height != w.height {
		w.resize(n)
		w.width, w.height, w.pad = width, height, pad
		w.box = image.Rectangle{}
		return false
	}

	w.pad = pad
	w.clearBox()
	return false
}

func (w *Workspace) allocate(n int) {
	w.depth = make([]float64, n)
	w.styles = make([]int32, n)
	w.dirty = make([]uint64, (n+63)/64)
	w.argb = make([]uint32, n)
	w.accum = make([]mgl32.Vec4, n)
	fill(w.depth, emptyDepth)
	fill(w.styles, NoStyle)
	w.allocs++
}

// resize reslices the existing buffers to n pixels and clears them entirely,
// since the old dirty box no longer maps onto the new layout.
func (w *Workspace) resize(n int) {
	w.depth = w.depth[:n]
	w.styles = w.styles[:n]
	w.dirty = w.dirty[:(n+63)/64]
	w.argb = w.argb[:n]
	w.accum = w.accum[:n]
	fill(w.depth, emptyDepth)
	fill(w.styles, NoStyle)
	clear(w.dirty)
	clear(w.argb)
	clear(w.accum)
}

func (w *Workspace) clearBox() {
	if w.box.Empty() {
		return
	}
	for y := w.box.Min.Y; y < w.box.Max.Y; y++ {
		lo := y*w.width + w.box.Min.X
		hi := y*w.width + w.box.Max.X
		fill(w.depth[lo:hi], emptyDepth)
		fill(w.styles[lo:hi], NoStyle)
		clear(w.argb[lo:hi])
		clear(w.accum[lo:hi])
		for i := lo; i < hi; i++ {
			w.dirty[i>>6] &^= 1 << (i & 63)
		}
	}
	w.box = image.Rectangle{}
}

// Size returns the padded buffer dimensions.
func (w *Workspace) Size() (width, height int) {
	return w.width, w.height
}

func (w *Workspace) Pad() int {
	return w.pad
}

// Allocations returns how many times the buffers have been allocated.
func (w *Workspace) Allocations() int {
	return w.allocs
}

// claim makes owner the single writer of the workspace.
func (w *Workspace) claim(owner any) error {
	if w.owner != nil && w.owner != owner {
		return ErrWorkspaceInUse
	}
	w.owner = owner
	return nil
}

func (w *Workspace) release(owner any) {
	if w.owner == owner {
		w.owner = nil
	}
}

// index returns the buffer index of buffer coordinates (x, y).
func (w *Workspace) index(x, y int) (int, bool) {
	if x < 0 || x >= w.width || y < 0 || y >= w.height {
		return 0, false
	}
	return y*w.width + x, true
}

func (w *Workspace) isDirty(i int) bool {
	return w.dirty[i>>6]&(1<<(i&63)) != 0
}

// mark flags pixel i at buffer coordinates (x, y) as dirty and grows the
// dirty box.
func (w *Workspace) mark(i, x, y int) {
	w.dirty[i>>6] |= 1 << (i & 63)
	if w.box.Empty() {
		w.box = image.Rect(x, y, x+1, y+1)
		return
	}
	w.box.Min.X = min(w.box.Min.X, x)
	w.box.Min.Y = min(w.box.Min.Y, y)
	w.box.Max.X = max(w.box.Max.X, x+1)
	w.box.Max.Y = max(w.box.Max.Y, y+1)
}

// visibleBox returns the dirty box clipped to the viewport, in buffer
// coordinates.
func (w *Workspace) visibleBox() image.Rectangle {
	view := image.Rect(w.pad, w.pad, w.width-w.pad, w.height-w.pad)
	return w.box.Intersect(view)
}

// tile copies the visible dirty region out of the workspace, calling pixel
// for each dirty pixel to obtain its final colour.
func (w *Workspace) tile(pixel func(i int) uint32) Tile {
	box := w.visibleBox()
	if box.Empty() {
		return Tile{}
	}

	t := Tile{
		X:      box.Min.X - w.pad,
		Y:      box.Min.Y - w.pad,
		Width:  box.Dx(),
		Height: box.Dy(),
	}
	t.Pix = make([]uint32, t.Width*t.Height)
	t.Styles = make([]int32, t.Width*t.Height)

	j := 0
	for y := box.Min.Y; y < box.Max.Y; y++ {
		i := y*w.width + box.Min.X
		for x := box.Min.X; x < box.Max.X; x, i, j = x+1, i+1, j+1 {
			if !w.isDirty(i) {
				t.Styles[j] = NoStyle
				continue
			}
			argb := pixel(i)
			w.argb[i] = argb
			t.Pix[j] = argb
			t.Styles[j] = w.styles[i]
		}
	}
	return t
}

func fill[T any](s []T, v T) {
	for i := range s {
		s[i] = v
	}
}
