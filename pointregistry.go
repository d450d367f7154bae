package pointvolume

import (
	"math"
)

// ============================================================================
// Types
// ============================================================================

// CellKey is the coordinate of a grid cell in screen space.
type CellKey struct {
	X, Y int
}

// Cell holds the indices, into PointRegistry.points, of the points whose
// centre falls in the cell.
type Cell struct {
	pointIndices []int
}

// PlottedPoint is a point as it was last drawn on screen.
type PlottedPoint struct {
	// Index is the position of the point in the sequence passed to Plot.
	Index int
	X, Y  int
	Z     float64
}

// PointRegistry is a uniform hashed grid over screen pixels recording where
// the points of the last full frame were drawn, so that a pointer position
// can be mapped back to a data point.
type PointRegistry struct {
	cellSize int
	cells    []Cell
	cellMask int
	points   []PlottedPoint
}

// ============================================================================
// Constructor
// ============================================================================

// NewPointRegistry creates a registry with square cells of cellSize pixels,
// hashed into numCells buckets rounded up to a power of two.
func NewPointRegistry(cellSize, numCells int) *PointRegistry {
	cellSize = max(cellSize, 1)
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].pointIndices = make([]int, 0, 8)
	}

	return &PointRegistry{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert records that the point with the given sequence index was drawn at
// (x, y) with depth z.
func (pr *PointRegistry) Insert(index, x, y int, z float64) {
	cellIdx := pr.hashCell(pr.screenToCell(x, y))
	pr.cells[cellIdx].pointIndices = append(pr.cells[cellIdx].pointIndices, len(pr.points))
	pr.points = append(pr.points, PlottedPoint{Index: index, X: x, Y: y, Z: z})
}

func (pr *PointRegistry) Clear() {
	for i := range pr.cells {
		pr.cells[i].pointIndices = pr.cells[i].pointIndices[:0]
	}
	pr.points = pr.points[:0]
}

// Len returns the number of recorded points.
func (pr *PointRegistry) Len() int {
	return len(pr.points)
}

// Closest returns the recorded point nearest to (x, y) within maxDist
// pixels. Among points at the same distance the one drawn on top, with the
// larger depth, wins; after that the earliest one.
func (pr *PointRegistry) Closest(x, y, maxDist int) (PlottedPoint, bool) {
	if maxDist < 0 || len(pr.points) == 0 {
		return PlottedPoint{}, false
	}

	minCell := pr.screenToCell(x-maxDist, y-maxDist)
	maxCell := pr.screenToCell(x+maxDist, y+maxDist)
	limit := maxDist * maxDist

	best := -1
	bestDist := math.MaxInt
	for cx := minCell.X; cx <= maxCell.X; cx++ {
		for cy := minCell.Y; cy <= maxCell.Y; cy++ {
			cellIdx := pr.hashCell(CellKey{cx, cy})
			for _, i := range pr.cells[cellIdx].pointIndices {
				p := pr.points[i]
				dx, dy := p.X-x, p.Y-y
				d := dx*dx + dy*dy
				if d > limit {
					continue
				}
				if best < 0 || d < bestDist || (d == bestDist && pr.above(i, best)) {
					best, bestDist = i, d
				}
			}
		}
	}

	if best < 0 {
		return PlottedPoint{}, false
	}
	return pr.points[best], true
}

// above reports whether recorded point i is preferred over j at equal
// distance.
func (pr *PointRegistry) above(i, j int) bool {
	a, b := pr.points[i], pr.points[j]
	if a.Z != b.Z {
		return a.Z > b.Z
	}
	return a.Index < b.Index
}

func (pr *PointRegistry) screenToCell(x, y int) CellKey {
	return CellKey{
		X: floorDiv(x, pr.cellSize),
		Y: floorDiv(y, pr.cellSize),
	}
}

// hashCell maps a cell onto a bucket index.
func (pr *PointRegistry) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663)
	return h & pr.cellMask
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
