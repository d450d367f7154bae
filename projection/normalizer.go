package projection

import "github.com/go-gl/mathgl/mgl64"

// Normalizer maps a cuboid of interest in data space onto the unit cube.
type Normalizer struct {
	lo      mgl64.Vec3
	factors mgl64.Vec3
}

// NewNormalizer creates a normalizer for the given per-axis bounds. An axis
// with lo == hi is widened by one unit either side so it stays finite.
func NewNormalizer(lo, hi mgl64.Vec3) Normalizer {
	n := Normalizer{}
	for i := 0; i < 3; i++ {
		l, h := lo[i], hi[i]
		if l == h {
			l -= 1
			h += 1
		}
		n.lo[i] = l
		n.factors[i] = 1 / (h - l)
	}
	return n
}

// Normalize maps a data point into normalized cube space. Points inside the
// bounds land in [0,1]³; NaN components stay NaN.
func (n Normalizer) Normalize(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		(p[0] - n.lo[0]) * n.factors[0],
		(p[1] - n.lo[1]) * n.factors[1],
		(p[2] - n.lo[2]) * n.factors[2],
	}
}

// Bounds returns the cuboid this normalizer maps onto the unit cube.
func (n Normalizer) Bounds() (lo, hi mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		hi[i] = n.lo[i] + 1/n.factors[i]
	}
	return n.lo, hi
}
