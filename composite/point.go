package composite

import "cmp"

// Point3D is one marker submission: its screen position, depth, style and a
// sequence number that breaks depth ties in submission order. It is created
// by Submit and discarded by Flush.
type Point3D struct {
	X, Y  int
	Z     float64
	Style int
	Seq   uint64
	// Label is optional text drawn beside the marker.
	Label string
}

// compareDepth orders points in painting order: ascending depth, and among
// equal depths the later submission first, so that the earliest one is
// painted last and ends on top.
func compareDepth(a, b Point3D) int {
	if c := cmp.Compare(a.Z, b.Z); c != 0 {
		return c
	}
	return cmp.Compare(b.Seq, a.Seq)
}
