package rotation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ScreenVertical is the view-space axis a horizontal drag rotates about.
	ScreenVertical = mgl64.Vec3{0, 1, 0}
	// ScreenHorizontal is the view-space axis a vertical drag rotates about.
	ScreenHorizontal = mgl64.Vec3{1, 0, 0}
)

// AxisRotation returns the matrix that turns the view frame by theta radians
// about a data-space axis. The axis need not be normalized; a zero axis
// yields the identity.
func AxisRotation(axis mgl64.Vec3, theta float64) mgl64.Mat3 {
	l := axis.Len()
	if l == 0 || theta == 0 {
		return mgl64.Ident3()
	}
	// Frame rotation: the transpose of the active rotation by theta.
	return mgl64.QuatRotate(-theta, axis.Mul(1/l)).Mat4().Mat3()
}

// ScreenRotation returns the rotation by theta about an axis given in view
// space, for a view oriented by base. The axis is mapped into data space
// through the inverse of base, which is its transpose.
func ScreenRotation(base mgl64.Mat3, screenAxis mgl64.Vec3, theta float64) mgl64.Mat3 {
	return AxisRotation(base.Transpose().Mul3x1(screenAxis), theta)
}

// RotateXY adds to a view rotation the effect of turning phi radians about
// the screen vertical and psi radians about the screen horizontal.
func RotateXY(base mgl64.Mat3, phi, psi float64) mgl64.Mat3 {
	m := base
	if phi != 0 {
		m = m.Mul3(ScreenRotation(base, ScreenVertical, phi))
	}
	if psi != 0 {
		m = m.Mul3(ScreenRotation(base, ScreenHorizontal, psi))
	}
	return m
}

// DefaultView is the initial orientation of a new plot: turned half a
// radian and a quarter turn about the screen axes, then tipped towards the
// viewer.
func DefaultView() mgl64.Mat3 {
	return RotateXY(RotateXY(mgl64.Ident3(), 0.5, 0.5*math.Pi), 0, -0.1*math.Pi)
}

// OrthonormalityError returns the Frobenius norm of RᵀR - I.
func OrthonormalityError(m mgl64.Mat3) float64 {
	d := m.Transpose().Mul3(m).Sub(mgl64.Ident3())
	sum := 0.0
	for _, v := range d {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Orthonormalize removes accumulated drift from a near-rotation matrix by
// Gram-Schmidt on its columns.
func Orthonormalize(m mgl64.Mat3) mgl64.Mat3 {
	c0 := m.Col(0).Normalize()
	c1 := m.Col(1)
	c1 = c1.Sub(c0.Mul(c0.Dot(c1))).Normalize()
	c2 := c0.Cross(c1)
	if c2.Dot(m.Col(2)) < 0 {
		c2 = c2.Mul(-1)
	}
	return mgl64.Mat3FromCols(c0, c1, c2)
}

// Rows returns the matrix in row-major order.
func Rows(m mgl64.Mat3) [9]float64 {
	var rows [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rows[3*i+j] = m.At(i, j)
		}
	}
	return rows
}

// FromRows builds a matrix from row-major elements.
func FromRows(rows [9]float64) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{rows[0], rows[1], rows[2]},
		mgl64.Vec3{rows[3], rows[4], rows[5]},
		mgl64.Vec3{rows[6], rows[7], rows[8]},
	)
}
