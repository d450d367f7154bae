// Package fog implements depth cueing for the point volume.
//
// A Fogger blends a colour towards a fixed haze colour as a function of
// depth, so that distant markers fade into the background:
//
//	clarity(z) = 1                   if z <= 0
//	clarity(z) = exp(-fogRate * z)   otherwise, with fogRate = fogginess / scale
//	shaded     = clarity*original + (1-clarity)*fog
//
// The same formula is applied per channel (alpha untouched) whatever the
// colour representation: floats in [0,1], an NRGBA byte quadruple or a packed
// 0xAARRGGBB integer.
package fog

import (
	"errors"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrInvalidScale = errors.New("fog: scale must be positive and finite")

// DefaultScale is the reference distance used by the renderer, roughly the
// depth of the rotated unit cube.
const DefaultScale = 2.0

// Fogger shades colours by distance. The zero value is not usable, create one
// with New.
type Fogger struct {
	scale     float64
	fogginess float64
	fogRate   float64
	fog       mgl64.Vec3 // haze colour, each channel in [0,1]
}

// New creates a Fogger with the given reference distance, no fog and a white
// haze colour.
func New(scale float64) (*Fogger, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, ErrInvalidScale
	}

	return &Fogger{
		scale: scale,
		fog:   mgl64.Vec3{1, 1, 1},
	}, nil
}

// SetFogginess sets the fog intensity per unit of scale. Negative values are
// treated as zero.
func (f *Fogger) SetFogginess(fogginess float64) {
	if !(fogginess > 0) {
		fogginess = 0
	}
	f.fogginess = fogginess
	f.fogRate = fogginess / f.scale
}

func (f *Fogger) Fogginess() float64 {
	return f.fogginess
}

func (f *Fogger) Scale() float64 {
	return f.scale
}

// SetColor sets the haze colour. Alpha is ignored.
func (f *Fogger) SetColor(c color.Color) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	f.fog = mgl64.Vec3{float64(n.R) / 255, float64(n.G) / 255, float64(n.B) / 255}
}

// Color returns the haze colour as an opaque NRGBA value.
func (f *Fogger) Color() color.NRGBA {
	return color.NRGBA{
		R: toByte(f.fog.X()),
		G: toByte(f.fog.Y()),
		B: toByte(f.fog.Z()),
		A: 0xff,
	}
}

// Clarity returns the weight of the original colour at depth z, in (0,1].
func (f *Fogger) Clarity(z float64) float64 {
	if z <= 0 || f.fogRate == 0 {
		return 1
	}
	return math.Exp(-f.fogRate * z)
}

// ShadeRGB shades a colour expressed as three floats in [0,1].
func (f *Fogger) ShadeRGB(z float64, rgb mgl64.Vec3) mgl64.Vec3 {
	clarity := f.Clarity(z)
	if clarity == 1 {
		return rgb
	}
	return rgb.Mul(clarity).Add(f.fog.Mul(1 - clarity))
}

// ShadeRGB32 is ShadeRGB for the float32 channels used by the compositing
// buffers.
func (f *Fogger) ShadeRGB32(z float64, rgb mgl32.Vec3) mgl32.Vec3 {
	clarity := f.Clarity(z)
	if clarity == 1 {
		return rgb
	}
	fog := mgl32.Vec3{float32(f.fog[0]), float32(f.fog[1]), float32(f.fog[2])}
	return rgb.Mul(float32(clarity)).Add(fog.Mul(float32(1 - clarity)))
}

// ShadeNRGBA shades a byte colour. The result is rounded to the nearest byte.
func (f *Fogger) ShadeNRGBA(z float64, c color.NRGBA) color.NRGBA {
	clarity := f.Clarity(z)
	if clarity == 1 {
		return c
	}
	rgb := f.ShadeRGB(z, mgl64.Vec3{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255})
	return color.NRGBA{R: toByte(rgb.X()), G: toByte(rgb.Y()), B: toByte(rgb.Z()), A: c.A}
}

// ShadeARGB shades a packed 0xAARRGGBB colour.
func (f *Fogger) ShadeARGB(z float64, argb uint32) uint32 {
	if f.Clarity(z) == 1 {
		return argb
	}
	return PackARGB(f.ShadeNRGBA(z, UnpackARGB(argb)))
}

// PackARGB packs a colour into 0xAARRGGBB.
func PackARGB(c color.NRGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// UnpackARGB is the inverse of PackARGB.
func UnpackARGB(argb uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
		A: uint8(argb >> 24),
	}
}

func toByte(v float64) uint8 {
	v = math.Round(v * 255)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
