package splat

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Composite blends the detail layers into one texture of (256*scale)² pixels.
//
// Each output pixel maps back to a region cell. The centre layer value picks
// a primary layer and the next one up, blended by its fraction. The pixels
// one step left, right, up and down (clamped at the image edge) then pull the
// colour toward their own layer, weighted by how far their layer value is
// from the centre. The result is rotated 270° clockwise.
func Composite(layerMap *LayerMap, layers [LayerCount]*image.RGBA, scale int) (*image.RGBA, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("composite scale must be positive, got %d", scale)
	}
	for i, l := range layers {
		if l == nil {
			return nil, fmt.Errorf("detail layer %d missing", i)
		}
		if b := l.Bounds(); b.Min != (image.Point{}) || b.Dx() < TileSize || b.Dy() < TileSize {
			return nil, fmt.Errorf("detail layer %d is %v, need at least %dx%d", i, b, TileSize, TileSize)
		}
	}

	size := layerMapSide * scale
	out := image.NewRGBA(image.Rect(0, 0, size, size))

	for y := 0; y < size; y++ {
		cy := y / scale
		cyUp := clampInt(y+1, 0, size-1) / scale
		cyDown := clampInt(y-1, 0, size-1) / scale
		ty := y % TileSize

		for x := 0; x < size; x++ {
			cx := x / scale
			cxRight := clampInt(x+1, 0, size-1) / scale
			cxLeft := clampInt(x-1, 0, size-1) / scale
			tx := x % TileSize

			layer := layerMap.At(cx, cy)
			taps := [4]float32{
				layerMap.At(cxRight, cy),
				layerMap.At(cxLeft, cy),
				layerMap.At(cx, cyUp),
				layerMap.At(cx, cyDown),
			}

			l0 := int(layer)
			l1 := min(l0+1, maxLayer)
			frac := layer - float32(l0)

			a := texel(layers[l0], tx, ty)
			b := texel(layers[l1], tx, ty)

			var c [3]float32
			for ch := 0; ch < 3; ch++ {
				c[ch] = a[ch] + frac*(b[ch]-a[ch])
			}
			for _, tap := range taps {
				n := texel(layers[int(tap)], tx, ty)
				d := tap - layer
				for ch := 0; ch < 3; ch++ {
					c[ch] += d * (n[ch] - a[ch])
				}
			}

			o := out.PixOffset(x, y)
			out.Pix[o+0] = toByte(c[0])
			out.Pix[o+1] = toByte(c[1])
			out.Pix[o+2] = toByte(c[2])
			out.Pix[o+3] = 255
		}
	}

	return Rotate270(out), nil
}

// texel reads the RGB channels of img at (x, y) as floats.
func texel(img *image.RGBA, x, y int) [3]float32 {
	o := img.PixOffset(x, y)
	p := img.Pix[o : o+3 : o+3]
	return [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
}

func toByte(v float32) uint8 {
	f := math.Floor(float64(v))
	switch {
	case f < 0 || math.IsNaN(f):
		return 0
	case f > 255:
		return 255
	}
	return uint8(f)
}

// Rotate270 returns img rotated 270° clockwise (90° counter-clockwise).
// img must be opaque; the pixels are carried over unpremultiplied.
func Rotate270(img *image.RGBA) *image.RGBA {
	n := imaging.Rotate90(img)
	return &image.RGBA{Pix: n.Pix, Stride: n.Stride, Rect: n.Rect}
}
