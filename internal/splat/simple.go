package splat

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

// Base tint of the height-shaded preview.
const (
	previewHue        = 93.0
	previewSaturation = 0.44
	previewMinValue   = 0.34
)

// Simple returns a 256x256 height-shaded green texture. It needs no detail
// textures, so it can be shown while a full composite is still fetching.
func Simple(grid *terrain.Grid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, terrain.RegionSize, terrain.RegionSize))
	for y := 0; y < terrain.RegionSize; y++ {
		for x := 0; x < terrain.RegionSize; x++ {
			v := float64(grid.At(x, y)) / 255
			if v < previewMinValue {
				v = previewMinValue
			} else if v > 1 {
				v = 1
			}
			r, g, b := colorful.Hsv(previewHue, previewSaturation, v).RGB255()
			o := img.PixOffset(x, y)
			img.Pix[o+0] = r
			img.Pix[o+1] = g
			img.Pix[o+2] = b
			img.Pix[o+3] = 255
		}
	}
	return img
}
