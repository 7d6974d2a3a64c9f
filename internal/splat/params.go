// Package splat composites a region's ground texture from four detail layers
// chosen per cell by height and noise.
package splat

import (
	"image/color"

	"github.com/Faultbox/midgard-terrain/internal/asset"
)

// LayerCount is the number of detail layers a region blends.
const LayerCount = 4

const (
	// TileSize is the working resolution every detail layer is normalized to.
	TileSize = 256

	// DefaultScale is the composite's resolution relative to the region grid.
	DefaultScale = 8
)

// Default detail textures used when the simulator leaves a layer unset.
var DefaultTextureIDs = [LayerCount]asset.TextureID{
	asset.MustTextureID("0bc58228-74a0-7e83-89bc-5c23464bcec5"), // dirt
	asset.MustTextureID("63338ede-0037-c4fd-855b-015d77112fc8"), // grass
	asset.MustTextureID("303cd381-8560-7579-23f1-f0a880799740"), // mountain
	asset.MustTextureID("53a2f406-4895-1d13-d541-d2e3b86bc19c"), // rock
}

// DefaultColors fill a layer whose texture could not be fetched or decoded.
var DefaultColors = [LayerCount]color.RGBA{
	{R: 164, G: 136, B: 117, A: 255}, // dirt
	{R: 65, G: 87, B: 47, A: 255},    // grass
	{R: 157, G: 145, B: 131, A: 255}, // mountain
	{R: 125, G: 128, B: 130, A: 255}, // rock
}

// Params are a region's terrain texturing settings.
// Corner arrays are ordered 00, 01, 10, 11 where the first digit is the X corner.
type Params struct {
	TextureIDs   [LayerCount]asset.TextureID
	StartHeights [4]float32
	HeightRanges [4]float32
}

// ResolvedTextureIDs returns the texture IDs with unset layers replaced by defaults.
func (p Params) ResolvedTextureIDs() [LayerCount]asset.TextureID {
	ids := p.TextureIDs
	for i := range ids {
		if ids[i] == (asset.TextureID{}) {
			ids[i] = DefaultTextureIDs[i]
		}
	}
	return ids
}

// bilinear interpolates the four corner values at (px, py) in [0,1]².
func bilinear(c [4]float32, px, py float32) float32 {
	return lerp(lerp(c[0], c[2], px), lerp(c[1], c[3], px), py)
}
