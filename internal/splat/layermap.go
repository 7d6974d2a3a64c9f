package splat

import (
	"math"

	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

// Noise frequencies and amplitudes for layer selection.
const (
	cellFrequency   = 0.20319
	lowFrequency    = 0.222222
	lowAmplitude    = 6.5
	turbulenceFreq  = 2
	highAmplitude   = 2.25
	noiseGain       = 2
	maxLayer        = LayerCount - 1
	layerMapSide    = terrain.RegionSize
	maxCornerHeight = 255
)

// LayerMap holds, per region cell, which detail layers to blend: the integer
// part selects a layer, the fraction blends toward the next. Values are in [0,3].
type LayerMap [layerMapSide * layerMapSide]float32

// At returns the layer value at cell (x, y), clamping coordinates to the map.
func (m *LayerMap) At(x, y int) float32 {
	return m[clampInt(y, 0, layerMapSide-1)*layerMapSide+clampInt(x, 0, layerMapSide-1)]
}

// BuildLayerMap computes the layer map for grid under params using noise.
func BuildLayerMap(grid *terrain.Grid, params Params, noise Noise) *LayerMap {
	m := &LayerMap{}
	for y := 0; y < layerMapSide; y++ {
		for x := 0; x < layerMapSide; x++ {
			m[y*layerMapSide+x] = layerValue(grid.At(x, y), x, y, params, noise)
		}
	}
	return m
}

func layerValue(height float32, x, y int, params Params, noise Noise) float32 {
	px := float32(x) / float32(layerMapSide-1)
	py := float32(y) / float32(layerMapSide-1)

	startHeight := clampf(bilinear(params.StartHeights, px, py), 0, maxCornerHeight)
	heightRange := clampf(bilinear(params.HeightRanges, px, py), 0, maxCornerHeight)

	nx := float32(x) * cellFrequency
	ny := float32(y) * cellFrequency
	low := noise.Noise2(nx*lowFrequency, ny*lowFrequency) * lowAmplitude
	high := noise.Turbulence2(nx, ny, turbulenceFreq) * highAmplitude
	n := (low + high) * noiseGain

	layer := ((height + n - startHeight) / heightRange) * LayerCount
	if math.IsNaN(float64(layer)) || math.IsInf(float64(layer), 0) {
		return 0
	}
	return clampf(layer, 0, maxLayer)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
