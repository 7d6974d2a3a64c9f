package splat

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

// Compositor produces a region's ground texture.
type Compositor struct {
	Fetcher *Fetcher
	Noise   Noise
	Scale   int

	log *zap.Logger
}

// NewCompositor creates a compositor. A nil noise uses Perlin noise seeded
// with DefaultSeed; a non-positive scale uses DefaultScale.
func NewCompositor(fetcher *Fetcher, noise Noise, scale int) *Compositor {
	if noise == nil {
		noise = NewPerlin(DefaultSeed)
	}
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Compositor{
		Fetcher: fetcher,
		Noise:   noise,
		Scale:   scale,
		log:     logger.Named("splat"),
	}
}

// Fetch acquires the detail layers for params. See Fetcher.FetchLayers.
func (c *Compositor) Fetch(ctx context.Context, params Params) [LayerCount]*image.RGBA {
	return c.Fetcher.FetchLayers(ctx, params.ResolvedTextureIDs())
}

// Compose builds the layer map from grid and blends the fetched layers.
func (c *Compositor) Compose(grid *terrain.Grid, params Params, layers [LayerCount]*image.RGBA) (*image.RGBA, error) {
	started := time.Now()
	layerMap := BuildLayerMap(grid, params, c.Noise)
	out, err := Composite(layerMap, layers, c.Scale)
	if err != nil {
		return nil, fmt.Errorf("compositing terrain texture: %w", err)
	}
	c.log.Debug("terrain texture composited",
		zap.Int("size", out.Bounds().Dx()),
		zap.Duration("took", time.Since(started)))
	return out, nil
}

// Splat runs a full pass: fetch, layer map, composite.
func (c *Compositor) Splat(ctx context.Context, grid *terrain.Grid, params Params) (*image.RGBA, error) {
	layers := c.Fetch(ctx, params)
	return c.Compose(grid, params, layers)
}
