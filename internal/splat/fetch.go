package splat

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/midgard-terrain/internal/asset"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// DefaultFetchTimeout bounds the wait for one detail texture.
const DefaultFetchTimeout = 60 * time.Second

// Fetcher acquires the four detail layers of a region from a texture source.
type Fetcher struct {
	Source  asset.Source
	Timeout time.Duration

	log *zap.Logger
}

// NewFetcher creates a fetcher. A non-positive timeout uses DefaultFetchTimeout.
func NewFetcher(src asset.Source, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if src == nil {
		src = asset.NullSource{}
	}
	return &Fetcher{
		Source:  src,
		Timeout: timeout,
		log:     logger.Named("splat"),
	}
}

// FetchLayers fetches the layers one after another and returns them at
// TileSize x TileSize. A layer that times out or fails to decode is replaced
// by a flat image in its default colour; FetchLayers itself never fails.
// Cancelling ctx makes every remaining layer fall back immediately.
func (f *Fetcher) FetchLayers(ctx context.Context, ids [LayerCount]asset.TextureID) [LayerCount]*image.RGBA {
	var layers [LayerCount]*image.RGBA
	for i, id := range ids {
		started := time.Now()
		img, err := f.fetch(ctx, id)
		if err != nil {
			f.log.Warn("detail texture unavailable, using flat colour",
				zap.Int("layer", i),
				zap.Stringer("texture", id),
				zap.Duration("waited", time.Since(started)),
				zap.Error(err))
			layers[i] = FlatLayer(DefaultColors[i])
			continue
		}
		f.log.Debug("detail texture ready",
			zap.Int("layer", i),
			zap.Stringer("texture", id),
			zap.Duration("took", time.Since(started)))
		layers[i] = img
	}
	return layers
}

type fetchResult struct {
	data []byte
	err  error
}

// fetch waits for one texture on its own one-shot result channel, bounded by f.Timeout.
func (f *Fetcher) fetch(ctx context.Context, id asset.TextureID) (*image.RGBA, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	result := make(chan fetchResult, 1)
	f.Source.RequestImage(id, func(data []byte, err error) {
		select {
		case result <- fetchResult{data: data, err: err}:
		default:
		}
	})

	select {
	case r := <-result:
		if r.err != nil {
			return nil, r.err
		}
		img, err := asset.Decode(r.data)
		if err != nil {
			return nil, err
		}
		return toTile(img), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("fetching %s: %w", id, ctx.Err())
	}
}

// toTile returns img as a TileSize square RGBA image, resampling when the
// size differs.
func toTile(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && b.Dx() == TileSize && b.Dy() == TileSize {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	if b.Dx() == TileSize && b.Dy() == TileSize {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// FlatLayer returns a TileSize square image filled with c.
func FlatLayer(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}
