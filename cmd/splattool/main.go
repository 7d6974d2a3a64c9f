// splattool composites terrain textures from heightmap images.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/asset"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/scene"
	"github.com/Faultbox/midgard-terrain/internal/splat"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	"github.com/Faultbox/midgard-terrain/internal/viewer"
)

func main() {
	inputFlags := []cli.Flag{
		&cli.PathFlag{
			Name:     "in",
			Usage:    "heightmap image (png, jpeg, bmp or tga); luminance is height",
			Required: true,
		},
		&cli.PathFlag{
			Name:  "out",
			Usage: "output PNG path",
			Value: "terrain.png",
		},
		&cli.Float64Flag{
			Name:  "max-height",
			Usage: "height of a white pixel",
			Value: 255,
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}

	app := &cli.App{
		Name:        "splattool",
		Usage:       "composite region ground textures from heightmaps",
		Description: "offline runner for the terrain texture compositor",
		Commands: []*cli.Command{
			{
				Name:   "splat",
				Usage:  "blend the four detail layers into a composite texture",
				Action: commandSplat,
				Flags: append(inputFlags,
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "noise seed",
						Value: splat.DefaultSeed,
					},
					&cli.IntFlag{
						Name:  "scale",
						Usage: "output size relative to the 256 cell region",
						Value: splat.DefaultScale,
					},
					&cli.StringSliceFlag{
						Name:  "layer",
						Usage: "detail texture UUID, in layer order (repeat up to 4 times)",
					},
					&cli.Float64SliceFlag{
						Name:  "start",
						Usage: "start heights for corners 00, 01, 10, 11",
						Value: cli.NewFloat64Slice(10, 10, 10, 10),
					},
					&cli.Float64SliceFlag{
						Name:  "range",
						Usage: "height ranges for corners 00, 01, 10, 11",
						Value: cli.NewFloat64Slice(60, 60, 60, 60),
					},
					&cli.PathFlag{
						Name:  "textures",
						Usage: "directory of <uuid>.<ext> detail textures",
					},
					&cli.StringFlag{
						Name:  "texture-url",
						Usage: "asset server base URL",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "per-layer fetch timeout",
						Value: splat.DefaultFetchTimeout,
					},
				),
			},
			{
				Name:   "preview",
				Usage:  "write the HSV height tint shown before the composite is ready",
				Action: commandPreview,
				Flags:  inputFlags,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogging(ctx *cli.Context) error {
	level := "warn"
	if ctx.Bool("debug") {
		level = "debug"
	}
	return logger.Init(level, "")
}

func loadGrid(ctx *cli.Context) (*terrain.Grid, error) {
	data, err := os.ReadFile(ctx.Path("in"))
	if err != nil {
		return nil, err
	}
	img, err := asset.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding heightmap: %w", err)
	}
	return terrain.GridFromImage(img, float32(ctx.Float64("max-height"))), nil
}

func corners(ctx *cli.Context, name string) ([4]float32, error) {
	var out [4]float32
	values := ctx.Float64Slice(name)
	if len(values) != len(out) {
		return out, fmt.Errorf("--%s needs 4 values, got %d", name, len(values))
	}
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

func params(ctx *cli.Context) (splat.Params, error) {
	var p splat.Params
	var err error
	if p.StartHeights, err = corners(ctx, "start"); err != nil {
		return p, err
	}
	if p.HeightRanges, err = corners(ctx, "range"); err != nil {
		return p, err
	}
	layers := ctx.StringSlice("layer")
	if len(layers) > splat.LayerCount {
		return p, fmt.Errorf("at most %d layers, got %d", splat.LayerCount, len(layers))
	}
	for i, s := range layers {
		if p.TextureIDs[i], err = asset.ParseTextureID(s); err != nil {
			return p, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return p, nil
}

func commandSplat(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}
	defer logger.Sync()

	grid, err := loadGrid(ctx)
	if err != nil {
		return err
	}
	p, err := params(ctx)
	if err != nil {
		return err
	}

	src := viewer.NewTextureSource(config.TexturesConfig{
		Dir:               ctx.Path("textures"),
		BaseURL:           ctx.String("texture-url"),
		RequestsPerSecond: 4,
		HTTPTimeout:       ctx.Duration("timeout"),
	})
	compositor := splat.NewCompositor(
		splat.NewFetcher(src, ctx.Duration("timeout")),
		splat.NewPerlin(ctx.Int64("seed")),
		ctx.Int("scale"))

	started := time.Now()
	img, err := compositor.Splat(context.Background(), grid, p)
	if err != nil {
		return err
	}
	if err := scene.WritePNG(ctx.Path("out"), img); err != nil {
		return err
	}

	lo, hi := grid.MinMax()
	logger.Info("composite written",
		zap.String("path", ctx.Path("out")),
		zap.Int("size", img.Bounds().Dx()),
		zap.Float32("min_height", lo),
		zap.Float32("max_height", hi),
		zap.Duration("took", time.Since(started)))
	fmt.Printf("%s: %dx%d\n", ctx.Path("out"), img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

func commandPreview(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}
	defer logger.Sync()

	grid, err := loadGrid(ctx)
	if err != nil {
		return err
	}
	img := splat.Simple(grid)
	if err := scene.WritePNG(ctx.Path("out"), img); err != nil {
		return err
	}
	fmt.Printf("%s: %dx%d\n", ctx.Path("out"), img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}
