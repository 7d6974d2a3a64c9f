// Package viewer runs the headless terrain loop: it owns the scene, drains
// the loom once per tick and exports the region texture once it is ready.
package viewer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/loom"
	"github.com/Faultbox/midgard-terrain/internal/region"
	"github.com/Faultbox/midgard-terrain/internal/scene"
	"github.com/Faultbox/midgard-terrain/internal/splat"
)

// Viewer is the headless terrain viewer instance.
type Viewer struct {
	cfg      *config.Config
	loom     *loom.Loom
	scene    *scene.Scene
	regions  *region.Manager
	sim      *Simulator
	exporter *scene.TextureExporter
	log      *zap.Logger

	// Path of the last exported texture.
	Exported string
}

// New creates a viewer from cfg.
func New(cfg *config.Config) (*Viewer, error) {
	log := logger.Named("viewer")
	log.Info("initializing viewer",
		zap.Uint64("handle", cfg.Simulator.Handle),
		zap.Int64("seed", cfg.Terrain.NoiseSeed),
		zap.Int("scale", cfg.Terrain.OutputScale))

	sim, err := NewSimulator(cfg.Simulator, cfg.Terrain.NoiseSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to create simulator: %w", err)
	}

	l := loom.New(nil)
	sc := scene.New(l)
	fetcher := splat.NewFetcher(NewTextureSource(cfg.Textures), cfg.Terrain.FetchTimeout)
	compositor := splat.NewCompositor(fetcher, splat.NewPerlin(cfg.Terrain.NoiseSeed), cfg.Terrain.OutputScale)

	v := &Viewer{
		cfg:   cfg,
		loom:  l,
		scene: sc,
		regions: region.NewManager(l, sc, compositor, region.Options{
			RebuildInterval: cfg.Terrain.RebuildInterval,
			Preview:         cfg.Terrain.Preview,
		}),
		sim:      sim,
		exporter: scene.NewTextureExporter(cfg.Output.Dir, "terrain"),
		log:      log,
	}

	log.Info("viewer initialized successfully")
	return v, nil
}

// Regions returns the region manager.
func (v *Viewer) Regions() *region.Manager {
	return v.regions
}

// Run ticks until the first composite has been exported, the configured
// number of ticks has elapsed or ctx is cancelled. Call it from the goroutine
// that owns the scene.
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v.loom.Go("simulator", func() {
		v.sim.Run(ctx, v.loom, v.regions)
	})

	interval := v.cfg.Simulator.TickInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()
	statsTimer := time.Now()
	v.log.Info("starting viewer loop", zap.Duration("tick", interval))

	for tick := 0; v.cfg.Simulator.Ticks <= 0 || tick < v.cfg.Simulator.Ticks; tick++ {
		select {
		case <-ctx.Done():
			v.log.Info("viewer interrupted")
			return v.export()
		case now := <-ticker.C:
			dt := now.Sub(lastTime)
			lastTime = now

			if err := v.tick(dt); err != nil {
				return fmt.Errorf("tick error: %w", err)
			}
		}

		if r := v.regions.Current(); r != nil {
			if _, composites := r.Stats(); composites > 0 {
				return v.export()
			}
		}

		if time.Since(statsTimer) >= 5*time.Second {
			v.logStats()
			statsTimer = time.Now()
		}
	}

	v.log.Warn("tick limit reached before the texture was composited")
	return v.export()
}

// tick drains scheduled work and advances the active region.
func (v *Viewer) tick(dt time.Duration) error {
	if _, err := v.loom.Drain(); err != nil {
		return err
	}
	v.regions.Update(dt)
	return nil
}

// export writes the active region's current texture, if any.
func (v *Viewer) export() error {
	r := v.regions.Current()
	if r == nil || r.Texture() == nil {
		v.log.Warn("no terrain texture to export")
		return nil
	}
	path, err := v.exporter.Export(r.Material())
	if err != nil {
		return fmt.Errorf("exporting terrain texture: %w", err)
	}
	v.Exported = path
	v.log.Info("terrain texture exported", zap.String("path", path))
	v.logStats()
	return nil
}

func (v *Viewer) logStats() {
	st := v.scene.Stats()
	fields := []zap.Field{
		zap.Int("nodes", st.Nodes),
		zap.Int("mesh_assignments", st.MeshAssignments),
		zap.Int("texture_uploads", st.TextureUploads),
	}
	if r := v.regions.Current(); r != nil {
		rebuilds, composites := r.Stats()
		fields = append(fields,
			zap.Uint64("rebuilds", rebuilds),
			zap.Uint64("composites", composites),
			zap.Stringer("compositor", r.CompositorState()),
			zap.Bool("modified", r.Modified()))
	}
	immediate, delayed := v.loom.Pending()
	fields = append(fields, zap.Int("pending", immediate+delayed))
	v.log.Debug("viewer stats", fields...)
}

// Close retires the active region and waits for background work to finish.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")
	v.loom.Enqueue(v.regions.Shutdown)
	if _, err := v.loom.Drain(); err != nil {
		v.log.Warn("final drain failed", zap.Error(err))
	}
	v.loom.Wait()
}
