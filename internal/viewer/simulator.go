package viewer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/asset"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/loom"
	"github.com/Faultbox/midgard-terrain/internal/region"
	"github.com/Faultbox/midgard-terrain/internal/splat"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

const patchCount = terrain.SourcePatchesPerSide * terrain.SourcePatchesPerSide

// Simulator stands in for a simulator connection: it announces a region,
// sends its texturing parameters and then streams land patches in batches,
// in a shuffled order the way they arrive over the network.
type Simulator struct {
	Handle        uint64
	Params        splat.Params
	BatchSize     int
	BatchInterval time.Duration

	noise *splat.Perlin
	order []int
	log   *zap.Logger
}

// NewSimulator builds a simulator from cfg. Terrain shape and patch order
// are derived from seed.
func NewSimulator(cfg config.SimulatorConfig, seed int64) (*Simulator, error) {
	params := splat.Params{
		StartHeights: cfg.StartHeights,
		HeightRanges: cfg.HeightRanges,
	}
	if len(cfg.TextureIDs) > splat.LayerCount {
		return nil, fmt.Errorf("simulator: %d texture ids, at most %d layers", len(cfg.TextureIDs), splat.LayerCount)
	}
	for i, s := range cfg.TextureIDs {
		if s == "" {
			continue
		}
		id, err := asset.ParseTextureID(s)
		if err != nil {
			return nil, fmt.Errorf("simulator: texture %d: %w", i, err)
		}
		params.TextureIDs[i] = id
	}

	interval := 2 * cfg.TickInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Simulator{
		Handle:        cfg.Handle,
		Params:        params,
		BatchSize:     terrain.SourcePatchesPerSide,
		BatchInterval: interval,
		noise:         splat.NewPerlin(seed),
		order:         rand.New(rand.NewSource(seed)).Perm(patchCount),
		log:           logger.Named("simulator"),
	}, nil
}

// Height returns the synthetic terrain height at region cell (x, y).
func (s *Simulator) Height(x, y int) float32 {
	fx, fy := float32(x), float32(y)
	h := 30 + 25*s.noise.Noise2(fx*0.015, fy*0.015) + 4*s.noise.Turbulence2(fx*0.06, fy*0.06, 8)
	if h < 0 {
		return 0
	}
	return h
}

// Patch returns the samples of source patch index in wire order.
func (s *Simulator) Patch(index int) []float32 {
	px, py := index/terrain.SourcePatchesPerSide, index%terrain.SourcePatchesPerSide
	data := make([]float32, terrain.SourcePatchSize*terrain.SourcePatchSize)
	for i := 0; i < terrain.SourcePatchSize; i++ {
		for j := 0; j < terrain.SourcePatchSize; j++ {
			data[i*terrain.SourcePatchSize+j] = s.Height(px*terrain.SourcePatchSize+i, py*terrain.SourcePatchSize+j)
		}
	}
	return data
}

// Run connects to m and streams every patch, returning when done or when ctx
// is cancelled. Deliveries go through l so they reach the region after it exists.
func (s *Simulator) Run(ctx context.Context, l *loom.Loom, m *region.Manager) {
	m.SimulatorChanged(s.Handle)
	params := s.Params
	l.Enqueue(func() { m.SetTerrainParams(params) })

	for start := 0; start < len(s.order); start += s.BatchSize {
		end := min(start+s.BatchSize, len(s.order))
		for _, index := range s.order[start:end] {
			data := s.Patch(index)
			l.Enqueue(func() {
				if err := m.ApplyPatch(index, data); err != nil {
					s.log.Warn("land patch rejected", zap.Int("patch", index), zap.Error(err))
				}
			})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.BatchInterval):
		}
	}
	s.log.Info("all land patches sent", zap.Int("patches", len(s.order)))
}
