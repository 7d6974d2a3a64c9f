// Package region drives one simulator region's terrain: it rebuilds the mesh
// off the owning goroutine when the heightfield settles and keeps the ground
// texture in step with the mesh.
package region

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/loom"
	"github.com/Faultbox/midgard-terrain/internal/scene"
	"github.com/Faultbox/midgard-terrain/internal/splat"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

// DefaultRebuildInterval is how long the heightfield must stay quiet after the
// last rebuild before a pending modification triggers another.
const DefaultRebuildInterval = 10 * time.Second

// groundCeiling is where ground rays start, above any terrain height.
const groundCeiling = 1e4

// ErrNoHeightField is returned by ApplyPatch before a heightfield is attached.
var ErrNoHeightField = errors.New("region: no heightfield attached")

// Options configure a Region.
type Options struct {
	RebuildInterval time.Duration
	// Preview applies an HSV height tint while the first composite is pending.
	Preview bool
}

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{
		RebuildInterval: DefaultRebuildInterval,
		Preview:         true,
	}
}

// Region is one simulator region's terrain.
//
// Update and the apply steps run on the goroutine that drains the loom.
// ApplyPatch, MarkModified, SetTerrainParams and RequestTextureRefresh are
// safe from any goroutine.
type Region struct {
	Handle uint64

	loom       *loom.Loom
	compositor *splat.Compositor
	opts       Options
	log        *zap.Logger

	field atomic.Pointer[terrain.HeightField]

	// Modified while dirtyGen > cleanGen.
	dirtyGen atomic.Uint64
	cleanGen atomic.Uint64

	rebuilding      atomic.Bool
	compositeNeeded atomic.Bool
	texState        stateCell
	retired         atomic.Bool
	lastGrid        atomic.Pointer[terrain.Grid] // grid the current mesh was built from

	rebuilds   atomic.Uint64
	composites atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc

	buildTiles func(*terrain.Grid) *terrain.TileSet

	paramsMu sync.Mutex
	params   splat.Params

	// Owned by the draining goroutine.
	sinceRebuild time.Duration
	node         *scene.Node
	tiles        [terrain.TilesPerSide][terrain.TilesPerSide]*scene.Node
	material     *scene.Material
	hasComposite bool
}

// New creates a region and its scene nodes under parent. It must be called
// from inside a drain. The region starts modified, so the first rebuild runs
// once the rebuild interval has elapsed.
func New(handle uint64, l *loom.Loom, sc *scene.Scene, parent *scene.Node, compositor *splat.Compositor, opts Options) *Region {
	if opts.RebuildInterval <= 0 {
		opts.RebuildInterval = DefaultRebuildInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Region{
		Handle:     handle,
		loom:       l,
		compositor: compositor,
		opts:       opts,
		log:        logger.Named("region").With(zap.Uint64("handle", handle)),
		ctx:        ctx,
		cancel:     cancel,
		buildTiles: terrain.BuildPatches,
	}
	r.dirtyGen.Store(1)

	r.node = parent.NewChild(fmt.Sprintf("terrain_%d", handle), mgl32.Vec3{})
	r.material = sc.NewMaterial(fmt.Sprintf("terrain_%d", handle), "Diffuse")
	for x := 0; x < terrain.TilesPerSide; x++ {
		for y := 0; y < terrain.TilesPerSide; y++ {
			pos := mgl32.Vec3{float32(x * terrain.TileQuads), 0, float32(y * terrain.TileQuads)}
			r.tiles[x][y] = r.node.NewChild(fmt.Sprintf("patch_%d_%d", x, y), pos)
		}
	}
	return r
}

// AttachHeightField sets the heightfield the region builds from.
func (r *Region) AttachHeightField(hf *terrain.HeightField) {
	r.field.Store(hf)
}

// HeightField returns the attached heightfield, or nil.
func (r *Region) HeightField() *terrain.HeightField {
	return r.field.Load()
}

// ApplyPatch stores one 16x16 source patch and marks the region modified.
func (r *Region) ApplyPatch(index int, data []float32) error {
	hf := r.field.Load()
	if hf == nil {
		return ErrNoHeightField
	}
	if err := hf.SetPatch(index, data); err != nil {
		return fmt.Errorf("applying land patch: %w", err)
	}
	r.MarkModified()
	return nil
}

// MarkModified records that the heightfield changed since the last rebuild.
func (r *Region) MarkModified() {
	r.dirtyGen.Add(1)
}

// Modified reports whether a change is waiting for a rebuild.
func (r *Region) Modified() bool {
	return r.dirtyGen.Load() > r.cleanGen.Load()
}

// SetTerrainParams replaces the texturing parameters and requests a new composite.
func (r *Region) SetTerrainParams(p splat.Params) {
	r.paramsMu.Lock()
	r.params = p
	r.paramsMu.Unlock()
	r.RequestTextureRefresh()
}

// TerrainParams returns the current texturing parameters.
func (r *Region) TerrainParams() splat.Params {
	r.paramsMu.Lock()
	defer r.paramsMu.Unlock()
	return r.params
}

// RequestTextureRefresh asks for a composite pass once a mesh exists.
func (r *Region) RequestTextureRefresh() {
	r.compositeNeeded.Store(true)
}

// CompositorState returns the texture pass state.
func (r *Region) CompositorState() CompositorState {
	return r.texState.load()
}

// Rebuilding reports whether a mesh rebuild is in flight.
func (r *Region) Rebuilding() bool {
	return r.rebuilding.Load()
}

// Stats returns how many rebuilds and composites have been applied.
func (r *Region) Stats() (rebuilds, composites uint64) {
	return r.rebuilds.Load(), r.composites.Load()
}

// Node returns the region's scene node.
func (r *Region) Node() *scene.Node {
	return r.node
}

// Tile returns the scene node for tile (x, y).
func (r *Region) Tile(x, y int) *scene.Node {
	return r.tiles[x][y]
}

// Material returns the material shared by the region's tiles.
func (r *Region) Material() *scene.Material {
	return r.material
}

// Texture returns the material's current texture, or nil.
func (r *Region) Texture() *image.RGBA {
	return r.material.Texture()
}

// GroundHeight returns the terrain height under region position (x, z), read
// from the tile colliders. False until a mesh has been applied there.
// Call from the draining goroutine.
func (r *Region) GroundHeight(x, z float32) (float32, bool) {
	return r.node.GroundHeight(x, z, groundCeiling)
}

// Update advances the region by dt. Call once per tick from the draining goroutine.
func (r *Region) Update(dt time.Duration) {
	if r.retired.Load() {
		return
	}
	r.sinceRebuild += dt

	if r.Modified() && r.sinceRebuild >= r.opts.RebuildInterval && !r.rebuilding.Load() {
		r.startRebuild()
	}

	if r.compositeNeeded.Load() && r.lastGrid.Load() != nil {
		r.startComposite()
	}
}

func (r *Region) startRebuild() {
	hf := r.field.Load()
	if hf == nil {
		return
	}
	r.rebuilding.Store(true)
	gen := r.dirtyGen.Load()

	r.loom.Go("terrain rebuild", func() {
		handedOff := false
		defer func() {
			if !handedOff {
				r.rebuilding.Store(false)
			}
		}()

		started := time.Now()
		grid, version := hf.Snapshot()
		tiles := r.buildTiles(grid)
		tiles.Version = version
		r.log.Debug("terrain mesh built",
			zap.Uint64("version", version),
			zap.Duration("took", time.Since(started)))

		r.loom.Enqueue(func() {
			r.applyMesh(tiles, grid, gen)
		})
		handedOff = true
	})
}

func (r *Region) applyMesh(tiles *terrain.TileSet, grid *terrain.Grid, gen uint64) {
	defer r.rebuilding.Store(false)
	if r.retired.Load() {
		r.log.Debug("dropping mesh for retired region")
		return
	}

	for x := range tiles.Tiles {
		for y, mesh := range tiles.Tiles[x] {
			node := r.tiles[x][y]
			node.EnsureMeshRenderer(r.material)
			node.SetMesh(mesh)
		}
	}

	if gen > r.cleanGen.Load() {
		r.cleanGen.Store(gen)
	}
	r.sinceRebuild = 0
	r.lastGrid.Store(grid)
	r.compositeNeeded.Store(true)
	r.rebuilds.Add(1)

	if !r.hasComposite && r.opts.Preview {
		r.material.SetTexture(splat.Simple(grid))
	}

	r.log.Info("terrain mesh applied",
		zap.Uint64("version", tiles.Version),
		zap.Int("vertices", tiles.VertexCount()),
		zap.Bool("still_modified", r.Modified()))
}

func (r *Region) startComposite() {
	if !r.texState.begin() {
		return
	}
	r.compositeNeeded.Store(false)
	grid := r.lastGrid.Load()
	params := r.TerrainParams()

	r.loom.Go("terrain splat", func() {
		// A pass that dies before handing off frees the compositor and asks
		// for another attempt.
		handedOff := false
		defer func() {
			if !handedOff {
				r.texState.store(Idle)
				r.compositeNeeded.Store(true)
			}
		}()

		layers := r.compositor.Fetch(r.ctx, params)

		r.texState.store(Computing)
		img, err := r.compositor.Compose(grid, params, layers)
		if err != nil {
			r.log.Error("terrain texture failed", zap.Error(err))
			r.texState.store(Idle)
			handedOff = true
			return
		}

		r.texState.store(Applying)
		r.loom.Enqueue(func() {
			r.applyComposite(img)
		})
		handedOff = true
	})
}

func (r *Region) applyComposite(img *image.RGBA) {
	defer r.texState.store(Idle)
	if r.retired.Load() {
		r.log.Debug("dropping texture for retired region")
		return
	}
	r.material.SetTexture(img)
	r.hasComposite = true
	r.composites.Add(1)
	r.log.Info("terrain texture applied", zap.Int("size", img.Bounds().Dx()))
}

// Retire detaches the region from the scene and cancels outstanding fetches.
// Results that arrive later are dropped. Must be called from inside a drain.
func (r *Region) Retire() {
	if r.retired.Swap(true) {
		return
	}
	r.cancel()
	r.node.Remove()
}

// Retired reports whether Retire has been called.
func (r *Region) Retired() bool {
	return r.retired.Load()
}
