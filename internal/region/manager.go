package region

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/loom"
	"github.com/Faultbox/midgard-terrain/internal/scene"
	"github.com/Faultbox/midgard-terrain/internal/splat"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

// Manager tracks the region of the simulator the client is connected to.
type Manager struct {
	loom       *loom.Loom
	scene      *scene.Scene
	compositor *splat.Compositor
	opts       Options

	current atomic.Pointer[Region]
	log     *zap.Logger
}

// NewManager creates a manager placing regions under the scene root.
func NewManager(l *loom.Loom, sc *scene.Scene, compositor *splat.Compositor, opts Options) *Manager {
	return &Manager{
		loom:       l,
		scene:      sc,
		compositor: compositor,
		opts:       opts,
		log:        logger.Named("region"),
	}
}

// Current returns the active region, or nil before the first simulator change.
func (m *Manager) Current() *Region {
	return m.current.Load()
}

// SimulatorChanged schedules replacing the active region with a fresh one for
// handle, with its own heightfield and mesh state. The old region is retired.
// Safe from any goroutine; the swap happens on the next drain.
func (m *Manager) SimulatorChanged(handle uint64) {
	m.loom.Enqueue(func() {
		m.switchTo(handle)
	})
}

func (m *Manager) switchTo(handle uint64) {
	if old := m.current.Load(); old != nil {
		old.Retire()
		m.log.Info("region retired", zap.Uint64("handle", old.Handle))
	}

	r := New(handle, m.loom, m.scene, m.scene.Root(), m.compositor, m.opts)
	r.AttachHeightField(terrain.NewHeightField())
	m.current.Store(r)
	m.log.Info("region created", zap.Uint64("handle", handle))
}

// ApplyPatch forwards a land patch to the active region.
func (m *Manager) ApplyPatch(index int, data []float32) error {
	r := m.current.Load()
	if r == nil {
		return ErrNoHeightField
	}
	return r.ApplyPatch(index, data)
}

// Update advances the active region.
func (m *Manager) Update(dt time.Duration) {
	if r := m.current.Load(); r != nil {
		r.Update(dt)
	}
}

// SetTerrainParams forwards texturing parameters to the active region.
func (m *Manager) SetTerrainParams(p splat.Params) {
	if r := m.current.Load(); r != nil {
		r.SetTerrainParams(p)
	}
}

// Shutdown retires the active region. Must be called from inside a drain.
func (m *Manager) Shutdown() {
	if r := m.current.Swap(nil); r != nil {
		r.Retire()
		m.log.Info("region retired", zap.Uint64("handle", r.Handle))
	}
}
