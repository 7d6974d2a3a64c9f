package region

import "sync/atomic"

// CompositorState tracks a region's texture pass.
// Passes move Idle -> Fetching -> Computing -> Applying -> Idle.
type CompositorState int32

const (
	Idle CompositorState = iota
	Fetching
	Computing
	Applying
)

func (s CompositorState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Computing:
		return "computing"
	case Applying:
		return "applying"
	default:
		return "unknown"
	}
}

type stateCell struct {
	v atomic.Int32
}

func (c *stateCell) load() CompositorState {
	return CompositorState(c.v.Load())
}

func (c *stateCell) store(s CompositorState) {
	c.v.Store(int32(s))
}

// begin claims the compositor for a new pass. Only an idle compositor can start one.
func (c *stateCell) begin() bool {
	return c.v.CompareAndSwap(int32(Idle), int32(Fetching))
}
