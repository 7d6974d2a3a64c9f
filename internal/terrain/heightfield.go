package terrain

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPatchSize is returned when a source patch does not hold 16x16 samples.
var ErrPatchSize = errors.New("terrain: patch must hold 256 samples")

// HeightField is a region's elevation data as delivered by the simulator:
// 16x16 source patches of 16x16 samples each. Patches arrive on network
// goroutines; readers take a Snapshot.
type HeightField struct {
	mu      sync.RWMutex
	patches [SourcePatchesPerSide * SourcePatchesPerSide][]float32
	version uint64
}

// NewHeightField creates an empty heightfield. Every sample reads as 0.
func NewHeightField() *HeightField {
	return &HeightField{}
}

// PatchIndex returns the source patch index for patch coordinates (px, py).
func PatchIndex(px, py int) int {
	return px*SourcePatchesPerSide + py
}

// SetPatch stores a copy of the samples for the patch at index.
// Samples are ordered data[lx*16+ly] for local cell (lx, ly).
func (h *HeightField) SetPatch(index int, data []float32) error {
	if index < 0 || index >= len(h.patches) {
		return fmt.Errorf("terrain: patch index %d out of range", index)
	}
	if len(data) != SourcePatchSize*SourcePatchSize {
		return fmt.Errorf("%w: got %d", ErrPatchSize, len(data))
	}
	samples := make([]float32, len(data))
	copy(samples, data)

	h.mu.Lock()
	h.patches[index] = samples
	h.version++
	h.mu.Unlock()
	return nil
}

// HasPatch reports whether the patch at index has been received.
func (h *HeightField) HasPatch(index int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return index >= 0 && index < len(h.patches) && h.patches[index] != nil
}

// Version increments on every patch write.
func (h *HeightField) Version() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}

// Snapshot copies the current samples into a Grid and returns the version it reflects.
func (h *HeightField) Snapshot() (*Grid, uint64) {
	g := &Grid{}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for x := 0; x < RegionSize; x++ {
		for y := 0; y < RegionSize; y++ {
			data := h.patches[PatchIndex(x/SourcePatchSize, y/SourcePatchSize)]
			if data == nil {
				continue
			}
			g.cells[x][y] = data[(x%SourcePatchSize)*SourcePatchSize+y%SourcePatchSize]
		}
	}
	return g, h.version
}
