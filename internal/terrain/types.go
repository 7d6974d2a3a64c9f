// Package terrain holds a region's heightfield and turns it into mesh tiles.
package terrain

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// RegionSize is the number of height samples along each side of a region.
	RegionSize = 256

	// SourcePatchSize is the side of one height patch delivered by the simulator.
	SourcePatchSize = 16

	// SourcePatchesPerSide is the number of source patches along each side.
	SourcePatchesPerSide = RegionSize / SourcePatchSize

	// TilesPerSide is the number of mesh tiles along each side of a region.
	TilesPerSide = 4

	// TileQuads is the number of quads along each side of a mesh tile.
	TileQuads = RegionSize / TilesPerSide

	// TileVerts is the number of vertices along each side of a mesh tile.
	TileVerts = TileQuads + 1

	// TileIndexCount is the number of triangle indices in one tile.
	TileIndexCount = TileQuads * TileQuads * 2 * 3
)

// Grid is an immutable copy of a heightfield, indexed [x][y].
type Grid struct {
	cells [RegionSize][RegionSize]float32
}

// At returns the sample at (x, y). Coordinates outside the region are clamped.
func (g *Grid) At(x, y int) float32 {
	return g.cells[clampIndex(x)][clampIndex(y)]
}

// Set writes a sample. Only used while building a grid.
func (g *Grid) Set(x, y int, h float32) {
	g.cells[x][y] = h
}

// Fill sets every sample to h.
func (g *Grid) Fill(h float32) {
	for x := range g.cells {
		for y := range g.cells[x] {
			g.cells[x][y] = h
		}
	}
}

// MinMax returns the lowest and highest sample.
func (g *Grid) MinMax() (lo, hi float32) {
	lo, hi = g.cells[0][0], g.cells[0][0]
	for x := range g.cells {
		for _, h := range g.cells[x] {
			if h < lo {
				lo = h
			}
			if h > hi {
				hi = h
			}
		}
	}
	return lo, hi
}

// TileMesh holds one tile's buffers, ready for upload.
// Vertex positions are local to the tile origin; Y is height.
type TileMesh struct {
	TileX, TileY int
	Vertices     []mgl32.Vec3
	Normals      []mgl32.Vec3
	UVs          []mgl32.Vec2
	Indices      []uint32
}

// Origin returns the tile's offset inside the region.
func (m *TileMesh) Origin() mgl32.Vec3 {
	return mgl32.Vec3{float32(m.TileX * TileQuads), 0, float32(m.TileY * TileQuads)}
}

// TileSet is the full result of one rebuild, indexed [TileX][TileY].
type TileSet struct {
	Tiles   [TilesPerSide][TilesPerSide]*TileMesh
	Version uint64 // heightfield version the tiles were built from
}

// VertexCount returns the total number of vertices across all tiles.
func (s *TileSet) VertexCount() int {
	n := 0
	for x := range s.Tiles {
		for _, t := range s.Tiles[x] {
			if t != nil {
				n += len(t.Vertices)
			}
		}
	}
	return n
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i > RegionSize-1 {
		return RegionSize - 1
	}
	return i
}

// GridFromImage samples img into a region grid, reading luminance as height.
// Black maps to 0 and white to maxHeight. Images of any size are sampled
// nearest-neighbour; image rows run along the grid's Y axis.
func GridFromImage(img image.Image, maxHeight float32) *Grid {
	g := &Grid{}
	b := img.Bounds()
	if b.Empty() {
		return g
	}
	for x := 0; x < RegionSize; x++ {
		sx := b.Min.X + x*b.Dx()/RegionSize
		for y := 0; y < RegionSize; y++ {
			sy := b.Min.Y + y*b.Dy()/RegionSize
			gray := color.Gray16Model.Convert(img.At(sx, sy)).(color.Gray16)
			g.cells[x][y] = float32(gray.Y) / 0xffff * maxHeight
		}
	}
	return g
}
