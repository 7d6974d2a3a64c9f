package terrain

import (
	"github.com/go-gl/mathgl/mgl32"
)

var up = mgl32.Vec3{0, 1, 0}

// BuildPatches turns a heightfield snapshot into TilesPerSide x TilesPerSide mesh tiles.
// Each tile has TileVerts x TileVerts vertices; the last row and column of a tile
// sample the first cells of its neighbour so adjacent tiles share edges. At the
// region border the sample coordinate is clamped, repeating the last valid row.
func BuildPatches(grid *Grid) *TileSet {
	set := &TileSet{}
	for tx := 0; tx < TilesPerSide; tx++ {
		for ty := 0; ty < TilesPerSide; ty++ {
			set.Tiles[tx][ty] = buildTile(grid, tx, ty)
		}
	}
	return set
}

func buildTile(grid *Grid, tileX, tileY int) *TileMesh {
	n := TileVerts * TileVerts
	m := &TileMesh{
		TileX:    tileX,
		TileY:    tileY,
		Vertices: make([]mgl32.Vec3, n),
		Normals:  make([]mgl32.Vec3, n),
		UVs:      make([]mgl32.Vec2, n),
		Indices:  make([]uint32, TileIndexCount),
	}

	for y := 0; y < TileVerts; y++ {
		for x := 0; x < TileVerts; x++ {
			i := x + y*TileVerts
			globalX := x + tileX*TileQuads
			globalY := y + tileY*TileQuads

			// Grid rows run along the mesh Z axis.
			height := grid.At(globalY, globalX)

			m.Vertices[i] = mgl32.Vec3{float32(x), height, float32(y)}
			m.Normals[i] = up
			m.UVs[i] = mgl32.Vec2{
				float32(globalX) / float32(RegionSize-1),
				float32(globalY) / float32(RegionSize-1),
			}
		}
	}

	for y := 0; y < TileQuads; y++ {
		for x := 0; x < TileQuads; x++ {
			i := (x + y*TileQuads) * 6
			v00 := uint32(x + y*TileVerts)
			v01 := uint32(x + (y+1)*TileVerts)
			v10 := v00 + 1
			v11 := v01 + 1

			m.Indices[i+0] = v00
			m.Indices[i+1] = v01
			m.Indices[i+2] = v10

			m.Indices[i+3] = v01
			m.Indices[i+4] = v11
			m.Indices[i+5] = v10
		}
	}

	return m
}

// RecalculateNormals replaces the tile's normals with smooth vertex normals
// derived from its triangles. Each face contributes its area-weighted normal
// to its three corners; vertices no triangle touches keep pointing up.
func RecalculateNormals(m *TileMesh) {
	sums := make([]mgl32.Vec3, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		edge1 := m.Vertices[b].Sub(m.Vertices[a])
		edge2 := m.Vertices[c].Sub(m.Vertices[a])
		face := edge1.Cross(edge2)
		sums[a] = sums[a].Add(face)
		sums[b] = sums[b].Add(face)
		sums[c] = sums[c].Add(face)
	}

	normals := make([]mgl32.Vec3, len(sums))
	for i, s := range sums {
		if s.Len() < 1e-12 {
			normals[i] = up
			continue
		}
		normals[i] = s.Normalize()
	}
	m.Normals = normals
}

// Bounds returns the axis-aligned box around the tile's vertices.
func (m *TileMesh) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return lo, hi
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for k := 0; k < 3; k++ {
			if v[k] < lo[k] {
				lo[k] = v[k]
			}
			if v[k] > hi[k] {
				hi[k] = v[k]
			}
		}
	}
	return lo, hi
}
