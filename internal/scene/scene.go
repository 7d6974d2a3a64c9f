// Package scene is a headless model of the engine's scene graph: nodes with
// mesh, collider and renderer components, and materials holding a texture.
//
// Every mutation must happen inside a loom drain on the owning goroutine.
// Mutating from anywhere else panics with ErrNotOwner.
package scene

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/loom"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

// ErrNotOwner is the panic value raised when the scene is mutated outside a drain.
var ErrNotOwner = errors.New("scene: mutated outside the owning goroutine's drain")

// Scene owns a tree of nodes.
type Scene struct {
	loom  *loom.Loom
	root  *Node
	stats Stats
}

// Stats counts scene objects, for diagnostics and tests.
type Stats struct {
	Nodes             int
	ComponentsCreated int
	MeshAssignments   int
	TextureUploads    int
}

// New creates an empty scene guarded by l. A nil loom disables the owner check.
func New(l *loom.Loom) *Scene {
	s := &Scene{loom: l}
	s.root = &Node{Name: "root", scene: s}
	return s
}

// Root returns the root node.
func (s *Scene) Root() *Node {
	return s.root
}

// Stats returns a copy of the counters.
func (s *Scene) Stats() Stats {
	return s.stats
}

func (s *Scene) mustOwn() {
	if s.loom != nil && !s.loom.InDrain() {
		panic(ErrNotOwner)
	}
}

// Node is one object in the scene.
type Node struct {
	Name     string
	Position mgl32.Vec3

	scene    *Scene
	parent   *Node
	children []*Node

	filter   *MeshFilter
	collider *MeshCollider
	renderer *MeshRenderer
}

// NewChild adds a child node at a local position.
func (n *Node) NewChild(name string, pos mgl32.Vec3) *Node {
	n.scene.mustOwn()
	c := &Node{Name: name, Position: pos, scene: n.scene, parent: n}
	n.children = append(n.children, c)
	n.scene.stats.Nodes++
	return c
}

// Children returns the node's children.
func (n *Node) Children() []*Node {
	return n.children
}

// Find returns the direct child with the given name.
func (n *Node) Find(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Remove detaches the node and its subtree from the scene.
func (n *Node) Remove() {
	n.scene.mustOwn()
	if n.parent == nil {
		return
	}
	siblings := n.parent.children
	for i, c := range siblings {
		if c == n {
			n.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	n.parent = nil
	n.scene.stats.Nodes -= n.count()
}

// Attached reports whether the node is still part of its scene.
func (n *Node) Attached() bool {
	for p := n; p != nil; p = p.parent {
		if p == n.scene.root {
			return true
		}
	}
	return false
}

func (n *Node) count() int {
	total := 1
	for _, c := range n.children {
		total += c.count()
	}
	return total
}

// MeshFilter holds the mesh a node draws.
type MeshFilter struct {
	Mesh *terrain.TileMesh
}

// MeshCollider holds the mesh used for ray and physics queries.
type MeshCollider struct {
	SharedMesh *terrain.TileMesh
}

// MeshRenderer draws a node's mesh with a material.
type MeshRenderer struct {
	Material *Material
}

// MeshFilter returns the node's mesh filter, or nil.
func (n *Node) MeshFilter() *MeshFilter { return n.filter }

// MeshCollider returns the node's collider, or nil.
func (n *Node) MeshCollider() *MeshCollider { return n.collider }

// MeshRenderer returns the node's renderer, or nil.
func (n *Node) MeshRenderer() *MeshRenderer { return n.renderer }

// EnsureMeshFilter returns the node's mesh filter, adding one if absent.
func (n *Node) EnsureMeshFilter() *MeshFilter {
	n.scene.mustOwn()
	if n.filter == nil {
		n.filter = &MeshFilter{}
		n.scene.stats.ComponentsCreated++
	}
	return n.filter
}

// EnsureMeshCollider returns the node's collider, adding one if absent.
func (n *Node) EnsureMeshCollider() *MeshCollider {
	n.scene.mustOwn()
	if n.collider == nil {
		n.collider = &MeshCollider{}
		n.scene.stats.ComponentsCreated++
	}
	return n.collider
}

// EnsureMeshRenderer returns the node's renderer, adding one that uses mat if absent.
// An existing renderer keeps its material.
func (n *Node) EnsureMeshRenderer(mat *Material) *MeshRenderer {
	n.scene.mustOwn()
	if n.renderer == nil {
		n.renderer = &MeshRenderer{Material: mat}
		n.scene.stats.ComponentsCreated++
	}
	return n.renderer
}

// SetMesh assigns mesh to the filter and collider, recalculating its normals.
func (n *Node) SetMesh(mesh *terrain.TileMesh) {
	n.scene.mustOwn()
	terrain.RecalculateNormals(mesh)
	n.EnsureMeshFilter().Mesh = mesh
	n.EnsureMeshCollider().SharedMesh = mesh
	n.scene.stats.MeshAssignments++
}

// Material is a surface description shared by renderers.
type Material struct {
	Name    string
	Shader  string
	texture *image.RGBA
	scene   *Scene

	// Revision increases each time the texture is replaced.
	Revision int
}

// NewMaterial creates a material in the scene.
func (s *Scene) NewMaterial(name, shader string) *Material {
	return &Material{Name: name, Shader: shader, scene: s}
}

// Texture returns the current main texture, or nil.
func (m *Material) Texture() *image.RGBA {
	return m.texture
}

// SetTexture replaces the main texture.
func (m *Material) SetTexture(img *image.RGBA) {
	m.scene.mustOwn()
	m.texture = img
	m.Revision++
	m.scene.stats.TextureUploads++
}
