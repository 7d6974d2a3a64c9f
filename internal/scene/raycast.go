package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a half-line with a normalized direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// NewRay creates a ray, normalizing dir.
func NewRay(origin, dir mgl32.Vec3) Ray {
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	return Ray{Origin: origin, Direction: dir}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// IntersectAABB tests the ray against box with the slab method.
// Returns the entry distance, or the exit distance if the ray starts inside.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] == 0 {
			if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
		t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// intersectTriangle is the Moller-Trumbore test. Both faces count as hits.
func (r Ray) intersectTriangle(a, b, c mgl32.Vec3) (float32, bool) {
	const eps = 1e-7
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if det > -eps && det < eps {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// Hit describes where a ray met a collider.
type Hit struct {
	Node     *Node
	Distance float32
	Point    mgl32.Vec3
}

// WorldPosition returns the node's position with all parent offsets applied.
func (n *Node) WorldPosition() mgl32.Vec3 {
	var p mgl32.Vec3
	for c := n; c != nil; c = c.parent {
		p = p.Add(c.Position)
	}
	return p
}

// Raycast returns the nearest collider hit in the subtree rooted at n.
func (n *Node) Raycast(r Ray) (Hit, bool) {
	best := Hit{Distance: float32(math.MaxFloat32)}
	found := false
	n.raycast(r, &best, &found)
	return best, found
}

func (n *Node) raycast(r Ray, best *Hit, found *bool) {
	if n.collider != nil && n.collider.SharedMesh != nil {
		if t, ok := n.collider.raycast(r, n.WorldPosition()); ok && t < best.Distance {
			*best = Hit{Node: n, Distance: t, Point: r.At(t)}
			*found = true
		}
	}
	for _, c := range n.children {
		c.raycast(r, best, found)
	}
}

func (c *MeshCollider) raycast(r Ray, origin mgl32.Vec3) (float32, bool) {
	mesh := c.SharedMesh
	lo, hi := mesh.Bounds()
	if _, ok := r.IntersectAABB(AABB{Min: lo.Add(origin), Max: hi.Add(origin)}); !ok {
		return 0, false
	}

	// Test in mesh space.
	local := Ray{Origin: r.Origin.Sub(origin), Direction: r.Direction}
	nearest := float32(math.MaxFloat32)
	hit := false
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		t, ok := local.intersectTriangle(
			mesh.Vertices[mesh.Indices[i]],
			mesh.Vertices[mesh.Indices[i+1]],
			mesh.Vertices[mesh.Indices[i+2]])
		if ok && t < nearest {
			nearest = t
			hit = true
		}
	}
	return nearest, hit
}

// GroundHeight casts a ray straight down at (x, z) and returns the height of
// the first collider below ceiling.
func (n *Node) GroundHeight(x, z, ceiling float32) (float32, bool) {
	hit, ok := n.Raycast(Ray{Origin: mgl32.Vec3{x, ceiling, z}, Direction: mgl32.Vec3{0, -1, 0}})
	if !ok {
		return 0, false
	}
	return hit.Point.Y(), true
}

