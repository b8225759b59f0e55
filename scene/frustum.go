package scene

import "island-demo/math"

// Plane is the half-space Normal·p + D >= 0.
type Plane struct {
	Normal math.Vec3
	D      float32
}

// DistanceTo returns the signed distance from a point to the plane,
// positive on the inside.
func (p Plane) DistanceTo(pt math.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clip planes of a view frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumFromVP extracts the normalized frustum planes from a
// view-projection matrix (Gribb/Hartmann). With row vectors the clip
// coordinate j is the dot product of the point with column j.
func FrustumFromVP(vp math.Mat4) Frustum {
	col := func(j int) math.Vec4 {
		return math.Vec4{X: vp[0][j], Y: vp[1][j], Z: vp[2][j], W: vp[3][j]}
	}
	c0, c1, c2, c3 := col(0), col(1), col(2), col(3)

	var f Frustum
	f.Planes[0] = normalizePlane(c3.Add(c0))
	f.Planes[1] = normalizePlane(c3.Sub(c0))
	f.Planes[2] = normalizePlane(c3.Add(c1))
	f.Planes[3] = normalizePlane(c3.Sub(c1))
	f.Planes[4] = normalizePlane(c3.Add(c2))
	f.Planes[5] = normalizePlane(c3.Sub(c2))
	return f
}

func normalizePlane(v math.Vec4) Plane {
	n := math.Vec3{X: v.X, Y: v.Y, Z: v.Z}
	l := n.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Div(l), D: v.W / l}
}

// IntersectsFrustum returns false if the box is completely outside the
// frustum. For each plane only the corner furthest along its normal is
// tested.
func (box AABB) IntersectsFrustum(f *Frustum) bool {
	for _, p := range f.Planes {
		v := box.Max
		if p.Normal.X < 0 {
			v.X = box.Min.X
		}
		if p.Normal.Y < 0 {
			v.Y = box.Min.Y
		}
		if p.Normal.Z < 0 {
			v.Z = box.Min.Z
		}
		if p.DistanceTo(v) < 0 {
			return false
		}
	}
	return true
}

// Transform returns the world-space box enclosing the eight transformed
// corners.
func (box AABB) Transform(m math.Mat4) AABB {
	mn, mx := box.Min, box.Max
	corners := [8]math.Vec3{
		{X: mn.X, Y: mn.Y, Z: mn.Z},
		{X: mx.X, Y: mn.Y, Z: mn.Z},
		{X: mn.X, Y: mx.Y, Z: mn.Z},
		{X: mx.X, Y: mx.Y, Z: mn.Z},
		{X: mn.X, Y: mn.Y, Z: mx.Z},
		{X: mx.X, Y: mn.Y, Z: mx.Z},
		{X: mn.X, Y: mx.Y, Z: mx.Z},
		{X: mx.X, Y: mx.Y, Z: mx.Z},
	}
	first := m.MulVec3(corners[0])
	out := AABB{Min: first, Max: first}
	for _, c := range corners[1:] {
		wp := m.MulVec3(c)
		out.Min = out.Min.Min(wp)
		out.Max = out.Max.Max(wp)
	}
	return out
}

// Center is the midpoint of the box.
func (box AABB) Center() math.Vec3 {
	return box.Min.Add(box.Max).Mul(0.5)
}

// InFrustum reports whether the node's mesh may be visible. Skinned meshes
// move outside their bind-pose bounds and are always drawn.
func (n *Node) InFrustum(f *Frustum) bool {
	if n.Mesh == nil {
		return false
	}
	if n.Mesh.Skin != nil {
		return true
	}
	return n.Mesh.LocalAABB.Transform(n.GetWorldMatrix()).IntersectsFrustum(f)
}
