package scene

import (
	"island-demo/core"
	"island-demo/math"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math.Vec3
}

// Mesh holds CPU-side vertex/index data.
// GPU upload is managed by the renderer backend.
type Mesh struct {
	Name     string
	Vertices []core.Vertex
	Indices  []uint32

	// Cached local-space AABB (computed by CreateMeshFromData).
	LocalAABB AABB

	// Material holds surface shading properties. If nil, DefaultMaterial() is used.
	Material *Material

	// Skin is set for meshes deformed by a skeleton. Their Vertices are
	// rewritten in world space by the animation mixer.
	Skin *SkinBinding

	// Dirty reports that Vertices changed since the last GPU upload.
	Dirty bool

	// GPUData is set by the renderer backend (e.g. *opengl.GPUMesh).
	GPUData interface{}
}

// CreateMeshFromData builds a Mesh and pre-computes its local-space AABB.
func CreateMeshFromData(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	m := &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
	if len(vertices) > 0 {
		m.LocalAABB = computeLocalAABB(vertices)
	}
	return m
}

func computeLocalAABB(vertices []core.Vertex) AABB {
	box := AABB{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		box.Min = box.Min.Min(v.Position)
		box.Max = box.Max.Max(v.Position)
	}
	return box
}
