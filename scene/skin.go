package scene

import (
	"island-demo/core"
	"island-demo/math"
)

// SkinBinding deforms one mesh by a set of joint nodes. Bind-pose vertices
// are kept so each Apply starts from the undeformed mesh.
type SkinBinding struct {
	Mesh        *Mesh
	Joints      []*Node
	InverseBind []math.Mat4
	JointIndex  [][4]uint16
	Weights     [][4]float32

	bindPose []core.Vertex
	matrices []math.Mat4
}

func NewSkinBinding(mesh *Mesh, joints []*Node, inverseBind []math.Mat4, jointIndex [][4]uint16, weights [][4]float32) *SkinBinding {
	bind := make([]core.Vertex, len(mesh.Vertices))
	copy(bind, mesh.Vertices)
	s := &SkinBinding{
		Mesh:        mesh,
		Joints:      joints,
		InverseBind: inverseBind,
		JointIndex:  jointIndex,
		Weights:     weights,
		bindPose:    bind,
		matrices:    make([]math.Mat4, len(joints)),
	}
	mesh.Skin = s
	return s
}

// Apply rewrites the mesh vertices in world space from the current joint
// poses and marks the mesh dirty.
func (s *SkinBinding) Apply() {
	for i, j := range s.Joints {
		ibm := math.Mat4Identity()
		if i < len(s.InverseBind) {
			ibm = s.InverseBind[i]
		}
		s.matrices[i] = ibm.Mul(j.GetWorldMatrix())
	}

	for vi, base := range s.bindPose {
		if vi >= len(s.JointIndex) || vi >= len(s.Weights) {
			break
		}
		var skin math.Mat4
		total := float32(0)
		for k := 0; k < 4; k++ {
			w := s.Weights[vi][k]
			ji := int(s.JointIndex[vi][k])
			if w == 0 || ji >= len(s.matrices) {
				continue
			}
			total += w
			jm := s.matrices[ji]
			for r := 0; r < 4; r++ {
				for c := 0; c < 4; c++ {
					skin[r][c] += jm[r][c] * w
				}
			}
		}
		if total == 0 {
			skin = math.Mat4Identity()
		}

		v := base
		v.Position = skin.MulVec3(base.Position)
		v.Normal = skin.MulDir(base.Normal).Normalize()
		t := skin.MulDir(base.Tangent.ToVec3()).Normalize()
		v.Tangent = t.ToVec4(base.Tangent.W)
		s.Mesh.Vertices[vi] = v
	}
	s.Mesh.Dirty = true
}
