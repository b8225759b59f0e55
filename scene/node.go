package scene

import (
	"sync/atomic"

	"island-demo/core"
	"island-demo/math"
)

// Node represents an object in the scene graph
type Node struct {
	Name          string
	Transform     core.Transform
	Parent        *Node
	Children      []*Node
	Mesh          *Mesh
	Visible       bool
	CastShadow    bool
	ReceiveShadow bool
	Id            uint32

	// Cached world transform
	worldMatrixDirty bool
	worldMatrix      math.Mat4
}

// Nodes are built on loader goroutines, so ids come from an atomic counter.
var nodeIdCounter atomic.Uint32

func NewNode(name string) *Node {
	return &Node{
		Name:             name,
		Transform:        core.NewTransform(),
		Children:         make([]*Node, 0),
		Visible:          true,
		Id:               nodeIdCounter.Add(1),
		worldMatrixDirty: true,
	}
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	child.MarkWorldMatrixDirty()
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

// GetWorldMatrix returns local * parentWorld, recomputed lazily.
func (n *Node) GetWorldMatrix() math.Mat4 {
	if n.worldMatrixDirty {
		localMatrix := n.Transform.GetMatrix()
		if n.Parent != nil {
			n.worldMatrix = localMatrix.Mul(n.Parent.GetWorldMatrix())
		} else {
			n.worldMatrix = localMatrix
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

// RenderMatrix is the model matrix used for drawing. Skinned meshes are
// deformed into world space on the CPU and drawn without a node transform.
func (n *Node) RenderMatrix() math.Mat4 {
	if n.Mesh != nil && n.Mesh.Skin != nil {
		return math.Mat4Identity()
	}
	return n.GetWorldMatrix()
}

func (n *Node) WorldPosition() math.Vec3 {
	return n.GetWorldMatrix().Translation()
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

func (n *Node) SetPosition(pos math.Vec3) {
	n.Transform.Position = pos
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetRotation(rot math.Quaternion) {
	n.Transform.Rotation = rot
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetScale(scale math.Vec3) {
	n.Transform.Scale = scale
	n.MarkWorldMatrixDirty()
}

// SetRotationY replaces the rotation with a turn of angle radians about +Y.
func (n *Node) SetRotationY(angle float32) {
	n.SetRotation(math.QuaternionFromAxisAngle(math.Vec3Up, angle))
}

func (n *Node) Translate(delta math.Vec3) {
	n.Transform.Position = n.Transform.Position.Add(delta)
	n.MarkWorldMatrixDirty()
}

// Traverse visits all nodes in the graph
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

// Find finds a node by name
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}
