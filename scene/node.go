package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a translation, rotation and scale applied in TRS order.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix returns the local matrix T*R*S.
func (t Transform) Matrix() mgl32.Mat4 {
	s := mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(t.Rotation.Mat4()).
		Mul4(s)
}

// Node is an element of the scene graph. A node draws Model, if any, with
// its world matrix.
type Node struct {
	Name      string
	Transform Transform
	Parent    *Node
	Children  []*Node
	Model     *Model
	// Emitter is advanced by Update and drawn at the node's position.
	Emitter *ParticleEmitter
	Visible bool

	worldDirty bool
	world      mgl32.Mat4
}

func NewNode(name string) *Node {
	return &Node{
		Name:       name,
		Transform:  NewTransform(),
		Visible:    true,
		worldDirty: true,
	}
}

// NewModelNode returns a node drawing model.
func NewModelNode(name string, model *Model) *Node {
	n := NewNode(name)
	n.Model = model
	return n
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	child.markDirty()
	n.Children = append(n.Children, child)
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.markDirty()
			return
		}
	}
}

// WorldMatrix returns the parent chain's matrices applied to the local
// transform. The result is cached until a transform in the chain changes.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	if n.worldDirty {
		local := n.Transform.Matrix()
		if n.Parent != nil {
			n.world = n.Parent.WorldMatrix().Mul4(local)
		} else {
			n.world = local
		}
		n.worldDirty = false
	}
	return n.world
}

func (n *Node) markDirty() {
	n.worldDirty = true
	for _, child := range n.Children {
		child.markDirty()
	}
}

func (n *Node) SetPosition(pos mgl32.Vec3) {
	n.Transform.Position = pos
	n.markDirty()
}

func (n *Node) SetRotation(rot mgl32.Quat) {
	n.Transform.Rotation = rot
	n.markDirty()
}

func (n *Node) SetScale(scale mgl32.Vec3) {
	n.Transform.Scale = scale
	n.markDirty()
}

func (n *Node) Translate(delta mgl32.Vec3) {
	n.Transform.Position = n.Transform.Position.Add(delta)
	n.markDirty()
}

// Rotate applies a rotation of angle radians about axis after the current
// one.
func (n *Node) Rotate(axis mgl32.Vec3, angle float32) {
	rot := mgl32.QuatRotate(angle, axis.Normalize())
	n.Transform.Rotation = n.Transform.Rotation.Mul(rot).Normalize()
	n.markDirty()
}

// Update advances the particle emitters of the subtree by dt seconds.
func (n *Node) Update(dt float32) {
	if n.Emitter != nil {
		n.Emitter.Position = n.WorldMatrix().Col(3).Vec3()
		n.Emitter.Update(dt)
	}
	for _, child := range n.Children {
		child.Update(dt)
	}
}

// Traverse visits the subtree depth-first, parents before children.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.Traverse(fn)
	}
}

// Find returns the first node of the subtree named name.
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
