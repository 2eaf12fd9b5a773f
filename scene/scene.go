package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	rmath "r3d/math"
)

// Scene is a node graph under a single root.
type Scene struct {
	Root *Node
}

func NewScene() *Scene {
	return &Scene{Root: NewNode("root")}
}

func (s *Scene) AddNode(node *Node)     { s.Root.AddChild(node) }
func (s *Scene) RemoveNode(node *Node)  { s.Root.RemoveChild(node) }
func (s *Scene) Find(name string) *Node { return s.Root.Find(name) }

func (s *Scene) Update(dt float32) { s.Root.Update(dt) }

// WorldBounds returns the box enclosing the node's model in world space.
func (n *Node) WorldBounds() rmath.AABB {
	if n.Model == nil {
		p := n.WorldMatrix().Col(3).Vec3()
		return rmath.AABB{Min: p, Max: p}
	}
	return n.Model.Bounds.Transform(n.WorldMatrix())
}

// Visible calls fn for every visible node holding a model whose world
// bounds intersect f. A hidden node hides its whole subtree.
func (s *Scene) Visible(f *rmath.Frustum, fn func(n *Node, world mgl32.Mat4)) {
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if n.Model != nil && f.ContainsAABB(n.WorldBounds()) {
			fn(n, n.WorldMatrix())
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(s.Root)
}

// Emitters calls fn for every node with Visible set that carries a
// particle emitter.
func (s *Scene) Emitters(fn func(n *Node)) {
	s.Root.Traverse(func(n *Node) {
		if n.Visible && n.Emitter != nil {
			fn(n)
		}
	})
}
