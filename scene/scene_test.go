package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	rmath "r3d/math"
)

func TestNodeWorldMatrixFollowsParent(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	child.SetPosition(mgl32.Vec3{1, 0, 0})
	parent.SetPosition(mgl32.Vec3{0, 2, 0})

	got := child.WorldMatrix().Col(3).Vec3()
	if !got.ApproxEqual(mgl32.Vec3{1, 2, 0}) {
		t.Errorf("child world position: expected (1,2,0), got %v", got)
	}

	parent.Rotate(mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(90))
	got = child.WorldMatrix().Col(3).Vec3()
	if want := (mgl32.Vec3{0, 2, -1}); got.Sub(want).Len() > 1e-5 {
		t.Errorf("rotated child world position: expected (0,2,-1), got %v", got)
	}

	parent.RemoveChild(child)
	if child.Parent != nil || len(parent.Children) != 0 {
		t.Error("RemoveChild left the link in place")
	}
	got = child.WorldMatrix().Col(3).Vec3()
	if !got.ApproxEqual(mgl32.Vec3{1, 0, 0}) {
		t.Errorf("detached child world position: expected (1,0,0), got %v", got)
	}
}

func TestSceneVisibleCullsByFrustum(t *testing.T) {
	s := NewScene()
	front := NewModelNode("front", NewModelFromMesh(CreateCube(1)))
	behind := NewModelNode("behind", NewModelFromMesh(CreateCube(1)))
	behind.SetPosition(mgl32.Vec3{0, 0, 20})
	hidden := NewModelNode("hidden", NewModelFromMesh(CreateCube(1)))
	hidden.Visible = false
	hiddenChild := NewModelNode("hidden-child", NewModelFromMesh(CreateCube(1)))
	hidden.AddChild(hiddenChild)
	for _, n := range []*Node{front, behind, hidden} {
		s.AddNode(n)
	}

	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 4.0/3.0, 0.1, 100)
	f := rmath.FrustumFromVP(proj.Mul4(view))

	var names []string
	s.Visible(&f, func(n *Node, _ mgl32.Mat4) { names = append(names, n.Name) })
	if len(names) != 1 || names[0] != "front" {
		t.Errorf("Visible: expected [front], got %v", names)
	}
	if s.Find("hidden-child") != hiddenChild {
		t.Error("Find did not reach a nested node")
	}
}

func TestNodeUpdateMovesEmitter(t *testing.T) {
	n := NewNode("fire")
	n.Emitter = NewParticleEmitter(8)
	n.SetPosition(mgl32.Vec3{3, 0, 0})
	n.Update(0.1)
	if n.Emitter.Position != (mgl32.Vec3{3, 0, 0}) {
		t.Errorf("emitter position: expected (3,0,0), got %v", n.Emitter.Position)
	}
}
