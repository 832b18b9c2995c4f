package graph

import (
	"github.com/akmonengine/grove/transform"
	"github.com/go-gl/mathgl/mgl64"
)

// Visitor is called once per node with its resolved world transform.
// Returning false skips the node's children.
type Visitor func(n *Node, world mgl64.Mat4) bool

// Walk visits the subtree depth-first, pre-order: a node's world transform is
// parentWorld∘local(t) and is computed before any of its children.
// Children added or removed by the visitor take effect on the next walk.
func (n *Node) Walk(t float64, parentWorld mgl64.Mat4, visit Visitor) {
	world := parentWorld.Mul4(n.LocalAt(t))
	if !visit(n, world) {
		return
	}

	children := n.children
	for _, child := range children {
		child.Walk(t, world, visit)
	}
}

// Pose holds the world transform of every node resolved for one frame
type Pose map[*Node]mgl64.Mat4

// World returns the resolved world transform of n
func (p Pose) World(n *Node) (mgl64.Mat4, bool) {
	m, ok := p[n]
	return m, ok
}

// Resolve walks every root at time t and records all world transforms.
// A root that is itself attached somewhere starts from its parent's world transform.
func Resolve(t float64, roots ...*Node) Pose {
	pose := make(Pose)
	for _, root := range roots {
		base := transform.Identity()
		if root.parent != nil {
			base = root.parent.WorldAt(t)
		}

		root.Walk(t, base, func(n *Node, world mgl64.Mat4) bool {
			pose[n] = world
			return true
		})
	}

	return pose
}

// ComposeChain composes ancestor local transforms ordered from the root down
// to the node itself
func ComposeChain(locals ...mgl64.Mat4) mgl64.Mat4 {
	return transform.Compose(locals...)
}
