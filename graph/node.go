// Package graph implements the scene graph: a tree of nodes carrying local
// transforms, some of them driven by keyframe animation, composed top-down
// into world transforms.
//
// A node owns its children exclusively. Geometry that appears several times in
// a scene is shared through the Drawable payload, never by adding the same
// node under two parents; Clone a subtree to reuse it.
package graph

import (
	"github.com/akmonengine/grove/keyframe"
	"github.com/akmonengine/grove/transform"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

var (
	// ErrCycle is returned when a node is added below itself or one of its descendants
	ErrCycle = errors.New("graph: child is an ancestor of the node")
	// ErrHasParent is returned when a node that already belongs to a tree is added again
	ErrHasParent = errors.New("graph: child already has a parent")
	// ErrNilChild is returned when adding a nil node
	ErrNilChild = errors.New("graph: nil child")
)

// Drawable is the render payload of a node. It is opaque to the graph and
// treated as immutable shared geometry: the same Drawable may hang off any
// number of nodes.
type Drawable interface {
	Name() string
}

// Handle is a Drawable naming an externally owned resource (a mesh file, a
// procedural generator output...)
type Handle string

func (h Handle) Name() string { return string(h) }

// TextureBinding attaches a texture handle to a named sampler slot
type TextureBinding struct {
	Slot    string
	Texture string
}

// Controller derives a node's local transform from time
type Controller interface {
	ValueAt(t float64) mgl64.Mat4
	Phase(t float64) keyframe.Phase
	Start() float64
	End() float64
}

var _ Controller = (*keyframe.Transform)(nil)

// Node is a scene graph node
type Node struct {
	Name     string
	Drawable Drawable
	Textures []TextureBinding

	local      mgl64.Mat4
	controller Controller
	loop       bool

	parent   *Node
	children []*Node
}

// Option configures a node at construction
type Option func(*Node)

// WithName sets the node name
func WithName(name string) Option {
	return func(n *Node) {
		n.Name = name
	}
}

// WithDrawable attaches a render payload
func WithDrawable(d Drawable) Option {
	return func(n *Node) {
		n.Drawable = d
	}
}

// WithTexture binds a texture to a slot
func WithTexture(slot, texture string) Option {
	return func(n *Node) {
		n.Textures = append(n.Textures, TextureBinding{Slot: slot, Texture: texture})
	}
}

// WithLoop makes an animated node repeat its keyframes instead of freezing on
// the last one. It has no effect on static nodes.
func WithLoop() Option {
	return func(n *Node) {
		n.loop = true
	}
}

// NewNode creates a static node with the given local transform
func NewNode(local mgl64.Mat4, options ...Option) *Node {
	n := &Node{local: local}
	for _, opt := range options {
		opt(n)
	}

	return n
}

// NewControlNode creates a node whose local transform is computed from c at
// every query time
func NewControlNode(c Controller, options ...Option) *Node {
	n := NewNode(transform.Identity(), options...)
	n.controller = c

	return n
}

// Add appends children in call order.
// Either every child is attached or none is.
func (n *Node) Add(children ...*Node) error {
	seen := make(map[*Node]bool, len(children))
	for _, child := range children {
		if child == nil {
			return ErrNilChild
		}
		for p := n; p != nil; p = p.parent {
			if p == child {
				return errors.Wrapf(ErrCycle, "adding %q under %q", child.Name, n.Name)
			}
		}
		if child.parent != nil || seen[child] {
			return errors.Wrapf(ErrHasParent, "adding %q under %q", child.Name, n.Name)
		}
		seen[child] = true
	}

	for _, child := range children {
		child.parent = n
		n.children = append(n.children, child)
	}

	return nil
}

// Remove detaches child from n. It reports whether child was found.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c != child {
			continue
		}

		// fresh slice so that a walk in progress keeps its own view
		children := make([]*Node, 0, len(n.children)-1)
		children = append(children, n.children[:i]...)
		n.children = append(children, n.children[i+1:]...)
		child.parent = nil

		return true
	}

	return false
}

// Children returns the children in insertion order. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Parent returns the parent node, or nil for a root
func (n *Node) Parent() *Node {
	return n.parent
}

// Root returns the topmost ancestor
func (n *Node) Root() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}

	return root
}

// IsAnimated reports whether the local transform comes from a controller
func (n *Node) IsAnimated() bool {
	return n.controller != nil
}

// Controller returns the animation controller, nil for static nodes
func (n *Node) Controller() Controller {
	return n.controller
}

// SetLocal overwrites the local transform of a static node
func (n *Node) SetLocal(m mgl64.Mat4) {
	n.local = m
}

// animationTime maps the global clock into the controller domain
func (n *Node) animationTime(t float64) float64 {
	if n.loop {
		return keyframe.Loop(t, n.controller.Start(), n.controller.End())
	}

	return t
}

// LocalAt returns the local transform at time t
func (n *Node) LocalAt(t float64) mgl64.Mat4 {
	if n.controller == nil {
		return n.local
	}

	return n.controller.ValueAt(n.animationTime(t))
}

// Phase reports whether the node animation is interpolating at time t.
// Static nodes are always resting.
func (n *Node) Phase(t float64) keyframe.Phase {
	if n.controller == nil {
		return keyframe.Resting
	}

	return n.controller.Phase(n.animationTime(t))
}

// WorldAt composes the local transforms from the root down to n at time t
func (n *Node) WorldAt(t float64) mgl64.Mat4 {
	var chain []mgl64.Mat4
	for p := n; p != nil; p = p.parent {
		chain = append(chain, p.LocalAt(t))
	}

	world := transform.Identity()
	for i := len(chain) - 1; i >= 0; i-- {
		world = world.Mul4(chain[i])
	}

	return world
}

// Find returns the first node named name in pre-order, or nil
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.children {
		if found := child.Find(name); found != nil {
			return found
		}
	}

	return nil
}

// Clone deep copies the subtree rooted at n. The copy has no parent;
// drawables and controllers are shared since neither carries per-instance state.
func (n *Node) Clone() *Node {
	c := &Node{
		Name:       n.Name,
		Drawable:   n.Drawable,
		local:      n.local,
		controller: n.controller,
		loop:       n.loop,
	}
	if n.Textures != nil {
		c.Textures = append([]TextureBinding(nil), n.Textures...)
	}
	for _, child := range n.children {
		cc := child.Clone()
		cc.parent = c
		c.children = append(c.children, cc)
	}

	return c
}
