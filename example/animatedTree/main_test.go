package main

import (
	"testing"

	"github.com/akmonengine/grove/graph"
	"github.com/akmonengine/grove/transform"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnimatedTree(t *testing.T) {
	tree := NewAnimatedTree()

	count := 0
	tree.Walk(0, transform.Identity(), func(n *graph.Node, world mgl64.Mat4) bool {
		count++
		return true
	})
	assert.Equal(t, 18, count)

	leaf1 := tree.Find("leaf1")
	leaf3 := tree.Find("leaf3")
	require.NotNil(t, leaf1)
	require.NotNil(t, leaf3)
	assert.NotSame(t, leaf1, leaf3)
	assert.Equal(t, leaf1.Drawable, leaf3.Drawable)
	assert.Equal(t, "transformLeaf3", leaf3.Parent().Name)

	// rest pose: the trunk lies along z after the 90 degree tilt
	origin := transform.Apply(tree.Find("transformLeaf1").WorldAt(0), mgl64.Vec3{})
	assert.InDeltaSlice(t, []float64{0, 8, 19.5}, origin[:], 1e-9, "got %v", origin)
}
