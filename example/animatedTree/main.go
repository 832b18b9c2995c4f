package main

import (
	"fmt"
	"os"

	"github.com/akmonengine/grove"
	"github.com/akmonengine/grove/graph"
	"github.com/akmonengine/grove/keyframe"
	"github.com/akmonengine/grove/transform"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	yAxis = mgl64.Vec3{0, 1, 0}
	xAxis = mgl64.Vec3{1, 0, 0}

	cylinder = graph.Handle("cylinder.obj")
	leaf     = graph.Handle("leaf.obj")
)

// newLeaf places the leaf mesh, whose origin is far from the model center
func newLeaf(name string, sx, sy, sz float64) *graph.Node {
	return graph.NewNode(
		transform.Compose(transform.Scale(sx, sy, sz), transform.Translate(-5041.9, 13, -1105)),
		graph.WithName(name),
		graph.WithDrawable(leaf),
		graph.WithTexture("diffuse", "leaf.jpg"),
	)
}

// swayingLeaf makes a leaf bob down and swing around the trunk, amplitude in degrees
func swayingLeaf(name string, amplitude float64, holder *graph.Node) *graph.Node {
	kf, err := keyframe.NewTransformFromMaps(
		map[float64]mgl64.Vec3{0: {0, 0, 0}, 3: {0, -0.3, 0}, 5: {0, 0, 0}},
		map[float64]mgl64.Quat{
			0: transform.Quaternion(),
			2: transform.QuaternionFromEuler(0, -amplitude, 0),
			3: transform.QuaternionFromEuler(0, amplitude, 0),
			4: transform.Quaternion(),
		},
		map[float64]float64{0: 1, 3: 1, 5: 1},
	)
	if err != nil {
		panic(err)
	}

	node := graph.NewControlNode(kf, graph.WithName(name))
	if err := node.Add(holder); err != nil {
		panic(err)
	}

	return node
}

// NewAnimatedTree builds a two-cylinder trunk carrying four swaying leaves,
// the whole tree spinning and bouncing
func NewAnimatedTree() *graph.Node {
	baseShape := graph.NewNode(transform.Scale(1, 8, 1), graph.WithName("baseShape"),
		graph.WithDrawable(cylinder), graph.WithTexture("diffuse", "wood.png"))
	secondCylinder := graph.NewNode(transform.Scale(1.5, 8, 1.5), graph.WithName("secondCylinder"),
		graph.WithDrawable(cylinder), graph.WithTexture("diffuse", "wood.png"))

	leaf1 := newLeaf("leaf1", 0.06, 0.05, 0.05)
	leaf2 := newLeaf("leaf2", 0.04, 0.06, 0.06)
	// the third branch reuses the standard leaf
	leaf3 := leaf1.Clone()
	leaf3.Name = "leaf3"
	leaf4 := newLeaf("leaf4", 0.05, 0.08, 0.05)

	holder := func(name string, phi, height float64, child *graph.Node) *graph.Node {
		n := graph.NewNode(transform.Compose(transform.Rotate(yAxis, phi), transform.Translate(0, height, 0)), graph.WithName(name))
		if err := n.Add(child); err != nil {
			panic(err)
		}
		return n
	}

	leaves := graph.NewNode(transform.Identity(), graph.WithName("leaves"))
	if err := leaves.Add(
		swayingLeaf("animatedLeaf4", 30, holder("transformLeaf4", 270, 7.2, leaf4)),
		swayingLeaf("animatedLeaf3", 40, holder("transformLeaf3", 180, 7.5, leaf3)),
		swayingLeaf("animatedLeaf2", 20, holder("transformLeaf2", 90, 7.5, leaf2)),
		swayingLeaf("animatedLeaf1", 30, holder("transformLeaf1", 0, 7.5, leaf1)),
	); err != nil {
		panic(err)
	}

	transformCyl := graph.NewNode(transform.Translate(0, 12, 0), graph.WithName("transformCyl"))
	transformBase := graph.NewNode(transform.Compose(transform.Translate(0, 8, 0), transform.Rotate(xAxis, 90)), graph.WithName("transformBase"))
	if err := transformCyl.Add(baseShape, leaves); err != nil {
		panic(err)
	}
	if err := transformBase.Add(secondCylinder, transformCyl); err != nil {
		panic(err)
	}

	kf, err := keyframe.NewTransformFromMaps(
		map[float64]mgl64.Vec3{0: {0, 0, 0}, 2: {0, 0, 0}, 3: {0, -2, 0}, 4: {0, 0, 0}},
		map[float64]mgl64.Quat{
			0: transform.Quaternion(),
			2: transform.QuaternionFromEuler(180, 0, 0),
			3: transform.QuaternionFromEuler(280, 0, 0),
			4: transform.QuaternionFromEuler(360, 0, 0),
			5: transform.Quaternion(),
		},
		map[float64]float64{0: 1, 1: 0.8, 2: 1, 5: 1},
	)
	if err != nil {
		panic(err)
	}
	tree := graph.NewControlNode(kf, graph.WithName("tree"))
	if err := tree.Add(transformBase); err != nil {
		panic(err)
	}

	return tree
}

func main() {
	tree := NewAnimatedTree()
	world := &grove.World{Events: grove.NewEvents()}
	world.AddRoot(tree)

	world.Events.Subscribe(grove.ANIMATION_START, func(event grove.Event) {
		e := event.(grove.AnimationStartEvent)
		fmt.Printf("t=%.2f %s starts moving\n", e.Time, e.Node.Name)
	})
	world.Events.Subscribe(grove.ANIMATION_REST, func(event grove.Event) {
		e := event.(grove.AnimationRestEvent)
		fmt.Printf("t=%.2f %s rests\n", e.Time, e.Node.Name)
	})

	const dt float64 = 1.0 / 60.0
	const steps int = 6 * 60

	for step := 1; step <= steps; step++ {
		frame, err := world.Step(dt)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if step%60 != 0 {
			continue
		}

		fmt.Printf("--- t=%.2f ---\n", frame.Time)
		for _, name := range []string{"transformBase", "transformLeaf1", "transformLeaf2", "transformLeaf3", "transformLeaf4"} {
			m, _ := frame.Pose.World(tree.Find(name))
			fmt.Printf("  %-15s %v\n", name, transform.Apply(m, mgl64.Vec3{}))
		}
	}
}
