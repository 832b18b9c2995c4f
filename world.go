// Package grove drives an animated scene one frame at a time.
//
// A World owns the scene roots and the skinned meshes. Every frame it resolves
// the world transform of each node top-down, then deforms each skin against
// that pose, then reports animation phase changes to the subscribed listeners.
// The scene may only be mutated between frames, typically from a listener.
package grove

import (
	"log/slog"
	"math"

	"github.com/akmonengine/grove/graph"
	"github.com/akmonengine/grove/skin"
	"github.com/akmonengine/grove/transform"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const DEFAULT_WORKERS = 1

type World struct {
	// Scene roots, traversed in order
	Roots []*graph.Node
	// Skinned meshes deformed every frame
	Skins []*skin.Skin
	// Goroutines used for the skinning phase
	Workers int

	Events Events
	// Optional, frames are logged at Debug level
	Logger *slog.Logger

	// Clock advanced by Step, in seconds
	Time float64
}

// Frame is the result of one tick. Deformed and Bounds are aligned with the
// world Skins at the time of the tick.
type Frame struct {
	Time     float64
	Pose     graph.Pose
	Deformed [][]mgl64.Vec3
	Bounds   []skin.AABB
}

// Overlapping returns the index pairs of skins whose bounds intersect, lower index first
func (f *Frame) Overlapping() [][2]int {
	var pairs [][2]int
	for i := range f.Bounds {
		for j := i + 1; j < len(f.Bounds); j++ {
			if f.Bounds[i].Overlaps(f.Bounds[j]) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}

	return pairs
}

// SkinsAt returns the indices of the skins whose bounds contain point
func (f *Frame) SkinsAt(point mgl64.Vec3) []int {
	var indices []int
	for i, bounds := range f.Bounds {
		if bounds.ContainsPoint(point) {
			indices = append(indices, i)
		}
	}

	return indices
}

// AddRoot adds a scene root to the world
func (w *World) AddRoot(root *graph.Node) {
	w.Roots = append(w.Roots, root)
}

// RemoveRoot removes a scene root from the world
func (w *World) RemoveRoot(root *graph.Node) {
	k := -1
	for i, r := range w.Roots {
		if r == root {
			k = i
			break
		}
	}

	if k != -1 {
		w.Roots = append(w.Roots[:k], w.Roots[k+1:]...)
		w.Events.forget(root)
	}
}

// AddSkin adds a skinned mesh to the world
func (w *World) AddSkin(s *skin.Skin) {
	w.Skins = append(w.Skins, s)
}

// RemoveSkin removes a skinned mesh from the world
func (w *World) RemoveSkin(s *skin.Skin) {
	for i, sk := range w.Skins {
		if sk == s {
			w.Skins = append(w.Skins[:i], w.Skins[i+1:]...)
			return
		}
	}
}

// Step advances the clock by dt and resolves the new frame
func (w *World) Step(dt float64) (*Frame, error) {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, errors.Errorf("grove: invalid time step %g", dt)
	}
	w.Time += dt

	return w.Resolve(w.Time)
}

// Resolve computes the frame at time t without touching the clock.
// Events are dispatched once the frame is complete.
func (w *World) Resolve(t float64) (*Frame, error) {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)

	// Phase 1: traversal, every world transform is known afterwards
	pose, animated := w.traverse(t)

	// Phase 2: skinning
	frame := &Frame{Time: t, Pose: pose}
	if err := w.deform(frame); err != nil {
		return nil, err
	}

	// Phase 3: animation phases, then listeners
	w.Events.processPhaseEvents(t, animated)

	if w.Logger != nil {
		w.Logger.Debug("frame resolved",
			slog.Float64("time", t),
			slog.Int("nodes", len(pose)),
			slog.Int("animated", len(animated)),
			slog.Int("skins", len(frame.Deformed)),
			slog.Int("events", len(w.Events.buffer)))
	}
	w.Events.flush()

	return frame, nil
}

func (w *World) traverse(t float64) (graph.Pose, []*graph.Node) {
	pose := make(graph.Pose)
	var animated []*graph.Node

	for _, root := range w.Roots {
		base := transform.Identity()
		if parent := root.Parent(); parent != nil {
			base = parent.WorldAt(t)
		}

		root.Walk(t, base, func(n *graph.Node, world mgl64.Mat4) bool {
			pose[n] = world
			if n.IsAnimated() {
				animated = append(animated, n)
			}
			return true
		})
	}

	return pose, animated
}

func (w *World) deform(frame *Frame) error {
	skins := w.Skins
	frame.Deformed = make([][]mgl64.Vec3, len(skins))
	frame.Bounds = make([]skin.AABB, len(skins))
	errs := make([]error, len(skins))

	indices := make([]int, len(skins))
	for i := range indices {
		indices[i] = i
	}

	// each index is written by exactly one worker
	task(w.Workers, indices, func(i int) {
		deformed, err := skins[i].Deform(frame.Pose)
		if err != nil {
			errs[i] = err
			return
		}
		frame.Deformed[i] = deformed
		frame.Bounds[i] = skin.Bounds(deformed)
	})

	for _, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "frame at t=%g", frame.Time)
		}
	}

	return nil
}
