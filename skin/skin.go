// Package skin implements linear blend skinning over bones that live in the
// scene graph.
//
// A Skin references an ordered table of bone nodes, each paired with the
// inverse bind pose offset that maps a rest position into the bone frame.
// Every frame, once the scene traversal has resolved all world transforms,
// Deform blends each vertex through up to MaxInfluences bone matrices:
//
//	bone[i] = world(node[i]) ∘ offset[i]
//	p'      = Σ weight[k] · bone[index[k]] · p
//
// Weights are used exactly as given. Rest positions and the bone table are
// never modified.
package skin

import (
	"math"

	"github.com/akmonengine/grove/graph"
	"github.com/akmonengine/grove/transform"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// MaxInfluences is the number of bones that can influence a single vertex
const MaxInfluences = 4

var (
	// ErrNoBones is returned for a skin without bones
	ErrNoBones = errors.New("skin: empty bone table")
	// ErrBoneIndex is returned when a vertex references a bone outside the table
	ErrBoneIndex = errors.New("skin: bone index out of range")
	// ErrWeightSum is returned in strict mode when vertex weights do not sum to one
	ErrWeightSum = errors.New("skin: vertex weights do not sum to 1")
	// ErrUnresolvedBone is returned when the pose lacks the world transform of a bone
	ErrUnresolvedBone = errors.New("skin: bone world transform not resolved")
)

// Bone pairs a scene node with its inverse bind pose offset
type Bone struct {
	Node   *graph.Node
	Offset mgl64.Mat4
}

// Vertex is a rest position with its bone influences.
// Unused slots must carry a zero weight; their index still has to be valid.
type Vertex struct {
	Position mgl64.Vec3
	Bones    [MaxInfluences]int
	Weights  [MaxInfluences]float64
}

// Pose gives access to the world transforms resolved for the current frame
type Pose interface {
	World(n *graph.Node) (mgl64.Mat4, bool)
}

var _ Pose = graph.Pose(nil)

// Skin is a mesh deformed by a bone table
type Skin struct {
	name     string
	bones    []Bone
	vertices []Vertex

	strict    bool
	tolerance float64
}

// Option configures a Skin at construction
type Option func(*Skin)

// WithStrictWeights rejects vertices whose weights do not sum to 1 within tolerance
func WithStrictWeights(tolerance float64) Option {
	return func(s *Skin) {
		s.strict = true
		s.tolerance = tolerance
	}
}

// New validates the bone table and the vertices and builds a Skin.
// Both slices are copied.
func New(name string, bones []Bone, vertices []Vertex, options ...Option) (*Skin, error) {
	s := &Skin{name: name}
	for _, opt := range options {
		opt(s)
	}

	if len(bones) == 0 {
		return nil, errors.Wrapf(ErrNoBones, "skin %q", name)
	}
	for i, bone := range bones {
		if bone.Node == nil {
			return nil, errors.Errorf("skin %q: bone %d has no node", name, i)
		}
	}

	for i, v := range vertices {
		sum := 0.0
		for k := 0; k < MaxInfluences; k++ {
			if v.Bones[k] < 0 || v.Bones[k] >= len(bones) {
				return nil, errors.Wrapf(ErrBoneIndex, "skin %q: vertex %d slot %d references bone %d of %d", name, i, k, v.Bones[k], len(bones))
			}
			sum += v.Weights[k]
		}
		if s.strict && math.Abs(sum-1) > s.tolerance {
			return nil, errors.Wrapf(ErrWeightSum, "skin %q: vertex %d sums to %g", name, i, sum)
		}
	}

	s.bones = append([]Bone(nil), bones...)
	s.vertices = append([]Vertex(nil), vertices...)

	return s, nil
}

// Name identifies the skin; a Skin can be attached to a node as its Drawable
func (s *Skin) Name() string {
	return s.name
}

// Bones returns a copy of the bone table
func (s *Skin) Bones() []Bone {
	return append([]Bone(nil), s.bones...)
}

// Vertices returns a copy of the skinned vertices
func (s *Skin) Vertices() []Vertex {
	return append([]Vertex(nil), s.vertices...)
}

// Rest returns a copy of the rest positions
func (s *Skin) Rest() []mgl64.Vec3 {
	rest := make([]mgl64.Vec3, len(s.vertices))
	for i, v := range s.vertices {
		rest[i] = v.Position
	}

	return rest
}

// Len returns the number of vertices
func (s *Skin) Len() int {
	return len(s.vertices)
}

// BoneMatrices returns world(node[i])∘offset[i] for every bone
func (s *Skin) BoneMatrices(pose Pose) ([]mgl64.Mat4, error) {
	matrices := make([]mgl64.Mat4, len(s.bones))
	for i, bone := range s.bones {
		world, ok := pose.World(bone.Node)
		if !ok {
			return nil, errors.Wrapf(ErrUnresolvedBone, "skin %q: bone %d (%q)", s.name, i, bone.Node.Name)
		}
		matrices[i] = world.Mul4(bone.Offset)
	}

	return matrices, nil
}

// Deform returns a new buffer of deformed positions for the current pose
func (s *Skin) Deform(pose Pose) ([]mgl64.Vec3, error) {
	return s.DeformInto(nil, pose)
}

// DeformInto writes the deformed positions into dst, growing it when needed,
// and returns the filled slice
func (s *Skin) DeformInto(dst []mgl64.Vec3, pose Pose) ([]mgl64.Vec3, error) {
	matrices, err := s.BoneMatrices(pose)
	if err != nil {
		return nil, err
	}

	if cap(dst) < len(s.vertices) {
		dst = make([]mgl64.Vec3, len(s.vertices))
	}
	dst = dst[:len(s.vertices)]

	for i, v := range s.vertices {
		var p mgl64.Vec3
		for k := 0; k < MaxInfluences; k++ {
			w := v.Weights[k]
			if w == 0 {
				continue
			}
			p = p.Add(transform.Apply(matrices[v.Bones[k]], v.Position).Mul(w))
		}
		dst[i] = p
	}

	return dst, nil
}
