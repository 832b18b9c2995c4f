// Package gltfio reads and writes scene graphs and skinned meshes as glTF 2.0
// documents.
//
// Nodes are written with their local matrix sampled at a single time; keyframe
// tracks are not exported. Each skin becomes a mesh with POSITION, JOINTS_0
// and WEIGHTS_0 attributes drawn as points, attached to its own root node
// together with the joint list and the inverse bind matrices.
package gltfio

import (
	"io"
	"math"

	"github.com/akmonengine/grove/graph"
	"github.com/akmonengine/grove/skin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrUnknownBone is returned when a skin references a node outside the exported roots
var ErrUnknownBone = errors.New("gltfio: bone is not part of the exported scene")

// ErrTooManyBones is returned when a vertex references a bone JOINTS_0 cannot index
var ErrTooManyBones = errors.New("gltfio: bone index does not fit in JOINTS_0")

// Options controls Export
type Options struct {
	// Binary writes a .glb container instead of JSON with an embedded buffer
	Binary bool
	// Time at which animated nodes are sampled
	Time float64
}

// Export writes roots and skins to w as a single-scene glTF document
func Export(w io.Writer, roots []*graph.Node, skins []*skin.Skin, opts Options) error {
	doc := gltf.NewDocument()
	indices := make(map[*graph.Node]uint32)

	for _, root := range roots {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, exportNode(doc, indices, root, opts.Time))
	}

	for _, s := range skins {
		node, err := exportSkin(doc, indices, s)
		if err != nil {
			return err
		}
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, node)
	}

	if !opts.Binary {
		for _, buffer := range doc.Buffers {
			buffer.EmbeddedResource()
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = opts.Binary

	return errors.Wrap(encoder.Encode(doc), "gltfio: encode")
}

// exportNode appends the subtree in pre-order and returns the index of n
func exportNode(doc *gltf.Document, indices map[*graph.Node]uint32, n *graph.Node, t float64) uint32 {
	index := uint32(len(doc.Nodes))
	node := &gltf.Node{
		Name:     n.Name,
		Matrix:   toMatrix(n.LocalAt(t)),
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
	doc.Nodes = append(doc.Nodes, node)
	indices[n] = index

	for _, child := range n.Children() {
		node.Children = append(node.Children, exportNode(doc, indices, child, t))
	}

	return index
}

func exportSkin(doc *gltf.Document, indices map[*graph.Node]uint32, s *skin.Skin) (uint32, error) {
	bones := s.Bones()
	joints := make([]uint32, len(bones))
	inverseBind := make([][4][4]float32, len(bones))
	for i, bone := range bones {
		index, ok := indices[bone.Node]
		if !ok {
			return 0, errors.Wrapf(ErrUnknownBone, "skin %q: bone %d (%q)", s.Name(), i, bone.Node.Name)
		}
		joints[i] = index
		inverseBind[i] = toRows(bone.Offset)
	}

	vertices := s.Vertices()
	positions := make([][3]float32, len(vertices))
	jointIndices := make([][4]uint16, len(vertices))
	weights := make([][4]float32, len(vertices))
	for i, v := range vertices {
		positions[i] = [3]float32{float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2])}
		for k := 0; k < skin.MaxInfluences; k++ {
			if v.Bones[k] > math.MaxUint16 {
				return 0, errors.Wrapf(ErrTooManyBones, "skin %q: vertex %d bone %d", s.Name(), i, v.Bones[k])
			}
			jointIndices[i][k] = uint16(v.Bones[k])
			weights[i][k] = float32(v.Weights[k])
		}
	}

	attributes := map[string]uint32{
		"POSITION":  modeler.WritePosition(doc, positions),
		"JOINTS_0":  modeler.WriteJoints(doc, jointIndices),
		"WEIGHTS_0": modeler.WriteWeights(doc, weights),
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: s.Name(),
		Primitives: []*gltf.Primitive{
			{
				Attributes: attributes,
				Mode:       gltf.PrimitivePoints,
			},
		},
	})

	doc.Skins = append(doc.Skins, &gltf.Skin{
		Name:                s.Name(),
		Joints:              joints,
		InverseBindMatrices: gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, inverseBind)),
	})

	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:     s.Name(),
		Mesh:     gltf.Index(uint32(len(doc.Meshes) - 1)),
		Skin:     gltf.Index(uint32(len(doc.Skins) - 1)),
		Matrix:   toMatrix(mgl64.Ident4()),
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	})

	return uint32(len(doc.Nodes) - 1), nil
}

// toMatrix converts to the glTF column-major layout
func toMatrix(m mgl64.Mat4) [16]float32 {
	var out [16]float32
	for i := range m {
		out[i] = float32(m[i])
	}

	return out
}

// toRows indexes [row][col]; the accessor writer stores it column-major
func toRows(m mgl64.Mat4) [4][4]float32 {
	var out [4][4]float32
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out[row][col] = float32(m.At(row, col))
		}
	}

	return out
}
