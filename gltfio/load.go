package gltfio

import (
	"io"

	"github.com/akmonengine/grove/graph"
	"github.com/akmonengine/grove/skin"
	"github.com/akmonengine/grove/transform"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Scene is the content of a glTF document
type Scene struct {
	// Roots of the default scene, skinned mesh nodes excluded
	Roots []*graph.Node
	Skins []*skin.Skin
	// Nodes indexed like the document nodes
	Nodes []*graph.Node
}

// Load decodes a glTF or glb document from r
func Load(r io.Reader) (*Scene, error) {
	doc := &gltf.Document{}
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "gltfio: failed to read gltf")
	}

	scene := &Scene{Nodes: make([]*graph.Node, len(doc.Nodes))}
	for i, node := range doc.Nodes {
		scene.Nodes[i] = graph.NewNode(localMatrix(node), graph.WithName(node.Name))
	}
	for i, node := range doc.Nodes {
		for _, c := range node.Children {
			if int(c) >= len(scene.Nodes) {
				return nil, errors.Errorf("gltfio: node %d has unknown child %d", i, c)
			}
			if err := scene.Nodes[i].Add(scene.Nodes[c]); err != nil {
				return nil, errors.Wrapf(err, "gltfio: node %d", i)
			}
		}
	}

	skinned := make(map[int]bool)
	for i, node := range doc.Nodes {
		if node.Skin == nil || node.Mesh == nil {
			continue
		}
		s, err := loadSkin(doc, scene.Nodes, node)
		if err != nil {
			return nil, errors.Wrapf(err, "gltfio: node %d (%q)", i, node.Name)
		}
		scene.Skins = append(scene.Skins, s)
		skinned[i] = true
	}

	for _, i := range rootIndices(doc) {
		if skinned[int(i)] || int(i) >= len(scene.Nodes) {
			continue
		}
		scene.Roots = append(scene.Roots, scene.Nodes[i])
	}

	return scene, nil
}

// rootIndices returns the nodes of the default scene, or every parentless node
// when the document has no scene
func rootIndices(doc *gltf.Document) []uint32 {
	if len(doc.Scenes) > 0 {
		scene := doc.Scenes[0]
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			scene = doc.Scenes[*doc.Scene]
		}
		return scene.Nodes
	}

	hasParent := make([]bool, len(doc.Nodes))
	for _, node := range doc.Nodes {
		for _, c := range node.Children {
			if int(c) < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, uint32(i))
		}
	}

	return roots
}

// localMatrix prefers the node matrix and falls back to its TRS properties
func localMatrix(node *gltf.Node) mgl64.Mat4 {
	var m mgl64.Mat4
	for i, v := range node.Matrix {
		m[i] = float64(v)
	}
	if m != (mgl64.Mat4{}) && m != mgl64.Ident4() {
		return m
	}

	t := transform.NewTransform()
	t.Position = mgl64.Vec3{float64(node.Translation[0]), float64(node.Translation[1]), float64(node.Translation[2])}
	if node.Rotation != ([4]float32{}) {
		t.Rotation = mgl64.Quat{
			W: float64(node.Rotation[3]),
			V: mgl64.Vec3{float64(node.Rotation[0]), float64(node.Rotation[1]), float64(node.Rotation[2])},
		}
	}
	if node.Scale != ([3]float32{}) {
		t.Scale = mgl64.Vec3{float64(node.Scale[0]), float64(node.Scale[1]), float64(node.Scale[2])}
	}

	return t.Matrix()
}

func loadSkin(doc *gltf.Document, nodes []*graph.Node, node *gltf.Node) (*skin.Skin, error) {
	if int(*node.Skin) >= len(doc.Skins) || int(*node.Mesh) >= len(doc.Meshes) {
		return nil, errors.New("skin or mesh index out of range")
	}
	gs := doc.Skins[*node.Skin]
	mesh := doc.Meshes[*node.Mesh]
	if len(mesh.Primitives) == 0 {
		return nil, errors.Errorf("mesh %q has no primitive", mesh.Name)
	}

	offsets, err := inverseBindMatrices(doc, gs)
	if err != nil {
		return nil, err
	}
	bones := make([]skin.Bone, len(gs.Joints))
	for i, joint := range gs.Joints {
		if int(joint) >= len(nodes) {
			return nil, errors.Errorf("joint %d references unknown node %d", i, joint)
		}
		bones[i] = skin.Bone{Node: nodes[joint], Offset: offsets[i]}
	}

	primitive := mesh.Primitives[0]
	positions, err := readAttribute(doc, primitive, "POSITION", func(acr *gltf.Accessor) ([][3]float32, error) {
		return modeler.ReadPosition(doc, acr, nil)
	})
	if err != nil {
		return nil, err
	}
	joints, err := readAttribute(doc, primitive, "JOINTS_0", func(acr *gltf.Accessor) ([][4]uint16, error) {
		return modeler.ReadJoints(doc, acr, nil)
	})
	if err != nil {
		return nil, err
	}
	weights, err := readAttribute(doc, primitive, "WEIGHTS_0", func(acr *gltf.Accessor) ([][4]float32, error) {
		return modeler.ReadWeights(doc, acr, nil)
	})
	if err != nil {
		return nil, err
	}
	if len(joints) != len(positions) || len(weights) != len(positions) {
		return nil, errors.Errorf("mesh %q: %d positions, %d joints, %d weights", mesh.Name, len(positions), len(joints), len(weights))
	}

	vertices := make([]skin.Vertex, len(positions))
	for i, p := range positions {
		vertices[i].Position = mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
		for k := 0; k < skin.MaxInfluences; k++ {
			vertices[i].Bones[k] = int(joints[i][k])
			vertices[i].Weights[k] = float64(weights[i][k])
		}
	}

	name := mesh.Name
	if name == "" {
		name = node.Name
	}

	return skin.New(name, bones, vertices)
}

func readAttribute[T any](doc *gltf.Document, primitive *gltf.Primitive, name string, read func(*gltf.Accessor) (T, error)) (T, error) {
	var zero T
	index, ok := primitive.Attributes[name]
	if !ok || int(index) >= len(doc.Accessors) {
		return zero, errors.Errorf("missing %s attribute", name)
	}
	data, err := read(doc.Accessors[index])
	if err != nil {
		return zero, errors.Wrapf(err, "failed to read %s", name)
	}

	return data, nil
}

// inverseBindMatrices reads the skin accessor, or identities when the skin
// has none
func inverseBindMatrices(doc *gltf.Document, gs *gltf.Skin) ([]mgl64.Mat4, error) {
	out := make([]mgl64.Mat4, len(gs.Joints))
	if gs.InverseBindMatrices == nil {
		for i := range out {
			out[i] = mgl64.Ident4()
		}
		return out, nil
	}
	if int(*gs.InverseBindMatrices) >= len(doc.Accessors) {
		return nil, errors.New("inverse bind matrices accessor out of range")
	}
	accessor := doc.Accessors[*gs.InverseBindMatrices]
	if accessor.Type != gltf.AccessorMat4 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, errors.Errorf("inverse bind matrices must be float mat4, got %s %s", accessor.ComponentType, accessor.Type)
	}
	if int(accessor.Count) < len(gs.Joints) {
		return nil, errors.Errorf("%d inverse bind matrices for %d joints", accessor.Count, len(gs.Joints))
	}

	data, err := modeler.ReadAccessor(doc, accessor, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read inverse bind matrices")
	}
	matrices, ok := data.([][4][4]float32)
	if !ok {
		return nil, errors.Errorf("inverse bind matrices decoded as %T", data)
	}

	for i := range out {
		out[i] = fromRows(matrices[i])
	}

	return out, nil
}

// fromRows is the inverse of toRows
func fromRows(v [4][4]float32) mgl64.Mat4 {
	var m mgl64.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m.Set(row, col, float64(v[row][col]))
		}
	}

	return m
}
