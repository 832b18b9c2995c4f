// Package scenefile builds scene graphs and skins from YAML descriptions.
//
//	nodes:
//	  - name: trunk
//	    transform:
//	      - translate: [0, 1, 0]
//	      - rotate: {axis: [0, 0, 1], angle: 30}
//	      - scale: [0.5]
//	    drawable: cylinder
//	    textures:
//	      - {slot: diffuse, texture: bark.png}
//	    children:
//	      - name: branch
//	        keyframes:
//	          translate: {0: [0, 0, 0], 2: [1, 0, 0]}
//	          rotate: {0: [0, 0, 0], 2: [90, 0, 0]}
//	          scale: {0: 1, 2: 0.5}
//	        loop: true
//	skins:
//	  - name: bark
//	    bones:
//	      - node: trunk
//	        offset:
//	          - translate: [0, -1, 0]
//	    vertices:
//	      - {position: [0, 1, 0], bones: [0], weights: [1]}
//
// Transform operations are composed left to right. Keyframe rotations are
// yaw, pitch, roll Euler angles in degrees; a missing channel rests at the
// identity. A drawable naming a skin of the file attaches that skin, any other
// name becomes a graph.Handle.
package scenefile

import (
	"bytes"
	"io"
	"os"

	"github.com/akmonengine/grove/graph"
	"github.com/akmonengine/grove/keyframe"
	"github.com/akmonengine/grove/skin"
	"github.com/akmonengine/grove/transform"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownNode is returned when a skin bone names a node that is not declared
	ErrUnknownNode = errors.New("scenefile: unknown node")
	// ErrDuplicateNode is returned when two nodes share a name
	ErrDuplicateNode = errors.New("scenefile: duplicate node name")
)

// Scene is the content of a scene file
type Scene struct {
	Roots []*graph.Node
	Skins []*skin.Skin
	// Nodes by name
	Nodes map[string]*graph.Node
}

type document struct {
	Nodes []nodeDesc `yaml:"nodes"`
	Skins []skinDesc `yaml:"skins"`
}

type nodeDesc struct {
	Name      string         `yaml:"name"`
	Transform []operation    `yaml:"transform"`
	Keyframes *keyframesDesc `yaml:"keyframes"`
	Drawable  string         `yaml:"drawable"`
	Textures  []textureDesc  `yaml:"textures"`
	Loop      bool           `yaml:"loop"`
	Children  []nodeDesc     `yaml:"children"`
}

type operation struct {
	Translate *[3]float64 `yaml:"translate"`
	Rotate    *rotation   `yaml:"rotate"`
	Scale     []float64   `yaml:"scale"`
}

type rotation struct {
	Axis  [3]float64 `yaml:"axis"`
	Angle float64    `yaml:"angle"`
}

type keyframesDesc struct {
	Translate map[float64][3]float64 `yaml:"translate"`
	Rotate    map[float64][3]float64 `yaml:"rotate"`
	Scale     map[float64]float64    `yaml:"scale"`
}

type textureDesc struct {
	Slot    string `yaml:"slot"`
	Texture string `yaml:"texture"`
}

type skinDesc struct {
	Name     string       `yaml:"name"`
	Strict   *float64     `yaml:"strict"`
	Bones    []boneDesc   `yaml:"bones"`
	Vertices []vertexDesc `yaml:"vertices"`
}

type boneDesc struct {
	Node   string      `yaml:"node"`
	Offset []operation `yaml:"offset"`
}

type vertexDesc struct {
	Position [3]float64 `yaml:"position"`
	Bones    []int      `yaml:"bones"`
	Weights  []float64  `yaml:"weights"`
}

// Load reads and parses the scene file at path
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "scenefile: failed to read %s", path)
	}

	scene, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	return scene, nil
}

// Parse builds a scene from a YAML document. Unknown fields are rejected.
func Parse(data []byte) (*Scene, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "scenefile: failed to unmarshal yaml")
	}

	b := &builder{
		scene:     &Scene{Nodes: make(map[string]*graph.Node)},
		drawables: make(map[*graph.Node]string),
	}
	for i := range doc.Nodes {
		root, err := b.node(&doc.Nodes[i])
		if err != nil {
			return nil, err
		}
		b.scene.Roots = append(b.scene.Roots, root)
	}

	skins := make(map[string]*skin.Skin, len(doc.Skins))
	for i := range doc.Skins {
		s, err := b.skin(&doc.Skins[i])
		if err != nil {
			return nil, err
		}
		skins[s.Name()] = s
		b.scene.Skins = append(b.scene.Skins, s)
	}

	for n, name := range b.drawables {
		if s, ok := skins[name]; ok {
			n.Drawable = s
		} else {
			n.Drawable = graph.Handle(name)
		}
	}

	return b.scene, nil
}

type builder struct {
	scene     *Scene
	drawables map[*graph.Node]string
}

func (b *builder) node(desc *nodeDesc) (*graph.Node, error) {
	if desc.Name != "" {
		if _, ok := b.scene.Nodes[desc.Name]; ok {
			return nil, errors.Wrapf(ErrDuplicateNode, "%q", desc.Name)
		}
	}

	options := []graph.Option{graph.WithName(desc.Name)}
	for _, tex := range desc.Textures {
		options = append(options, graph.WithTexture(tex.Slot, tex.Texture))
	}
	if desc.Loop {
		options = append(options, graph.WithLoop())
	}

	var n *graph.Node
	if desc.Keyframes != nil {
		if len(desc.Transform) > 0 {
			return nil, errors.Errorf("scenefile: node %q: transform and keyframes are exclusive", desc.Name)
		}
		kf, err := desc.Keyframes.build()
		if err != nil {
			return nil, errors.Wrapf(err, "scenefile: node %q", desc.Name)
		}
		n = graph.NewControlNode(kf, options...)
	} else {
		local, err := compose(desc.Transform)
		if err != nil {
			return nil, errors.Wrapf(err, "scenefile: node %q", desc.Name)
		}
		n = graph.NewNode(local, options...)
	}

	if desc.Name != "" {
		b.scene.Nodes[desc.Name] = n
	}
	if desc.Drawable != "" {
		b.drawables[n] = desc.Drawable
	}

	for i := range desc.Children {
		child, err := b.node(&desc.Children[i])
		if err != nil {
			return nil, err
		}
		if err := n.Add(child); err != nil {
			return nil, err
		}
	}

	return n, nil
}

func (b *builder) skin(desc *skinDesc) (*skin.Skin, error) {
	bones := make([]skin.Bone, len(desc.Bones))
	for i, bd := range desc.Bones {
		n, ok := b.scene.Nodes[bd.Node]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownNode, "skin %q: bone %d names %q", desc.Name, i, bd.Node)
		}
		offset, err := compose(bd.Offset)
		if err != nil {
			return nil, errors.Wrapf(err, "scenefile: skin %q: bone %d", desc.Name, i)
		}
		bones[i] = skin.Bone{Node: n, Offset: offset}
	}

	vertices := make([]skin.Vertex, len(desc.Vertices))
	for i, vd := range desc.Vertices {
		if len(vd.Bones) > skin.MaxInfluences || len(vd.Weights) != len(vd.Bones) {
			return nil, errors.Errorf("scenefile: skin %q: vertex %d has %d bones and %d weights, at most %d influences", desc.Name, i, len(vd.Bones), len(vd.Weights), skin.MaxInfluences)
		}
		vertices[i].Position = mgl64.Vec3(vd.Position)
		copy(vertices[i].Bones[:], vd.Bones)
		copy(vertices[i].Weights[:], vd.Weights)
	}

	var options []skin.Option
	if desc.Strict != nil {
		options = append(options, skin.WithStrictWeights(*desc.Strict))
	}

	return skin.New(desc.Name, bones, vertices, options...)
}

// compose multiplies the operations left to right
func compose(ops []operation) (mgl64.Mat4, error) {
	matrices := make([]mgl64.Mat4, len(ops))
	for i, op := range ops {
		set := 0
		if op.Translate != nil {
			set++
			matrices[i] = transform.TranslateVec(mgl64.Vec3(*op.Translate))
		}
		if op.Rotate != nil {
			set++
			if mgl64.Vec3(op.Rotate.Axis).Len() == 0 {
				return mgl64.Mat4{}, errors.Errorf("operation %d: rotation axis is zero", i)
			}
			matrices[i] = transform.Rotate(mgl64.Vec3(op.Rotate.Axis), op.Rotate.Angle)
		}
		if op.Scale != nil {
			set++
			switch len(op.Scale) {
			case 1:
				matrices[i] = transform.ScaleUniform(op.Scale[0])
			case 3:
				matrices[i] = transform.Scale(op.Scale[0], op.Scale[1], op.Scale[2])
			default:
				return mgl64.Mat4{}, errors.Errorf("operation %d: scale takes 1 or 3 factors, got %d", i, len(op.Scale))
			}
		}
		if set != 1 {
			return mgl64.Mat4{}, errors.Errorf("operation %d: expected exactly one of translate, rotate, scale", i)
		}
	}

	return transform.Compose(matrices...), nil
}

func (k *keyframesDesc) build() (*keyframe.Transform, error) {
	translate := make(map[float64]mgl64.Vec3, len(k.Translate))
	for t, v := range k.Translate {
		translate[t] = mgl64.Vec3(v)
	}
	if len(translate) == 0 {
		translate[0] = mgl64.Vec3{}
	}

	rotate := make(map[float64]mgl64.Quat, len(k.Rotate))
	for t, euler := range k.Rotate {
		rotate[t] = transform.QuaternionFromEuler(euler[0], euler[1], euler[2])
	}
	if len(rotate) == 0 {
		rotate[0] = transform.Quaternion()
	}

	scale := k.Scale
	if len(scale) == 0 {
		scale = map[float64]float64{0: 1}
	}

	return keyframe.NewTransformFromMaps(translate, rotate, scale)
}
