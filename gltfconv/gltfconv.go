// Package gltfconv converts exported scene documents to glTF 2.0 for
// previewing exports in standard viewers.
package gltfconv

import (
	"fmt"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/skaia3d/sceneforge/asset"
	"github.com/skaia3d/sceneforge/geom"
)

type Option struct {
	// SkipHidden drops objects marked invisible instead of converting them.
	SkipHidden bool
}

type docToGltf struct {
	*Option
	*gltf.Document
	meshIndex map[string]uint32
	skinIndex map[string]uint32
	matIndex  map[string]uint32
}

func NewConverter(options *Option) *docToGltf {
	if options == nil {
		options = &Option{}
	}
	return &docToGltf{
		Option:    options,
		Document:  gltf.NewDocument(),
		meshIndex: map[string]uint32{},
		skinIndex: map[string]uint32{},
		matIndex:  map[string]uint32{},
	}
}

// Convert builds a glTF document from a scene document. Meshes referenced by
// the objects must be embedded in the document.
func (c *docToGltf) Convert(doc *asset.Document) (*gltf.Document, error) {
	for _, mat := range doc.MaterialDatas {
		c.matIndex[mat.Name] = uint32(len(c.Document.Materials))
		c.Document.Materials = append(c.Document.Materials, &gltf.Material{
			Name:                 mat.Name,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{},
		})
	}

	byName := map[string]*asset.MeshData{}
	for _, md := range doc.MeshDatas {
		byName[md.Name] = md
	}

	for _, obj := range doc.Objects {
		idx, err := c.convertObject(obj, byName)
		if err != nil {
			return nil, err
		}
		if idx >= 0 {
			c.Scenes[0].Nodes = append(c.Scenes[0].Nodes, uint32(idx))
		}
	}
	return c.Document, nil
}

// convertObject returns the node index of the converted object, or -1 when
// it was skipped.
func (c *docToGltf) convertObject(obj *asset.Object, meshes map[string]*asset.MeshData) (int, error) {
	if c.SkipHidden && obj.Visible != nil && !*obj.Visible {
		return -1, nil
	}
	node := &gltf.Node{Name: obj.Name}
	if obj.Transform != nil && len(obj.Transform.Values) == 16 {
		// Stored matrices are row-major, glTF wants column-major.
		geom.NewMatrix4FromSlice(obj.Transform.Values).Transposed().ToArray(node.Matrix[:])
	}

	if obj.DataRef != "" && (obj.Type == "mesh_object" || obj.Type == "decal_object") {
		name := obj.DataRef
		if i := strings.IndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		md, ok := meshes[name]
		if !ok {
			return -1, fmt.Errorf("gltfconv: object %s references missing mesh %s", obj.Name, name)
		}
		mi, err := c.convertMesh(md, obj.MaterialRefs)
		if err != nil {
			return -1, err
		}
		node.Mesh = gltf.Index(mi)
		if md.Skin != nil {
			node.Skin = gltf.Index(c.convertSkin(md.Name, md.Skin))
		}
	}

	idx := len(c.Nodes)
	c.Nodes = append(c.Nodes, node)

	for _, child := range obj.Children {
		ci, err := c.convertObject(child, meshes)
		if err != nil {
			return -1, err
		}
		if ci >= 0 {
			node.Children = append(node.Children, uint32(ci))
		}
	}
	return idx, nil
}

func (c *docToGltf) convertMesh(md *asset.MeshData, materialRefs []string) (uint32, error) {
	if mi, ok := c.meshIndex[md.Name]; ok {
		return mi, nil
	}

	attributes := map[string]uint32{}
	var positions [][3]float32
	for _, va := range md.VertexArrays {
		switch va.Attrib {
		case "position":
			positions = groupVec3(va.Values)
			attributes["POSITION"] = modeler.WritePosition(c.Document, positions)
		case "normal":
			attributes["NORMAL"] = modeler.WriteNormal(c.Document, groupVec3(va.Values))
		case "texcoord":
			attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(c.Document, groupVec2(va.Values))
		case "texcoord1":
			attributes["TEXCOORD_1"] = modeler.WriteTextureCoord(c.Document, groupVec2(va.Values))
		case "tangent":
			attributes["TANGENT"] = modeler.WriteTangent(c.Document, padVec4(va.Values))
		}
	}
	if positions == nil {
		return 0, fmt.Errorf("gltfconv: mesh %s has no position array", md.Name)
	}

	if md.Skin != nil {
		joints, weights := flattenSkin(md.Skin, len(positions))
		attributes["JOINTS_0"] = modeler.WriteJoints(c.Document, joints)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(c.Document, weights)
	}

	mesh := &gltf.Mesh{Name: md.Name}
	for _, ia := range md.IndexArrays {
		indices := make([]uint32, len(ia.Values))
		for i, v := range ia.Values {
			indices[i] = uint32(v)
		}
		prim := &gltf.Primitive{
			Attributes: attributes,
			Indices:    gltf.Index(modeler.WriteIndices(c.Document, indices)),
		}
		if ia.Material >= 0 && ia.Material < len(materialRefs) {
			if mi, ok := c.matIndex[materialRefs[ia.Material]]; ok {
				prim.Material = gltf.Index(mi)
			}
		}
		mesh.Primitives = append(mesh.Primitives, prim)
	}

	mi := uint32(len(c.Document.Meshes))
	c.Document.Meshes = append(c.Document.Meshes, mesh)
	c.meshIndex[md.Name] = mi
	return mi, nil
}

// convertSkin adds one joint node per skeleton slot. Bind matrices become
// node transforms, their inverses the inverse bind accessor.
func (c *docToGltf) convertSkin(meshName string, skin *asset.Skin) uint32 {
	if si, ok := c.skinIndex[meshName]; ok {
		return si
	}
	var joints []uint32
	invmats := make([][4][4]float32, len(skin.Skeleton.BoneRefArray))
	for i, ref := range skin.Skeleton.BoneRefArray {
		node := &gltf.Node{Name: ref}
		if i < len(skin.Skeleton.Transforms) && len(skin.Skeleton.Transforms[i]) == 16 {
			bind := geom.NewMatrix4FromSlice(skin.Skeleton.Transforms[i])
			bind.Transposed().ToArray(node.Matrix[:])
			inv := bind.Inverse().Transposed()
			for r := 0; r < 4; r++ {
				for col := 0; col < 4; col++ {
					invmats[i][r][col] = inv[r*4+col]
				}
			}
		}
		joints = append(joints, uint32(len(c.Nodes)))
		c.Scenes[0].Nodes = append(c.Scenes[0].Nodes, uint32(len(c.Nodes)))
		c.Nodes = append(c.Nodes, node)
	}
	si := uint32(len(c.Skins))
	c.Skins = append(c.Skins, &gltf.Skin{
		Joints:              joints,
		InverseBindMatrices: gltf.Index(c.addMatrices(invmats)),
	})
	c.skinIndex[meshName] = si
	return si
}

func (c *docToGltf) addMatrices(mat [][4][4]float32) uint32 {
	a := make([][4]float32, len(mat)*4)
	for i, m := range mat {
		a[i*4+0] = m[0]
		a[i*4+1] = m[1]
		a[i*4+2] = m[2]
		a[i*4+3] = m[3]
	}
	acc := modeler.WriteTangent(c.Document, a)
	c.Accessors[acc].Type = gltf.AccessorMat4
	c.Accessors[acc].Count /= 4
	c.BufferViews[*c.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

// flattenSkin expands the variable-length influence runs to the fixed four
// slots glTF expects, dropping nothing since runs are already capped at four.
func flattenSkin(skin *asset.Skin, vertexCount int) ([][4]uint16, [][4]float32) {
	joints := make([][4]uint16, vertexCount)
	weights := make([][4]float32, vertexCount)
	pos := 0
	for v := 0; v < vertexCount && v < len(skin.BoneCountArray); v++ {
		n := skin.BoneCountArray[v]
		for i := 0; i < n && i < 4; i++ {
			joints[v][i] = uint16(skin.BoneIndexArray[pos+i])
			weights[v][i] = skin.BoneWeightArray[pos+i]
		}
		pos += n
	}
	return joints, weights
}

func groupVec3(values []float32) [][3]float32 {
	out := make([][3]float32, len(values)/3)
	for i := range out {
		out[i] = [3]float32{values[i*3], values[i*3+1], values[i*3+2]}
	}
	return out
}

func groupVec2(values []float32) [][2]float32 {
	out := make([][2]float32, len(values)/2)
	for i := range out {
		out[i] = [2]float32{values[i*2], values[i*2+1]}
	}
	return out
}

func padVec4(values []float32) [][4]float32 {
	out := make([][4]float32, len(values)/3)
	for i := range out {
		out[i] = [4]float32{values[i*3], values[i*3+1], values[i*3+2], 1}
	}
	return out
}
