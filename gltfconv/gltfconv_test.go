package gltfconv

import (
	"testing"

	"github.com/skaia3d/sceneforge/asset"
)

func previewDoc() *asset.Document {
	return &asset.Document{
		Name: "Main",
		Objects: []*asset.Object{
			{Type: "mesh_object", Name: "Cube", DataRef: "mesh_Cube",
				MaterialRefs: []string{"Mat"},
				Transform:    &asset.Transform{Values: []float32{1, 0, 0, 3, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}},
				Children: []*asset.Object{
					{Type: "object", Name: "Child"},
				}},
		},
		MeshDatas: []*asset.MeshData{
			{
				Name: "mesh_Cube",
				VertexArrays: []*asset.VertexArray{
					{Attrib: "position", Size: 3, Values: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0}},
					{Attrib: "normal", Size: 3, Values: []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}},
				},
				IndexArrays: []*asset.IndexArray{
					{Size: 3, Values: []int{0, 1, 2}, Material: 0},
				},
			},
		},
		MaterialDatas: []*asset.MaterialData{{Name: "Mat"}},
	}
}

func TestConvert(t *testing.T) {
	doc, err := NewConverter(nil).Convert(previewDoc())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 2 {
		t.Fatal("expected 2 nodes, got", len(doc.Nodes))
	}
	if len(doc.Scenes[0].Nodes) != 1 {
		t.Error("only the root should be a scene node")
	}
	root := doc.Nodes[doc.Scenes[0].Nodes[0]]
	if root.Name != "Cube" || root.Mesh == nil {
		t.Error("root node wrong:", root.Name)
	}
	// Row-major translation lands in the column-major slot.
	if root.Matrix[12] != 3 {
		t.Error("matrix not transposed, got", root.Matrix)
	}
	if len(root.Children) != 1 || doc.Nodes[root.Children[0]].Name != "Child" {
		t.Error("child node missing")
	}
	mesh := doc.Meshes[*root.Mesh]
	if len(mesh.Primitives) != 1 {
		t.Fatal("expected one primitive")
	}
	prim := mesh.Primitives[0]
	if prim.Material == nil || doc.Materials[*prim.Material].Name != "Mat" {
		t.Error("material not bound")
	}
	if _, ok := prim.Attributes["POSITION"]; !ok {
		t.Error("position attribute missing")
	}
}

func TestConvertSkipHidden(t *testing.T) {
	src := previewDoc()
	src.Objects[0].Visible = asset.False()
	doc, err := NewConverter(&Option{SkipHidden: true}).Convert(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Scenes[0].Nodes) != 0 {
		t.Error("hidden object should be skipped")
	}
}

func TestConvertSharedMesh(t *testing.T) {
	src := previewDoc()
	src.Objects = append(src.Objects, &asset.Object{
		Type: "mesh_object", Name: "Cube2", DataRef: "mesh_Cube",
	})
	doc, err := NewConverter(nil).Convert(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Meshes) != 1 {
		t.Error("shared mesh data should convert once, got", len(doc.Meshes))
	}
}
