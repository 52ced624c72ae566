package scene

// Mesh is the evaluated (modifier-applied) mesh topology for one data block.
type Mesh struct {
	Name string `yaml:"name" json:"name"`

	Vertices []*Vertex `yaml:"vertices" json:"vertices"`
	Faces    []*Face   `yaml:"faces" json:"faces"`

	EdgeCount int `yaml:"edge_count" json:"edge_count"`

	UVLayerCount    int `yaml:"uv_layer_count" json:"uv_layer_count"`
	ColorLayerCount int `yaml:"color_layer_count" json:"color_layer_count"`

	// VertexGroups maps group index to group (bone) name.
	VertexGroups []string `yaml:"vertex_groups" json:"vertex_groups"`

	// NonPolygonal marks data blocks (text, metaballs) whose topology cannot
	// be fingerprinted by vertex/edge counts; Dirty is their change flag.
	NonPolygonal bool `yaml:"non_polygonal" json:"non_polygonal"`
	Dirty        bool `yaml:"dirty" json:"dirty"`

	DynamicUsage bool `yaml:"dynamic_usage" json:"dynamic_usage"`
}

type Vertex struct {
	Position [3]float32     `yaml:"position" json:"position"`
	Normal   [3]float32     `yaml:"normal" json:"normal"`
	Groups   []*GroupWeight `yaml:"groups" json:"groups"`
}

type GroupWeight struct {
	Group  int     `yaml:"group" json:"group"`
	Weight float32 `yaml:"weight" json:"weight"`
}

// Face is one polygon. Per-corner attribute slices, when present, are
// parallel to Vertices.
type Face struct {
	Vertices      []int `yaml:"vertices" json:"vertices"`
	MaterialIndex int   `yaml:"material_index" json:"material_index"`

	// Smooth selects per-vertex shading normals; flat faces use Normal.
	Smooth bool       `yaml:"smooth" json:"smooth"`
	Normal [3]float32 `yaml:"normal" json:"normal"`

	UV0    [][2]float32 `yaml:"uv0" json:"uv0"`
	UV1    [][2]float32 `yaml:"uv1" json:"uv1"`
	Colors [][3]float32 `yaml:"colors" json:"colors"`
}

// CornerCount returns the number of face corners over the whole mesh.
func (m *Mesh) CornerCount() int {
	n := 0
	for _, f := range m.Faces {
		n += len(f.Vertices)
	}
	return n
}

// TriangleCount returns the triangle count after quad/n-gon splitting.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, f := range m.Faces {
		if len(f.Vertices) >= 3 {
			n += len(f.Vertices) - 2
		}
	}
	return n
}
