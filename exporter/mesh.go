package exporter

import (
	"math"

	"github.com/skaia3d/sceneforge/asset"
	"github.com/skaia3d/sceneforge/scene"
)

// VertexLayout selects the per-vertex attributes a mesh exports. It is
// derived from the materials assigned to the mesh's users, so two objects
// sharing mesh data agree on the layout.
type VertexLayout struct {
	UVLayers    int
	ColorLayers bool
	Tangents    bool
}

// rawVertex is one face corner before welding. Only the fields enabled by
// the layout take part in hashing and equality.
type rawVertex struct {
	pos    [3]float32
	normal [3]float32
	color  [3]float32
	uv0    [2]float32
	uv1    [2]float32
	src    int
}

const weldHashPrime = 21737

func (v *rawVertex) hash(layout VertexLayout) uint64 {
	var h uint64
	mix := func(f float32) {
		h = h*weldHashPrime + uint64(math.Float32bits(f))
	}
	mix(v.pos[0])
	mix(v.pos[1])
	mix(v.pos[2])
	mix(v.normal[0])
	mix(v.normal[1])
	mix(v.normal[2])
	if layout.ColorLayers {
		mix(v.color[0])
		mix(v.color[1])
		mix(v.color[2])
	}
	if layout.UVLayers > 0 {
		mix(v.uv0[0])
		mix(v.uv0[1])
	}
	if layout.UVLayers > 1 {
		mix(v.uv1[0])
		mix(v.uv1[1])
	}
	return h
}

// equals is exact bit comparison. Vertices that differ only in float sign of
// zero or NaN payload stay distinct on purpose.
func (v *rawVertex) equals(o *rawVertex, layout VertexLayout) bool {
	if v.pos != o.pos || v.normal != o.normal {
		return false
	}
	if layout.ColorLayers && v.color != o.color {
		return false
	}
	if layout.UVLayers > 0 && v.uv0 != o.uv0 {
		return false
	}
	if layout.UVLayers > 1 && v.uv1 != o.uv1 {
		return false
	}
	return true
}

// weldResult is the deduplicated geometry: unique vertices in first
// occurrence order plus the corner index table mapping every corner to its
// welded slot.
type weldResult struct {
	vertices   []rawVertex
	indexTable []int
}

// weld deduplicates the corner stream. Buckets are sized to the largest
// power of two not above corners/8 so average chains stay short without a
// resize pass.
func weld(corners []rawVertex, layout VertexLayout) *weldResult {
	bucketCount := 1
	for bucketCount*16 <= len(corners) {
		bucketCount *= 2
	}
	buckets := make([][]int, bucketCount)
	r := &weldResult{indexTable: make([]int, len(corners))}
	for i := range corners {
		c := &corners[i]
		b := c.hash(layout) & uint64(bucketCount-1)
		found := -1
		for _, vi := range buckets[b] {
			if r.vertices[vi].equals(c, layout) {
				found = vi
				break
			}
		}
		if found < 0 {
			found = len(r.vertices)
			r.vertices = append(r.vertices, *c)
			buckets[b] = append(buckets[b], found)
		}
		r.indexTable[i] = found
	}
	return r
}

// deindex expands a mesh into its corner stream. Face normals replace vertex
// normals on flat faces, and the V axis of both UV layers is flipped.
func deindex(m *scene.Mesh, layout VertexLayout) []rawVertex {
	corners := make([]rawVertex, 0, m.CornerCount())
	for _, f := range m.Faces {
		for ci, vi := range f.Vertices {
			v := m.Vertices[vi]
			rv := rawVertex{src: vi}
			rv.pos = [3]float32{v.Position[0], v.Position[1], v.Position[2]}
			if f.Smooth {
				rv.normal = [3]float32{v.Normal[0], v.Normal[1], v.Normal[2]}
			} else {
				rv.normal = [3]float32{f.Normal[0], f.Normal[1], f.Normal[2]}
			}
			if layout.ColorLayers && ci < len(f.Colors) {
				rv.color = f.Colors[ci]
			}
			if layout.UVLayers > 0 && ci < len(f.UV0) {
				rv.uv0 = [2]float32{f.UV0[ci][0], 1 - f.UV0[ci][1]}
			}
			if layout.UVLayers > 1 && ci < len(f.UV1) {
				rv.uv1 = [2]float32{f.UV1[ci][0], 1 - f.UV1[ci][1]}
			}
			corners = append(corners, rv)
		}
	}
	return corners
}

// triangulate emits welded triangle indices for one face whose corners start
// at base in the corner stream. Quads split along the 0-2 diagonal, larger
// polygons fan around the last corner.
func triangulate(f *scene.Face, base int, indexTable []int, out []int) []int {
	n := len(f.Vertices)
	switch {
	case n == 3:
		out = append(out, indexTable[base], indexTable[base+1], indexTable[base+2])
	case n == 4:
		out = append(out,
			indexTable[base], indexTable[base+1], indexTable[base+2],
			indexTable[base], indexTable[base+2], indexTable[base+3])
	case n > 4:
		for i := 0; i < n-2; i++ {
			out = append(out, indexTable[base+n-1], indexTable[base+i], indexTable[base+i+1])
		}
	}
	return out
}

// buildMeshData runs the full geometry pipeline for one mesh: de-index,
// weld, compute tangents, and pack the tagged arrays. The second result maps
// each welded vertex back to its source vertex, for skin weight lookup.
func buildMeshData(m *scene.Mesh, name string, layout VertexLayout) (*asset.MeshData, []int) {
	corners := deindex(m, layout)
	r := weld(corners, layout)

	data := &asset.MeshData{Name: name, DynamicUsage: m.DynamicUsage}

	// Index arrays, one per used material slot, preserving face order.
	byMat := map[int][]int{}
	var matOrder []int
	base := 0
	for _, f := range m.Faces {
		if _, ok := byMat[f.MaterialIndex]; !ok {
			matOrder = append(matOrder, f.MaterialIndex)
		}
		byMat[f.MaterialIndex] = triangulate(f, base, r.indexTable, byMat[f.MaterialIndex])
		base += len(f.Vertices)
	}
	for _, mi := range matOrder {
		data.IndexArrays = append(data.IndexArrays, &asset.IndexArray{
			Size: 3, Values: byMat[mi], Material: mi,
		})
	}

	nv := len(r.vertices)
	positions := make([]float32, 0, nv*3)
	normals := make([]float32, 0, nv*3)
	for i := range r.vertices {
		v := &r.vertices[i]
		positions = append(positions, v.pos[0], v.pos[1], v.pos[2])
		normals = append(normals, v.normal[0], v.normal[1], v.normal[2])
	}
	data.VertexArrays = append(data.VertexArrays,
		&asset.VertexArray{Attrib: "position", Size: 3, Values: positions},
		&asset.VertexArray{Attrib: "normal", Size: 3, Values: normals})

	if layout.UVLayers > 0 {
		uvs := make([]float32, 0, nv*2)
		for i := range r.vertices {
			uvs = append(uvs, r.vertices[i].uv0[0], r.vertices[i].uv0[1])
		}
		data.VertexArrays = append(data.VertexArrays,
			&asset.VertexArray{Attrib: "texcoord", Size: 2, Values: uvs})
	}
	if layout.UVLayers > 1 {
		uvs := make([]float32, 0, nv*2)
		for i := range r.vertices {
			uvs = append(uvs, r.vertices[i].uv1[0], r.vertices[i].uv1[1])
		}
		data.VertexArrays = append(data.VertexArrays,
			&asset.VertexArray{Attrib: "texcoord1", Size: 2, Values: uvs})
	}
	if layout.ColorLayers {
		cols := make([]float32, 0, nv*3)
		for i := range r.vertices {
			c := r.vertices[i].color
			cols = append(cols, c[0], c[1], c[2])
		}
		data.VertexArrays = append(data.VertexArrays,
			&asset.VertexArray{Attrib: "color", Size: 3, Values: cols})
	}
	if layout.Tangents && layout.UVLayers > 0 {
		data.VertexArrays = append(data.VertexArrays,
			&asset.VertexArray{Attrib: "tangent", Size: 3, Values: computeTangents(data)})
	}
	return data, r.weldedSources(corners)
}

// weldedSources maps each welded vertex back to the source vertex index of
// its first occurrence. Skinning weights are looked up through this table.
func (r *weldResult) weldedSources(corners []rawVertex) []int {
	src := make([]int, len(r.vertices))
	seen := make([]bool, len(r.vertices))
	for i, wi := range r.indexTable {
		if !seen[wi] {
			seen[wi] = true
			src[wi] = corners[i].src
		}
	}
	return src
}
