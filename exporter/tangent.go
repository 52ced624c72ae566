package exporter

import (
	"github.com/chewxy/math32"

	"github.com/skaia3d/sceneforge/asset"
)

func findArray(data *asset.MeshData, attrib string) []float32 {
	for _, va := range data.VertexArrays {
		if va.Attrib == attrib {
			return va.Values
		}
	}
	return nil
}

// computeTangents derives per-vertex tangents from the first UV layer.
// Per-triangle tangents are accumulated into the shared vertices, then made
// orthogonal to the normal. Degenerate UV triangles contribute with r=1.
func computeTangents(data *asset.MeshData) []float32 {
	positions := findArray(data, "position")
	normals := findArray(data, "normal")
	uvs := findArray(data, "texcoord")
	nv := len(positions) / 3
	tangents := make([]float32, nv*3)

	for _, ia := range data.IndexArrays {
		for i := 0; i+2 < len(ia.Values); i += 3 {
			i0, i1, i2 := ia.Values[i], ia.Values[i+1], ia.Values[i+2]

			e1 := [3]float32{
				positions[i1*3] - positions[i0*3],
				positions[i1*3+1] - positions[i0*3+1],
				positions[i1*3+2] - positions[i0*3+2],
			}
			e2 := [3]float32{
				positions[i2*3] - positions[i0*3],
				positions[i2*3+1] - positions[i0*3+1],
				positions[i2*3+2] - positions[i0*3+2],
			}
			s1 := uvs[i1*2] - uvs[i0*2]
			t1 := uvs[i1*2+1] - uvs[i0*2+1]
			s2 := uvs[i2*2] - uvs[i0*2]
			t2 := uvs[i2*2+1] - uvs[i0*2+1]

			det := s1*t2 - s2*t1
			r := float32(1)
			if det != 0 {
				r = 1 / det
			}
			tx := (t2*e1[0] - t1*e2[0]) * r
			ty := (t2*e1[1] - t1*e2[1]) * r
			tz := (t2*e1[2] - t1*e2[2]) * r

			for _, vi := range [3]int{i0, i1, i2} {
				tangents[vi*3] += tx
				tangents[vi*3+1] += ty
				tangents[vi*3+2] += tz
			}
		}
	}

	// Gram-Schmidt against the vertex normal, then normalize. A zero
	// tangent (unmapped or mirrored seams cancelling out) stays zero.
	for v := 0; v < nv; v++ {
		nx, ny, nz := normals[v*3], normals[v*3+1], normals[v*3+2]
		tx, ty, tz := tangents[v*3], tangents[v*3+1], tangents[v*3+2]
		d := nx*tx + ny*ty + nz*tz
		tx -= nx * d
		ty -= ny * d
		tz -= nz * d
		l := math32.Sqrt(tx*tx + ty*ty + tz*tz)
		if l > 0 {
			tx, ty, tz = tx/l, ty/l, tz/l
		}
		tangents[v*3], tangents[v*3+1], tangents[v*3+2] = tx, ty, tz
	}
	return tangents
}
