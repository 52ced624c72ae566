package exporter

import (
	"sort"

	"github.com/skaia3d/sceneforge/asset"
	"github.com/skaia3d/sceneforge/geom"
	"github.com/skaia3d/sceneforge/scene"
)

// maxWeightsPerVertex is the influence cap a vertex is clamped to.
const maxWeightsPerVertex = 4

type boneWeight struct {
	bone   int
	weight float32
}

// buildSkin packs the skinning block for one mesh. boneRef resolves a bone
// name to its exported node name, returning "" when the bone has no node;
// warn is invoked at most once when any vertex exceeds the influence cap.
func buildSkin(m *scene.Mesh, sources []int, arm *scene.Armature,
	armWorld geom.Matrix4, boneRef func(string) string, warn func()) *asset.Skin {

	skin := &asset.Skin{
		Transform: &asset.Transform{Values: matrixValues(&armWorld)},
		Skeleton:  &asset.Skeleton{},
	}

	// Skeleton order is the armature's bone order; missing nodes keep
	// their slot with a "null" sentinel so indices stay stable.
	for _, b := range arm.Bones {
		ref := boneRef(b.Name)
		if ref == "" {
			ref = "null"
		}
		skin.Skeleton.BoneRefArray = append(skin.Skeleton.BoneRefArray, ref)
		bind := armWorld.Mul(&b.MatrixLocal)
		skin.Skeleton.Transforms = append(skin.Skeleton.Transforms, matrixValues(bind))
	}

	// Vertex groups resolve to bone indices by name; unmatched groups are
	// skipped, their weights never enter the totals.
	remap := make([]int, len(m.VertexGroups))
	for i, g := range m.VertexGroups {
		remap[i] = arm.BoneIndex(g)
	}

	warned := false
	for _, src := range sources {
		v := m.Vertices[src]
		var ws []boneWeight
		for _, gw := range v.Groups {
			if gw.Group < 0 || gw.Group >= len(remap) {
				continue
			}
			bi := remap[gw.Group]
			if bi < 0 || gw.Weight <= 0 {
				continue
			}
			ws = append(ws, boneWeight{bi, gw.Weight})
		}

		var total float32
		for _, w := range ws {
			total += w.weight
		}

		if len(ws) > maxWeightsPerVertex {
			if !warned {
				warned = true
				if warn != nil {
					warn()
				}
			}
			sort.SliceStable(ws, func(i, j int) bool {
				return ws[i].weight > ws[j].weight
			})
			ws = ws[:maxWeightsPerVertex]
		}

		normalizer := float32(0)
		if total > 0 {
			normalizer = 1 / total
			var retained float32
			for _, w := range ws {
				retained += w.weight
			}
			if retained != total && retained > 0 {
				normalizer *= total / retained
			}
		}

		skin.BoneCountArray = append(skin.BoneCountArray, len(ws))
		for _, w := range ws {
			skin.BoneIndexArray = append(skin.BoneIndexArray, w.bone)
			skin.BoneWeightArray = append(skin.BoneWeightArray, w.weight*normalizer)
		}
	}
	return skin
}
