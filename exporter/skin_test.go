package exporter

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/skaia3d/sceneforge/geom"
	"github.com/skaia3d/sceneforge/scene"
)

func skinArmature(names ...string) *scene.Armature {
	a := &scene.Armature{Name: "Rig"}
	for _, n := range names {
		a.Bones = append(a.Bones, &scene.Bone{Name: n, MatrixLocal: *geom.NewMatrix4()})
	}
	return a
}

func TestSkinWeightClamp(t *testing.T) {
	m := &scene.Mesh{
		Name:         "Skinned",
		VertexGroups: []string{"a", "b", "c", "d", "e"},
		Vertices: []*scene.Vertex{
			{Groups: []*scene.GroupWeight{
				{Group: 0, Weight: 0.4},
				{Group: 1, Weight: 0.3},
				{Group: 2, Weight: 0.2},
				{Group: 3, Weight: 0.06},
				{Group: 4, Weight: 0.04},
			}},
		},
	}
	arm := skinArmature("a", "b", "c", "d", "e")
	warned := 0
	skin := buildSkin(m, []int{0}, arm, *geom.NewMatrix4(),
		func(string) string { return "" }, func() { warned++ })

	if warned != 1 {
		t.Error("expected one clamp warning, got", warned)
	}
	if skin.BoneCountArray[0] != 4 {
		t.Fatal("expected 4 influences, got", skin.BoneCountArray[0])
	}
	want := []float32{0.4 / 0.96, 0.3 / 0.96, 0.2 / 0.96, 0.06 / 0.96}
	var sum float32
	for i, w := range skin.BoneWeightArray {
		if math32.Abs(w-want[i]) > 1e-6 {
			t.Error("weight", i, "=", w, "want", want[i])
		}
		sum += w
	}
	if math32.Abs(sum-1) > 1e-6 {
		t.Error("clamped weights should renormalize to 1, got", sum)
	}
	// The dropped influence is the smallest one.
	for _, bi := range skin.BoneIndexArray {
		if bi == 4 {
			t.Error("smallest weight should have been dropped")
		}
	}
}

func TestSkinSkeletonOrderAndNullRefs(t *testing.T) {
	m := &scene.Mesh{
		Name:         "Skinned",
		VertexGroups: []string{"b"},
		Vertices: []*scene.Vertex{
			{Groups: []*scene.GroupWeight{{Group: 0, Weight: 0.5}}},
		},
	}
	arm := skinArmature("a", "b", "c")
	refs := map[string]string{"b": "b"}
	skin := buildSkin(m, []int{0}, arm, *geom.NewMatrix4(),
		func(name string) string { return refs[name] }, nil)

	want := []string{"null", "b", "null"}
	for i, ref := range skin.Skeleton.BoneRefArray {
		if ref != want[i] {
			t.Error("bone ref", i, "=", ref, "want", want[i])
		}
	}
	if len(skin.Skeleton.Transforms) != 3 {
		t.Error("bind transforms must cover every bone slot")
	}
	// A single weight normalizes to 1 regardless of its raw value.
	if skin.BoneIndexArray[0] != 1 || math32.Abs(skin.BoneWeightArray[0]-1) > 1e-6 {
		t.Error("unexpected influence", skin.BoneIndexArray, skin.BoneWeightArray)
	}
}

func TestSkinUnmatchedGroupSkipped(t *testing.T) {
	m := &scene.Mesh{
		Name:         "Skinned",
		VertexGroups: []string{"a", "helper"},
		Vertices: []*scene.Vertex{
			{Groups: []*scene.GroupWeight{
				{Group: 0, Weight: 0.5},
				{Group: 1, Weight: 0.5},
			}},
		},
	}
	arm := skinArmature("a")
	skin := buildSkin(m, []int{0}, arm, *geom.NewMatrix4(),
		func(string) string { return "" }, nil)
	if skin.BoneCountArray[0] != 1 {
		t.Fatal("group without a bone must not contribute")
	}
	if math32.Abs(skin.BoneWeightArray[0]-1) > 1e-6 {
		t.Error("remaining weight should normalize to 1, got", skin.BoneWeightArray[0])
	}
}

func TestSkinBindTransform(t *testing.T) {
	arm := skinArmature("a")
	arm.Bones[0].MatrixLocal = *geom.NewTranslateMatrix4(1, 2, 3)
	armWorld := geom.NewTranslateMatrix4(10, 0, 0)
	m := &scene.Mesh{
		Name:         "Skinned",
		VertexGroups: []string{"a"},
		Vertices:     []*scene.Vertex{{}},
	}
	skin := buildSkin(m, []int{0}, arm, *armWorld,
		func(string) string { return "" }, nil)
	bind := geom.NewMatrix4FromSlice(skin.Skeleton.Transforms[0])
	tr := bind.Translation()
	if tr.X != 11 || tr.Y != 2 || tr.Z != 3 {
		t.Error("bind should compose armature world with bone rest, got", tr)
	}
}
