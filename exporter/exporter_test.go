package exporter

import (
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/skaia3d/sceneforge/asset"
	"github.com/skaia3d/sceneforge/geom"
	"github.com/skaia3d/sceneforge/scene"
)

func testScene() *scene.Scene {
	s := &scene.Scene{
		Name:       "Main",
		FrameStart: 1,
		FrameEnd:   250,
		FPS:        25,
		Gravity:    [3]float32{0, 0, -9.81},
		CameraName: "Camera",
		Objects: []*scene.Object{
			{Name: "Camera", Kind: scene.KindCamera, DataRef: "Camera",
				MatrixLocal: *geom.NewMatrix4(), MatrixWorld: *geom.NewMatrix4(),
				Scale: [3]float32{1, 1, 1}, RotationMode: "XYZ"},
			{Name: "Sun", Kind: scene.KindLamp, DataRef: "Sun",
				MatrixLocal: *geom.NewMatrix4(), MatrixWorld: *geom.NewMatrix4(),
				Scale: [3]float32{1, 1, 1}, RotationMode: "XYZ"},
			{Name: "Cube", Kind: scene.KindMesh, DataRef: "Cube",
				MaterialSlots: []string{"Mat"},
				MatrixLocal:   *geom.NewMatrix4(), MatrixWorld: *geom.NewMatrix4(),
				Scale: [3]float32{1, 1, 1}, RotationMode: "XYZ",
				Dimensions: [3]float32{2, 2, 2}},
			{Name: "CubeChild", Kind: scene.KindEmpty, Parent: "Cube",
				MatrixLocal: *geom.NewMatrix4(), MatrixWorld: *geom.NewMatrix4(),
				Scale: [3]float32{1, 1, 1}, RotationMode: "XYZ"},
		},
		Meshes: []*scene.Mesh{
			{
				Name: "Cube",
				Vertices: []*scene.Vertex{
					{Position: [3]float32{0, 0, 0}},
					{Position: [3]float32{1, 0, 0}},
					{Position: [3]float32{1, 1, 0}},
					{Position: [3]float32{0, 1, 0}},
				},
				Faces: []*scene.Face{
					{Vertices: []int{0, 1, 2, 3}, Normal: [3]float32{0, 0, 1}},
				},
				EdgeCount: 4,
			},
		},
		Lamps:   []*scene.Lamp{{Name: "Sun", Kind: "sun", Strength: 1}},
		Cameras: []*scene.Camera{{Name: "Camera", Kind: "perspective", FOV: 0.85}},
		Materials: []*scene.Material{
			{Name: "Mat", ExportUVs: false},
		},
	}
	s.Init()
	return s
}

func newTestExporter(cfg *Config) *Exporter {
	return New(cfg, nil, nil, nil)
}

func TestExportDocument(t *testing.T) {
	e := newTestExporter(&Config{MaxBones: 50})
	doc, err := e.Export(testScene(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "Main" || doc.CameraRef != "Camera" {
		t.Error("scene header wrong:", doc.Name, doc.CameraRef)
	}
	if doc.Gravity[2] != -9.81 {
		t.Error("gravity not carried over")
	}
	if len(doc.Objects) != 3 {
		t.Fatal("expected 3 root objects, got", len(doc.Objects))
	}

	var cube *asset.Object
	for _, o := range doc.Objects {
		if o.Name == "Cube" {
			cube = o
		}
	}
	if cube == nil {
		t.Fatal("Cube not exported")
	}
	if cube.Type != "mesh_object" || cube.DataRef != "mesh_Cube" {
		t.Error("mesh object wrong:", cube.Type, cube.DataRef)
	}
	if len(cube.MaterialRefs) != 1 || cube.MaterialRefs[0] != "Mat" {
		t.Error("material refs wrong:", cube.MaterialRefs)
	}
	if len(cube.Children) != 1 || cube.Children[0].Name != "CubeChild" {
		t.Error("child not nested under parent")
	}
	if cube.Children[0].Type != "object" {
		t.Error("empty child type:", cube.Children[0].Type)
	}
	if cube.Traits == nil {
		t.Error("traits must always be present")
	}

	if len(doc.MeshDatas) != 1 || doc.MeshDatas[0].Name != "mesh_Cube" {
		t.Fatal("mesh data missing")
	}
	if len(doc.LampDatas) != 1 || len(doc.CameraDatas) != 1 {
		t.Error("lamp/camera datas missing")
	}
	if len(doc.MaterialDatas) != 1 || doc.MaterialDatas[0].Name != "Mat" {
		t.Error("material datas wrong")
	}
}

func TestExportMeshOnly(t *testing.T) {
	e := newTestExporter(&Config{MeshOnly: true, MaxBones: 50})
	doc, err := e.Export(testScene(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range doc.Objects {
		if o.Type != "mesh_object" {
			t.Error("non-mesh object exported in mesh-only mode:", o.Name)
		}
	}
	if len(doc.LampDatas) != 0 || len(doc.CameraDatas) != 0 {
		t.Error("data blocks exported in mesh-only mode")
	}
	if doc.CameraRef != "" {
		t.Error("camera ref set in mesh-only mode")
	}
}

func TestExportVisibilityFlags(t *testing.T) {
	s := testScene()
	s.Object("Sun").HideRender = true
	s.Object("Cube").NoSpawn = true
	e := newTestExporter(nil)
	doc, err := e.Export(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range doc.Objects {
		switch o.Name {
		case "Sun":
			if o.Visible == nil || *o.Visible {
				t.Error("hidden lamp should carry visible=false")
			}
		case "Cube":
			if o.Spawn == nil || *o.Spawn {
				t.Error("no-spawn object should carry spawn=false")
			}
		}
	}
}

func TestExportHiddenKept(t *testing.T) {
	s := testScene()
	s.Object("Sun").HideRender = true
	e := newTestExporter(&Config{ExportHideRender: true, MaxBones: 50})
	doc, err := e.Export(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range doc.Objects {
		if o.Name == "Sun" && o.Visible != nil {
			t.Error("hidden object stays visible when export_hide_render is on")
		}
	}
}

func TestExportDecalMaterial(t *testing.T) {
	s := testScene()
	s.Materials[0].Decal = true
	s.Init()
	e := newTestExporter(nil)
	doc, err := e.Export(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range doc.Objects {
		if o.Name == "Cube" && o.Type != "decal_object" {
			t.Error("decal material should retype the object, got", o.Type)
		}
	}
}

func TestExportDefaultMaterial(t *testing.T) {
	s := testScene()
	s.Object("Cube").MaterialSlots = nil
	e := newTestExporter(nil)
	doc, err := e.Export(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	var cube *asset.Object
	for _, o := range doc.Objects {
		if o.Name == "Cube" {
			cube = o
		}
	}
	if len(cube.MaterialRefs) != 1 || cube.MaterialRefs[0] != "default" {
		t.Error("empty slots should fall back to the default material")
	}
	found := false
	for _, m := range doc.MaterialDatas {
		if m.Name == "default" {
			found = true
		}
	}
	if !found {
		t.Error("default material data missing")
	}
}

func TestExportReentrancy(t *testing.T) {
	e := newTestExporter(nil)
	e.running = true
	if _, err := e.Export(testScene(), nil); err != ErrExportRunning {
		t.Error("expected ErrExportRunning, got", err)
	}
	e.running = false
	if _, err := e.Export(testScene(), nil); err != nil {
		t.Error("export after release should succeed:", err)
	}
}

func TestExportInstancedChildren(t *testing.T) {
	s := testScene()
	s.Object("Cube").InstancedChildren = true
	s.Object("CubeChild").Location = [3]float32{3, 0, 0}
	e := newTestExporter(nil)
	doc, err := e.Export(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range doc.Objects {
		if o.Name == "Cube" && len(o.Children) != 0 {
			t.Error("instanced children must not be walked")
		}
	}
	if len(doc.MeshDatas[0].InstanceOffsets) != 3 || doc.MeshDatas[0].InstanceOffsets[0] != 3 {
		t.Error("instance offsets missing:", doc.MeshDatas[0].InstanceOffsets)
	}
}

func TestExportMissingMeshSkipped(t *testing.T) {
	s := testScene()
	s.Objects = append(s.Objects, &scene.Object{
		Name: "Ghost", Kind: scene.KindMesh, DataRef: "NoSuchMesh",
		MatrixLocal: *geom.NewMatrix4(), MatrixWorld: *geom.NewMatrix4(),
		Scale: [3]float32{1, 1, 1}, RotationMode: "XYZ",
	})
	s.Init()

	core, logs := observer.New(zap.WarnLevel)
	e := New(nil, zap.New(core).Sugar(), nil, nil)
	doc, err := e.Export(s, nil)
	if err != nil {
		t.Fatal("export must continue past a missing mesh:", err)
	}
	for _, o := range doc.Objects {
		if o.Name == "Ghost" {
			t.Error("object with missing mesh data must not be exported")
		}
	}
	if len(doc.Objects) != 3 {
		t.Error("siblings must still export, got", len(doc.Objects))
	}
	if len(doc.MeshDatas) != 1 || doc.MeshDatas[0].Name != "mesh_Cube" {
		t.Error("sibling mesh data missing")
	}
	if logs.FilterMessage("object not exported, mesh data missing").Len() != 1 {
		t.Error("missing mesh must be warned about")
	}
}

func TestExportMissingDataBlocksSkipped(t *testing.T) {
	s := testScene()
	s.Object("Sun").DataRef = "Moon"
	s.Object("Camera").DataRef = "Drone"

	core, logs := observer.New(zap.WarnLevel)
	e := New(nil, zap.New(core).Sugar(), nil, nil)
	doc, err := e.Export(s, nil)
	if err != nil {
		t.Fatal("export must continue past missing data blocks:", err)
	}
	if len(doc.LampDatas) != 0 || len(doc.CameraDatas) != 0 {
		t.Error("unresolved data refs must not produce data blocks")
	}
	if logs.FilterMessage("lamp data missing, not exported").Len() != 1 ||
		logs.FilterMessage("camera data missing, not exported").Len() != 1 {
		t.Error("missing data blocks must be warned about")
	}
}

func TestExportUVLayerLimitWarned(t *testing.T) {
	s := testScene()
	s.Meshes[0].UVLayerCount = 3
	s.Materials[0].ExportUVs = true

	core, logs := observer.New(zap.WarnLevel)
	e := New(nil, zap.New(core).Sugar(), nil, nil)
	doc, err := e.Export(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if logs.FilterMessage("uv layer count exceeds limit").Len() != 1 {
		t.Error("clamped uv layers must be warned about once")
	}
	md := doc.MeshDatas[0]
	if findArray(md, "texcoord") == nil || findArray(md, "texcoord1") == nil {
		t.Error("first two uv layers must still export")
	}
}

func TestExportStaticSampledTrackSkipped(t *testing.T) {
	s := testScene()
	cube := s.Object("Cube")
	cube.Action = &scene.Action{
		Name: "Hold",
		Curves: []*scene.Curve{{
			DataPath: "location", ArrayIndex: 0,
			Keyframes: []*scene.Keyframe{
				{Co: [2]float32{1, 2}, Interpolation: "CONSTANT"},
				{Co: [2]float32{250, 2}, Interpolation: "CONSTANT"},
			},
		}},
	}
	e := newTestExporter(nil)
	doc, err := e.Export(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range doc.Objects {
		if o.Name != "Cube" {
			continue
		}
		if o.Animation != nil {
			t.Error("static target must not emit a sampled track")
		}
		if o.Transform.Target != "" {
			t.Error("static target must not be animation-driven")
		}
	}

	// The same action with actual movement emits the track.
	cube.Samples = []*scene.FrameSample{
		{Frame: 1, Matrix: *geom.NewMatrix4()},
		{Frame: 100, Matrix: *geom.NewTranslateMatrix4(2, 0, 0)},
	}
	doc, err = e.Export(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range doc.Objects {
		if o.Name == "Cube" && o.Animation == nil {
			t.Error("moving target must emit its sampled track")
		}
	}
}

func TestExportStaticBoneTrackSkipped(t *testing.T) {
	dir := t.TempDir()
	store := asset.NewStore(dir, false)
	s := skinnedScene()
	s.Object("Rig").Action = &scene.Action{
		Name: "Idle",
		Curves: []*scene.Curve{{
			DataPath: `pose.bones["tip"].location`, ArrayIndex: 2,
			Keyframes: []*scene.Keyframe{
				{Co: [2]float32{1, 1}, Interpolation: "CONSTANT"},
				{Co: [2]float32{250, 1}, Interpolation: "CONSTANT"},
			},
		}},
	}
	e := newTestExporter(nil)
	if _, err := e.Export(s, store); err != nil {
		t.Fatal(err)
	}
	bones, err := asset.Load(store.ScenePath("bones_Rig_Idle"))
	if err != nil {
		t.Fatal(err)
	}
	var tip *asset.Object
	for _, c := range bones.Objects[0].Children {
		if c.Name == "tip" {
			tip = c
		}
	}
	if tip == nil {
		t.Fatal("tip bone missing")
	}
	if tip.Animation != nil {
		t.Error("bone whose pose never changes must not emit a sampled track")
	}
}

func skinnedScene() *scene.Scene {
	s := testScene()
	s.Objects = append(s.Objects,
		&scene.Object{Name: "Rig", Kind: scene.KindArmature, DataRef: "Rig",
			MatrixLocal: *geom.NewMatrix4(), MatrixWorld: *geom.NewMatrix4(),
			Scale: [3]float32{1, 1, 1}, RotationMode: "XYZ",
			Pose: map[string]geom.Matrix4{
				"root": *geom.NewMatrix4(),
				"tip":  *geom.NewTranslateMatrix4(0, 0, 1),
			}},
		&scene.Object{Name: "Body", Kind: scene.KindMesh, DataRef: "Body",
			Parent: "Rig", ArmatureRef: "Rig",
			MatrixLocal: *geom.NewMatrix4(), MatrixWorld: *geom.NewMatrix4(),
			Scale: [3]float32{1, 1, 1}, RotationMode: "XYZ"},
		&scene.Object{Name: "Sword", Kind: scene.KindEmpty,
			Parent: "Rig", ParentBone: "tip",
			MatrixLocal: *geom.NewMatrix4(), MatrixWorld: *geom.NewMatrix4(),
			Scale: [3]float32{1, 1, 1}, RotationMode: "XYZ"})
	s.Meshes = append(s.Meshes, &scene.Mesh{
		Name:         "Body",
		VertexGroups: []string{"root", "tip"},
		Vertices: []*scene.Vertex{
			{Position: [3]float32{0, 0, 0},
				Groups: []*scene.GroupWeight{{Group: 0, Weight: 1}}},
			{Position: [3]float32{1, 0, 0},
				Groups: []*scene.GroupWeight{{Group: 0, Weight: 0.5}, {Group: 1, Weight: 0.5}}},
			{Position: [3]float32{0, 1, 0},
				Groups: []*scene.GroupWeight{{Group: 1, Weight: 1}}},
		},
		Faces: []*scene.Face{
			{Vertices: []int{0, 1, 2}, Normal: [3]float32{0, 0, 1}},
		},
		EdgeCount: 3,
	})
	s.Armatures = []*scene.Armature{
		{Name: "Rig", Bones: []*scene.Bone{
			{Name: "root", MatrixLocal: *geom.NewMatrix4()},
			{Name: "tip", Parent: "root", MatrixLocal: *geom.NewTranslateMatrix4(0, 0, 1)},
		}},
	}
	s.Init()
	return s
}

func TestExportSkinnedMesh(t *testing.T) {
	dir := t.TempDir()
	store := asset.NewStore(dir, false)
	e := newTestExporter(nil)
	doc, err := e.Export(skinnedScene(), store)
	if err != nil {
		t.Fatal(err)
	}

	var body *asset.MeshData
	for _, md := range doc.MeshDatas {
		if md.Name == "mesh_Body" {
			body = md
		}
	}
	if body == nil || body.Skin == nil {
		t.Fatal("skinned mesh should carry a skin block")
	}
	refs := body.Skin.Skeleton.BoneRefArray
	if len(refs) != 2 || refs[0] != "root" || refs[1] != "tip" {
		t.Error("skeleton refs wrong:", refs)
	}
	if len(body.Skin.BoneCountArray) != 3 {
		t.Error("one influence run per welded vertex, got", len(body.Skin.BoneCountArray))
	}

	var rig *asset.Object
	for _, o := range doc.Objects {
		if o.Name == "Rig" {
			rig = o
		}
	}
	if rig == nil {
		t.Fatal("armature object missing")
	}
	if rig.BonesRef != "bones_Rig_pose" {
		t.Error("bones ref wrong:", rig.BonesRef)
	}
	// Bone-parented objects leave the regular hierarchy.
	for _, c := range rig.Children {
		if c.Name == "Sword" {
			t.Error("bone-parented object must attach under its bone")
		}
	}

	bones, err := asset.Load(store.ScenePath("bones_Rig_pose"))
	if err != nil {
		t.Fatal("bone document missing:", err)
	}
	if len(bones.Objects) != 1 || bones.Objects[0].Name != "root" {
		t.Fatal("bone hierarchy wrong")
	}
	root := bones.Objects[0]
	if root.Type != "bone_object" {
		t.Error("bone node type:", root.Type)
	}
	var tip *asset.Object
	for _, c := range root.Children {
		if c.Name == "tip" {
			tip = c
		}
	}
	if tip == nil {
		t.Fatal("child bone missing")
	}
	found := false
	for _, c := range tip.Children {
		if c.Name == "Sword" {
			found = true
		}
	}
	if !found {
		t.Error("bone-parented object should be a child of its bone")
	}
}

func TestExportMeshPerFileCache(t *testing.T) {
	dir := t.TempDir()
	store := asset.NewStore(dir, false)
	cfg := &Config{MeshPerFile: true, CacheEnabled: true, MaxBones: 50}
	cache := NewExportCache()
	e := New(cfg, nil, nil, cache)

	s := testScene()
	doc, err := e.Export(s, store)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.MeshDatas) != 0 {
		t.Error("per-file meshes must not embed in the scene document")
	}
	if !store.HasMesh("Cube") {
		t.Fatal("mesh artifact not written")
	}
	info1, _ := os.Stat(store.MeshPath("Cube"))

	// Unchanged mesh with surviving artifact skips regeneration.
	if _, err := e.Export(s, store); err != nil {
		t.Fatal(err)
	}
	info2, _ := os.Stat(store.MeshPath("Cube"))
	if !info2.ModTime().Equal(info1.ModTime()) {
		t.Error("unchanged mesh was rewritten")
	}

	// A missing artifact forces regeneration despite a fresh cache entry.
	if err := os.Remove(store.MeshPath("Cube")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Export(s, store); err != nil {
		t.Fatal(err)
	}
	if !store.HasMesh("Cube") {
		t.Error("missing artifact should force re-export")
	}

	// A topology change invalidates the entry.
	s.Meshes[0].EdgeCount++
	if _, err := e.Export(s, store); err != nil {
		t.Fatal(err)
	}
	if !cache.Fresh("Cube", s.Meshes[0], e.layoutFor(s.Meshes[0], []*scene.Object{s.Object("Cube")})) {
		t.Error("cache entry should be updated after regeneration")
	}
}
