// Package exporter turns a scene snapshot into runtime documents: it welds
// mesh geometry, classifies animation curves, packs skins, walks the object
// hierarchy and assembles the output document, regenerating only data blocks
// the incremental cache reports as stale.
package exporter

import (
	"errors"

	"go.uber.org/zap"

	"github.com/skaia3d/sceneforge/asset"
	"github.com/skaia3d/sceneforge/geom"
	"github.com/skaia3d/sceneforge/scene"
)

type nodeKind int

const (
	nodeObject nodeKind = iota
	nodeBone
	nodeMesh
	nodeLamp
	nodeCamera
	nodeSpeaker
	nodeDecal
)

var structIdentifier = [...]string{
	"object", "bone_object", "mesh_object", "lamp_object",
	"camera_object", "speaker_object", "decal_object",
}

// ErrExportRunning is returned when Export is re-entered while a run is in
// progress.
var ErrExportRunning = errors.New("exporter: export already in progress")

// MaterialBuilder produces the material data blocks referenced by exported
// objects. Shader generation lives behind this interface; the export core
// only forwards the result.
type MaterialBuilder interface {
	Build(mat *scene.Material) (*asset.MaterialData, error)
}

// PlainMaterialBuilder emits a bare material block with an empty context
// list. It stands in when no shader pipeline is attached.
type PlainMaterialBuilder struct{}

func (PlainMaterialBuilder) Build(mat *scene.Material) (*asset.MaterialData, error) {
	return &asset.MaterialData{Name: mat.Name, Contexts: []map[string]any{}}, nil
}

// Names of the materials substituted for empty slots.
const (
	defaultMaterialName     = "default"
	defaultSkinMaterialName = "defaultskin"
)

type nodeRef struct {
	kind nodeKind
	name string
}

type Exporter struct {
	cfg       *Config
	log       *zap.SugaredLogger
	materials MaterialBuilder
	cache     *ExportCache

	// Sampler evaluates frame queries during matrix sampling. Defaults to
	// the snapshot sampler; host adapters may install a live one.
	Sampler scene.FrameSampler

	// per-run state
	scn       *scene.Scene
	out       *asset.Document
	nodeRefs  map[string]*nodeRef
	boneNodes map[string]map[string]bool

	// boneParents maps a bone name to the objects parented to it; those
	// objects are emitted under the bone node, not under their armature.
	boneParents map[string][]*scene.Object

	meshUsers map[string][]*scene.Object
	meshOrder []string
	lampUsed,
	cameraUsed,
	speakerUsed,
	materialUsed,
	particleUsed *nameSet

	boneDocs        map[string]*asset.Document
	defaultUsed     bool
	defaultSkinUsed bool
	cameraSpawned   bool
	running         bool

	begin, end int
	frameTime  float32
}

// nameSet is an insertion-ordered string set.
type nameSet struct {
	seen  map[string]bool
	order []string
}

func newNameSet() *nameSet {
	return &nameSet{seen: map[string]bool{}}
}

func (s *nameSet) add(name string) {
	if !s.seen[name] {
		s.seen[name] = true
		s.order = append(s.order, name)
	}
}

func New(cfg *Config, log *zap.SugaredLogger, materials MaterialBuilder, cache *ExportCache) *Exporter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if materials == nil {
		materials = PlainMaterialBuilder{}
	}
	if cache == nil {
		cache = NewExportCache()
	}
	return &Exporter{
		cfg:       cfg,
		log:       log,
		materials: materials,
		cache:     cache,
		Sampler:   scene.SnapshotSampler{},
	}
}

// Export builds the document for scn and, when store is non-nil, writes the
// scene document plus any per-mesh and bone companion documents.
func (e *Exporter) Export(scn *scene.Scene, store *asset.Store) (*asset.Document, error) {
	if e.running {
		return nil, ErrExportRunning
	}
	e.running = true
	defer func() { e.running = false }()

	e.scn = scn
	e.begin = scn.FrameStart
	e.end = scn.FrameEnd
	e.frameTime = scn.FrameTime()
	e.out = &asset.Document{Name: scn.Name, Gravity: scn.Gravity}
	e.nodeRefs = map[string]*nodeRef{}
	e.boneNodes = map[string]map[string]bool{}
	e.boneParents = map[string][]*scene.Object{}
	e.meshUsers = map[string][]*scene.Object{}
	e.meshOrder = nil
	e.lampUsed = newNameSet()
	e.cameraUsed = newNameSet()
	e.speakerUsed = newNameSet()
	e.materialUsed = newNameSet()
	e.particleUsed = newNameSet()
	e.boneDocs = map[string]*asset.Document{}
	e.defaultUsed = false
	e.defaultSkinUsed = false
	e.cameraSpawned = false

	// First pass: classify every reachable object and register bone nodes.
	for _, obj := range scn.Roots() {
		e.classify(obj)
	}
	e.reclassifySkinnedMeshes()

	// Second pass: emit the hierarchy.
	e.out.Objects = []*asset.Object{}
	for _, obj := range scn.Roots() {
		if err := e.emitObject(obj, nil, nil); err != nil {
			return nil, err
		}
	}

	if err := e.emitData(store); err != nil {
		return nil, err
	}

	for _, g := range scn.Groups {
		e.out.Groups = append(e.out.Groups, &asset.Group{Name: g.Name, ObjectRefs: g.ObjectRefs})
	}

	if !e.cfg.MeshOnly {
		for _, t := range scn.Traits {
			e.out.Traits = append(e.out.Traits, &asset.Trait{
				Type: t.Type, ClassName: t.ClassName, Parameters: t.Parameters,
			})
		}
		if scn.CameraName != "" {
			e.out.CameraRef = scn.CameraName
		} else {
			e.log.Warnw("no camera in scene", "scene", scn.Name)
		}
		if !e.cameraSpawned {
			e.log.Warnw("no spawned camera in scene", "scene", scn.Name)
		}
		if scn.World != nil {
			e.out.WorldRef = scn.World.Name
			e.out.WorldDatas = append(e.out.WorldDatas, buildWorldData(scn.World))
		}
	}

	if store != nil {
		for name, doc := range e.boneDocs {
			doc.Name = name
			if err := store.WriteScene(doc); err != nil {
				return nil, err
			}
		}
		if err := store.WriteScene(e.out); err != nil {
			return nil, err
		}
	}
	return e.out, nil
}

func kindOf(obj *scene.Object) nodeKind {
	switch obj.Kind {
	case scene.KindMesh, scene.KindFont, scene.KindMeta:
		return nodeMesh
	case scene.KindLamp:
		return nodeLamp
	case scene.KindCamera:
		return nodeCamera
	case scene.KindSpeaker:
		return nodeSpeaker
	default:
		return nodeObject
	}
}

func (e *Exporter) classify(obj *scene.Object) {
	if !obj.ExportDisabled {
		kind := kindOf(obj)
		if e.cfg.MeshOnly && kind != nodeMesh {
			return
		}
		e.nodeRefs[obj.Name] = &nodeRef{kind: kind, name: obj.Name}

		if obj.ParentBone != "" {
			e.boneParents[obj.ParentBone] = append(e.boneParents[obj.ParentBone], obj)
		}
		if obj.Kind == scene.KindArmature {
			if arm := e.scn.Armature(obj.DataRef); arm != nil {
				bones := map[string]bool{}
				for _, b := range arm.Bones {
					bones[b.Name] = true
				}
				e.boneNodes[obj.DataRef] = bones
			}
		}
	}
	if obj.Kind == scene.KindMesh && obj.InstancedChildren {
		return
	}
	for _, child := range e.scn.Children(obj.Name) {
		e.classify(child)
	}
}

// reclassifySkinnedMeshes forces any scene object whose name matches a bone
// of a deforming armature to export as a bone node, so skeleton references
// stay unambiguous.
func (e *Exporter) reclassifySkinnedMeshes() {
	for name, ref := range e.nodeRefs {
		if ref.kind != nodeMesh {
			continue
		}
		obj := e.scn.Object(name)
		if obj == nil || obj.ArmatureRef == "" {
			continue
		}
		armObj := e.scn.Object(obj.ArmatureRef)
		if armObj == nil {
			continue
		}
		arm := e.scn.Armature(armObj.DataRef)
		if arm == nil {
			continue
		}
		for _, b := range arm.Bones {
			if br, ok := e.nodeRefs[b.Name]; ok {
				br.kind = nodeBone
			}
		}
	}
}

// emitObject exports one object and recurses into its non-bone-parented
// children. poseInverse carries the parent bone's inverted pose transform
// for objects attached to a bone.
func (e *Exporter) emitObject(obj *scene.Object, poseInverse *geom.Matrix4, parent *asset.Object) error {
	ref := e.nodeRefs[obj.Name]
	var o *asset.Object
	if ref != nil {
		o = &asset.Object{
			Type:   structIdentifier[ref.kind],
			Name:   ref.name,
			Traits: []*asset.Trait{},
		}
		for _, t := range obj.Traits {
			o.Traits = append(o.Traits, &asset.Trait{
				Type: t.Type, ClassName: t.ClassName, Parameters: t.Parameters,
			})
		}

		if obj.HideRender && !e.cfg.ExportHideRender {
			o.Visible = asset.False()
		}
		if obj.NoSpawn {
			o.Spawn = asset.False()
		}
		if obj.NoMobile {
			o.Mobile = asset.False()
		}

		switch ref.kind {
		case nodeMesh:
			if !e.emitMeshObject(obj, o) {
				return nil
			}
		case nodeLamp:
			e.lampUsed.add(obj.DataRef)
			o.DataRef = obj.DataRef
		case nodeCamera:
			e.cameraUsed.add(obj.DataRef)
			o.DataRef = obj.DataRef
			if o.Spawn == nil {
				e.cameraSpawned = true
			}
		case nodeSpeaker:
			e.speakerUsed.add(obj.DataRef)
			o.DataRef = obj.DataRef
		}

		if len(obj.LODs) > 0 {
			for _, l := range obj.LODs {
				if l.Disabled {
					continue
				}
				o.LODs = append(o.LODs, &asset.LOD{ObjectRef: l.ObjectRef, ScreenSize: l.ScreenSize})
			}
			o.HasLODMat = obj.LODMaterial
		}

		e.emitTransform(obj, poseInverse, o)

		if obj.Kind == scene.KindArmature {
			if err := e.emitArmature(obj, o); err != nil {
				return err
			}
		}

		if parent == nil {
			e.out.Objects = append(e.out.Objects, o)
		} else {
			parent.Children = append(parent.Children, o)
		}
	}

	if obj.Kind == scene.KindMesh && obj.InstancedChildren {
		return nil
	}
	next := o
	if next == nil {
		next = parent
	}
	for _, child := range e.scn.Children(obj.Name) {
		if child.ParentBone != "" {
			continue
		}
		if err := e.emitObject(child, nil, next); err != nil {
			return err
		}
	}
	return nil
}

// emitMeshObject fills the mesh-specific fields of o. A missing mesh data
// block skips the object with a warning; the rest of the scene still exports.
func (e *Exporter) emitMeshObject(obj *scene.Object, o *asset.Object) bool {
	mesh := e.scn.Mesh(obj.DataRef)
	if mesh == nil {
		e.log.Warnw("object not exported, mesh data missing",
			"object", obj.Name, "mesh", obj.DataRef)
		return false
	}
	if _, ok := e.meshUsers[mesh.Name]; !ok {
		e.meshOrder = append(e.meshOrder, mesh.Name)
	}
	e.meshUsers[mesh.Name] = append(e.meshUsers[mesh.Name], obj)

	oid := "mesh_" + mesh.Name
	if e.cfg.MeshPerFile {
		o.DataRef = oid + "/" + oid
	} else {
		o.DataRef = oid
	}

	skinned := obj.ArmatureRef != ""
	for _, slot := range obj.MaterialSlots {
		if slot == "" {
			o.MaterialRefs = append(o.MaterialRefs, e.useDefaultMaterial(skinned))
			continue
		}
		o.MaterialRefs = append(o.MaterialRefs, slot)
		e.materialUsed.add(slot)
		if mat := e.scn.Material(slot); mat != nil && mat.Decal {
			o.Type = structIdentifier[nodeDecal]
		}
	}
	if len(o.MaterialRefs) == 0 {
		o.MaterialRefs = append(o.MaterialRefs, e.useDefaultMaterial(skinned))
	}

	for _, ps := range obj.Particles {
		e.particleUsed.add(ps.SettingsRef)
		o.ParticleRefs = append(o.ParticleRefs, &asset.ParticleRef{
			Name: ps.Name, Seed: ps.Seed, Particle: ps.SettingsRef,
		})
	}

	o.Dimensions = []float32{obj.Dimensions[0], obj.Dimensions[1], obj.Dimensions[2]}
	return true
}

// useDefaultMaterial records that an empty material slot needs the built-in
// material and returns its name. Skinned and unskinned objects cannot share
// one, their vertex layouts differ.
func (e *Exporter) useDefaultMaterial(skinned bool) string {
	if skinned {
		e.defaultSkinUsed = true
		return defaultSkinMaterialName
	}
	e.defaultUsed = true
	return defaultMaterialName
}

// emitTransform writes the rest transform and, for animated objects, either
// component tracks with their addressable transform ops or a single sampled
// matrix track. An inverted bone pose folds into the rest transform for
// bone-parented objects.
func (e *Exporter) emitTransform(obj *scene.Object, poseInverse *geom.Matrix4, o *asset.Object) {
	rest := obj.MatrixLocal
	if poseInverse != nil {
		rest = *poseInverse.Mul(&obj.MatrixLocal)
	}
	o.Transform = &asset.Transform{Values: matrixValues(&rest)}

	var curves []*scene.Curve
	if obj.Action != nil {
		for _, c := range obj.Action.Curves {
			// Bone channels of an armature action are handled with
			// the bone hierarchy, not with the object.
			if len(c.DataPath) >= 10 && c.DataPath[:10] == "pose.bones" {
				continue
			}
			curves = append(curves, c)
		}
	}
	quatMode := obj.RotationMode == "QUATERNION" || obj.RotationMode == "AXIS_ANGLE"
	plan := planAnimation(quatMode, curves, e.cfg.SampleAnimation)
	if !plan.animated {
		return
	}
	if plan.sampled {
		if objectSamplesStatic(e.Sampler, obj, e.begin, e.end) {
			return
		}
		o.Transform.Target = "transform"
		o.Animation = &asset.Animation{
			End: float32(e.end-e.begin) * e.frameTime,
			Tracks: []*asset.Track{
				sampleObjectTrack(e.Sampler, obj, e.begin, e.end, e.frameTime),
			},
		}
		return
	}
	o.Transform.Target = "transform"
	o.AnimationTransforms = staticTransformOps(obj)
	anim := &asset.Animation{}
	for _, pt := range plan.tracks {
		anim.Tracks = append(anim.Tracks, buildComponentTrack(pt, float32(e.begin), e.frameTime))
	}
	o.Animation = anim
}

func buildWorldData(w *scene.World) *asset.WorldData {
	wd := &asset.WorldData{
		Name:            w.Name,
		BackgroundColor: packColor(w.BackgroundColor),
		Probes:          []*asset.Probe{},
	}
	for _, p := range w.Probes {
		wd.Probes = append(wd.Probes, &asset.Probe{
			Name:            p.Name,
			Irradiance:      p.Irradiance,
			Radiance:        p.Radiance,
			RadianceMipmaps: p.Mipmaps,
			Strength:        p.Strength,
			Blending:        p.Blending,
			Volume:          p.Volume,
			VolumeCenter:    p.VolumeCenter,
		})
	}
	return wd
}

// packColor converts a linear float color to 0xAARRGGBB.
func packColor(c [3]float32) int {
	clamp := func(v float32) int {
		i := int(v * 255)
		if i < 0 {
			return 0
		}
		if i > 255 {
			return 255
		}
		return i
	}
	return 0xff<<24 | clamp(c[0])<<16 | clamp(c[1])<<8 | clamp(c[2])
}

func matrixValues(m *geom.Matrix4) []float32 {
	a := make([]float32, 16)
	m.ToArray(a)
	return a
}
