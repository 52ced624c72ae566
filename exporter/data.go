package exporter

import (
	"fmt"

	"github.com/skaia3d/sceneforge/asset"
	"github.com/skaia3d/sceneforge/scene"
)

// layoutFor derives a mesh's vertex layout from the materials its user
// objects reference. Objects sharing a mesh therefore agree on one layout.
func (e *Exporter) layoutFor(m *scene.Mesh, users []*scene.Object) VertexLayout {
	var layout VertexLayout
	for _, obj := range users {
		for _, slot := range obj.MaterialSlots {
			mat := e.scn.Material(slot)
			if mat == nil {
				continue
			}
			if mat.ExportUVs {
				uvs := m.UVLayerCount
				if uvs > 2 {
					uvs = 2
				}
				if uvs > layout.UVLayers {
					layout.UVLayers = uvs
				}
			}
			if mat.ExportVCols && m.ColorLayerCount > 0 {
				layout.ColorLayers = true
			}
			if mat.ExportTangents {
				layout.Tangents = true
			}
		}
	}
	if layout.UVLayers == 2 && m.UVLayerCount > 2 {
		e.log.Warnw("uv layer count exceeds limit",
			"mesh", m.Name, "layers", m.UVLayerCount, "max", 2)
	}
	return layout
}

// emitData exports the data blocks collected during the object pass.
func (e *Exporter) emitData(store *asset.Store) error {
	e.out.MeshDatas = []*asset.MeshData{}
	for _, name := range e.meshOrder {
		if err := e.emitMeshData(name, store); err != nil {
			return err
		}
	}
	if err := e.cache.Save(); err != nil {
		e.log.Warnw("cache not saved", "error", err)
	}

	if e.cfg.MeshOnly {
		return nil
	}

	e.out.LampDatas = []*asset.LampData{}
	for _, name := range e.lampUsed.order {
		l := findLamp(e.scn, name)
		if l == nil {
			e.log.Warnw("lamp data missing, not exported", "lamp", name)
			continue
		}
		e.out.LampDatas = append(e.out.LampDatas, &asset.LampData{
			Name:        l.Name,
			Type:        l.Kind,
			Color:       []float32{l.Color[0], l.Color[1], l.Color[2]},
			Strength:    l.Strength,
			CastShadow:  l.CastShadow,
			NearPlane:   l.NearPlane,
			FarPlane:    l.FarPlane,
			FOV:         l.FOV,
			ShadowsBias: l.ShadowsBias,
			SpotSize:    l.SpotSize,
			SpotBlend:   l.SpotBlend,
			Size:        l.Size,
			SizeY:       l.SizeY,
		})
	}

	e.out.CameraDatas = []*asset.CameraData{}
	var clearColor []float32
	if w := e.scn.World; w != nil {
		clearColor = []float32{w.BackgroundColor[0], w.BackgroundColor[1], w.BackgroundColor[2], 1}
	}
	for _, name := range e.cameraUsed.order {
		c := findCamera(e.scn, name)
		if c == nil {
			e.log.Warnw("camera data missing, not exported", "camera", name)
			continue
		}
		e.out.CameraDatas = append(e.out.CameraDatas, &asset.CameraData{
			Name:           c.Name,
			Type:           c.Kind,
			NearPlane:      c.NearPlane,
			FarPlane:       c.FarPlane,
			FOV:            c.FOV,
			FrustumCulling: c.FrustumCulling,
			RenderPath:     c.RenderPath,
			ClearColor:     clearColor,
		})
	}

	e.out.SpeakerDatas = []*asset.SpeakerData{}
	for _, name := range e.speakerUsed.order {
		s := findSpeaker(e.scn, name)
		if s == nil {
			e.log.Warnw("speaker data missing, not exported", "speaker", name)
			continue
		}
		e.out.SpeakerDatas = append(e.out.SpeakerDatas, &asset.SpeakerData{
			Name:        s.Name,
			Sound:       s.Sound,
			Muted:       s.Muted,
			Loop:        s.Loop,
			Stream:      s.Stream,
			Volume:      s.Volume,
			Pitch:       s.Pitch,
			Attenuation: s.Attenuation,
		})
	}

	if err := e.emitMaterials(); err != nil {
		return err
	}

	e.out.ParticleDatas = []*asset.ParticleData{}
	for _, name := range e.particleUsed.order {
		p := findParticle(e.scn, name)
		if p == nil {
			e.log.Warnw("particle settings missing, not exported", "particle", name)
			continue
		}
		e.out.ParticleDatas = append(e.out.ParticleDatas, &asset.ParticleData{
			Name:              p.Name,
			Count:             p.Count,
			Lifetime:          p.Lifetime,
			NormalFactor:      p.NormalFactor,
			ObjectAlignFactor: p.ObjectAlignFactor,
			FactorRandom:      p.FactorRandom,
		})
	}
	return nil
}

func (e *Exporter) emitMeshData(name string, store *asset.Store) error {
	mesh := e.scn.Mesh(name)
	users := e.meshUsers[name]
	layout := e.layoutFor(mesh, users)
	oid := "mesh_" + name

	// A fresh fingerprint plus a surviving artifact means the previous
	// export still serves; only possible when meshes go to their own files.
	if e.cfg.CacheEnabled && e.cfg.MeshPerFile && store != nil &&
		e.cache.Fresh(name, mesh, layout) && store.HasMesh(name) {
		e.log.Debugw("mesh unchanged, skipping", "mesh", name)
		return nil
	}

	md, sources := buildMeshData(mesh, oid, layout)

	for _, obj := range users {
		if obj.InstancedChildren {
			for _, child := range e.scn.Children(obj.Name) {
				md.InstanceOffsets = append(md.InstanceOffsets,
					child.Location[0], child.Location[1], child.Location[2])
			}
			break
		}
	}

	if skinnedUser := firstSkinnedUser(users); skinnedUser != nil && len(mesh.VertexGroups) > 0 {
		armObj := e.scn.Object(skinnedUser.ArmatureRef)
		if armObj == nil {
			return fmt.Errorf("exporter: object %s references unknown armature object %s",
				skinnedUser.Name, skinnedUser.ArmatureRef)
		}
		arm := e.scn.Armature(armObj.DataRef)
		if arm == nil {
			return fmt.Errorf("exporter: armature object %s has no armature data", armObj.Name)
		}
		if len(arm.Bones) > e.cfg.MaxBones {
			e.log.Warnw("bone count exceeds limit",
				"object", skinnedUser.Name, "bones", len(arm.Bones), "max", e.cfg.MaxBones)
		}
		bones := e.boneNodes[arm.Name]
		md.Skin = buildSkin(mesh, sources, arm, armObj.MatrixWorld,
			func(bone string) string {
				if bones[bone] {
					return bone
				}
				return ""
			},
			func() {
				e.log.Warnw("vertex weights clamped",
					"object", skinnedUser.Name, "max", maxWeightsPerVertex)
			})
	}

	e.cache.Update(name, mesh, layout)
	if e.cfg.MeshPerFile && store != nil {
		return store.WriteMesh(name, md)
	}
	e.out.MeshDatas = append(e.out.MeshDatas, md)
	return nil
}

func (e *Exporter) emitMaterials() error {
	e.out.MaterialDatas = []*asset.MaterialData{}
	for _, name := range e.materialUsed.order {
		mat := e.scn.Material(name)
		if mat == nil {
			e.log.Warnw("material missing, not exported", "material", name)
			continue
		}
		data, err := e.materials.Build(mat)
		if err != nil {
			return fmt.Errorf("exporter: material %s: %w", name, err)
		}
		e.out.MaterialDatas = append(e.out.MaterialDatas, data)
	}
	if e.defaultUsed {
		e.out.MaterialDatas = append(e.out.MaterialDatas,
			&asset.MaterialData{Name: defaultMaterialName, Contexts: []map[string]any{}})
	}
	if e.defaultSkinUsed {
		e.out.MaterialDatas = append(e.out.MaterialDatas,
			&asset.MaterialData{Name: defaultSkinMaterialName, Contexts: []map[string]any{}})
	}
	return nil
}

func firstSkinnedUser(users []*scene.Object) *scene.Object {
	for _, u := range users {
		if u.ArmatureRef != "" {
			return u
		}
	}
	return nil
}

func findLamp(s *scene.Scene, name string) *scene.Lamp {
	for _, l := range s.Lamps {
		if l.Name == name {
			return l
		}
	}
	return nil
}

func findCamera(s *scene.Scene, name string) *scene.Camera {
	for _, c := range s.Cameras {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func findSpeaker(s *scene.Scene, name string) *scene.Speaker {
	for _, sp := range s.Speakers {
		if sp.Name == name {
			return sp
		}
	}
	return nil
}

func findParticle(s *scene.Scene, name string) *scene.ParticleSettings {
	for _, p := range s.Particles {
		if p.Name == name {
			return p
		}
	}
	return nil
}
