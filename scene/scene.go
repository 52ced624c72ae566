// Package scene holds a normalized, read-only snapshot of a host 3D scene:
// the object hierarchy, mesh topology, armatures, animation curves and data
// blocks an exporter consumes. The snapshot is produced by a host adapter
// (or loaded from a file) and is never mutated by the export core.
package scene

import "github.com/skaia3d/sceneforge/geom"

type Scene struct {
	Name       string  `yaml:"name" json:"name"`
	FrameStart int     `yaml:"frame_start" json:"frame_start"`
	FrameEnd   int     `yaml:"frame_end" json:"frame_end"`
	FPS        float32 `yaml:"fps" json:"fps"`

	Gravity    [3]float32 `yaml:"gravity" json:"gravity"`
	CameraName string     `yaml:"camera" json:"camera"`

	Objects   []*Object           `yaml:"objects" json:"objects"`
	Meshes    []*Mesh             `yaml:"meshes" json:"meshes"`
	Armatures []*Armature         `yaml:"armatures" json:"armatures"`
	Lamps     []*Lamp             `yaml:"lamps" json:"lamps"`
	Cameras   []*Camera           `yaml:"cameras" json:"cameras"`
	Speakers  []*Speaker          `yaml:"speakers" json:"speakers"`
	Materials []*Material         `yaml:"materials" json:"materials"`
	Particles []*ParticleSettings `yaml:"particles" json:"particles"`
	Groups    []*Group            `yaml:"groups" json:"groups"`
	World     *World              `yaml:"world" json:"world"`
	Traits    []*Trait            `yaml:"traits" json:"traits"`

	objectByName   map[string]*Object
	meshByName     map[string]*Mesh
	armatureByName map[string]*Armature
	materialByName map[string]*Material
	childrenByName map[string][]*Object
}

// Init builds the name lookup tables. Loaders call this once after decoding;
// adapters constructing a Scene directly must call it before handing the
// snapshot to an exporter.
func (s *Scene) Init() {
	s.objectByName = map[string]*Object{}
	s.meshByName = map[string]*Mesh{}
	s.armatureByName = map[string]*Armature{}
	s.childrenByName = map[string][]*Object{}
	for _, o := range s.Objects {
		s.objectByName[o.Name] = o
		if o.Parent != "" {
			s.childrenByName[o.Parent] = append(s.childrenByName[o.Parent], o)
		}
	}
	for _, m := range s.Meshes {
		s.meshByName[m.Name] = m
	}
	s.materialByName = map[string]*Material{}
	for _, m := range s.Materials {
		s.materialByName[m.Name] = m
	}
	for _, a := range s.Armatures {
		s.armatureByName[a.Name] = a
		a.init()
	}
}

func (s *Scene) Object(name string) *Object {
	return s.objectByName[name]
}

func (s *Scene) Mesh(name string) *Mesh {
	return s.meshByName[name]
}

func (s *Scene) Armature(name string) *Armature {
	return s.armatureByName[name]
}

func (s *Scene) Material(name string) *Material {
	return s.materialByName[name]
}

// Roots returns the unparented objects in scene order.
func (s *Scene) Roots() []*Object {
	var roots []*Object
	for _, o := range s.Objects {
		if o.Parent == "" {
			roots = append(roots, o)
		}
	}
	return roots
}

// Children returns the direct children of the named object in scene order.
func (s *Scene) Children(name string) []*Object {
	return s.childrenByName[name]
}

// FrameTime returns the duration of one timeline frame in seconds.
func (s *Scene) FrameTime() float32 {
	if s.FPS == 0 {
		return 1.0 / 25
	}
	return 1.0 / s.FPS
}

type Lamp struct {
	Name string `yaml:"name" json:"name"`
	// one of "sun", "point", "spot", "area", "hemi"
	Kind string `yaml:"kind" json:"kind"`

	Color    [3]float32 `yaml:"color" json:"color"`
	Strength float32    `yaml:"strength" json:"strength"`

	SpotSize  float32 `yaml:"spot_size" json:"spot_size"`
	SpotBlend float32 `yaml:"spot_blend" json:"spot_blend"`
	Size      float32 `yaml:"size" json:"size"`
	SizeY     float32 `yaml:"size_y" json:"size_y"`

	CastShadow  bool    `yaml:"cast_shadow" json:"cast_shadow"`
	NearPlane   float32 `yaml:"near_plane" json:"near_plane"`
	FarPlane    float32 `yaml:"far_plane" json:"far_plane"`
	FOV         float32 `yaml:"fov" json:"fov"`
	ShadowsBias float32 `yaml:"shadows_bias" json:"shadows_bias"`
}

type Camera struct {
	Name string `yaml:"name" json:"name"`
	// "perspective" or "orthographic"
	Kind string `yaml:"kind" json:"kind"`

	NearPlane      float32 `yaml:"near_plane" json:"near_plane"`
	FarPlane       float32 `yaml:"far_plane" json:"far_plane"`
	FOV            float32 `yaml:"fov" json:"fov"`
	FrustumCulling bool    `yaml:"frustum_culling" json:"frustum_culling"`
	RenderPath     string  `yaml:"render_path" json:"render_path"`
}

type Speaker struct {
	Name        string  `yaml:"name" json:"name"`
	Sound       string  `yaml:"sound" json:"sound"`
	Muted       bool    `yaml:"muted" json:"muted"`
	Loop        bool    `yaml:"loop" json:"loop"`
	Stream      bool    `yaml:"stream" json:"stream"`
	Volume      float32 `yaml:"volume" json:"volume"`
	Pitch       float32 `yaml:"pitch" json:"pitch"`
	Attenuation float32 `yaml:"attenuation" json:"attenuation"`
}

// Material is the host material as far as the export core cares: a name and
// the vertex-layout channels its shader wants. Shader parsing itself is a
// separate collaborator; the flags here are its normalized result.
type Material struct {
	Name  string `yaml:"name" json:"name"`
	Decal bool   `yaml:"decal" json:"decal"`

	ExportUVs      bool `yaml:"export_uvs" json:"export_uvs"`
	ExportVCols    bool `yaml:"export_vcols" json:"export_vcols"`
	ExportTangents bool `yaml:"export_tangents" json:"export_tangents"`
}

type ParticleSettings struct {
	Name              string     `yaml:"name" json:"name"`
	Count             int        `yaml:"count" json:"count"`
	Lifetime          float32    `yaml:"lifetime" json:"lifetime"`
	NormalFactor      float32    `yaml:"normal_factor" json:"normal_factor"`
	ObjectAlignFactor [3]float32 `yaml:"object_align_factor" json:"object_align_factor"`
	FactorRandom      float32    `yaml:"factor_random" json:"factor_random"`
}

type Group struct {
	Name       string   `yaml:"name" json:"name"`
	ObjectRefs []string `yaml:"object_refs" json:"object_refs"`
}

type World struct {
	Name               string     `yaml:"name" json:"name"`
	BackgroundColor    [3]float32 `yaml:"background_color" json:"background_color"`
	BackgroundStrength float32    `yaml:"background_strength" json:"background_strength"`
	Probes             []*Probe   `yaml:"probes" json:"probes"`
}

// Probe is environment-probe metadata carried through to the document.
// Baking the referenced textures is outside the export core.
type Probe struct {
	Name         string     `yaml:"name" json:"name"`
	Irradiance   string     `yaml:"irradiance" json:"irradiance"`
	Radiance     string     `yaml:"radiance" json:"radiance"`
	Mipmaps      int        `yaml:"mipmaps" json:"mipmaps"`
	Strength     float32    `yaml:"strength" json:"strength"`
	Blending     float32    `yaml:"blending" json:"blending"`
	Volume       [3]float32 `yaml:"volume" json:"volume"`
	VolumeCenter [3]float32 `yaml:"volume_center" json:"volume_center"`
}

// Matrix is a row-major 4x4 transform as it appears in snapshot files.
type Matrix = geom.Matrix4
