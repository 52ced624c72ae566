// Package asset defines the exported scene document: the nested structure a
// game runtime loads, with per-category data arrays and a hierarchical object
// tree. Documents serialize to JSON, optionally gzip-compressed.
package asset

// Document is one exported scene.
type Document struct {
	Name string `json:"name"`

	Objects       []*Object       `json:"objects"`
	MeshDatas     []*MeshData     `json:"mesh_datas"`
	LampDatas     []*LampData     `json:"lamp_datas"`
	CameraDatas   []*CameraData   `json:"camera_datas"`
	SpeakerDatas  []*SpeakerData  `json:"speaker_datas"`
	MaterialDatas []*MaterialData `json:"material_datas"`
	ParticleDatas []*ParticleData `json:"particle_datas"`
	WorldDatas    []*WorldData    `json:"world_datas"`

	Groups []*Group `json:"groups,omitempty"`

	CameraRef string     `json:"camera_ref,omitempty"`
	WorldRef  string     `json:"world_ref,omitempty"`
	Gravity   [3]float32 `json:"gravity"`

	Traits []*Trait `json:"traits,omitempty"`
}

// Object is one node of the exported hierarchy. Type comes from the fixed
// taxonomy (object, bone_object, mesh_object, lamp_object, camera_object,
// speaker_object, decal_object); Traits is always present, possibly empty.
type Object struct {
	Type string `json:"type"`
	Name string `json:"name"`

	DataRef      string         `json:"data_ref,omitempty"`
	BonesRef     string         `json:"bones_ref,omitempty"`
	MaterialRefs []string       `json:"material_refs,omitempty"`
	ParticleRefs []*ParticleRef `json:"particle_refs,omitempty"`

	Transform           *Transform      `json:"transform,omitempty"`
	Animation           *Animation      `json:"animation,omitempty"`
	AnimationTransforms []*TransformOp  `json:"animation_transforms,omitempty"`
	AnimationSetup      *AnimationSetup `json:"animation_setup,omitempty"`

	Dimensions []float32 `json:"dimensions,omitempty"`
	LODs       []*LOD    `json:"lods,omitempty"`
	HasLODMat  bool      `json:"lod_material,omitempty"`

	Visible       *bool `json:"visible,omitempty"`
	VisibleMesh   *bool `json:"visible_mesh,omitempty"`
	VisibleShadow *bool `json:"visible_shadow,omitempty"`
	Spawn         *bool `json:"spawn,omitempty"`
	Mobile        *bool `json:"mobile,omitempty"`

	Traits   []*Trait  `json:"traits"`
	Children []*Object `json:"children,omitempty"`
}

// Transform carries a flattened row-major 4x4 matrix; Target is set when the
// transform is driven by a sampled animation track.
type Transform struct {
	Target string    `json:"target,omitempty"`
	Values []float32 `json:"values"`
}

// TransformOp is one static transform component (translation, rotation_x,
// scale, ...) emitted separately so animation tracks can address it.
type TransformOp struct {
	Type   string    `json:"type"`
	Name   string    `json:"name,omitempty"`
	Value  float32   `json:"value,omitempty"`
	Values []float32 `json:"values,omitempty"`
}

// Animation groups the tracks targeting one object or bone.
type Animation struct {
	Begin  float32  `json:"begin,omitempty"`
	End    float32  `json:"end,omitempty"`
	Tracks []*Track `json:"tracks"`
}

// Track is one animation channel: explicit keyframes for component tracks,
// or a uniformly sampled matrix sequence for target "transform".
type Track struct {
	Target string    `json:"target"`
	Curve  string    `json:"curve,omitempty"`
	Times  []float32 `json:"times"`
	Values []float32 `json:"values"`

	TimesControlPlus   []float32 `json:"times_control_plus,omitempty"`
	TimesControlMinus  []float32 `json:"times_control_minus,omitempty"`
	ValuesControlPlus  []float32 `json:"values_control_plus,omitempty"`
	ValuesControlMinus []float32 `json:"values_control_minus,omitempty"`
}

// AnimationSetup describes the clips available on an animated object.
type AnimationSetup struct {
	FrameTime  float32   `json:"frame_time"`
	StartTrack string    `json:"start_track"`
	Names      []string  `json:"names"`
	Starts     []int     `json:"starts"`
	Ends       []int     `json:"ends"`
	Speeds     []float32 `json:"speeds"`
	Loops      []bool    `json:"loops"`
	Reflects   []bool    `json:"reflects"`
	MaxBones   int       `json:"max_bones"`
}

// MeshData is one exported mesh: tagged flat vertex arrays plus per-material
// triangle index arrays.
type MeshData struct {
	Name string `json:"name"`

	VertexArrays []*VertexArray `json:"vertex_arrays"`
	IndexArrays  []*IndexArray  `json:"index_arrays"`

	Skin *Skin `json:"skin,omitempty"`

	InstanceOffsets []float32 `json:"instance_offsets,omitempty"`
	DynamicUsage    bool      `json:"dynamic_usage,omitempty"`
}

type VertexArray struct {
	Attrib string    `json:"attrib"`
	Size   int       `json:"size"`
	Values []float32 `json:"values"`
}

type IndexArray struct {
	Size     int   `json:"size"`
	Values   []int `json:"values"`
	Material int   `json:"material"`
}

// Skin is the per-mesh skinning block: the skeleton reference plus three
// parallel per-vertex arrays (the index and weight arrays are flattened, one
// run per vertex, run lengths given by BoneCountArray).
type Skin struct {
	Transform *Transform `json:"transform"`
	Skeleton  *Skeleton  `json:"skeleton"`

	BoneCountArray  []int     `json:"bone_count_array"`
	BoneIndexArray  []int     `json:"bone_index_array"`
	BoneWeightArray []float32 `json:"bone_weight_array"`
}

// Skeleton lists bone node references in skeleton order ("null" marks a bone
// with no exported node) and world-space bind matrices in the same order.
type Skeleton struct {
	BoneRefArray []string    `json:"bone_ref_array"`
	Transforms   [][]float32 `json:"transforms"`
}

type LampData struct {
	Name string `json:"name"`
	Type string `json:"type"`

	Color    []float32 `json:"color,omitempty"`
	Strength float32   `json:"strength"`

	CastShadow  bool    `json:"cast_shadow"`
	NearPlane   float32 `json:"near_plane"`
	FarPlane    float32 `json:"far_plane"`
	FOV         float32 `json:"fov"`
	ShadowsBias float32 `json:"shadows_bias"`

	SpotSize  float32 `json:"spot_size,omitempty"`
	SpotBlend float32 `json:"spot_blend,omitempty"`
	Size      float32 `json:"size,omitempty"`
	SizeY     float32 `json:"size_y,omitempty"`
}

type CameraData struct {
	Name string `json:"name"`
	Type string `json:"type"`

	NearPlane      float32   `json:"near_plane"`
	FarPlane       float32   `json:"far_plane"`
	FOV            float32   `json:"fov"`
	FrustumCulling bool      `json:"frustum_culling"`
	RenderPath     string    `json:"render_path,omitempty"`
	ClearColor     []float32 `json:"clear_color,omitempty"`
}

type SpeakerData struct {
	Name        string  `json:"name"`
	Sound       string  `json:"sound"`
	Muted       bool    `json:"muted"`
	Loop        bool    `json:"loop"`
	Stream      bool    `json:"stream"`
	Volume      float32 `json:"volume"`
	Pitch       float32 `json:"pitch"`
	Attenuation float32 `json:"attenuation"`
}

// MaterialData is produced by the material builder collaborator; the export
// core only guarantees name and contexts.
type MaterialData struct {
	Name     string             `json:"name"`
	Contexts []map[string]any   `json:"contexts"`
	Override map[string]any     `json:"override_context,omitempty"`
	Params   map[string]float32 `json:"params,omitempty"`
}

type ParticleData struct {
	Name              string     `json:"name"`
	Count             int        `json:"count"`
	Lifetime          float32    `json:"lifetime"`
	NormalFactor      float32    `json:"normal_factor"`
	ObjectAlignFactor [3]float32 `json:"object_align_factor"`
	FactorRandom      float32    `json:"factor_random"`
}

type WorldData struct {
	Name            string   `json:"name"`
	BackgroundColor int      `json:"background_color"`
	Probes          []*Probe `json:"probes"`
}

type Probe struct {
	Name             string     `json:"name"`
	Irradiance       string     `json:"irradiance"`
	Radiance         string     `json:"radiance,omitempty"`
	RadianceMipmaps  int        `json:"radiance_mipmaps,omitempty"`
	Strength         float32    `json:"strength"`
	Blending         float32    `json:"blending"`
	Volume           [3]float32 `json:"volume"`
	VolumeCenter     [3]float32 `json:"volume_center"`
}

type ParticleRef struct {
	Name     string `json:"name"`
	Seed     int    `json:"seed"`
	Particle string `json:"particle"`
}

type Trait struct {
	Type       string   `json:"type"`
	ClassName  string   `json:"class_name"`
	Parameters []string `json:"parameters,omitempty"`
}

type Group struct {
	Name       string   `json:"name"`
	ObjectRefs []string `json:"object_refs"`
}

type LOD struct {
	ObjectRef  string  `json:"object_ref"`
	ScreenSize float32 `json:"screen_size"`
}

// False returns a pointer to false, for the tri-state object flags that are
// only written when disabled.
func False() *bool {
	v := false
	return &v
}
