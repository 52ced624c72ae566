package scene

import "github.com/skaia3d/sceneforge/geom"

// Object kinds as reported by the host.
const (
	KindEmpty    = "empty"
	KindMesh     = "mesh"
	KindLamp     = "lamp"
	KindCamera   = "camera"
	KindSpeaker  = "speaker"
	KindArmature = "armature"
	KindFont     = "font"
	KindMeta     = "meta"
)

type Object struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"`

	Parent     string `yaml:"parent" json:"parent"`
	ParentBone string `yaml:"parent_bone" json:"parent_bone"`

	// DataRef names the mesh/lamp/camera/speaker data block, or the armature
	// for armature objects.
	DataRef string `yaml:"data_ref" json:"data_ref"`
	// ArmatureRef names the armature object deforming this mesh, if any.
	ArmatureRef string `yaml:"armature_ref" json:"armature_ref"`

	MatrixLocal geom.Matrix4 `yaml:"matrix_local" json:"matrix_local"`
	MatrixWorld geom.Matrix4 `yaml:"matrix_world" json:"matrix_world"`

	// RotationMode is the host rotation representation: an Euler axis order
	// such as "XYZ", or "QUATERNION" / "AXIS_ANGLE".
	RotationMode       string     `yaml:"rotation_mode" json:"rotation_mode"`
	Location           [3]float32 `yaml:"location" json:"location"`
	RotationEuler      [3]float32 `yaml:"rotation_euler" json:"rotation_euler"`
	RotationQuaternion [4]float32 `yaml:"rotation_quaternion" json:"rotation_quaternion"`
	RotationAxisAngle  [4]float32 `yaml:"rotation_axis_angle" json:"rotation_axis_angle"`
	Scale              [3]float32 `yaml:"scale" json:"scale"`

	DeltaLocation      [3]float32 `yaml:"delta_location" json:"delta_location"`
	DeltaRotationEuler [3]float32 `yaml:"delta_rotation_euler" json:"delta_rotation_euler"`
	DeltaScale         [3]float32 `yaml:"delta_scale" json:"delta_scale"`

	ExportDisabled bool `yaml:"export_disabled" json:"export_disabled"`
	HideRender     bool `yaml:"hide_render" json:"hide_render"`
	NoSpawn        bool `yaml:"no_spawn" json:"no_spawn"`
	NoMobile       bool `yaml:"no_mobile" json:"no_mobile"`

	// InstancedChildren marks a mesh whose children are rendered as
	// instances; they are captured as offsets instead of being walked.
	InstancedChildren bool `yaml:"instanced_children" json:"instanced_children"`

	MaterialSlots []string             `yaml:"material_slots" json:"material_slots"`
	Particles     []*ParticleSystemRef `yaml:"particle_systems" json:"particle_systems"`
	Traits        []*Trait             `yaml:"traits" json:"traits"`
	LODs          []*LOD               `yaml:"lods" json:"lods"`
	LODMaterial   bool                 `yaml:"lod_material" json:"lod_material"`

	Dimensions [3]float32 `yaml:"dimensions" json:"dimensions"`

	Action *Action `yaml:"action" json:"action"`
	Clips  []*Clip `yaml:"clips" json:"clips"`
	// StartTrack names the clip played on spawn; empty selects the first.
	StartTrack string `yaml:"start_track" json:"start_track"`

	// Samples carry per-frame evaluated local transforms for animated
	// objects, in ascending frame order.
	Samples []*FrameSample `yaml:"samples" json:"samples"`

	// Pose and PoseSamples are populated for armature objects only.
	Pose        map[string]geom.Matrix4 `yaml:"pose" json:"pose"`
	PoseSamples []*PoseSample           `yaml:"pose_samples" json:"pose_samples"`
}

type FrameSample struct {
	Frame  int          `yaml:"frame" json:"frame"`
	Matrix geom.Matrix4 `yaml:"matrix" json:"matrix"`
}

type PoseSample struct {
	Frame int                     `yaml:"frame" json:"frame"`
	Bones map[string]geom.Matrix4 `yaml:"bones" json:"bones"`
}

type ParticleSystemRef struct {
	Name        string `yaml:"name" json:"name"`
	Seed        int    `yaml:"seed" json:"seed"`
	SettingsRef string `yaml:"settings_ref" json:"settings_ref"`
}

// Trait is an attached behavior descriptor carried through to the document.
type Trait struct {
	Type       string   `yaml:"type" json:"type"`
	ClassName  string   `yaml:"class_name" json:"class_name"`
	Parameters []string `yaml:"parameters" json:"parameters"`
}

type LOD struct {
	ObjectRef  string  `yaml:"object_ref" json:"object_ref"`
	ScreenSize float32 `yaml:"screen_size" json:"screen_size"`
	Disabled   bool    `yaml:"disabled" json:"disabled"`
}

// Clip is an animation clip definition attached to an object.
type Clip struct {
	Name    string  `yaml:"name" json:"name"`
	Start   int     `yaml:"start" json:"start"`
	End     int     `yaml:"end" json:"end"`
	Speed   float32 `yaml:"speed" json:"speed"`
	Loop    bool    `yaml:"loop" json:"loop"`
	Reflect bool    `yaml:"reflect" json:"reflect"`
}
