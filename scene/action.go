package scene

// Keyframe interpolation modes.
const (
	InterpLinear = "LINEAR"
	InterpBezier = "BEZIER"
)

// Action is one animation data block: a set of keyframed channels.
type Action struct {
	Name       string   `yaml:"name" json:"name"`
	FrameStart float32  `yaml:"frame_start" json:"frame_start"`
	FrameEnd   float32  `yaml:"frame_end" json:"frame_end"`
	Curves     []*Curve `yaml:"curves" json:"curves"`
}

// Curve is a single animation channel: one component of a transform
// property, addressed by DataPath + ArrayIndex. Bone channels use paths of
// the form `pose.bones["Name"].location`.
type Curve struct {
	DataPath   string      `yaml:"data_path" json:"data_path"`
	ArrayIndex int         `yaml:"array_index" json:"array_index"`
	Keyframes  []*Keyframe `yaml:"keyframes" json:"keyframes"`
}

// Keyframe mirrors the host keyframe: Co is (frame, value), the handles are
// the Bezier control points in the same (frame, value) space.
type Keyframe struct {
	Co            [2]float32 `yaml:"co" json:"co"`
	HandleLeft    [2]float32 `yaml:"handle_left" json:"handle_left"`
	HandleRight   [2]float32 `yaml:"handle_right" json:"handle_right"`
	Interpolation string     `yaml:"interpolation" json:"interpolation"`
}

// BoneCurves returns the channels of action targeting the named pose bone.
func (a *Action) BoneCurves(bone string) []*Curve {
	prefix := `pose.bones["` + bone + `"].`
	var curves []*Curve
	for _, c := range a.Curves {
		if len(c.DataPath) > len(prefix) && c.DataPath[:len(prefix)] == prefix {
			curves = append(curves, c)
		}
	}
	return curves
}
