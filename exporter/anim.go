package exporter

import (
	"github.com/chewxy/math32"

	"github.com/skaia3d/sceneforge/asset"
	"github.com/skaia3d/sceneforge/geom"
	"github.com/skaia3d/sceneforge/scene"
)

// CurveKind is the encoding chosen for one keyframed channel.
type CurveKind int

const (
	CurveLinear CurveKind = iota
	CurveBezier
	CurveSampled
)

func (k CurveKind) String() string {
	switch k {
	case CurveLinear:
		return "linear"
	case CurveBezier:
		return "bezier"
	default:
		return "sampled"
	}
}

// animEpsilon bounds the value change below which a channel is considered
// static.
const animEpsilon = 1e-6

// classifyCurve picks the encoding for one channel. Any interpolation mode
// outside linear and Bezier forces sampling, as does mixing the two.
func classifyCurve(c *scene.Curve) CurveKind {
	linear, bezier := 0, 0
	for _, k := range c.Keyframes {
		switch k.Interpolation {
		case scene.InterpLinear:
			linear++
		case scene.InterpBezier:
			bezier++
		default:
			return CurveSampled
		}
	}
	if bezier == 0 {
		return CurveLinear
	}
	if linear == 0 {
		return CurveBezier
	}
	return CurveSampled
}

// curveAnimated reports whether a non-sampled channel actually moves: any
// key value away from the first, or for Bezier any handle off its key value
// (a constant curve with shaped tangents still animates between keys).
func curveAnimated(c *scene.Curve, kind CurveKind) bool {
	if len(c.Keyframes) == 0 {
		return false
	}
	first := c.Keyframes[0].Co[1]
	for _, k := range c.Keyframes {
		if math32.Abs(k.Co[1]-first) > animEpsilon {
			return true
		}
		if kind == CurveBezier {
			if math32.Abs(k.HandleLeft[1]-k.Co[1]) > animEpsilon ||
				math32.Abs(k.HandleRight[1]-k.Co[1]) > animEpsilon {
				return true
			}
		}
	}
	return false
}

// channelGroup binds a transform data path to its per-component track
// targets.
type channelGroup struct {
	dataPath string
	targets  [3]string
}

// The nine object sub-channels plus their delta variants.
var channelGroups = []channelGroup{
	{"location", [3]string{"xloc", "yloc", "zloc"}},
	{"rotation_euler", [3]string{"xrot", "yrot", "zrot"}},
	{"scale", [3]string{"xscl", "yscl", "zscl"}},
	{"delta_location", [3]string{"dxloc", "dyloc", "dzloc"}},
	{"delta_rotation_euler", [3]string{"dxrot", "dyrot", "dzrot"}},
	{"delta_scale", [3]string{"dxscl", "dyscl", "dzscl"}},
}

// animPlan is the classification result for one object's curves.
type animPlan struct {
	// tracks maps a channel target name to its curve and kind, for every
	// animated component channel.
	tracks   []plannedTrack
	sampled  bool
	animated bool
}

type plannedTrack struct {
	target string
	curve  *scene.Curve
	kind   CurveKind
}

// planAnimation classifies every curve of one animation target. A
// quaternion or axis-angle rotation mode, any sampled channel and the force
// flag all escalate the whole target to matrix sampling; component tracks
// and matrix sampling never mix on one target.
func planAnimation(quatMode bool, curves []*scene.Curve, force bool) animPlan {
	var plan animPlan
	for _, c := range curves {
		kind := classifyCurve(c)
		if kind == CurveSampled {
			plan.sampled = true
			plan.animated = true
			continue
		}
		if !curveAnimated(c, kind) {
			continue
		}
		plan.animated = true
		if target := channelTarget(c); target != "" {
			plan.tracks = append(plan.tracks, plannedTrack{target, c, kind})
		} else {
			// Quaternion and axis-angle components have no
			// component-wise encoding.
			plan.sampled = true
		}
	}
	if force || quatMode {
		plan.sampled = plan.sampled || plan.animated
	}
	if plan.sampled {
		plan.tracks = nil
	}
	return plan
}

// channelTarget maps a curve to its track target name, or "" when the data
// path has no component-wise representation.
func channelTarget(c *scene.Curve) string {
	path := c.DataPath
	// Bone channels carry a pose path prefix; strip it.
	if i := lastIndexByte(path, ']'); i >= 0 && i+1 < len(path) && path[i+1] == '.' {
		path = path[i+2:]
	}
	for _, g := range channelGroups {
		if g.dataPath == path && c.ArrayIndex >= 0 && c.ArrayIndex < 3 {
			return g.targets[c.ArrayIndex]
		}
	}
	return ""
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// buildComponentTrack encodes one keyframed channel. Times are relative to
// the animation's begin frame and scaled to seconds; Bezier tracks carry the
// handle arrays split into left (minus) and right (plus).
func buildComponentTrack(pt plannedTrack, begin, frameTime float32) *asset.Track {
	tr := &asset.Track{Target: pt.target, Curve: pt.kind.String()}
	for _, k := range pt.curve.Keyframes {
		tr.Times = append(tr.Times, (k.Co[0]-begin)*frameTime)
		tr.Values = append(tr.Values, k.Co[1])
		if pt.kind == CurveBezier {
			tr.TimesControlMinus = append(tr.TimesControlMinus, (k.HandleLeft[0]-begin)*frameTime)
			tr.ValuesControlMinus = append(tr.ValuesControlMinus, k.HandleLeft[1])
			tr.TimesControlPlus = append(tr.TimesControlPlus, (k.HandleRight[0]-begin)*frameTime)
			tr.ValuesControlPlus = append(tr.ValuesControlPlus, k.HandleRight[1])
		}
	}
	return tr
}

// sampleObjectTrack builds the matrix-sampled track for an object: one
// flattened local transform per timeline frame, both range endpoints
// included, at uniformly spaced times.
func sampleObjectTrack(s scene.FrameSampler, obj *scene.Object, begin, end int, frameTime float32) *asset.Track {
	tr := &asset.Track{Target: "transform", Curve: "sampled"}
	for f := begin; f <= end; f++ {
		tr.Times = append(tr.Times, float32(f-begin)*frameTime)
		tr.Values = append(tr.Values, matrixValues(s.ObjectMatrixLocal(obj, f))...)
	}
	return tr
}

// sampleBoneTrack builds the matrix-sampled track for one bone. Each sample
// is the bone's pose transform expressed relative to its parent's pose, so
// the track composes down the exported bone hierarchy.
func sampleBoneTrack(s scene.FrameSampler, armObj *scene.Object, bone *scene.Bone, begin, end int, frameTime float32) *asset.Track {
	tr := &asset.Track{Target: "transform", Curve: "sampled"}
	for f := begin; f <= end; f++ {
		tr.Times = append(tr.Times, float32(f-begin)*frameTime)
		tr.Values = append(tr.Values, matrixValues(relativeBonePose(s, armObj, bone, f))...)
	}
	return tr
}

func relativeBonePose(s scene.FrameSampler, armObj *scene.Object, bone *scene.Bone, frame int) *geom.Matrix4 {
	pose := s.BonePoseMatrix(armObj, bone.Name, frame)
	if bone.Parent != "" {
		parent := s.BonePoseMatrix(armObj, bone.Parent, frame)
		pose = parent.Inverse().Mul(pose)
	}
	return pose
}

// objectSamplesStatic reports whether the object's sampled local transform
// stays within epsilon of the begin frame over the whole range. Static
// targets emit no sampled track.
func objectSamplesStatic(s scene.FrameSampler, obj *scene.Object, begin, end int) bool {
	first := s.ObjectMatrixLocal(obj, begin)
	for f := begin + 1; f <= end; f++ {
		if !s.ObjectMatrixLocal(obj, f).NearEquals(first, animEpsilon) {
			return false
		}
	}
	return true
}

// boneSamplesStatic is the bone-track counterpart, comparing parent-relative
// pose transforms.
func boneSamplesStatic(s scene.FrameSampler, armObj *scene.Object, bone *scene.Bone, begin, end int) bool {
	first := relativeBonePose(s, armObj, bone, begin)
	for f := begin + 1; f <= end; f++ {
		if !relativeBonePose(s, armObj, bone, f).NearEquals(first, animEpsilon) {
			return false
		}
	}
	return true
}

// staticTransformOps decomposes an object's rest transform into the ops that
// component tracks can address: translation, one rotation per Euler axis in
// evaluation order, then scale.
func staticTransformOps(obj *scene.Object) []*asset.TransformOp {
	mode := obj.RotationMode
	if len(mode) != 3 {
		mode = "XYZ"
	}
	ops := []*asset.TransformOp{
		{Type: "translation", Values: obj.Location[:]},
	}
	axisNames := [3]string{"rotation_x", "rotation_y", "rotation_z"}
	targetNames := [3]string{"xrot", "yrot", "zrot"}
	// Euler axes apply innermost first, so emit them outermost first.
	for i := 2; i >= 0; i-- {
		axis := int(mode[2-i]) - 'X'
		if axis < 0 || axis > 2 {
			continue
		}
		ops = append(ops, &asset.TransformOp{
			Type:  axisNames[axis],
			Name:  targetNames[axis],
			Value: obj.RotationEuler[axis],
		})
	}
	ops = append(ops, &asset.TransformOp{Type: "scale", Values: obj.Scale[:]})
	return ops
}
