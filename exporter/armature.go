package exporter

import (
	"fmt"

	"github.com/skaia3d/sceneforge/asset"
	"github.com/skaia3d/sceneforge/geom"
	"github.com/skaia3d/sceneforge/scene"
)

// poseAction is the action name used for armatures without one, exporting
// the current pose as a single-frame setup.
const poseAction = "pose"

// emitArmature exports the bone hierarchy of an armature object into a
// companion document and records the reference plus clip setup on the node.
func (e *Exporter) emitArmature(obj *scene.Object, o *asset.Object) error {
	arm := e.scn.Armature(obj.DataRef)
	if arm == nil {
		return fmt.Errorf("exporter: object %s references unknown armature %s", obj.Name, obj.DataRef)
	}

	action := obj.Action
	actionName := poseAction
	if action != nil {
		actionName = action.Name
	}
	bonesName := "bones_" + arm.Name + "_" + actionName
	o.BonesRef = bonesName

	if _, done := e.boneDocs[bonesName]; !done {
		doc := &asset.Document{Objects: []*asset.Object{}}
		for _, root := range arm.RootBones() {
			bo, err := e.emitBone(obj, arm, root, action)
			if err != nil {
				return err
			}
			doc.Objects = append(doc.Objects, bo)
		}
		e.boneDocs[bonesName] = doc
	}

	if len(obj.Clips) > 0 {
		setup := &asset.AnimationSetup{
			FrameTime:  e.frameTime,
			StartTrack: obj.StartTrack,
			MaxBones:   e.cfg.MaxBones,
		}
		if setup.StartTrack == "" {
			setup.StartTrack = obj.Clips[0].Name
		}
		for _, c := range obj.Clips {
			speed := c.Speed
			if speed == 0 {
				speed = 1
			}
			setup.Names = append(setup.Names, c.Name)
			setup.Starts = append(setup.Starts, c.Start)
			setup.Ends = append(setup.Ends, c.End)
			setup.Speeds = append(setup.Speeds, speed)
			setup.Loops = append(setup.Loops, c.Loop)
			setup.Reflects = append(setup.Reflects, c.Reflect)
		}
		o.AnimationSetup = setup
	}
	return nil
}

// emitBone exports one bone node: its pose transform relative to the parent
// bone's pose, its animation, child bones, and any scene objects parented to
// it.
func (e *Exporter) emitBone(armObj *scene.Object, arm *scene.Armature, bone *scene.Bone, action *scene.Action) (*asset.Object, error) {
	o := &asset.Object{
		Type:   structIdentifier[nodeBone],
		Name:   bone.Name,
		Traits: []*asset.Trait{},
	}

	pose := e.Sampler.BonePoseMatrix(armObj, bone.Name, e.begin)
	rel := pose
	if bone.Parent != "" {
		parent := e.Sampler.BonePoseMatrix(armObj, bone.Parent, e.begin)
		rel = parent.Inverse().Mul(pose)
	}
	o.Transform = &asset.Transform{Values: matrixValues(rel)}

	if action != nil {
		curves := action.BoneCurves(bone.Name)
		plan := planAnimation(false, curves, e.cfg.SampleAnimation)
		if plan.animated {
			begin, end := actionRange(action, e.begin, e.end)
			if plan.sampled {
				if !boneSamplesStatic(e.Sampler, armObj, bone, begin, end) {
					o.Transform.Target = "transform"
					o.Animation = &asset.Animation{
						Begin:  float32(begin-e.begin) * e.frameTime,
						End:    float32(end-e.begin) * e.frameTime,
						Tracks: []*asset.Track{sampleBoneTrack(e.Sampler, armObj, bone, begin, end, e.frameTime)},
					}
				}
			} else {
				o.Transform.Target = "transform"
				anim := &asset.Animation{}
				for _, pt := range plan.tracks {
					anim.Tracks = append(anim.Tracks, buildComponentTrack(pt, float32(e.begin), e.frameTime))
				}
				o.Animation = anim
			}
		}
	}

	for _, child := range arm.BoneChildren(bone.Name) {
		co, err := e.emitBone(armObj, arm, child, action)
		if err != nil {
			return nil, err
		}
		o.Children = append(o.Children, co)
	}

	// Scene objects parented to this bone attach under the bone node. The
	// bone's pose transform is inverted out of their rest transform unless
	// the bone keeps relative parenting.
	if subs := e.boneParents[bone.Name]; len(subs) > 0 {
		var poseInverse *geom.Matrix4
		if !bone.RelativeParent {
			poseInverse = pose.Inverse()
		}
		for _, sub := range subs {
			if err := e.emitObject(sub, poseInverse, o); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}

// actionRange caps an action's frame range to the timeline bounds.
func actionRange(a *scene.Action, begin, end int) (int, int) {
	b, en := int(a.FrameStart), int(a.FrameEnd)
	if b < begin {
		b = begin
	}
	if en > end {
		en = end
	}
	return b, en
}
