package scene

import "github.com/skaia3d/sceneforge/geom"

// FrameSampler evaluates transforms at a specific timeline frame.
//
// From the caller's perspective this is a pure query: an implementation that
// seeks a live host scene must restore the original frame before returning,
// on every path. The snapshot implementation below reads pre-evaluated
// samples and has no side effects.
type FrameSampler interface {
	// ObjectMatrixLocal returns the object's local transform at frame.
	ObjectMatrixLocal(obj *Object, frame int) *geom.Matrix4
	// BonePoseMatrix returns the armature-space pose transform of a bone of
	// the given armature object at frame.
	BonePoseMatrix(armatureObj *Object, bone string, frame int) *geom.Matrix4
}

// SnapshotSampler serves frame queries from the per-frame samples stored in
// the snapshot. Frames without a stored sample fall back to the nearest
// preceding sample, then to the rest transform.
type SnapshotSampler struct{}

func (SnapshotSampler) ObjectMatrixLocal(obj *Object, frame int) *geom.Matrix4 {
	m := obj.MatrixLocal
	for _, s := range obj.Samples {
		if s.Frame > frame {
			break
		}
		m = s.Matrix
	}
	return &m
}

func (SnapshotSampler) BonePoseMatrix(armatureObj *Object, bone string, frame int) *geom.Matrix4 {
	var m *geom.Matrix4
	for _, s := range armatureObj.PoseSamples {
		if s.Frame > frame {
			break
		}
		if bm, ok := s.Bones[bone]; ok {
			c := bm
			m = &c
		}
	}
	if m == nil {
		if bm, ok := armatureObj.Pose[bone]; ok {
			c := bm
			return &c
		}
		return geom.NewMatrix4()
	}
	return m
}
