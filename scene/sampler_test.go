package scene

import (
	"testing"

	"github.com/skaia3d/sceneforge/geom"
)

func TestSnapshotSamplerObject(t *testing.T) {
	obj := &Object{
		MatrixLocal: *geom.NewTranslateMatrix4(9, 0, 0),
		Samples: []*FrameSample{
			{Frame: 10, Matrix: *geom.NewTranslateMatrix4(1, 0, 0)},
			{Frame: 20, Matrix: *geom.NewTranslateMatrix4(2, 0, 0)},
		},
	}
	s := SnapshotSampler{}
	if got := s.ObjectMatrixLocal(obj, 5).Translation().X; got != 9 {
		t.Error("before first sample should fall back to rest, got", got)
	}
	if got := s.ObjectMatrixLocal(obj, 10).Translation().X; got != 1 {
		t.Error("exact frame, got", got)
	}
	if got := s.ObjectMatrixLocal(obj, 15).Translation().X; got != 1 {
		t.Error("between samples should hold the preceding one, got", got)
	}
	if got := s.ObjectMatrixLocal(obj, 99).Translation().X; got != 2 {
		t.Error("after last sample, got", got)
	}
}

func TestSnapshotSamplerBone(t *testing.T) {
	obj := &Object{
		Pose: map[string]geom.Matrix4{"a": *geom.NewTranslateMatrix4(5, 0, 0)},
		PoseSamples: []*PoseSample{
			{Frame: 3, Bones: map[string]geom.Matrix4{"a": *geom.NewTranslateMatrix4(7, 0, 0)}},
		},
	}
	s := SnapshotSampler{}
	if got := s.BonePoseMatrix(obj, "a", 1).Translation().X; got != 5 {
		t.Error("rest pose fallback, got", got)
	}
	if got := s.BonePoseMatrix(obj, "a", 4).Translation().X; got != 7 {
		t.Error("sampled pose, got", got)
	}
	if got := s.BonePoseMatrix(obj, "missing", 4).Translation().X; got != 0 {
		t.Error("unknown bone should yield identity, got", got)
	}
}
