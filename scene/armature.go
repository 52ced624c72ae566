package scene

import "github.com/skaia3d/sceneforge/geom"

// Armature is a bone hierarchy. Bones appears in the host's skeleton
// traversal order, parents before children; that order defines the bone
// indices used by skin bindings.
type Armature struct {
	Name  string  `yaml:"name" json:"name"`
	Bones []*Bone `yaml:"bones" json:"bones"`

	boneByName map[string]*Bone
}

type Bone struct {
	Name   string `yaml:"name" json:"name"`
	Parent string `yaml:"parent" json:"parent"`

	// MatrixLocal is the armature-space rest transform.
	MatrixLocal geom.Matrix4 `yaml:"matrix_local" json:"matrix_local"`

	// RelativeParent keeps the bone's pose transform in children parented to
	// this bone instead of inverting it out.
	RelativeParent bool `yaml:"relative_parent" json:"relative_parent"`
}

func (a *Armature) init() {
	a.boneByName = map[string]*Bone{}
	for _, b := range a.Bones {
		a.boneByName[b.Name] = b
	}
}

func (a *Armature) Bone(name string) *Bone {
	if a.boneByName == nil {
		a.init()
	}
	return a.boneByName[name]
}

// RootBones returns the unparented bones in skeleton order.
func (a *Armature) RootBones() []*Bone {
	var roots []*Bone
	for _, b := range a.Bones {
		if b.Parent == "" {
			roots = append(roots, b)
		}
	}
	return roots
}

// BoneChildren returns the direct children of the named bone in skeleton order.
func (a *Armature) BoneChildren(name string) []*Bone {
	var children []*Bone
	for _, b := range a.Bones {
		if b.Parent == name {
			children = append(children, b)
		}
	}
	return children
}

// BoneIndex returns the skeleton-order index of the named bone, or -1.
func (a *Armature) BoneIndex(name string) int {
	for i, b := range a.Bones {
		if b.Name == name {
			return i
		}
	}
	return -1
}
