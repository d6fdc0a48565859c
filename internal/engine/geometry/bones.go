package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rigview/pkg/scene"
)

// BoneSet holds the skinning matrices of one mesh. Matrices always has
// capacity entries; slots past len(Bones) stay identity.
type BoneSet struct {
	Bones    []*scene.Bone
	Matrices []mgl32.Mat4
	// Mesh indexes the scene's meshes.
	Mesh int
}

// NewBoneSet returns a set for the mesh's bones with identity matrices.
// It fails with ErrCapacity when the mesh has more bones than limits allow.
func (l Limits) NewBoneSet(mesh int, bones []*scene.Bone) (*BoneSet, error) {
	if len(bones) > l.MaxBones {
		return nil, l.overflow("bones", l.MaxBones)
	}
	bs := &BoneSet{
		Bones:    bones,
		Matrices: make([]mgl32.Mat4, l.MaxBones),
		Mesh:     mesh,
	}
	bs.Reset()
	return bs, nil
}

// Reset sets every matrix to identity.
func (b *BoneSet) Reset() {
	for i := range b.Matrices {
		b.Matrices[i] = mgl32.Ident4()
	}
}
