// Package transform holds the matrix, vector and quaternion helpers shared by
// the scene graph, the keyframe tracks and the skinning engine.
//
// Matrices are mgl64.Mat4 in column-major order. Composition reads left to
// right, root to leaf: Compose(parent, local) maps a point from the local
// frame into the parent frame.
package transform

import "github.com/go-gl/mathgl/mgl64"

// Identity returns the 4x4 identity matrix
func Identity() mgl64.Mat4 {
	return mgl64.Ident4()
}

// Translate returns a translation matrix
func Translate(x, y, z float64) mgl64.Mat4 {
	return mgl64.Translate3D(x, y, z)
}

// TranslateVec returns a translation matrix for v
func TranslateVec(v mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(v.X(), v.Y(), v.Z())
}

// Scale returns a non-uniform scale matrix
func Scale(x, y, z float64) mgl64.Mat4 {
	return mgl64.Scale3D(x, y, z)
}

// ScaleVec returns a non-uniform scale matrix for v
func ScaleVec(v mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Scale3D(v.X(), v.Y(), v.Z())
}

// ScaleUniform returns a uniform scale matrix
func ScaleUniform(s float64) mgl64.Mat4 {
	return mgl64.Scale3D(s, s, s)
}

// Rotate returns the rotation of angle degrees around axis.
// The axis does not need to be normalized.
func Rotate(axis mgl64.Vec3, degrees float64) mgl64.Mat4 {
	return mgl64.HomogRotate3D(mgl64.DegToRad(degrees), axis.Normalize())
}

// Quaternion returns the identity rotation
func Quaternion() mgl64.Quat {
	return mgl64.QuatIdent()
}

// QuaternionFromEuler builds a rotation from euler angles in degrees.
// Rotations are applied roll (X) first, then pitch (Y), then yaw (Z).
func QuaternionFromEuler(yaw, pitch, roll float64) mgl64.Quat {
	return mgl64.AnglesToQuat(
		mgl64.DegToRad(yaw),
		mgl64.DegToRad(pitch),
		mgl64.DegToRad(roll),
		mgl64.ZYX,
	)
}

// QuaternionMatrix returns the homogeneous rotation matrix of q
func QuaternionMatrix(q mgl64.Quat) mgl64.Mat4 {
	return q.Normalize().Mat4()
}

// Lerp linearly interpolates between a and b
func Lerp(a, b mgl64.Vec3, fraction float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(fraction))
}

// Slerp interpolates between two rotations along the shorter arc.
// q and -q describe the same rotation, so q1 is negated when the two
// quaternions lie in opposite hemispheres.
func Slerp(q0, q1 mgl64.Quat, fraction float64) mgl64.Quat {
	q0, q1 = q0.Normalize(), q1.Normalize()
	if q0.Dot(q1) < 0 {
		q1 = q1.Scale(-1)
	}

	return mgl64.QuatSlerp(q0, q1, fraction)
}

// Compose multiplies the matrices left to right: Compose(A, B, C) = A∘B∘C.
// Compose() is the identity.
func Compose(matrices ...mgl64.Mat4) mgl64.Mat4 {
	out := mgl64.Ident4()
	for _, m := range matrices {
		out = out.Mul4(m)
	}

	return out
}

// Apply transforms the point p by m
func Apply(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TRS returns translate(t)·rotate(r)·scale(s)
func TRS(t mgl64.Vec3, r mgl64.Quat, s mgl64.Vec3) mgl64.Mat4 {
	return TranslateVec(t).Mul4(QuaternionMatrix(r)).Mul4(ScaleVec(s))
}

// Transform is a decomposed translation, rotation, scale triple
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Matrix returns the composed T·R·S matrix
func (t Transform) Matrix() mgl64.Mat4 {
	return TRS(t.Position, t.Rotation, t.Scale)
}
