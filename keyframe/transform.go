package keyframe

import (
	"math"

	"github.com/akmonengine/grove/transform"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Vec3 builds a linearly interpolated vector track (translation or scale)
func Vec3(keys map[float64]mgl64.Vec3) (*Track[mgl64.Vec3], error) {
	return FromMap(keys, transform.Lerp)
}

// Quat builds a rotation track interpolated along the shorter arc
func Quat(keys map[float64]mgl64.Quat) (*Track[mgl64.Quat], error) {
	return FromMap(keys, transform.Slerp)
}

// Uniform builds a scale track from scalar factors
func Uniform(keys map[float64]float64) (*Track[mgl64.Vec3], error) {
	vectors := make(map[float64]mgl64.Vec3, len(keys))
	for time, s := range keys {
		vectors[time] = mgl64.Vec3{s, s, s}
	}

	return Vec3(vectors)
}

// Transform bundles the three channels of an animated node.
// Its value at t is translate(t)·rotate(t)·scale(t).
type Transform struct {
	Translate *Track[mgl64.Vec3]
	Rotate    *Track[mgl64.Quat]
	Scale     *Track[mgl64.Vec3]
}

// NewTransform validates and bundles three channel tracks
func NewTransform(translate *Track[mgl64.Vec3], rotate *Track[mgl64.Quat], scale *Track[mgl64.Vec3]) (*Transform, error) {
	switch {
	case translate == nil:
		return nil, errors.Wrap(ErrEmptyTrack, "translate")
	case rotate == nil:
		return nil, errors.Wrap(ErrEmptyTrack, "rotate")
	case scale == nil:
		return nil, errors.Wrap(ErrEmptyTrack, "scale")
	}

	return &Transform{Translate: translate, Rotate: rotate, Scale: scale}, nil
}

// NewTransformFromMaps builds the three channels from key maps, the way scenes
// are usually written by hand: vectors for translation, quaternions for
// rotation and scalar factors for a uniform scale.
func NewTransformFromMaps(translate map[float64]mgl64.Vec3, rotate map[float64]mgl64.Quat, scale map[float64]float64) (*Transform, error) {
	t, err := Vec3(translate)
	if err != nil {
		return nil, errors.Wrap(err, "translate")
	}
	r, err := Quat(rotate)
	if err != nil {
		return nil, errors.Wrap(err, "rotate")
	}
	s, err := Uniform(scale)
	if err != nil {
		return nil, errors.Wrap(err, "scale")
	}

	return NewTransform(t, r, s)
}

// ValueAt returns the composed local matrix at time t
func (kf *Transform) ValueAt(t float64) mgl64.Mat4 {
	return transform.TRS(
		kf.Translate.ValueAt(t),
		kf.Rotate.ValueAt(t),
		kf.Scale.ValueAt(t),
	)
}

// Phase is Interpolating when any of the three channels is
func (kf *Transform) Phase(t float64) Phase {
	if kf.Translate.Phase(t) == Interpolating ||
		kf.Rotate.Phase(t) == Interpolating ||
		kf.Scale.Phase(t) == Interpolating {
		return Interpolating
	}

	return Resting
}

// Start returns the earliest key time over the three channels
func (kf *Transform) Start() float64 {
	return math.Min(kf.Translate.Start(), math.Min(kf.Rotate.Start(), kf.Scale.Start()))
}

// End returns the latest key time over the three channels
func (kf *Transform) End() float64 {
	return math.Max(kf.Translate.End(), math.Max(kf.Rotate.End(), kf.Scale.End()))
}
