package keyframe

import (
	"testing"

	"github.com/akmonengine/grove/transform"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityKeys() (map[float64]mgl64.Vec3, map[float64]mgl64.Quat, map[float64]float64) {
	return map[float64]mgl64.Vec3{0: {}},
		map[float64]mgl64.Quat{0: transform.Quaternion()},
		map[float64]float64{0: 1}
}

func TestNewTransform_MissingChannel(t *testing.T) {
	tr, r, s := identityKeys()
	translate, err := Vec3(tr)
	require.NoError(t, err)
	rotate, err := Quat(r)
	require.NoError(t, err)
	scale, err := Uniform(s)
	require.NoError(t, err)

	_, err = NewTransform(nil, rotate, scale)
	assert.ErrorIs(t, err, ErrEmptyTrack)
	_, err = NewTransform(translate, nil, scale)
	assert.ErrorIs(t, err, ErrEmptyTrack)
	_, err = NewTransform(translate, rotate, nil)
	assert.ErrorIs(t, err, ErrEmptyTrack)
}

func TestNewTransformFromMaps_Errors(t *testing.T) {
	tr, r, s := identityKeys()

	_, err := NewTransformFromMaps(map[float64]mgl64.Vec3{}, r, s)
	assert.ErrorIs(t, err, ErrEmptyTrack)
	assert.Contains(t, err.Error(), "translate")

	_, err = NewTransformFromMaps(tr, map[float64]mgl64.Quat{}, s)
	assert.ErrorIs(t, err, ErrEmptyTrack)
	assert.Contains(t, err.Error(), "rotate")

	_, err = NewTransformFromMaps(tr, r, map[float64]float64{})
	assert.ErrorIs(t, err, ErrEmptyTrack)
	assert.Contains(t, err.Error(), "scale")
}

func TestTransform_ValueAtComposesTRS(t *testing.T) {
	kf, err := NewTransformFromMaps(
		map[float64]mgl64.Vec3{0: {0, 0, 0}, 2: {4, 0, 0}},
		map[float64]mgl64.Quat{0: transform.Quaternion(), 2: transform.QuaternionFromEuler(180, 0, 0)},
		map[float64]float64{0: 1, 2: 3},
	)
	require.NoError(t, err)

	want := transform.Compose(
		transform.Translate(2, 0, 0),
		transform.QuaternionMatrix(transform.QuaternionFromEuler(90, 0, 0)),
		transform.ScaleUniform(2),
	)
	got := kf.ValueAt(1)
	assert.InDeltaSlice(t, want[:], got[:], tolerance, "got %v", got)

	// x axis: scaled by 2, rotated by 90 degrees about z, moved by 2 on x
	p := transform.Apply(kf.ValueAt(1), mgl64.Vec3{1, 0, 0})
	assert.InDeltaSlice(t, []float64{2, 2, 0}, p[:], tolerance, "got %v", p)
}

func TestTransform_DomainAndPhase(t *testing.T) {
	kf, err := NewTransformFromMaps(
		map[float64]mgl64.Vec3{0: {}, 3: {0, -0.3, 0}, 5: {}},
		map[float64]mgl64.Quat{0: transform.Quaternion(), 2: transform.QuaternionFromEuler(0, -30, 0), 4: transform.Quaternion()},
		map[float64]float64{1: 1, 6: 1},
	)
	require.NoError(t, err)

	assert.Equal(t, 0.0, kf.Start())
	assert.Equal(t, 6.0, kf.End())
	assert.Equal(t, Resting, kf.Phase(0))
	assert.Equal(t, Interpolating, kf.Phase(4.5))
	assert.Equal(t, Interpolating, kf.Phase(5.5))
	assert.Equal(t, Resting, kf.Phase(6))
}

func TestTransform_FreezesAfterLastKey(t *testing.T) {
	kf, err := NewTransformFromMaps(
		map[float64]mgl64.Vec3{0: {}, 1: {1, 2, 3}},
		map[float64]mgl64.Quat{0: transform.Quaternion()},
		map[float64]float64{0: 1},
	)
	require.NoError(t, err)

	assert.Equal(t, kf.ValueAt(1), kf.ValueAt(100))
	want := transform.Translate(1, 2, 3)
	got := kf.ValueAt(100)
	assert.InDeltaSlice(t, want[:], got[:], tolerance)
}
