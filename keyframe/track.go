// Package keyframe implements time-indexed animation curves.
//
// A Track holds a sparse, strictly increasing set of keys and answers value
// queries by interpolating between the two keys that bracket the query time.
// Outside of the key domain the boundary value is returned unchanged (clamp,
// never extrapolate). Tracks are immutable once built and safe to share.
package keyframe

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyTrack is returned when a track is built without any key
	ErrEmptyTrack = errors.New("keyframe: track has no keys")
	// ErrDuplicateKey is returned when two keys share the same time
	ErrDuplicateKey = errors.New("keyframe: duplicate key time")
	// ErrInvalidTime is returned for NaN or infinite key times
	ErrInvalidTime = errors.New("keyframe: key time is not finite")
)

// Phase describes where a query time falls relative to a track domain
type Phase uint8

const (
	// Resting means the value is clamped to a boundary key (or the track has a single key)
	Resting Phase = iota
	// Interpolating means the time lies strictly inside the key domain
	Interpolating
)

func (p Phase) String() string {
	switch p {
	case Interpolating:
		return "interpolating"
	default:
		return "resting"
	}
}

// Key is one control value of a track
type Key[V any] struct {
	Time  float64
	Value V
}

// Interpolator blends two neighbouring key values, fraction being in [0, 1)
type Interpolator[V any] func(a, b V, fraction float64) V

// Track is an immutable keyframe curve over values of type V
type Track[V any] struct {
	times       []float64
	values      []V
	interpolate Interpolator[V]
}

// NewTrack builds a track from keys given in any order.
// Keys are sorted by time; an empty key set or two keys sharing a time are rejected.
func NewTrack[V any](keys []Key[V], interpolate Interpolator[V]) (*Track[V], error) {
	if len(keys) == 0 {
		return nil, ErrEmptyTrack
	}
	if interpolate == nil {
		return nil, errors.New("keyframe: nil interpolator")
	}

	sorted := make([]Key[V], len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	track := &Track[V]{
		times:       make([]float64, len(sorted)),
		values:      make([]V, len(sorted)),
		interpolate: interpolate,
	}
	for i, key := range sorted {
		if math.IsNaN(key.Time) || math.IsInf(key.Time, 0) {
			return nil, errors.Wrapf(ErrInvalidTime, "key %d", i)
		}
		if i > 0 && key.Time == sorted[i-1].Time {
			return nil, errors.Wrapf(ErrDuplicateKey, "t=%g", key.Time)
		}
		track.times[i] = key.Time
		track.values[i] = key.Value
	}

	return track, nil
}

// FromMap builds a track from a time -> value map
func FromMap[V any](keys map[float64]V, interpolate Interpolator[V]) (*Track[V], error) {
	list := make([]Key[V], 0, len(keys))
	for time, value := range keys {
		list = append(list, Key[V]{Time: time, Value: value})
	}

	return NewTrack(list, interpolate)
}

// Len returns the number of keys
func (tr *Track[V]) Len() int {
	return len(tr.times)
}

// Start returns the time of the first key
func (tr *Track[V]) Start() float64 {
	return tr.times[0]
}

// End returns the time of the last key
func (tr *Track[V]) End() float64 {
	return tr.times[len(tr.times)-1]
}

// Keys returns a copy of the keys in time order
func (tr *Track[V]) Keys() []Key[V] {
	keys := make([]Key[V], len(tr.times))
	for i := range tr.times {
		keys[i] = Key[V]{Time: tr.times[i], Value: tr.values[i]}
	}

	return keys
}

// Phase reports whether t lies strictly inside the key domain
func (tr *Track[V]) Phase(t float64) Phase {
	if len(tr.times) > 1 && t > tr.Start() && t < tr.End() {
		return Interpolating
	}

	return Resting
}

// ValueAt returns the value of the curve at time t.
// Before the first key and at or after the last key the boundary value is returned.
func (tr *Track[V]) ValueAt(t float64) V {
	last := len(tr.times) - 1
	if last == 0 || t <= tr.times[0] {
		return tr.values[0]
	}
	if t >= tr.times[last] {
		return tr.values[last]
	}

	// first key strictly after t, so times[i-1] <= t < times[i]
	i := sort.Search(len(tr.times), func(k int) bool {
		return tr.times[k] > t
	})
	if i > last {
		// only reachable with a NaN time, which then flows into the fraction
		i = last
	}
	t0, t1 := tr.times[i-1], tr.times[i]
	fraction := (t - t0) / (t1 - t0)

	return tr.interpolate(tr.values[i-1], tr.values[i], fraction)
}

// Loop wraps t into [start, end) so that a curve repeats with period end-start.
// Degenerate domains return start.
func Loop(t, start, end float64) float64 {
	period := end - start
	if period <= 0 {
		return start
	}

	wrapped := math.Mod(t-start, period)
	if wrapped < 0 {
		wrapped += period
	}

	return start + wrapped
}
