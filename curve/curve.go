// Package curve implements designer-authored 1-D response curves.
package curve

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnsorted is returned when keyframe times are not strictly increasing
var ErrUnsorted = errors.New("curve keyframes must have strictly increasing times")

// Keyframe is a single curve sample with Hermite tangents
type Keyframe struct {
	Time       float64 `mapstructure:"time"`
	Value      float64 `mapstructure:"value"`
	InTangent  float64 `mapstructure:"inTangent"`
	OutTangent float64 `mapstructure:"outTangent"`
}

// Curve evaluates a piecewise cubic Hermite spline through its keys.
// Inputs outside the key range clamp to the first/last value.
type Curve struct {
	Keys []Keyframe `mapstructure:"keys"`
}

// New returns a curve over the given keys after validating their order
func New(keys ...Keyframe) (Curve, error) {
	c := Curve{Keys: keys}
	if err := c.Validate(); err != nil {
		return Curve{}, err
	}
	return c, nil
}

// Linear builds a curve through (time, value) pairs whose tangents follow
// the straight segments, so evaluation is piecewise linear.
func Linear(points ...[2]float64) Curve {
	keys := make([]Keyframe, len(points))
	for i, p := range points {
		keys[i] = Keyframe{Time: p[0], Value: p[1]}
	}
	for i := 0; i < len(keys)-1; i++ {
		slope := (keys[i+1].Value - keys[i].Value) / (keys[i+1].Time - keys[i].Time)
		keys[i].OutTangent = slope
		keys[i+1].InTangent = slope
	}
	return Curve{Keys: keys}
}

// Constant returns a curve that evaluates to v everywhere
func Constant(v float64) Curve {
	return Curve{Keys: []Keyframe{{Time: 0, Value: v}}}
}

// Validate checks that key times are strictly increasing
func (c Curve) Validate() error {
	for i := 1; i < len(c.Keys); i++ {
		if c.Keys[i].Time <= c.Keys[i-1].Time {
			return fmt.Errorf("key %d at %.4f: %w", i, c.Keys[i].Time, ErrUnsorted)
		}
	}
	return nil
}

// Evaluate samples the curve at t
func (c Curve) Evaluate(t float64) float64 {
	n := len(c.Keys)
	switch {
	case n == 0:
		return 0
	case t <= c.Keys[0].Time:
		return c.Keys[0].Value
	case t >= c.Keys[n-1].Time:
		return c.Keys[n-1].Value
	}

	// First key strictly after t; the segment is [i-1, i]
	i := sort.Search(n, func(i int) bool { return c.Keys[i].Time > t })
	k0, k1 := c.Keys[i-1], c.Keys[i]

	dt := k1.Time - k0.Time
	s := (t - k0.Time) / dt
	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	return h00*k0.Value + h10*dt*k0.OutTangent + h01*k1.Value + h11*dt*k1.InTangent
}

// Range returns the time span covered by the keys
func (c Curve) Range() (float64, float64) {
	if len(c.Keys) == 0 {
		return 0, 0
	}
	return c.Keys[0].Time, c.Keys[len(c.Keys)-1].Time
}
