package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateEmptyCurve(t *testing.T) {
	assert.Equal(t, 0.0, Curve{}.Evaluate(3))
}

func TestEvaluateClampsOutsideRange(t *testing.T) {
	c := Linear([2]float64{0, 2}, [2]float64{1, 4})

	assert.Equal(t, 2.0, c.Evaluate(-5))
	assert.Equal(t, 4.0, c.Evaluate(10))
}

func TestLinearCurveInterpolates(t *testing.T) {
	c := Linear([2]float64{0, 0}, [2]float64{10, 5}, [2]float64{20, 5})

	assert.InDelta(t, 2.5, c.Evaluate(5), 1e-9)
	assert.InDelta(t, 5.0, c.Evaluate(10), 1e-9)
	assert.InDelta(t, 5.0, c.Evaluate(15), 1e-9)
}

func TestHermiteHitsKeys(t *testing.T) {
	c, err := New(
		Keyframe{Time: 0, Value: 1, OutTangent: 3},
		Keyframe{Time: 2, Value: 0, InTangent: -1, OutTangent: 0},
		Keyframe{Time: 3, Value: 0.5},
	)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, c.Evaluate(0), 1e-9)
	assert.InDelta(t, 0.0, c.Evaluate(2), 1e-9)
	assert.InDelta(t, 0.5, c.Evaluate(3), 1e-9)
}

func TestNewRejectsUnsortedKeys(t *testing.T) {
	_, err := New(Keyframe{Time: 1}, Keyframe{Time: 1})
	require.ErrorIs(t, err, ErrUnsorted)
}

func TestConstant(t *testing.T) {
	c := Constant(7)
	assert.Equal(t, 7.0, c.Evaluate(-1))
	assert.Equal(t, 7.0, c.Evaluate(100))

	lo, hi := c.Range()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)
}
