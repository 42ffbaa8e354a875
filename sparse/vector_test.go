package sparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuantizeRoundTrip(t *testing.T) {
	q := NewQuantizer(4.0)
	b, err := q.Quantize(0.5)
	require.NoError(t, err)
	require.Equal(t, uint8(2), b)

	_, err = q.Quantize(-0.1)
	require.Error(t, err)

	_, err = q.Quantize(64.0)
	require.Error(t, err, "64.0*4.0 saturates past 255")
}

func TestNewRejectsInvariantViolations(t *testing.T) {
	_, err := New([]Item{{Token: 1, Weight: 0}})
	require.Error(t, err)

	_, err = New([]Item{{Token: 2, Weight: 1}, {Token: 1, Weight: 1}})
	require.Error(t, err, "tokens must be ascending")

	_, err = New([]Item{{Token: 1, Weight: 1}, {Token: 1, Weight: 2}})
	require.Error(t, err, "tokens must be unique")
}

func TestDotMatchesDotDense(t *testing.T) {
	a := MustNew([]Item{{Token: 10, Weight: 3}, {Token: 20, Weight: 5}, {Token: 30, Weight: 7}})
	b := MustNew([]Item{{Token: 20, Weight: 2}, {Token: 30, Weight: 4}, {Token: 40, Weight: 9}})

	want := int32(5*2 + 7*4)
	require.Equal(t, want, Dot(a, b))

	dense := b.ToDense(40)
	require.Equal(t, want, DotDense(a.Items(), dense))
}

func TestFromWeightsDropsZeros(t *testing.T) {
	v, err := FromWeights(map[uint32]float32{1: 0.0, 2: 0.5, 3: -1}, NewQuantizer(4.0))
	require.Error(t, err, "negative weight must error")
	require.Nil(t, v)

	v, err = FromWeights(map[uint32]float32{1: 0.0, 2: 0.5}, NewQuantizer(4.0))
	require.NoError(t, err)
	require.Equal(t, 1, v.Len())
	require.Equal(t, uint8(2), v.WeightOf(2))
	require.Equal(t, uint8(0), v.WeightOf(1))
}

func TestMaxToken(t *testing.T) {
	v := MustNew(nil)
	_, ok := v.MaxToken()
	require.False(t, ok)

	v = MustNew([]Item{{Token: 7, Weight: 1}})
	max, ok := v.MaxToken()
	require.True(t, ok)
	require.Equal(t, uint32(7), max)
}
