package fixed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFixed(t *testing.T) {
	testCases := []struct {
		name string
		v    float32
		q    uint8
		want int16
	}{
		{name: "one in q11", v: 1.0, q: 11, want: 2048},
		{name: "minus one in q13", v: -1.0, q: 13, want: -8192},
		{name: "zero", v: 0, q: QEuler, want: 0},
		{name: "truncates positive", v: 1.0009, q: 11, want: 2049},
		{name: "truncates toward zero", v: -0.00049, q: 11, want: -1},
		{name: "small negative to zero", v: -0.0004, q: 11, want: 0},
		{name: "gravity q11", v: 9.81, q: QAccel, want: 20090},
		{name: "pi q13", v: math.Pi, q: QEuler, want: 25735},
		{name: "largest q11", v: 15.9999, q: 11, want: 32767},
		{name: "most negative q11", v: -16, q: 11, want: -32768},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToFixed(tc.v, tc.q))
		})
	}
}

func TestConvertSaturates(t *testing.T) {
	x, err := Convert(16, QAccel)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, int16(math.MaxInt16), x)

	x, err = Convert(-16.001, QAccel)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, int16(math.MinInt16), x)

	x, err = Convert(float32(math.Inf(1)), QEuler)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, int16(math.MaxInt16), x)

	x, err = Convert(float32(math.NaN()), QEuler)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Zero(t, x)

	x, err = Convert(-16, QAccel)
	require.NoError(t, err)
	assert.Equal(t, int16(math.MinInt16), x)
}

func TestToFloat(t *testing.T) {
	assert.Equal(t, float32(1), ToFloat(2048, 11))
	assert.Equal(t, float32(-1), ToFloat(-8192, 13))

	lo, hi := Range(QEuler)
	assert.Equal(t, float32(-4), lo)
	assert.InDelta(t, 4, hi, 0.001)
	assert.Greater(t, float64(hi), math.Pi)
}
