package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatCodecRoundTrip(t *testing.T) {
	c := NewValueFloatCodec(FloatWidth64, Field{})
	for _, v := range []float64{0, 1.5, -1.5, 3.14159, -3.14159} {
		buf := encodeOne(t, c, v)
		got, n, err := c.Decode(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got.(float64))
	}
}

func TestFloatCodecKeyOrderPreservingAcrossSign(t *testing.T) {
	c := NewKeyFloatCodec(FloatWidth64, Field{})
	vals := []float64{-100.5, -1, -0.001, 0, 0.001, 1, 100.5}
	var bufs [][]byte
	for _, v := range vals {
		bufs = append(bufs, encodeOne(t, c, v))
	}
	for i := 0; i < len(bufs)-1; i++ {
		assert.Negative(t, bytesCompare(bufs[i], bufs[i+1]), "%v should sort before %v", vals[i], vals[i+1])
	}
}

func TestFloatCodecKeyOrderDescending(t *testing.T) {
	c := NewKeyFloatCodec(FloatWidth32, Field{Descending: true})
	lo := encodeOne(t, c, float64(1))
	hi := encodeOne(t, c, float64(2))
	assert.Positive(t, bytesCompare(lo, hi))
}

func TestFloatCodecNullable(t *testing.T) {
	c := NewValueFloatCodec(FloatWidth64, Field{Nullable: true})
	buf := encodeOne(t, c, nil)
	got, _, err := c.Decode(buf, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFloatCodecNullLowVsNullHigh(t *testing.T) {
	low := NewKeyFloatCodec(FloatWidth64, Field{Nullable: true, NullLow: true})
	n := encodeOne(t, low, nil)
	z := encodeOne(t, low, float64(0))
	assert.Negative(t, bytesCompare(n, z), "NULL_LOW: null sorts before non-null")

	high := NewKeyFloatCodec(FloatWidth64, Field{Nullable: true, NullLow: false})
	n2 := encodeOne(t, high, nil)
	z2 := encodeOne(t, high, float64(0))
	assert.Positive(t, bytesCompare(n2, z2), "not NULL_LOW: null sorts after non-null")
}

func TestFloatCodecNullLowRoundTrip(t *testing.T) {
	for _, descending := range []bool{false, true} {
		c := NewKeyFloatCodec(FloatWidth64, Field{Nullable: true, NullLow: true, Descending: descending})
		buf := encodeOne(t, c, nil)
		got, n, err := c.Decode(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Nil(t, got)
	}
}
