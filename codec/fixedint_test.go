package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeOne(t *testing.T, c Codec, v any) []byte {
	t.Helper()
	size := c.EncodeSize(v, 0)
	buf := make([]byte, size)
	n, err := c.Encode(v, buf, 0)
	require.NoError(t, err)
	require.Equal(t, size, n)
	return buf
}

func TestIntCodecRoundTrip(t *testing.T) {
	for _, width := range []IntWidth{Width1, Width2, Width4, Width8} {
		c := NewValueIntCodec(width, false, Field{})
		for _, v := range []int64{0, 1, -1, 42, -42} {
			buf := encodeOne(t, c, v)
			got, n, err := c.Decode(buf, 0)
			require.NoError(t, err)
			assert.Equal(t, len(buf), n)
			assert.Equal(t, v, got.(int64))
		}
	}
}

func TestIntCodecKeyOrderPreserving(t *testing.T) {
	c := NewKeyIntCodec(Width4, false, Field{})
	vals := []int64{-1000, -1, 0, 1, 1000}
	var bufs [][]byte
	for _, v := range vals {
		bufs = append(bufs, encodeOne(t, c, v))
	}
	for i := 0; i < len(bufs)-1; i++ {
		assert.Negative(t, bytesCompare(bufs[i], bufs[i+1]), "key bytes for %d should sort before %d", vals[i], vals[i+1])
	}
}

func TestIntCodecKeyOrderDescending(t *testing.T) {
	c := NewKeyIntCodec(Width4, false, Field{Descending: true})
	lo := encodeOne(t, c, int64(1))
	hi := encodeOne(t, c, int64(2))
	assert.Positive(t, bytesCompare(lo, hi), "descending: larger value encodes to smaller bytes")
}

func TestIntCodecUnsignedOrder(t *testing.T) {
	c := NewKeyIntCodec(Width1, true, Field{})
	lo := encodeOne(t, c, uint8(0))
	hi := encodeOne(t, c, uint8(255))
	assert.Negative(t, bytesCompare(lo, hi))
}

func TestIntCodecNullable(t *testing.T) {
	c := NewValueIntCodec(Width4, false, Field{Nullable: true})
	buf := encodeOne(t, c, nil)
	got, n, err := c.Decode(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Nil(t, got)
}

func TestIntCodecNullLowVsNullHigh(t *testing.T) {
	low := NewKeyIntCodec(Width4, false, Field{Nullable: true, NullLow: true})
	n := encodeOne(t, low, nil)
	z := encodeOne(t, low, int64(0))
	assert.Negative(t, bytesCompare(n, z), "NULL_LOW: null sorts before non-null")

	high := NewKeyIntCodec(Width4, false, Field{Nullable: true, NullLow: false})
	n2 := encodeOne(t, high, nil)
	z2 := encodeOne(t, high, int64(0))
	assert.Positive(t, bytesCompare(n2, z2), "not NULL_LOW: null sorts after non-null")
}

func TestIntCodecNullLowRoundTrip(t *testing.T) {
	for _, descending := range []bool{false, true} {
		c := NewKeyIntCodec(Width4, false, Field{Nullable: true, NullLow: true, Descending: descending})
		buf := encodeOne(t, c, nil)
		got, n, err := c.Decode(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Nil(t, got)
	}
}

func TestIntCodecRequiredColumnUnset(t *testing.T) {
	c := NewValueIntCodec(Width4, false, Field{})
	buf := make([]byte, c.MinSize())
	_, err := c.Encode(nil, buf, 0)
	require.Error(t, err)
}

func bytesCompare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
