package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringCodecValueRoundTrip(t *testing.T) {
	c := NewValueStringCodec(Field{})
	for _, s := range []string{"", "hello", "unicode: é中文"} {
		buf := encodeOne(t, c, s)
		got, n, err := c.Decode(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, s, got.(string))
	}
}

func TestStringCodecValueNullableLastOmitsLength(t *testing.T) {
	c := NewValueStringCodec(Field{Nullable: true, IsLast: true})
	buf := encodeOne(t, c, "tail")
	// header byte + raw bytes, no varint length
	assert.Equal(t, 1+len("tail"), len(buf))
	got, n, err := c.Decode(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, "tail", got.(string))
}

func TestStringCodecValueNullableLastNull(t *testing.T) {
	c := NewValueStringCodec(Field{Nullable: true, IsLast: true})
	buf := encodeOne(t, c, nil)
	assert.Equal(t, 1, len(buf))
	got, n, err := c.Decode(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Nil(t, got)
}

func TestStringCodecKeyRoundTrip(t *testing.T) {
	c := NewKeyStringCodec(Field{})
	for _, s := range []string{"", "a", "ab", "hello world", "has\x00null"} {
		buf := encodeOne(t, c, s)
		got, n, err := c.Decode(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, s, got.(string))
	}
}

func TestStringCodecKeyOrderPrefixFree(t *testing.T) {
	c := NewKeyStringCodec(Field{})
	a := encodeOne(t, c, "ab")
	b := encodeOne(t, c, "abc")
	assert.Negative(t, bytesCompare(a, b), "shorter string sorts before its own extension")
}

func TestStringCodecKeyOrderLexicographic(t *testing.T) {
	c := NewKeyStringCodec(Field{})
	vals := []string{"alpha", "beta", "gamma"}
	var bufs [][]byte
	for _, v := range vals {
		bufs = append(bufs, encodeOne(t, c, v))
	}
	for i := 0; i < len(bufs)-1; i++ {
		assert.Negative(t, bytesCompare(bufs[i], bufs[i+1]))
	}
}

func TestStringCodecKeyOrderDescending(t *testing.T) {
	c := NewKeyStringCodec(Field{Descending: true})
	a := encodeOne(t, c, "aaa")
	b := encodeOne(t, c, "bbb")
	assert.Positive(t, bytesCompare(a, b), "descending: lexicographically smaller string encodes larger")
}

func TestStringCodecKeyNullLowVsHigh(t *testing.T) {
	low := NewKeyStringCodec(Field{Nullable: true, NullLow: true})
	n := encodeOne(t, low, nil)
	s := encodeOne(t, low, "a")
	assert.Negative(t, bytesCompare(n, s))

	high := NewKeyStringCodec(Field{Nullable: true, NullLow: false})
	n2 := encodeOne(t, high, nil)
	s2 := encodeOne(t, high, "a")
	assert.Positive(t, bytesCompare(n2, s2))
}

func TestStringCodecKeyEmbeddedNullEscaping(t *testing.T) {
	c := NewKeyStringCodec(Field{})
	s := "a\x00b"
	buf := encodeOne(t, c, s)
	got, n, err := c.Decode(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, s, got.(string))
}
